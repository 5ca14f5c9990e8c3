// internal/database/database.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"libraryweb/internal/config"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the configured store and verifies the connection.
func Open(ctx context.Context, cfg config.DBConfig) (*sqlx.DB, error) {
	dsn, err := DSN(cfg, true)
	if err != nil {
		return nil, err
	}

	if cfg.Driver == config.DriverSQLite {
		if dir := filepath.Dir(cfg.Name); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == config.DriverSQLite {
		// A single connection serializes writers instead of surfacing SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return db, nil
}

// DSN builds the driver connection string. When withDatabase is false the
// DSN points at the server itself so the database can be created.
func DSN(cfg config.DBConfig, withDatabase bool) (string, error) {
	if cfg.URL != "" && withDatabase {
		return cfg.URL, nil
	}

	switch cfg.Driver {
	case config.DriverPostgres:
		name := cfg.Name
		if !withDatabase {
			name = "postgres"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.User, cfg.Password),
			Host:     net.JoinHostPort(cfg.Host, cfg.Port),
			Path:     "/" + name,
			RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
		}
		return u.String(), nil

	case config.DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
		if withDatabase {
			mc.DBName = cfg.Name
		}
		mc.ParseTime = true
		mc.Loc = time.UTC
		return mc.FormatDSN(), nil

	case config.DriverSQLite:
		return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", cfg.Name), nil
	}

	return "", fmt.Errorf("unsupported driver %q", cfg.Driver)
}

// ForUpdate returns the row-locking suffix for a SELECT, empty where the
// driver has no row locks.
func ForUpdate(driver string) string {
	if driver == config.DriverSQLite {
		return ""
	}
	return " FOR UPDATE"
}

// TxOptions returns the options for transactions that read rows another
// transaction may have just committed. MySQL defaults to REPEATABLE READ,
// whose snapshot would hide them; sqlite takes no isolation level.
func TxOptions(driver string) *sql.TxOptions {
	if driver == config.DriverSQLite {
		return nil
	}
	return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
}

// InsertID executes an INSERT and returns the generated id.
func InsertID(ctx context.Context, ext sqlx.ExtContext, query string, args ...interface{}) (int64, error) {
	query = ext.Rebind(query)
	if ext.DriverName() == config.DriverPostgres {
		var id int64
		if err := ext.QueryRowxContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := ext.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DateOf truncates t to its local calendar day, expressed as midnight UTC.
// DATE columns are written and compared in this form.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
