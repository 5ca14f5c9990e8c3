// internal/database/bootstrap.go
package database

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"libraryweb/internal/config"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Bootstrap creates the database if needed, migrates the schema and seeds
// sample data into empty tables. It is meant to be run once at setup time.
func Bootstrap(ctx context.Context, cfg config.DBConfig) error {
	if err := EnsureDatabase(ctx, cfg); err != nil {
		return err
	}

	db, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := Migrate(ctx, db); err != nil {
		return err
	}
	log.Printf("Database tables created/updated successfully")

	return Seed(ctx, db, time.Now())
}

// EnsureDatabase creates the configured database when the server does not
// have it yet. SQLite creates its file on first open.
func EnsureDatabase(ctx context.Context, cfg config.DBConfig) error {
	if cfg.Driver == config.DriverSQLite {
		return nil
	}
	if cfg.URL != "" {
		log.Printf("DATABASE_URL set, assuming database already exists")
		return nil
	}

	dsn, err := DSN(cfg, false)
	if err != nil {
		return err
	}
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, dsn)
	if err != nil {
		return fmt.Errorf("connect to %s server: %w", cfg.Driver, err)
	}
	defer db.Close()

	switch cfg.Driver {
	case config.DriverPostgres:
		var exists bool
		if err := db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, cfg.Name); err != nil {
			return fmt.Errorf("check database: %w", err)
		}
		if exists {
			return nil
		}
		if _, err := db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(cfg.Name)); err != nil {
			return fmt.Errorf("create database: %w", err)
		}
	case config.DriverMySQL:
		name := "`" + strings.ReplaceAll(cfg.Name, "`", "``") + "`"
		if _, err := db.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS "+name); err != nil {
			return fmt.Errorf("create database: %w", err)
		}
	}

	log.Printf("Database %s ready", cfg.Name)
	return nil
}

// Migrate creates missing tables, adds columns missing from an older books
// table and installs the one-open-borrowing-per-book constraint.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	d, ok := dialects[db.DriverName()]
	if !ok {
		return fmt.Errorf("no schema for driver %q", db.DriverName())
	}

	for _, stmt := range d.tables {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	var columns []string
	if err := db.SelectContext(ctx, &columns, d.columnsQuery); err != nil {
		return fmt.Errorf("describe books: %w", err)
	}
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[strings.ToLower(c)] = true
	}

	missing := make([]string, 0, len(d.bookColumns))
	for name := range d.bookColumns {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)

	for _, name := range missing {
		stmt := fmt.Sprintf("ALTER TABLE books ADD COLUMN %s %s", name, d.bookColumns[name])
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add books.%s: %w", name, err)
		}
		log.Printf("Added column books.%s", name)

		if name == "created_at" || name == "updated_at" {
			backfill := fmt.Sprintf("UPDATE books SET %s = CURRENT_TIMESTAMP WHERE %s IS NULL", name, name)
			if _, err := db.ExecContext(ctx, backfill); err != nil {
				return fmt.Errorf("backfill books.%s: %w", name, err)
			}
		}
	}

	for _, stmt := range d.extra {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply constraint: %w", err)
		}
	}
	return nil
}

type sampleBook struct {
	title, author  string
	year           int
	isbn, category string
	description    string
}

type sampleMember struct {
	name, email, phone, address, joined string
}

var sampleBooks = []sampleBook{
	{"The Great Gatsby", "F. Scott Fitzgerald", 1925, "978-0-7432-7356-5", "Fiction", "A classic American novel set in the 1920s"},
	{"To Kill a Mockingbird", "Harper Lee", 1960, "978-0-06-112008-4", "Fiction", "A gripping tale of racial injustice and childhood innocence"},
	{"1984", "George Orwell", 1949, "978-0-452-28423-4", "Fiction", "A dystopian social science fiction novel"},
	{"Pride and Prejudice", "Jane Austen", 1813, "978-0-14-143951-8", "Romance", "A romantic novel of manners"},
	{"The Catcher in the Rye", "J.D. Salinger", 1951, "978-0-316-76948-0", "Fiction", "A coming-of-age story"},
	{"Python Programming", "John Smith", 2020, "978-1-234-56789-0", "Technology", "Complete guide to Python programming"},
	{"Data Science Handbook", "Jane Doe", 2019, "978-0-987-65432-1", "Technology", "Comprehensive guide to data science"},
	{"World History", "Robert Johnson", 2018, "978-1-111-22222-3", "History", "A comprehensive look at world history"},
}

var sampleMembers = []sampleMember{
	{"John Doe", "john.doe@email.com", "+1-555-0123", "123 Main St, City", "2024-01-15"},
	{"Jane Smith", "jane.smith@email.com", "+1-555-0124", "456 Oak Ave, City", "2024-01-20"},
	{"Mike Johnson", "mike.johnson@email.com", "+1-555-0125", "789 Pine Rd, City", "2024-02-01"},
	{"Sarah Wilson", "sarah.wilson@email.com", "+1-555-0126", "321 Elm St, City", "2024-02-10"},
}

// Seed inserts the sample books and members, each only into an empty table.
func Seed(ctx context.Context, db *sqlx.DB, now time.Time) error {
	now = now.UTC()

	var books int
	if err := db.GetContext(ctx, &books, `SELECT COUNT(*) FROM books`); err != nil {
		return fmt.Errorf("count books: %w", err)
	}
	if books == 0 {
		log.Printf("Adding %d sample books", len(sampleBooks))
		query := db.Rebind(`INSERT INTO books (title, author, year, isbn, category, description, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		for _, b := range sampleBooks {
			if _, err := db.ExecContext(ctx, query, b.title, b.author, b.year, b.isbn, b.category, b.description, now, now); err != nil {
				return fmt.Errorf("seed book %q: %w", b.title, err)
			}
		}
	}

	var members int
	if err := db.GetContext(ctx, &members, `SELECT COUNT(*) FROM members`); err != nil {
		return fmt.Errorf("count members: %w", err)
	}
	if members == 0 {
		log.Printf("Adding %d sample members", len(sampleMembers))
		query := db.Rebind(`INSERT INTO members (name, email, phone, address, join_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		for _, m := range sampleMembers {
			joined, err := time.Parse(time.DateOnly, m.joined)
			if err != nil {
				return err
			}
			if _, err := db.ExecContext(ctx, query, m.name, m.email, m.phone, m.address, joined, now, now); err != nil {
				return fmt.Errorf("seed member %q: %w", m.name, err)
			}
		}
	}

	return nil
}
