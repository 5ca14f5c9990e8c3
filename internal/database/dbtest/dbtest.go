// internal/database/dbtest/dbtest.go

// Package dbtest opens throwaway SQLite databases for package tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"libraryweb/internal/config"
	"libraryweb/internal/database"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// New returns a migrated, empty database living in t's temp dir.
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	cfg := config.DBConfig{
		Driver: config.DriverSQLite,
		Name:   filepath.Join(t.TempDir(), "library.db"),
	}
	db, err := database.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}
