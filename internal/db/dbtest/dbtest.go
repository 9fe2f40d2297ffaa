// Package dbtest provides a migrated throwaway database for package tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/jmehdipour/billing-sync/internal/db"
)

// NewSQLite returns a file-backed sqlite database with every migration applied.
func NewSQLite(t testing.TB) *sqlx.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "billsync.db")
	conn, err := db.NewConnection(db.SQLite, dsn, db.PoolOpts{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.Migrate(conn, db.SQLite, db.Up))
	return conn
}
