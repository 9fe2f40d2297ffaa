package db_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmehdipour/billing-sync/internal/db"
	"github.com/jmehdipour/billing-sync/internal/db/dbtest"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    db.Dialect
		wantErr bool
	}{
		{in: "", want: db.MySQL},
		{in: "MySQL", want: db.MySQL},
		{in: "postgresql", want: db.Postgres},
		{in: "pgx", want: db.Postgres},
		{in: "sqlite3", want: db.SQLite},
		{in: "oracle", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := db.ParseDialect(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDriverName(t *testing.T) {
	assert.Equal(t, "mysql", db.MySQL.DriverName())
	assert.Equal(t, "pgx", db.Postgres.DriverName())
	assert.Equal(t, "sqlite", db.SQLite.DriverName())
}

func TestNewConnection_EmptyDSN(t *testing.T) {
	_, err := db.NewConnection(db.MySQL, "", db.PoolOpts{})
	assert.Error(t, err)
}

func TestMigrate_UpCreatesTablesAndDownDropsThem(t *testing.T) {
	conn := dbtest.NewSQLite(t)

	tables := []string{"customers", "products", "prices", "subscriptions", "users"}
	for _, name := range tables {
		var n int
		require.NoError(t, conn.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name))
		assert.Equal(t, 1, n, name)
	}

	// re-running up is a no-op
	require.NoError(t, db.Migrate(conn, db.SQLite, db.Up))

	require.NoError(t, db.Migrate(conn, db.SQLite, db.Down))
	for _, name := range tables {
		var n int
		require.NoError(t, conn.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name))
		assert.Zero(t, n, name)
	}
}

func TestIsDuplicateKey(t *testing.T) {
	conn, err := db.NewConnection(db.SQLite, filepath.Join(t.TempDir(), "dup.db"), db.PoolOpts{})
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec(`CREATE TABLE t (id TEXT PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = conn.Exec(`INSERT INTO t (id) VALUES ('a')`)
	require.NoError(t, err)
	_, err = conn.Exec(`INSERT INTO t (id) VALUES ('a')`)
	require.Error(t, err)

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sqlite", err, true},
		{"mysql 1062", &mysql.MySQLError{Number: 1062}, true},
		{"mysql other", &mysql.MySQLError{Number: 1146}, false},
		{"postgres 23505", &pgconn.PgError{Code: "23505"}, true},
		{"postgres other", &pgconn.PgError{Code: "42P01"}, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, db.IsDuplicateKey(tt.err))
		})
	}
}
