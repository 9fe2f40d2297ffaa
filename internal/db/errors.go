package db

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsDuplicateKey reports whether err is a unique/primary key violation on any
// supported backend.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	// modernc sqlite reports SQLITE_CONSTRAINT_{UNIQUE,PRIMARYKEY} with this text
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
