package db

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// mysqlDSN forces parseTime and UTC so DATETIME columns round-trip as time.Time.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}
