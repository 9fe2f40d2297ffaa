package db

import (
	"net/url"
	"strings"

	_ "modernc.org/sqlite"
)

// sqliteDSN appends the pragmas the gateway relies on unless the caller set any.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma") || strings.HasPrefix(dsn, ":memory:") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + url.Values{
		"_time_format": []string{"sqlite"},
		"_pragma": []string{
			"busy_timeout(10000)",
			"journal_mode(WAL)",
			"synchronous(NORMAL)",
		},
	}.Encode()
}
