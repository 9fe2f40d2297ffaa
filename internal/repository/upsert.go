package repository

import (
	"fmt"
	"strings"

	"github.com/jmehdipour/billing-sync/internal/db"
)

// upsertQuery builds a named insert-or-update keyed on the "id" column.
// Every other column is overwritten by the incoming row.
func upsertQuery(d db.Dialect, table string, cols []string) string {
	binds := make([]string, len(cols))
	for i, c := range cols {
		binds[i] = ":" + c
	}

	var sets []string
	for _, c := range cols {
		if c == "id" {
			continue
		}
		switch d {
		case db.MySQL:
			sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", c, c))
		default:
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(binds, ", "))
	if d == db.MySQL {
		return q + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}
	return q + " ON CONFLICT (id) DO UPDATE SET " + strings.Join(sets, ", ")
}
