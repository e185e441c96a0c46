// Package sqlcore holds the SQL shared by the SQLite and PostgreSQL stores.
// Queries are written with "?" placeholders and rebound per dialect.
package sqlcore

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// Core implements the storage.Provider data methods over an open *sql.DB.
type Core struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB, dialect Dialect) Core {
	return Core{db: db, dialect: dialect}
}

// DB returns the underlying connection, or nil before Init/Load.
func (c *Core) DB() *sql.DB {
	return c.db
}

// Rebind converts "?" placeholders to the dialect's form.
func (c *Core) Rebind(query string) string {
	return rebind(c.dialect, query)
}

func rebind(d Dialect, query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func parseTime(column, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
