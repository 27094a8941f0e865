package database

import (
	"database/sql"
	"regexp"
	"strconv"
	"time"
)

// Dialect hides the differences between the supported SQL engines
type Dialect interface {
	// DriverName is the name registered with database/sql
	DriverName() string

	// DSN builds the data source name from the connection settings
	DSN(config DialectConfig) string

	// RewriteQuery converts ? placeholders when the engine needs another style
	RewriteQuery(query string) string

	// ConfigureConnection applies pool limits and engine pragmas
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir names the directory under migrations/ for this engine
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the DDL of the migrations ledger
	CreateMigrationsTableQuery() string

	// UpsertSessionValue returns an insert-or-replace statement for
	// session_values taking (session_id, name, value, expires_at)
	UpsertSessionValue() string

	// InsertSessionValueIfAbsent returns an insert that leaves an existing
	// (session_id, name) row untouched and affects no rows in that case
	InsertSessionValueIfAbsent() string
}

// DialectConfig holds the connection settings
type DialectConfig struct {
	// SQLite file path
	Path string

	// PostgreSQL/MySQL connection URL
	URL string
}

var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, ...
func rewritePlaceholdersToNumbered(query string) string {
	n := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(string) string {
		n++
		return "$" + strconv.Itoa(n)
	})
}

// session rows are small and short lived, the pool stays modest
func configurePool(db *sql.DB) {
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
}
