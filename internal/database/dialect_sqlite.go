package database

import (
	"database/sql"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// sqliteDefaultParams make every pooled connection wait on the write lock and enforce foreign keys
const sqliteDefaultParams = "_busy_timeout=5000&_foreign_keys=on"

// sqliteRequiredParams are merged into a path that already carries a query string. Each entry
// lists the driver's aliases; a caller-supplied value under any alias wins.
var sqliteRequiredParams = []struct {
	aliases []string
	value   string
}{
	{aliases: []string{"_busy_timeout", "_timeout"}, value: "5000"},
	{aliases: []string{"_foreign_keys", "_fk"}, value: "on"},
}

// SQLiteDialect implements Dialect for SQLite
type SQLiteDialect struct{}

// NewSQLiteDialect creates a new SQLite dialect
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) DriverName() string {
	return "sqlite3"
}

func (d *SQLiteDialect) DSN(config DialectConfig) string {
	_, query, hasQuery := strings.Cut(config.Path, "?")
	if !hasQuery {
		return config.Path + "?" + sqliteDefaultParams
	}

	params, err := url.ParseQuery(query)
	if err != nil {
		// Let the driver report the malformed path
		return config.Path
	}

	dsn := config.Path
	for _, required := range sqliteRequiredParams {
		present := false
		for _, alias := range required.aliases {
			if params.Has(alias) {
				present = true
				break
			}
		}
		if present {
			continue
		}
		if !strings.HasSuffix(dsn, "?") && !strings.HasSuffix(dsn, "&") {
			dsn += "&"
		}
		dsn += required.aliases[0] + "=" + required.value
	}
	return dsn
}

func (d *SQLiteDialect) RewriteQuery(query string) string {
	// SQLite uses ? placeholders, no rewrite needed
	return query
}

func (d *SQLiteDialect) SupportsLastInsertId() bool {
	return true
}

func (d *SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// WAL lets readers proceed while a writer holds the lock
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return err
	}

	return nil
}

func (d *SQLiteDialect) MigrationsSubdir() string {
	return "sqlite"
}

func (d *SQLiteDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT UNIQUE NOT NULL,
			executed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
}

func (d *SQLiteDialect) IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func (d *SQLiteDialect) IsForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
