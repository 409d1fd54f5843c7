package store

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	busyTimeoutMS          = 5000
	defaultMaxOpenConns    = 1
	defaultMaxIdleConns    = 1
	defaultConnMaxLifetime = 5 * time.Minute

	// DefaultSheet is the sheet name used when none is configured.
	DefaultSheet = "Sheet1"

	maxOpenConnsEnvKey    = "INTAKE_DB_MAX_OPEN_CONNS"
	maxIdleConnsEnvKey    = "INTAKE_DB_MAX_IDLE_CONNS"
	connMaxLifetimeEnvKey = "INTAKE_DB_CONN_MAX_LIFETIME"
)

// SQLTable stores one named sheet in a SQL database. Each row is kept as a
// JSON array of cell strings.
type SQLTable struct {
	db      *sql.DB
	sheet   string
	dialect dialect
}

// OpenSQLite opens the SQLite database at path and bootstraps the schema.
func OpenSQLite(path, sheet string) (*SQLTable, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := configureDB(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(db, sqliteDialect); err != nil {
		_ = db.Close()
		return nil, err
	}

	return newSQLTable(db, sheet, sqliteDialect), nil
}

func newSQLTable(db *sql.DB, sheet string, d dialect) *SQLTable {
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &SQLTable{db: db, sheet: sheet, dialect: d}
}

// Sheet returns the sheet name this table reads and writes.
func (t *SQLTable) Sheet() string {
	return t.sheet
}

// Close closes the underlying database connection.
func (t *SQLTable) Close() error {
	if t == nil || t.db == nil {
		return nil
	}
	return t.db.Close()
}

func configureDB(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		fmt.Sprintf("PRAGMA busy_timeout = %d;", busyTimeoutMS),
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	configurePool(db, defaultMaxOpenConns, defaultMaxIdleConns)
	return nil
}

func configurePool(db *sql.DB, maxOpen, maxIdle int) {
	db.SetMaxOpenConns(intFromEnv(maxOpenConnsEnvKey, maxOpen))
	db.SetMaxIdleConns(intFromEnv(maxIdleConnsEnvKey, maxIdle))
	db.SetConnMaxLifetime(durationFromEnv(connMaxLifetimeEnvKey, defaultConnMaxLifetime))
}

func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("db path is required")
	}
	u := url.URL{Scheme: "file", Path: path}
	return u.String(), nil
}

func intFromEnv(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return def
	}
	return value
}

func durationFromEnv(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return def
}
