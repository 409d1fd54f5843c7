package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const (
	postgresDriver       = "pgx"
	defaultPostgresDSN   = "postgres://localhost/intake?sslmode=disable"
	postgresMaxOpenConns = 8
	postgresMaxIdleConns = 4
)

// OpenPostgres opens a Postgres-backed sheet using dsn (or the local default).
func OpenPostgres(ctx context.Context, dsn, sheet string) (*SQLTable, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	db, err := sql.Open(postgresDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	configurePool(db, postgresMaxOpenConns, postgresMaxIdleConns)
	if err := runMigrations(db, postgresDialect); err != nil {
		_ = db.Close()
		return nil, err
	}
	return newSQLTable(db, sheet, postgresDialect), nil
}
