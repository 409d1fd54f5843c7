package store

import (
	"context"
	"fmt"
	"strings"
)

// Driver identifies a table backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMemory   Driver = "memory"
)

// Options selects and configures a table backend.
type Options struct {
	Driver Driver
	Path   string // sqlite database file
	DSN    string // postgres connection string
	Sheet  string
}

// Open returns the table backend named by opts.Driver (sqlite by default).
func Open(ctx context.Context, opts Options) (Table, error) {
	driver := Driver(strings.ToLower(strings.TrimSpace(string(opts.Driver))))
	if driver == "" {
		driver = DriverSQLite
	}
	switch driver {
	case DriverSQLite:
		return OpenSQLite(opts.Path, opts.Sheet)
	case DriverPostgres:
		return OpenPostgres(ctx, opts.DSN, opts.Sheet)
	case DriverMemory:
		return NewMemoryTable(), nil
	default:
		return nil, fmt.Errorf("unknown table driver %s", driver)
	}
}
