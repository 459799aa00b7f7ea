package docstore

import (
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Options selects and tunes the underlying database.
type Options struct {
	Driver       string
	DSN          string
	MaxOpenConns int
}

// Open connects to the database described by opts and returns a bun handle
// with the matching dialect.
func Open(opts Options) (*bun.DB, error) {
	var db *bun.DB
	switch opts.Driver {
	case DriverSQLite, "":
		sqldb, err := sql.Open(DriverSQLite, opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverPostgres:
		sqldb, err := sql.Open(DriverPostgres, opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, fmt.Errorf("unsupported store driver %q", opts.Driver)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, opError("ping", opts.Driver, "", err)
	}
	return db, nil
}
