// Package sqlite provides the SQLite client and dialect, backed by the pure Go
// modernc.org/sqlite driver. Schemas are the attached databases: "main" by
// default.
package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/prisma/dml"
	"github.com/prisma/dml/databases/sqldb"
	"github.com/prisma/dml/introspection"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

var (
	// ErrInvalidConfig is returned when an invalid configuration is provided.
	ErrInvalidConfig = errors.New("sqlite: expected *dml.SQLiteConfig")

	// ErrMissingPath is returned when no database file is configured.
	ErrMissingPath = errors.New("sqlite: path is required")
)

//nolint:gochecknoinits // Database self-registration pattern
func init() {
	dml.RegisterDatabase(dml.DatabaseSQLite, func(cfg any) (dml.Database, error) {
		sqliteCfg, ok := cfg.(*dml.SQLiteConfig)
		if !ok {
			return nil, fmt.Errorf("%w, got %T", ErrInvalidConfig, cfg)
		}

		return New(context.Background(), sqliteCfg)
	})

	introspection.RegisterDialect(NewDialect())
}

// New opens the database file. A single connection is used so that
// concurrent catalog reads never contend for the file lock.
func New(ctx context.Context, cfg *dml.SQLiteConfig) (*sqldb.DB, error) {
	if cfg.Path == "" {
		return nil, ErrMissingPath
	}

	db, err := sqldb.Open(ctx, dml.DatabaseSQLite, dml.DriverSQLite, cfg.Path)
	if err != nil {
		return nil, err
	}

	db.Handle().SetMaxOpenConns(1)

	return db, nil
}
