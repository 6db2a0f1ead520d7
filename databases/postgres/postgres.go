// Package postgres provides the PostgreSQL client and dialect.
//
// Importing the package registers both: the client under dml.DatabasePostgres
// and the dialect with the introspection registry. The client runs on a pgx
// pool by default; set the driver to "pq" to go through database/sql with
// lib/pq instead.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq" // database/sql driver for the pq client
	"github.com/prisma/dml"
	"github.com/prisma/dml/databases/sqldb"
	"github.com/prisma/dml/introspection"
)

// ErrInvalidConfig is returned when an invalid configuration is provided.
var ErrInvalidConfig = errors.New("postgres: expected *dml.PostgresConfig")

// ErrUnknownDriver is returned for a driver other than pgx or pq.
var ErrUnknownDriver = errors.New("postgres: unknown driver")

//nolint:gochecknoinits // Database self-registration pattern
func init() {
	dml.RegisterDatabase(dml.DatabasePostgres, func(cfg any) (dml.Database, error) {
		pgCfg, ok := cfg.(*dml.PostgresConfig)
		if !ok {
			return nil, fmt.Errorf("%w, got %T", ErrInvalidConfig, cfg)
		}

		return Open(context.Background(), pgCfg)
	})

	introspection.RegisterDialect(NewDialect())
}

// Open connects with the driver selected by the configuration.
func Open(ctx context.Context, cfg *dml.PostgresConfig) (dml.Database, error) { //nolint:ireturn
	switch cfg.Driver {
	case "", dml.DriverPgx:
		return New(ctx, cfg)
	case dml.DriverPq:
		return sqldb.Open(ctx, dml.DatabasePostgres, "postgres", ConnString(cfg))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
	}
}

// ConnString returns the connection URI of the configuration. An explicit URI
// wins over the individual settings.
func ConnString(cfg *dml.PostgresConfig) string {
	if cfg.URI != "" {
		return cfg.URI
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + cfg.Database,
	}

	switch {
	case cfg.User != "" && cfg.Password != "":
		u.User = url.UserPassword(cfg.User, cfg.Password)
	case cfg.User != "":
		u.User = url.User(cfg.User)
	}

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u.RawQuery = url.Values{"sslmode": {sslMode}}.Encode()

	return u.String()
}

// Database implements dml.Database on a pgx connection pool.
type Database struct {
	pool *pgxpool.Pool
}

// New creates a pool from the given configuration and verifies connectivity.
func New(ctx context.Context, cfg *dml.PostgresConfig) (*Database, error) {
	poolCfg, err := pgxpool.ParseConfig(ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()

		return nil, fmt.Errorf("postgres: failed to connect: %w", err)
	}

	return &Database{pool: pool}, nil
}

// Name returns the database identifier.
func (d *Database) Name() string {
	return dml.DatabasePostgres
}

// Query runs a catalog query and collects all rows.
func (d *Database) Query(ctx context.Context, query string, args ...any) ([]dml.Row, error) {
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query failed: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()

	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = strings.ToLower(f.Name)
	}

	var result []dml.Row

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to read row: %w", err)
		}

		result = append(result, sqldb.MakeRow(keys, values))
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to read rows: %w", err)
	}

	return result, nil
}

// Close releases the pool.
func (d *Database) Close() error {
	d.pool.Close()

	return nil
}
