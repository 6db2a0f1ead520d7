// Package sqldb adapts a database/sql handle to dml.Database. The MySQL and
// SQLite drivers, and Postgres through lib/pq, share it.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/prisma/dml"
)

// DB implements dml.Database on top of *sql.DB.
type DB struct {
	name string
	db   *sql.DB
}

// New wraps an open handle. The handle is closed by Close.
func New(name string, db *sql.DB) *DB {
	return &DB{name: name, db: db}
}

// Open opens and pings a handle for the given driver and data source.
func Open(ctx context.Context, name, driver, dsn string) (*DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open: %w", name, err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("%s: failed to connect: %w", name, err)
	}

	return New(name, db), nil
}

// Name returns the database identifier.
func (d *DB) Name() string {
	return d.name
}

// Handle returns the underlying handle.
func (d *DB) Handle() *sql.DB {
	return d.db
}

// Query runs a query and collects all rows.
func (d *DB) Query(ctx context.Context, query string, args ...any) ([]dml.Row, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query failed: %w", d.name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read columns: %w", d.name, err)
	}

	keys := make([]string, len(columns))
	for i, c := range columns {
		keys[i] = strings.ToLower(c)
	}

	var result []dml.Row

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))

		for i := range values {
			ptrs[i] = &values[i]
		}

		err := rows.Scan(ptrs...)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to scan row: %w", d.name, err)
		}

		result = append(result, MakeRow(keys, values))
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read rows: %w", d.name, err)
	}

	return result, nil
}

// Close releases the handle.
func (d *DB) Close() error {
	err := d.db.Close()
	if err != nil {
		return fmt.Errorf("%s: failed to close: %w", d.name, err)
	}

	return nil
}

// MakeRow builds a row from column keys and scanned values. Byte slices
// become strings.
func MakeRow(keys []string, values []any) dml.Row {
	row := make(dml.Row, len(keys))

	for i, key := range keys {
		if b, ok := values[i].([]byte); ok {
			row[strings.ToLower(key)] = string(b)

			continue
		}

		row[strings.ToLower(key)] = values[i]
	}

	return row
}
