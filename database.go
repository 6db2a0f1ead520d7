package dml

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Database is the narrow client capability the introspection core needs: run
// a read-only catalog query and return its rows.
type Database interface {
	// Name returns the database identifier (e.g., "postgres", "mysql").
	Name() string

	// Query runs a query with positional arguments and returns all rows.
	// Column names are lower-cased.
	Query(ctx context.Context, query string, args ...any) ([]Row, error)

	// Close releases the connection.
	Close() error
}

// Row is a single result row keyed by lower-cased column name.
type Row map[string]any

// String returns the column as a string, or "" when it is NULL.
func (r Row) String(key string) string {
	if s := r.NullString(key); s != nil {
		return *s
	}

	return ""
}

// NullString returns the column as a string, or nil when it is NULL.
func (r Row) NullString(key string) *string {
	var s string

	switch v := r[key].(type) {
	case nil:
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}

	return &s
}

// Int returns the column as an integer, or 0 when it is NULL or not numeric.
func (r Row) Int(key string) int64 {
	if n := r.NullInt(key); n != nil {
		return *n
	}

	return 0
}

// NullInt returns the column as an integer, or nil when it is NULL or not numeric.
func (r Row) NullInt(key string) *int64 {
	var n int64

	switch v := r[key].(type) {
	case int64:
		n = v
	case int32:
		n = int64(v)
	case int16:
		n = int64(v)
	case int8:
		n = int64(v)
	case int:
		n = int64(v)
	case uint64:
		n = int64(v) //nolint:gosec // catalog values fit
	case uint32:
		n = int64(v)
	case float64:
		n = int64(v)
	case float32:
		n = int64(v)
	case bool:
		if v {
			n = 1
		}
	case string, []byte:
		parsed, err := strconv.ParseInt(strings.TrimSpace(r.String(key)), 10, 64)
		if err != nil {
			return nil
		}

		n = parsed
	default:
		return nil
	}

	return &n
}

// Bool returns the column as a boolean. Numeric values are true when non-zero,
// and strings such as "YES", "t" and "true" are true.
func (r Row) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string, []byte:
		switch strings.ToLower(strings.TrimSpace(r.String(key))) {
		case "yes", "y", "t", "true", "1":
			return true
		}

		return false
	default:
		return r.Int(key) != 0
	}
}

// DatabaseFactory creates a Database from driver configuration.
type DatabaseFactory func(cfg any) (Database, error)

var databases = make(map[string]DatabaseFactory)

// RegisterDatabase registers a database factory by name.
func RegisterDatabase(name string, factory DatabaseFactory) {
	databases[name] = factory
}

// NewDatabase opens a database client by name.
func NewDatabase(name string, cfg any) (Database, error) { //nolint:ireturn
	factory, ok := databases[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDatabase, name)
	}

	return factory(cfg)
}

// RegisteredDatabases returns the names of all registered databases, sorted.
func RegisteredDatabases() []string {
	names := make([]string, 0, len(databases))
	for name := range databases {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
