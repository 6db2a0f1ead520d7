package introspection

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/prisma/dml"
	"go.uber.org/zap"
)

// SchemaReader reads the catalog of one database engine.
type SchemaReader interface {
	// ReadSchema reads tables, columns, indexes, foreign keys, enums and
	// sequences of a schema. A missing schema is an *dml.IntrospectionError
	// wrapping dml.ErrSchemaNotFound.
	ReadSchema(ctx context.Context, db dml.Database, opts ReadOptions) (*DatabaseSchema, error)

	// ListSchemas returns the schemas (databases for MySQL) visible to the client.
	ListSchemas(ctx context.Context, db dml.Database) ([]string, error)

	// Metadata returns table sizes and row counts, for display only.
	Metadata(ctx context.Context, db dml.Database, schema string) (*Metadata, error)
}

// TypeMapper maps native column types to datamodel scalars.
type TypeMapper interface {
	// MapColumn maps a column. It never fails: types without a scalar come
	// back with Unsupported set.
	MapColumn(s *DatabaseSchema, t *Table, c *Column) TypeMapping

	// ParseDefault interprets the raw default expression of a column.
	ParseDefault(s *DatabaseSchema, c *Column, mapping TypeMapping) Default
}

// TypeMapping is the result of mapping a column type.
type TypeMapping struct {
	// Scalar is a dml scalar identifier, empty for enum columns.
	Scalar string
	// Enum names the enum type of the column.
	Enum   string
	IsList bool
	// Unsupported is set when no scalar fits; Native then holds the type.
	Unsupported bool
	Native      string
}

// Type returns the datamodel type name: the enum, the scalar or the native type.
func (m TypeMapping) Type() string {
	switch {
	case m.Enum != "":
		return m.Enum
	case m.Unsupported:
		return typeIdentifier(m.Native)
	default:
		return m.Scalar
	}
}

// Default is an interpreted column default.
type Default struct {
	// Value is a literal default, without quotes.
	Value *string
	// Now is set for now(), CURRENT_TIMESTAMP and the like.
	Now bool
	// Sequence names the sequence of a nextval() default.
	Sequence string
}

// ReadOptions configure a catalog read.
type ReadOptions struct {
	Schema string
	// Concurrency bounds the per-table queries running at once.
	Concurrency int
	Logger      *zap.Logger
}

// DefaultConcurrency is the per-table query concurrency when none is set.
const DefaultConcurrency = 4

func (o ReadOptions) limit() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}

	return DefaultConcurrency
}

// Log returns the configured logger or a no-op logger.
func (o ReadOptions) Log() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}

	return zap.NewNop()
}

// Dialect bundles the reader and type mapper of one database engine.
type Dialect interface {
	// Name returns the database name (e.g., "postgres", "mysql").
	Name() string

	SchemaReader
	TypeMapper
}

var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]Dialect)
)

// RegisterDialect registers a dialect under its name.
func RegisterDialect(d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()

	dialects[d.Name()] = d
}

// DialectFor returns the dialect registered for a database name.
func DialectFor(name string) (Dialect, error) { //nolint:ireturn
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()

	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("%w: no dialect for %s", dml.ErrUnknownDatabase, name)
	}

	return d, nil
}

// RegisteredDialects returns the names of all registered dialects, sorted.
func RegisteredDialects() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()

	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
