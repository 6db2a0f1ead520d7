package introspection

import (
	"context"
	"errors"
	"time"

	"github.com/prisma/dml"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReadTables calls read for every table name, running at most
// opts.Concurrency reads at once. The result keeps the order of names. The
// first failure cancels the remaining reads.
func ReadTables(
	ctx context.Context,
	names []string,
	opts ReadOptions,
	read func(ctx context.Context, name string) (*Table, error),
) ([]*Table, error) {
	log := opts.Log()
	tables := make([]*Table, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.limit())

	for i, name := range names {
		g.Go(func() error {
			start := time.Now()

			t, err := read(ctx, name)
			if err != nil {
				return err
			}

			tables[i] = t

			log.Debug("read table",
				zap.String("table", name),
				zap.Int("columns", len(t.Columns)),
				zap.Int("foreign_keys", len(t.ForeignKeys)),
				zap.Duration("took", time.Since(start)),
			)

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err
	}

	return tables, nil
}

// WrapError wraps a catalog failure in an *dml.IntrospectionError unless it
// already is one.
func WrapError(database, schema, op string, err error) error {
	if err == nil {
		return nil
	}

	var ie *dml.IntrospectionError
	if errors.As(err, &ie) {
		return err
	}

	return &dml.IntrospectionError{Database: database, Schema: schema, Op: op, Err: err}
}

// SchemaNotFound returns the error for a missing schema.
func SchemaNotFound(database, schema string) error {
	return &dml.IntrospectionError{Database: database, Schema: schema, Op: "check schema", Err: dml.ErrSchemaNotFound}
}
