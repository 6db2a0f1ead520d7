package introspection

import (
	"context"
	"fmt"
	"time"

	"github.com/prisma/dml"
	"go.uber.org/zap"
)

// Introspector runs the introspection pipeline: read the catalog, build a
// model, reconcile it with the reference datamodel and normalize it.
type Introspector struct {
	Logger *zap.Logger
	// Filter is an expr-lang expression selecting tables; see TableEnv.
	Filter      string
	Concurrency int
	Style       dml.Style
	// InferEmbedded enables the embedded type heuristic.
	InferEmbedded bool
	// Reference is a previously rendered datamodel. Optional.
	Reference []byte
	// WithMetadata also reads table sizes and row counts.
	WithMetadata bool
}

// Result is the outcome of an introspection.
type Result struct {
	Model       *dml.Model
	Schema      *DatabaseSchema
	Diagnostics []dml.Diagnostic
	Metadata    *Metadata
}

// Render renders the model in the given style.
func (r *Result) Render(style dml.Style) string {
	return dml.Render(r.Model, style)
}

func (in *Introspector) log() *zap.Logger {
	if in.Logger != nil {
		return in.Logger
	}

	return zap.NewNop()
}

// Introspect introspects a schema of db. The reference datamodel and the
// filter are checked before any query runs. db is not closed.
func (in *Introspector) Introspect(ctx context.Context, db dml.Database, schema string) (*Result, error) {
	log := in.log().With(zap.String("database", db.Name()), zap.String("schema", schema))

	dialect, err := DialectFor(db.Name())
	if err != nil {
		return nil, err
	}

	var ref *dml.Model

	if len(in.Reference) > 0 {
		ref, err = dml.ParseReference(in.Reference, in.Style)
		if err != nil {
			return nil, err
		}
	}

	var filter *Filter

	if in.Filter != "" {
		filter, err = CompileFilter(in.Filter)
		if err != nil {
			return nil, err
		}
	}

	start := time.Now()

	raw, err := dialect.ReadSchema(ctx, db, ReadOptions{
		Schema:      schema,
		Concurrency: in.Concurrency,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}

	raw.Sort()

	log.Debug("read schema",
		zap.Int("tables", len(raw.Tables)),
		zap.Int("enums", len(raw.Enums)),
		zap.Duration("took", time.Since(start)),
	)

	if err := ApplyFilter(raw, filter); err != nil {
		return nil, err
	}

	model, diags := Build(raw, dialect)

	normalized, more, err := Normalize(model, ref, NormalizeOptions{Style: in.Style, InferEmbedded: in.InferEmbedded})
	diags = append(diags, more...)

	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", schema, err)
	}

	for _, d := range dml.Warnings(diags) {
		log.Warn(d.Message, zap.String("code", d.Code), zap.String("table", d.Table), zap.String("column", d.Column))
	}

	result := &Result{Model: normalized, Schema: raw, Diagnostics: diags}

	if in.WithMetadata {
		result.Metadata, err = dialect.Metadata(ctx, db, raw.Schema)
		if err != nil {
			return nil, err
		}
	}

	log.Info("introspected",
		zap.Int("types", len(normalized.Types)),
		zap.Int("diagnostics", len(diags)),
		zap.Duration("took", time.Since(start)),
	)

	return result, nil
}

// IntrospectAndRender introspects a schema and renders the datamodel in the
// introspector's style.
func (in *Introspector) IntrospectAndRender(ctx context.Context, db dml.Database, schema string) (string, []dml.Diagnostic, error) {
	result, err := in.Introspect(ctx, db, schema)
	if err != nil {
		return "", nil, err
	}

	return result.Render(in.Style), result.Diagnostics, nil
}
