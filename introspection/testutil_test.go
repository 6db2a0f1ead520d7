package introspection_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prisma/dml"
	"github.com/prisma/dml/introspection"
	"github.com/stretchr/testify/require"
)

var cmpModel = cmp.Options{
	cmpopts.EquateEmpty(),
}

func ptr[T any](v T) *T {
	return &v
}

// testMapper maps a small set of Postgres-like type names.
type testMapper struct{}

var testScalars = map[string]string{
	"int":       dml.TypeInt,
	"text":      dml.TypeString,
	"bool":      dml.TypeBoolean,
	"float":     dml.TypeFloat,
	"timestamp": dml.TypeDateTime,
	"jsonb":     dml.TypeJSON,
	"uuid":      dml.TypeUUID,
}

func (testMapper) MapColumn(s *introspection.DatabaseSchema, _ *introspection.Table, c *introspection.Column) introspection.TypeMapping {
	nt, err := introspection.ParseNativeType(c.Type)
	if err != nil {
		return introspection.TypeMapping{Unsupported: true, Native: c.Type}
	}

	if e := s.Enum(nt.Name); e != nil {
		return introspection.TypeMapping{Enum: e.Name, IsList: nt.IsArray}
	}

	scalar, ok := testScalars[nt.Name]
	if !ok {
		return introspection.TypeMapping{Unsupported: true, Native: c.Type}
	}

	return introspection.TypeMapping{Scalar: scalar, IsList: nt.IsArray}
}

func (testMapper) ParseDefault(_ *introspection.DatabaseSchema, c *introspection.Column, _ introspection.TypeMapping) introspection.Default {
	if c.Default == nil {
		return introspection.Default{}
	}

	v := *c.Default

	switch {
	case strings.HasPrefix(v, "nextval('"):
		return introspection.Default{Sequence: strings.TrimSuffix(strings.TrimPrefix(v, "nextval('"), "')")}
	case v == "now()":
		return introspection.Default{Now: true}
	}

	v = strings.Trim(v, "'")

	return introspection.Default{Value: &v}
}

// fakeDialect serves a fixed schema and counts catalog reads.
type fakeDialect struct {
	testMapper

	name   string
	schema func() *introspection.DatabaseSchema
	reads  atomic.Int32
}

func (d *fakeDialect) Name() string { return d.name }

func (d *fakeDialect) ReadSchema(_ context.Context, _ dml.Database, opts introspection.ReadOptions) (*introspection.DatabaseSchema, error) {
	d.reads.Add(1)

	if opts.Schema != "public" {
		return nil, introspection.SchemaNotFound(d.name, opts.Schema)
	}

	return d.schema(), nil
}

func (d *fakeDialect) ListSchemas(context.Context, dml.Database) ([]string, error) {
	return []string{"public"}, nil
}

func (d *fakeDialect) Metadata(_ context.Context, _ dml.Database, schema string) (*introspection.Metadata, error) {
	return &introspection.Metadata{
		Schema:     schema,
		TableCount: 2,
		SizeBytes:  16384,
		Tables:     []introspection.TableMetadata{{Name: "posts", RowCount: 10}, {Name: "users", RowCount: 3}},
	}, nil
}

// fakeDatabase is a client that never runs queries.
type fakeDatabase struct {
	name string
}

func (db fakeDatabase) Name() string { return db.name }

func (fakeDatabase) Query(context.Context, string, ...any) ([]dml.Row, error) { return nil, nil }

func (fakeDatabase) Close() error { return nil }

// blogSchema is users(id, email unique, name) and posts(id, user_id -> users, title).
func blogSchema() *introspection.DatabaseSchema {
	return &introspection.DatabaseSchema{
		Database: "postgres",
		Schema:   "public",
		Tables: []*introspection.Table{
			{
				Name: "posts",
				Columns: []*introspection.Column{
					{Name: "id", Type: "int", IsAutoIncrement: true},
					{Name: "user_id", Type: "int"},
					{Name: "title", Type: "text"},
				},
				PrimaryKey: []string{"id"},
				ForeignKeys: []*introspection.ForeignKey{{
					Name:              "posts_user_id_fkey",
					Columns:           []string{"user_id"},
					ReferencedTable:   "users",
					ReferencedColumns: []string{"id"},
				}},
			},
			{
				Name: "users",
				Columns: []*introspection.Column{
					{Name: "id", Type: "int", IsAutoIncrement: true},
					{Name: "email", Type: "text"},
					{Name: "name", Type: "text", IsNullable: true},
				},
				PrimaryKey: []string{"id"},
				Indexes:    []*introspection.Index{{Name: "users_email_key", Columns: []string{"email"}, Unique: true}},
			},
		},
	}
}

// blogModel is blogSchema normalized without a reference.
func blogModel() *dml.Model {
	return &dml.Model{Types: []*dml.Type{
		{
			Name:         "Post",
			DatabaseName: "posts",
			Fields: []*dml.Field{
				{Name: "id", Type: dml.TypeInt, IsRequired: true, IsID: true, IDStrategy: dml.IDStrategyAuto},
				{
					Name: "user", DatabaseName: "user_id", Type: "User", IsRequired: true,
					RelationName: "PostUser", Link: dml.LinkInline,
				},
				{Name: "title", Type: dml.TypeString, IsRequired: true},
			},
		},
		{
			Name:         "User",
			DatabaseName: "users",
			Fields: []*dml.Field{
				{Name: "id", Type: dml.TypeInt, IsRequired: true, IsID: true, IDStrategy: dml.IDStrategyAuto},
				{Name: "email", Type: dml.TypeString, IsRequired: true, IsUnique: true},
				{Name: "name", Type: dml.TypeString},
				{Name: "posts", Type: "Post", IsList: true, IsRequired: true, RelationName: "PostUser"},
			},
		},
	}}
}

// introspect builds and normalizes a schema without a reference.
func introspect(t *testing.T, s *introspection.DatabaseSchema, opts introspection.NormalizeOptions) (*dml.Model, []dml.Diagnostic) {
	t.Helper()

	return reintrospect(t, s, nil, opts)
}

// reintrospect builds a schema and normalizes it against a reference.
func reintrospect(
	t *testing.T,
	s *introspection.DatabaseSchema,
	ref *dml.Model,
	opts introspection.NormalizeOptions,
) (*dml.Model, []dml.Diagnostic) {
	t.Helper()

	s.Sort()

	built, diags := introspection.Build(s, testMapper{})

	m, more, err := introspection.Normalize(built, ref, opts)
	require.NoError(t, err)

	return m, append(diags, more...)
}

// codes returns the diagnostic codes in order.
func codes(diags []dml.Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Code
	}

	return out
}
