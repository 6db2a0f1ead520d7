package postgres_test

import (
	"testing"

	"github.com/prisma/dml"
	"github.com/prisma/dml/databases/postgres"
	"github.com/prisma/dml/introspection"
	"github.com/stretchr/testify/assert"
)

func TestMapColumn(t *testing.T) {
	t.Parallel()

	schema := &introspection.DatabaseSchema{
		Enums: []*introspection.Enum{{Name: "role", Values: []string{"ADMIN", "USER"}}},
	}

	tests := []struct {
		native string
		want   introspection.TypeMapping
	}{
		{"integer", introspection.TypeMapping{Scalar: dml.TypeInt}},
		{"bigint", introspection.TypeMapping{Scalar: dml.TypeInt}},
		{"numeric", introspection.TypeMapping{Scalar: dml.TypeFloat}},
		{"double precision", introspection.TypeMapping{Scalar: dml.TypeFloat}},
		{"character varying", introspection.TypeMapping{Scalar: dml.TypeString}},
		{"text", introspection.TypeMapping{Scalar: dml.TypeString}},
		{"boolean", introspection.TypeMapping{Scalar: dml.TypeBoolean}},
		{"jsonb", introspection.TypeMapping{Scalar: dml.TypeJSON}},
		{"timestamp with time zone", introspection.TypeMapping{Scalar: dml.TypeDateTime}},
		{"date", introspection.TypeMapping{Scalar: dml.TypeDateTime}},
		{"uuid", introspection.TypeMapping{Scalar: dml.TypeUUID}},
		{"_int4", introspection.TypeMapping{Scalar: dml.TypeInt, IsList: true}},
		{"_text", introspection.TypeMapping{Scalar: dml.TypeString, IsList: true}},
		{"role", introspection.TypeMapping{Enum: "role"}},
		{"_role", introspection.TypeMapping{Enum: "role", IsList: true}},
		{"tsvector", introspection.TypeMapping{Unsupported: true, Native: "tsvector"}},
		{"point", introspection.TypeMapping{Unsupported: true, Native: "point"}},
	}

	d := postgres.NewDialect()

	for _, tt := range tests {
		t.Run(tt.native, func(t *testing.T) {
			t.Parallel()

			got := d.MapColumn(schema, &introspection.Table{}, &introspection.Column{Name: "c", Type: tt.native})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDefault(t *testing.T) {
	t.Parallel()

	value := func(s string) introspection.Default {
		return introspection.Default{Value: &s}
	}

	tests := []struct {
		raw  string
		want introspection.Default
	}{
		{"nextval('users_id_seq'::regclass)", introspection.Default{Sequence: "users_id_seq"}},
		{`nextval('public."Order_id_seq"'::regclass)`, introspection.Default{Sequence: "Order_id_seq"}},
		{"now()", introspection.Default{Now: true}},
		{"CURRENT_TIMESTAMP", introspection.Default{Now: true}},
		{"'now'::text::timestamp with time zone", introspection.Default{Now: true}},
		{"'draft'::character varying", value("draft")},
		{"'it''s'::text", value("it's")},
		{"'USER'::role", value("USER")},
		{"''::text", value("")},
		{"0", value("0")},
		{"'-1.5'::numeric", value("-1.5")},
		{"(-1)", value("-1")},
		{"true", value("true")},
		{"NULL::character varying", introspection.Default{}},
		{"gen_random_uuid()", introspection.Default{}},
		{"lower('X'::text)", introspection.Default{}},
	}

	d := postgres.NewDialect()

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			raw := tt.raw
			got := d.ParseDefault(&introspection.DatabaseSchema{}, &introspection.Column{Default: &raw}, introspection.TypeMapping{})
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, introspection.Default{}, d.ParseDefault(&introspection.DatabaseSchema{}, &introspection.Column{}, introspection.TypeMapping{}))
}

func TestConnString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  *dml.PostgresConfig
		want string
	}{
		{
			name: "defaults",
			cfg:  &dml.PostgresConfig{Database: "shop"},
			want: "postgres://localhost:5432/shop?sslmode=disable",
		},
		{
			name: "credentials",
			cfg:  &dml.PostgresConfig{Host: "db", Port: 6543, Database: "shop", User: "app", Password: "p@ss", SSLMode: "require"},
			want: "postgres://app:p%40ss@db:6543/shop?sslmode=require",
		},
		{
			name: "uri wins",
			cfg:  &dml.PostgresConfig{URI: "postgres://x@y/z", Host: "ignored"},
			want: "postgres://x@y/z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, postgres.ConnString(tt.cfg))
		})
	}
}
