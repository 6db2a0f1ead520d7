package introspection_test

import (
	"testing"

	"github.com/prisma/dml/introspection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNativeType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  *introspection.NativeType
	}{
		{"varchar(255)", &introspection.NativeType{Name: "varchar", Args: []string{"255"}}},
		{"decimal(10, 2)", &introspection.NativeType{Name: "decimal", Args: []string{"10", "2"}}},
		{"int(11) unsigned", &introspection.NativeType{Name: "int", Args: []string{"11"}, Unsigned: true}},
		{"bigint(20) unsigned zerofill", &introspection.NativeType{Name: "bigint", Args: []string{"20"}, Unsigned: true}},
		{"enum('a','b c')", &introspection.NativeType{Name: "enum", Args: []string{"a", "b c"}}},
		{"enum('it''s','x,y')", &introspection.NativeType{Name: "enum", Args: []string{"it's", "x,y"}}},
		{"_int4", &introspection.NativeType{Name: "int4", IsArray: true}},
		{"integer[]", &introspection.NativeType{Name: "integer", IsArray: true}},
		{"character varying", &introspection.NativeType{Name: "character varying"}},
		{"TEXT", &introspection.NativeType{Name: "text"}},
		{
			"timestamp(3) with time zone",
			&introspection.NativeType{Name: "timestamp with time zone", Args: []string{"3"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := introspection.ParseNativeType(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNativeTypeErrors(t *testing.T) {
	t.Parallel()

	_, err := introspection.ParseNativeType("  ")
	require.ErrorIs(t, err, introspection.ErrEmptyTypeString)

	_, err = introspection.ParseNativeType("varchar(255")
	require.ErrorIs(t, err, introspection.ErrInvalidNativeType)

	_, err = introspection.ParseNativeType("()")
	require.ErrorIs(t, err, introspection.ErrInvalidNativeType)
}

func TestNativeTypeString(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"numeric(10,2)", "int(11) unsigned", "int4[]", "text"} {
		nt, err := introspection.ParseNativeType(s)
		require.NoError(t, err)
		assert.Equal(t, s, nt.String())
	}

	var nilType *introspection.NativeType
	assert.Empty(t, nilType.String())
}

func TestNativeTypeIntArg(t *testing.T) {
	t.Parallel()

	nt, err := introspection.ParseNativeType("decimal(10, x)")
	require.NoError(t, err)

	assert.Equal(t, 10, nt.IntArg(0))
	assert.Equal(t, -1, nt.IntArg(1))
	assert.Equal(t, -1, nt.IntArg(2))
}
