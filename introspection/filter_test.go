package introspection_test

import (
	"testing"

	"github.com/prisma/dml/introspection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{name: "prefix", filter: `not (name startsWith "_")`, want: []string{"posts", "users"}},
		{name: "primary key", filter: `hasPrimaryKey`, want: []string{"posts", "users"}},
		{name: "foreign keys", filter: `foreignKeys > 0`, want: []string{"posts"}},
		{name: "columns", filter: `"email" in columns`, want: []string{"users"}},
		{name: "membership", filter: `name in ["users", "_migrations"]`, want: []string{"_migrations", "users"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := introspection.CompileFilter(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.filter, f.String())

			s := blogSchema()
			s.Tables = append(s.Tables, &introspection.Table{
				Name:    "_migrations",
				Columns: []*introspection.Column{{Name: "version", Type: "text"}},
			})
			s.Sort()

			require.NoError(t, introspection.ApplyFilter(s, f))

			var names []string
			for _, table := range s.Tables {
				names = append(names, table.Name)
			}

			assert.Equal(t, tt.want, names)
		})
	}
}

func TestFilterErrors(t *testing.T) {
	t.Parallel()

	for _, src := range []string{`name ==`, `len(columns)`, `unknown > 1`} {
		_, err := introspection.CompileFilter(src)
		require.ErrorIs(t, err, introspection.ErrInvalidFilter, src)
	}
}

func TestNilFilterKeepsEverything(t *testing.T) {
	t.Parallel()

	var f *introspection.Filter

	keep, err := f.Match(&introspection.Table{Name: "anything"})
	require.NoError(t, err)
	assert.True(t, keep)

	s := blogSchema()
	require.NoError(t, introspection.ApplyFilter(s, nil))
	assert.Len(t, s.Tables, 2)
}
