package dml_test

import (
	"testing"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prisma/dml"
	"github.com/stretchr/testify/require"
)

// cmpIgnoreAST ignores source positions and captured closing braces so tests
// can compare AST structure without spelling them out.
var cmpIgnoreAST = cmp.Options{
	cmpopts.IgnoreTypes(lexer.Position{}),
	cmpopts.IgnoreFields(dml.TypeDef{}, "Close"),
	cmpopts.IgnoreFields(dml.EnumDef{}, "Close"),
	cmpopts.EquateEmpty(),
}

// cmpModel compares models treating nil and empty slices alike.
var cmpModel = cmp.Options{
	cmpopts.EquateEmpty(),
}

// ptr returns a pointer to the given value.
func ptr[T any](v T) *T {
	return &v
}

// mustParse parses a v2 datamodel and fails the test on error.
func mustParse(t *testing.T, src string) *dml.Model {
	t.Helper()

	m, err := dml.Parse([]byte(src))
	require.NoError(t, err)

	return m
}

// blogModel is the users/posts model in its normalized form.
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
