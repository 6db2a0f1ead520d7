package analysis_test

import (
	"testing"

	"github.com/prisma/dml"
	"github.com/prisma/dml/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type finding struct {
	Code    string
	Line    int
	Message string
}

func findings(f *analysis.AnalyzedFile) []finding {
	out := make([]finding, len(f.Diagnostics))
	for i, d := range f.Diagnostics {
		out[i] = finding{Code: d.Code, Line: d.Span.Start.Line, Message: d.Message}
	}

	return out
}

func TestRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		style dml.Style
		src   string
		want  []finding
	}{
		{
			name: "duplicate type",
			src: `type User {
  id: ID! @id
}

type User {
  id: ID! @id
}
`,
			want: []finding{{"duplicate-type", 5, "duplicate type: User"}},
		},
		{
			name: "duplicate field",
			src: `type User {
  id: ID! @id
  name: String
  name: String!
}
`,
			want: []finding{{"duplicate-field", 4, "duplicate field: User.name"}},
		},
		{
			name: "duplicate enum value",
			src: `type User {
  id: ID! @id
  role: Role
}

enum Role {
  ADMIN
  ADMIN
}
`,
			want: []finding{{"duplicate-enum-value", 8, "duplicate value: Role.ADMIN"}},
		},
		{
			name: "unknown type",
			src: `type User {
  id: ID! @id
  avatar: Image
}
`,
			want: []finding{{"unknown-type", 3, "unknown type: Image"}},
		},
		{
			name: "relation with three fields",
			src: `type User {
  id: ID! @id
  posts: [Post!]! @relation(name: "Authored")
}

type Post {
  id: ID! @id
  author: User! @relation(name: "Authored")
  editor: User @relation(name: "Authored")
}
`,
			want: []finding{{"invalid-relation", 9, "relation Authored already connects User.posts and Post.author"}},
		},
		{
			name: "relation fields not pointing at each other",
			src: `type User {
  id: ID! @id
  posts: [Post!]! @relation(name: "Authored")
}

type Post {
  id: ID! @id
  tags: [Tag!]! @relation(name: "Authored")
}

type Tag {
  id: ID! @id
}
`,
			want: []finding{{"invalid-relation", 8, "relation Authored connects User.posts and Post.tags, which do not point at each other"}},
		},
		{
			name: "invalid defaults",
			src: `type User {
  id: ID! @id
  active: Boolean! @default(value: "yes")
  age: Int @default(value: 1.5)
  score: Float @default(value: 2)
  name: String @default(value: anonymous)
  role: Role! @default(value: OWNER)
  tags: [String!]! @default(value: "x")
}

enum Role {
  ADMIN
  MEMBER
}
`,
			want: []finding{
				{"invalid-default", 3, `User.active: expected true or false, got "yes"`},
				{"invalid-default", 4, "User.age: expected an integer, got 1.5"},
				{"invalid-default", 6, "User.name: expected a string, got anonymous"},
				{"invalid-default", 7, "User.role: OWNER is not a value of Role"},
				{"invalid-default", 8, "User.tags: list fields cannot have a default"},
			},
		},
		{
			name: "missing id",
			src: `type Address @embedded {
  street: String
}

type User {
  email: String! @unique
}
`,
			want: []finding{{"missing-id", 5, "type User has no id field"}},
		},
		{
			name:  "legacy id by name",
			style: dml.StyleV1,
			src: `type User @pgTable(name: "users") {
  id: Int! @unique
  email: String! @pgColumn(name: "mail")
}
`,
		},
		{
			name: "unknown directives",
			src: `type User @model {
  id: ID! @id @index
}

enum Role @db(name: "role") @deprecated {
  ADMIN
}

type Team {
  id: ID! @id
  role: Role
}
`,
			want: []finding{
				{"unknown-directive", 1, "unknown type directive @model"},
				{"unknown-directive", 2, "unknown field directive @index"},
				{"unknown-directive", 5, "unknown enum directive @deprecated"},
			},
		},
		{
			name: "unused enum",
			src: `type User {
  id: ID! @id
}

enum Role {
  ADMIN
}
`,
			want: []finding{{"unused-enum", 5, "enum Role is never used"}},
		},
		{
			name: "naming",
			src: `type user {
  id: ID! @id
  Name: String
}
`,
			want: []finding{
				{"naming", 1, "user should start with an upper case letter"},
				{"naming", 3, "field user.Name should start with a lower case letter"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := analysis.NewAnalyzer(tt.style).Analyze("test.prisma", []byte(tt.src))
			require.NoError(t, f.ParseError)

			assert.Equal(t, tt.want, nilIfEmpty(findings(f)))
		})
	}
}

func nilIfEmpty(fs []finding) []finding {
	if len(fs) == 0 {
		return nil
	}

	return fs
}

func TestRuleSeverities(t *testing.T) {
	t.Parallel()

	names := make(map[string]analysis.DiagnosticSeverity)
	for _, r := range analysis.DefaultRules() {
		require.NotNil(t, r.Run, r.Name)
		assert.NotEmpty(t, r.Doc, r.Name)

		names[r.Name] = r.Severity
	}

	assert.Equal(t, analysis.SeverityError, names["unknown-type"])
	assert.Equal(t, analysis.SeverityWarning, names["missing-id"])
	assert.Equal(t, analysis.SeverityHint, names["naming"])
}

func TestErrorRulesMatchValidation(t *testing.T) {
	t.Parallel()

	src := []byte(`type User {
  id: ID! @id
  avatar: Image
}
`)

	_, err := dml.Parse(src)
	require.ErrorIs(t, err, dml.ErrUnknownType)

	f := analysis.NewAnalyzer(dml.StyleV2).Analyze("test.prisma", src)
	assert.True(t, f.HasErrors())
}
