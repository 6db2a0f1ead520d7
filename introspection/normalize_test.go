package introspection_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prisma/dml"
	"github.com/prisma/dml/introspection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldNames(ty *dml.Type) []string {
	names := make([]string, len(ty.Fields))
	for i, f := range ty.Fields {
		names[i] = f.Name
	}

	return names
}

func typeNames(m *dml.Model) []string {
	names := make([]string, len(m.Types))
	for i, ty := range m.Types {
		names[i] = ty.Name
	}

	return names
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	m, diags := introspect(t, blogSchema(), introspection.NormalizeOptions{})
	assert.Empty(t, diags)

	if diff := cmp.Diff(blogModel(), m, cmpModel); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeDoesNotModifyInput(t *testing.T) {
	t.Parallel()

	s := blogSchema()
	built, _ := introspection.Build(s, testMapper{})
	before := built.Clone()

	_, _, err := introspection.Normalize(built, nil, introspection.NormalizeOptions{})
	require.NoError(t, err)

	if diff := cmp.Diff(before, built, cmpModel); diff != "" {
		t.Errorf("input changed (-before +after):\n%s", diff)
	}
}

func TestNormalizeRendersScenario(t *testing.T) {
	t.Parallel()

	m, _ := introspect(t, blogSchema(), introspection.NormalizeOptions{})

	want := `type Post @db(name: "posts") {
  id: Int! @id
  user: User! @db(name: "user_id") @relation(link: INLINE, name: "PostUser")
  title: String!
}

type User @db(name: "users") {
  id: Int! @id
  email: String! @unique
  name: String
  posts: [Post!]! @relation(name: "PostUser")
}
`

	assert.Equal(t, want, dml.Render(m, dml.StyleV2))
}

func TestNormalizeLinkTable(t *testing.T) {
	t.Parallel()

	m, _ := introspect(t, linkSchema(), introspection.NormalizeOptions{})

	assert.Equal(t, []string{"Post", "Tag"}, typeNames(m))

	tags := m.Type("Post").Field("tags")
	require.NotNil(t, tags)
	assert.Equal(t, &dml.Field{
		Name: "tags", Type: "Tag", IsList: true, IsRequired: true,
		RelationName: "PostTag", Link: dml.LinkTable, LinkTable: "_PostToTag",
	}, tags)

	posts := m.Type("Tag").Field("posts")
	require.NotNil(t, posts)
	assert.Equal(t, "PostTag", posts.RelationName)
	assert.Equal(t, "Post", posts.Type)
}

func TestNormalizeSelfRelation(t *testing.T) {
	t.Parallel()

	s := &introspection.DatabaseSchema{Tables: []*introspection.Table{{
		Name: "employees",
		Columns: []*introspection.Column{
			{Name: "id", Type: "int", IsAutoIncrement: true},
			{Name: "manager_id", Type: "int", IsNullable: true},
		},
		PrimaryKey: []string{"id"},
		ForeignKeys: []*introspection.ForeignKey{{
			Columns: []string{"manager_id"}, ReferencedTable: "employees", ReferencedColumns: []string{"id"},
		}},
	}}}

	m, _ := introspect(t, s, introspection.NormalizeOptions{})

	employee := m.Type("Employee")
	require.NotNil(t, employee)
	assert.Equal(t, []string{"id", "manager", "employees"}, fieldNames(employee))
	assert.Equal(t, "EmployeeEmployee", employee.Field("manager").RelationName)
	assert.Equal(t, "EmployeeEmployee", employee.Field("employees").RelationName)
	assert.Equal(t, "manager_id", employee.Field("manager").DatabaseName)
}

func TestNormalizeAmbiguousBackFields(t *testing.T) {
	t.Parallel()

	s := blogSchema()
	posts := s.Table("posts")
	posts.Columns = append(posts.Columns, &introspection.Column{Name: "editor_id", Type: "int", IsNullable: true})
	posts.Columns[1].Name = "author_id"
	posts.ForeignKeys = []*introspection.ForeignKey{
		{Columns: []string{"author_id"}, ReferencedTable: "users", ReferencedColumns: []string{"id"}},
		{Columns: []string{"editor_id"}, ReferencedTable: "users", ReferencedColumns: []string{"id"}},
	}

	m, _ := introspect(t, s, introspection.NormalizeOptions{})

	post := m.Type("Post")
	assert.Equal(t, []string{"id", "author", "title", "editor"}, fieldNames(post))
	assert.Equal(t, "PostUser", post.Field("author").RelationName)
	assert.Equal(t, "PostUser2", post.Field("editor").RelationName)

	user := m.Type("User")
	assert.Equal(t, []string{"id", "email", "name", "postsByAuthor", "postsByEditor"}, fieldNames(user))
	assert.Equal(t, "PostUser", user.Field("postsByAuthor").RelationName)
	assert.Equal(t, "PostUser2", user.Field("postsByEditor").RelationName)
}

func TestNormalizeNames(t *testing.T) {
	t.Parallel()

	s := &introspection.DatabaseSchema{
		Tables: []*introspection.Table{
			{
				Name: "user", Columns: []*introspection.Column{{Name: "id", Type: "int"}}, PrimaryKey: []string{"id"},
			},
			{
				Name: "users", Columns: []*introspection.Column{{Name: "id", Type: "int"}}, PrimaryKey: []string{"id"},
			},
			{
				Name: "strings", Columns: []*introspection.Column{{Name: "id", Type: "int"}}, PrimaryKey: []string{"id"},
			},
			{
				Name: "ORDER_LINES",
				Columns: []*introspection.Column{
					{Name: "LINE_ID", Type: "int"},
					{Name: "unit_price", Type: "float"},
					{Name: "unitPrice", Type: "float"},
				},
				PrimaryKey: []string{"LINE_ID"},
			},
		},
		Enums: []*introspection.Enum{{Name: "order_status", Values: []string{"OPEN"}}},
	}

	m, diags := introspect(t, s, introspection.NormalizeOptions{})

	assert.Equal(t, []string{"ORDER_LINES", "strings", "User", "User2", "OrderStatus"}, typeNames(m))
	assert.Equal(t, "users", m.Type("User2").DatabaseName)
	assert.Equal(t, "order_status", m.Type("OrderStatus").DatabaseName)
	assert.Empty(t, m.Type("strings").DatabaseName)

	lines := m.Type("ORDER_LINES")
	assert.Equal(t, []string{"lineId", "unitPrice", "unitPrice2"}, fieldNames(lines))
	assert.Equal(t, "LINE_ID", lines.Field("lineId").DatabaseName)
	assert.Equal(t, "unitPrice", lines.Field("unitPrice2").DatabaseName)

	assert.Equal(t, []string{dml.CodeNameConflict, dml.CodeNameConflict}, codes(diags))
}

func TestNormalizeLegacyStyle(t *testing.T) {
	t.Parallel()

	s := &introspection.DatabaseSchema{
		Tables: []*introspection.Table{{
			Name: "accounts",
			Columns: []*introspection.Column{
				{Name: "account_id", Type: "int", Default: ptr("nextval('accounts_seq')")},
				{Name: "id", Type: "text", IsNullable: true},
				{Name: "created_at", Type: "timestamp", Default: ptr("now()")},
			},
			PrimaryKey: []string{"account_id"},
		}},
		Sequences: []*introspection.Sequence{{Name: "accounts_seq", InitialValue: 1, Increment: 1}},
	}

	m, _ := introspect(t, s, introspection.NormalizeOptions{Style: dml.StyleV1})

	account := m.Type("Account")
	assert.Equal(t, []string{"id", "id2", "createdAt"}, fieldNames(account))

	id := account.Field("id")
	assert.Equal(t, "account_id", id.DatabaseName)
	assert.Equal(t, dml.IDStrategyAuto, id.IDStrategy)
	assert.Nil(t, id.Sequence)
	assert.True(t, account.Field("createdAt").IsCreatedAt)

	reparsed, err := dml.ParseWithStyle([]byte(dml.Render(m, dml.StyleV1)), dml.StyleV1)
	require.NoError(t, err)

	if diff := cmp.Diff(m, reparsed, cmpModel); diff != "" {
		t.Errorf("v1 round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeLegacyStyleEnum(t *testing.T) {
	t.Parallel()

	s := &introspection.DatabaseSchema{
		Tables: []*introspection.Table{{
			Name:       "orders",
			Columns:    []*introspection.Column{{Name: "id", Type: "int"}, {Name: "status", Type: "order_status"}},
			PrimaryKey: []string{"id"},
		}},
		Enums: []*introspection.Enum{{Name: "order_status", Values: []string{"OPEN", "CLOSED"}}},
	}

	m, _ := introspect(t, s, introspection.NormalizeOptions{Style: dml.StyleV1})

	status := m.Type("OrderStatus")
	require.NotNil(t, status)
	assert.Empty(t, status.DatabaseName)

	text := dml.Render(m, dml.StyleV1)
	assert.Contains(t, text, "enum OrderStatus {\n")

	reparsed, err := dml.ParseWithStyle([]byte(text), dml.StyleV1)
	require.NoError(t, err)

	if diff := cmp.Diff(m, reparsed, cmpModel); diff != "" {
		t.Errorf("v1 round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeEmbedded(t *testing.T) {
	t.Parallel()

	s := blogSchema()
	s.Tables = append(s.Tables, &introspection.Table{
		Name: "addresses",
		Columns: []*introspection.Column{
			{Name: "id", Type: "int"},
			{Name: "user_id", Type: "int"},
			{Name: "street", Type: "text"},
		},
		PrimaryKey: []string{"id"},
		Indexes:    []*introspection.Index{{Columns: []string{"user_id"}, Unique: true}},
		ForeignKeys: []*introspection.ForeignKey{{
			Columns: []string{"user_id"}, ReferencedTable: "users", ReferencedColumns: []string{"id"},
		}},
	})

	m, _ := introspect(t, s, introspection.NormalizeOptions{InferEmbedded: true})
	assert.True(t, m.Type("Address").IsEmbedded)
	assert.False(t, m.Type("Post").IsEmbedded)
	assert.False(t, m.Type("User").IsEmbedded)

	plain, _ := introspect(t, s, introspection.NormalizeOptions{})
	assert.False(t, plain.Type("Address").IsEmbedded)

	legacy, _ := introspect(t, s, introspection.NormalizeOptions{Style: dml.StyleV1, InferEmbedded: true})
	assert.False(t, legacy.Type("Address").IsEmbedded)
}
