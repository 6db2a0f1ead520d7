package introspection_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prisma/dml"
	"github.com/prisma/dml/introspection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseRef(t *testing.T, src string) *dml.Model {
	t.Helper()

	ref, err := dml.ParseReference([]byte(src), dml.StyleV2)
	require.NoError(t, err)

	return ref
}

func TestReconcileStable(t *testing.T) {
	t.Parallel()

	schemas := []struct {
		name   string
		schema func() *introspection.DatabaseSchema
	}{
		{name: "blog", schema: blogSchema},
		{name: "link table", schema: linkSchema},
	}

	for _, style := range []dml.Style{dml.StyleV2, dml.StyleV1} {
		for _, tt := range schemas {
			t.Run(style.String()+"/"+tt.name, func(t *testing.T) {
				t.Parallel()

				opts := introspection.NormalizeOptions{Style: style}

				first, _ := introspect(t, tt.schema(), opts)
				rendered := dml.Render(first, style)

				ref, err := dml.ParseReference([]byte(rendered), style)
				require.NoError(t, err)

				second, _ := reintrospect(t, tt.schema(), ref, opts)

				if diff := cmp.Diff(first, second, cmpModel); diff != "" {
					t.Errorf("re-introspection changed the model (-first +second):\n%s", diff)
				}

				assert.Equal(t, rendered, dml.Render(second, style))
			})
		}
	}
}

func TestReconcileKeepsReferenceNames(t *testing.T) {
	t.Parallel()

	ref := parseRef(t, `type Article @db(name: "posts") {
  id: Int! @id
  title: String!
  author: Person! @db(name: "user_id") @relation(link: INLINE, name: "Authorship")
}

type Person @db(name: "users") {
  id: Int! @id
  articles: [Article!]! @relation(name: "Authorship")
  mail: String! @db(name: "email") @unique
  name: String
}
`)

	m, _ := reintrospect(t, blogSchema(), ref, introspection.NormalizeOptions{})

	want := `type Article @db(name: "posts") {
  id: Int! @id
  title: String!
  author: Person! @db(name: "user_id") @relation(link: INLINE, name: "Authorship")
}

type Person @db(name: "users") {
  id: Int! @id
  articles: [Article!]! @relation(name: "Authorship")
  mail: String! @db(name: "email") @unique
  name: String
}
`

	assert.Equal(t, want, dml.Render(m, dml.StyleV2))
}

func TestReconcileRenamedColumn(t *testing.T) {
	t.Parallel()

	ref, _ := introspect(t, blogSchema(), introspection.NormalizeOptions{})

	s := blogSchema()
	s.Table("users").Column("name").Name = "fullName"

	m, _ := reintrospect(t, s, ref, introspection.NormalizeOptions{})

	user := m.Type("User")
	require.NotNil(t, user)
	assert.Equal(t, []string{"id", "email", "posts", "fullName"}, fieldNames(user))
	assert.Equal(t, "PostUser", user.Field("posts").RelationName)
	assert.Equal(t, "PostUser", m.Type("Post").Field("user").RelationName)
	assert.Equal(t, "users", user.DatabaseName)
}

func TestReconcileAddedColumn(t *testing.T) {
	t.Parallel()

	ref, _ := introspect(t, blogSchema(), introspection.NormalizeOptions{})

	s := blogSchema()
	posts := s.Table("posts")
	posts.Columns = append(posts.Columns, &introspection.Column{Name: "published_at", Type: "timestamp", IsNullable: true})

	m, _ := reintrospect(t, s, ref, introspection.NormalizeOptions{})

	want := blogModel()
	want.Types[0].Fields = append(want.Types[0].Fields, &dml.Field{
		Name: "publishedAt", DatabaseName: "published_at", Type: dml.TypeDateTime,
	})

	if diff := cmp.Diff(want, m, cmpModel); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileDropsOrphans(t *testing.T) {
	t.Parallel()

	ref := parseRef(t, `type Comment @db(name: "comments") {
  id: Int! @id
}

type User @db(name: "users") {
  id: Int! @id
  nickname: String
  email: String! @unique
}
`)

	s := blogSchema()
	m, _ := reintrospect(t, s, ref, introspection.NormalizeOptions{})

	assert.Equal(t, []string{"User", "Post"}, typeNames(m))
	assert.Equal(t, []string{"id", "email", "name", "posts"}, fieldNames(m.Type("User")))
}

func TestReconcileCarriesAttributes(t *testing.T) {
	t.Parallel()

	ref := parseRef(t, `# Someone who writes.
type User @db(name: "users") @search(index: "people") {
  id: Int! @id(strategy: NONE)
  # Login address.
  email: String! @unique
  name: String @default(value: "anonymous")
  role: Role @db(name: "kind") @default(value: USER)
  settings: String
  posts: [Post!]! @relation(name: "PostUser")
}

type Post @db(name: "posts") {
  id: Int! @id
  user: User! @db(name: "user_id") @relation(link: INLINE, name: "PostUser")
  title: String! @search
}

enum Role {
  ADMIN
  USER
}
`)

	s := blogSchema()
	users := s.Table("users")
	users.Columns = append(users.Columns,
		&introspection.Column{Name: "kind", Type: "text", IsNullable: true},
		&introspection.Column{Name: "settings", Type: "jsonb", IsNullable: true},
	)

	m, _ := reintrospect(t, s, ref, introspection.NormalizeOptions{})

	assert.Equal(t, []string{"User", "Post", "Role"}, typeNames(m))

	user := m.Type("User")
	assert.Equal(t, []dml.Comment{{Text: "Someone who writes."}}, user.Comments)
	assert.Equal(t, []*dml.Directive{{Name: "search", Args: []dml.Arg{{Name: "index", Value: `"people"`}}}}, user.Directives)

	assert.Equal(t, dml.IDStrategyNone, user.Field("id").IDStrategy)
	assert.Equal(t, []dml.Comment{{Text: "Login address."}}, user.Field("email").Comments)
	assert.Equal(t, ptr("anonymous"), user.Field("name").DefaultValue)

	role := user.Field("role")
	assert.Equal(t, "Role", role.Type)
	assert.Equal(t, "kind", role.DatabaseName)
	assert.Equal(t, ptr("USER"), role.DefaultValue)
	assert.Equal(t, []string{"ADMIN", "USER"}, m.Type("Role").Values)

	assert.Equal(t, dml.TypeString, user.Field("settings").Type)
	assert.Equal(t, []*dml.Directive{{Name: "search"}}, m.Type("Post").Field("title").Directives)
}

func TestReconcileLinkTableByTable(t *testing.T) {
	t.Parallel()

	ref := parseRef(t, `type Tag @db(name: "tags") {
  id: ID! @id
  articles: [Post!]! @relation(name: "Tagging")
}

type Post @db(name: "posts") {
  id: ID! @id
  labels: [Tag!]! @db(name: "_PostToTag") @relation(link: TABLE, name: "Tagging")
}
`)

	m, _ := reintrospect(t, linkSchema(), ref, introspection.NormalizeOptions{})

	assert.Equal(t, []string{"Tag", "Post"}, typeNames(m))
	assert.Equal(t, "Tagging", m.Type("Post").Field("labels").RelationName)
	assert.Equal(t, "_PostToTag", m.Type("Post").Field("labels").LinkTable)
	assert.Equal(t, "Tagging", m.Type("Tag").Field("articles").RelationName)
}

func TestReconcileNewTypesAfterReference(t *testing.T) {
	t.Parallel()

	ref := parseRef(t, `type User @db(name: "users") {
  id: Int! @id
  email: String! @unique
  name: String
}
`)

	m, diags := reintrospect(t, blogSchema(), ref, introspection.NormalizeOptions{})
	assert.Empty(t, diags)

	assert.Equal(t, []string{"User", "Post"}, typeNames(m))
	assert.Equal(t, []string{"id", "email", "name", "posts"}, fieldNames(m.Type("User")))
	assert.Equal(t, "PostUser", m.Type("User").Field("posts").RelationName)
}

func TestReconcileRelationNameTaken(t *testing.T) {
	t.Parallel()

	// The reference pins PostUser to the editor relation, so the new author
	// relation is numbered.
	ref := parseRef(t, `type Post @db(name: "posts") {
  id: Int! @id
  editor: User @db(name: "editor_id") @relation(link: INLINE, name: "PostUser")
}

type User @db(name: "users") {
  id: Int! @id
  edited: [Post!]! @relation(name: "PostUser")
}
`)

	s := blogSchema()
	posts := s.Table("posts")
	posts.Columns = append(posts.Columns, &introspection.Column{Name: "editor_id", Type: "int", IsNullable: true})
	posts.ForeignKeys = append(posts.ForeignKeys, &introspection.ForeignKey{
		Columns: []string{"editor_id"}, ReferencedTable: "users", ReferencedColumns: []string{"id"},
	})

	m, _ := reintrospect(t, s, ref, introspection.NormalizeOptions{})

	post := m.Type("Post")
	assert.Equal(t, []string{"id", "editor", "user", "title"}, fieldNames(post))
	assert.Equal(t, "PostUser", post.Field("editor").RelationName)
	assert.Equal(t, "PostUser2", post.Field("user").RelationName)

	user := m.Type("User")
	assert.Equal(t, []string{"id", "edited", "email", "name", "posts"}, fieldNames(user))
	assert.Equal(t, "PostUser", user.Field("edited").RelationName)
	assert.Equal(t, "PostUser2", user.Field("posts").RelationName)
}
