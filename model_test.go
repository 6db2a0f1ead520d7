package dml_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prisma/dml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRelationName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want string
	}{
		{"User", "Post", "PostUser"},
		{"Post", "User", "PostUser"},
		{"apple", "Banana", "appleBanana"},
		{"Node", "Node", "NodeNode"},
		{"user", "User", "Useruser"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, dml.DefaultRelationName(tt.a, tt.b), "%s/%s", tt.a, tt.b)
	}
}

func TestUniqueName(t *testing.T) {
	t.Parallel()

	taken := map[string]bool{"User": true, "User2": true}
	isTaken := func(s string) bool { return taken[s] }

	assert.Equal(t, "Post", dml.UniqueName("Post", isTaken))
	assert.Equal(t, "User3", dml.UniqueName("User", isTaken))
}

func TestModelRelations(t *testing.T) {
	t.Parallel()

	m := blogModel()
	relations := m.Relations()
	require.Len(t, relations, 1)

	rel := relations[0]
	assert.Equal(t, "PostUser", rel.Name)
	assert.False(t, rel.IsSelf())

	owner := rel.Owner()
	assert.Equal(t, "Post", owner.Type.Name)
	assert.Equal(t, "user", owner.Field.Name)
	assert.Equal(t, "posts", rel.Other(owner).Field.Name)

	post := m.Type("Post")
	assert.Equal(t, "posts", m.RelatedField(post, post.Field("user")).Name)
	assert.False(t, m.IsRelation(post.Field("title")))
}

func TestModelOneSidedSelfRelation(t *testing.T) {
	t.Parallel()

	m := mustParse(t, `type Node { id: ID! @id next: Node }`)
	relations := m.Relations()
	require.Len(t, relations, 1)
	assert.True(t, relations[0].B.IsZero())
	assert.True(t, relations[0].IsSelf())
	assert.Nil(t, m.RelatedField(m.Types[0], m.Types[0].Field("next")))
}

func TestRenameTypes(t *testing.T) {
	t.Parallel()

	m := blogModel()
	m.RenameTypes(map[string]string{"Post": "User", "User": "Post"})

	assert.Equal(t, "User", m.Types[0].Name)
	assert.Equal(t, "Post", m.Types[0].Field("user").Type)
	assert.Equal(t, "Post", m.Types[1].Name)
	assert.Equal(t, "User", m.Types[1].Field("posts").Type)
	require.NoError(t, m.Validate())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, blogModel().Validate())

	m := blogModel()
	m.Types[0].Fields = append(m.Types[0].Fields, &dml.Field{Name: "title", Type: dml.TypeString})
	m.Types = append(m.Types, &dml.Type{Name: "User"})
	m.Types[1].Fields = append(m.Types[1].Fields, &dml.Field{Name: "team", Type: "Team"})

	err := m.Validate()
	require.ErrorIs(t, err, dml.ErrDuplicateField)
	require.ErrorIs(t, err, dml.ErrDuplicateType)
	require.ErrorIs(t, err, dml.ErrUnknownType)
	assert.Len(t, strings.Split(err.Error(), "\n"), 3)
}

func TestClone(t *testing.T) {
	t.Parallel()

	m := blogModel()
	m.Types[0].Fields[0].Sequence = &dml.Sequence{Name: "s", InitialValue: 1, AllocationSize: 1}
	m.Types[0].Fields[2].DefaultValue = ptr("x")

	c := m.Clone()
	if diff := cmp.Diff(m, c); diff != "" {
		t.Fatalf("clone differs (-orig +clone):\n%s", diff)
	}

	c.Types[0].Name = "Changed"
	c.Types[0].Fields[0].Sequence.Name = "changed"
	*c.Types[0].Fields[2].DefaultValue = "changed"

	assert.Equal(t, "Post", m.Types[0].Name)
	assert.Equal(t, "s", m.Types[0].Fields[0].Sequence.Name)
	assert.Equal(t, "x", *m.Types[0].Fields[2].DefaultValue)
}
