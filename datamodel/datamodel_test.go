package datamodel_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prisma/dml"
	"github.com/prisma/dml/datamodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoaderLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "users.prisma", "type User {\n  id: ID! @id\n}\n")

	l := datamodel.NewLoader()

	f, err := l.LoadFrom("users", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "users.prisma"), f.Path)
	require.Len(t, f.Document.Definitions, 1)
	assert.Equal(t, "User", f.Document.Definitions[0].Type.Name)

	again, err := l.Load(filepath.Join(dir, "users.prisma"))
	require.NoError(t, err)
	assert.Same(t, f, again)
	assert.Len(t, l.Cached(), 1)

	l.Clear()
	assert.Empty(t, l.Cached())
}

func TestLoaderErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "broken.prisma", "type User {\n  id ID!\n}\n")

	l := datamodel.NewLoader()

	_, err := l.LoadFrom("missing.prisma", dir)
	require.ErrorIs(t, err, datamodel.ErrFileNotFound)

	var loadErr *datamodel.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "missing.prisma", loadErr.Path)

	_, err = l.LoadFrom("broken.prisma", dir)
	require.ErrorIs(t, err, datamodel.ErrParse)
}

func TestMerge(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	users := writeFile(t, dir, "users.prisma", "type User {\n  id: ID! @id\n  posts: [Post!]!\n}\n")
	posts := writeFile(t, dir, "posts.prisma", "type Post {\n  id: ID! @id\n  author: User!\n}\n\n\n")
	empty := writeFile(t, dir, "empty.prisma", "# nothing yet\n")

	merged, warnings, err := datamodel.Load(datamodel.NewLoader(), []string{users, posts, users, empty}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{users, posts, empty}, merged.Files)
	assert.Len(t, merged.Document.Definitions, 2)

	require.Len(t, warnings, 2)
	assert.Equal(t, datamodel.CodeDuplicateFile, warnings[0].Code)
	assert.Equal(t, datamodel.CodeEmptyFile, warnings[1].Code)

	// The merged source parses as one datamodel with its relation resolved.
	m, err := dml.Parse(merged.Data)
	require.NoError(t, err)
	require.Len(t, m.Types, 2)
	assert.NotEmpty(t, m.Type("Post").Field("author").RelationName)
}

func TestMergeDuplicateDefinition(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeFile(t, dir, "a.prisma", "enum Role {\n  ADMIN\n}\n")
	b := writeFile(t, dir, "b.prisma", "type User {\n  id: ID! @id\n}\n\nenum Role {\n  USER\n}\n")

	_, _, err := datamodel.Load(datamodel.NewLoader(), []string{a, b}, "")

	var mergeErr *datamodel.MergeError
	require.ErrorAs(t, err, &mergeErr)
	assert.Equal(t, datamodel.CodeDuplicateDefinition, mergeErr.Code)
	assert.Equal(t, b, mergeErr.Path)
	assert.Equal(t, 5, mergeErr.Pos.Line)
	assert.Contains(t, mergeErr.Error(), "Role is already declared at "+a+":1")
}
