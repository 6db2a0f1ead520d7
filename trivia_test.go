package dml_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prisma/dml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentAttachment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		wantType   []string
		wantFields map[string][]string
	}{
		{
			name:     "comment before type",
			input:    "# Users of the app\ntype User {\n  id: ID! @id\n}\n",
			wantType: []string{"Users of the app"},
		},
		{
			name:     "comments separated by a blank line still attach",
			input:    "# File header\n\n# Users\ntype User {\n  id: ID! @id\n}\n",
			wantType: []string{"File header", "Users"},
		},
		{
			name:       "comment before field",
			input:      "type User {\n  id: ID! @id\n  # Display name\n  name: String\n}\n",
			wantFields: map[string][]string{"name": {"Display name"}},
		},
		{
			name:       "trailing comment",
			input:      "type User {\n  id: ID! @id # primary key\n}\n",
			wantFields: map[string][]string{"id": {"primary key"}},
		},
		{
			name:       "leading and trailing comments",
			input:      "type User {\n  # The key\n  id: ID! @id # generated\n}\n",
			wantFields: map[string][]string{"id": {"The key", "generated"}},
		},
		{
			name:  "comments after the last field are dropped",
			input: "type User {\n  id: ID! @id\n  # nothing follows\n}\n",
		},
		{
			name:  "comments in enums are dropped",
			input: "enum Role {\n  # admins\n  ADMIN\n}\n",
		},
		{
			name:       "empty comment",
			input:      "type User {\n  #\n  id: ID! @id\n}\n",
			wantFields: map[string][]string{"id": {""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := mustParse(t, tt.input)
			require.NotEmpty(t, m.Types)

			assert.Equal(t, tt.wantType, texts(m.Types[0].Comments), "type comments")

			got := make(map[string][]string)

			for _, f := range m.Types[0].Fields {
				if len(f.Comments) > 0 {
					got[f.Name] = texts(f.Comments)
				}
			}

			if diff := cmp.Diff(tt.wantFields, got, cmpModel); diff != "" {
				t.Errorf("field comments mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCommentedOutFields(t *testing.T) {
	t.Parallel()

	m := mustParse(t, `type Place {
  # Type 'geometry' is not yet supported.
  # location: geometry
  id: Int! @id
  # just a note: not a field
  name: String
  # Type 'box' is not yet supported.
  # Consider a text column.
  # area: [box!]!
}
`)

	place := m.Type("Place")
	require.NotNil(t, place)

	names := make([]string, 0, len(place.Fields))
	for _, f := range place.Fields {
		names = append(names, f.Name)
	}

	assert.Equal(t, []string{"location", "id", "name", "area"}, names)

	location := place.Field("location")
	assert.True(t, location.IsUnsupported)
	assert.Equal(t, "geometry", location.Type)
	assert.Equal(t, []dml.Comment{{Text: "Type 'geometry' is not yet supported.", IsError: true}}, location.Comments)

	assert.Equal(t, []string{"just a note: not a field"}, texts(place.Field("name").Comments))

	area := place.Field("area")
	assert.True(t, area.IsUnsupported)
	assert.True(t, area.IsList)
	assert.Equal(t, []string{"Type 'box' is not yet supported.", "Consider a text column."}, texts(area.Comments))
}

func TestCommentedFieldNeedsExplanation(t *testing.T) {
	t.Parallel()

	m := mustParse(t, "type User {\n  # name: String\n  id: ID! @id\n}\n")

	user := m.Type("User")
	require.Len(t, user.Fields, 1)
	assert.Equal(t, []string{"name: String"}, texts(user.Fields[0].Comments))
}

func texts(comments []dml.Comment) []string {
	if len(comments) == 0 {
		return nil
	}

	out := make([]string, len(comments))
	for i, c := range comments {
		out[i] = c.Text
	}

	return out
}
