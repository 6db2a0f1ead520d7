package lsp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
)

func labels(items []protocol.CompletionItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Label
	}

	return out
}

func TestHover(t *testing.T) {
	t.Parallel()

	server, _ := openServer(t, blog)

	tests := []struct {
		name      string
		line      uint32
		char      uint32
		contains  []string
		wantEmpty bool
	}{
		{"field directive", 1, 12, []string{"**@id**", "Marks the id field."}, false},
		{"scalar type", 1, 6, []string{"**Int**", "A signed integer."}, false},
		{"relation field", 2, 4, []string{"Post.author: User!", "Relation `PostUser` with `User.posts`, link INLINE."}, false},
		{"related type", 2, 11, []string{"```graphql\ntype User {"}, false},
		{"type declaration", 0, 2, []string{`type Post @db(name: "posts") {`}, false},
		{"type directive", 0, 11, []string{"**@db**"}, false},
		{"enum value", 12, 3, []string{"Value of enum `Status`."}, false},
		{"blank line", 5, 0, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hover, err := server.Hover(context.Background(), &protocol.HoverParams{TextDocumentPositionParams: position(tt.line, tt.char)})
			require.NoError(t, err)

			if tt.wantEmpty {
				assert.Nil(t, hover)

				return
			}

			require.NotNil(t, hover)
			assert.Equal(t, protocol.Markdown, hover.Contents.Kind)

			for _, s := range tt.contains {
				assert.Contains(t, hover.Contents.Value, s)
			}
		})
	}
}

func TestCompletion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		line     uint32
		char     uint32
		contains []string
		excludes []string
	}{
		{
			name:     "field directives",
			content:  "type User {\n  id: Int! @\n}\n",
			line:     1,
			char:     12,
			contains: []string{"id", "unique", "default", "relation", "db"},
			excludes: []string{"embedded", "pgTable"},
		},
		{
			name:     "type directives",
			content:  "type User @\n",
			line:     0,
			char:     11,
			contains: []string{"db", "embedded", "pgTable"},
			excludes: []string{"id", "unique"},
		},
		{
			name:     "enum directives",
			content:  "enum Status @\n",
			line:     0,
			char:     13,
			contains: []string{"db"},
			excludes: []string{"embedded", "id"},
		},
		{
			name:     "field types",
			content:  blog,
			line:     8,
			char:     10,
			contains: []string{"String", "Int", "DateTime", "Post", "User", "Status"},
		},
		{
			name:     "keywords",
			content:  blog,
			line:     5,
			char:     0,
			contains: []string{"type", "enum"},
			excludes: []string{"String"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server, _ := openServer(t, tt.content)

			list, err := server.Completion(context.Background(), &protocol.CompletionParams{TextDocumentPositionParams: position(tt.line, tt.char)})
			require.NoError(t, err)
			require.NotNil(t, list)

			got := labels(list.Items)

			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}

			for _, unwanted := range tt.excludes {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestCompletionInsideBody(t *testing.T) {
	t.Parallel()

	server, _ := openServer(t, blog)

	list, err := server.Completion(context.Background(), &protocol.CompletionParams{TextDocumentPositionParams: position(1, 2)})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestCompletionSnippets(t *testing.T) {
	t.Parallel()

	server, _ := openServer(t, "type User {\n  id: Int! @rel\n}\n")

	list, err := server.Completion(context.Background(), &protocol.CompletionParams{TextDocumentPositionParams: position(1, 15)})
	require.NoError(t, err)

	for _, item := range list.Items {
		if item.Label == "relation" {
			assert.Equal(t, `relation(name: "$1")`, item.InsertText)
			assert.Equal(t, protocol.InsertTextFormatSnippet, item.InsertTextFormat)

			return
		}
	}

	t.Fatal("relation not offered")
}

func TestFoldingRanges(t *testing.T) {
	t.Parallel()

	server, _ := openServer(t, blog)

	ranges, err := server.FoldingRanges(context.Background(), &protocol.FoldingRangeParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []protocol.FoldingRange{
		{StartLine: 0, EndLine: 4, Kind: protocol.RegionFoldingRange},
		{StartLine: 6, EndLine: 9, Kind: protocol.RegionFoldingRange},
		{StartLine: 11, EndLine: 14, Kind: protocol.RegionFoldingRange},
	}, ranges)
}

func TestFormatting(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	params := &protocol.DocumentFormattingParams{TextDocument: protocol.TextDocumentIdentifier{URI: testURI}}

	server, _ := openServer(t, "type User   {\n    id:   Int!   @id\n}\n")

	edits, err := server.Formatting(ctx, params)
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, "type User {\n  id: Int! @id\n}\n", edits[0].NewText)
	assert.Equal(t, protocol.Range{End: protocol.Position{Line: 3}}, edits[0].Range)

	formatted, _ := openServer(t, "type User {\n  id: Int! @id\n}\n")

	edits, err = formatted.Formatting(ctx, params)
	require.NoError(t, err)
	assert.Empty(t, edits)

	broken, _ := openServer(t, "type User {\n  id Int!\n")

	edits, err = broken.Formatting(ctx, params)
	require.NoError(t, err)
	assert.Nil(t, edits)
}

func TestDocumentSymbols(t *testing.T) {
	t.Parallel()

	server, _ := openServer(t, blog)

	symbols, err := server.DocumentSymbols(context.Background(), &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)
	require.Len(t, symbols, 3)

	post := symbols[0]
	assert.Equal(t, "Post", post.Name)
	assert.Equal(t, protocol.SymbolKindClass, post.Kind)
	assert.Equal(t, uint32(0), post.Range.Start.Line)
	assert.Equal(t, uint32(4), post.Range.End.Line)
	require.Len(t, post.Children, 3)
	assert.Equal(t, "author", post.Children[1].Name)
	assert.Equal(t, "User", post.Children[1].Detail)
	assert.Equal(t, protocol.Range{
		Start: protocol.Position{Line: 2, Character: 2},
		End:   protocol.Position{Line: 2, Character: 8},
	}, post.Children[1].SelectionRange)

	status := symbols[2]
	assert.Equal(t, "Status", status.Name)
	assert.Equal(t, protocol.SymbolKindEnum, status.Kind)
	require.Len(t, status.Children, 2)
	assert.Equal(t, protocol.SymbolKindEnumMember, status.Children[0].Kind)
	assert.Equal(t, "DRAFT", status.Children[0].Name)
}
