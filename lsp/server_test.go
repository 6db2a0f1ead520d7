package lsp_test

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/prisma/dml"
	"github.com/prisma/dml/lsp"
)

const testURI = protocol.DocumentURI("file:///project/datamodel.prisma")

const blog = `type Post @db(name: "posts") {
  id: Int! @id
  author: User! @relation(link: INLINE, name: "PostUser")
  status: Status! @default(value: DRAFT)
}

type User {
  id: Int! @id
  posts: [Post!]! @relation(name: "PostUser")
}

enum Status {
  DRAFT
  PUBLISHED
}
`

// mockClient records what the server sends to the editor.
type mockClient struct {
	mu          sync.Mutex
	diagnostics []*protocol.PublishDiagnosticsParams
	logs        []*protocol.LogMessageParams
}

func (c *mockClient) PublishDiagnostics(_ context.Context, params *protocol.PublishDiagnosticsParams) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.diagnostics = append(c.diagnostics, params)

	return nil
}

func (c *mockClient) LogMessage(_ context.Context, params *protocol.LogMessageParams) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logs = append(c.logs, params)

	return nil
}

func (c *mockClient) lastDiagnostics(t *testing.T) *protocol.PublishDiagnosticsParams {
	t.Helper()

	c.mu.Lock()
	defer c.mu.Unlock()

	require.NotEmpty(t, c.diagnostics)

	return c.diagnostics[len(c.diagnostics)-1]
}

func openServer(t *testing.T, content string) (*lsp.Server, *mockClient) {
	t.Helper()

	client := &mockClient{}
	server := lsp.NewServer(client, zap.NewNop(), dml.StyleV2)

	ctx := context.Background()

	_, err := server.Initialize(ctx, &protocol.InitializeParams{})
	require.NoError(t, err)
	require.NoError(t, server.Initialized(ctx, &protocol.InitializedParams{}))

	err = server.DidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        testURI,
			LanguageID: "prisma",
			Version:    1,
			Text:       content,
		},
	})
	require.NoError(t, err)

	return server, client
}

func position(line, char uint32) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
		Position:     protocol.Position{Line: line, Character: char},
	}
}

func TestInitialize(t *testing.T) {
	t.Parallel()

	server := lsp.NewServer(&mockClient{}, zap.NewNop(), dml.StyleV2)

	result, err := server.Initialize(context.Background(), &protocol.InitializeParams{})
	require.NoError(t, err)

	assert.Equal(t, "dml-lsp", result.ServerInfo.Name)
	assert.Equal(t, true, result.Capabilities.HoverProvider)
	assert.Equal(t, []string{"@", ":"}, result.Capabilities.CompletionProvider.TriggerCharacters)
	assert.Equal(t, &protocol.TextDocumentSyncOptions{
		OpenClose: true,
		Change:    protocol.TextDocumentSyncKindFull,
	}, result.Capabilities.TextDocumentSync)
}

func TestDidOpenPublishesDiagnostics(t *testing.T) {
	t.Parallel()

	_, client := openServer(t, "type Post {\n  id: Int! @id\n  author: Author!\n}\n")

	published := client.lastDiagnostics(t)
	assert.Equal(t, testURI, published.URI)
	assert.Equal(t, uint32(1), published.Version)
	require.Len(t, published.Diagnostics, 1)

	d := published.Diagnostics[0]
	assert.Equal(t, "unknown type: Author", d.Message)
	assert.Equal(t, "unknown-type", d.Code)
	assert.Equal(t, "dml", d.Source)
	assert.Equal(t, protocol.DiagnosticSeverityError, d.Severity)
	assert.Equal(t, protocol.Position{Line: 2, Character: 2}, d.Range.Start)
}

func TestDidChange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	server, client := openServer(t, blog)

	assert.Empty(t, client.lastDiagnostics(t).Diagnostics)

	err := server.DidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: testURI},
			Version:                2,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: "type User {\n  posts: [\n}\n"}},
	})
	require.NoError(t, err)

	published := client.lastDiagnostics(t)
	assert.Equal(t, uint32(2), published.Version)
	require.Len(t, published.Diagnostics, 1)
	assert.Equal(t, "parse-error", published.Diagnostics[0].Code)

	// Declared names survive the parse error.
	list, err := server.Completion(ctx, &protocol.CompletionParams{TextDocumentPositionParams: position(1, 10)})
	require.NoError(t, err)
	assert.Contains(t, labels(list.Items), "Post")
}

func TestDidChangeUnknownDocument(t *testing.T) {
	t.Parallel()

	server := lsp.NewServer(&mockClient{}, zap.NewNop(), dml.StyleV2)

	err := server.DidChange(context.Background(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: testURI},
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: blog}},
	})
	require.NoError(t, err)
}

func TestDidClose(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	server, client := openServer(t, "type Post {\n  author: Author!\n}\n")

	require.NotEmpty(t, client.lastDiagnostics(t).Diagnostics)

	err := server.DidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)
	assert.Empty(t, client.lastDiagnostics(t).Diagnostics)

	hover, err := server.Hover(ctx, &protocol.HoverParams{TextDocumentPositionParams: position(0, 6)})
	require.NoError(t, err)
	assert.Nil(t, hover)
}

func TestURIToPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/project/datamodel.prisma", lsp.URIToPath(testURI))
}

func TestHandler(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	serverSide, clientSide := net.Pipe()

	server := lsp.NewServer(&mockClient{}, zap.NewNop(), dml.StyleV2)
	serverConn := jsonrpc2.NewConn(jsonrpc2.NewStream(serverSide))
	serverConn.Go(ctx, server.Handler())

	clientConn := jsonrpc2.NewConn(jsonrpc2.NewStream(clientSide))
	clientConn.Go(ctx, jsonrpc2.MethodNotFoundHandler)

	t.Cleanup(func() {
		_ = clientConn.Close()
		_ = serverConn.Close()
	})

	var result protocol.InitializeResult

	_, err := clientConn.Call(ctx, protocol.MethodInitialize, &protocol.InitializeParams{}, &result)
	require.NoError(t, err)
	require.NotNil(t, result.ServerInfo)
	assert.Equal(t, "dml-lsp", result.ServerInfo.Name)

	err = clientConn.Notify(ctx, protocol.MethodTextDocumentDidOpen, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: testURI, Version: 1, Text: blog},
	})
	require.NoError(t, err)

	var hover protocol.Hover

	_, err = clientConn.Call(ctx, protocol.MethodTextDocumentHover, &protocol.HoverParams{TextDocumentPositionParams: position(1, 6)}, &hover)
	require.NoError(t, err)
	assert.Contains(t, hover.Contents.Value, "A signed integer.")

	_, err = clientConn.Call(ctx, protocol.MethodTextDocumentCodeLens, &protocol.CodeLensParams{}, nil)
	require.ErrorContains(t, err, "method not found")

	_, err = clientConn.Call(ctx, protocol.MethodShutdown, nil, nil)
	require.NoError(t, err)
}
