// Package lsp implements a Language Server Protocol server for datamodel
// files.
package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/prisma/dml"
	"github.com/prisma/dml/analysis"
)

// Client is the part of protocol.Client the server calls.
type Client interface {
	PublishDiagnostics(ctx context.Context, params *protocol.PublishDiagnosticsParams) error
	LogMessage(ctx context.Context, params *protocol.LogMessageParams) error
}

// Server serves datamodel files.
type Server struct {
	client Client
	logger *zap.Logger

	// Document state
	mu        sync.RWMutex
	documents map[protocol.DocumentURI]*Document
	style     dml.Style
	analyzer  *analysis.Analyzer

	// Server state
	initialized   bool
	shutdown      bool
	workspaceRoot string
}

// Document represents an open document in the server.
type Document struct {
	URI      protocol.DocumentURI
	Version  int32
	Content  string
	Analysis *analysis.AnalyzedFile

	// LastValidAnalysis holds the most recent analysis that parsed successfully.
	// Used for completion while the current content has parse errors.
	LastValidAnalysis *analysis.AnalyzedFile
}

// NewServer creates a new LSP server. The style is replaced by the one of
// the workspace config, if any, on initialize.
func NewServer(client Client, logger *zap.Logger, style dml.Style) *Server {
	return &Server{
		client:    client,
		logger:    logger,
		documents: make(map[protocol.DocumentURI]*Document),
		style:     style,
		analyzer:  analysis.NewAnalyzer(style),
	}
}

// Handler returns the JSON-RPC handler for the supported methods. Other
// requests are answered with method not found.
func (s *Server) Handler() jsonrpc2.Handler {
	return jsonrpc2.ReplyHandler(s.handle)
}

func (s *Server) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	switch req.Method() {
	case protocol.MethodInitialize:
		return call(ctx, reply, req, s.Initialize)
	case protocol.MethodInitialized:
		return notify(ctx, reply, req, s.Initialized)
	case protocol.MethodShutdown:
		return reply(ctx, nil, s.Shutdown(ctx))
	case protocol.MethodExit:
		return reply(ctx, nil, s.Exit(ctx))
	case protocol.MethodTextDocumentDidOpen:
		return notify(ctx, reply, req, s.DidOpen)
	case protocol.MethodTextDocumentDidChange:
		return notify(ctx, reply, req, s.DidChange)
	case protocol.MethodTextDocumentDidClose:
		return notify(ctx, reply, req, s.DidClose)
	case protocol.MethodTextDocumentDidSave:
		return notify(ctx, reply, req, s.DidSave)
	case protocol.MethodTextDocumentHover:
		return call(ctx, reply, req, s.Hover)
	case protocol.MethodTextDocumentCompletion:
		return call(ctx, reply, req, s.Completion)
	case protocol.MethodTextDocumentFoldingRange:
		return call(ctx, reply, req, s.FoldingRanges)
	case protocol.MethodTextDocumentFormatting:
		return call(ctx, reply, req, s.Formatting)
	case protocol.MethodTextDocumentDocumentSymbol:
		return call(ctx, reply, req, s.DocumentSymbols)
	default:
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}
}

func decode[P any](req jsonrpc2.Request) (*P, error) {
	var params P

	if len(req.Params()) > 0 {
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return nil, fmt.Errorf("%w: %w", jsonrpc2.ErrParse, err)
		}
	}

	return &params, nil
}

func call[P, R any](ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request, fn func(context.Context, *P) (R, error)) error {
	params, err := decode[P](req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := fn(ctx, params)

	return reply(ctx, result, err)
}

func notify[P any](ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request, fn func(context.Context, *P) error) error {
	params, err := decode[P](req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	return reply(ctx, nil, fn(ctx, params))
}

// Initialize handles the initialize request.
func (s *Server) Initialize(_ context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	s.logger.Info("Initialize", zap.String("rootURI", string(params.RootURI)))

	// Extract workspace root from params
	if params.RootURI != "" {
		s.workspaceRoot = URIToPath(params.RootURI)
	} else if params.RootPath != "" {
		s.workspaceRoot = params.RootPath
	}

	if s.workspaceRoot != "" {
		s.loadWorkspaceConfig()
	}

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			// Full document sync - client sends entire content on change
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
			HoverProvider: true,
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{"@", ":"},
				ResolveProvider:   false,
			},
			DocumentSymbolProvider:     true,
			FoldingRangeProvider:       true,
			DocumentFormattingProvider: true,
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    "dml-lsp",
			Version: "0.1.0",
		},
	}, nil
}

// loadWorkspaceConfig picks up the datamodel style of the workspace.
func (s *Server) loadWorkspaceConfig() {
	cfg, err := dml.LoadConfig(s.workspaceRoot)
	if err != nil {
		s.logger.Debug("No workspace config", zap.String("root", s.workspaceRoot), zap.Error(err))

		return
	}

	style, err := cfg.RenderStyle()
	if err != nil {
		s.logger.Warn("Invalid style in workspace config", zap.Error(err))

		return
	}

	s.mu.Lock()
	s.style = style
	s.analyzer = analysis.NewAnalyzer(style)
	s.mu.Unlock()

	s.logger.Info("Workspace config", zap.String("root", s.workspaceRoot), zap.Stringer("style", style))
}

// Initialized handles the initialized notification.
func (s *Server) Initialized(_ context.Context, _ *protocol.InitializedParams) error {
	s.logger.Info("Initialized")
	s.initialized = true

	return nil
}

// Shutdown handles the shutdown request.
func (s *Server) Shutdown(_ context.Context) error {
	s.logger.Info("Shutdown")
	s.shutdown = true

	return nil
}

// Exit handles the exit notification. The connection loop ends when the
// client closes the stream.
func (s *Server) Exit(_ context.Context) error {
	s.logger.Info("Exit")

	return nil
}

// DidOpen handles textDocument/didOpen notifications.
func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.logger.Info("DidOpen", zap.String("uri", string(params.TextDocument.URI)))

	doc := &Document{
		URI:     params.TextDocument.URI,
		Version: params.TextDocument.Version,
		Content: params.TextDocument.Text,
	}

	s.analyze(doc)

	// Hold lock only for document map update
	s.mu.Lock()
	s.documents[params.TextDocument.URI] = doc
	s.mu.Unlock()

	// Publish diagnostics outside the lock to prevent deadlock
	s.publishDiagnostics(ctx, doc)

	return nil
}

// DidChange handles textDocument/didChange notifications.
func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	start := time.Now()

	s.mu.Lock()

	doc, ok := s.documents[params.TextDocument.URI]
	if !ok {
		s.mu.Unlock()
		s.logger.Warn("DidChange for unknown document", zap.String("uri", string(params.TextDocument.URI)))

		return nil
	}

	if len(params.ContentChanges) == 0 {
		s.mu.Unlock()

		return nil
	}

	// Full sync - the last change holds the whole content
	doc.Content = params.ContentChanges[len(params.ContentChanges)-1].Text
	doc.Version = params.TextDocument.Version
	s.mu.Unlock()

	s.analyze(doc)

	s.logger.Debug("DidChange analyzed",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Int32("version", params.TextDocument.Version),
		zap.Duration("elapsed", time.Since(start)))

	// The client may send requests while diagnostics are being published.
	s.publishDiagnostics(ctx, doc)

	return nil
}

// DidClose handles textDocument/didClose notifications.
func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.logger.Info("DidClose", zap.String("uri", string(params.TextDocument.URI)))

	s.mu.Lock()
	delete(s.documents, params.TextDocument.URI)
	s.mu.Unlock()

	err := s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	if err != nil {
		s.logger.Error("Failed to clear diagnostics", zap.Error(err))
	}

	return nil
}

// DidSave handles textDocument/didSave notifications.
func (s *Server) DidSave(_ context.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.logger.Debug("DidSave", zap.String("uri", string(params.TextDocument.URI)))

	return nil
}

// analyze re-analyzes a document. The analysis is swapped in under the lock.
func (s *Server) analyze(doc *Document) {
	s.mu.RLock()
	analyzer := s.analyzer
	content := doc.Content
	s.mu.RUnlock()

	result := analyzer.Analyze(URIToPath(doc.URI), []byte(content))

	s.mu.Lock()
	doc.Analysis = result
	if result.ParseError == nil {
		doc.LastValidAnalysis = result
	}
	s.mu.Unlock()
}

// getDocument returns a snapshot of a document by URI.
func (s *Server) getDocument(uri protocol.DocumentURI) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[uri]
	if !ok {
		return Document{}, false
	}

	return *doc, true
}

// currentStyle returns the datamodel style in effect.
func (s *Server) currentStyle() dml.Style {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.style
}

// URIToPath converts a file URI to a filesystem path.
func URIToPath(u protocol.DocumentURI) string {
	return u.Filename()
}
