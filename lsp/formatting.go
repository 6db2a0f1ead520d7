package lsp

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/prisma/dml"
)

// Formatting handles textDocument/formatting requests. A document that does
// not parse is left alone.
func (s *Server) Formatting(_ context.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	m, err := dml.ParseWithStyle([]byte(doc.Content), s.currentStyle())
	if err != nil {
		s.logger.Debug("Formatting skipped", zap.String("uri", string(params.TextDocument.URI)), zap.Error(err))

		return nil, nil
	}

	formatted := dml.Render(m, s.currentStyle())
	if formatted == doc.Content {
		return []protocol.TextEdit{}, nil
	}

	lines := splitLines(doc.Content)

	return []protocol.TextEdit{{
		Range: protocol.Range{
			Start: protocol.Position{},
			End: protocol.Position{
				Line:      uint32(len(lines) - 1),         //nolint:gosec // line counts fit in uint32
				Character: uint32(len(lines[len(lines)-1])), //nolint:gosec // line lengths fit in uint32
			},
		},
		NewText: formatted,
	}}, nil
}
