package lsp

import (
	"context"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/prisma/dml"
)

// FoldingRanges handles textDocument/foldingRange requests.
// Returns a region for every type and enum body.
func (s *Server) FoldingRanges(_ context.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok || doc.Analysis == nil || doc.Analysis.Document == nil {
		return nil, nil
	}

	lineCount := uint32(len(splitLines(doc.Content))) //nolint:gosec // line counts fit in uint32

	var ranges []protocol.FoldingRange

	for _, def := range doc.Analysis.Document.Definitions {
		var start, end int

		switch {
		case def.Type != nil:
			start, end = def.Type.Pos.Line-1, bodyEnd(def.Type.Close, def.Type.EndPos).Line-1
		case def.Enum != nil:
			start, end = def.Enum.Pos.Line-1, bodyEnd(def.Enum.Close, def.Enum.EndPos).Line-1
		default:
			continue
		}

		if r, ok := validFoldingRange(start, end, lineCount); ok {
			ranges = append(ranges, r)
		}
	}

	s.logger.Debug("FoldingRanges",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Int("count", len(ranges)))

	return ranges, nil
}

// validFoldingRange creates a folding range only if the line numbers are valid.
func validFoldingRange(startLine, endLine int, lineCount uint32) (protocol.FoldingRange, bool) {
	if startLine < 0 || endLine < 0 {
		return protocol.FoldingRange{}, false
	}

	start := uint32(startLine)
	end := uint32(endLine)

	if start >= lineCount || end >= lineCount {
		return protocol.FoldingRange{}, false
	}

	// Folding range must span at least 2 lines
	if end <= start {
		return protocol.FoldingRange{}, false
	}

	return protocol.FoldingRange{
		StartLine: start,
		EndLine:   end,
		Kind:      protocol.RegionFoldingRange,
	}, true
}

// bodyEnd returns the position just past the closing brace of a body, or
// fallback when the brace is missing.
func bodyEnd(brace *dml.BodyEnd, fallback lexer.Position) lexer.Position {
	if brace == nil || brace.Pos.Line == 0 {
		return fallback
	}

	end := brace.Pos
	end.Column++
	end.Offset++

	return end
}

// splitLines splits content into lines, keeping a trailing empty line.
func splitLines(content string) []string {
	return strings.Split(content, "\n")
}
