package lsp

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/prisma/dml/analysis"
)

// publishDiagnostics converts analysis diagnostics to LSP format and publishes them.
func (s *Server) publishDiagnostics(ctx context.Context, doc *Document) {
	s.mu.RLock()
	result := doc.Analysis
	version := doc.Version
	s.mu.RUnlock()

	if result == nil {
		return
	}

	diagnostics := make([]protocol.Diagnostic, 0, len(result.Diagnostics))
	for _, d := range result.Diagnostics {
		diagnostics = append(diagnostics, convertDiagnostic(d))
	}

	s.logger.Debug("publishDiagnostics",
		zap.String("uri", string(doc.URI)),
		zap.Int32("version", version),
		zap.Int("count", len(diagnostics)))

	err := s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         doc.URI,
		Version:     uint32(version), //nolint:gosec // LSP version numbers are always non-negative
		Diagnostics: diagnostics,
	})
	if err != nil {
		s.logger.Error("publishDiagnostics: RPC failed", zap.Error(err))
	}
}

// convertDiagnostic converts an analysis.Diagnostic to an LSP protocol.Diagnostic.
func convertDiagnostic(d analysis.Diagnostic) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range:    spanToRange(d.Span),
		Severity: convertSeverity(d.Severity),
		Code:     d.Code,
		Source:   d.Source,
		Message:  d.Message,
	}
}

// convertSeverity converts analysis severity to LSP severity.
func convertSeverity(sev analysis.DiagnosticSeverity) protocol.DiagnosticSeverity {
	switch sev {
	case analysis.SeverityError:
		return protocol.DiagnosticSeverityError
	case analysis.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case analysis.SeverityInformation:
		return protocol.DiagnosticSeverityInformation
	case analysis.SeverityHint:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityError
	}
}

// spanToRange converts a 1-based analysis span to a 0-based LSP range.
func spanToRange(span analysis.Span) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{
			Line:      toZeroBased(span.Start.Line),
			Character: toZeroBased(span.Start.Column),
		},
		End: protocol.Position{
			Line:      toZeroBased(span.End.Line),
			Character: toZeroBased(span.End.Column),
		},
	}
}

// toZeroBased converts a 1-based line or column. Unset positions map to 0.
func toZeroBased(n int) uint32 {
	if n <= 1 {
		return 0
	}

	return uint32(n - 1) //nolint:gosec // n is positive
}
