package lsp

import (
	"context"

	"github.com/alecthomas/participle/v2/lexer"
	"go.lsp.dev/protocol"

	"github.com/prisma/dml"
	"github.com/prisma/dml/analysis"
)

// DocumentSymbols handles textDocument/documentSymbol requests.
func (s *Server) DocumentSymbols(_ context.Context, params *protocol.DocumentSymbolParams) ([]protocol.DocumentSymbol, error) {
	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok || doc.Analysis == nil || doc.Analysis.Document == nil {
		return nil, nil
	}

	var symbols []protocol.DocumentSymbol

	for _, def := range doc.Analysis.Document.Definitions {
		switch {
		case def.Type != nil:
			symbols = append(symbols, typeSymbol(def.Type))
		case def.Enum != nil:
			symbols = append(symbols, enumSymbol(def.Enum))
		}
	}

	return symbols, nil
}

func typeSymbol(td *dml.TypeDef) protocol.DocumentSymbol {
	sym := protocol.DocumentSymbol{
		Name:           td.Name,
		Detail:         "type",
		Kind:           protocol.SymbolKindClass,
		Range:          spanToRange(analysis.Span{Start: td.Pos, End: bodyEnd(td.Close, td.EndPos)}),
		SelectionRange: spanToRange(nameSpan(td.Pos, "type "+td.Name)),
	}

	for _, fd := range td.Fields {
		detail := ""
		if fd.Type != nil {
			detail = fd.Type.Base()
		}

		sym.Children = append(sym.Children, protocol.DocumentSymbol{
			Name:           fd.Name,
			Detail:         detail,
			Kind:           protocol.SymbolKindField,
			Range:          spanToRange(analysis.Span{Start: fd.Pos, End: fd.EndPos}),
			SelectionRange: spanToRange(nameSpan(fd.Pos, fd.Name)),
		})
	}

	return sym
}

func enumSymbol(ed *dml.EnumDef) protocol.DocumentSymbol {
	sym := protocol.DocumentSymbol{
		Name:           ed.Name,
		Detail:         "enum",
		Kind:           protocol.SymbolKindEnum,
		Range:          spanToRange(analysis.Span{Start: ed.Pos, End: bodyEnd(ed.Close, ed.EndPos)}),
		SelectionRange: spanToRange(nameSpan(ed.Pos, "enum "+ed.Name)),
	}

	for _, v := range ed.Values {
		sym.Children = append(sym.Children, protocol.DocumentSymbol{
			Name:           v.Name,
			Kind:           protocol.SymbolKindEnumMember,
			Range:          spanToRange(nameSpan(v.Pos, v.Name)),
			SelectionRange: spanToRange(nameSpan(v.Pos, v.Name)),
		})
	}

	return sym
}

// nameSpan is the span of text written at pos on a single line.
func nameSpan(pos lexer.Position, text string) analysis.Span {
	end := pos
	end.Column += len(text)
	end.Offset += len(text)

	return analysis.Span{Start: pos, End: end}
}
