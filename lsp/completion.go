package lsp

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/prisma/dml"
	"github.com/prisma/dml/analysis"
)

var (
	// directivePrefix matches an unfinished directive name at the cursor.
	directivePrefix = regexp.MustCompile(`@(\w*)$`)
	// typePrefix matches an unfinished field type at the cursor.
	typePrefix = regexp.MustCompile(`^\s*\w+\s*:\s*\[?\s*(\w*)$`)
	// keywordPrefix matches a word at the start of a top level line.
	keywordPrefix = regexp.MustCompile(`^\s*(\w*)$`)
)

var scalars = []string{
	dml.TypeString, dml.TypeInt, dml.TypeFloat, dml.TypeBoolean,
	dml.TypeDateTime, dml.TypeJSON, dml.TypeID, dml.TypeUUID,
}

// Completion handles textDocument/completion requests.
func (s *Server) Completion(_ context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	lines := splitLines(doc.Content)
	if int(params.Position.Line) >= len(lines) {
		return &protocol.CompletionList{}, nil
	}

	line := lines[params.Position.Line]
	prefix := line[:min(int(params.Position.Character), len(line))]
	depth := braceDepth(lines[:params.Position.Line], prefix)

	// Declared names come from the last analysis that parsed.
	result := doc.Analysis
	if result == nil || result.ParseError != nil {
		result = doc.LastValidAnalysis
	}

	var items []protocol.CompletionItem

	switch {
	case directivePrefix.MatchString(prefix):
		items = directiveCompletions(prefix, depth)
	case depth > 0 && typePrefix.MatchString(prefix):
		items = typeCompletions(result)
	case depth == 0 && keywordPrefix.MatchString(prefix):
		items = keywordCompletions()
	}

	s.logger.Debug("Completion",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.String("prefix", prefix),
		zap.Int("depth", depth),
		zap.Int("items", len(items)))

	return &protocol.CompletionList{Items: items}, nil
}

// braceDepth counts the braces open at the cursor.
func braceDepth(before []string, prefix string) int {
	depth := 0

	count := func(s string) {
		// Comments may contain braces.
		if i := strings.Index(s, "#"); i >= 0 {
			s = s[:i]
		}

		depth += strings.Count(s, "{") - strings.Count(s, "}")
	}

	for _, l := range before {
		count(l)
	}

	count(prefix)

	return max(depth, 0)
}

func directiveCompletions(prefix string, depth int) []protocol.CompletionItem {
	header := strings.TrimSpace(prefix)
	onEnum := depth == 0 && strings.HasPrefix(header, "enum")

	var items []protocol.CompletionItem

	for _, d := range directives {
		switch {
		case depth > 0 && !d.onField,
			depth == 0 && onEnum && !d.onEnum,
			depth == 0 && !onEnum && !d.onType:
			continue
		}

		item := protocol.CompletionItem{
			Label:      d.name,
			Kind:       protocol.CompletionItemKindFunction,
			Detail:     "@" + d.name,
			InsertText: d.name,
		}

		if d.snippet != "" {
			item.InsertText = d.snippet
			item.InsertTextFormat = protocol.InsertTextFormatSnippet
		}

		items = append(items, item)
	}

	return items
}

func typeCompletions(result *analysis.AnalyzedFile) []protocol.CompletionItem {
	items := make([]protocol.CompletionItem, 0, len(scalars))

	for _, name := range scalars {
		items = append(items, protocol.CompletionItem{
			Label:  name,
			Kind:   protocol.CompletionItemKindKeyword,
			Detail: "scalar",
		})
	}

	if result == nil || result.Symbols == nil {
		return items
	}

	types := make([]string, 0, len(result.Symbols.Types))
	for name := range result.Symbols.Types {
		types = append(types, name)
	}

	slices.Sort(types)

	for _, name := range types {
		items = append(items, protocol.CompletionItem{
			Label:  name,
			Kind:   protocol.CompletionItemKindClass,
			Detail: "type",
		})
	}

	enums := make([]string, 0, len(result.Symbols.Enums))
	for name := range result.Symbols.Enums {
		enums = append(enums, name)
	}

	slices.Sort(enums)

	for _, name := range enums {
		items = append(items, protocol.CompletionItem{
			Label:  name,
			Kind:   protocol.CompletionItemKindEnum,
			Detail: "enum",
		})
	}

	return items
}

func keywordCompletions() []protocol.CompletionItem {
	return []protocol.CompletionItem{
		{
			Label:            "type",
			Kind:             protocol.CompletionItemKindKeyword,
			InsertText:       "type ${1:Name} {\n  id: ID! @id\n  $0\n}",
			InsertTextFormat: protocol.InsertTextFormatSnippet,
		},
		{
			Label:            "enum",
			Kind:             protocol.CompletionItemKindKeyword,
			InsertText:       "enum ${1:Name} {\n  $0\n}",
			InsertTextFormat: protocol.InsertTextFormatSnippet,
		},
	}
}
