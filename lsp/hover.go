package lsp

import (
	"context"
	"fmt"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/prisma/dml"
	"github.com/prisma/dml/analysis"
)

// directiveInfo documents a directive for hover and completion.
type directiveInfo struct {
	name    string
	doc     string
	snippet string
	onType  bool
	onField bool
	onEnum  bool
}

var directives = []directiveInfo{
	{name: dml.DirectiveID, doc: "Marks the id field. `strategy` is one of AUTO, NONE or SEQUENCE.", onField: true},
	{name: dml.DirectiveUnique, doc: "Values of the field are unique.", onField: true},
	{name: dml.DirectiveDefault, doc: "Default value of the field.", snippet: "default(value: $1)", onField: true},
	{name: dml.DirectiveRelation, doc: "Names a relation. `link` is INLINE or TABLE on the side that stores it.", snippet: "relation(name: \"$1\")", onField: true},
	{name: dml.DirectiveDB, doc: "Database name of the table, column or enum.", snippet: "db(name: \"$1\")", onType: true, onField: true, onEnum: true},
	{name: dml.DirectiveEmbedded, doc: "The type is stored inside its parent document.", onType: true},
	{name: dml.DirectiveSequence, doc: "Sequence backing an id field.", snippet: "sequence(name: \"$1\", initialValue: ${2:1}, allocationSize: ${3:1})", onField: true},
	{name: dml.DirectiveCreatedAt, doc: "Set to the creation time of the row.", onField: true},
	{name: dml.DirectiveUpdatedAt, doc: "Set to the time of the last update of the row.", onField: true},
	{name: dml.DirectiveScalarList, doc: "Storage strategy of a scalar list.", snippet: "scalarList(strategy: ${1:RELATION})", onField: true},
	{name: dml.DirectivePgTable, doc: "Table name in the legacy style.", snippet: "pgTable(name: \"$1\")", onType: true},
	{name: dml.DirectivePgColumn, doc: "Column name in the legacy style.", snippet: "pgColumn(name: \"$1\")", onField: true},
	{name: dml.DirectivePgRelation, doc: "Foreign key column in the legacy style.", snippet: "pgRelation(column: \"$1\")", onField: true},
	{name: dml.DirectivePgRelationTable, doc: "Join table in the legacy style.", snippet: "pgRelationTable(table: \"$1\")", onField: true},
}

func lookupDirective(name string) (directiveInfo, bool) {
	for _, d := range directives {
		if d.name == name {
			return d, true
		}
	}

	return directiveInfo{}, false
}

var scalarDocs = map[string]string{
	dml.TypeString:   "A UTF-8 string.",
	dml.TypeInt:      "A signed integer.",
	dml.TypeFloat:    "A floating point number.",
	dml.TypeBoolean:  "true or false.",
	dml.TypeDateTime: "A timestamp, written as an ISO 8601 string.",
	dml.TypeJSON:     "A JSON value.",
	dml.TypeID:       "A unique identifier, stored as a string.",
	dml.TypeUUID:     "A UUID.",
}

// Hover handles textDocument/hover requests.
func (s *Server) Hover(_ context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	s.logger.Debug("Hover",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok || doc.Analysis == nil {
		return nil, nil
	}

	target := doc.Analysis.TargetAt(int(params.Position.Line)+1, int(params.Position.Character)+1)

	content := s.hoverContent(doc.Analysis, target)
	if content == "" {
		return nil, nil
	}

	rng := spanToRange(target.Span)

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: content,
		},
		Range: &rng,
	}, nil
}

func (s *Server) hoverContent(f *analysis.AnalyzedFile, target analysis.Target) string {
	switch target.Kind {
	case analysis.TargetDirective:
		d, ok := lookupDirective(target.Name)
		if !ok {
			return fmt.Sprintf("**@%s**\n\nUnknown directive.", target.Name)
		}

		return fmt.Sprintf("**@%s**\n\n%s", d.name, d.doc)
	case analysis.TargetFieldType:
		if doc, ok := scalarDocs[target.Name]; ok {
			return fmt.Sprintf("**%s**\n\n%s", target.Name, doc)
		}

		return s.declaration(f, target.Name)
	case analysis.TargetType, analysis.TargetEnum:
		return s.declaration(f, target.Name)
	case analysis.TargetField:
		return fieldHover(f, target)
	case analysis.TargetEnumValue:
		return fmt.Sprintf("**%s**\n\nValue of enum `%s`.", target.Name, target.Owner)
	default:
		return ""
	}
}

// declaration renders the declaration of a type or enum.
func (s *Server) declaration(f *analysis.AnalyzedFile, name string) string {
	if f.Model == nil {
		return ""
	}

	t := f.Model.Type(name)
	if t == nil {
		return ""
	}

	rendered := dml.Render(&dml.Model{Types: []*dml.Type{t}}, s.currentStyle())

	return "```graphql\n" + strings.TrimRight(rendered, "\n") + "\n```"
}

func fieldHover(f *analysis.AnalyzedFile, target analysis.Target) string {
	if f.Model == nil {
		return ""
	}

	owner := f.Model.Type(target.Owner)
	if owner == nil {
		return ""
	}

	field := owner.Field(target.Name)
	if field == nil {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(&b, "```graphql\n%s.%s: %s\n```", owner.Name, field.Name, typeRef(field))

	if field.DatabaseName != "" {
		fmt.Fprintf(&b, "\n\nColumn `%s`.", field.DBName())
	}

	if f.Model.IsRelation(field) {
		fmt.Fprintf(&b, "\n\nRelation `%s`", field.RelationName)

		if related := f.Model.RelatedField(owner, field); related != nil {
			fmt.Fprintf(&b, " with `%s.%s`", field.Type, related.Name)
		}

		if field.Link != dml.LinkNone {
			fmt.Fprintf(&b, ", link %s", field.Link)
		}

		b.WriteString(".")
	}

	return b.String()
}

func typeRef(f *dml.Field) string {
	ref := f.Type
	if f.IsList {
		ref = "[" + ref + "!]!"
	} else if f.IsRequired {
		ref += "!"
	}

	return ref
}
