package dml

import "github.com/alecthomas/participle/v2"

// dmlLexer is the custom lexer for the datamodel language.
var dmlLexer = newDMLLexer()

var parser = participle.MustBuild[Document](
	participle.Lexer(dmlLexer),
	participle.Unquote("String"),
	participle.Elide("Whitespace", "Comment"),
)

var fieldParser = participle.MustBuild[FieldDef](
	participle.Lexer(dmlLexer),
	participle.Unquote("String"),
	participle.Elide("Whitespace", "Comment"),
)

// ParseDocument parses datamodel source into its AST with comments attached.
func ParseDocument(data []byte) (*Document, error) {
	doc, err := parser.ParseBytes("", data)
	if err != nil {
		return nil, err
	}

	trivia, err := collectTrivia("", data)
	if err != nil {
		return nil, err
	}

	attachComments(doc, trivia)

	return doc, nil
}

// Parse parses a datamodel written in the v2 style.
func Parse(data []byte) (*Model, error) {
	return ParseWithStyle(data, StyleV2)
}

// ParseWithStyle parses a datamodel and resolves its relations. Directives of
// both styles are understood; the legacy style additionally derives id,
// createdAt and updatedAt fields from their reserved names.
func ParseWithStyle(data []byte, style Style) (*Model, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}

	m := Lower(doc, style)

	err = m.Validate()
	if err != nil {
		return nil, err
	}

	return m, nil
}

// ParseReference parses a previously rendered datamodel used to reconcile a
// new introspection. Any failure is an *InvalidReferenceModelError.
func ParseReference(data []byte, style Style) (*Model, error) {
	m, err := ParseWithStyle(data, style)
	if err != nil {
		return nil, &InvalidReferenceModelError{Pos: errorPosition(err), Err: err}
	}

	return m, nil
}

func parseCommentedField(text string) *FieldDef {
	fd, err := fieldParser.ParseString("", text)
	if err != nil {
		return nil
	}

	return fd
}

// Lower converts a parsed document into a model and resolves its relations.
// The model is not validated.
func Lower(doc *Document, style Style) *Model {
	m := lowerDocument(doc, style)
	resolveRelations(m)

	return m
}

func lowerDocument(doc *Document, style Style) *Model {
	m := &Model{}

	for _, def := range doc.Definitions {
		switch {
		case def.Type != nil:
			m.Types = append(m.Types, lowerType(def.Type, style))
		case def.Enum != nil:
			m.Types = append(m.Types, lowerEnum(def.Enum))
		}
	}

	return m
}

func lowerComments(texts []string, isError bool) []Comment {
	if len(texts) == 0 {
		return nil
	}

	out := make([]Comment, len(texts))
	for i, text := range texts {
		out[i] = Comment{Text: text, IsError: isError}
	}

	return out
}

func lowerType(td *TypeDef, style Style) *Type {
	t := &Type{
		Name:     td.Name,
		Comments: lowerComments(td.LeadingComments, false),
	}

	for _, d := range td.Directives {
		switch d.Name {
		case DirectiveDB, DirectivePgTable:
			t.DatabaseName = d.Arg("name").Text()
		case DirectiveEmbedded:
			t.IsEmbedded = true
		default:
			t.Directives = append(t.Directives, lowerDirective(d))
		}
	}

	if t.DatabaseName == t.Name {
		t.DatabaseName = ""
	}

	unsupported := td.Unsupported

	for i, fd := range td.Fields {
		for len(unsupported) > 0 && unsupported[0].Index <= i {
			t.Fields = append(t.Fields, lowerCommentedField(unsupported[0], style))
			unsupported = unsupported[1:]
		}

		t.Fields = append(t.Fields, lowerField(fd, style))
	}

	for _, cf := range unsupported {
		t.Fields = append(t.Fields, lowerCommentedField(cf, style))
	}

	return t
}

func lowerCommentedField(cf *CommentedField, style Style) *Field {
	f := lowerField(cf.Field, style)
	f.IsUnsupported = true
	f.Comments = lowerComments(cf.Comments, true)

	return f
}

func lowerField(fd *FieldDef, style Style) *Field {
	f := &Field{
		Name:       fd.Name,
		Type:       fd.Type.Base(),
		IsList:     fd.Type.List != nil,
		IsRequired: fd.Type.Required || fd.Type.List != nil,
		Comments:   lowerComments(fd.LeadingComments, false),
	}

	if fd.TrailingComment != "" {
		f.Comments = append(f.Comments, Comment{Text: fd.TrailingComment})
	}

	for _, d := range fd.Directives {
		switch d.Name {
		case DirectiveID:
			f.IsID = true
			f.IDStrategy = IDStrategyAuto

			if s := d.Arg("strategy"); s != nil {
				f.IDStrategy = IDStrategy(s.Text())
			}
		case DirectiveUnique:
			f.IsUnique = true
		case DirectiveDefault:
			if v := d.Arg("value"); v != nil {
				text := v.Text()
				f.DefaultValue = &text
			}
		case DirectiveRelation:
			f.RelationName = d.Arg("name").Text()

			switch LinkMode(d.Arg("link").Text()) {
			case LinkInline:
				f.Link = LinkInline
			case LinkTable:
				f.Link = LinkTable
			}
		case DirectiveDB, DirectivePgColumn:
			f.DatabaseName = d.Arg("name").Text()
		case DirectivePgRelation:
			f.Link = LinkInline
			f.DatabaseName = d.Arg("column").Text()
		case DirectivePgRelationTable:
			f.Link = LinkTable
			f.LinkTable = d.Arg("table").Text()
		case DirectiveSequence:
			f.Sequence = &Sequence{
				Name:           d.Arg("name").Text(),
				InitialValue:   d.Arg("initialValue").Int(1),
				AllocationSize: d.Arg("allocationSize").Int(1),
			}
		case DirectiveCreatedAt:
			f.IsCreatedAt = true
		case DirectiveUpdatedAt:
			f.IsUpdatedAt = true
		case DirectiveScalarList:
			// Implied by the list type.
		default:
			f.Directives = append(f.Directives, lowerDirective(d))
		}
	}

	if style == StyleV1 {
		applyLegacyConventions(f)
	}

	if f.Link == LinkTable && f.LinkTable == "" {
		f.LinkTable, f.DatabaseName = f.DatabaseName, ""
	}

	if f.IsID {
		f.IsUnique = false
	}

	if f.DatabaseName == f.Name {
		f.DatabaseName = ""
	}

	return f
}

// applyLegacyConventions derives the flags the legacy style expresses through
// reserved field names.
func applyLegacyConventions(f *Field) {
	switch f.Name {
	case FieldID:
		f.IsID = true
		f.IDStrategy = IDStrategyAuto
	case FieldCreatedAt:
		f.IsCreatedAt = f.Type == TypeDateTime
	case FieldUpdatedAt:
		f.IsUpdatedAt = f.Type == TypeDateTime
	}
}

func lowerEnum(ed *EnumDef) *Type {
	t := &Type{
		Name:     ed.Name,
		IsEnum:   true,
		Comments: lowerComments(ed.LeadingComments, false),
	}

	for _, d := range ed.Directives {
		if d.Name == DirectiveDB {
			t.DatabaseName = d.Arg("name").Text()

			continue
		}

		t.Directives = append(t.Directives, lowerDirective(d))
	}

	if t.DatabaseName == t.Name {
		t.DatabaseName = ""
	}

	for _, v := range ed.Values {
		t.Values = append(t.Values, v.Name)
	}

	return t
}

func lowerDirective(d *DirectiveNode) *Directive {
	out := &Directive{Name: d.Name}

	for _, a := range d.Args {
		out.Args = append(out.Args, Arg{Name: a.Name, Value: a.Value.Source()})
	}

	return out
}

// resolveRelations names and pairs relation fields. Fields sharing a relation
// name are paired through it. Unnamed fields are paired when each of the two
// types has exactly one unnamed field pointing at the other (or, for a self
// relation, when the type has exactly two); everything else becomes a
// one-sided relation. Generated names follow DefaultRelationName.
func resolveRelations(m *Model) {
	taken := make(map[string]bool)
	unnamed := make(map[[2]string][]*Field)

	for _, t := range m.Types {
		for _, f := range t.Fields {
			if !m.IsRelation(f) {
				continue
			}

			if f.RelationName != "" {
				taken[f.RelationName] = true

				continue
			}

			key := [2]string{t.Name, f.Type}
			unnamed[key] = append(unnamed[key], f)
		}
	}

	name := func(a, b string) string {
		n := UniqueName(DefaultRelationName(a, b), func(s string) bool { return taken[s] })
		taken[n] = true

		return n
	}

	for _, t := range m.Types {
		for _, f := range t.Fields {
			if f.RelationName != "" || !m.IsRelation(f) {
				continue
			}

			forward := unnamed[[2]string{t.Name, f.Type}]
			n := name(t.Name, f.Type)
			f.RelationName = n

			if f.Type == t.Name {
				if len(forward) == 2 {
					forward[0].RelationName, forward[1].RelationName = n, n
				}

				continue
			}

			backward := unnamed[[2]string{f.Type, t.Name}]
			if len(forward) == 1 && len(backward) == 1 {
				backward[0].RelationName = n
			}
		}
	}
}
