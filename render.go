package dml

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Style selects the directive vocabulary of a rendered datamodel.
type Style int

const (
	// StyleV2 renders explicit directives for ids, relations and embedded types.
	StyleV2 Style = iota
	// StyleV1 is the legacy style: ids and timestamps by field name and
	// Postgres specific mapping directives.
	StyleV1
)

func (s Style) String() string {
	switch s {
	case StyleV1:
		return "v1"
	default:
		return "v2"
	}
}

// StyleFromString parses a style name: "v1" (or "legacy") and "v2".
func StyleFromString(s string) (Style, error) {
	switch strings.ToLower(s) {
	case "v1", "legacy":
		return StyleV1, nil
	case "v2", "":
		return StyleV2, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownStyle, strconv.Quote(s))
	}
}

const indent = "  "

// Render formats a model as datamodel source. The output only depends on the
// model, so rendering the same model twice yields identical bytes.
func Render(m *Model, style Style) string {
	var b strings.Builder

	r := &renderer{b: &b, m: m, style: style, pairs: relationPairs(m)}
	r.renderModel()

	out := strings.TrimSpace(b.String())
	if out == "" {
		return ""
	}

	return out + "\n"
}

type renderer struct {
	b      *strings.Builder
	m      *Model
	style  Style
	indent int
	// pairs counts relations per unordered pair of type names.
	pairs map[string]int
}

func (r *renderer) write(s string) {
	r.b.WriteString(s)
}

func (r *renderer) writeLine(s string) {
	r.writeIndent()
	r.write(s)
	r.write("\n")
}

func (r *renderer) writeIndent() {
	for range r.indent {
		r.write(indent)
	}
}

func (r *renderer) blankLine() {
	r.write("\n")
}

func (r *renderer) writeComments(comments []Comment) {
	for _, c := range comments {
		if c.Text == "" {
			r.writeLine("#")

			continue
		}

		r.writeLine("# " + c.Text)
	}
}

func (r *renderer) renderModel() {
	for i, t := range r.m.Types {
		if i > 0 {
			r.blankLine()
		}

		if t.IsEnum {
			r.renderEnum(t)
		} else {
			r.renderType(t)
		}
	}
}

func (r *renderer) renderEnum(t *Type) {
	r.writeComments(t.Comments)

	// The v1 style has no directive naming an enum.
	var ds []*Directive
	if t.DatabaseName != "" && r.style == StyleV2 {
		ds = append(ds, r.nameDirective(t.DatabaseName, DirectiveDB))
	}

	ds = append(ds, t.Directives...)

	r.writeLine("enum " + t.Name + renderDirectives(ds) + " {")
	r.indent++

	for _, v := range t.Values {
		r.writeLine(v)
	}

	r.indent--
	r.writeLine("}")
}

func (r *renderer) renderType(t *Type) {
	r.writeComments(t.Comments)

	var ds []*Directive

	if t.DatabaseName != "" {
		name := DirectiveDB
		if r.style == StyleV1 {
			name = DirectivePgTable
		}

		ds = append(ds, r.nameDirective(t.DatabaseName, name))
	}

	if t.IsEmbedded && r.style == StyleV2 {
		ds = append(ds, &Directive{Name: DirectiveEmbedded})
	}

	ds = append(ds, t.Directives...)

	r.writeLine("type " + t.Name + renderDirectives(ds) + " {")
	r.indent++

	for _, f := range t.Fields {
		r.renderField(t, f)
	}

	r.indent--
	r.writeLine("}")
}

func (r *renderer) renderField(t *Type, f *Field) {
	r.writeComments(f.Comments)

	line := f.Name + ": " + renderTypeRef(f) + renderDirectives(r.fieldDirectives(t, f))

	if f.IsUnsupported {
		r.writeLine("# " + line)

		return
	}

	r.writeLine(line)
}

func renderTypeRef(f *Field) string {
	if f.IsList {
		return "[" + f.Type + "!]!"
	}

	if f.IsRequired {
		return f.Type + "!"
	}

	return f.Type
}

func (r *renderer) nameDirective(name, directive string) *Directive {
	return &Directive{Name: directive, Args: []Arg{{Name: "name", Value: strconv.Quote(name)}}}
}

func (r *renderer) fieldDirectives(t *Type, f *Field) []*Directive {
	var ds []*Directive

	isRelation := r.m.IsRelation(f)

	if r.style == StyleV1 {
		ds = r.legacyFieldDirectives(t, f, isRelation)
	} else {
		ds = r.fieldDirectivesV2(f, isRelation)
	}

	if f.DefaultValue != nil {
		ds = append(ds, &Directive{
			Name: DirectiveDefault,
			Args: []Arg{{Name: "value", Value: renderDefault(f.Type, *f.DefaultValue)}},
		})
	}

	return append(ds, f.Directives...)
}

func (r *renderer) fieldDirectivesV2(f *Field, isRelation bool) []*Directive {
	var ds []*Directive

	if f.IsID {
		id := &Directive{Name: DirectiveID}

		if f.IDStrategy == IDStrategyNone || f.IDStrategy == IDStrategySequence {
			id.Args = []Arg{{Name: "strategy", Value: string(f.IDStrategy)}}
		}

		ds = append(ds, id)

		if f.Sequence != nil {
			ds = append(ds, &Directive{Name: DirectiveSequence, Args: []Arg{
				{Name: "allocationSize", Value: strconv.Itoa(f.Sequence.AllocationSize)},
				{Name: "initialValue", Value: strconv.Itoa(f.Sequence.InitialValue)},
				{Name: "name", Value: strconv.Quote(f.Sequence.Name)},
			}})
		}
	} else if f.IsUnique {
		ds = append(ds, &Directive{Name: DirectiveUnique})
	}

	if f.IsCreatedAt {
		ds = append(ds, &Directive{Name: DirectiveCreatedAt})
	}

	if f.IsUpdatedAt {
		ds = append(ds, &Directive{Name: DirectiveUpdatedAt})
	}

	if !isRelation {
		if f.DatabaseName != "" {
			ds = append(ds, r.nameDirective(f.DatabaseName, DirectiveDB))
		}

		if f.IsList && !f.IsUnsupported {
			ds = append(ds, &Directive{Name: DirectiveScalarList, Args: []Arg{{Name: "strategy", Value: "RELATION"}}})
		}

		return ds
	}

	rel := &Directive{Name: DirectiveRelation}

	switch f.Link {
	case LinkInline:
		rel.Args = append(rel.Args, Arg{Name: "link", Value: string(LinkInline)})

		if f.DatabaseName != "" {
			ds = append(ds, r.nameDirective(f.DatabaseName, DirectiveDB))
		}
	case LinkTable:
		rel.Args = append(rel.Args, Arg{Name: "link", Value: string(LinkTable)})

		if f.LinkTable != "" {
			ds = append(ds, r.nameDirective(f.LinkTable, DirectiveDB))
		}
	}

	rel.Args = append(rel.Args, Arg{Name: "name", Value: strconv.Quote(f.RelationName)})

	return append(ds, rel)
}

func (r *renderer) legacyFieldDirectives(t *Type, f *Field, isRelation bool) []*Directive {
	var ds []*Directive

	if f.IsID || f.IsUnique {
		ds = append(ds, &Directive{Name: DirectiveUnique})
	}

	if !isRelation {
		if f.DatabaseName != "" {
			ds = append(ds, &Directive{Name: DirectivePgColumn, Args: []Arg{{Name: "name", Value: strconv.Quote(f.DatabaseName)}}})
		}

		return ds
	}

	switch f.Link {
	case LinkInline:
		ds = append(ds, &Directive{Name: DirectivePgRelation, Args: []Arg{{Name: "column", Value: strconv.Quote(f.DBName())}}})
	case LinkTable:
		if f.LinkTable != "" {
			ds = append(ds, &Directive{Name: DirectivePgRelationTable, Args: []Arg{{Name: "table", Value: strconv.Quote(f.LinkTable)}}})
		}
	}

	if r.needsRelationName(t, f) {
		ds = append(ds, r.nameDirective(f.RelationName, DirectiveRelation))
	}

	return ds
}

// needsRelationName reports whether the legacy style must spell out the
// relation name because the parser could not derive it from the types.
func (r *renderer) needsRelationName(t *Type, f *Field) bool {
	if f.Type == t.Name || f.RelationName != DefaultRelationName(t.Name, f.Type) {
		return true
	}

	if r.m.RelatedField(t, f) == nil {
		return true
	}

	return r.pairs[pairKey(t.Name, f.Type)] > 1
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}

	return a + "\x00" + b
}

func relationPairs(m *Model) map[string]int {
	pairs := make(map[string]int)

	for _, rel := range m.Relations() {
		other := rel.A.Field.Type
		pairs[pairKey(rel.A.Type.Name, other)]++
	}

	return pairs
}

// renderDefault renders a default value literal. Values of string-like scalars
// and values that are not a single number or identifier are quoted.
func renderDefault(typ, value string) string {
	if isQuotedScalar(typ) || !isBareLiteral(value) {
		return strconv.Quote(value)
	}

	return value
}

func isBareLiteral(value string) bool {
	l := newLexerState("", value)

	tok, err := l.Next()
	if err != nil || tok.Type != tNumber && tok.Type != tIdent {
		return false
	}

	next, err := l.Next()

	return err == nil && next.EOF()
}

func renderDirectives(ds []*Directive) string {
	if len(ds) == 0 {
		return ""
	}

	sorted := slices.Clone(ds)
	slices.SortStableFunc(sorted, func(a, b *Directive) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	var b strings.Builder

	for _, d := range sorted {
		b.WriteString(" @")
		b.WriteString(d.Name)

		if len(d.Args) == 0 {
			continue
		}

		b.WriteString("(")

		for i, a := range d.Args {
			if i > 0 {
				b.WriteString(", ")
			}

			b.WriteString(a.Name)
			b.WriteString(": ")
			b.WriteString(a.Value)
		}

		b.WriteString(")")
	}

	return b.String()
}
