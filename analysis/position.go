package analysis

import (
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/prisma/dml"
)

// TargetKind classifies what a source position points at.
type TargetKind int

// Target kinds.
const (
	TargetNone TargetKind = iota
	TargetType
	TargetEnum
	TargetField
	TargetFieldType
	TargetEnumValue
	TargetDirective
)

// Target is the declaration or reference found at a source position.
type Target struct {
	Kind TargetKind
	// Name is the name of the target: a type, field, enum value, directive or
	// referenced type.
	Name string
	// Owner is the enclosing type or enum.
	Owner string
	Span  Span

	Field     *dml.FieldDef
	Directive *dml.DirectiveNode
}

// TargetAt returns what the 1-based line and column point at.
func (f *AnalyzedFile) TargetAt(line, col int) Target {
	if f.Document == nil {
		return Target{}
	}

	for _, def := range f.Document.Definitions {
		switch {
		case def.Type != nil:
			if t := typeTarget(def.Type, line, col); t.Kind != TargetNone {
				return t
			}
		case def.Enum != nil:
			if t := enumTarget(def.Enum, line, col); t.Kind != TargetNone {
				return t
			}
		}
	}

	return Target{}
}

func typeTarget(td *dml.TypeDef, line, col int) Target {
	span := nodeSpan(td.NodeMeta)
	if !span.Contains(line, col) {
		return Target{}
	}

	if d := directiveAt(td.Directives, line, col); d != nil {
		return Target{Kind: TargetDirective, Name: d.Name, Owner: td.Name, Span: nodeSpan(d.NodeMeta), Directive: d}
	}

	for _, fd := range td.Fields {
		fspan := nodeSpan(fd.NodeMeta)
		if !fspan.Contains(line, col) {
			continue
		}

		if d := directiveAt(fd.Directives, line, col); d != nil {
			return Target{Kind: TargetDirective, Name: d.Name, Owner: td.Name, Span: nodeSpan(d.NodeMeta), Field: fd, Directive: d}
		}

		if nameSpan(fd.Pos, fd.Name).Contains(line, col) {
			return Target{Kind: TargetField, Name: fd.Name, Owner: td.Name, Span: fspan, Field: fd}
		}

		return Target{Kind: TargetFieldType, Name: fd.Type.Base(), Owner: td.Name, Span: fspan, Field: fd}
	}

	if line == td.Pos.Line {
		return Target{Kind: TargetType, Name: td.Name, Owner: td.Name, Span: span}
	}

	return Target{}
}

func enumTarget(ed *dml.EnumDef, line, col int) Target {
	span := nodeSpan(ed.NodeMeta)
	if !span.Contains(line, col) {
		return Target{}
	}

	if d := directiveAt(ed.Directives, line, col); d != nil {
		return Target{Kind: TargetDirective, Name: d.Name, Owner: ed.Name, Span: nodeSpan(d.NodeMeta), Directive: d}
	}

	for _, v := range ed.Values {
		if vspan := nodeSpan(v.NodeMeta); vspan.Contains(line, col) {
			return Target{Kind: TargetEnumValue, Name: v.Name, Owner: ed.Name, Span: vspan}
		}
	}

	if line == ed.Pos.Line {
		return Target{Kind: TargetEnum, Name: ed.Name, Owner: ed.Name, Span: span}
	}

	return Target{}
}

func directiveAt(ds []*dml.DirectiveNode, line, col int) *dml.DirectiveNode {
	for _, d := range ds {
		if nodeSpan(d.NodeMeta).Contains(line, col) {
			return d
		}
	}

	return nil
}

// nameSpan is the span of a name written at pos on a single line.
func nameSpan(pos lexer.Position, name string) Span {
	end := pos
	end.Column += len(name)
	end.Offset += len(name)

	return Span{Start: pos, End: end}
}
