package dml

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// NodeMeta contains metadata for AST nodes, populated by participle.
type NodeMeta struct {
	Pos    lexer.Position `parser:""`
	EndPos lexer.Position `parser:""`
}

// CommentMeta holds comments attached to a node (populated after parsing).
type CommentMeta struct {
	LeadingComments []string `parser:""`
	TrailingComment string   `parser:""`
}

// Document is the root of a parsed datamodel file.
type Document struct {
	NodeMeta

	Definitions []*Definition `parser:"@@*"`
}

// Definition is a top-level type or enum.
type Definition struct {
	NodeMeta

	Type *TypeDef `parser:"  @@"`
	Enum *EnumDef `parser:"| @@"`
}

// TypeDef is an object type declaration.
type TypeDef struct {
	NodeMeta
	CommentMeta

	Name       string           `parser:"'type' @Ident"`
	Directives []*DirectiveNode `parser:"@@*"`
	Fields     []*FieldDef      `parser:"'{' @@*"`
	Close      *BodyEnd         `parser:"@@"`

	// Unsupported holds commented-out fields recovered from comments, each
	// placed before the field at the same index in Fields (or after the last
	// field when the index equals len(Fields)).
	Unsupported []*CommentedField `parser:""`
}

// BodyEnd is the closing brace of a type or enum body. Its position bounds the
// comments that belong to the body.
type BodyEnd struct {
	Pos lexer.Position `parser:""`

	Brace string `parser:"@'}'"`
}

// FieldDef is a field declaration.
type FieldDef struct {
	NodeMeta
	CommentMeta

	Name       string           `parser:"@Ident ':'"`
	Type       *TypeRef         `parser:"@@"`
	Directives []*DirectiveNode `parser:"@@*"`
}

// CommentedField is a field found in a comment, preceded by the comments that
// explain why it is disabled.
type CommentedField struct {
	Index    int
	Field    *FieldDef
	Comments []string
}

// TypeRef is a possibly list-wrapped, possibly required type reference.
type TypeRef struct {
	List     *TypeRef `parser:"( '[' @@ ']'"`
	Named    string   `parser:"| @Ident )"`
	Required bool     `parser:"@'!'?"`
}

// Base returns the innermost named type.
func (t *TypeRef) Base() string {
	for t.List != nil {
		t = t.List
	}

	return t.Named
}

// EnumDef is an enum declaration.
type EnumDef struct {
	NodeMeta
	CommentMeta

	Name       string           `parser:"'enum' @Ident"`
	Directives []*DirectiveNode `parser:"@@*"`
	Values     []*EnumValueDef  `parser:"'{' @@*"`
	Close      *BodyEnd         `parser:"@@"`
}

// EnumValueDef is a single enum value.
type EnumValueDef struct {
	NodeMeta

	Name string `parser:"@Ident"`
}

// DirectiveNode is a directive application such as @relation(name: "X").
type DirectiveNode struct {
	NodeMeta

	Name string          `parser:"'@' @Ident"`
	Args []*ArgumentNode `parser:"( '(' ( @@ ( ','? @@ )* )? ')' )?"`
}

// Arg returns the named argument, or nil.
func (d *DirectiveNode) Arg(name string) *ValueNode {
	for _, a := range d.Args {
		if a.Name == name {
			return a.Value
		}
	}

	return nil
}

// ArgumentNode is a named directive argument.
type ArgumentNode struct {
	NodeMeta

	Name  string     `parser:"@Ident ':'"`
	Value *ValueNode `parser:"@@"`
}

// ValueNode is a literal argument value.
type ValueNode struct {
	NodeMeta

	String *string    `parser:"  @String"`
	Number *string    `parser:"| @Number"`
	List   *ListValue `parser:"| @@"`
	Ident  *string    `parser:"| @Ident"`
}

// ListValue is a bracketed list of values.
type ListValue struct {
	Items []*ValueNode `parser:"'[' ( @@ ( ','? @@ )* )? ']'"`
}

// Text returns the value without quotes: strings unquoted, numbers and
// identifiers as written, lists in source form.
func (v *ValueNode) Text() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return *v.String
	case v.Number != nil:
		return *v.Number
	case v.Ident != nil:
		return *v.Ident
	default:
		return v.Source()
	}
}

// Source returns the value as it would be written in a datamodel.
func (v *ValueNode) Source() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return strconv.Quote(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Ident != nil:
		return *v.Ident
	case v.List != nil:
		items := make([]string, len(v.List.Items))
		for i, item := range v.List.Items {
			items[i] = item.Source()
		}

		return "[" + strings.Join(items, ", ") + "]"
	default:
		return ""
	}
}

// Int returns the value as an integer, or def when it is not one.
func (v *ValueNode) Int(def int) int {
	if v == nil || v.Number == nil {
		return def
	}

	n, err := strconv.Atoi(*v.Number)
	if err != nil {
		return def
	}

	return n
}
