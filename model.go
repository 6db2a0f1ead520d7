package dml

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Model is a normalized datamodel: an ordered collection of object and enum
// types. Relation fields refer to their related type by name, and the reverse
// side of a relation is found through the shared relation name, so the model
// holds no pointers between types.
type Model struct {
	Types []*Type
}

// Type is an object type or an enum.
type Type struct {
	Name string
	// DatabaseName is the table (or native enum) name when it differs from Name.
	DatabaseName string
	IsEnum       bool
	IsEmbedded   bool
	Fields       []*Field
	// Values holds the enum values of an enum type.
	Values     []string
	Directives []*Directive
	Comments   []Comment
}

// IDStrategy controls how id values are generated.
type IDStrategy string

// ID strategies.
const (
	IDStrategyAuto     IDStrategy = "AUTO"
	IDStrategyNone     IDStrategy = "NONE"
	IDStrategySequence IDStrategy = "SEQUENCE"
)

// LinkMode marks the side of a relation that stores it.
type LinkMode string

// Link modes.
const (
	LinkNone   LinkMode = ""
	LinkInline LinkMode = "INLINE"
	LinkTable  LinkMode = "TABLE"
)

// Field is a scalar, enum or relation field of a Type.
type Field struct {
	Name string
	// DatabaseName is the column name when it differs from Name. For an inline
	// relation it is the foreign key column.
	DatabaseName string
	// Type is a scalar identifier, an enum name or a related type name. For an
	// unsupported field it is the native column type.
	Type         string
	IsList       bool
	IsRequired   bool
	IsUnique     bool
	IsID         bool
	IsCreatedAt  bool
	IsUpdatedAt  bool
	IDStrategy   IDStrategy
	Sequence     *Sequence
	DefaultValue *string
	RelationName string
	Link         LinkMode
	// LinkTable is the join table name of a TABLE relation, set on the owning side.
	LinkTable string
	// IsUnsupported marks a column whose native type has no scalar. It is
	// rendered commented out.
	IsUnsupported bool
	Directives    []*Directive
	Comments      []Comment
}

// Sequence describes the database sequence backing an id field.
type Sequence struct {
	Name           string
	InitialValue   int
	AllocationSize int
}

// Comment is a comment attached to a type or field.
type Comment struct {
	Text    string
	IsError bool
}

// Directive is a directive the model does not interpret. It is kept so that
// rendering preserves it.
type Directive struct {
	Name string
	Args []Arg
}

// Arg is a directive argument. Value holds the literal as written, with
// strings quoted.
type Arg struct {
	Name  string
	Value string
}

// Relation is a derived view of the one or two fields sharing a relation name.
type Relation struct {
	Name string
	A    Endpoint
	// B is the zero Endpoint for a one-sided relation.
	B Endpoint
}

// Endpoint is one side of a relation.
type Endpoint struct {
	Type  *Type
	Field *Field
}

// IsZero reports whether the endpoint is absent.
func (e Endpoint) IsZero() bool {
	return e.Field == nil
}

// Owner returns the endpoint that stores the relation, or A when neither does.
func (r *Relation) Owner() Endpoint {
	if !r.B.IsZero() && r.B.Field.Link != LinkNone && r.A.Field.Link == LinkNone {
		return r.B
	}

	return r.A
}

// Other returns the endpoint opposite to e.
func (r *Relation) Other(e Endpoint) Endpoint {
	if e.Field == r.A.Field {
		return r.B
	}

	return r.A
}

// IsSelf reports whether both sides are on the same type.
func (r *Relation) IsSelf() bool {
	return r.B.IsZero() && r.A.Field.Type == r.A.Type.Name ||
		!r.B.IsZero() && r.A.Type == r.B.Type
}

// DBName returns the database name of the type.
func (t *Type) DBName() string {
	if t.DatabaseName != "" {
		return t.DatabaseName
	}

	return t.Name
}

// Field returns the field with the given name, or nil.
func (t *Type) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}

	return nil
}

// IDField returns the id field, or nil.
func (t *Type) IDField() *Field {
	for _, f := range t.Fields {
		if f.IsID {
			return f
		}
	}

	return nil
}

// DBName returns the database name of the field.
func (f *Field) DBName() string {
	if f.DatabaseName != "" {
		return f.DatabaseName
	}

	return f.Name
}

// Type returns the type with the given name, or nil.
func (m *Model) Type(name string) *Type {
	for _, t := range m.Types {
		if t.Name == name {
			return t
		}
	}

	return nil
}

// IsRelation reports whether f refers to an object type of the model.
func (m *Model) IsRelation(f *Field) bool {
	if f.IsUnsupported || IsScalar(f.Type) {
		return false
	}

	t := m.Type(f.Type)

	return t != nil && !t.IsEnum
}

// RelatedField returns the field on the other side of the relation of f, or
// nil when the relation is one-sided.
func (m *Model) RelatedField(owner *Type, f *Field) *Field {
	if f.RelationName == "" {
		return nil
	}

	related := m.Type(f.Type)
	if related == nil {
		return nil
	}

	for _, g := range related.Fields {
		if g != f && g.RelationName == f.RelationName && g.Type == owner.Name {
			return g
		}
	}

	return nil
}

// Relations returns all relations of the model in declaration order.
func (m *Model) Relations() []*Relation {
	var relations []*Relation

	byName := make(map[string]*Relation)

	for _, t := range m.Types {
		for _, f := range t.Fields {
			if !m.IsRelation(f) {
				continue
			}

			ep := Endpoint{Type: t, Field: f}

			if r, ok := byName[f.RelationName]; ok && r.B.IsZero() && f.RelationName != "" {
				r.B = ep

				continue
			}

			r := &Relation{Name: f.RelationName, A: ep}
			relations = append(relations, r)

			if f.RelationName != "" {
				byName[f.RelationName] = r
			}
		}
	}

	return relations
}

// RenameTypes renames types and every field referring to them. Renames are
// applied simultaneously, so swapping two names is allowed.
func (m *Model) RenameTypes(names map[string]string) {
	for _, t := range m.Types {
		if n, ok := names[t.Name]; ok {
			t.Name = n
		}

		for _, f := range t.Fields {
			if f.IsUnsupported {
				continue
			}

			if n, ok := names[f.Type]; ok {
				f.Type = n
			}
		}
	}
}

// Validate checks that type names are unique, field names are unique within
// their type, every field type resolves, and every relation has one or two
// endpoints that point at each other.
func (m *Model) Validate() error {
	var errs []error

	types := make(map[string]bool, len(m.Types))

	for _, t := range m.Types {
		if types[t.Name] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateType, t.Name))
		}

		types[t.Name] = true
	}

	endpoints := make(map[string][]Endpoint)

	for _, t := range m.Types {
		fields := make(map[string]bool, len(t.Fields))

		for _, f := range t.Fields {
			if fields[f.Name] {
				errs = append(errs, fmt.Errorf("%w: %s.%s", ErrDuplicateField, t.Name, f.Name))
			}

			fields[f.Name] = true

			if f.IsUnsupported || IsScalar(f.Type) {
				continue
			}

			if !types[f.Type] {
				errs = append(errs, fmt.Errorf("%w: %s.%s: %s", ErrUnknownType, t.Name, f.Name, f.Type))

				continue
			}

			if m.IsRelation(f) {
				endpoints[f.RelationName] = append(endpoints[f.RelationName], Endpoint{Type: t, Field: f})
			}
		}
	}

	for name, eps := range endpoints {
		switch {
		case name == "":
			errs = append(errs, fmt.Errorf("%w: %s.%s has no relation name", ErrRelationArity, eps[0].Type.Name, eps[0].Field.Name))
		case len(eps) > 2:
			errs = append(errs, fmt.Errorf("%w: %s has %d fields", ErrRelationArity, name, len(eps)))
		case len(eps) == 2:
			if eps[0].Field.Type != eps[1].Type.Name || eps[1].Field.Type != eps[0].Type.Name {
				errs = append(errs, fmt.Errorf("%w: %s connects %s.%s and %s.%s", ErrRelationArity, name,
					eps[0].Type.Name, eps[0].Field.Name, eps[1].Type.Name, eps[1].Field.Name))
			}
		}
	}

	return errors.Join(errs...)
}

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	c := &Model{Types: make([]*Type, len(m.Types))}

	for i, t := range m.Types {
		c.Types[i] = t.Clone()
	}

	return c
}

// Clone returns a deep copy of the type.
func (t *Type) Clone() *Type {
	c := *t
	c.Values = append([]string(nil), t.Values...)
	c.Comments = append([]Comment(nil), t.Comments...)
	c.Directives = cloneDirectives(t.Directives)

	c.Fields = make([]*Field, len(t.Fields))
	for i, f := range t.Fields {
		c.Fields[i] = f.Clone()
	}

	if t.Fields == nil {
		c.Fields = nil
	}

	return &c
}

// Clone returns a deep copy of the field.
func (f *Field) Clone() *Field {
	c := *f
	c.Comments = append([]Comment(nil), f.Comments...)
	c.Directives = cloneDirectives(f.Directives)

	if f.Sequence != nil {
		s := *f.Sequence
		c.Sequence = &s
	}

	if f.DefaultValue != nil {
		v := *f.DefaultValue
		c.DefaultValue = &v
	}

	return &c
}

func cloneDirectives(ds []*Directive) []*Directive {
	if ds == nil {
		return nil
	}

	out := make([]*Directive, len(ds))
	for i, d := range ds {
		out[i] = &Directive{Name: d.Name, Args: append([]Arg(nil), d.Args...)}
	}

	return out
}

// DefaultRelationName names a relation after its two types in alphabetical order.
func DefaultRelationName(a, b string) string {
	if strings.ToLower(b) < strings.ToLower(a) || strings.EqualFold(a, b) && b < a {
		a, b = b, a
	}

	return a + b
}

// UniqueName returns base if it is not taken, otherwise base followed by the
// smallest numeric suffix starting at 2 that is free.
func UniqueName(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}

	for i := 2; ; i++ {
		name := base + strconv.Itoa(i)
		if !taken(name) {
			return name
		}
	}
}
