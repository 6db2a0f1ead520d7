package introspection

import (
	"slices"

	"github.com/prisma/dml"
)

// reconciliation pairs elements of an unnormalized model with the elements of
// a reference model they correspond to. Types pair by table, fields by column
// and relation fields by the foreign key or link table they stand for. Every
// reference element is used at most once.
type reconciliation struct {
	ref    *dml.Model
	types  map[*dml.Type]*dml.Type
	fields map[*dml.Field]*dml.Field
	// relations maps structural relation keys to reference relation names.
	relations map[string]string

	usedTypes  map[*dml.Type]bool
	usedFields map[*dml.Field]bool
}

func newReconciliation(ref *dml.Model) *reconciliation {
	return &reconciliation{
		ref:        ref,
		types:      make(map[*dml.Type]*dml.Type),
		fields:     make(map[*dml.Field]*dml.Field),
		relations:  make(map[string]string),
		usedTypes:  make(map[*dml.Type]bool),
		usedFields: make(map[*dml.Field]bool),
	}
}

// reconcile matches m against the reference model. A nil reference matches
// nothing.
func reconcile(m, ref *dml.Model) *reconciliation {
	r := newReconciliation(ref)
	if ref == nil {
		return r
	}

	r.matchTypes(m)

	for _, t := range m.Types {
		if rt := r.types[t]; rt != nil && !t.IsEnum {
			r.matchColumnFields(m, t, rt)
		}
	}

	for _, t := range m.Types {
		if rt := r.types[t]; rt != nil && !t.IsEnum {
			r.matchLinkFields(m, t, rt)
		}
	}

	for _, t := range m.Types {
		if rt := r.types[t]; rt != nil && !t.IsEnum {
			r.matchBackFields(m, t, rt)
		}
	}

	return r
}

func (r *reconciliation) matchTypes(m *dml.Model) {
	for _, t := range m.Types {
		if t.IsEnum {
			continue
		}

		for _, rt := range r.ref.Types {
			if !rt.IsEnum && !r.usedTypes[rt] && rt.DBName() == t.DBName() {
				r.pairType(t, rt)

				break
			}
		}
	}

	// Enums pair by native name first, then by identical values.
	for _, t := range m.Types {
		if !t.IsEnum {
			continue
		}

		for _, rt := range r.ref.Types {
			if rt.IsEnum && !r.usedTypes[rt] && rt.DBName() == t.DBName() {
				r.pairType(t, rt)

				break
			}
		}
	}

	for _, t := range m.Types {
		if !t.IsEnum || r.types[t] != nil {
			continue
		}

		for _, rt := range r.ref.Types {
			if rt.IsEnum && !r.usedTypes[rt] && slices.Equal(rt.Values, t.Values) {
				r.pairType(t, rt)

				break
			}
		}
	}
}

func (r *reconciliation) pairType(t, rt *dml.Type) {
	r.types[t] = rt
	r.usedTypes[rt] = true
}

func (r *reconciliation) pairField(f, rf *dml.Field) {
	r.fields[f] = rf
	r.usedFields[rf] = true
}

// refTypeFor returns the reference type paired with the type named name.
func (r *reconciliation) refTypeFor(m *dml.Model, name string) *dml.Type {
	t := m.Type(name)
	if t == nil {
		return nil
	}

	return r.types[t]
}

// matchColumnFields pairs scalar and inline relation fields by column. The id
// field falls back to the reference id field.
func (r *reconciliation) matchColumnFields(m *dml.Model, t, rt *dml.Type) {
	for _, f := range t.Fields {
		if isBackField(f) {
			continue
		}

		relation := m.IsRelation(f)

		var wantType *dml.Type
		if relation {
			wantType = r.refTypeFor(m, f.Type)
			if wantType == nil {
				continue
			}
		}

		compatible := func(rf *dml.Field) bool {
			if r.usedFields[rf] || r.ref.IsRelation(rf) != relation {
				return false
			}

			return !relation || rf.Type == wantType.Name && rf.Link != dml.LinkTable
		}

		var match *dml.Field

		for _, rf := range rt.Fields {
			if compatible(rf) && rf.DBName() == f.DBName() {
				match = rf

				break
			}
		}

		if match == nil && f.IsID {
			if rf := rt.IDField(); rf != nil && compatible(rf) {
				match = rf
			}
		}

		if match == nil {
			continue
		}

		r.pairField(f, match)

		if relation && match.RelationName != "" {
			r.relations[f.RelationName] = match.RelationName
		}
	}
}

// matchLinkFields pairs the owning fields of link-table relations through the
// link table named on either side of the reference relation.
func (r *reconciliation) matchLinkFields(m *dml.Model, t, rt *dml.Type) {
	for _, f := range t.Fields {
		if f.Link != dml.LinkTable {
			continue
		}

		want := r.refTypeFor(m, f.Type)
		if want == nil {
			continue
		}

		for _, rf := range rt.Fields {
			if r.usedFields[rf] || rf.Type != want.Name || !rf.IsList || !r.ref.IsRelation(rf) {
				continue
			}

			table := rf.LinkTable
			if partner := r.ref.RelatedField(rt, rf); table == "" && partner != nil {
				table = partner.LinkTable
			}

			if table != f.LinkTable {
				continue
			}

			r.pairField(f, rf)

			if rf.RelationName != "" {
				r.relations[f.RelationName] = rf.RelationName
			}

			break
		}
	}
}

// matchBackFields pairs the fields that have no column: inverse fields of
// foreign keys and the non-owning side of link tables. A pinned relation name
// decides first; otherwise the only unused reference field to the same type
// is taken.
func (r *reconciliation) matchBackFields(m *dml.Model, t, rt *dml.Type) {
	for _, f := range t.Fields {
		if !isBackField(f) || f.Link != dml.LinkNone {
			continue
		}

		want := r.refTypeFor(m, f.Type)
		if want == nil {
			continue
		}

		var candidates []*dml.Field

		for _, rf := range rt.Fields {
			if !r.usedFields[rf] && rf.Type == want.Name && r.ref.IsRelation(rf) {
				candidates = append(candidates, rf)
			}
		}

		if match := r.pickBackField(f, candidates); match != nil {
			r.pairField(f, match)
		}
	}
}

func (r *reconciliation) pickBackField(f *dml.Field, candidates []*dml.Field) *dml.Field {
	if name, ok := r.relations[f.RelationName]; ok {
		var named []*dml.Field

		for _, rf := range candidates {
			if rf.RelationName == name {
				named = append(named, rf)
			}
		}

		// A self relation has both sides on one type; prefer the side that
		// does not store the relation.
		for _, rf := range named {
			if rf.Link == dml.LinkNone {
				return rf
			}
		}

		if len(named) > 0 {
			return named[0]
		}

		return nil
	}

	var free []*dml.Field

	for _, rf := range candidates {
		if rf.Link == dml.LinkNone && !r.isPinned(rf.RelationName) {
			free = append(free, rf)
		}
	}

	if len(free) == 1 {
		return free[0]
	}

	return nil
}

func (r *reconciliation) isPinned(name string) bool {
	for _, pinned := range r.relations {
		if pinned == name {
			return true
		}
	}

	return false
}

// copyType carries reference attributes over to a matched type.
func copyType(t, rt *dml.Type, style dml.Style) {
	if len(t.Comments) == 0 {
		t.Comments = slices.Clone(rt.Comments)
	}

	if len(rt.Directives) > 0 {
		t.Directives = cloneDirectives(rt.Directives)
	}

	t.IsEmbedded = rt.IsEmbedded && style == dml.StyleV2
}

// copyField carries reference attributes over to a matched field. Facts the
// database states (nullability, uniqueness, defaults it has) win over the
// reference.
func copyField(f, rf *dml.Field) {
	if f.DefaultValue == nil && rf.DefaultValue != nil {
		v := *rf.DefaultValue
		f.DefaultValue = &v
	}

	if f.IsID && rf.IsID && rf.IDStrategy != "" {
		f.IDStrategy = rf.IDStrategy

		switch {
		case f.IDStrategy != dml.IDStrategySequence:
			f.Sequence = nil
		case f.Sequence == nil && rf.Sequence != nil:
			s := *rf.Sequence
			f.Sequence = &s
		}
	}

	if f.Type == dml.TypeDateTime {
		f.IsCreatedAt = f.IsCreatedAt || rf.IsCreatedAt
		f.IsUpdatedAt = f.IsUpdatedAt || rf.IsUpdatedAt
	}

	if f.Type == dml.TypeJSON && rf.Type == dml.TypeString {
		f.Type = dml.TypeString
	}

	if len(f.Comments) == 0 {
		for _, c := range rf.Comments {
			if !c.IsError {
				f.Comments = append(f.Comments, c)
			}
		}
	}

	if len(rf.Directives) > 0 {
		f.Directives = cloneDirectives(rf.Directives)
	}
}

func cloneDirectives(ds []*dml.Directive) []*dml.Directive {
	out := make([]*dml.Directive, len(ds))
	for i, d := range ds {
		out[i] = &dml.Directive{Name: d.Name, Args: slices.Clone(d.Args)}
	}

	return out
}
