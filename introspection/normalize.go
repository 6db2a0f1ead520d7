package introspection

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/prisma/dml"
)

// NormalizeOptions configure Normalize.
type NormalizeOptions struct {
	// Style is the rendering style the model is normalized for.
	Style dml.Style
	// InferEmbedded marks EmbedCandidates as embedded types. Only the v2
	// style can express embedding.
	InferEmbedded bool
}

// Normalize names the types, fields and relations of a model produced by
// Build and orders them. When ref is not nil, elements matching reference
// elements by table, column, foreign key or link table keep the reference
// names and order; everything else is named fresh. Reference elements with
// no counterpart are dropped.
//
// The input model is not modified.
func Normalize(m, ref *dml.Model, opts NormalizeOptions) (*dml.Model, []dml.Diagnostic, error) {
	out := m.Clone()

	n := &normalizer{
		model: out,
		ref:   ref,
		opts:  opts,
		back:  make(map[*dml.Field]bool),
		pos:   make(map[*dml.Field]int),
	}

	for _, t := range out.Types {
		for i, f := range t.Fields {
			n.back[f] = isBackField(f)
			n.pos[f] = i
		}
	}

	n.rec = reconcile(out, ref)

	n.applyReference()
	n.nameTypes()
	n.nameColumnFields()
	n.nameBackFields()
	n.nameRelations()

	if opts.Style == dml.StyleV1 {
		n.applyLegacyStyle()
	}

	n.order()

	if opts.Style == dml.StyleV2 && opts.InferEmbedded {
		for _, name := range EmbedCandidates(out) {
			out.Type(name).IsEmbedded = true
		}
	}

	for _, t := range out.Types {
		if t.DatabaseName == t.Name {
			t.DatabaseName = ""
		}

		for _, f := range t.Fields {
			if f.DatabaseName == f.Name {
				f.DatabaseName = ""
			}
		}
	}

	if err := out.Validate(); err != nil {
		return nil, n.diags, fmt.Errorf("normalize: %w", err)
	}

	return out, n.diags, nil
}

type normalizer struct {
	model *dml.Model
	ref   *dml.Model
	opts  NormalizeOptions
	rec   *reconciliation
	// back marks fields without a column; pos holds the builder order.
	back  map[*dml.Field]bool
	pos   map[*dml.Field]int
	diags []dml.Diagnostic
}

func (n *normalizer) conflict(table, column, base, name string) {
	n.diags = append(n.diags, dml.Diagnostic{
		Severity: dml.SeverityInfo,
		Code:     dml.CodeNameConflict,
		Table:    table,
		Column:   column,
		Message:  fmt.Sprintf("name %s is taken, using %s", base, name),
	})
}

func (n *normalizer) objects() []*dml.Type {
	var out []*dml.Type

	for _, t := range n.model.Types {
		if !t.IsEnum {
			out = append(out, t)
		}
	}

	return out
}

func (n *normalizer) applyReference() {
	for _, t := range n.model.Types {
		rt := n.rec.types[t]
		if rt == nil {
			continue
		}

		copyType(t, rt, n.opts.Style)

		for _, f := range t.Fields {
			if rf := n.rec.fields[f]; rf != nil {
				copyField(f, rf)
				n.shadowEnum(f, rf)
			}
		}
	}
}

// shadowEnum gives a String column the enum type the reference declared for
// it. The enum is carried over from the reference when the database has no
// matching enum.
func (n *normalizer) shadowEnum(f, rf *dml.Field) {
	if f.Type != dml.TypeString || f.IsID {
		return
	}

	re := n.ref.Type(rf.Type)
	if re == nil || !re.IsEnum {
		return
	}

	for t, rt := range n.rec.types {
		if rt == re {
			f.Type = t.Name

			return
		}
	}

	shadow := re.Clone()
	shadow.Name = "shadow:" + re.Name
	shadow.DatabaseName = re.DBName()

	n.model.Types = append(n.model.Types, shadow)
	n.rec.pairType(shadow, re)

	f.Type = shadow.Name
}

func (n *normalizer) nameTypes() {
	taken := make(map[string]bool)
	isTaken := func(s string) bool { return taken[s] || dml.IsScalar(s) }
	names := make(map[string]string, len(n.model.Types))

	for _, t := range n.model.Types {
		if rt := n.rec.types[t]; rt != nil {
			names[t.Name] = rt.Name
			taken[rt.Name] = true
		}
	}

	for _, t := range n.model.Types {
		if n.rec.types[t] != nil {
			continue
		}

		raw := t.DBName()

		base := TypeName(raw)
		if t.IsEnum {
			base = EnumName(raw)
		}

		if dml.IsScalar(base) {
			base = identifier(raw)
		}

		name := dml.UniqueName(base, isTaken)
		if name != base {
			n.conflict(raw, "", base, name)
		}

		names[t.Name] = name
		taken[name] = true
	}

	n.model.RenameTypes(names)
}

func (n *normalizer) nameColumnFields() {
	for _, t := range n.objects() {
		taken := make(map[string]bool)
		isTaken := func(s string) bool { return taken[s] }

		for _, f := range t.Fields {
			if rf := n.rec.fields[f]; rf != nil {
				f.Name = rf.Name
				taken[f.Name] = true
			}
		}

		if n.opts.Style == dml.StyleV1 {
			taken[dml.FieldID] = true
		}

		for _, f := range t.Fields {
			if n.back[f] || n.rec.fields[f] != nil {
				continue
			}

			if n.opts.Style == dml.StyleV1 && f.IsID {
				f.Name = dml.FieldID

				continue
			}

			base := FieldName(f.DBName())
			if f.Link == dml.LinkInline {
				base = RelationFieldName(f.DBName())
			}

			name := dml.UniqueName(base, isTaken)
			if name != base {
				n.conflict(t.DBName(), f.DBName(), base, name)
			}

			f.Name = name
			taken[name] = true
		}
	}
}

// nameBackFields names fields without a column after the related type:
// "posts" for a list of Post, "post" otherwise. Fields that would share a
// name are told apart by their partner, as in "postsByAuthor".
func (n *normalizer) nameBackFields() {
	for _, t := range n.objects() {
		taken := make(map[string]bool)
		isTaken := func(s string) bool { return taken[s] }

		var pending []*dml.Field

		for _, f := range t.Fields {
			if n.back[f] && n.rec.fields[f] == nil {
				pending = append(pending, f)

				continue
			}

			taken[f.Name] = true
		}

		bases := make(map[*dml.Field]string, len(pending))
		partners := make(map[*dml.Field]string, len(pending))
		count := make(map[string]int)

		for _, f := range pending {
			bases[f] = InverseFieldName(f.Type, f.IsList)
			partners[f] = n.partnerName(f)
			count[bases[f]]++
		}

		sort.SliceStable(pending, func(i, j int) bool {
			a, b := pending[i], pending[j]
			if bases[a] != bases[b] {
				return bases[a] < bases[b]
			}

			return partners[a] < partners[b]
		})

		for _, f := range pending {
			base := bases[f]
			if count[base] > 1 || taken[base] {
				base += "By" + Capitalize(partners[f])
			}

			name := dml.UniqueName(base, isTaken)
			if name != base {
				n.conflict(t.DBName(), "", base, name)
			}

			f.Name = name
			taken[name] = true
		}
	}
}

// partnerName describes the other side of a back field: the link table or
// the name of the foreign key field.
func (n *normalizer) partnerName(f *dml.Field) string {
	if f.LinkTable != "" {
		return FieldName(f.LinkTable)
	}

	related := n.model.Type(f.Type)
	if related == nil {
		return ""
	}

	for _, g := range related.Fields {
		if g == f || g.RelationName != f.RelationName {
			continue
		}

		if g.LinkTable != "" {
			return FieldName(g.LinkTable)
		}

		return g.Name
	}

	return ""
}

type relationEnd struct {
	typ   *dml.Type
	field *dml.Field
}

// nameRelations replaces structural relation keys with relation names. Pinned
// reference names are kept; the others are named after their two types, in
// owning type and field order.
func (n *normalizer) nameRelations() {
	var keys []string

	ends := make(map[string][]relationEnd)

	for _, t := range n.objects() {
		for _, f := range t.Fields {
			if f.RelationName == "" || !n.model.IsRelation(f) {
				continue
			}

			if _, ok := ends[f.RelationName]; !ok {
				keys = append(keys, f.RelationName)
			}

			ends[f.RelationName] = append(ends[f.RelationName], relationEnd{typ: t, field: f})
		}
	}

	taken := make(map[string]bool)
	names := make(map[string]string, len(keys))

	var fresh []string

	for _, key := range keys {
		pinned, ok := n.rec.relations[key]
		if !ok || taken[pinned] {
			fresh = append(fresh, key)

			continue
		}

		names[key] = pinned
		taken[pinned] = true
	}

	owner := func(key string) relationEnd {
		for _, e := range ends[key] {
			if e.field.Link != dml.LinkNone {
				return e
			}
		}

		return ends[key][0]
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		a, b := owner(fresh[i]), owner(fresh[j])
		if a.typ.Name != b.typ.Name {
			return a.typ.Name < b.typ.Name
		}

		return a.field.Name < b.field.Name
	})

	for _, key := range fresh {
		o := owner(key)
		name := dml.UniqueName(dml.DefaultRelationName(o.typ.Name, o.field.Type), func(s string) bool { return taken[s] })
		names[key] = name
		taken[name] = true
	}

	for key, list := range ends {
		for _, e := range list {
			e.field.RelationName = names[key]
		}
	}
}

// applyLegacyStyle drops what the v1 style cannot express and derives the
// flags it expresses through field names.
func (n *normalizer) applyLegacyStyle() {
	for _, t := range n.model.Types {
		t.IsEmbedded = false

		if t.IsEnum {
			t.DatabaseName = ""
		}

		for _, f := range t.Fields {
			if f.IsID {
				f.IDStrategy = dml.IDStrategyAuto
				f.Sequence = nil
			}

			f.IsCreatedAt = f.Name == dml.FieldCreatedAt && f.Type == dml.TypeDateTime
			f.IsUpdatedAt = f.Name == dml.FieldUpdatedAt && f.Type == dml.TypeDateTime
		}
	}
}

// order puts reference elements first, in reference order. New types follow
// alphabetically with enums last; new fields follow in column order with back
// fields last, alphabetically.
func (n *normalizer) order() {
	typeIndex := make(map[*dml.Type]int)
	fieldIndex := make(map[*dml.Field]int)

	if n.ref != nil {
		for i, rt := range n.ref.Types {
			typeIndex[rt] = i

			for j, rf := range rt.Fields {
				fieldIndex[rf] = j
			}
		}
	}

	slices.SortStableFunc(n.model.Types, func(a, b *dml.Type) int {
		ra, rb := n.rec.types[a], n.rec.types[b]

		switch {
		case ra != nil && rb != nil:
			return typeIndex[ra] - typeIndex[rb]
		case ra != nil:
			return -1
		case rb != nil:
			return 1
		case a.IsEnum != b.IsEnum:
			if a.IsEnum {
				return 1
			}

			return -1
		}

		return compareFold(a.Name, b.Name)
	})

	for _, t := range n.model.Types {
		slices.SortStableFunc(t.Fields, func(a, b *dml.Field) int {
			ra, rb := n.rec.fields[a], n.rec.fields[b]

			switch {
			case ra != nil && rb != nil:
				return fieldIndex[ra] - fieldIndex[rb]
			case ra != nil:
				return -1
			case rb != nil:
				return 1
			case n.back[a] != n.back[b]:
				if n.back[a] {
					return 1
				}

				return -1
			case n.back[a]:
				return compareFold(a.Name, b.Name)
			}

			return n.pos[a] - n.pos[b]
		})
	}
}

func compareFold(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}

	return strings.Compare(a, b)
}
