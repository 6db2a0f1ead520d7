package introspection

import "github.com/prisma/dml"

// EmbedCandidates returns the object types that look like parts of a single
// parent: the type's only relation field is a required or one-to-one foreign
// key to another type, and nothing but that parent's back field refers to it.
// This is a heuristic and callers opt into it.
func EmbedCandidates(m *dml.Model) []string {
	var names []string

	for _, t := range m.Types {
		if t.IsEnum || t.IsEmbedded {
			continue
		}

		if isEmbeddable(m, t) {
			names = append(names, t.Name)
		}
	}

	return names
}

func isEmbeddable(m *dml.Model, t *dml.Type) bool {
	var relations []*dml.Field

	for _, f := range t.Fields {
		if m.IsRelation(f) {
			relations = append(relations, f)
		}
	}

	if len(relations) != 1 {
		return false
	}

	f := relations[0]
	if f.Link != dml.LinkInline || f.IsList || f.Type == t.Name {
		return false
	}

	partner := m.RelatedField(t, f)
	if partner != nil && partner.IsList {
		return false
	}

	if !f.IsRequired && (partner == nil || !partner.IsRequired) {
		return false
	}

	for _, u := range m.Types {
		if u == t {
			continue
		}

		for _, g := range u.Fields {
			if g != partner && g.Type == t.Name && m.IsRelation(g) {
				return false
			}
		}
	}

	return true
}
