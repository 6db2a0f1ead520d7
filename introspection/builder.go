package introspection

import (
	"fmt"
	"slices"
	"strings"

	"github.com/prisma/dml"
)

// Comments attached by the builder.
const (
	commentNoPrimaryKey        = "Type has no primary key."
	commentCompositePrimaryKey = "Type has a composite primary key, which is not supported."
)

// sequenceComment is the error comment of an id whose nextval() default names
// a sequence missing from the catalog.
func sequenceComment(sequence, table, column string) string {
	return fmt.Sprintf("Error resolving sequence %s for %s.%s: The sequence was not found.", sequence, table, column)
}

// columnComments splits a database column comment into comment lines.
func columnComments(c *Column) []dml.Comment {
	if c.Comment == nil || strings.TrimSpace(*c.Comment) == "" {
		return nil
	}

	lines := strings.Split(strings.TrimSpace(*c.Comment), "\n")
	out := make([]dml.Comment, len(lines))

	for i, line := range lines {
		out[i] = dml.Comment{Text: strings.TrimSpace(line)}
	}

	return out
}

// unsupportedComment is the error comment of a field whose type has no scalar.
func unsupportedComment(native string) string {
	return fmt.Sprintf("Type '%s' is not yet supported.", native)
}

// Provisional type names of an unnormalized model. The prefixes keep tables,
// enums and scalars apart until Normalize names them.
func tableKey(name string) string {
	return "table:" + name
}

func enumKey(name string) string {
	return "enum:" + name
}

// isBackField reports whether a field of an unnormalized model has no column:
// the inverse side of a foreign key or a side of a link table.
func isBackField(f *dml.Field) bool {
	return strings.HasPrefix(f.Name, "~")
}

// Build turns a raw schema into an unnormalized model.
//
// In the unnormalized model, types carry their table name prefixed with
// "table:" (enums "enum:" plus their native name), column fields carry their column name, and relations
// carry a structural key: "<table>.<column>" for a foreign key and
// "link:<table>" for a link table. Back-relation fields have provisional names.
// Normalize replaces all of these.
func Build(s *DatabaseSchema, mapper TypeMapper) (*dml.Model, []dml.Diagnostic) {
	b := &builder{
		schema: s,
		mapper: mapper,
		model:  &dml.Model{},
		types:  make(map[string]*dml.Type),
		links:  make(map[string]bool),
	}

	b.build()

	return b.model, b.diags
}

type builder struct {
	schema *DatabaseSchema
	mapper TypeMapper
	model  *dml.Model
	// types maps table names to their types.
	types map[string]*dml.Type
	links map[string]bool
	diags []dml.Diagnostic
}

type inverseField struct {
	target string
	field  *dml.Field
}

func (b *builder) diag(sev dml.Severity, code, table, column, msg string) {
	b.diags = append(b.diags, dml.Diagnostic{Severity: sev, Code: code, Table: table, Column: column, Message: msg})
}

func (b *builder) build() {
	for _, t := range b.schema.Tables {
		if IsLinkTable(b.schema, t) {
			b.links[t.Name] = true

			continue
		}

		if isLinkLike(t) {
			b.diag(dml.SeverityInfo, dml.CodeAmbiguousLinkTable, t.Name, "",
				fmt.Sprintf("table has %d foreign keys and no own columns; kept as a type", len(t.ForeignKeys)))
		}

		typ := &dml.Type{Name: tableKey(t.Name), DatabaseName: t.Name}
		b.types[t.Name] = typ
		b.model.Types = append(b.model.Types, typ)
	}

	var inverses []inverseField

	for _, t := range b.schema.Tables {
		if b.links[t.Name] {
			continue
		}

		inverses = append(inverses, b.buildTable(t)...)
	}

	for _, inv := range inverses {
		target := b.types[inv.target]
		target.Fields = append(target.Fields, inv.field)
	}

	for _, t := range b.schema.Tables {
		if b.links[t.Name] {
			b.buildLinkTable(t)
		}
	}

	for _, e := range b.schema.Enums {
		b.buildEnum(e)
	}
}

// IsLinkTable reports whether the table only links two other tables: exactly
// two single-column foreign keys to existing tables, no other columns, and the
// two columns form the primary key (or, without a primary key, a unique index).
func IsLinkTable(s *DatabaseSchema, t *Table) bool {
	if len(t.ForeignKeys) != 2 || len(t.Columns) != 2 {
		return false
	}

	columns := make([]string, 0, 2)

	for _, fk := range t.ForeignKeys {
		if len(fk.Columns) != 1 || s.Table(fk.ReferencedTable) == nil {
			return false
		}

		columns = append(columns, fk.Columns[0])
	}

	if columns[0] == columns[1] {
		return false
	}

	if len(t.PrimaryKey) > 0 {
		return sameSet(t.PrimaryKey, columns)
	}

	return t.IsUnique(columns...)
}

// isLinkLike reports whether every column belongs to a key and there are at
// least two foreign keys, the shape of a link table that IsLinkTable rejected.
func isLinkLike(t *Table) bool {
	if len(t.ForeignKeys) < 2 {
		return false
	}

	for _, c := range t.Columns {
		if !t.InPrimaryKey(c.Name) && !t.InForeignKey(c.Name) {
			return false
		}
	}

	return true
}

func (b *builder) buildTable(t *Table) []inverseField {
	typ := b.types[t.Name]

	switch {
	case len(t.PrimaryKey) == 0:
		typ.Comments = append(typ.Comments, dml.Comment{Text: commentNoPrimaryKey})
		b.diag(dml.SeverityWarning, dml.CodeNoPrimaryKey, t.Name, "", commentNoPrimaryKey)
	case len(t.PrimaryKey) > 1:
		typ.Comments = append(typ.Comments, dml.Comment{Text: commentCompositePrimaryKey})
		b.diag(dml.SeverityWarning, dml.CodeNoPrimaryKey, t.Name, "", commentCompositePrimaryKey)
	}

	for _, fk := range t.ForeignKeys {
		if len(fk.Columns) > 1 {
			b.diag(dml.SeverityInfo, dml.CodeCompositeKey, t.Name, strings.Join(fk.Columns, ","),
				fmt.Sprintf("composite foreign key to %s is kept as scalar columns", fk.ReferencedTable))
		}
	}

	var inverses []inverseField

	for _, c := range t.Columns {
		if fk := t.ForeignKeyFor(c.Name); fk != nil {
			if f, inv := b.relationField(t, c, fk); f != nil {
				typ.Fields = append(typ.Fields, f)
				inverses = append(inverses, inv)

				continue
			}
		}

		typ.Fields = append(typ.Fields, b.scalarField(t, c))
	}

	return inverses
}

func (b *builder) relationField(t *Table, c *Column, fk *ForeignKey) (*dml.Field, inverseField) {
	switch {
	case b.types[fk.ReferencedTable] == nil && b.links[fk.ReferencedTable]:
		b.diag(dml.SeverityInfo, dml.CodeUnresolvedRef, t.Name, c.Name,
			fmt.Sprintf("foreign key references link table %s; kept as a scalar", fk.ReferencedTable))

		return nil, inverseField{}
	case b.types[fk.ReferencedTable] == nil:
		b.diag(dml.SeverityWarning, dml.CodeUnresolvedRef, t.Name, c.Name,
			fmt.Sprintf("foreign key references unknown table %s; kept as a scalar", fk.ReferencedTable))

		return nil, inverseField{}
	case t.IsPrimaryKey(c.Name):
		b.diag(dml.SeverityInfo, dml.CodeKeyReference, t.Name, c.Name,
			fmt.Sprintf("primary key also references %s; kept as a scalar", fk.ReferencedTable))

		return nil, inverseField{}
	}

	key := t.Name + "." + c.Name
	unique := t.IsUnique(c.Name)

	owner := &dml.Field{
		Name:         c.Name,
		DatabaseName: c.Name,
		Type:         tableKey(fk.ReferencedTable),
		IsRequired:   !c.IsNullable,
		RelationName: key,
		Link:         dml.LinkInline,
		Comments:     columnComments(c),
	}

	inverse := &dml.Field{
		Name:         "~" + key,
		Type:         tableKey(t.Name),
		IsList:       !unique,
		IsRequired:   !unique,
		RelationName: key,
	}

	return owner, inverseField{target: fk.ReferencedTable, field: inverse}
}

func (b *builder) scalarField(t *Table, c *Column) *dml.Field {
	mapping := b.mapper.MapColumn(b.schema, t, c)

	f := &dml.Field{Name: c.Name, DatabaseName: c.Name, Comments: columnComments(c)}

	if mapping.Unsupported {
		f.Type = mapping.Type()
		f.IsRequired = !c.IsNullable
		f.IsUnsupported = true
		f.Comments = append(f.Comments, dml.Comment{Text: unsupportedComment(mapping.Native), IsError: true})

		b.diag(dml.SeverityWarning, dml.CodeUnsupportedType, t.Name, c.Name, unsupportedComment(mapping.Native))

		return f
	}

	f.Type = mapping.Scalar
	f.IsList = mapping.IsList
	f.IsRequired = !c.IsNullable || mapping.IsList

	var enum *Enum

	if mapping.Enum != "" {
		enum = b.schema.Enum(mapping.Enum)
		if enum != nil {
			f.Type = enumKey(enum.Name)
		} else {
			f.Type = dml.TypeString
		}
	}

	def := b.mapper.ParseDefault(b.schema, c, mapping)

	if t.IsPrimaryKey(c.Name) {
		b.applyID(t, f, c, def)

		return f
	}

	f.IsUnique = t.IsUnique(c.Name)

	if f.Type == dml.TypeDateTime {
		switch strings.ToLower(strings.ReplaceAll(c.Name, "_", "")) {
		case "createdat":
			f.IsCreatedAt = def.Now
		case "updatedat":
			f.IsUpdatedAt = true
		}
	}

	if def.Value != nil && (enum == nil || slices.Contains(enum.Values, *def.Value) && dml.IsIdentifier(*def.Value)) {
		f.DefaultValue = def.Value
	}

	return f
}

func (b *builder) applyID(t *Table, f *dml.Field, c *Column, def Default) {
	f.IsID = true
	f.IsRequired = true

	if f.Type == dml.TypeString {
		f.Type = dml.TypeID
	}

	var seq *Sequence
	if def.Sequence != "" {
		seq = b.schema.Sequence(def.Sequence)
	}

	switch {
	case seq != nil:
		f.IDStrategy = dml.IDStrategySequence
		f.Sequence = &dml.Sequence{
			Name:           def.Sequence,
			InitialValue:   max(seq.InitialValue, 1),
			AllocationSize: max(seq.Increment, 1),
		}
	case def.Sequence != "":
		// The column is still generated by the database.
		f.IDStrategy = dml.IDStrategyAuto
		f.Comments = append(f.Comments, dml.Comment{Text: sequenceComment(def.Sequence, t.Name, c.Name), IsError: true})

		b.diag(dml.SeverityWarning, dml.CodeUnresolvedRef, t.Name, c.Name, sequenceComment(def.Sequence, t.Name, c.Name))
	case c.IsAutoIncrement:
		f.IDStrategy = dml.IDStrategyAuto
	case f.Type == dml.TypeID || f.Type == dml.TypeUUID:
		f.IDStrategy = dml.IDStrategyAuto
	default:
		f.IDStrategy = dml.IDStrategyNone
	}
}

func (b *builder) buildLinkTable(t *Table) {
	fks := slices.Clone(t.ForeignKeys)
	slices.SortFunc(fks, func(x, y *ForeignKey) int {
		return strings.Compare(x.Columns[0], y.Columns[0])
	})

	owner, other := b.types[fks[0].ReferencedTable], b.types[fks[1].ReferencedTable]
	if owner == nil || other == nil {
		b.diag(dml.SeverityWarning, dml.CodeUnresolvedRef, t.Name, "", "link table references a table that is not a type")

		return
	}

	key := "link:" + t.Name

	owner.Fields = append(owner.Fields, &dml.Field{
		Name:         "~" + key,
		Type:         other.Name,
		IsList:       true,
		IsRequired:   true,
		RelationName: key,
		Link:         dml.LinkTable,
		LinkTable:    t.Name,
	})

	other.Fields = append(other.Fields, &dml.Field{
		Name:         "~" + key + "~",
		Type:         owner.Name,
		IsList:       true,
		IsRequired:   true,
		RelationName: key,
	})
}

func (b *builder) buildEnum(e *Enum) {
	typ := &dml.Type{Name: enumKey(e.Name), DatabaseName: e.Name, IsEnum: true}

	for _, v := range e.Values {
		if !dml.IsIdentifier(v) {
			b.diag(dml.SeverityWarning, dml.CodeInvalidEnumValue, e.Name, "",
				fmt.Sprintf("enum value %q is not a valid identifier and was dropped", v))

			continue
		}

		typ.Values = append(typ.Values, v)
	}

	b.model.Types = append(b.model.Types, typ)
}
