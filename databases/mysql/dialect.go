package mysql

import (
	"context"
	"strconv"
	"strings"

	"github.com/prisma/dml"
	"github.com/prisma/dml/introspection"
	"go.uber.org/zap"
)

// Dialect reads the MySQL catalog.
type Dialect struct{}

// NewDialect creates a new MySQL dialect.
func NewDialect() *Dialect {
	return &Dialect{}
}

// Name returns the database name.
func (d *Dialect) Name() string {
	return dml.DatabaseMySQL
}

// ReadSchema reads the tables of a database. Without a schema, the database
// the client is connected to is read. Enum columns yield one synthesized enum
// each.
func (d *Dialect) ReadSchema(ctx context.Context, db dml.Database, opts introspection.ReadOptions) (*introspection.DatabaseSchema, error) {
	schema, err := resolveSchema(ctx, db, opts.Schema)
	if err != nil {
		return nil, err
	}

	opts.Schema = schema
	log := opts.Log().With(zap.String("database", dml.DatabaseMySQL), zap.String("schema", schema))

	wrap := func(op string, err error) error {
		return introspection.WrapError(dml.DatabaseMySQL, schema, op, err)
	}

	rows, err := db.Query(ctx, querySchemaExists, schema)
	if err != nil {
		return nil, wrap("check schema", err)
	}

	if len(rows) == 0 || rows[0].Int("schema_count") == 0 {
		return nil, introspection.SchemaNotFound(dml.DatabaseMySQL, schema)
	}

	rows, err = db.Query(ctx, queryTables, schema)
	if err != nil {
		return nil, wrap("list tables", err)
	}

	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.String("table_name")
	}

	log.Debug("listed tables", zap.Int("tables", len(names)))

	tables, err := introspection.ReadTables(ctx, names, opts, func(ctx context.Context, name string) (*introspection.Table, error) {
		return readTable(ctx, db, schema, name)
	})
	if err != nil {
		return nil, wrap("read tables", err)
	}

	return &introspection.DatabaseSchema{
		Database: dml.DatabaseMySQL,
		Schema:   schema,
		Tables:   tables,
		Enums:    columnEnums(tables),
	}, nil
}

// ListSchemas returns all non-system databases.
func (d *Dialect) ListSchemas(ctx context.Context, db dml.Database) ([]string, error) {
	rows, err := db.Query(ctx, querySchemas)
	if err != nil {
		return nil, introspection.WrapError(dml.DatabaseMySQL, "", "list schemas", err)
	}

	schemas := make([]string, len(rows))
	for i, row := range rows {
		schemas[i] = row.String("schema_name")
	}

	return schemas, nil
}

// Metadata returns the estimated row counts and data sizes of the tables.
func (d *Dialect) Metadata(ctx context.Context, db dml.Database, schema string) (*introspection.Metadata, error) {
	schema, err := resolveSchema(ctx, db, schema)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, queryMetadata, schema)
	if err != nil {
		return nil, introspection.WrapError(dml.DatabaseMySQL, schema, "read metadata", err)
	}

	m := &introspection.Metadata{Schema: schema, TableCount: len(rows)}

	for _, row := range rows {
		m.SizeBytes += row.Int("size_bytes")
		m.Tables = append(m.Tables, introspection.TableMetadata{
			Name:     row.String("table_name"),
			RowCount: row.Int("row_count"),
		})
	}

	return m, nil
}

// resolveSchema returns schema, or the connected database when it is empty.
func resolveSchema(ctx context.Context, db dml.Database, schema string) (string, error) {
	if schema != "" {
		return schema, nil
	}

	rows, err := db.Query(ctx, queryCurrentDatabase)
	if err != nil {
		return "", introspection.WrapError(dml.DatabaseMySQL, schema, "read current database", err)
	}

	if len(rows) > 0 {
		schema = rows[0].String("schema_name")
	}

	return schema, nil
}

func readTable(ctx context.Context, db dml.Database, schema, name string) (*introspection.Table, error) {
	t := &introspection.Table{Name: name}

	rows, err := db.Query(ctx, queryColumns, schema, name)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		t.Columns = append(t.Columns, columnFromRow(row))
	}

	rows, err = db.Query(ctx, queryIndexes, schema, name)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		indexName := row.String("index_name")
		if len(t.Indexes) == 0 || t.Indexes[len(t.Indexes)-1].Name != indexName {
			t.Indexes = append(t.Indexes, &introspection.Index{
				Name:    indexName,
				Unique:  !row.Bool("non_unique"),
				Primary: indexName == "PRIMARY",
			})
		}

		idx := t.Indexes[len(t.Indexes)-1]
		idx.Columns = append(idx.Columns, row.String("column_name"))

		if idx.Primary {
			t.PrimaryKey = idx.Columns
		}
	}

	rows, err = db.Query(ctx, queryForeignKeys, schema, name)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		constraint := row.String("constraint_name")
		if len(t.ForeignKeys) == 0 || t.ForeignKeys[len(t.ForeignKeys)-1].Name != constraint {
			t.ForeignKeys = append(t.ForeignKeys, &introspection.ForeignKey{
				Name:            constraint,
				ReferencedTable: row.String("referenced_table"),
				OnDelete:        row.String("delete_rule"),
			})
		}

		fk := t.ForeignKeys[len(t.ForeignKeys)-1]
		fk.Columns = append(fk.Columns, row.String("column_name"))
		fk.ReferencedColumns = append(fk.ReferencedColumns, row.String("referenced_column"))
	}

	return t, nil
}

// columnFromRow drops generated default expressions other than
// CURRENT_TIMESTAMP: they are not literals.
func columnFromRow(row dml.Row) *introspection.Column {
	extra := strings.ToLower(row.String("extra"))

	def := row.NullString("column_default")
	if def != nil && strings.Contains(extra, "default_generated") && !isCurrentTimestamp(*def) {
		def = nil
	}

	// MySQL reports a missing comment as an empty string.
	var comment *string
	if s := row.String("column_comment"); s != "" {
		comment = &s
	}

	return &introspection.Column{
		Name:            row.String("column_name"),
		Type:            row.String("column_type"),
		IsNullable:      row.Bool("is_nullable"),
		Default:         def,
		IsAutoIncrement: strings.Contains(extra, "auto_increment"),
		MaxLength:       nullInt(row, "max_length"),
		Precision:       nullInt(row, "numeric_precision"),
		Scale:           nullInt(row, "numeric_scale"),
		Comment:         comment,
	}
}

// columnEnums synthesizes one enum per enum column, in table and column order.
// Names that collide get a numeric suffix: "a_b"."c" and "a"."b_c" yield
// ABCEnum and ABCEnum2.
func columnEnums(tables []*introspection.Table) []*introspection.Enum {
	var enums []*introspection.Enum

	taken := make(map[string]int)

	for _, t := range tables {
		for _, c := range t.Columns {
			nt, err := introspection.ParseNativeType(c.Type)
			if err != nil || nt.Name != "enum" {
				continue
			}

			name := EnumName(t.Name, c.Name)

			taken[name]++
			if n := taken[name]; n > 1 {
				name += strconv.Itoa(n)
			}

			enums = append(enums, &introspection.Enum{Name: name, Values: nt.Args, Table: t.Name, Column: c.Name})
		}
	}

	return enums
}

// EnumName names the enum of an enum column: "users", "role" -> "UsersRoleEnum".
func EnumName(table, column string) string {
	return introspection.Capitalize(introspection.CamelCase(table)) +
		introspection.Capitalize(introspection.CamelCase(column)) + "Enum"
}

func nullInt(row dml.Row, key string) *int {
	n := row.NullInt(key)
	if n == nil {
		return nil
	}

	v := int(*n)

	return &v
}
