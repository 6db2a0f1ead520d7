package postgres

import (
	"context"

	"github.com/prisma/dml"
	"github.com/prisma/dml/introspection"
	"go.uber.org/zap"
)

// Dialect reads the PostgreSQL catalog.
type Dialect struct{}

// NewDialect creates a new PostgreSQL dialect.
func NewDialect() *Dialect {
	return &Dialect{}
}

// Name returns the database name.
func (d *Dialect) Name() string {
	return dml.DatabasePostgres
}

// ReadSchema reads tables, enums and sequences of a schema. Tables are read
// with bounded concurrency.
func (d *Dialect) ReadSchema(ctx context.Context, db dml.Database, opts introspection.ReadOptions) (*introspection.DatabaseSchema, error) {
	schema := opts.Schema
	if schema == "" {
		schema = dml.DefaultSchemaFor(dml.DatabasePostgres)
	}

	opts.Schema = schema
	log := opts.Log().With(zap.String("database", dml.DatabasePostgres), zap.String("schema", schema))

	wrap := func(op string, err error) error {
		return introspection.WrapError(dml.DatabasePostgres, schema, op, err)
	}

	rows, err := db.Query(ctx, querySchemaExists, schema)
	if err != nil {
		return nil, wrap("check schema", err)
	}

	if len(rows) == 0 || !rows[0].Bool("schema_exists") {
		return nil, introspection.SchemaNotFound(dml.DatabasePostgres, schema)
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

	enums, err := readEnums(ctx, db, schema)
	if err != nil {
		return nil, wrap("read enums", err)
	}

	sequences, err := readSequences(ctx, db, schema)
	if err != nil {
		return nil, wrap("read sequences", err)
	}

	tables, err := introspection.ReadTables(ctx, names, opts, func(ctx context.Context, name string) (*introspection.Table, error) {
		return readTable(ctx, db, schema, name)
	})
	if err != nil {
		return nil, wrap("read tables", err)
	}

	return &introspection.DatabaseSchema{
		Database:  dml.DatabasePostgres,
		Schema:    schema,
		Tables:    tables,
		Enums:     enums,
		Sequences: sequences,
	}, nil
}

// ListSchemas returns all non-system schemas.
func (d *Dialect) ListSchemas(ctx context.Context, db dml.Database) ([]string, error) {
	rows, err := db.Query(ctx, querySchemas)
	if err != nil {
		return nil, introspection.WrapError(dml.DatabasePostgres, "", "list schemas", err)
	}

	schemas := make([]string, len(rows))
	for i, row := range rows {
		schemas[i] = row.String("schema_name")
	}

	return schemas, nil
}

// Metadata returns estimated row counts and total relation sizes.
func (d *Dialect) Metadata(ctx context.Context, db dml.Database, schema string) (*introspection.Metadata, error) {
	rows, err := db.Query(ctx, queryMetadata, schema)
	if err != nil {
		return nil, introspection.WrapError(dml.DatabasePostgres, schema, "read metadata", err)
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

func readEnums(ctx context.Context, db dml.Database, schema string) ([]*introspection.Enum, error) {
	rows, err := db.Query(ctx, queryEnums, schema)
	if err != nil {
		return nil, err
	}

	var enums []*introspection.Enum

	for _, row := range rows {
		name := row.String("enum_name")
		if len(enums) == 0 || enums[len(enums)-1].Name != name {
			enums = append(enums, &introspection.Enum{Name: name})
		}

		e := enums[len(enums)-1]
		e.Values = append(e.Values, row.String("enum_value"))
	}

	return enums, nil
}

func readSequences(ctx context.Context, db dml.Database, schema string) ([]*introspection.Sequence, error) {
	rows, err := db.Query(ctx, querySequences, schema)
	if err != nil {
		return nil, err
	}

	sequences := make([]*introspection.Sequence, len(rows))
	for i, row := range rows {
		sequences[i] = &introspection.Sequence{
			Name:         row.String("sequence_name"),
			InitialValue: int(row.Int("start_value")),
			Increment:    int(row.Int("increment")),
		}
	}

	return sequences, nil
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
				Unique:  row.Bool("is_unique"),
				Primary: row.Bool("is_primary"),
			})
		}

		idx := t.Indexes[len(t.Indexes)-1]
		idx.Columns = append(idx.Columns, row.String("column_name"))
	}

	for _, idx := range t.Indexes {
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
				OnDelete:        deleteRule(row.String("delete_type")),
			})
		}

		fk := t.ForeignKeys[len(t.ForeignKeys)-1]
		fk.Columns = append(fk.Columns, row.String("column_name"))
		fk.ReferencedColumns = append(fk.ReferencedColumns, row.String("referenced_column"))
	}

	return t, nil
}

// columnFromRow keeps the udt name for arrays ("_int4") and user-defined
// types (the enum name), and the SQL type name otherwise.
func columnFromRow(row dml.Row) *introspection.Column {
	typ := row.String("data_type")
	if typ == "ARRAY" || typ == "USER-DEFINED" {
		typ = row.String("udt_name")
	}

	return &introspection.Column{
		Name:            row.String("column_name"),
		Type:            typ,
		IsNullable:      row.Bool("is_nullable"),
		Default:         row.NullString("column_default"),
		IsAutoIncrement: row.Bool("is_identity"),
		MaxLength:       nullInt(row, "max_length"),
		Precision:       nullInt(row, "numeric_precision"),
		Scale:           nullInt(row, "numeric_scale"),
		Comment:         row.NullString("column_comment"),
	}
}

func nullInt(row dml.Row, key string) *int {
	n := row.NullInt(key)
	if n == nil {
		return nil
	}

	v := int(*n)

	return &v
}

// deleteRule spells out pg_constraint.confdeltype.
func deleteRule(code string) string {
	switch code {
	case "r":
		return "RESTRICT"
	case "c":
		return "CASCADE"
	case "n":
		return "SET NULL"
	case "d":
		return "SET DEFAULT"
	default:
		return "NO ACTION"
	}
}
