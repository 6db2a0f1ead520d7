package sqlite

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/prisma/dml"
	"github.com/prisma/dml/introspection"
	"go.uber.org/zap"
)

// Dialect reads the SQLite catalog.
type Dialect struct{}

// NewDialect creates a new SQLite dialect.
func NewDialect() *Dialect {
	return &Dialect{}
}

// Name returns the database name.
func (d *Dialect) Name() string {
	return dml.DatabaseSQLite
}

// ReadSchema reads the tables of an attached database. SQLite has neither
// native enums nor sequences.
func (d *Dialect) ReadSchema(ctx context.Context, db dml.Database, opts introspection.ReadOptions) (*introspection.DatabaseSchema, error) {
	schema := opts.Schema
	if schema == "" {
		schema = dml.DefaultSchemaFor(dml.DatabaseSQLite)
	}

	opts.Schema = schema
	log := opts.Log().With(zap.String("database", dml.DatabaseSQLite), zap.String("schema", schema))

	wrap := func(op string, err error) error {
		return introspection.WrapError(dml.DatabaseSQLite, schema, op, err)
	}

	rows, err := db.Query(ctx, querySchemaExists, schema)
	if err != nil {
		return nil, wrap("check schema", err)
	}

	if len(rows) == 0 || rows[0].Int("schema_count") == 0 {
		return nil, introspection.SchemaNotFound(dml.DatabaseSQLite, schema)
	}

	names, err := listTables(ctx, db, schema)
	if err != nil {
		return nil, wrap("list tables", err)
	}

	log.Debug("listed tables", zap.Int("tables", len(names)))

	tables, err := introspection.ReadTables(ctx, names, opts, func(ctx context.Context, name string) (*introspection.Table, error) {
		return readTable(ctx, db, schema, name)
	})
	if err != nil {
		return nil, wrap("read tables", err)
	}

	s := &introspection.DatabaseSchema{Database: dml.DatabaseSQLite, Schema: schema, Tables: tables}
	resolveImplicitReferences(s)

	return s, nil
}

// ListSchemas returns the attached databases.
func (d *Dialect) ListSchemas(ctx context.Context, db dml.Database) ([]string, error) {
	rows, err := db.Query(ctx, querySchemas)
	if err != nil {
		return nil, introspection.WrapError(dml.DatabaseSQLite, "", "list schemas", err)
	}

	schemas := make([]string, len(rows))
	for i, row := range rows {
		schemas[i] = row.String("schema_name")
	}

	return schemas, nil
}

// Metadata counts the rows of every table and reports the file size.
func (d *Dialect) Metadata(ctx context.Context, db dml.Database, schema string) (*introspection.Metadata, error) {
	wrap := func(err error) error {
		return introspection.WrapError(dml.DatabaseSQLite, schema, "read metadata", err)
	}

	names, err := listTables(ctx, db, schema)
	if err != nil {
		return nil, wrap(err)
	}

	m := &introspection.Metadata{Schema: schema, TableCount: len(names)}

	for _, name := range names {
		rows, err := db.Query(ctx, queryRowCount(schema, name))
		if err != nil {
			return nil, wrap(err)
		}

		var count int64
		if len(rows) > 0 {
			count = rows[0].Int("row_count")
		}

		m.Tables = append(m.Tables, introspection.TableMetadata{Name: name, RowCount: count})
	}

	pages, err := db.Query(ctx, queryPageCount(schema))
	if err != nil {
		return nil, wrap(err)
	}

	size, err := db.Query(ctx, queryPageSize(schema))
	if err != nil {
		return nil, wrap(err)
	}

	if len(pages) > 0 && len(size) > 0 {
		m.SizeBytes = pages[0].Int("page_count") * size[0].Int("page_size")
	}

	return m, nil
}

func listTables(ctx context.Context, db dml.Database, schema string) ([]string, error) {
	rows, err := db.Query(ctx, queryTables(schema))
	if err != nil {
		return nil, err
	}

	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.String("table_name")
	}

	return names, nil
}

func readTable(ctx context.Context, db dml.Database, schema, name string) (*introspection.Table, error) {
	t := &introspection.Table{Name: name}

	rows, err := db.Query(ctx, queryColumns, name, schema)
	if err != nil {
		return nil, err
	}

	type pkColumn struct {
		name string
		pos  int64
	}

	var pk []pkColumn

	for _, row := range rows {
		c := &introspection.Column{
			Name:       row.String("column_name"),
			Type:       row.String("column_type"),
			IsNullable: !row.Bool("not_null"),
			Default:    row.NullString("column_default"),
		}

		if pos := row.Int("pk"); pos > 0 {
			pk = append(pk, pkColumn{name: c.Name, pos: pos})
		}

		t.Columns = append(t.Columns, c)
	}

	slices.SortFunc(pk, func(a, b pkColumn) int { return cmp.Compare(a.pos, b.pos) })

	for _, c := range pk {
		t.PrimaryKey = append(t.PrimaryKey, c.name)
	}

	// An INTEGER PRIMARY KEY aliases the rowid.
	if len(t.PrimaryKey) == 1 {
		c := t.Column(t.PrimaryKey[0])
		if strings.EqualFold(strings.TrimSpace(c.Type), "INTEGER") {
			c.IsAutoIncrement = true
			c.IsNullable = false
		}
	}

	rows, err = db.Query(ctx, queryIndexes, name, schema, schema)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		indexName := row.String("index_name")
		if len(t.Indexes) == 0 || t.Indexes[len(t.Indexes)-1].Name != indexName {
			t.Indexes = append(t.Indexes, &introspection.Index{
				Name:    indexName,
				Unique:  row.Bool("is_unique"),
				Primary: row.String("origin") == "pk",
			})
		}

		idx := t.Indexes[len(t.Indexes)-1]
		idx.Columns = append(idx.Columns, row.String("column_name"))
	}

	rows, err = db.Query(ctx, queryForeignKeys, name, schema)
	if err != nil {
		return nil, err
	}

	lastID := int64(-1)

	for _, row := range rows {
		if id := row.Int("id"); id != lastID || len(t.ForeignKeys) == 0 {
			lastID = id
			t.ForeignKeys = append(t.ForeignKeys, &introspection.ForeignKey{
				ReferencedTable: row.String("referenced_table"),
				OnDelete:        row.String("on_delete"),
			})
		}

		fk := t.ForeignKeys[len(t.ForeignKeys)-1]
		fk.Columns = append(fk.Columns, row.String("column_name"))
		fk.ReferencedColumns = append(fk.ReferencedColumns, row.String("referenced_column"))
	}

	// Foreign key ids follow no useful order.
	slices.SortStableFunc(t.ForeignKeys, func(a, b *introspection.ForeignKey) int {
		return strings.Compare(a.Columns[0], b.Columns[0])
	})

	return t, nil
}

// resolveImplicitReferences fills in the referenced columns of foreign keys
// declared without them: they reference the primary key.
func resolveImplicitReferences(s *introspection.DatabaseSchema) {
	for _, t := range s.Tables {
		for _, fk := range t.ForeignKeys {
			ref := s.Table(fk.ReferencedTable)
			if ref == nil || len(ref.PrimaryKey) != len(fk.Columns) {
				continue
			}

			for i, col := range fk.ReferencedColumns {
				if col == "" {
					fk.ReferencedColumns[i] = ref.PrimaryKey[i]
				}
			}
		}
	}
}
