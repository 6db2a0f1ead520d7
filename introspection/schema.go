// Package introspection turns a relational database catalog into a normalized
// datamodel.
//
// The pipeline runs in four stages: a dialect's SchemaReader reads the raw
// catalog into a DatabaseSchema, its TypeMapper maps native column types to
// scalars, Build turns tables and foreign keys into an unnormalized model, and
// Normalize names everything and reconciles the result with a reference model.
package introspection

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DatabaseSchema is the raw catalog of one schema. Tables are sorted by name
// so that everything derived from it is deterministic.
type DatabaseSchema struct {
	Database  string      `yaml:"database"`
	Schema    string      `yaml:"schema"`
	Tables    []*Table    `yaml:"tables"`
	Enums     []*Enum     `yaml:"enums,omitempty"`
	Sequences []*Sequence `yaml:"sequences,omitempty"`
}

// Table is a base table with its columns in physical order.
type Table struct {
	Name        string        `yaml:"name"`
	Columns     []*Column     `yaml:"columns"`
	PrimaryKey  []string      `yaml:"primary_key,omitempty"`
	Indexes     []*Index      `yaml:"indexes,omitempty"`
	ForeignKeys []*ForeignKey `yaml:"foreign_keys,omitempty"`
}

// Column is a table column. Type holds the native type as the catalog spells
// it, e.g. "varchar(255)", "int(11) unsigned", "_int4".
type Column struct {
	Name            string  `yaml:"name"`
	Type            string  `yaml:"type"`
	IsNullable      bool    `yaml:"nullable,omitempty"`
	Default         *string `yaml:"default,omitempty"`
	IsAutoIncrement bool    `yaml:"auto_increment,omitempty"`
	MaxLength       *int    `yaml:"max_length,omitempty"`
	Precision       *int    `yaml:"precision,omitempty"`
	Scale           *int    `yaml:"scale,omitempty"`
	Comment         *string `yaml:"comment,omitempty"`
}

// Index is a secondary or primary index.
type Index struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
	Unique  bool     `yaml:"unique,omitempty"`
	Primary bool     `yaml:"primary,omitempty"`
}

// ForeignKey references another table of the same schema.
type ForeignKey struct {
	Name              string   `yaml:"name,omitempty"`
	Columns           []string `yaml:"columns"`
	ReferencedTable   string   `yaml:"referenced_table"`
	ReferencedColumns []string `yaml:"referenced_columns"`
	OnDelete          string   `yaml:"on_delete,omitempty"`
}

// Enum is a native enum type, or a synthesized one for MySQL enum columns.
// Synthesized enums record the column they were read from.
type Enum struct {
	Name   string   `yaml:"name"`
	Values []string `yaml:"values"`
	Table  string   `yaml:"table,omitempty"`
	Column string   `yaml:"column,omitempty"`
}

// Sequence is a database sequence.
type Sequence struct {
	Name         string `yaml:"name"`
	InitialValue int    `yaml:"initial_value"`
	Increment    int    `yaml:"increment"`
}

// Table returns the table with the given name, or nil.
func (s *DatabaseSchema) Table(name string) *Table {
	for _, t := range s.Tables {
		if t.Name == name {
			return t
		}
	}

	return nil
}

// Enum returns the enum with the given name, or nil.
func (s *DatabaseSchema) Enum(name string) *Enum {
	for _, e := range s.Enums {
		if e.Name == name {
			return e
		}
	}

	return nil
}

// ColumnEnum returns the enum synthesized for a column, or nil.
func (s *DatabaseSchema) ColumnEnum(table, column string) *Enum {
	for _, e := range s.Enums {
		if e.Table == table && e.Column == column {
			return e
		}
	}

	return nil
}

// Sequence returns the sequence with the given name, or nil.
func (s *DatabaseSchema) Sequence(name string) *Sequence {
	for _, seq := range s.Sequences {
		if seq.Name == name {
			return seq
		}
	}

	return nil
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}

	return nil
}

// IsPrimaryKey reports whether the primary key consists of exactly the column.
func (t *Table) IsPrimaryKey(column string) bool {
	return len(t.PrimaryKey) == 1 && t.PrimaryKey[0] == column
}

// InPrimaryKey reports whether the column is part of the primary key.
func (t *Table) InPrimaryKey(column string) bool {
	return slices.Contains(t.PrimaryKey, column)
}

// IsUnique reports whether the column set is the primary key or covered by a
// unique index with exactly these columns, in any order.
func (t *Table) IsUnique(columns ...string) bool {
	if sameSet(t.PrimaryKey, columns) {
		return true
	}

	for _, idx := range t.Indexes {
		if idx.Unique && sameSet(idx.Columns, columns) {
			return true
		}
	}

	return false
}

// ForeignKeyFor returns the single-column foreign key on the column, or nil.
func (t *Table) ForeignKeyFor(column string) *ForeignKey {
	for _, fk := range t.ForeignKeys {
		if len(fk.Columns) == 1 && fk.Columns[0] == column {
			return fk
		}
	}

	return nil
}

// InForeignKey reports whether the column is part of any foreign key.
func (t *Table) InForeignKey(column string) bool {
	for _, fk := range t.ForeignKeys {
		if slices.Contains(fk.Columns, column) {
			return true
		}
	}

	return false
}

func sameSet(a, b []string) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}

	for _, s := range b {
		if !slices.Contains(a, s) {
			return false
		}
	}

	return true
}

// Sort orders tables, enums and sequences by name, and foreign keys by their
// first column.
func (s *DatabaseSchema) Sort() {
	slices.SortFunc(s.Tables, func(a, b *Table) int { return strings.Compare(a.Name, b.Name) })
	slices.SortFunc(s.Enums, func(a, b *Enum) int { return strings.Compare(a.Name, b.Name) })
	slices.SortFunc(s.Sequences, func(a, b *Sequence) int { return strings.Compare(a.Name, b.Name) })

	for _, t := range s.Tables {
		slices.SortStableFunc(t.ForeignKeys, func(a, b *ForeignKey) int {
			return slices.Compare(a.Columns, b.Columns)
		})
	}
}

// LoadSchema loads a raw schema dump written by WriteSchema.
func LoadSchema(path string) (*DatabaseSchema, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}

	var s DatabaseSchema

	err = yaml.Unmarshal(data, &s)
	if err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}

	s.Sort()

	return &s, nil
}

// WriteSchema writes the raw schema as YAML.
func WriteSchema(w io.Writer, s *DatabaseSchema) (err error) {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	defer func() {
		closeErr := enc.Close()
		if err == nil {
			err = closeErr
		}
	}()

	return enc.Encode(s)
}
