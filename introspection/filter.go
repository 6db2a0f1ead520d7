package introspection

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	exprfile "github.com/expr-lang/expr/file"
	"github.com/expr-lang/expr/vm"
)

// ErrInvalidFilter is returned for table filters that do not compile to a
// boolean expression.
var ErrInvalidFilter = errors.New("invalid table filter")

// TableEnv is the environment a table filter is evaluated in.
//
//	name != "_prisma_migrations" && hasPrimaryKey
//	len(columns) > 1 && !(name startsWith "tmp_")
type TableEnv struct {
	Name          string   `expr:"name"`
	Columns       []string `expr:"columns"`
	ForeignKeys   int      `expr:"foreignKeys"`
	HasPrimaryKey bool     `expr:"hasPrimaryKey"`
}

// Filter selects the tables to introspect.
type Filter struct {
	source  string
	program *vm.Program
}

// CompileFilter compiles an expr-lang boolean expression over TableEnv.
func CompileFilter(src string) (*Filter, error) {
	program, err := expr.Compile(src, expr.Env(TableEnv{}), expr.AsBool())
	if err != nil {
		var fe *exprfile.Error
		if errors.As(err, &fe) {
			return nil, fmt.Errorf("%w: column %d: %s", ErrInvalidFilter, fe.Column+1, fe.Message)
		}

		return nil, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}

	return &Filter{source: src, program: program}, nil
}

// String returns the filter source.
func (f *Filter) String() string {
	return f.source
}

// Match reports whether the filter keeps the table. A nil filter keeps every table.
func (f *Filter) Match(t *Table) (bool, error) {
	if f == nil {
		return true, nil
	}

	env := TableEnv{
		Name:          t.Name,
		Columns:       make([]string, len(t.Columns)),
		ForeignKeys:   len(t.ForeignKeys),
		HasPrimaryKey: len(t.PrimaryKey) > 0,
	}

	for i, c := range t.Columns {
		env.Columns[i] = c.Name
	}

	out, err := expr.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("filter %s on %s: %w", f.source, t.Name, err)
	}

	keep, _ := out.(bool)

	return keep, nil
}

// ApplyFilter removes the tables the filter rejects. Foreign keys to removed
// tables stay in place; the builder reports them as unresolved.
func ApplyFilter(s *DatabaseSchema, f *Filter) error {
	if f == nil {
		return nil
	}

	kept := s.Tables[:0]

	for _, t := range s.Tables {
		keep, err := f.Match(t)
		if err != nil {
			return err
		}

		if keep {
			kept = append(kept, t)
		}
	}

	s.Tables = kept

	return nil
}
