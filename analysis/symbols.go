package analysis

import "github.com/prisma/dml"

// SymbolKind classifies a declared name.
type SymbolKind int

// Symbol kinds.
const (
	SymbolKindType SymbolKind = iota
	SymbolKindEnum
	SymbolKindField
	SymbolKindEnumValue
)

// Symbol is a declared name and where it is declared.
type Symbol struct {
	Name string
	Kind SymbolKind
	Span Span
}

// TypeSymbol is a declared object type.
type TypeSymbol struct {
	Symbol

	Def    *dml.TypeDef
	Fields []*FieldSymbol
}

// Field returns the first field declared with name, or nil.
func (t *TypeSymbol) Field(name string) *FieldSymbol {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}

	return nil
}

// FieldSymbol is a declared field.
type FieldSymbol struct {
	Symbol

	Def *dml.FieldDef
}

// EnumSymbol is a declared enum.
type EnumSymbol struct {
	Symbol

	Def    *dml.EnumDef
	Values []*Symbol
}

// SymbolTable holds the first declaration of every type and enum name.
type SymbolTable struct {
	Types map[string]*TypeSymbol
	Enums map[string]*EnumSymbol
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		Types: make(map[string]*TypeSymbol),
		Enums: make(map[string]*EnumSymbol),
	}
}

// IsDeclared reports whether name is a declared type or enum.
func (st *SymbolTable) IsDeclared(name string) bool {
	_, isType := st.Types[name]
	_, isEnum := st.Enums[name]

	return isType || isEnum
}

// Lookup returns the declaration of a type or enum name.
func (st *SymbolTable) Lookup(name string) (*Symbol, bool) {
	if t, ok := st.Types[name]; ok {
		return &t.Symbol, true
	}

	if e, ok := st.Enums[name]; ok {
		return &e.Symbol, true
	}

	return nil, false
}

func buildSymbols(f *AnalyzedFile) {
	for _, def := range f.Document.Definitions {
		switch {
		case def.Type != nil:
			td := def.Type
			if _, dup := f.Symbols.Types[td.Name]; dup {
				continue
			}

			ts := &TypeSymbol{
				Symbol: Symbol{Name: td.Name, Kind: SymbolKindType, Span: nodeSpan(td.NodeMeta)},
				Def:    td,
			}

			for _, fd := range td.Fields {
				ts.Fields = append(ts.Fields, &FieldSymbol{
					Symbol: Symbol{Name: fd.Name, Kind: SymbolKindField, Span: nodeSpan(fd.NodeMeta)},
					Def:    fd,
				})
			}

			f.Symbols.Types[td.Name] = ts
		case def.Enum != nil:
			ed := def.Enum
			if _, dup := f.Symbols.Enums[ed.Name]; dup {
				continue
			}

			es := &EnumSymbol{
				Symbol: Symbol{Name: ed.Name, Kind: SymbolKindEnum, Span: nodeSpan(ed.NodeMeta)},
				Def:    ed,
			}

			for _, v := range ed.Values {
				es.Values = append(es.Values, &Symbol{Name: v.Name, Kind: SymbolKindEnumValue, Span: nodeSpan(v.NodeMeta)})
			}

			f.Symbols.Enums[ed.Name] = es
		}
	}
}
