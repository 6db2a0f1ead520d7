package analysis

import (
	"fmt"
	"strconv"
	"unicode"

	"github.com/prisma/dml"
)

// Rule represents a semantic analysis check.
// Inspired by go/analysis.Analyzer pattern.
type Rule struct {
	// Name is a short identifier for the rule (used in diagnostic codes).
	Name string

	// Doc is a brief description of what the rule checks.
	Doc string

	// Severity is the severity of diagnostics from this rule.
	Severity DiagnosticSeverity

	// Run executes the rule and appends any diagnostics to the file.
	Run func(f *AnalyzedFile)
}

// DefaultRules returns all built-in rules.
func DefaultRules() []*Rule {
	return []*Rule{
		// Error-level checks. Each one fails model validation.
		duplicateTypeRule,
		duplicateFieldRule,
		duplicateEnumValueRule,
		unknownTypeRule,
		invalidRelationRule,
		invalidDefaultRule,

		// Warning-level checks.
		missingIDRule,
		unknownDirectiveRule,
		unusedEnumRule,

		// Hint-level checks.
		namingRule,
	}
}

// ----------------------------------------------------------------------------
// Rule: duplicate-type
// ----------------------------------------------------------------------------

var duplicateTypeRule = &Rule{
	Name:     "duplicate-type",
	Doc:      "Reports types and enums declared more than once.",
	Severity: SeverityError,
	Run:      checkDuplicateTypes,
}

func checkDuplicateTypes(f *AnalyzedFile) {
	seen := make(map[string]bool)

	for _, def := range f.Document.Definitions {
		name, span := definitionName(def)
		if seen[name] {
			f.report(span, "duplicate type: "+name)
		}

		seen[name] = true
	}
}

func definitionName(def *dml.Definition) (string, Span) {
	if def.Type != nil {
		return def.Type.Name, nodeSpan(def.Type.NodeMeta)
	}

	return def.Enum.Name, nodeSpan(def.Enum.NodeMeta)
}

// ----------------------------------------------------------------------------
// Rule: duplicate-field
// ----------------------------------------------------------------------------

var duplicateFieldRule = &Rule{
	Name:     "duplicate-field",
	Doc:      "Reports fields declared more than once in a type.",
	Severity: SeverityError,
	Run:      checkDuplicateFields,
}

func checkDuplicateFields(f *AnalyzedFile) {
	forEachType(f, func(td *dml.TypeDef) {
		seen := make(map[string]bool, len(td.Fields))

		for _, fd := range td.Fields {
			if seen[fd.Name] {
				f.report(nodeSpan(fd.NodeMeta), fmt.Sprintf("duplicate field: %s.%s", td.Name, fd.Name))
			}

			seen[fd.Name] = true
		}
	})
}

// ----------------------------------------------------------------------------
// Rule: duplicate-enum-value
// ----------------------------------------------------------------------------

var duplicateEnumValueRule = &Rule{
	Name:     "duplicate-enum-value",
	Doc:      "Reports enum values declared more than once.",
	Severity: SeverityError,
	Run:      checkDuplicateEnumValues,
}

func checkDuplicateEnumValues(f *AnalyzedFile) {
	for _, def := range f.Document.Definitions {
		if def.Enum == nil {
			continue
		}

		seen := make(map[string]bool, len(def.Enum.Values))

		for _, v := range def.Enum.Values {
			if seen[v.Name] {
				f.report(nodeSpan(v.NodeMeta), fmt.Sprintf("duplicate value: %s.%s", def.Enum.Name, v.Name))
			}

			seen[v.Name] = true
		}
	}
}

// ----------------------------------------------------------------------------
// Rule: unknown-type
// ----------------------------------------------------------------------------

var unknownTypeRule = &Rule{
	Name:     "unknown-type",
	Doc:      "Reports fields whose type is neither a scalar nor declared.",
	Severity: SeverityError,
	Run:      checkUnknownTypes,
}

func checkUnknownTypes(f *AnalyzedFile) {
	forEachType(f, func(td *dml.TypeDef) {
		for _, fd := range td.Fields {
			base := fd.Type.Base()
			if !dml.IsScalar(base) && !f.Symbols.IsDeclared(base) {
				f.report(nodeSpan(fd.NodeMeta), "unknown type: "+base)
			}
		}
	})
}

// ----------------------------------------------------------------------------
// Rule: invalid-relation
// ----------------------------------------------------------------------------

var invalidRelationRule = &Rule{
	Name:     "invalid-relation",
	Doc:      "Reports relation names shared by more than two fields or by fields that do not point at each other.",
	Severity: SeverityError,
	Run:      checkInvalidRelations,
}

func checkInvalidRelations(f *AnalyzedFile) {
	type endpoint struct {
		typ   *dml.Type
		field *dml.Field
	}

	var order []string

	endpoints := make(map[string][]endpoint)

	for _, t := range f.Model.Types {
		for _, fl := range t.Fields {
			if !f.Model.IsRelation(fl) || fl.RelationName == "" {
				continue
			}

			if _, ok := endpoints[fl.RelationName]; !ok {
				order = append(order, fl.RelationName)
			}

			endpoints[fl.RelationName] = append(endpoints[fl.RelationName], endpoint{typ: t, field: fl})
		}
	}

	for _, name := range order {
		eps := endpoints[name]

		switch {
		case len(eps) > 2:
			for _, ep := range eps[2:] {
				f.report(f.fieldSpan(ep.typ.Name, ep.field.Name),
					fmt.Sprintf("relation %s already connects %s.%s and %s.%s", name,
						eps[0].typ.Name, eps[0].field.Name, eps[1].typ.Name, eps[1].field.Name))
			}
		case len(eps) == 2:
			a, b := eps[0], eps[1]
			if a.field.Type != b.typ.Name || b.field.Type != a.typ.Name {
				f.report(f.fieldSpan(b.typ.Name, b.field.Name),
					fmt.Sprintf("relation %s connects %s.%s and %s.%s, which do not point at each other", name,
						a.typ.Name, a.field.Name, b.typ.Name, b.field.Name))
			}
		}
	}
}

// fieldSpan returns the span of a declared field, falling back to its type.
func (f *AnalyzedFile) fieldSpan(typeName, fieldName string) Span {
	ts, ok := f.Symbols.Types[typeName]
	if !ok {
		return Span{}
	}

	if fs := ts.Field(fieldName); fs != nil {
		return fs.Span
	}

	return ts.Span
}

// ----------------------------------------------------------------------------
// Rule: invalid-default
// ----------------------------------------------------------------------------

var invalidDefaultRule = &Rule{
	Name:     "invalid-default",
	Doc:      "Reports @default values that do not fit the field type.",
	Severity: SeverityError,
	Run:      checkInvalidDefaults,
}

func checkInvalidDefaults(f *AnalyzedFile) {
	forEachType(f, func(td *dml.TypeDef) {
		for _, fd := range td.Fields {
			for _, d := range fd.Directives {
				if d.Name != dml.DirectiveDefault {
					continue
				}

				if msg := checkDefault(f, fd, d.Arg("value")); msg != "" {
					f.report(nodeSpan(d.NodeMeta), fmt.Sprintf("%s.%s: %s", td.Name, fd.Name, msg))
				}
			}
		}
	})
}

// checkDefault describes what is wrong with a default value, or returns "".
func checkDefault(f *AnalyzedFile, fd *dml.FieldDef, v *dml.ValueNode) string {
	if v == nil {
		return "@default needs a value"
	}

	base := fd.Type.Base()

	if fd.Type.List != nil {
		return "list fields cannot have a default"
	}

	switch base {
	case dml.TypeBoolean:
		if v.Ident == nil || (*v.Ident != "true" && *v.Ident != "false") {
			return "expected true or false, got " + v.Source()
		}
	case dml.TypeInt:
		if v.Number == nil {
			return "expected an integer, got " + v.Source()
		}

		if _, err := strconv.ParseInt(*v.Number, 10, 64); err != nil {
			return "expected an integer, got " + v.Source()
		}
	case dml.TypeFloat:
		if v.Number == nil {
			return "expected a number, got " + v.Source()
		}
	case dml.TypeString, dml.TypeDateTime, dml.TypeJSON, dml.TypeID, dml.TypeUUID:
		if v.String == nil {
			return "expected a string, got " + v.Source()
		}
	default:
		es, ok := f.Symbols.Enums[base]
		if !ok {
			if f.Symbols.IsDeclared(base) {
				return "relation fields cannot have a default"
			}

			return ""
		}

		if v.Ident == nil {
			return fmt.Sprintf("expected a value of %s, got %s", base, v.Source())
		}

		for _, value := range es.Values {
			if value.Name == *v.Ident {
				return ""
			}
		}

		return fmt.Sprintf("%s is not a value of %s", *v.Ident, base)
	}

	return ""
}

// ----------------------------------------------------------------------------
// Rule: missing-id
// ----------------------------------------------------------------------------

var missingIDRule = &Rule{
	Name:     "missing-id",
	Doc:      "Reports non-embedded types without an id field.",
	Severity: SeverityWarning,
	Run:      checkMissingIDs,
}

func checkMissingIDs(f *AnalyzedFile) {
	seen := make(map[string]bool)

	for _, t := range f.Model.Types {
		if t.IsEnum || t.IsEmbedded || seen[t.Name] {
			continue
		}

		seen[t.Name] = true

		if t.IDField() == nil {
			f.report(f.Symbols.Types[t.Name].Span, "type "+t.Name+" has no id field")
		}
	}
}

// ----------------------------------------------------------------------------
// Rule: unknown-directive
// ----------------------------------------------------------------------------

var unknownDirectiveRule = &Rule{
	Name:     "unknown-directive",
	Doc:      "Reports directives that have no meaning where they are used.",
	Severity: SeverityWarning,
	Run:      checkUnknownDirectives,
}

// Directives understood on each kind of declaration.
var (
	typeDirectives = map[string]bool{
		dml.DirectiveDB: true, dml.DirectivePgTable: true, dml.DirectiveEmbedded: true,
	}
	enumDirectives = map[string]bool{
		dml.DirectiveDB: true,
	}
	fieldDirectives = map[string]bool{
		dml.DirectiveID: true, dml.DirectiveUnique: true, dml.DirectiveDefault: true,
		dml.DirectiveRelation: true, dml.DirectiveDB: true, dml.DirectiveSequence: true,
		dml.DirectiveCreatedAt: true, dml.DirectiveUpdatedAt: true, dml.DirectiveScalarList: true,
		dml.DirectivePgColumn: true, dml.DirectivePgRelation: true, dml.DirectivePgRelationTable: true,
	}
)

func checkUnknownDirectives(f *AnalyzedFile) {
	check := func(ds []*dml.DirectiveNode, known map[string]bool, where string) {
		for _, d := range ds {
			if !known[d.Name] {
				f.report(nodeSpan(d.NodeMeta), fmt.Sprintf("unknown %s directive @%s", where, d.Name))
			}
		}
	}

	for _, def := range f.Document.Definitions {
		switch {
		case def.Type != nil:
			check(def.Type.Directives, typeDirectives, "type")

			for _, fd := range def.Type.Fields {
				check(fd.Directives, fieldDirectives, "field")
			}
		case def.Enum != nil:
			check(def.Enum.Directives, enumDirectives, "enum")
		}
	}
}

// ----------------------------------------------------------------------------
// Rule: unused-enum
// ----------------------------------------------------------------------------

var unusedEnumRule = &Rule{
	Name:     "unused-enum",
	Doc:      "Reports enums no field refers to.",
	Severity: SeverityWarning,
	Run:      checkUnusedEnums,
}

func checkUnusedEnums(f *AnalyzedFile) {
	used := make(map[string]bool)

	forEachType(f, func(td *dml.TypeDef) {
		for _, fd := range td.Fields {
			used[fd.Type.Base()] = true
		}
	})

	for _, def := range f.Document.Definitions {
		if def.Enum != nil && !used[def.Enum.Name] {
			f.report(nodeSpan(def.Enum.NodeMeta), "enum "+def.Enum.Name+" is never used")
		}
	}
}

// ----------------------------------------------------------------------------
// Rule: naming
// ----------------------------------------------------------------------------

var namingRule = &Rule{
	Name:     "naming",
	Doc:      "Suggests PascalCase type names and camelCase field names.",
	Severity: SeverityHint,
	Run:      checkNaming,
}

func checkNaming(f *AnalyzedFile) {
	for _, def := range f.Document.Definitions {
		name, span := definitionName(def)
		if !startsWith(name, unicode.IsUpper) {
			f.report(span, name+" should start with an upper case letter")
		}
	}

	forEachType(f, func(td *dml.TypeDef) {
		for _, fd := range td.Fields {
			if startsWith(fd.Name, unicode.IsUpper) {
				f.report(nodeSpan(fd.NodeMeta), fmt.Sprintf("field %s.%s should start with a lower case letter", td.Name, fd.Name))
			}
		}
	})
}

func startsWith(s string, pred func(rune) bool) bool {
	for _, r := range s {
		return pred(r)
	}

	return false
}

func forEachType(f *AnalyzedFile, fn func(td *dml.TypeDef)) {
	for _, def := range f.Document.Definitions {
		if def.Type != nil {
			fn(def.Type)
		}
	}
}
