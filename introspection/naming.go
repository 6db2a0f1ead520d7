package introspection

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jinzhu/inflection"
	"github.com/prisma/dml"
)

// TypeName derives a type name from a table name: singular, camel cased and
// capitalized. ALL-UPPERCASE table names are kept as they are.
func TypeName(table string) string {
	if isAllUpper(table) {
		return identifier(table)
	}

	return identifier(Capitalize(CamelCase(inflection.Singular(table))))
}

// EnumName derives an enum type name from a native enum name.
func EnumName(name string) string {
	if isAllUpper(name) {
		return identifier(name)
	}

	return identifier(Capitalize(CamelCase(name)))
}

// FieldName derives a field name from a column name. ALL-UPPERCASE names are
// lower-cased first.
func FieldName(column string) string {
	if isAllUpper(column) {
		column = strings.ToLower(column)
	}

	return identifier(CamelCase(column))
}

// RelationFieldName derives the name of the field replacing a foreign key
// column: the column name without its id suffix.
func RelationFieldName(column string) string {
	return FieldName(TrimIDSuffix(column))
}

// InverseFieldName derives the name of a back-relation field from the related
// type: "Post" -> "post", or "posts" for a list.
func InverseFieldName(related string, list bool) string {
	if list {
		related = inflection.Plural(related)
	}

	return LowerFirst(related)
}

// TrimIDSuffix removes a trailing "_id", "Id" or "ID" unless nothing would remain.
func TrimIDSuffix(column string) string {
	for _, suffix := range []string{"_id", "_ID", "Id", "ID"} {
		if trimmed, ok := strings.CutSuffix(column, suffix); ok && strings.Trim(trimmed, "_") != "" {
			return strings.TrimRight(trimmed, "_")
		}
	}

	return column
}

// CamelCase joins the words of an underscore, dash or space separated name,
// capitalizing every word after the first: "user_profile" -> "userProfile".
func CamelCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})

	if len(words) == 0 {
		return s
	}

	var b strings.Builder

	b.WriteString(words[0])

	for _, w := range words[1:] {
		b.WriteString(Capitalize(w))
	}

	return b.String()
}

// Capitalize upper-cases the first letter.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}

	return string(unicode.ToUpper(r)) + s[size:]
}

// LowerFirst lower-cases the first letter.
func LowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}

	return string(unicode.ToLower(r)) + s[size:]
}

func isAllUpper(s string) bool {
	hasLetter := false

	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}

		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}

	return hasLetter
}

// identifier drops characters that cannot appear in a datamodel identifier
// and prefixes names that would start with a digit.
func identifier(s string) string {
	if dml.IsIdentifier(s) {
		return s
	}

	var b strings.Builder

	for _, r := range s {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}

	out := b.String()
	if out == "" || unicode.IsDigit([]rune(out)[0]) {
		out = "_" + out
	}

	return out
}
