package sqlite

import (
	"regexp"
	"strings"

	"github.com/prisma/dml"
	"github.com/prisma/dml/introspection"
)

// affinity maps a declared type by substring, first match wins. The order
// follows SQLite's affinity rules, with the common non-affinity spellings
// (BOOLEAN, DATETIME, JSON) checked first.
var affinity = []struct {
	substrings []string
	scalar     string
}{
	{[]string{"BOOL"}, dml.TypeBoolean},
	{[]string{"JSON"}, dml.TypeJSON},
	{[]string{"DATE", "TIME"}, dml.TypeDateTime},
	{[]string{"INT"}, dml.TypeInt},
	{[]string{"CHAR", "CLOB", "TEXT"}, dml.TypeString},
	{[]string{"REAL", "FLOA", "DOUB", "NUMERIC", "DECIMAL"}, dml.TypeFloat},
}

// MapColumn maps a declared column type by affinity. Columns without a
// declared type and BLOB columns are unsupported.
func (d *Dialect) MapColumn(_ *introspection.DatabaseSchema, _ *introspection.Table, c *introspection.Column) introspection.TypeMapping {
	declared := strings.ToUpper(strings.TrimSpace(c.Type))

	if declared != "" {
		for _, a := range affinity {
			for _, sub := range a.substrings {
				if strings.Contains(declared, sub) {
					return introspection.TypeMapping{Scalar: a.scalar}
				}
			}
		}
	}

	native := c.Type
	if native == "" {
		native = "BLOB"
	}

	return introspection.TypeMapping{Unsupported: true, Native: native}
}

var nowPattern = regexp.MustCompile(`(?i)^\(?\s*(current_timestamp|current_date|current_time|datetime\('now'\)|date\('now'\))\s*\)?$`)

// ParseDefault interprets the default expression of a column.
func (d *Dialect) ParseDefault(_ *introspection.DatabaseSchema, c *introspection.Column, mapping introspection.TypeMapping) introspection.Default {
	if c.Default == nil {
		return introspection.Default{}
	}

	raw := strings.TrimSpace(*c.Default)

	if nowPattern.MatchString(raw) {
		return introspection.Default{Now: true}
	}

	var value string

	switch {
	case len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'':
		value = strings.ReplaceAll(raw[1:len(raw)-1], "''", "'")
	case strings.EqualFold(raw, "true"), strings.EqualFold(raw, "false"):
		value = strings.ToLower(raw)
	case isNumber(raw):
		value = raw
	default:
		return introspection.Default{}
	}

	if mapping.Scalar == dml.TypeBoolean {
		switch value {
		case "0":
			value = "false"
		case "1":
			value = "true"
		}
	}

	return introspection.Default{Value: &value}
}

func isNumber(s string) bool {
	s = strings.TrimLeft(s, "+-")
	if s == "" {
		return false
	}

	dot := false

	for _, r := range s {
		switch {
		case r == '.' && !dot:
			dot = true
		case r < '0' || r > '9':
			return false
		}
	}

	return true
}
