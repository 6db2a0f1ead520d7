package postgres

import (
	"regexp"
	"strings"

	"github.com/prisma/dml"
	"github.com/prisma/dml/introspection"
)

// scalars maps SQL type names and their udt aliases to scalars.
var scalars = map[string]string{
	"smallint":                    dml.TypeInt,
	"integer":                     dml.TypeInt,
	"bigint":                      dml.TypeInt,
	"int2":                        dml.TypeInt,
	"int4":                        dml.TypeInt,
	"int8":                        dml.TypeInt,
	"smallserial":                 dml.TypeInt,
	"serial":                      dml.TypeInt,
	"bigserial":                   dml.TypeInt,
	"real":                        dml.TypeFloat,
	"double precision":            dml.TypeFloat,
	"numeric":                     dml.TypeFloat,
	"decimal":                     dml.TypeFloat,
	"float4":                      dml.TypeFloat,
	"float8":                      dml.TypeFloat,
	"boolean":                     dml.TypeBoolean,
	"bool":                        dml.TypeBoolean,
	"character":                   dml.TypeString,
	"character varying":           dml.TypeString,
	"text":                        dml.TypeString,
	"bpchar":                      dml.TypeString,
	"varchar":                     dml.TypeString,
	"json":                        dml.TypeJSON,
	"jsonb":                       dml.TypeJSON,
	"date":                        dml.TypeDateTime,
	"timestamp":                   dml.TypeDateTime,
	"timestamp without time zone": dml.TypeDateTime,
	"timestamp with time zone":    dml.TypeDateTime,
	"timestamptz":                 dml.TypeDateTime,
	"time":                        dml.TypeDateTime,
	"time without time zone":      dml.TypeDateTime,
	"time with time zone":         dml.TypeDateTime,
	"timetz":                      dml.TypeDateTime,
	"uuid":                        dml.TypeUUID,
}

// MapColumn maps a column to a scalar, an enum or an unsupported type. Arrays
// map to lists of their element type.
func (d *Dialect) MapColumn(s *introspection.DatabaseSchema, _ *introspection.Table, c *introspection.Column) introspection.TypeMapping {
	nt, err := introspection.ParseNativeType(c.Type)
	if err != nil {
		return introspection.TypeMapping{Unsupported: true, Native: c.Type}
	}

	if e := s.Enum(nt.Name); e != nil {
		return introspection.TypeMapping{Enum: e.Name, IsList: nt.IsArray}
	}

	scalar, ok := scalars[nt.Name]
	if !ok {
		return introspection.TypeMapping{Unsupported: true, Native: c.Type}
	}

	return introspection.TypeMapping{Scalar: scalar, IsList: nt.IsArray}
}

var (
	nextvalPattern = regexp.MustCompile(`^nextval\('([^']+)'(?:::regclass)?\)$`)
	nowPattern     = regexp.MustCompile(`(?i)^(now\(\)|current_timestamp(\(\d*\))?|localtimestamp|'now'::\w+.*)$`)
)

// ParseDefault interprets a column default expression: nextval() names a
// sequence, now() and CURRENT_TIMESTAMP set Now, and literals lose their
// quotes and casts. Any other expression yields no default.
func (d *Dialect) ParseDefault(_ *introspection.DatabaseSchema, c *introspection.Column, _ introspection.TypeMapping) introspection.Default {
	if c.Default == nil {
		return introspection.Default{}
	}

	raw := strings.TrimSpace(*c.Default)

	if m := nextvalPattern.FindStringSubmatch(raw); m != nil {
		return introspection.Default{Sequence: sequenceName(m[1])}
	}

	if nowPattern.MatchString(raw) {
		return introspection.Default{Now: true}
	}

	value, ok := literal(raw)
	if !ok {
		return introspection.Default{}
	}

	return introspection.Default{Value: &value}
}

// sequenceName strips the schema qualifier and identifier quotes from a
// regclass literal: `public."Order_id_seq"` -> `Order_id_seq`.
func sequenceName(s string) string {
	quoted := false
	start := 0

	for i, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
		case r == '.' && !quoted:
			start = i + 1
		}
	}

	return strings.ReplaceAll(strings.Trim(s[start:], `"`), `""`, `"`)
}

// literal extracts the value of a quoted, cast or bare literal default.
func literal(raw string) (string, bool) {
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		raw = strings.TrimSpace(raw[1 : len(raw)-1])
	}

	if strings.HasPrefix(raw, "'") {
		end := closingQuote(raw)
		if end < 0 {
			return "", false
		}

		rest := raw[end+1:]
		if rest != "" && !strings.HasPrefix(rest, "::") {
			return "", false
		}

		return strings.ReplaceAll(raw[1:end], "''", "'"), true
	}

	value, _, _ := strings.Cut(raw, "::")

	switch {
	case strings.EqualFold(value, "NULL"):
		return "", false
	case strings.EqualFold(value, "true"), strings.EqualFold(value, "false"):
		return strings.ToLower(value), true
	case isNumber(value):
		return value, true
	default:
		return "", false
	}
}

// closingQuote returns the index of the quote ending the literal that opens
// s, skipping doubled quotes.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		if s[i] != '\'' {
			continue
		}

		if i+1 < len(s) && s[i+1] == '\'' {
			i++

			continue
		}

		return i
	}

	return -1
}

func isNumber(s string) bool {
	s = strings.TrimPrefix(s, "-")
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
