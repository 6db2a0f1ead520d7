package mysql

import (
	"regexp"
	"strings"

	"github.com/prisma/dml"
	"github.com/prisma/dml/introspection"
)

var scalars = map[string]string{
	"bool":       dml.TypeBoolean,
	"boolean":    dml.TypeBoolean,
	"tinyint":    dml.TypeInt,
	"smallint":   dml.TypeInt,
	"mediumint":  dml.TypeInt,
	"int":        dml.TypeInt,
	"integer":    dml.TypeInt,
	"bigint":     dml.TypeInt,
	"year":       dml.TypeInt,
	"decimal":    dml.TypeFloat,
	"numeric":    dml.TypeFloat,
	"float":      dml.TypeFloat,
	"double":     dml.TypeFloat,
	"real":       dml.TypeFloat,
	"char":       dml.TypeString,
	"varchar":    dml.TypeString,
	"binary":     dml.TypeString,
	"varbinary":  dml.TypeString,
	"tinytext":   dml.TypeString,
	"text":       dml.TypeString,
	"mediumtext": dml.TypeString,
	"longtext":   dml.TypeString,
	"json":       dml.TypeJSON,
	"date":       dml.TypeDateTime,
	"datetime":   dml.TypeDateTime,
	"timestamp":  dml.TypeDateTime,
	"time":       dml.TypeDateTime,
}

// MapColumn maps a column type. tinyint(1) is a Boolean, and enum columns map
// to the enum synthesized for the column.
func (d *Dialect) MapColumn(s *introspection.DatabaseSchema, t *introspection.Table, c *introspection.Column) introspection.TypeMapping {
	nt, err := introspection.ParseNativeType(c.Type)
	if err != nil {
		return introspection.TypeMapping{Unsupported: true, Native: c.Type}
	}

	switch {
	case nt.Name == "enum":
		if e := s.ColumnEnum(t.Name, c.Name); e != nil {
			return introspection.TypeMapping{Enum: e.Name}
		}

		return introspection.TypeMapping{Scalar: dml.TypeString}
	case nt.Name == "tinyint" && nt.IntArg(0) == 1:
		return introspection.TypeMapping{Scalar: dml.TypeBoolean}
	}

	scalar, ok := scalars[nt.Name]
	if !ok {
		return introspection.TypeMapping{Unsupported: true, Native: c.Type}
	}

	return introspection.TypeMapping{Scalar: scalar}
}

var currentTimestampPattern = regexp.MustCompile(`(?i)^(current_timestamp|now)(\(\d*\))?$`)

func isCurrentTimestamp(s string) bool {
	return currentTimestampPattern.MatchString(strings.TrimSpace(s))
}

// ParseDefault interprets a column default. MySQL reports literal defaults
// unquoted and MariaDB quotes them; both are accepted. Boolean defaults are
// spelled true and false.
func (d *Dialect) ParseDefault(_ *introspection.DatabaseSchema, c *introspection.Column, mapping introspection.TypeMapping) introspection.Default {
	if c.Default == nil {
		return introspection.Default{}
	}

	raw := strings.TrimSpace(*c.Default)

	switch {
	case isCurrentTimestamp(raw):
		return introspection.Default{Now: true}
	case strings.EqualFold(raw, "NULL"):
		return introspection.Default{}
	}

	value := raw
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		value = strings.ReplaceAll(raw[1:len(raw)-1], "''", "'")
	}

	if mapping.Scalar == dml.TypeBoolean {
		switch value {
		case "0", "b'0'":
			value = "false"
		case "1", "b'1'":
			value = "true"
		}
	}

	return introspection.Default{Value: &value}
}
