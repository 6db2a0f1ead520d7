package introspection

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Native type parsing errors.
var (
	ErrEmptyTypeString   = errors.New("empty type string")
	ErrInvalidNativeType = errors.New("invalid native type")
)

// NativeType is a parsed column type such as "numeric(10,2)",
// "int(11) unsigned", "character varying(255)" or "integer[]".
type NativeType struct {
	// Name is the lower-cased base name, e.g. "varchar", "character varying".
	Name string
	// Args are the parenthesized arguments with quotes removed.
	Args []string
	// Unsigned is set for MySQL unsigned integers.
	Unsigned bool
	// IsArray is set for Postgres arrays, spelled "integer[]" or "_int4".
	IsArray bool
}

// String renders the type the way a catalog would spell it.
func (t *NativeType) String() string {
	if t == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString(t.Name)

	if len(t.Args) > 0 {
		b.WriteString("(")
		b.WriteString(strings.Join(t.Args, ","))
		b.WriteString(")")
	}

	if t.Unsigned {
		b.WriteString(" unsigned")
	}

	if t.IsArray {
		b.WriteString("[]")
	}

	return b.String()
}

// IntArg returns the i-th argument as an integer, or -1.
func (t *NativeType) IntArg(i int) int {
	if i >= len(t.Args) {
		return -1
	}

	n, err := strconv.Atoi(strings.TrimSpace(t.Args[i]))
	if err != nil {
		return -1
	}

	return n
}

// ParseNativeType parses a catalog type string.
//
// Examples:
//
//	"varchar(255)"          -> Name="varchar", Args=["255"]
//	"decimal(10, 2)"        -> Name="decimal", Args=["10", "2"]
//	"int(11) unsigned"      -> Name="int", Args=["11"], Unsigned
//	"enum('a','b')"         -> Name="enum", Args=["a", "b"]
//	"_int4"                 -> Name="int4", IsArray
//	"timestamp(3) with time zone" -> Name="timestamp with time zone", Args=["3"]
func ParseNativeType(s string) (*NativeType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyTypeString
	}

	t := &NativeType{}

	for strings.HasSuffix(s, "[]") {
		t.IsArray = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "[]"))
	}

	if strings.HasPrefix(s, "_") && len(s) > 1 && !strings.ContainsAny(s, "( ") {
		t.IsArray = true
		s = s[1:]
	}

	if open := strings.IndexByte(s, '('); open >= 0 {
		end, args, err := parseArgs(s, open)
		if err != nil {
			return nil, err
		}

		t.Args = args
		s = strings.TrimSpace(s[:open]) + " " + strings.TrimSpace(s[end+1:])
	}

	words := strings.Fields(strings.ToLower(s))

	kept := words[:0]
	for _, w := range words {
		switch w {
		case "unsigned":
			t.Unsigned = true
		case "zerofill":
		default:
			kept = append(kept, w)
		}
	}

	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNativeType, s)
	}

	t.Name = strings.Join(kept, " ")

	return t, nil
}

// parseArgs splits the parenthesized argument list starting at open. Quoted
// arguments may contain commas, parentheses and doubled quotes.
func parseArgs(s string, open int) (int, []string, error) {
	var (
		args    []string
		current strings.Builder
		quote   byte
		hasArg  bool
	)

	for i := open + 1; i < len(s); i++ {
		c := s[i]

		if quote != 0 {
			if c == quote {
				if i+1 < len(s) && s[i+1] == quote {
					current.WriteByte(c)
					i++

					continue
				}

				quote = 0

				continue
			}

			if c == '\\' && i+1 < len(s) {
				i++
				current.WriteByte(s[i])

				continue
			}

			current.WriteByte(c)

			continue
		}

		switch c {
		case '\'', '"':
			quote = c
			hasArg = true
		case ',':
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		case ')':
			if hasArg || strings.TrimSpace(current.String()) != "" || len(args) > 0 {
				args = append(args, strings.TrimSpace(current.String()))
			}

			return i, args, nil
		default:
			current.WriteByte(c)
		}
	}

	return 0, nil, fmt.Errorf("%w: unbalanced parentheses in %q", ErrInvalidNativeType, s)
}

// typeIdentifier turns a native type into an identifier usable as the type of
// a commented-out field, e.g. "double precision" -> "double_precision".
func typeIdentifier(native string) string {
	var b strings.Builder

	for _, r := range strings.TrimSpace(native) {
		switch {
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '(' || r == ',':
			b.WriteRune('_')
		}
	}

	out := strings.Trim(b.String(), "_")
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}

	if out == "" || out[0] >= '0' && out[0] <= '9' {
		out = "t" + out
	}

	return out
}
