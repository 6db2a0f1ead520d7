package dml

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Sentinel errors.
var (
	// ErrConfigNotFound is returned when no .prisma-introspect.yaml is found.
	ErrConfigNotFound = errors.New("dml: no .prisma-introspect.yaml found")

	// ErrUnknownDatabase is returned when an unknown database is requested.
	ErrUnknownDatabase = errors.New("dml: unknown database")

	// ErrSchemaNotFound is returned when the introspected schema does not exist.
	ErrSchemaNotFound = errors.New("dml: schema not found")

	// ErrUnknownStyle is returned for an unrecognized render style name.
	ErrUnknownStyle = errors.New("dml: unknown render style")

	// ErrDuplicateType is returned when two types share a name.
	ErrDuplicateType = errors.New("dml: duplicate type name")

	// ErrDuplicateField is returned when a type declares a field name twice.
	ErrDuplicateField = errors.New("dml: duplicate field name")

	// ErrUnknownType is returned when a field type is neither a scalar nor a
	// declared type.
	ErrUnknownType = errors.New("dml: unknown field type")

	// ErrRelationArity is returned for a relation that is unnamed or does not
	// connect one or two fields.
	ErrRelationArity = errors.New("dml: invalid relation")
)

// IntrospectionError reports a failure to read the database catalog:
// connectivity, missing privileges or a missing schema.
type IntrospectionError struct {
	Database string
	Schema   string
	// Op names the catalog read that failed, e.g. "read tables".
	Op  string
	Err error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("introspecting %s schema %q: %s: %v", e.Database, e.Schema, e.Op, e.Err)
}

func (e *IntrospectionError) Unwrap() error {
	return e.Err
}

// InvalidReferenceModelError reports a reference datamodel that cannot be parsed.
type InvalidReferenceModelError struct {
	Pos lexer.Position
	Err error
}

func (e *InvalidReferenceModelError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("invalid reference model at %s: %v", e.Pos, e.Err)
	}

	return fmt.Sprintf("invalid reference model: %v", e.Err)
}

func (e *InvalidReferenceModelError) Unwrap() error {
	return e.Err
}

// errorPosition extracts a source position from parser and lexer errors.
func errorPosition(err error) lexer.Position {
	var lexErr *LexerError
	if errors.As(err, &lexErr) {
		return lexErr.pos
	}

	var perr participle.Error
	if errors.As(err, &perr) {
		return perr.Position()
	}

	return lexer.Position{}
}
