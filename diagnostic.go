package dml

import "fmt"

// Severity ranks a diagnostic.
type Severity int

// Severities.
const (
	SeverityInfo Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}

	return "info"
}

// Diagnostic codes.
const (
	CodeUnsupportedType    = "unsupported-type"
	CodeNoPrimaryKey       = "no-primary-key"
	CodeAmbiguousLinkTable = "ambiguous-link-table"
	CodeNameConflict       = "name-conflict"
	CodeInvalidEnumValue   = "invalid-enum-value"
	CodeUnresolvedRef      = "unresolved-reference"
	CodeCompositeKey       = "composite-foreign-key"
	CodeKeyReference       = "primary-key-reference"
)

// Diagnostic is a non-fatal finding of an introspection run. Diagnostics never
// stop the pipeline.
type Diagnostic struct {
	Severity Severity
	Code     string
	Table    string
	Column   string
	Message  string
}

func (d Diagnostic) String() string {
	loc := d.Table
	if d.Column != "" {
		loc += "." + d.Column
	}

	if loc == "" {
		return fmt.Sprintf("%s[%s]: %s", d.Severity, d.Code, d.Message)
	}

	return fmt.Sprintf("%s[%s] %s: %s", d.Severity, d.Code, loc, d.Message)
}

// Warnings returns the warning-level diagnostics.
func Warnings(diags []Diagnostic) []Diagnostic {
	var out []Diagnostic

	for _, d := range diags {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}

	return out
}
