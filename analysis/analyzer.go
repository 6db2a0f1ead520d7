// Package analysis checks datamodel files and reports positioned diagnostics
// for editors and the command line.
package analysis

import (
	"cmp"
	"errors"
	"slices"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/prisma/dml"
)

// Source is reported on every diagnostic.
const Source = "dml"

// Span is a source range. Lines and columns are 1-based and End is exclusive.
type Span struct {
	Start lexer.Position
	End   lexer.Position
}

func nodeSpan(m dml.NodeMeta) Span {
	return Span{Start: m.Pos, End: m.EndPos}
}

// Contains reports whether a line and column fall inside the span.
func (s Span) Contains(line, col int) bool {
	if line < s.Start.Line || line > s.End.Line {
		return false
	}

	if line == s.Start.Line && col < s.Start.Column {
		return false
	}

	if line == s.End.Line && col >= s.End.Column {
		return false
	}

	return true
}

// DiagnosticSeverity ranks a diagnostic. The values match the LSP severities.
type DiagnosticSeverity int

// Severities.
const (
	SeverityError DiagnosticSeverity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

func (s DiagnosticSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Diagnostic is a positioned finding in a datamodel file.
type Diagnostic struct {
	Span     Span
	Severity DiagnosticSeverity
	Message  string
	Code     string
	Source   string
}

// AnalyzedFile is the outcome of analyzing one datamodel file.
type AnalyzedFile struct {
	Path  string
	Style dml.Style

	// Document and Model are nil when the file does not parse.
	Document   *dml.Document
	Model      *dml.Model
	ParseError error

	Symbols     *SymbolTable
	Diagnostics []Diagnostic

	// rule is the rule currently running.
	rule *Rule
}

// HasErrors reports whether any diagnostic is an error.
func (f *AnalyzedFile) HasErrors() bool {
	return slices.ContainsFunc(f.Diagnostics, func(d Diagnostic) bool {
		return d.Severity == SeverityError
	})
}

// Errors returns the error diagnostics.
func (f *AnalyzedFile) Errors() []Diagnostic {
	var out []Diagnostic

	for _, d := range f.Diagnostics {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}

	return out
}

func (f *AnalyzedFile) report(span Span, msg string) {
	f.Diagnostics = append(f.Diagnostics, Diagnostic{
		Span:     span,
		Severity: f.rule.Severity,
		Message:  msg,
		Code:     f.rule.Name,
		Source:   Source,
	})
}

// Analyzer runs a set of rules over datamodel files.
type Analyzer struct {
	style dml.Style
	rules []*Rule
}

// NewAnalyzer creates an analyzer with the default rules.
func NewAnalyzer(style dml.Style) *Analyzer {
	return &Analyzer{style: style, rules: DefaultRules()}
}

// NewAnalyzerWithRules creates an analyzer with custom rules.
func NewAnalyzerWithRules(style dml.Style, rules []*Rule) *Analyzer {
	return &Analyzer{style: style, rules: rules}
}

// Analyze parses and checks a datamodel file. A file that does not parse
// yields a single parse-error diagnostic and no symbols.
func (a *Analyzer) Analyze(path string, content []byte) *AnalyzedFile {
	result := &AnalyzedFile{
		Path:        path,
		Style:       a.style,
		Symbols:     NewSymbolTable(),
		Diagnostics: []Diagnostic{},
	}

	doc, err := dml.ParseDocument(content)
	if err != nil {
		result.ParseError = err
		result.Diagnostics = append(result.Diagnostics, parseErrorToDiagnostic(err))

		return result
	}

	result.Document = doc
	result.Model = dml.Lower(doc, a.style)

	buildSymbols(result)

	for _, rule := range a.rules {
		result.rule = rule
		rule.Run(result)
	}

	result.rule = nil

	slices.SortStableFunc(result.Diagnostics, func(x, y Diagnostic) int {
		return cmp.Or(
			cmp.Compare(x.Span.Start.Line, y.Span.Start.Line),
			cmp.Compare(x.Span.Start.Column, y.Span.Start.Column),
		)
	})

	return result
}

func parseErrorToDiagnostic(err error) Diagnostic {
	d := Diagnostic{
		Severity: SeverityError,
		Message:  err.Error(),
		Code:     "parse-error",
		Source:   Source,
	}

	type positioned interface {
		Position() lexer.Position
		Message() string
	}

	var pe positioned
	if errors.As(err, &pe) {
		pos := pe.Position()
		d.Span = Span{Start: pos, End: pos}
		d.Message = pe.Message()
	}

	return d
}
