// Package report prints the diagnostics and summary of an introspection run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/prisma/dml"
)

// Formatter renders diagnostics as they are reported, then a summary.
type Formatter interface {
	Diagnostic(d dml.Diagnostic) error
	Summary(s Summary) error
}

// Summary describes a finished run.
type Summary struct {
	Database    string
	Schema      string
	Types       int
	Diagnostics []dml.Diagnostic
	Elapsed     time.Duration
}

// Warnings counts the warning-level diagnostics.
func (s Summary) Warnings() int {
	return len(dml.Warnings(s.Diagnostics))
}

// -----------------------------------------------------------------------------
// Text Formatter
// -----------------------------------------------------------------------------

// TextFormatter prints one line per diagnostic. Output is styled only when
// the writer is a terminal.
type TextFormatter struct {
	w       io.Writer
	warning lipgloss.Style
	info    lipgloss.Style
	dim     lipgloss.Style
	ok      lipgloss.Style
}

// NewTextFormatter creates a text formatter.
func NewTextFormatter(w io.Writer) *TextFormatter {
	r := lipgloss.NewRenderer(w)

	f := &TextFormatter{
		w:       w,
		warning: r.NewStyle(),
		info:    r.NewStyle(),
		dim:     r.NewStyle(),
		ok:      r.NewStyle(),
	}

	if IsTerminal(w) {
		f.warning = f.warning.Foreground(lipgloss.Color("3")).Bold(true)
		f.info = f.info.Foreground(lipgloss.Color("4"))
		f.dim = f.dim.Foreground(lipgloss.Color("8"))
		f.ok = f.ok.Foreground(lipgloss.Color("2")).Bold(true)
	}

	return f
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// Diagnostic prints a diagnostic.
func (t *TextFormatter) Diagnostic(d dml.Diagnostic) error {
	label := t.info.Render(d.Severity.String())
	if d.Severity == dml.SeverityWarning {
		label = t.warning.Render(d.Severity.String())
	}

	loc := d.Table
	if d.Column != "" {
		loc += "." + d.Column
	}

	if loc != "" {
		loc += ": "
	}

	_, err := fmt.Fprintf(t.w, "%s %s%s %s\n", label, loc, d.Message, t.dim.Render("["+d.Code+"]"))

	return err
}

// Summary prints the final line.
func (t *TextFormatter) Summary(s Summary) error {
	status := t.ok.Render("OK")
	if s.Warnings() > 0 {
		status = t.warning.Render("WARN")
	}

	_, err := fmt.Fprintf(t.w, "%s %s/%s: %d types, %d warnings in %s\n",
		status,
		s.Database,
		s.Schema,
		s.Types,
		s.Warnings(),
		s.Elapsed.Round(time.Millisecond),
	)

	return err
}

// -----------------------------------------------------------------------------
// JSON Formatter
// -----------------------------------------------------------------------------

// JSONFormatter outputs newline-delimited JSON.
type JSONFormatter struct {
	enc *json.Encoder
}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{enc: json.NewEncoder(w)}
}

type jsonDiagnostic struct {
	Action   string `json:"action"`
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Table    string `json:"table,omitempty"`
	Column   string `json:"column,omitempty"`
	Message  string `json:"message"`
}

// Diagnostic outputs a diagnostic object.
func (j *JSONFormatter) Diagnostic(d dml.Diagnostic) error {
	return j.enc.Encode(jsonDiagnostic{
		Action:   "diagnostic",
		Severity: d.Severity.String(),
		Code:     d.Code,
		Table:    d.Table,
		Column:   d.Column,
		Message:  d.Message,
	})
}

type jsonSummary struct {
	Action   string  `json:"action"`
	Database string  `json:"database"`
	Schema   string  `json:"schema"`
	Types    int     `json:"types"`
	Warnings int     `json:"warnings"`
	Elapsed  float64 `json:"elapsed"`
}

// Summary outputs the summary object.
func (j *JSONFormatter) Summary(s Summary) error {
	return j.enc.Encode(jsonSummary{
		Action:   "summary",
		Database: s.Database,
		Schema:   s.Schema,
		Types:    s.Types,
		Warnings: s.Warnings(),
		Elapsed:  s.Elapsed.Seconds(),
	})
}

// NewFormatter creates a formatter by name: "json" or "text".
func NewFormatter(name string, w io.Writer) Formatter { //nolint:ireturn
	if name == "json" {
		return NewJSONFormatter(w)
	}

	return NewTextFormatter(w)
}

// Write reports every diagnostic and then the summary.
func Write(f Formatter, s Summary) error {
	for _, d := range s.Diagnostics {
		if err := f.Diagnostic(d); err != nil {
			return err
		}
	}

	return f.Summary(s)
}
