package diag

import (
	"skiff/internal/source"
)

// Note is a labeled secondary span. Its span may point into a different
// document than the primary (cross-document diagnostics).
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is one self-contained finding. The span set plus the FileSet
// the spans index into is sufficient to render the original source lines.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Help     string
}

// New constructs an error-severity diagnostic.
func New(code Code, primary source.Span, msg string) *Diagnostic {
	return &Diagnostic{
		Severity: SevError,
		Code:     code,
		Message:  msg,
		Primary:  primary,
	}
}

// WithNote appends a labeled span.
func (d *Diagnostic) WithNote(sp source.Span, msg string) *Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

// WithHelp attaches a help line rendered after the source context.
func (d *Diagnostic) WithHelp(msg string) *Diagnostic {
	d.Help = msg
	return d
}

// Error implements the error interface so a Diagnostic can travel through
// ordinary error returns without losing structure.
func (d *Diagnostic) Error() string {
	return d.Message
}
