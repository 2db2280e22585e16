package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"skiff/internal/diag"
	"skiff/internal/source"
)

type palette struct {
	err, warn, info, note, help *color.Color
}

func newPalette(enabled bool) *palette {
	p := &palette{
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		info: color.New(color.FgCyan, color.Bold),
		note: color.New(color.FgBlue),
		help: color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.help} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *palette) sev(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty renders one diagnostic in human-readable form:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//	    <offending source line>
//	    ^~~~ <label>
//
// Every note renders the same way against its own document, so a
// cross-document diagnostic (duplicate key, namespace violation) shows
// each span in context. The help line comes last.
func Pretty(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	sev := pal.sev(d.Severity)
	tag := sev.Sprintf("%s %s", d.Severity, d.Code.ID())

	if !d.Primary.Valid() {
		fmt.Fprintf(w, "%s: %s\n", tag, d.Message)
		return
	}

	writeLocation(w, fs, d.Primary, opts)
	fmt.Fprintf(w, "%s: %s\n", tag, d.Message)
	// When notes exist the primary span reappears as the first labeled
	// note, so the bare underline would be redundant.
	if !opts.ShowNotes || len(d.Notes) == 0 {
		writeContext(w, fs, d.Primary, sev)
	}

	if opts.ShowNotes {
		for _, n := range d.Notes {
			writeLocation(w, fs, n.Span, opts)
			fmt.Fprintf(w, "%s: %s\n", pal.note.Sprint("note"), n.Msg)
			writeContext(w, fs, n.Span, pal.note)
		}
	}

	if opts.ShowHelp && d.Help != "" {
		fmt.Fprintf(w, "%s %s\n", pal.help.Sprint("help:"), d.Help)
	}
}

// PrettyBag renders a sorted Bag, blank line between diagnostics.
func PrettyBag(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		Pretty(w, d, fs, opts)
	}
}

func writeLocation(w io.Writer, fs *source.FileSet, span source.Span, opts PrettyOpts) {
	f := fs.Get(span.File)
	start, _ := fs.Resolve(span)
	fmt.Fprintf(w, "%s:%d:%d: ", formatPath(f, opts.PathMode, fs), start.Line, start.Col)
}

// writeContext prints the source line the span starts on with a ^~~~
// underline sized to the span's display width. Multi-line spans underline
// to the end of the first line.
func writeContext(w io.Writer, fs *source.FileSet, span source.Span, c *color.Color) {
	f := fs.Get(span.File)
	start, end := fs.Resolve(span)
	line := f.GetLine(start.Line)
	if line == "" && span.Empty() && len(f.Content) == 0 {
		return
	}

	const gutter = "    "
	fmt.Fprintf(w, "%s%s\n", gutter, line)

	col := int(start.Col) - 1
	if col > len(line) {
		col = len(line)
	}
	pad := runewidth.StringWidth(line[:col])

	endCol := len(line)
	if end.Line == start.Line {
		endCol = int(end.Col) - 1
		if endCol > len(line) {
			endCol = len(line)
		}
	}
	width := 1
	if endCol > col {
		width = runewidth.StringWidth(line[col:endCol])
	}

	marker := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(w, "%s%s%s\n", gutter, strings.Repeat(" ", pad), c.Sprint(marker))
}
