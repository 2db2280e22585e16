package diagfmt

import (
	"fmt"
	"io"

	"skiff/internal/diag"
	"skiff/internal/source"
)

// Short renders one diagnostic as a single machine-grepable line:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// Notes and help are dropped; editors and scripts get the location only.
func Short(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, mode PathMode) {
	if !d.Primary.Valid() {
		fmt.Fprintf(w, "%s %s: %s\n", d.Severity, d.Code.ID(), d.Message)
		return
	}
	f := fs.Get(d.Primary.File)
	start, _ := fs.Resolve(d.Primary)
	fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
		formatPath(f, mode, fs), start.Line, start.Col, d.Severity, d.Code.ID(), d.Message)
}

// ShortBag renders every diagnostic of a sorted Bag, one line each.
func ShortBag(w io.Writer, bag *diag.Bag, fs *source.FileSet, mode PathMode) {
	for _, d := range bag.Items() {
		Short(w, d, fs, mode)
	}
}
