package diagfmt

import (
	"encoding/json"
	"strings"
	"testing"

	"skiff/internal/diag"
	"skiff/internal/source"
)

func TestBuildDiagnosticsOutput(t *testing.T) {
	fs := source.NewFileSet()
	text := "env = [\"A\", \"A\"]\n"
	id := fs.AddVirtual("spec.toml", []byte(text))

	bag := diag.NewBag()
	bag.Add(diag.New(diag.CfgDuplicateSpecKey, span(fs, id, `"A"`, true),
		`duplicate environment variable "A" in spec`).
		WithNote(span(fs, id, `"A"`, false), "previous definition").
		WithHelp("remove one of the declarations"))

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{
		IncludePositions: true,
		IncludeNotes:     true,
	})
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("output = %+v", out)
	}

	d := out.Diagnostics[0]
	if d.Severity != "ERROR" || d.Code != "CFG1001" {
		t.Errorf("severity/code = %s/%s", d.Severity, d.Code)
	}
	if d.Location == nil || d.Location.File != "spec.toml" {
		t.Fatalf("location = %+v", d.Location)
	}
	if d.Location.StartByte != 12 || d.Location.EndByte != 15 {
		t.Errorf("bytes = %d..%d, want 12..15", d.Location.StartByte, d.Location.EndByte)
	}
	if d.Location.StartLine != 1 || d.Location.StartCol != 13 {
		t.Errorf("pos = %d:%d, want 1:13", d.Location.StartLine, d.Location.StartCol)
	}
	if len(d.Notes) != 1 || d.Notes[0].Message != "previous definition" {
		t.Errorf("notes = %+v", d.Notes)
	}
	if d.Help != "remove one of the declarations" {
		t.Errorf("help = %q", d.Help)
	}
}

func TestJSONOmitsLocationWhenAbsent(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag()
	bag.Add(diag.New(diag.IOReadFailed, source.Span{File: source.NoFile}, "cannot read x"))

	var sb strings.Builder
	if err := JSON(&sb, bag, fs, JSONOpts{}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var out DiagnosticsOutput
	if err := json.Unmarshal([]byte(sb.String()), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(out.Diagnostics) != 1 || out.Diagnostics[0].Location != nil {
		t.Errorf("output = %+v", out)
	}
}

func TestJSONMaxTruncatesOutputOnly(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("spec.toml", []byte("env = [\"A\"]\n"))

	bag := diag.NewBag()
	for i := 0; i < 3; i++ {
		bag.Add(diag.New(diag.CfgUndefinedKey, source.Point(id, 0), "missing"))
	}

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 2})
	if len(out.Diagnostics) != 2 || out.Count != 3 {
		t.Errorf("diagnostics = %d, count = %d, want 2 and 3", len(out.Diagnostics), out.Count)
	}
}
