package diagfmt

import (
	"strings"
	"testing"

	"skiff/internal/diag"
	"skiff/internal/source"
)

func span(fs *source.FileSet, id source.FileID, lit string, last bool) source.Span {
	content := string(fs.Get(id).Content)
	var idx int
	if last {
		idx = strings.LastIndex(content, lit)
	} else {
		idx = strings.Index(content, lit)
	}
	if idx < 0 {
		panic("literal not found: " + lit)
	}
	return source.Span{File: id, Start: uint32(idx), End: uint32(idx + len(lit))}
}

func TestPrettySingleSpan(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("config.toml", []byte("PORT = \"abc\"\n"))
	d := diag.New(diag.CfgValueMismatch,
		source.Span{File: id, Start: 0, End: 4},
		`value of "PORT" does not match its declared pattern`).
		WithHelp("regex: ^[0-9]+$")

	var sb strings.Builder
	Pretty(&sb, d, fs, PrettyOpts{ShowNotes: true, ShowHelp: true})

	want := `config.toml:1:1: ERROR CFG1005: value of "PORT" does not match its declared pattern
    PORT = "abc"
    ^~~~
help: regex: ^[0-9]+$
`
	if sb.String() != want {
		t.Errorf("Pretty output:\n%s\nwant:\n%s", sb.String(), want)
	}
}

func TestPrettyMultiSpan(t *testing.T) {
	fs := source.NewFileSet()
	text := "secrets = [\"TOKEN\"]\nenv = [\"TOKEN\"]\n"
	id := fs.AddVirtual("spec.toml", []byte(text))

	redef := span(fs, id, `"TOKEN"`, true)
	prev := span(fs, id, `"TOKEN"`, false)
	d := diag.New(diag.CfgDuplicateSpecKey, redef,
		`duplicate environment variable "TOKEN" in spec`).
		WithNote(redef, "redefined here").
		WithNote(prev, "previous definition")

	var sb strings.Builder
	Pretty(&sb, d, fs, PrettyOpts{ShowNotes: true, ShowHelp: true})

	want := `spec.toml:2:8: ERROR CFG1001: duplicate environment variable "TOKEN" in spec
spec.toml:2:8: note: redefined here
    env = ["TOKEN"]
           ^~~~~~~
spec.toml:1:12: note: previous definition
    secrets = ["TOKEN"]
               ^~~~~~~
`
	if sb.String() != want {
		t.Errorf("Pretty output:\n%s\nwant:\n%s", sb.String(), want)
	}
}

func TestPrettyCrossDocument(t *testing.T) {
	fs := source.NewFileSet()
	specText := "secrets = [{ key = \"S\" }]\n"
	cfgText := "id = \"app\"\n\n[env]\nS = \"v\"\n"
	specID := fs.AddVirtual("spec.toml", []byte(specText))
	cfgID := fs.AddVirtual("config.toml", []byte(cfgText))

	d := diag.New(diag.CfgSecretAsEnv, span(fs, cfgID, "S =", false),
		`"S" is declared as a secret but defined as a plain environment variable`).
		WithNote(span(fs, specID, `{ key = "S" }`, false), "declared as a secret here")
	// Trim the note span back to the key for a tighter underline.
	d.Primary.End = d.Primary.Start + 1

	var sb strings.Builder
	Pretty(&sb, d, fs, PrettyOpts{ShowNotes: true})

	out := sb.String()
	if !strings.Contains(out, "config.toml:4:1: ERROR CFG1006:") {
		t.Errorf("missing primary header:\n%s", out)
	}
	if !strings.Contains(out, "spec.toml:1:12: note: declared as a secret here") {
		t.Errorf("missing cross-document note:\n%s", out)
	}
	if !strings.Contains(out, "    secrets = [{ key = \"S\" }]") {
		t.Errorf("note context not rendered from its own document:\n%s", out)
	}
}

func TestPrettyNoLocation(t *testing.T) {
	fs := source.NewFileSet()
	d := diag.New(diag.IOReadFailed, source.Span{File: source.NoFile},
		"cannot read missing.toml: no such file")

	var sb strings.Builder
	Pretty(&sb, d, fs, PrettyOpts{ShowNotes: true, ShowHelp: true})

	want := "ERROR IO4000: cannot read missing.toml: no such file\n"
	if sb.String() != want {
		t.Errorf("Pretty output = %q, want %q", sb.String(), want)
	}
}

func TestShort(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("spec.toml", []byte("env = [\"A\"]\n"))
	d := diag.New(diag.CfgUndefinedKey,
		source.Span{File: id, Start: 7, End: 10},
		`environment variable "A" is required but not defined`)

	var sb strings.Builder
	Short(&sb, d, fs, PathModeAuto)

	want := "spec.toml:1:8: ERROR CFG1003: environment variable \"A\" is required but not defined\n"
	if sb.String() != want {
		t.Errorf("Short output = %q, want %q", sb.String(), want)
	}
}
