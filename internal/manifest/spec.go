// Package manifest holds the typed model of the two deployment documents,
// the shorthand normalization pass, and the cross-document validator.
//
// The specification document declares what an application needs (required
// environment variables and secrets, optional regex constraints); the
// configuration document supplies the operator's concrete values. Both are
// projected out of the spanned tree produced by internal/toml, so every
// entity keeps the byte range it came from and diagnostics can point at
// the original text.
package manifest

import (
	"fmt"

	"skiff/internal/diag"
	"skiff/internal/source"
	"skiff/internal/toml"
)

// SpannedString is a string scalar together with its origin.
type SpannedString struct {
	Value string
	Span  source.Span
}

// EnvRequirement is one declared expectation from the specification. It is
// written either as a bare string ("PORT") or as an inline table
// ({key = "PORT", regex = "^[0-9]+$", optional = true}); the bare form is
// equivalent to a table with only key set.
type EnvRequirement struct {
	Key      string
	Regex    string
	HasRegex bool
	Optional bool
	Span     source.Span
}

// AppSpec is the typed specification document. Build, Static and Artifact
// are consumed by the package builder; validation passes them through.
type AppSpec struct {
	Env     []EnvRequirement
	Secrets []EnvRequirement

	Mysql  []SpannedString
	Pubsub []SpannedString

	Build    string
	Static   string
	Artifact string
}

// Requirements yields env requirements first, then secrets, both in
// declaration order. The validator depends on this order.
func (s *AppSpec) Requirements() []EnvRequirement {
	out := make([]EnvRequirement, 0, len(s.Env)+len(s.Secrets))
	out = append(out, s.Env...)
	return append(out, s.Secrets...)
}

// SpecFromTable projects the spanned tree of a specification document.
// Shape errors (wrong kinds, a requirement table without a key) surface as
// parse diagnostics pointing at the offending node. artifact is the one
// mandatory field; build and static stay optional. The file supplies a
// document-level span when it is absent.
func SpecFromTable(f *source.File, tab *toml.Table) (*AppSpec, error) {
	spec := &AppSpec{}
	sawArtifact := false
	for _, e := range tab.Entries {
		var err error
		switch e.Key {
		case "env":
			spec.Env, err = requirementList(e)
		case "secrets":
			spec.Secrets, err = requirementList(e)
		case "mysql":
			spec.Mysql, err = stringList(e)
		case "pubsub":
			spec.Pubsub, err = stringList(e)
		case "build":
			spec.Build, err = stringScalar(e)
		case "static":
			spec.Static, err = stringScalar(e)
		case "artifact":
			spec.Artifact, err = stringScalar(e)
			sawArtifact = err == nil
		default:
			// Unknown keys are left for future fields.
		}
		if err != nil {
			return nil, err
		}
	}
	if !sawArtifact {
		return nil, diag.New(diag.CfgParse, source.Point(f.ID, 0),
			`specification is missing the "artifact" field`)
	}
	return spec, nil
}

func requirementList(e *toml.Entry) ([]EnvRequirement, error) {
	if e.Value.Kind != toml.KindArray {
		return nil, shapeErr(e.Value.Span, e.Key, "an array")
	}
	reqs := make([]EnvRequirement, 0, len(e.Value.Arr))
	for _, elem := range e.Value.Arr {
		req, err := requirement(elem)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// requirement reads one list element, either shorthand form. The
// requirement span is the whole element so diagnostics underline the full
// declaration.
func requirement(v *toml.Value) (EnvRequirement, error) {
	switch v.Kind {
	case toml.KindString:
		return EnvRequirement{Key: v.Str, Span: v.Span}, nil
	case toml.KindTable:
		req := EnvRequirement{Span: v.Span}
		for _, f := range v.Tab.Entries {
			switch f.Key {
			case "key":
				if f.Value.Kind != toml.KindString {
					return req, shapeErr(f.Value.Span, "key", "a string")
				}
				req.Key = f.Value.Str
			case "regex":
				if f.Value.Kind != toml.KindString {
					return req, shapeErr(f.Value.Span, "regex", "a string")
				}
				req.Regex = f.Value.Str
				req.HasRegex = true
			case "optional":
				if f.Value.Kind != toml.KindBool {
					return req, shapeErr(f.Value.Span, "optional", "a boolean")
				}
				req.Optional = f.Value.Bool
			default:
				return req, diag.New(diag.CfgParse, f.KeySpan,
					fmt.Sprintf("unknown requirement field %q", f.Key))
			}
		}
		if req.Key == "" {
			return req, diag.New(diag.CfgParse, v.Span, `requirement is missing the "key" field`)
		}
		return req, nil
	default:
		return EnvRequirement{}, diag.New(diag.CfgParse, v.Span,
			fmt.Sprintf("expected a string or a table, found %s", v.Kind))
	}
}

func stringList(e *toml.Entry) ([]SpannedString, error) {
	if e.Value.Kind != toml.KindArray {
		return nil, shapeErr(e.Value.Span, e.Key, "an array")
	}
	out := make([]SpannedString, 0, len(e.Value.Arr))
	for _, elem := range e.Value.Arr {
		if elem.Kind != toml.KindString {
			return nil, shapeErr(elem.Span, e.Key, "a list of strings")
		}
		out = append(out, SpannedString{Value: elem.Str, Span: elem.Span})
	}
	return out, nil
}

func stringScalar(e *toml.Entry) (string, error) {
	if e.Value.Kind != toml.KindString {
		return "", shapeErr(e.Value.Span, e.Key, "a string")
	}
	return e.Value.Str, nil
}

func shapeErr(span source.Span, key, want string) *diag.Diagnostic {
	return diag.New(diag.CfgParse, span, fmt.Sprintf("%q must be %s", key, want))
}
