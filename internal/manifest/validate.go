package manifest

import (
	"fmt"
	"regexp"

	"skiff/internal/diag"
	"skiff/internal/source"
)

// Validate runs the cross-document checks in a fixed order and stops at
// the first violation. The order goes from structural hygiene to semantic
// checks so a basic problem is never masked by a downstream one:
//
//  1. duplicate keys across spec env+secrets
//  2. duplicate keys across config env+secrets
//  3. every non-optional requirement is defined and matches its regex
//  4. no spec secret is defined in the plain config namespace
//
// A requirement may be satisfied from either config namespace; only the
// secrets-declared-but-env-defined direction is a violation. On success
// both models pass through unchanged.
func Validate(spec *AppSpec, cfg *AppConfig) error {
	if d := checkSpecDuplicates(spec); d != nil {
		return d
	}
	if d := checkConfigDuplicates(cfg); d != nil {
		return d
	}
	if d := checkRequirements(spec, cfg); d != nil {
		return d
	}
	if d := checkSecretExclusivity(spec, cfg); d != nil {
		return d
	}
	return nil
}

func checkSpecDuplicates(spec *AppSpec) *diag.Diagnostic {
	seen := make(map[string]source.Span)
	for _, r := range spec.Requirements() {
		if prev, ok := seen[r.Key]; ok {
			return duplicateKey(diag.CfgDuplicateSpecKey, "spec", r.Key, prev, r.Span)
		}
		seen[r.Key] = r.Span
	}
	return nil
}

func checkConfigDuplicates(cfg *AppConfig) *diag.Diagnostic {
	seen := make(map[string]source.Span)
	for _, entries := range [][]ConfigEntry{cfg.Env, cfg.Secrets} {
		for _, e := range entries {
			if prev, ok := seen[e.Key]; ok {
				return duplicateKey(diag.CfgDuplicateConfigKey, "config", e.Key, prev, e.KeySpan)
			}
			seen[e.Key] = e.KeySpan
		}
	}
	return nil
}

// duplicateKey labels the span with the smaller start offset as the
// previous definition, regardless of which namespace each came from.
func duplicateKey(code diag.Code, doc, key string, a, b source.Span) *diag.Diagnostic {
	prev, redef := a, b
	if redef.Start < prev.Start {
		prev, redef = redef, prev
	}
	return diag.New(code, redef,
		fmt.Sprintf("duplicate environment variable %q in %s", key, doc)).
		WithNote(redef, "redefined here").
		WithNote(prev, "previous definition")
}

func checkRequirements(spec *AppSpec, cfg *AppConfig) *diag.Diagnostic {
	for _, r := range spec.Requirements() {
		entry, found := cfg.Lookup(r.Key)
		if !found && !r.Optional {
			return diag.New(diag.CfgUndefinedKey, r.Span,
				fmt.Sprintf("environment variable %q is required but not defined", r.Key))
		}
		if !r.HasRegex {
			continue
		}
		re, err := regexp.Compile(r.Regex)
		if err != nil {
			return diag.New(diag.CfgInvalidRegex, r.Span,
				fmt.Sprintf("invalid regex for environment variable %q", r.Key)).
				WithHelp(fmt.Sprintf("regex: %s", r.Regex))
		}
		if found && !re.MatchString(entry.Value) {
			return diag.New(diag.CfgValueMismatch, entry.KeySpan,
				fmt.Sprintf("value of %q does not match its declared pattern", r.Key)).
				WithNote(r.Span, "pattern declared here").
				WithHelp(fmt.Sprintf("regex: %s", r.Regex))
		}
	}
	return nil
}

func checkSecretExclusivity(spec *AppSpec, cfg *AppConfig) *diag.Diagnostic {
	for _, r := range spec.Secrets {
		if entry, ok := cfg.LookupEnv(r.Key); ok {
			return diag.New(diag.CfgSecretAsEnv, entry.KeySpan,
				fmt.Sprintf("%q is declared as a secret but defined as a plain environment variable", r.Key)).
				WithNote(r.Span, "declared as a secret here").
				WithHelp("move the value to the secrets table")
		}
	}
	return nil
}
