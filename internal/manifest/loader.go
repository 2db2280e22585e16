package manifest

import (
	"fmt"

	"skiff/internal/diag"
	"skiff/internal/source"
	"skiff/internal/toml"
)

// Load parses, projects, normalizes, and validates an already-registered
// document pair. All-or-nothing: on any failure the error is a
// *diag.Diagnostic and no models are returned. Load never writes to a
// stream and never exits.
func Load(fs *source.FileSet, specID, configID source.FileID) (*AppSpec, *AppConfig, error) {
	specTab, err := toml.Parse(fs.Get(specID))
	if err != nil {
		return nil, nil, err
	}
	configTab, err := toml.Parse(fs.Get(configID))
	if err != nil {
		return nil, nil, err
	}

	spec, err := SpecFromTable(fs.Get(specID), specTab)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := ConfigFromTable(fs.Get(configID), configTab)
	if err != nil {
		return nil, nil, err
	}

	cfg.Normalize()
	if err := Validate(spec, cfg); err != nil {
		return nil, nil, err
	}
	return spec, cfg, nil
}

// LoadPaths reads both documents from disk into the FileSet and then runs
// Load. Read failures surface as IO diagnostics so the CLI renders every
// failure mode the same way.
func LoadPaths(fs *source.FileSet, specPath, configPath string) (*AppSpec, *AppConfig, error) {
	specID, err := fs.Load(specPath)
	if err != nil {
		return nil, nil, readFailed(specPath, err)
	}
	configID, err := fs.Load(configPath)
	if err != nil {
		return nil, nil, readFailed(configPath, err)
	}
	return Load(fs, specID, configID)
}

func readFailed(path string, err error) *diag.Diagnostic {
	return diag.New(diag.IOReadFailed, source.Span{File: source.NoFile},
		fmt.Sprintf("cannot read %s: %v", path, err))
}
