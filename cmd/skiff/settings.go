package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

const (
	defaultEndpoint   = "https://api.skiff.dev/graphql"
	defaultSpecPath   = "skiff.spec.toml"
	defaultConfigPath = "skiff.toml"
)

// toolSettings is the optional ~/.skiff/config.toml. Flags and SKIFF_*
// environment variables override it.
type toolSettings struct {
	Endpoint    string `toml:"endpoint"`
	Credentials string `toml:"credentials"`
	Spec        string `toml:"spec"`
	Config      string `toml:"config"`
}

func settingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".skiff", "config.toml"), nil
}

// loadSettings reads the settings file; a missing file yields the zero
// value, a malformed one is an error.
func loadSettings() (toolSettings, error) {
	var s toolSettings
	path, err := settingsPath()
	if err != nil {
		return s, nil
	}
	if _, err := toml.DecodeFile(path, &s); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return toolSettings{}, nil
		}
		return s, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return s, nil
}

// cliOptions is the fully resolved document/endpoint selection for one
// invocation.
type cliOptions struct {
	Endpoint    string
	Credentials string
	SpecPath    string
	ConfigPath  string
}

// resolveOptions layers flag > environment > settings file > default.
func resolveOptions(cmd *cobra.Command) (cliOptions, error) {
	settings, err := loadSettings()
	if err != nil {
		return cliOptions{}, err
	}
	opts := cliOptions{
		Endpoint:    resolve(cmd, "endpoint", "SKIFF_ENDPOINT", settings.Endpoint, defaultEndpoint),
		Credentials: resolve(cmd, "credentials", "SKIFF_CREDENTIALS", settings.Credentials, ""),
		SpecPath:    resolve(cmd, "spec", "SKIFF_SPEC", settings.Spec, defaultSpecPath),
		ConfigPath:  resolve(cmd, "config", "SKIFF_CONFIG", settings.Config, defaultConfigPath),
	}
	return opts, nil
}

func resolve(cmd *cobra.Command, flagName, envName, settingsValue, fallback string) string {
	if v, err := cmd.Root().PersistentFlags().GetString(flagName); err == nil && v != "" {
		return v
	}
	if v := os.Getenv(envName); v != "" {
		return v
	}
	if settingsValue != "" {
		return settingsValue
	}
	return fallback
}
