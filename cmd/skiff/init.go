package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new skiff app",
	Long: `Initialize a new skiff app by creating a specification (skiff.spec.toml)
and a matching configuration (skiff.toml). If [path|name] is omitted,
initializes the current directory. If a non-existing name is provided, a
directory will be created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	var target string
	if len(args) == 0 || args[0] == "." {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		target = wd
	} else {
		arg := args[0]
		if !filepath.IsAbs(arg) {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			target = filepath.Join(wd, arg)
		} else {
			target = arg
		}
	}

	if st, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err = os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %q: %w", target, err)
			}
		} else {
			return err
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	// App id from the directory basename.
	name := strings.TrimSpace(filepath.Base(target))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "skiff-app"
	}

	specPath := filepath.Join(target, defaultSpecPath)
	if _, err := os.Stat(specPath); err == nil {
		return fmt.Errorf("app already initialized: %s exists", specPath)
	}
	if err := os.WriteFile(specPath, []byte(defaultSpec()), 0o600); err != nil {
		return fmt.Errorf("failed to write spec: %w", err)
	}

	configPath := filepath.Join(target, defaultConfigPath)
	createdConfig := false
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(configPath, []byte(defaultConfig(name)), 0o600); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		createdConfig = true
	}

	rel := target
	if wd, err := os.Getwd(); err == nil {
		if r, err2 := filepath.Rel(wd, target); err2 == nil {
			rel = r
		}
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized skiff app in %s\n", rel)
	fmt.Fprintf(out, "  - %s\n", defaultSpecPath)
	if createdConfig {
		fmt.Fprintf(out, "  - %s\n", defaultConfigPath)
	} else {
		fmt.Fprintf(out, "  - %s (existing)\n", defaultConfigPath)
	}
	return nil
}

// defaultSpec returns a starter specification with one optional
// environment requirement as a worked example.
func defaultSpec() string {
	return `# Skiff app specification
env = [
    { key = "LOG_LEVEL", regex = "debug|info|warn|error", optional = true },
]
secrets = []
artifact = "main.js"
`
}

// defaultConfig returns a starter configuration bound to the app id.
func defaultConfig(name string) string {
	return fmt.Sprintf(`# Skiff app configuration
id = "%s"

[env]
LOG_LEVEL = "info"

[secrets]
`, name)
}
