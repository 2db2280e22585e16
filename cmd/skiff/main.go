package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"skiff/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "skiff",
	Short: "Skiff deployment CLI",
	Long:  `Skiff validates deployment specifications against configurations and ships application packages to the backend`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("endpoint", "", "backend endpoint URL")
	rootCmd.PersistentFlags().String("credentials", "", "path to API credentials file")
	rootCmd.PersistentFlags().String("spec", "", "path to the app specification document")
	rootCmd.PersistentFlags().String("config", "", "path to the app configuration document")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether the file is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// colorEnabled resolves the --color flag against the output terminal.
func colorEnabled(cmd *cobra.Command) bool {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		mode = "auto"
	}
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(os.Stdout)
	}
}
