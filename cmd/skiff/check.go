package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"skiff/internal/diag"
	"skiff/internal/diagfmt"
	"skiff/internal/manifest"
	"skiff/internal/source"
)

var checkCmd = &cobra.Command{
	Use:   "check [extra-configs...]",
	Short: "Validate the spec/config pair without deploying",
	Long: `Validate the app specification against the configuration and report the
first violation of each pair with its exact source location. Extra
configuration files (staging, production) are validated against the same
spec in parallel.`,
	Args: cobra.ArbitraryArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|short|json)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "pretty", "short", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, short or json)", format)
	}

	opts, err := resolveOptions(cmd)
	if err != nil {
		return err
	}
	configPaths := append([]string{opts.ConfigPath}, args...)

	// All documents go into one FileSet up front; the parallel passes
	// below only read it.
	fs := source.NewFileSet()
	bag := diag.NewBag()
	specID, err := fs.Load(opts.SpecPath)
	if err != nil {
		bag.Add(readDiag(opts.SpecPath, err))
	}

	if !bag.HasErrors() {
		configIDs := make([]source.FileID, len(configPaths))
		for i, path := range configPaths {
			configIDs[i], err = fs.Load(path)
			if err != nil {
				bag.Add(readDiag(path, err))
			}
		}
		if !bag.HasErrors() {
			results := make([]*diag.Diagnostic, len(configIDs))
			var g errgroup.Group
			for i, id := range configIDs {
				i, id := i, id
				g.Go(func() error {
					if _, _, err := manifest.Load(fs, specID, id); err != nil {
						results[i] = err.(*diag.Diagnostic)
					}
					return nil
				})
			}
			g.Wait() //nolint:errcheck
			for _, d := range results {
				bag.Add(d)
			}
		}
	}

	if bag.Len() == 0 {
		noun := "configuration"
		if len(configPaths) > 1 {
			noun = "configurations"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %d %s valid against %s\n",
			len(configPaths), noun, opts.SpecPath)
		return nil
	}

	bag.Sort()
	out := cmd.OutOrStdout()
	switch format {
	case "short":
		diagfmt.ShortBag(out, bag, fs, diagfmt.PathModeAuto)
	case "json":
		err := diagfmt.JSON(out, bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			IncludeNotes:     true,
		})
		if err != nil {
			return err
		}
	default:
		diagfmt.PrettyBag(out, bag, fs, diagfmt.PrettyOpts{
			Color:     colorEnabled(cmd),
			ShowNotes: true,
			ShowHelp:  true,
		})
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return fmt.Errorf("validation failed")
}

func readDiag(path string, err error) *diag.Diagnostic {
	return diag.New(diag.IOReadFailed, source.Span{File: source.NoFile},
		fmt.Sprintf("cannot read %s: %v", path, err))
}
