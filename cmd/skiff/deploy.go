package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"skiff/internal/api"
	"skiff/internal/auth"
	"skiff/internal/diag"
	"skiff/internal/diagfmt"
	"skiff/internal/manifest"
	"skiff/internal/pack"
	"skiff/internal/source"
	"skiff/internal/ui"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Validate, build, and ship the application package",
	RunE:  runDeploy,
}

func init() {
	deployCmd.Flags().Bool("no-cache", false, "always run the build command, ignoring the package cache")
}

func runDeploy(cmd *cobra.Command, args []string) error {
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	opts, err := resolveOptions(cmd)
	if err != nil {
		return err
	}

	fs := source.NewFileSet()
	spec, cfg, err := manifest.LoadPaths(fs, opts.SpecPath, opts.ConfigPath)
	if err != nil {
		return renderDiagnostic(cmd, fs, err)
	}
	md := manifest.MetadataFromConfig(cfg)

	creds, err := auth.Load(opts.Credentials)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to load credentials: %v\n", err)
	}
	client, err := api.New(opts.Endpoint, creds)
	if err != nil {
		return err
	}

	var cache *pack.Cache
	if !noCache {
		if cache, err = pack.OpenCache(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: package cache unavailable: %v\n", err)
		}
	}

	buildOpts := pack.Options{
		SpecPath: opts.SpecPath,
		Spec:     spec,
		Metadata: md,
		Cache:    cache,
		Stdout:   cmd.ErrOrStderr(),
		Stderr:   cmd.ErrOrStderr(),
	}

	if isTerminal(os.Stdout) {
		return deployInteractive(cmd, client, md, buildOpts)
	}
	return deployPlain(cmd, client, md, buildOpts)
}

// runStages drives the pipeline, reporting each stage transition.
// Validation already happened during loading, so it reports done at once.
func runStages(ctx context.Context, client *api.Client, md *manifest.AppMetadata,
	buildOpts pack.Options, report func(ui.Event)) (*api.Deployment, error) {

	report(ui.Event{Stage: ui.StageValidate, Status: ui.StatusDone})

	report(ui.Event{Stage: ui.StageBuild, Status: ui.StatusWorking})
	pkg, err := pack.Build(ctx, buildOpts)
	if err != nil {
		report(ui.Event{Stage: ui.StageBuild, Status: ui.StatusError, Detail: err.Error()})
		return nil, err
	}
	report(ui.Event{Stage: ui.StageBuild, Status: ui.StatusDone,
		Detail: fmt.Sprintf("%d bytes", len(pkg))})

	report(ui.Event{Stage: ui.StageUpload, Status: ui.StatusWorking})
	dep, err := client.Deploy(ctx, md, pkg)
	if err != nil {
		report(ui.Event{Stage: ui.StageUpload, Status: ui.StatusError, Detail: err.Error()})
		return nil, err
	}
	report(ui.Event{Stage: ui.StageUpload, Status: ui.StatusDone})
	report(ui.Event{Stage: ui.StageCreate, Status: ui.StatusDone, Detail: dep.ID})
	return dep, nil
}

func deployInteractive(cmd *cobra.Command, client *api.Client, md *manifest.AppMetadata, buildOpts pack.Options) error {
	events := make(chan ui.Event, 8)
	// Build output would tear the TUI apart.
	buildOpts.Stdout = nil
	buildOpts.Stderr = nil

	var dep *api.Deployment
	var stagesErr error
	go func() {
		defer close(events)
		dep, stagesErr = runStages(cmd.Context(), client, md, buildOpts, func(ev ui.Event) {
			events <- ev
		})
	}()

	prog := tea.NewProgram(ui.NewDeployModel(md.ID, events))
	if _, err := prog.Run(); err != nil {
		return err
	}
	// Run returns on an interrupt while the pipeline goroutine may still
	// be mid-flight; dep and stagesErr are both unset then.
	msg, err := deployOutcome(dep, stagesErr)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), msg)
	return nil
}

// deployOutcome folds the pipeline result into the final message. A nil
// deployment with no error means the UI quit before the pipeline
// finished.
func deployOutcome(dep *api.Deployment, stagesErr error) (string, error) {
	if stagesErr != nil {
		return "", stagesErr
	}
	if dep == nil {
		return "", errors.New("deploy interrupted before completion")
	}
	return fmt.Sprintf("deployment %s created\n", dep.ID), nil
}

func deployPlain(cmd *cobra.Command, client *api.Client, md *manifest.AppMetadata, buildOpts pack.Options) error {
	out := cmd.OutOrStdout()
	dep, err := runStages(cmd.Context(), client, md, buildOpts, func(ev ui.Event) {
		if ev.Detail != "" {
			fmt.Fprintf(out, "%s: %s (%s)\n", ev.Stage, statusWord(ev.Status), ev.Detail)
		} else {
			fmt.Fprintf(out, "%s: %s\n", ev.Stage, statusWord(ev.Status))
		}
	})
	msg, err := deployOutcome(dep, err)
	if err != nil {
		return err
	}
	fmt.Fprint(out, msg)
	return nil
}

func statusWord(s ui.Status) string {
	switch s {
	case ui.StatusWorking:
		return "working"
	case ui.StatusDone:
		return "done"
	case ui.StatusError:
		return "error"
	default:
		return "queued"
	}
}

// renderDiagnostic prints a structured load/validation failure and
// converts it into a silent non-zero exit.
func renderDiagnostic(cmd *cobra.Command, fs *source.FileSet, err error) error {
	var d *diag.Diagnostic
	if !errors.As(err, &d) {
		return err
	}
	diagfmt.Pretty(cmd.OutOrStdout(), d, fs, diagfmt.PrettyOpts{
		Color:     colorEnabled(cmd),
		ShowNotes: true,
		ShowHelp:  true,
	})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return fmt.Errorf("validation failed")
}
