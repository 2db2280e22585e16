package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"skiff/internal/api"
	"skiff/internal/auth"
	"skiff/internal/logs"
)

var logsCmd = &cobra.Command{
	Use:   "logs <app-id>",
	Short: "Print logs of the app's live deployment",
	Long: `Print logs of the app's live deployment, oldest page first, following
the backend cursor until the stream is exhausted. Pass --deployment to
read a specific deployment instead of the live one.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().String("deployment", "", "read this deployment instead of the live one")
	logsCmd.Flags().Int("page-size", 100, "log records to fetch per request")
}

func runLogs(cmd *cobra.Command, args []string) error {
	deploymentID, err := cmd.Flags().GetString("deployment")
	if err != nil {
		return fmt.Errorf("failed to get deployment flag: %w", err)
	}
	pageSize, err := cmd.Flags().GetInt("page-size")
	if err != nil {
		return fmt.Errorf("failed to get page-size flag: %w", err)
	}
	if pageSize <= 0 {
		return fmt.Errorf("page-size must be positive, got %d", pageSize)
	}
	opts, err := resolveOptions(cmd)
	if err != nil {
		return err
	}

	creds, err := auth.Load(opts.Credentials)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to load credentials: %v\n", err)
	}
	client, err := api.New(opts.Endpoint, creds)
	if err != nil {
		return err
	}

	var loader *logs.Loader
	if deploymentID != "" {
		loader = logs.ForDeployment(client, deploymentID)
	} else {
		loader = logs.ForApp(client, args[0])
	}

	out := cmd.OutOrStdout()
	for !loader.Done() {
		records, err := loader.Load(cmd.Context(), pageSize)
		if err != nil {
			return err
		}
		for _, rec := range records {
			ts := time.UnixMilli(rec.TS).UTC().Format(time.RFC3339)
			fmt.Fprintf(out, "%s %s %d %s\n", ts, rec.RequestID, rec.Seq, rec.Message)
		}
	}
	return nil
}
