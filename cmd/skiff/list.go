package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"skiff/internal/api"
	"skiff/internal/auth"
)

var listCmd = &cobra.Command{
	Use:   "list <app-id>",
	Short: "List recent deployments of an app",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func init() {
	listCmd.Flags().Int("first", 100, "maximum number of deployments to fetch")
	listCmd.Flags().Int("offset", 0, "number of deployments to skip")
}

func runList(cmd *cobra.Command, args []string) error {
	first, err := cmd.Flags().GetInt("first")
	if err != nil {
		return fmt.Errorf("failed to get first flag: %w", err)
	}
	offset, err := cmd.Flags().GetInt("offset")
	if err != nil {
		return fmt.Errorf("failed to get offset flag: %w", err)
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

	deployments, err := client.ListDeployments(cmd.Context(), args[0], first, offset)
	if err != nil {
		return err
	}
	if len(deployments) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no deployments for %s\n", args[0])
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderDeployments(deployments))
	return nil
}

func renderDeployments(deployments []api.Deployment) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	liveStyle := cellStyle.Foreground(lipgloss.Color("2"))

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == 0 {
				return headerStyle
			}
			if col == 2 {
				return liveStyle
			}
			return cellStyle
		}).
		Headers("ID", "CREATED AT", "LIVE")

	for _, d := range deployments {
		live := ""
		if d.Live {
			live = "yes"
		}
		t.Row(d.ID, d.CreatedAt, live)
	}
	return t.Render()
}
