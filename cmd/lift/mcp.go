// ABOUTME: CLI command for starting the MCP server.
// ABOUTME: Runs a stdio MCP server over the plan store.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harperreed/lift/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server communicates via stdin/stdout. Logs go to stderr.

CONFIGURATION:

  {
    "mcpServers": {
      "lift": {
        "command": "lift",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  get_plan_week         Prescriptions of a plan week, grouped by day
  list_training_maxes   Training max history
  preview_review        Decision the weekly review would make
  export_week           Export a week to wger (dry run by default)

AVAILABLE RESOURCES:

  lift://active-plan    Active plan with export status per week`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Real exports need wger; without it export_week still dry-runs.
		exporter, err := newExporter(true)
		if err != nil {
			return err
		}
		server, err := mcp.NewServer(repo, exporter)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
