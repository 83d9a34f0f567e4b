// ABOUTME: CLI commands for backing up and restoring plans and training maxes.
// ABOUTME: Supports JSON and YAML; the format of an import follows the file extension.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var backupOutput string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up and restore lift data",
}

var backupExportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export plans and training maxes",
	Long: `Export training maxes and plans with every week.

FORMATS:

  json   Full JSON export (suitable for backup/restore)
  yaml   YAML export (human-readable)

EXAMPLES:

  lift backup export json                  # Export to stdout
  lift backup export json -o backup.json   # Save to file
  lift backup export yaml -o backup.yaml`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var data []byte
		var err error

		switch args[0] {
		case "json":
			data, err = repo.ExportJSON(ctx)
		case "yaml":
			data, err = repo.ExportYAML(ctx)
		default:
			return fmt.Errorf("unknown format: %s (use json or yaml)", args[0])
		}
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if backupOutput != "" {
			if err := os.WriteFile(backupOutput, data, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Exported to %s\n", backupOutput)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a backup file",
	Long: `Import training maxes and plans from a JSON or YAML backup.

Files ending in .yaml or .yml are read as YAML, anything else as JSON.
Plans that already exist (same ID) cause an error.

EXAMPLES:

  lift backup import backup.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]
		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		ctx := cmd.Context()
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".yaml", ".yml":
			err = repo.ImportYAML(ctx, data)
		default:
			err = repo.ImportJSON(ctx, data)
		}
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Imported from %s\n", filename)
		return nil
	},
}

func init() {
	backupExportCmd.Flags().StringVarP(&backupOutput, "output", "o", "", "output file (default: stdout)")

	backupCmd.AddCommand(backupExportCmd)
	backupCmd.AddCommand(backupImportCmd)
	rootCmd.AddCommand(backupCmd)
}
