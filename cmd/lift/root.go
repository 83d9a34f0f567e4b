// ABOUTME: Root Cobra command for lift CLI.
// ABOUTME: Loads config, sets up logging and opens the store via PersistentPre/PostRunE.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harperreed/lift/internal/config"
	"github.com/harperreed/lift/internal/log"
	"github.com/harperreed/lift/internal/storage"
)

var (
	dbPath string

	cfg  *config.Config
	repo *storage.DB
)

var rootCmd = &cobra.Command{
	Use:   "lift",
	Short: "Periodized strength training planner",
	Long: `Lift generates four week strength blocks, adapts each upcoming week to your
recovery and training adherence, and delivers the week to wger.

HOW A BLOCK WORKS:

  Main lifts     Bench (Mon), Squat (Tue), OHP (Thu), Deadlift (Fri)
  Loading        Percent of training max, rounded to 2.5 kg
  Accessories    Rotated per week so no exercise repeats in a block
  Week 4         Deload

QUICK START:

  $ lift tm add bench 100               # Record training maxes
  $ lift tm add squat 140
  $ lift plan generate                  # Block starting next Monday
  $ lift plan show --week 1             # See what is planned
  $ lift export --dry-run               # Preview the wger payload

WEEKLY REVIEW:

  Log resting heart rate, sleep and training volume during the week:

  $ lift log summary 2025-10-08 --rhr 52 --sleep 450
  $ lift log volume 2025-10-06 chest 4200 --planned
  $ lift log volume 2025-10-08 chest 3900

  Then review on Sunday. The upcoming week is scaled, then exported:

  $ lift review

  Or run 'lift serve' to review and sync on a schedule.

STRENGTH TESTS:

  $ lift plan generate --test           # One week AMRAP test
  $ lift log pull                       # Pull logged sets from wger
  $ lift tm evaluate                    # New training maxes from the test

MCP INTEGRATION:

  Run 'lift mcp' to start the Model Context Protocol server:

  {
    "mcpServers": {
      "lift": { "command": "lift", "args": ["mcp"] }
    }
  }

CONFIGURATION:

  ~/.config/lift/config.json, overridden by WGER_BASE_URL, WGER_API_KEY,
  TELEGRAM_TOKEN, TELEGRAM_CHAT_ID, LIFT_DATA_DIR, WGER_DRY_RUN and
  WGER_FORCE_OVERWRITE.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		log.Init(log.Config{
			Level:      log.ParseLevel(cfg.Log.Level),
			JSONOutput: cfg.Log.JSON,
			Output:     cmd.ErrOrStderr(),
		})

		if repo != nil {
			_ = repo.Close()
		}
		if dbPath != "" {
			repo, err = storage.Open(config.ExpandPath(dbPath))
		} else {
			repo, err = cfg.OpenStorage()
		}
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if repo != nil {
			err := repo.Close()
			repo = nil
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: <data dir>/lift.db)")
}
