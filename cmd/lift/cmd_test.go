// ABOUTME: Tests for CLI helper functions and command execution.
// ABOUTME: Runs commands against a temp database and checks stored state.
package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/harperreed/lift/internal/adjust"
	"github.com/harperreed/lift/internal/config"
	"github.com/harperreed/lift/internal/export"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/planner"
	"github.com/harperreed/lift/internal/review"
	"github.com/harperreed/lift/internal/rules"
	"github.com/harperreed/lift/internal/storage"
	"github.com/harperreed/lift/internal/wger"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "date only", input: "2025-10-06"},
		{name: "date and time with space", input: "2025-10-06 08:30"},
		{name: "date and time with T", input: "2025-10-06T08:30"},
		{name: "RFC3339", input: "2025-10-06T08:30:00Z"},
		{name: "invalid format", input: "06-10-2025", wantErr: true},
		{name: "random string", input: "monday", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseDate(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDate(%q) unexpected error: %v", tt.input, err)
			}
			if got.Year() != 2025 || got.Month() != time.October || got.Day() != 6 {
				t.Errorf("parseDate(%q) = %v, want 2025-10-06", tt.input, got)
			}
			if got.Hour() != 0 || got.Minute() != 0 {
				t.Errorf("parseDate(%q) kept time of day: %v", tt.input, got)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		input  string
		length int
		want   string
	}{
		{"hi", 5, "hi   "},
		{"hello", 5, "hello"},
		{"hello world", 5, "hello world"},
		{"", 3, "   "},
	}
	for _, tt := range tests {
		if got := padRight(tt.input, tt.length); got != tt.want {
			t.Errorf("padRight(%q, %d) = %q, want %q", tt.input, tt.length, got, tt.want)
		}
	}
}

func TestParseExercise(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{input: "bench", want: 73},
		{input: "Squat", want: 615},
		{input: "1630", want: 1630},
		{input: "curls", wantErr: true},
		{input: "-4", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseExercise(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseExercise(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseExercise(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseExercise(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestRootCmdSubcommands(t *testing.T) {
	if rootCmd.Use != "lift" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "lift")
	}

	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"plan", "tm", "log", "review", "export", "backup", "serve", "mcp"} {
		if !names[want] {
			t.Errorf("Expected command %q to be registered", want)
		}
	}
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		cmd      *cobra.Command
		flag     string
		defValue string
	}{
		{planGenerateCmd, "start", ""},
		{planGenerateCmd, "test", "false"},
		{planShowCmd, "format", "table"},
		{planShowCmd, "week", "0"},
		{tmListCmd, "limit", "20"},
		{logVolumeCmd, "planned", "false"},
		{logSetCmd, "rir", "0"},
		{planCalibrateCmd, "dry-run", "false"},
		{planCalibrateCmd, "week", "0"},
		{reviewCmd, "preview", "false"},
		{exportCmd, "dry-run", "false"},
		{exportCmd, "force", "false"},
		{serveCmd, "run-now", ""},
		{backupExportCmd, "output", ""},
	}
	for _, tt := range tests {
		f := tt.cmd.Flags().Lookup(tt.flag)
		if f == nil {
			t.Errorf("Expected --%s flag on %s", tt.flag, tt.cmd.CommandPath())
			continue
		}
		if f.DefValue != tt.defValue {
			t.Errorf("%s --%s default = %q, want %q", tt.cmd.CommandPath(), tt.flag, f.DefValue, tt.defValue)
		}
	}

	if rootCmd.PersistentFlags().Lookup("db") == nil {
		t.Error("Expected persistent --db flag")
	}
}

func TestCommandAliases(t *testing.T) {
	if !hasAlias(planCmd, "p") {
		t.Error("Expected 'p' alias for planCmd")
	}
	if !hasAlias(tmListCmd, "ls") {
		t.Error("Expected 'ls' alias for tm list")
	}
	if !hasAlias(logCmd, "l") {
		t.Error("Expected 'l' alias for logCmd")
	}
}

func hasAlias(cmd *cobra.Command, alias string) bool {
	for _, a := range cmd.Aliases {
		if a == alias {
			return true
		}
	}
	return false
}

// setupTestCLI points config and data at a temp directory and returns the
// database path passed to every command.
func setupTestCLI(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv("LIFT_DATA_DIR", filepath.Join(tmpDir, "data"))
	for _, key := range []string{"WGER_BASE_URL", "WGER_API_KEY", "TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID"} {
		t.Setenv(key, "")
	}
	t.Setenv("WGER_DRY_RUN", "false")
	t.Setenv("WGER_FORCE_OVERWRITE", "false")

	t.Cleanup(func() {
		if repo != nil {
			repo.Close()
			repo = nil
		}
	})
	return filepath.Join(tmpDir, "lift.db")
}

// runCLI executes the root command with fresh flag values.
func runCLI(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append(args, "--db", db))
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func openTestDB(t *testing.T, path string) *storage.DB {
	t.Helper()
	db, err := storage.Open(path)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestTMAddAndList(t *testing.T) {
	db := setupTestCLI(t)

	if _, err := runCLI(t, db, "tm", "add", "bench", "100", "--at", "2025-10-01"); err != nil {
		t.Fatalf("tm add failed: %v", err)
	}
	if _, err := runCLI(t, db, "tm", "add", "bench", "102.5"); err != nil {
		t.Fatalf("tm add failed: %v", err)
	}

	out, err := runCLI(t, db, "tm", "list", "--lift", "bench")
	if err != nil {
		t.Fatalf("tm list failed: %v", err)
	}
	if !strings.Contains(out, "102.5 kg") || !strings.Contains(out, "100.0 kg") {
		t.Errorf("tm list output missing values:\n%s", out)
	}
	if strings.Index(out, "102.5") > strings.Index(out, "100.0") {
		t.Errorf("Expected newest training max first:\n%s", out)
	}

	testDB := openTestDB(t, db)
	tms, err := testDB.GetLatestTrainingMaxes(context.Background())
	if err != nil {
		t.Fatalf("GetLatestTrainingMaxes failed: %v", err)
	}
	if tms["bench"] == nil || *tms["bench"] != 102.5 {
		t.Errorf("Expected current bench TM 102.5, got %v", tms["bench"])
	}
}

func TestTMAddRejectsBadInput(t *testing.T) {
	db := setupTestCLI(t)

	if _, err := runCLI(t, db, "tm", "add", "curl", "40"); err == nil {
		t.Error("Expected error for unknown lift")
	}
	if _, err := runCLI(t, db, "tm", "add", "bench", "-5"); err == nil {
		t.Error("Expected error for negative weight")
	}
}

func TestPlanGenerateAndShow(t *testing.T) {
	db := setupTestCLI(t)

	if _, err := runCLI(t, db, "tm", "add", "bench", "100"); err != nil {
		t.Fatalf("tm add failed: %v", err)
	}
	out, err := runCLI(t, db, "plan", "generate", "--start", "2025-10-08")
	if err != nil {
		t.Fatalf("plan generate failed: %v", err)
	}
	if !strings.Contains(out, "4-week block") {
		t.Errorf("Unexpected generate output:\n%s", out)
	}
	if !strings.Contains(out, "2025-10-13 to 2025-11-09") {
		t.Errorf("Expected block moved to next Monday:\n%s", out)
	}
	if !strings.Contains(out, "No training max for squat, ohp, deadlift") {
		t.Errorf("Expected missing training max warning:\n%s", out)
	}

	testDB := openTestDB(t, db)
	plans, err := testDB.ListPlans(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListPlans failed: %v", err)
	}
	if len(plans) != 1 || plans[0].WeekCount != 4 {
		t.Fatalf("Expected one 4 week plan, got %+v", plans)
	}

	out, err = runCLI(t, db, "plan", "show", "--week", "1")
	if err != nil {
		t.Fatalf("plan show failed: %v", err)
	}
	for _, want := range []string{"Week 1", "bench", "Blaze", "70.0 kg", "4x8"} {
		if !strings.Contains(out, want) {
			t.Errorf("plan show output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Week 2") {
		t.Errorf("Expected only week 1:\n%s", out)
	}

	out, err = runCLI(t, db, "plan", "show", "--format", "json")
	if err != nil {
		t.Fatalf("plan show json failed: %v", err)
	}
	if !strings.Contains(out, `"week_number": 4`) {
		t.Errorf("Expected all weeks in JSON output:\n%s", out)
	}

	out, err = runCLI(t, db, "plan", "show", "--format", "yaml", "-w", "2")
	if err != nil {
		t.Fatalf("plan show yaml failed: %v", err)
	}
	if !strings.Contains(out, "week_number: 2") {
		t.Errorf("Expected week 2 in YAML output:\n%s", out)
	}

	if _, err := runCLI(t, db, "plan", "show", "--week", "5"); err == nil {
		t.Error("Expected error for week outside the plan")
	}
	if _, err := runCLI(t, db, "plan", "show", "--format", "xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestPlanShowWithoutPlan(t *testing.T) {
	db := setupTestCLI(t)

	_, err := runCLI(t, db, "plan", "show")
	if err == nil || !strings.Contains(err.Error(), "no active plan") {
		t.Errorf("Expected no active plan error, got %v", err)
	}
}

func TestPlanCalibrate(t *testing.T) {
	db := setupTestCLI(t)

	if _, err := runCLI(t, db, "tm", "add", "bench", "100"); err != nil {
		t.Fatalf("tm add failed: %v", err)
	}
	if _, err := runCLI(t, db, "plan", "generate", "--start", "2025-10-08"); err != nil {
		t.Fatalf("plan generate failed: %v", err)
	}
	for i := 0; i < 4; i++ {
		if _, err := runCLI(t, db, "log", "set", "2025-10-08", "bench", "8", "72.5", "--rir", "1"); err != nil {
			t.Fatalf("log set failed: %v", err)
		}
	}

	out, err := runCLI(t, db, "plan", "calibrate", "--today", "2025-10-10", "--dry-run")
	if err != nil {
		t.Fatalf("plan calibrate --dry-run failed: %v", err)
	}
	for _, want := range []string{
		"Week 1 starting 2025-10-13, recovery good",
		"bench: +7.5% (avg RIR 1.0, recovery good)",
		"Dry run: 1 target weights would change",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("calibrate output missing %q:\n%s", want, out)
		}
	}

	out, err = runCLI(t, db, "plan", "calibrate", "--today", "2025-10-10")
	if err != nil {
		t.Fatalf("plan calibrate failed: %v", err)
	}
	if !strings.Contains(out, "Updated 1 target weights") {
		t.Errorf("Unexpected calibrate output:\n%s", out)
	}

	testDB := openTestDB(t, db)
	plan, err := testDB.GetActivePlan(context.Background(), time.Date(2025, 10, 13, 0, 0, 0, 0, time.UTC))
	if err != nil || plan == nil {
		t.Fatalf("GetActivePlan = %v, %v", plan, err)
	}
	rows, err := testDB.GetPlanWeekRows(context.Background(), plan.ID, 1)
	if err != nil {
		t.Fatalf("GetPlanWeekRows failed: %v", err)
	}
	for _, rx := range rows {
		if rx.ExerciseID == rules.BenchID && rx.IsMainLift() {
			if rx.TargetWeightKg == nil || *rx.TargetWeightKg != 75.0 {
				t.Errorf("bench target = %v, want 75.0", rx.TargetWeightKg)
			}
		}
	}

	if _, err := runCLI(t, db, "plan", "calibrate", "--today", "2025-10-10", "--week", "9"); err == nil {
		t.Error("Expected an error for a week outside the plan")
	}
}

func TestLogSummary(t *testing.T) {
	db := setupTestCLI(t)

	if _, err := runCLI(t, db, "log", "summary", "2025-10-08"); err == nil {
		t.Error("Expected error without --rhr or --sleep")
	}
	if _, err := runCLI(t, db, "log", "summary", "2025-10-08", "--rhr", "52", "--sleep", "450"); err != nil {
		t.Fatalf("log summary failed: %v", err)
	}
	if _, err := runCLI(t, db, "log", "summary", "2025-10-08", "--sleep", "400"); err != nil {
		t.Fatalf("log summary update failed: %v", err)
	}

	testDB := openTestDB(t, db)
	day := time.Date(2025, 10, 8, 0, 0, 0, 0, time.Local)
	days, err := testDB.ListDailySummaries(context.Background(), day, day)
	if err != nil {
		t.Fatalf("ListDailySummaries failed: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("Expected 1 summary, got %d", len(days))
	}
	if days[0].RestingHR == nil || *days[0].RestingHR != 52 {
		t.Errorf("Expected resting HR kept at 52, got %v", days[0].RestingHR)
	}
	if days[0].SleepMinutes == nil || *days[0].SleepMinutes != 400 {
		t.Errorf("Expected sleep updated to 400, got %v", days[0].SleepMinutes)
	}
}

func TestLogVolume(t *testing.T) {
	db := setupTestCLI(t)

	if _, err := runCLI(t, db, "log", "volume", "2025-10-08", "Chest", "4200", "--planned"); err != nil {
		t.Fatalf("log volume --planned failed: %v", err)
	}
	if _, err := runCLI(t, db, "log", "volume", "2025-10-08", "chest", "1900"); err != nil {
		t.Fatalf("log volume failed: %v", err)
	}
	if _, err := runCLI(t, db, "log", "volume", "2025-10-10", "chest", "2000"); err != nil {
		t.Fatalf("log volume failed: %v", err)
	}

	testDB := openTestDB(t, db)
	ctx := context.Background()
	monday := time.Date(2025, 10, 6, 0, 0, 0, 0, time.Local)
	planned, err := testDB.GetPlannedVolume(ctx, monday)
	if err != nil {
		t.Fatalf("GetPlannedVolume failed: %v", err)
	}
	if planned["chest"] != 4200 {
		t.Errorf("Expected planned chest 4200 keyed by Monday, got %v", planned)
	}

	actual, err := testDB.GetActualVolume(ctx, monday, monday.AddDate(0, 0, 6))
	if err != nil {
		t.Fatalf("GetActualVolume failed: %v", err)
	}
	if actual["chest"] != 3900 {
		t.Errorf("Expected actual chest 3900, got %v", actual)
	}
}

func TestStrengthTestEvaluate(t *testing.T) {
	db := setupTestCLI(t)

	if _, err := runCLI(t, db, "tm", "evaluate"); err == nil {
		t.Error("Expected error without a strength test plan")
	}

	if _, err := runCLI(t, db, "plan", "generate", "--test", "--start", "2025-10-06"); err != nil {
		t.Fatalf("plan generate --test failed: %v", err)
	}
	if _, err := runCLI(t, db, "log", "set", "2025-10-06", "bench", "5", "100"); err != nil {
		t.Fatalf("log set failed: %v", err)
	}
	if _, err := runCLI(t, db, "log", "set", "2025-10-06", "bench", "3", "100"); err != nil {
		t.Fatalf("log set failed: %v", err)
	}

	out, err := runCLI(t, db, "tm", "evaluate")
	if err != nil {
		t.Fatalf("tm evaluate failed: %v", err)
	}
	if !strings.Contains(out, "TM 105.0 kg") {
		t.Errorf("Expected bench TM 105.0 from 100 x 5:\n%s", out)
	}

	testDB := openTestDB(t, db)
	tms, err := testDB.ListTrainingMaxes(context.Background(), "bench", 1)
	if err != nil {
		t.Fatalf("ListTrainingMaxes failed: %v", err)
	}
	if len(tms) != 1 || tms[0].ValueKg != 105 || tms[0].Source != planner.SourceAMRAPEpley {
		t.Errorf("Unexpected training max after evaluation: %+v", tms)
	}
}

func TestExportDryRun(t *testing.T) {
	db := setupTestCLI(t)

	if _, err := runCLI(t, db, "plan", "generate"); err != nil {
		t.Fatalf("plan generate failed: %v", err)
	}

	out, err := runCLI(t, db, "export", "--dry-run")
	if err != nil {
		t.Fatalf("export --dry-run failed: %v", err)
	}
	if !strings.Contains(out, "Dry run: Lift Wk") || !strings.Contains(out, "Monday") {
		t.Errorf("Unexpected dry run output:\n%s", out)
	}

	out, err = runCLI(t, db, "export", "--dry-run", "--json", "--week", "2")
	if err != nil {
		t.Fatalf("export --json failed: %v", err)
	}
	if !strings.Contains(out, `"week_number": 2`) {
		t.Errorf("Expected week 2 payload:\n%s", out)
	}

	if _, err := runCLI(t, db, "export"); err == nil {
		t.Error("Expected error exporting without wger settings")
	}
}

func TestExportWithoutPlan(t *testing.T) {
	db := setupTestCLI(t)

	_, err := runCLI(t, db, "export", "--dry-run")
	if err == nil || !strings.Contains(err.Error(), "no active plan") {
		t.Errorf("Expected no active plan error, got %v", err)
	}
}

func TestReviewCommand(t *testing.T) {
	db := setupTestCLI(t)

	out, err := runCLI(t, db, "review", "--preview", "--today", "2025-10-12")
	if err != nil {
		t.Fatalf("review --preview failed: %v", err)
	}
	if !strings.Contains(out, "Nothing to do: no active plan") {
		t.Errorf("Expected no plan message:\n%s", out)
	}

	if _, err := runCLI(t, db, "plan", "generate", "--start", "2025-10-06"); err != nil {
		t.Fatalf("plan generate failed: %v", err)
	}

	out, err = runCLI(t, db, "review", "--today", "2025-10-05", "--dry-run")
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if !strings.Contains(out, "Nothing to do") {
		t.Errorf("Expected nothing to do before the plan starts:\n%s", out)
	}

	out, err = runCLI(t, db, "review", "--preview", "--today", "2025-10-12")
	if err != nil {
		t.Fatalf("review --preview failed: %v", err)
	}
	if !strings.Contains(out, "Week 2 starting 2025-10-13") || !strings.Contains(out, "x1.00") {
		t.Errorf("Expected neutral preview for week 2:\n%s", out)
	}

	out, err = runCLI(t, db, "review", "--today", "2025-10-12", "--dry-run")
	if err != nil {
		t.Fatalf("review --dry-run failed: %v", err)
	}
	for _, want := range []string{"Review applied", "week 2", "Export: dry_run (Lift Wk 13 October 25)"} {
		if !strings.Contains(out, want) {
			t.Errorf("review output missing %q:\n%s", want, out)
		}
	}
}

func TestBackupRoundTrip(t *testing.T) {
	db := setupTestCLI(t)

	if _, err := runCLI(t, db, "tm", "add", "squat", "140"); err != nil {
		t.Fatalf("tm add failed: %v", err)
	}
	if _, err := runCLI(t, db, "plan", "generate", "--start", "2025-10-06"); err != nil {
		t.Fatalf("plan generate failed: %v", err)
	}

	backup := filepath.Join(t.TempDir(), "backup.yaml")
	if _, err := runCLI(t, db, "backup", "export", "yaml", "-o", backup); err != nil {
		t.Fatalf("backup export failed: %v", err)
	}
	if info, err := os.Stat(backup); err != nil || info.Size() == 0 {
		t.Fatalf("Expected backup file, got %v", err)
	}

	restored := filepath.Join(t.TempDir(), "restored.db")
	if _, err := runCLI(t, restored, "backup", "import", backup); err != nil {
		t.Fatalf("backup import failed: %v", err)
	}

	testDB := openTestDB(t, restored)
	ctx := context.Background()
	plans, err := testDB.ListPlans(ctx, 0)
	if err != nil {
		t.Fatalf("ListPlans failed: %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("Expected 1 restored plan, got %d", len(plans))
	}
	rows, err := testDB.GetPlanWeekRows(ctx, plans[0].ID, 1)
	if err != nil || len(rows) == 0 {
		t.Errorf("Expected restored week 1 rows, got %d (%v)", len(rows), err)
	}
	tms, err := testDB.GetLatestTrainingMaxes(ctx)
	if err != nil {
		t.Fatalf("GetLatestTrainingMaxes failed: %v", err)
	}
	if tms["squat"] == nil || *tms["squat"] != 140 {
		t.Errorf("Expected restored squat TM 140, got %v", tms["squat"])
	}
}

// countingRemote accepts every write and counts created routines.
type countingRemote struct {
	nextID   int
	routines []string
}

func (r *countingRemote) id() int {
	r.nextID++
	return r.nextID
}

func (r *countingRemote) FindOrCreateRoutine(_ context.Context, name, _ string, _, _ time.Time) (*wger.Routine, error) {
	r.routines = append(r.routines, name)
	return &wger.Routine{ID: r.id(), Name: name}, nil
}

func (r *countingRemote) DeleteAllDays(context.Context, int) (int, error) { return 0, nil }

func (r *countingRemote) CreateDay(_ context.Context, _, order int, name string) (*wger.Day, error) {
	return &wger.Day{ID: r.id(), Order: order, Name: name}, nil
}

func (r *countingRemote) CreateSlot(_ context.Context, _, order int, comment string) (*wger.Slot, error) {
	return &wger.Slot{ID: r.id(), Order: order, Comment: comment}, nil
}

func (r *countingRemote) CreateSlotEntry(_ context.Context, slotID, exerciseID, order int, comment string) (*wger.SlotEntry, error) {
	return &wger.SlotEntry{ID: r.id(), Slot: slotID, Exercise: exerciseID, Order: order, Comment: comment}, nil
}

func (r *countingRemote) SetConfig(context.Context, wger.ConfigKind, int, string) error { return nil }

// useTestRepo points the command globals at a fresh database.
func useTestRepo(t *testing.T) *storage.DB {
	t.Helper()
	setupTestCLI(t)
	db, err := storage.Open(filepath.Join(t.TempDir(), "lift.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	repo = db
	cfg = &config.Config{}
	return db
}

func TestSyncJob(t *testing.T) {
	db := useTestRepo(t)
	ctx := context.Background()
	exporter := export.NewExporter(db, nil, export.Options{})

	if err := syncJob(exporter, true)(ctx); err != nil {
		t.Errorf("Expected sync without a plan to succeed, got %v", err)
	}

	start := time.Date(2025, 10, 6, 0, 0, 0, 0, time.UTC)
	plan := planner.NewFactory(rules.DefaultPools()).BuildBlock(start, nil)
	if _, err := db.SaveFullPlan(ctx, plan); err != nil {
		t.Fatalf("SaveFullPlan failed: %v", err)
	}

	wednesday := start.AddDate(0, 0, 2)
	if err := syncWeek(ctx, exporter, true, wednesday); err != nil {
		t.Errorf("Expected dry run sync to succeed, got %v", err)
	}
	if err := syncWeek(ctx, exporter, false, wednesday); err == nil {
		t.Error("Expected sync without a remote to fail")
	}
	if err := syncWeek(ctx, exporter, false, start.AddDate(0, 0, -3)); err != nil {
		t.Errorf("Expected sync before the block to be a no-op, got %v", err)
	}
}

func TestSyncLeavesUpcomingWeekToReview(t *testing.T) {
	db := useTestRepo(t)
	ctx := context.Background()

	start := time.Date(2025, 10, 6, 0, 0, 0, 0, time.UTC)
	plan := planner.NewFactory(rules.DefaultPools()).BuildBlock(start, nil)
	if _, err := db.SaveFullPlan(ctx, plan); err != nil {
		t.Fatalf("SaveFullPlan failed: %v", err)
	}
	for i := 1; i <= 30; i++ {
		_ = db.AddDailySummary(ctx, models.DailySummary{Date: start.AddDate(0, 0, -i), RestingHR: models.Float(50), SleepMinutes: models.Float(480)})
	}
	for i := 0; i < 7; i++ {
		_ = db.AddDailySummary(ctx, models.DailySummary{Date: start.AddDate(0, 0, i), RestingHR: models.Float(56), SleepMinutes: models.Float(480)})
	}

	remote := &countingRemote{}
	exporter := export.NewExporter(db, remote, export.Options{RoutinePrefix: "Lift"})

	thursday := start.AddDate(0, 0, 3)
	if err := syncWeek(ctx, exporter, false, thursday); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if done, _ := db.WasWeekExported(ctx, plan.ID, 1); !done {
		t.Error("Expected sync to export the current week")
	}
	if done, _ := db.WasWeekExported(ctx, plan.ID, 2); done {
		t.Fatal("Expected sync to leave the upcoming week alone")
	}

	before, _ := db.GetPlanWeekRows(ctx, plan.ID, 2)
	out, err := newReviewer(exporter, review.Options{}).Run(ctx, start.AddDate(0, 0, 6).Add(16*time.Hour))
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if out.AdjustSkipped || out.Decision.SetMultiplier != 0.8 {
		t.Errorf("Expected the 0.8 decision to be applied, got skipped=%v (%s) decision=%+v",
			out.AdjustSkipped, out.AdjustNote, out.Decision)
	}
	if out.Export == nil || out.Export.Status != export.StatusExported {
		t.Errorf("Expected the adjusted week to be exported, got %+v", out.Export)
	}

	after, _ := db.GetPlanWeekRows(ctx, plan.ID, 2)
	for i := range before {
		if !before[i].IsCardio && after[i].Sets != adjust.ScaleSets(before[i].Sets, 0.8) {
			t.Errorf("row %d sets %d, want %d", i, after[i].Sets, adjust.ScaleSets(before[i].Sets, 0.8))
		}
	}
	if len(remote.routines) != 2 {
		t.Errorf("Expected one routine per week, got %v", remote.routines)
	}
}
