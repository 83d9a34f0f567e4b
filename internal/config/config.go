// ABOUTME: Lift configuration: data dir, wger, telegram, logging, schedules.
// ABOUTME: Loaded from a JSON file with environment overrides for secrets.

package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/lift/internal/storage"
)

// Construction-time errors for remote collaborators. They are fatal and
// never retried.
var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrMissingBaseURL     = errors.New("missing base URL")
)

// Blaze modes control how cardio classes are pushed to wger.
const (
	BlazeComment  = "comment"
	BlazeExercise = "exercise"
)

// Defaults.
const (
	DefaultTimeout        = 30 * time.Second
	DefaultMaxRetries     = 3
	DefaultBackoffSeconds = 0.75
	DefaultRoutinePrefix  = "Lift"
	DefaultReviewSpec     = "0 0 16 * * 0"
	DefaultSyncSpec       = "0 30 6 * * *"
	DefaultMetricsAddr    = "127.0.0.1:9464"
)

// Config stores lift configuration.
type Config struct {
	// DataDir is the root directory for data storage. lift.db lives here.
	// Supports ~ expansion. Defaults to ~/.local/share/lift.
	DataDir string `json:"data_dir,omitempty"`

	WgerSettings     WgerSection     `json:"wger"`
	TelegramSettings TelegramSection `json:"telegram"`
	Log              LogSection      `json:"log"`
	Schedule         ScheduleSection `json:"schedule"`

	// MetricsAddr is where `lift serve` exposes /metrics.
	MetricsAddr string `json:"metrics_addr,omitempty"`
}

// WgerSection is the on-disk wger configuration.
type WgerSection struct {
	BaseURL        string  `json:"base_url,omitempty"`
	APIKey         string  `json:"api_key,omitempty"`
	TimeoutSeconds int     `json:"timeout_seconds,omitempty"`
	MaxRetries     int     `json:"max_retries,omitempty"`
	BackoffSeconds float64 `json:"backoff_seconds,omitempty"`
	RoutinePrefix  string  `json:"routine_prefix,omitempty"`
	BlazeMode      string  `json:"blaze_mode,omitempty"`
	DryRun         bool    `json:"dry_run,omitempty"`
	ForceOverwrite bool    `json:"force_overwrite,omitempty"`
}

// TelegramSection is the on-disk Telegram configuration.
type TelegramSection struct {
	Token  string `json:"token,omitempty"`
	ChatID int64  `json:"chat_id,omitempty"`
}

// LogSection configures the structured logger.
type LogSection struct {
	Level string `json:"level,omitempty"`
	JSON  bool   `json:"json,omitempty"`
}

// ScheduleSection holds cron specs (with seconds) for `lift serve`.
type ScheduleSection struct {
	Review string `json:"review,omitempty"`
	Sync   string `json:"sync,omitempty"`
}

// WgerConfig is passed to the wger client and exporter.
type WgerConfig struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	BackoffBase    time.Duration
	RoutinePrefix  string
	BlazeMode      string
	DryRun         bool
	ForceOverwrite bool
}

// TelegramConfig is passed to the Telegram notifier.
type TelegramConfig struct {
	Token  string
	ChatID int64
}

// Wger returns the wger settings with defaults applied.
func (c *Config) Wger() WgerConfig {
	w := c.WgerSettings
	out := WgerConfig{
		BaseURL:        strings.TrimRight(w.BaseURL, "/"),
		APIKey:         w.APIKey,
		Timeout:        DefaultTimeout,
		MaxRetries:     DefaultMaxRetries,
		BackoffBase:    time.Duration(DefaultBackoffSeconds * float64(time.Second)),
		RoutinePrefix:  DefaultRoutinePrefix,
		BlazeMode:      BlazeComment,
		DryRun:         w.DryRun,
		ForceOverwrite: w.ForceOverwrite,
	}
	if w.TimeoutSeconds > 0 {
		out.Timeout = time.Duration(w.TimeoutSeconds) * time.Second
	}
	if w.MaxRetries > 0 {
		out.MaxRetries = w.MaxRetries
	}
	if w.BackoffSeconds > 0 {
		out.BackoffBase = time.Duration(w.BackoffSeconds * float64(time.Second))
	}
	if w.RoutinePrefix != "" {
		out.RoutinePrefix = w.RoutinePrefix
	}
	if w.BlazeMode == BlazeExercise {
		out.BlazeMode = BlazeExercise
	}
	return out
}

// Telegram returns the Telegram settings.
func (c *Config) Telegram() TelegramConfig {
	return TelegramConfig{Token: c.TelegramSettings.Token, ChatID: c.TelegramSettings.ChatID}
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetDBPath returns the SQLite database path inside the data directory.
func (c *Config) GetDBPath() string {
	return filepath.Join(c.GetDataDir(), "lift.db")
}

// GetReviewSpec returns the weekly review cron spec.
func (c *Config) GetReviewSpec() string {
	if c.Schedule.Review == "" {
		return DefaultReviewSpec
	}
	return c.Schedule.Review
}

// GetSyncSpec returns the daily export sync cron spec.
func (c *Config) GetSyncSpec() string {
	if c.Schedule.Sync == "" {
		return DefaultSyncSpec
	}
	return c.Schedule.Sync
}

// GetMetricsAddr returns the metrics listen address.
func (c *Config) GetMetricsAddr() string {
	if c.MetricsAddr == "" {
		return DefaultMetricsAddr
	}
	return c.MetricsAddr
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage opens the SQLite store at the configured path.
func (c *Config) OpenStorage() (*storage.DB, error) {
	return storage.Open(c.GetDBPath())
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "lift", "config.json")
}

// Load reads config from disk and applies environment overrides.
func Load() (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(GetConfigPath())
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	case !os.IsNotExist(err):
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// ApplyEnv overrides file values with environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("LIFT_DATA_DIR"); ok && v != "" {
		c.DataDir = v
	}
	if v, ok := lookup("WGER_BASE_URL"); ok && v != "" {
		c.WgerSettings.BaseURL = v
	}
	if v, ok := lookup("WGER_API_KEY"); ok && v != "" {
		c.WgerSettings.APIKey = v
	}
	if v, ok := lookup("WGER_DRY_RUN"); ok {
		c.WgerSettings.DryRun = parseBool(v)
	}
	if v, ok := lookup("WGER_FORCE_OVERWRITE"); ok {
		c.WgerSettings.ForceOverwrite = parseBool(v)
	}
	if v, ok := lookup("TELEGRAM_TOKEN"); ok && v != "" {
		c.TelegramSettings.Token = v
	}
	if v, ok := lookup("TELEGRAM_CHAT_ID"); ok && v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.TelegramSettings.ChatID = id
		}
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
