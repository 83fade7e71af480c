// Package config provides configuration management for the report pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingMainWebhook      = errors.New("webhooks.main is required")
	ErrInvalidWebhook          = errors.New("webhook must be an https chat.googleapis.com URL")
	ErrInvalidBatchSize        = errors.New("delivery.batch_size must be at least 1")
	ErrInvalidMaxPerRun        = errors.New("delivery.max_per_run must be at least delivery.batch_size")
	ErrInvalidBackoffBase      = errors.New("delivery.backoff_base_ms must be positive")
	ErrInvalidBackoffMax       = errors.New("delivery.backoff_max_ms must be >= backoff_base_ms")
	ErrInvalidBackoffGrowth    = errors.New("delivery.backoff_growth must be >= 1.0")
	ErrInvalidRatePerSecond    = errors.New("delivery.rate_per_second must be positive")
	ErrInvalidTimeout          = errors.New("delivery.timeout_sec must be at least 1")
	ErrMissingReportInput      = errors.New("reports input path is required")
	ErrMissingJournalPath      = errors.New("journal path is required")
	ErrMissingLockPath         = errors.New("lock.path is required")
	ErrInvalidLockStaleMinutes = errors.New("lock.stale_after_min must be positive")
	ErrInvalidLogLevel         = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config is the complete pipeline configuration.
type Config struct {
	Webhooks WebhooksConfig `yaml:"webhooks"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Reports  ReportsConfig  `yaml:"reports"`
	Journals JournalsConfig `yaml:"journals"`
	Reauth   ReauthConfig   `yaml:"reauth"`
	Lock     LockConfig     `yaml:"lock"`
	Logging  LoggingConfig  `yaml:"logging"`

	// CIRunURL links alert messages back to the run that raised them.
	// Populated from the CI_RUN_URL environment variable only.
	CIRunURL string `yaml:"-"`
}

// WebhooksConfig holds the Google Chat webhook URLs. Complaints fall back to
// the main webhook when unset.
type WebhooksConfig struct {
	Main       string `yaml:"main"`
	Alert      string `yaml:"alert"`
	Complaints string `yaml:"complaints"`
}

// DeliveryConfig tunes batching, capping and retry pacing.
type DeliveryConfig struct {
	BatchSize     int     `yaml:"batch_size"`
	MaxPerRun     int     `yaml:"max_per_run"`
	BackoffBaseMs int     `yaml:"backoff_base_ms"`
	BackoffMaxMs  int     `yaml:"backoff_max_ms"`
	BackoffGrowth float64 `yaml:"backoff_growth"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	TimeoutSec    int     `yaml:"timeout_sec"`
}

// ReportsConfig names the rendered report dump files.
type ReportsConfig struct {
	CommentsInput   string `yaml:"comments_input"`
	ComplaintsInput string `yaml:"complaints_input"`
	DailyInput      string `yaml:"daily_input"`
}

// JournalsConfig names the append-only delivery logs.
type JournalsConfig struct {
	Comments   string `yaml:"comments"`
	Complaints string `yaml:"complaints"`
	Daily      string `yaml:"daily"`
}

// ReauthConfig is the external login command run after an auth wall.
type ReauthConfig struct {
	Command []string `yaml:"command"`
}

// LockConfig controls the run lock.
type LockConfig struct {
	Path          string `yaml:"path"`
	StaleAfterMin int    `yaml:"stale_after_min"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads, defaults, overlays environment variables and validates the
// configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Delivery.BatchSize == 0 {
		c.Delivery.BatchSize = 10
	}

	if c.Delivery.MaxPerRun == 0 {
		c.Delivery.MaxPerRun = 30
	}

	if c.Delivery.BackoffBaseMs == 0 {
		c.Delivery.BackoffBaseMs = 2000
	}

	if c.Delivery.BackoffMaxMs == 0 {
		c.Delivery.BackoffMaxMs = 30000
	}

	if c.Delivery.BackoffGrowth == 0 {
		c.Delivery.BackoffGrowth = 1.7
	}

	if c.Delivery.RatePerSecond == 0 {
		c.Delivery.RatePerSecond = 0.5
	}

	if c.Delivery.TimeoutSec == 0 {
		c.Delivery.TimeoutSec = 30
	}

	if c.Lock.StaleAfterMin == 0 {
		c.Lock.StaleAfterMin = 20
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// applyEnv lets CI inject secrets without writing them into the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("MAIN_WEBHOOK"); v != "" {
		c.Webhooks.Main = v
	}

	if v := os.Getenv("ALERT_WEBHOOK"); v != "" {
		c.Webhooks.Alert = v
	}

	if v := os.Getenv("COMPLAINTS_WEBHOOK"); v != "" {
		c.Webhooks.Complaints = v
	}

	c.CIRunURL = os.Getenv("CI_RUN_URL")
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Webhooks.Main == "" {
		return ErrMissingMainWebhook
	}

	for name, u := range map[string]string{
		"main":       c.Webhooks.Main,
		"alert":      c.Webhooks.Alert,
		"complaints": c.Webhooks.Complaints,
	} {
		if u != "" && !isChatURL(u) {
			return fmt.Errorf("%w: webhooks.%s", ErrInvalidWebhook, name)
		}
	}

	if c.Delivery.BatchSize < 1 {
		return ErrInvalidBatchSize
	}

	if c.Delivery.MaxPerRun < c.Delivery.BatchSize {
		return ErrInvalidMaxPerRun
	}

	if c.Delivery.BackoffBaseMs <= 0 {
		return ErrInvalidBackoffBase
	}

	if c.Delivery.BackoffMaxMs < c.Delivery.BackoffBaseMs {
		return ErrInvalidBackoffMax
	}

	if c.Delivery.BackoffGrowth < 1.0 {
		return ErrInvalidBackoffGrowth
	}

	if c.Delivery.RatePerSecond <= 0 {
		return ErrInvalidRatePerSecond
	}

	if c.Delivery.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Reports.CommentsInput == "" && c.Reports.ComplaintsInput == "" && c.Reports.DailyInput == "" {
		return ErrMissingReportInput
	}

	if c.Journals.Comments == "" || c.Journals.Complaints == "" || c.Journals.Daily == "" {
		return ErrMissingJournalPath
	}

	if c.Lock.Path == "" {
		return ErrMissingLockPath
	}

	if c.Lock.StaleAfterMin <= 0 {
		return ErrInvalidLockStaleMinutes
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	return nil
}

// ComplaintsWebhook returns the complaints webhook, falling back to main.
func (c *Config) ComplaintsWebhook() string {
	if c.Webhooks.Complaints != "" {
		return c.Webhooks.Complaints
	}

	return c.Webhooks.Main
}

// AlertWebhook returns the alert webhook, falling back to main.
func (c *Config) AlertWebhook() string {
	if c.Webhooks.Alert != "" {
		return c.Webhooks.Alert
	}

	return c.Webhooks.Main
}

// BackoffBase returns the initial retry delay.
func (c *DeliveryConfig) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseMs) * time.Millisecond
}

// BackoffMax returns the retry delay ceiling.
func (c *DeliveryConfig) BackoffMax() time.Duration {
	return time.Duration(c.BackoffMaxMs) * time.Millisecond
}

// Timeout returns the per-request HTTP timeout.
func (c *DeliveryConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// StaleAfter returns the lock staleness threshold.
func (c *LockConfig) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterMin) * time.Minute
}

func isChatURL(raw string) bool {
	const prefix = "https://chat.googleapis.com/"

	return len(raw) > len(prefix) && raw[:len(prefix)] == prefix
}
