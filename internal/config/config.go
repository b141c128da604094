// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrAPIKeyMissing is returned when MINIMAX_API_KEY is not set.
	ErrAPIKeyMissing = errors.New("config: MINIMAX_API_KEY is required")
	// ErrGroupIDMissing is returned when MINIMAX_GROUP_ID is not set.
	ErrGroupIDMissing = errors.New("config: MINIMAX_GROUP_ID is required")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// MiniMax settings. The credentials are intentionally not marked
	// required: their absence is reported as a configuration error at
	// request time, before any upstream call is attempted.
	MinimaxAPIKey  string `env:"MINIMAX_API_KEY" json:"-"`  // Masked in JSON
	MinimaxGroupID string `env:"MINIMAX_GROUP_ID" json:"-"` // Masked in JSON
	MinimaxBaseURL string `env:"MINIMAX_BASE_URL, default=https://api.minimax.chat" json:"minimax_base_url"`
	MinimaxModel   string `env:"MINIMAX_MODEL, default=I2V-01-Director" json:"minimax_model"`

	// Storage settings
	DataDir       string `env:"DATA_DIR, default=/tmp/i2v-stitcher" json:"data_dir"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL, default=http://localhost:8080" json:"public_base_url"`

	// Upstream timing settings
	PollIntervalSec    int `env:"POLL_INTERVAL_SEC, default=3" json:"poll_interval_sec"`
	PollMaxAttempts    int `env:"POLL_MAX_ATTEMPTS, default=240" json:"poll_max_attempts"`
	SubmitTimeoutSec   int `env:"SUBMIT_TIMEOUT_SEC, default=300" json:"submit_timeout_sec"`
	DownloadTimeoutSec int `env:"DOWNLOAD_TIMEOUT_SEC, default=600" json:"download_timeout_sec"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// HTTP settings
	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=*" json:"allowed_origins"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// ValidateCredentials checks that the MiniMax credentials are present.
// Called by the generate handler before any upstream work starts.
func (c *Config) ValidateCredentials() error {
	if c.MinimaxAPIKey == "" {
		return ErrAPIKeyMissing
	}
	if c.MinimaxGroupID == "" {
		return ErrGroupIDMissing
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, MinimaxBaseURL: %s, MinimaxModel: %s, DataDir: %s, PublicBaseURL: %s, PollIntervalSec: %d, PollMaxAttempts: %d, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.MinimaxBaseURL,
		c.MinimaxModel,
		c.DataDir,
		c.PublicBaseURL,
		c.PollIntervalSec,
		c.PollMaxAttempts,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
