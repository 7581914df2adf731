// Package config provides configuration management for piodl.
//
// The configuration is stored in TOML format and supports validation
// and default values for all fields. Nothing in it changes which archive is
// downloaded or where it is extracted; it only tunes how the run behaves.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the top-level configuration struct for piodl.
type Config struct {
	Download DownloadConfig `toml:"download"`
	UI       UIConfig       `toml:"ui"`
	Receipt  ReceiptConfig  `toml:"receipt"`
}

// DownloadConfig contains HTTP download settings.
type DownloadConfig struct {
	// TimeoutSeconds bounds the whole download.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// UserAgent is sent with the archive request.
	UserAgent string `toml:"user_agent"`

	// FallbackChunkSize is the read size used when the server does not
	// announce a Content-Length.
	FallbackChunkSize int `toml:"fallback_chunk_size"`
}

// UIConfig contains terminal output settings.
type UIConfig struct {
	// TUI controls whether the confirmation uses an interactive form
	// (when false, or when stdin is not a terminal, a line prompt is used).
	TUI bool `toml:"tui"`

	// ProgressWidth is the width of the download progress bar in cells.
	ProgressWidth int `toml:"progress_width"`

	// Banner controls whether the title banner is printed.
	Banner bool `toml:"banner"`
}

// ReceiptConfig contains install receipt settings.
type ReceiptConfig struct {
	// Enabled controls whether a receipt is written after a successful install.
	Enabled bool `toml:"enabled"`

	// Path is where the receipt is written.
	Path string `toml:"path"`
}

// DefaultConfig returns a Config with all default values set.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Download: DownloadConfig{
			TimeoutSeconds:    300,
			UserAgent:         "piodl",
			FallbackChunkSize: 1_000_000,
		},
		UI: UIConfig{
			TUI:           true,
			ProgressWidth: 40,
			Banner:        true,
		},
		Receipt: ReceiptConfig{
			Enabled: true,
			Path:    filepath.Join(homeDir, ".config", "piodl", "receipt.yaml"),
		},
	}
}

// Timeout returns the download timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Download.TimeoutSeconds) * time.Second
}

// Validate checks the configuration for valid values.
// Returns a nil error if the config is valid, or an error describing the problem.
func (c *Config) Validate() error {
	if c.Download.TimeoutSeconds <= 0 {
		return fmt.Errorf("download.timeout_seconds must be > 0; got %d", c.Download.TimeoutSeconds)
	}
	if strings.TrimSpace(c.Download.UserAgent) == "" {
		return fmt.Errorf("download.user_agent cannot be empty")
	}
	if c.Download.FallbackChunkSize <= 0 {
		return fmt.Errorf("download.fallback_chunk_size must be > 0; got %d", c.Download.FallbackChunkSize)
	}

	if c.UI.ProgressWidth <= 0 {
		return fmt.Errorf("ui.progress_width must be > 0; got %d", c.UI.ProgressWidth)
	}

	if c.Receipt.Enabled && c.Receipt.Path == "" {
		return fmt.Errorf("receipt.path cannot be empty when receipt.enabled is true")
	}

	return nil
}
