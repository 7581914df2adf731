// Package config provides configuration management for piodl.
//
// This file contains config loading functionality including:
// - XDG config path detection
// - TOML file parsing
// - Environment variable overrides
// - Validation
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	pioerrors "github.com/chazuruo/piodl/internal/errors"
)

// DefaultConfigPath returns ~/.config/piodl/config.toml, or "" when the
// home directory is unknown.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "piodl", "config.toml")
}

// DetectConfigPath searches for a config file using XDG standard paths.
// Returns the first config file found, or empty string if none exists.
//
// Search order:
// 1. ~/.config/piodl/config.toml
func DetectConfigPath() string {
	configPath := DefaultConfigPath()
	if configPath == "" {
		return ""
	}
	if _, err := os.Stat(configPath); err == nil {
		return configPath
	}

	return ""
}

// Load loads a config from the specified path.
// If the file doesn't exist, returns an error.
// After loading, applies environment variable overrides and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &pioerrors.ConfigError{Path: path, Err: err}
	}

	cfg := DefaultConfig()

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, &pioerrors.ConfigError{Path: path, Err: fmt.Errorf("parse: %w", err)}
	}

	applyEnvOverrides(cfg)
	expandPath(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, &pioerrors.ConfigError{Path: path, Err: err}
	}

	return cfg, nil
}

// LoadWithDefaults attempts to load a config from XDG standard paths.
// If no config file is found, returns a config with all default values.
// If a config file is found but fails to load/validate, returns an error.
func LoadWithDefaults() (*Config, error) {
	configPath := DetectConfigPath()
	if configPath == "" {
		cfg := DefaultConfig()
		applyEnvOverrides(cfg)
		expandPath(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, &pioerrors.ConfigError{Err: err}
		}
		return cfg, nil
	}

	return Load(configPath)
}

// LoadFrom loads the config at path, or from the default location when path is empty.
func LoadFrom(path string) (*Config, error) {
	if path == "" {
		return LoadWithDefaults()
	}
	return Load(path)
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables follow the pattern: PIODL_<SECTION>_<FIELD>
//
// Examples:
// - PIODL_DOWNLOAD_TIMEOUT_SECONDS overrides [download].timeout_seconds
// - PIODL_UI_TUI overrides [ui].tui
//
// Boolean fields: use "true"/"false" strings
func applyEnvOverrides(c *Config) {
	applyString := func(key string, target *string) {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			*target = val
		}
	}

	applyBool := func(key string, target *bool) {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			switch strings.ToLower(val) {
			case "true", "1", "yes", "on":
				*target = true
			case "false", "0", "no", "off":
				*target = false
			}
		}
	}

	applyInt := func(key string, target *int) {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			var i int
			if _, err := fmt.Sscanf(val, "%d", &i); err == nil {
				*target = i
			}
		}
	}

	// Download section
	applyInt("PIODL_DOWNLOAD_TIMEOUT_SECONDS", &c.Download.TimeoutSeconds)
	applyString("PIODL_DOWNLOAD_USER_AGENT", &c.Download.UserAgent)
	applyInt("PIODL_DOWNLOAD_FALLBACK_CHUNK_SIZE", &c.Download.FallbackChunkSize)

	// UI section
	applyBool("PIODL_UI_TUI", &c.UI.TUI)
	applyInt("PIODL_UI_PROGRESS_WIDTH", &c.UI.ProgressWidth)
	applyBool("PIODL_UI_BANNER", &c.UI.Banner)

	// Receipt section
	applyBool("PIODL_RECEIPT_ENABLED", &c.Receipt.Enabled)
	applyString("PIODL_RECEIPT_PATH", &c.Receipt.Path)
}

// expandPath expands ~ to the home directory in the receipt path.
func expandPath(c *Config) {
	if strings.HasPrefix(c.Receipt.Path, "~/") || c.Receipt.Path == "~" {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			c.Receipt.Path = filepath.Join(homeDir, strings.TrimPrefix(c.Receipt.Path, "~/"))
		}
	}
}
