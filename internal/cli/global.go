// Package cli provides global state and utilities for CLI commands.
package cli

import (
	"io"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"
)

var (
	// NoTUI indicates that TUI/interactive mode should be disabled.
	// This is set by the global --no-tui flag.
	NoTUI bool

	// Verbose enables debug logging. Set by the global --verbose flag.
	Verbose bool

	// ConfigPath overrides the config file location. Set by --config.
	ConfigPath string

	// globalMutex protects the flag values for concurrent access.
	globalMutex sync.RWMutex
)

// AddGlobalFlags adds global flags to a command.
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVar(&NoTUI, "no-tui", false,
		"disable TUI/interactive mode; use a plain y/n line prompt")
	cmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false,
		"log diagnostics to stderr")
	cmd.PersistentFlags().StringVar(&ConfigPath, "config", "",
		"config file path (default ~/.config/piodl/config.toml)")
}

// IsNoTUI returns true if TUI mode is disabled.
func IsNoTUI() bool {
	globalMutex.RLock()
	defer globalMutex.RUnlock()
	return NoTUI
}

// IsVerbose returns true if debug logging is enabled.
func IsVerbose() bool {
	globalMutex.RLock()
	defer globalMutex.RUnlock()
	return Verbose
}

// configPath returns the --config value.
func configPath() string {
	globalMutex.RLock()
	defer globalMutex.RUnlock()
	return ConfigPath
}

// NewLogger returns a text logger writing to w at info level, or debug
// level with --verbose.
func NewLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if IsVerbose() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
