package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	pioerrors "github.com/chazuruo/piodl/internal/errors"
)

// TestDetectConfigPath_NoConfig tests that an absolute path or empty string is returned.
func TestDetectConfigPath_NoConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if path := DetectConfigPath(); path != "" {
		t.Errorf("DetectConfigPath() with empty home returned %q, want empty", path)
	}
}

// TestDetectConfigPath_Found tests detection under ~/.config/piodl.
func TestDetectConfigPath_Found(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	want := filepath.Join(home, ".config", "piodl", "config.toml")
	if err := os.MkdirAll(filepath.Dir(want), 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(want, []byte("[ui]\nbanner = false\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if got := DetectConfigPath(); got != want {
		t.Errorf("DetectConfigPath() = %q, want %q", got, want)
	}
}

// TestLoad_ValidConfig tests loading a valid config file.
func TestLoad_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[download]
timeout_seconds = 60
user_agent = "piodl-test"

[ui]
tui = false
progress_width = 20

[receipt]
path = "/tmp/piodl/receipt.yaml"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Download.TimeoutSeconds != 60 {
		t.Errorf("expected download.timeout_seconds to be 60, got %d", cfg.Download.TimeoutSeconds)
	}
	if cfg.Download.UserAgent != "piodl-test" {
		t.Errorf("expected download.user_agent to be 'piodl-test', got %q", cfg.Download.UserAgent)
	}
	if cfg.UI.TUI {
		t.Error("expected ui.tui to be false")
	}
	if cfg.UI.ProgressWidth != 20 {
		t.Errorf("expected ui.progress_width to be 20, got %d", cfg.UI.ProgressWidth)
	}
	if cfg.Receipt.Path != "/tmp/piodl/receipt.yaml" {
		t.Errorf("expected receipt.path to be '/tmp/piodl/receipt.yaml', got %q", cfg.Receipt.Path)
	}

	// Unset fields keep their defaults
	if cfg.Download.FallbackChunkSize != 1_000_000 {
		t.Errorf("expected default fallback_chunk_size, got %d", cfg.Download.FallbackChunkSize)
	}
	if !cfg.UI.Banner {
		t.Error("expected ui.banner default to be true")
	}
	if !cfg.Receipt.Enabled {
		t.Error("expected receipt.enabled default to be true")
	}
}

// TestLoad_InvalidTOML tests that malformed TOML is a config error.
func TestLoad_InvalidTOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[download\ntimeout_seconds = "), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid TOML, got nil")
	}

	cfgErr, ok := pioerrors.AsConfigError(err)
	if !ok {
		t.Fatalf("expected ConfigError, got %T", err)
	}
	if cfgErr.Path != configPath {
		t.Errorf("ConfigError.Path = %q, want %q", cfgErr.Path, configPath)
	}
}

// TestLoad_ValidationFailed tests that an out-of-range value is rejected.
func TestLoad_ValidationFailed(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[download]\ntimeout_seconds = 0\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "timeout_seconds") {
		t.Errorf("error should name the field, got: %v", err)
	}
}

// TestLoad_FileNotExist tests loading a missing file.
func TestLoad_FileNotExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
	if !os.IsNotExist(unwrapConfig(err)) {
		t.Errorf("expected not-exist cause, got: %v", err)
	}
}

// TestLoadWithDefaults_NoFile tests that defaults are returned without a config file.
func TestLoadWithDefaults_NoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadWithDefaults()
	if err != nil {
		t.Fatalf("LoadWithDefaults() returned error: %v", err)
	}
	if cfg.Download.TimeoutSeconds != 300 {
		t.Errorf("expected default timeout, got %d", cfg.Download.TimeoutSeconds)
	}
}

// TestLoadFrom tests explicit and implicit paths.
func TestLoadFrom(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadFrom("")
	if err != nil {
		t.Fatalf("LoadFrom(\"\") returned error: %v", err)
	}
	if !cfg.UI.TUI {
		t.Error("expected default ui.tui")
	}

	configPath := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(configPath, []byte("[ui]\ntui = false\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	cfg, err = LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom(path) returned error: %v", err)
	}
	if cfg.UI.TUI {
		t.Error("expected ui.tui from file to be false")
	}
}

// TestEnvOverrides_String tests string overrides.
func TestEnvOverrides_String(t *testing.T) {
	t.Setenv("PIODL_DOWNLOAD_USER_AGENT", "custom-agent")
	t.Setenv("PIODL_RECEIPT_PATH", "/var/lib/piodl/receipt.yaml")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Download.UserAgent != "custom-agent" {
		t.Errorf("expected user_agent override, got %q", cfg.Download.UserAgent)
	}
	if cfg.Receipt.Path != "/var/lib/piodl/receipt.yaml" {
		t.Errorf("expected receipt.path override, got %q", cfg.Receipt.Path)
	}
}

// TestEnvOverrides_Bool tests the accepted boolean spellings.
func TestEnvOverrides_Bool(t *testing.T) {
	tests := []struct {
		value string
		start bool
		want  bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"YES", false, true},
		{"on", false, true},
		{"false", true, false},
		{"0", true, false},
		{"no", true, false},
		{"off", true, false},
		{"maybe", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("PIODL_UI_TUI", tt.value)

			cfg := DefaultConfig()
			cfg.UI.TUI = tt.start
			applyEnvOverrides(cfg)

			if cfg.UI.TUI != tt.want {
				t.Errorf("PIODL_UI_TUI=%q: got %v, want %v", tt.value, cfg.UI.TUI, tt.want)
			}
		})
	}
}

// TestEnvOverrides_Int tests integer overrides and ignores unparsable values.
func TestEnvOverrides_Int(t *testing.T) {
	t.Setenv("PIODL_DOWNLOAD_TIMEOUT_SECONDS", "42")
	t.Setenv("PIODL_UI_PROGRESS_WIDTH", "wide")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Download.TimeoutSeconds != 42 {
		t.Errorf("expected timeout override 42, got %d", cfg.Download.TimeoutSeconds)
	}
	if cfg.UI.ProgressWidth != 40 {
		t.Errorf("expected unparsable width to be ignored, got %d", cfg.UI.ProgressWidth)
	}
}

// TestEnvOverrides_EmptyValue tests that empty values do not override.
func TestEnvOverrides_EmptyValue(t *testing.T) {
	t.Setenv("PIODL_DOWNLOAD_USER_AGENT", "")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Download.UserAgent != "piodl" {
		t.Errorf("empty env value should not override, got %q", cfg.Download.UserAgent)
	}
}

// TestLoad_WithEnvOverrides tests that env wins over the file.
func TestLoad_WithEnvOverrides(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[download]\ntimeout_seconds = 60\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("PIODL_DOWNLOAD_TIMEOUT_SECONDS", "90")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Download.TimeoutSeconds != 90 {
		t.Errorf("expected env override 90, got %d", cfg.Download.TimeoutSeconds)
	}
}

// TestExpandPath tests tilde expansion of the receipt path.
func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := DefaultConfig()
	cfg.Receipt.Path = "~/receipts/piodl.yaml"
	expandPath(cfg)

	want := filepath.Join(home, "receipts", "piodl.yaml")
	if cfg.Receipt.Path != want {
		t.Errorf("expandPath() = %q, want %q", cfg.Receipt.Path, want)
	}
}

// TestWrite_RoundTrip tests that a written config loads back unchanged.
func TestWrite_RoundTrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.Download.TimeoutSeconds = 120
	cfg.UI.Banner = false
	cfg.Receipt.Path = "/tmp/receipt.yaml"

	if err := Write(configPath, cfg); err != nil {
		t.Fatalf("Write() returned error: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", *loaded, *cfg)
	}
}

// TestWrite_InvalidKeepsExisting tests that an invalid config is refused without touching the file.
func TestWrite_InvalidKeepsExisting(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[ui]\nbanner = false\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Download.TimeoutSeconds = 0

	err := Write(configPath, cfg)
	if err == nil {
		t.Fatal("Write() should fail for an invalid config")
	}
	if _, ok := pioerrors.AsConfigError(err); !ok {
		t.Errorf("Write() error = %v, want ConfigError", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if string(data) != "[ui]\nbanner = false\n" {
		t.Errorf("existing config changed: %q", data)
	}
}

// TestWrite_Header tests the written file starts with the comment header and is world readable.
func TestWrite_Header(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := Write(configPath, DefaultConfig()); err != nil {
		t.Fatalf("Write() returned error: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if !strings.HasPrefix(string(data), "# piodl configuration.") {
		t.Errorf("missing header:\n%s", data)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Stat() returned error: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0644 {
		t.Errorf("mode = %v, want 0644", info.Mode().Perm())
	}
}

func unwrapConfig(err error) error {
	if cfgErr, ok := pioerrors.AsConfigError(err); ok {
		return cfgErr.Err
	}
	return err
}
