package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	pioerrors "github.com/chazuruo/piodl/internal/errors"
)

const fileHeader = "# piodl configuration. Environment variables PIODL_<SECTION>_<FIELD> override these values.\n\n"

// Write validates cfg and stores it at path as TOML. The file is written to
// a temporary sibling first and renamed, so a failed write leaves any
// existing file untouched.
func Write(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return &pioerrors.ConfigError{Path: path, Err: err}
	}

	buf := bytes.NewBufferString(fileHeader)
	if err := toml.NewEncoder(buf).Encode(cfg); err != nil {
		return &pioerrors.ConfigError{Path: path, Err: fmt.Errorf("encode: %w", err)}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &pioerrors.ConfigError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return &pioerrors.ConfigError{Path: path, Err: err}
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return &pioerrors.ConfigError{Path: path, Err: err}
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return &pioerrors.ConfigError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &pioerrors.ConfigError{Path: path, Err: err}
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return &pioerrors.ConfigError{Path: path, Err: err}
	}
	return nil
}
