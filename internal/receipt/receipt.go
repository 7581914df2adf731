// Package receipt records a completed install as a small YAML document.
//
// The receipt is informational. Nothing in the install path reads it back
// except the CLI, which reports the previous install before asking to
// overwrite it.
package receipt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Receipt describes one successful install.
type Receipt struct {
	ID          string    `yaml:"id"`
	Platform    string    `yaml:"platform"`
	URL         string    `yaml:"url"`
	Destination string    `yaml:"destination"`
	Bytes       int       `yaml:"bytes"`
	Entries     int       `yaml:"entries"`
	InstalledAt time.Time `yaml:"installed_at"`
}

// New returns a receipt with a fresh ID, stamped with the current time.
func New(platform, url, destination string, bytes, entries int) *Receipt {
	return &Receipt{
		ID:          uuid.New().String(),
		Platform:    platform,
		URL:         url,
		Destination: destination,
		Bytes:       bytes,
		Entries:     entries,
		InstalledAt: time.Now().UTC().Truncate(time.Second),
	}
}

// Validate checks the fields a receipt must carry.
func (r *Receipt) Validate() error {
	if _, err := uuid.Parse(r.ID); err != nil {
		return fmt.Errorf("invalid receipt id %q: %w", r.ID, err)
	}
	if r.URL == "" {
		return errors.New("receipt url is required")
	}
	if r.Destination == "" {
		return errors.New("receipt destination is required")
	}
	return nil
}

// Write stores the receipt at path, creating parent directories.
func Write(path string, r *Receipt) error {
	if err := r.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create receipt directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write receipt: %w", err)
	}

	return nil
}

// Load reads the receipt at path.
// A missing file returns (nil, nil).
func Load(path string) (*Receipt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read receipt: %w", err)
	}

	var r Receipt
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse receipt %s: %w", path, err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("receipt %s: %w", path, err)
	}

	return &r, nil
}

// Summary is the one-line form shown before an install overwrites this one.
func (r *Receipt) Summary() string {
	return fmt.Sprintf("%s, %d entries, installed %s",
		r.Platform, r.Entries, r.InstalledAt.Local().Format("2006-01-02 15:04"))
}
