package receipt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	r := New("macOS (Apple Silicon)", "https://example.com/packages-mac-arm.zip", "/home/u/.platformio", 2048, 12)

	_, err := uuid.Parse(r.ID)
	require.NoError(t, err)
	assert.Equal(t, 2048, r.Bytes)
	assert.Equal(t, 12, r.Entries)
	assert.False(t, r.InstalledAt.IsZero())
	assert.NoError(t, r.Validate())

	other := New("Windows", "u", "d", 0, 0)
	assert.NotEqual(t, r.ID, other.ID)
}

func TestWriteLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "receipt.yaml")
	want := New("Windows", "https://example.com/packages-windows.zip", `C:\Users\u\.platformio`, 100, 3)

	require.NoError(t, Write(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.URL, got.URL)
	assert.Equal(t, want.Destination, got.Destination)
	assert.True(t, want.InstalledAt.Equal(got.InstalledAt))
}

func TestLoad_Missing(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	garbled := filepath.Join(dir, "garbled.yaml")
	require.NoError(t, os.WriteFile(garbled, []byte("id: [unterminated"), 0644))
	_, err := Load(garbled)
	assert.Error(t, err)

	noID := filepath.Join(dir, "noid.yaml")
	require.NoError(t, os.WriteFile(noID, []byte("url: u\ndestination: d\n"), 0644))
	_, err = Load(noID)
	assert.ErrorContains(t, err, "invalid receipt id")
}

func TestWrite_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.yaml")

	err := Write(path, &Receipt{ID: uuid.NewString(), Destination: "d"})
	assert.ErrorContains(t, err, "url is required")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSummary(t *testing.T) {
	r := New("Windows", "u", "d", 0, 7)
	assert.Contains(t, r.Summary(), "Windows, 7 entries, installed ")
}
