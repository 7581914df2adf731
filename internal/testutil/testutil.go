// Package testutil provides helper functions for testing.
package testutil

import (
	"archive/zip"
	"bytes"
	"io/fs"
	"os"
	"testing"
)

// TempDir creates a temporary directory and registers a cleanup function.
// The directory is automatically deleted when the test completes, even if
// the test left read-only directories behind.
func TempDir(t *testing.T) string {
	t.Helper()

	dir, err := os.MkdirTemp("", "piodl-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	t.Cleanup(func() {
		_ = makeWritable(dir)
		if err := os.RemoveAll(dir); err != nil {
			t.Errorf("failed to cleanup temp dir %s: %v", dir, err)
		}
	})

	return dir
}

func makeWritable(root string) error {
	return fs.WalkDir(os.DirFS(root), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		return os.Chmod(root+string(os.PathSeparator)+path, 0o755)
	})
}

// ZipEntry describes one member of an archive built by BuildZip.
type ZipEntry struct {
	// Name is the path stored in the archive; a trailing slash marks a directory.
	Name string
	// Body is the file content, or the link target for symlinks.
	Body string
	// Mode, when nonzero, is stored as Unix attributes via FileHeader.SetMode.
	Mode fs.FileMode
	// RawAttrs, when nonzero, is stored verbatim in the upper half of
	// ExternalAttrs and takes precedence over Mode.
	RawAttrs uint32
}

// BuildZip returns an in-memory zip archive containing entries in order.
// Entries with neither Mode nor RawAttrs carry no Unix permission bits, like
// archives written on Windows.
func BuildZip(t *testing.T, entries ...ZipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.Name, Method: zip.Deflate}
		switch {
		case e.RawAttrs != 0:
			hdr.CreatorVersion = 3 << 8 // Unix
			hdr.ExternalAttrs = e.RawAttrs << 16
		case e.Mode != 0:
			hdr.SetMode(e.Mode)
		}

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("failed to create zip entry %s: %v", e.Name, err)
		}
		if e.Body == "" {
			continue
		}
		if _, err := w.Write([]byte(e.Body)); err != nil {
			t.Fatalf("failed to write zip entry %s: %v", e.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}
