package fetch

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	pioerrors "github.com/chazuruo/piodl/internal/errors"
)

// Unix file type bits as stored in the upper half of a zip entry's external attributes.
const (
	unixTypeMask    = 0o170000
	unixTypeDir     = 0o040000
	unixTypeRegular = 0o100000
	unixTypeSymlink = 0o120000
)

// Summary describes a completed extraction.
type Summary struct {
	Files       int
	Directories int
	Symlinks    int
	// Chmods counts entries whose permission bits were restored.
	Chmods int
}

// Entries returns the total number of entries written.
func (s *Summary) Entries() int {
	return s.Files + s.Directories + s.Symlinks
}

// Extractor unpacks an in-memory zip archive.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{logger: slog.Default()}
}

// SetLogger sets the logger used for diagnostics.
func (e *Extractor) SetLogger(l *slog.Logger) {
	if l != nil {
		e.logger = l
	}
}

// Extract writes every entry of the zip archive in data beneath destDir.
//
// Entry paths are validated before anything is written, so an archive that
// contains a single escaping entry leaves the filesystem untouched. Entries
// with nonzero Unix permission bits are chmod'ed to those bits; directory
// modes are applied last so read-only directories do not block their
// contents.
//
// Nothing is written through a symlink created by the archive, and a symlink
// target may not step through one, so links cannot be chained out of destDir.
// ctx is checked between entries.
func (e *Extractor) Extract(ctx context.Context, data []byte, destDir string) (*Summary, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("%w: %w", pioerrors.ErrCorruptArchive, err)
	}

	root, err := filepath.Abs(destDir)
	if err != nil {
		return nil, pioerrors.Wrap(err, "resolve destination")
	}

	targets := make([]string, len(r.File))
	for i, f := range r.File {
		target, err := entryTarget(root, f.Name)
		if err != nil {
			return nil, &pioerrors.EntryError{Path: f.Name, Kind: pioerrors.ErrPathTraversal, Err: err}
		}
		targets[i] = target
	}

	if err := os.MkdirAll(root, 0o777); err != nil {
		return nil, &pioerrors.EntryError{Path: destDir, Kind: pioerrors.ErrExtraction, Err: err}
	}

	summary := &Summary{}
	type dirMode struct {
		name, path string
		mode       fs.FileMode
	}
	var dirModes []dirMode

	for i, f := range r.File {
		if err := ctx.Err(); err != nil {
			return nil, pioerrors.Wrap(err, "extract")
		}

		target := targets[i]
		attr := f.ExternalAttrs >> 16

		if err := checkParents(root, target); err != nil {
			return nil, &pioerrors.EntryError{Path: f.Name, Kind: pioerrors.ErrPathTraversal, Err: err}
		}

		switch {
		case isDirEntry(f, attr):
			if fi, err := os.Lstat(target); err == nil && fi.Mode()&fs.ModeSymlink != 0 {
				return nil, &pioerrors.EntryError{Path: f.Name, Kind: pioerrors.ErrPathTraversal, Err: errors.New("directory entry is a symlink")}
			}
			if err := os.MkdirAll(target, 0o777); err != nil {
				return nil, &pioerrors.EntryError{Path: f.Name, Kind: pioerrors.ErrExtraction, Err: err}
			}
			summary.Directories++
			if attr != 0 {
				dirModes = append(dirModes, dirMode{f.Name, target, unixPerm(attr)})
			}

		case attr&unixTypeMask == unixTypeSymlink:
			if err := e.extractSymlink(f, root, target); err != nil {
				return nil, err
			}
			summary.Symlinks++

		case attr&unixTypeMask == 0 || attr&unixTypeMask == unixTypeRegular:
			if err := extractFile(f, target); err != nil {
				return nil, err
			}
			summary.Files++
			if attr != 0 {
				if err := os.Chmod(target, unixPerm(attr)); err != nil {
					return nil, &pioerrors.EntryError{Path: f.Name, Kind: pioerrors.ErrExtraction, Err: err}
				}
				summary.Chmods++
			}

		default:
			return nil, &pioerrors.EntryError{
				Path: f.Name,
				Kind: pioerrors.ErrExtraction,
				Err:  errors.New("unsupported entry type"),
			}
		}
	}

	for i := len(dirModes) - 1; i >= 0; i-- {
		d := dirModes[i]
		if err := os.Chmod(d.path, d.mode); err != nil {
			return nil, &pioerrors.EntryError{Path: d.name, Kind: pioerrors.ErrExtraction, Err: err}
		}
		summary.Chmods++
	}

	e.logger.Debug("archive extracted",
		"dest", root,
		"files", summary.Files,
		"dirs", summary.Directories,
		"symlinks", summary.Symlinks,
		"chmods", summary.Chmods)

	return summary, nil
}

// entryTarget joins name onto root, rejecting names that leave root.
func entryTarget(root, name string) (string, error) {
	clean := strings.TrimSuffix(name, "/")
	if clean == "" {
		return "", errors.New("empty entry name")
	}
	local := filepath.FromSlash(clean)
	if !filepath.IsLocal(local) {
		return "", errors.New("entry path is not local to the destination")
	}
	target := filepath.Join(root, local)
	if !within(root, target) {
		return "", errors.New("entry path resolves outside the destination")
	}
	return target, nil
}

// within reports whether target is root or lies beneath it.
func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// checkParents rejects target when any directory between root and target is
// a symlink. Components that do not exist yet are fine; they are created as
// real directories.
func checkParents(root, target string) error {
	rel, err := filepath.Rel(root, filepath.Dir(target))
	if err != nil || rel == "." {
		return err
	}
	cur := root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		cur = filepath.Join(cur, part)
		fi, err := os.Lstat(cur)
		if err != nil {
			return nil
		}
		if fi.Mode()&fs.ModeSymlink != 0 {
			return fmt.Errorf("path passes through symlink %s", filepath.Base(cur))
		}
	}
	return nil
}

// checkLinkTarget walks linkname from dir one segment at a time, the way the
// kernel would. The walk must stay inside root, a ".." may only leave a real
// directory, and no intermediate segment may be a symlink.
func checkLinkTarget(root, dir, linkname string) error {
	if filepath.IsAbs(linkname) || filepath.VolumeName(linkname) != "" {
		return errors.New("absolute symlink targets are not supported")
	}

	cur := dir
	parts := strings.Split(linkname, string(filepath.Separator))
	for i, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			fi, err := os.Lstat(cur)
			if err != nil || !fi.IsDir() {
				return fmt.Errorf("symlink target steps out of %q, which is not a directory", filepath.Base(cur))
			}
			cur = filepath.Dir(cur)
		default:
			cur = filepath.Join(cur, part)
			if i < len(parts)-1 {
				if fi, err := os.Lstat(cur); err == nil && fi.Mode()&fs.ModeSymlink != 0 {
					return fmt.Errorf("symlink target passes through symlink %s", part)
				}
			}
		}
		if !within(root, cur) {
			return errors.New("symlink target resolves outside the destination")
		}
	}
	return nil
}

func isDirEntry(f *zip.File, attr uint32) bool {
	if attr&unixTypeMask == unixTypeDir {
		return true
	}
	return strings.HasSuffix(f.Name, "/")
}

// unixPerm converts raw Unix permission bits to an os.FileMode.
func unixPerm(attr uint32) fs.FileMode {
	mode := fs.FileMode(attr & 0o777)
	if attr&0o4000 != 0 {
		mode |= fs.ModeSetuid
	}
	if attr&0o2000 != 0 {
		mode |= fs.ModeSetgid
	}
	if attr&0o1000 != 0 {
		mode |= fs.ModeSticky
	}
	return mode
}

// extractFile writes a regular file entry to disk with default permissions.
func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o777); err != nil {
		return &pioerrors.EntryError{Path: f.Name, Kind: pioerrors.ErrExtraction, Err: err}
	}

	rc, err := f.Open()
	if err != nil {
		return entryReadError(f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	// A file entry replaces a symlink of the same name instead of writing through it.
	if fi, err := os.Lstat(target); err == nil && fi.Mode()&fs.ModeSymlink != 0 {
		if err := os.Remove(target); err != nil {
			return &pioerrors.EntryError{Path: f.Name, Kind: pioerrors.ErrExtraction, Err: err}
		}
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o666)
	if err != nil {
		return &pioerrors.EntryError{Path: f.Name, Kind: pioerrors.ErrExtraction, Err: err}
	}

	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return &pioerrors.EntryError{Path: f.Name, Kind: pioerrors.ErrExtraction, Err: err}
		}
		return entryReadError(f.Name, err)
	}

	if err := out.Close(); err != nil {
		return &pioerrors.EntryError{Path: f.Name, Kind: pioerrors.ErrExtraction, Err: err}
	}
	return nil
}

// extractSymlink creates a symlink entry whose target must stay inside root.
func (e *Extractor) extractSymlink(f *zip.File, root, target string) error {
	rc, err := f.Open()
	if err != nil {
		return entryReadError(f.Name, err)
	}
	link, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return entryReadError(f.Name, err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o777); err != nil {
		return &pioerrors.EntryError{Path: f.Name, Kind: pioerrors.ErrExtraction, Err: err}
	}

	linkname := filepath.FromSlash(string(link))
	if err := checkLinkTarget(root, filepath.Dir(target), linkname); err != nil {
		return &pioerrors.EntryError{Path: f.Name, Kind: pioerrors.ErrPathTraversal, Err: err}
	}
	// Links validated earlier may resolve through a directory here, so a
	// directory is never swapped for a link.
	if fi, err := os.Lstat(target); err == nil {
		if fi.IsDir() {
			return &pioerrors.EntryError{Path: f.Name, Kind: pioerrors.ErrPathTraversal, Err: errors.New("symlink would replace a directory")}
		}
		if err := os.Remove(target); err != nil {
			return &pioerrors.EntryError{Path: f.Name, Kind: pioerrors.ErrExtraction, Err: err}
		}
	}
	if err := os.Symlink(linkname, target); err != nil {
		return &pioerrors.EntryError{Path: f.Name, Kind: pioerrors.ErrExtraction, Err: err}
	}
	e.logger.Debug("symlink created", "entry", f.Name, "target", linkname)
	return nil
}

// entryReadError classifies a failure reading an entry's compressed payload.
func entryReadError(name string, err error) error {
	var flateErr flate.CorruptInputError
	if errors.Is(err, zip.ErrChecksum) || errors.Is(err, zip.ErrFormat) ||
		errors.Is(err, io.ErrUnexpectedEOF) || errors.As(err, &flateErr) {
		return &pioerrors.EntryError{Path: name, Kind: pioerrors.ErrCorruptArchive, Err: err}
	}
	return &pioerrors.EntryError{Path: name, Kind: pioerrors.ErrExtraction, Err: err}
}
