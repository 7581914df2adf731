// Package errors provides the error kinds reported by piodl.
//
// Every failure that can end a run maps onto one of a small set of base
// errors, optionally wrapped in a typed error that carries context such as
// the URL being fetched or the archive entry being written.
//
// # Error Types
//
// Base errors (sentinel errors):
//   - ErrUnsupportedPlatform - the host is neither Windows nor macOS
//   - ErrNetwork - connection or read failure during download
//   - ErrCorruptArchive - downloaded bytes are not a valid zip archive
//   - ErrPathTraversal - an entry would be written outside the destination
//   - ErrExtraction - an entry could not be written
//   - ErrCanceled - the user declined or interrupted the run
//
// Wrapped error types (add context):
//   - DownloadError{URL, Status, Err} - always matches ErrNetwork
//   - EntryError{Path, Kind, Err} - matches Kind and wraps Err
//   - ConfigError{Path, Err} - configuration errors
//
// # Usage
//
//	return &errors.EntryError{Path: f.Name, Kind: errors.ErrExtraction, Err: err}
//
//	if errors.IsPathTraversal(err) {
//	    // refuse the archive
//	}
package errors

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	// ErrUnsupportedPlatform indicates the host OS has no package archive.
	ErrUnsupportedPlatform = baseError("unsupported platform")

	// ErrNetwork indicates the download could not be completed.
	ErrNetwork = baseError("network error")

	// ErrCorruptArchive indicates the downloaded data is not a readable zip archive.
	ErrCorruptArchive = baseError("corrupt archive")

	// ErrPathTraversal indicates an archive entry resolves outside the destination.
	ErrPathTraversal = baseError("path traversal")

	// ErrExtraction indicates an archive entry could not be extracted.
	ErrExtraction = baseError("extraction failed")

	// ErrCanceled indicates the user canceled the operation.
	ErrCanceled = baseError("canceled")
)

// baseError is a string that implements error.
type baseError string

func (e baseError) Error() string { return string(e) }

// DownloadError represents a failure while fetching the package archive.
type DownloadError struct {
	// URL is the resource being downloaded.
	URL string
	// Status is the HTTP status code when the server answered (optional).
	Status int
	// Err is the underlying error (optional when Status is set).
	Err error
}

func (e *DownloadError) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("download %s: status %d: %s", e.URL, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("download %s: %s", e.URL, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("download %s: unexpected status %d", e.URL, e.Status)
	default:
		return fmt.Sprintf("download %s: %s", e.URL, ErrNetwork)
	}
}

func (e *DownloadError) Unwrap() error { return e.Err }

// Is reports every DownloadError as ErrNetwork.
func (e *DownloadError) Is(target error) bool { return target == ErrNetwork }

// EntryError represents a failure tied to a single archive entry.
type EntryError struct {
	// Path is the entry name as stored in the archive.
	Path string
	// Kind is one of ErrCorruptArchive, ErrPathTraversal or ErrExtraction.
	Kind error
	// Err is the underlying error (optional).
	Err error
}

func (e *EntryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: entry %q: %s", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: entry %q", e.Kind, e.Path)
}

func (e *EntryError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ConfigError represents an error related to configuration.
type ConfigError struct {
	// Path is the configuration file path (optional).
	Path string
	// Err is the underlying error.
	Err error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %s", e.Path, e.Err)
	}
	return fmt.Sprintf("config: %s", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Wrap adds context to an error by wrapping it with an operation name.
// The returned error implements Unwrap() allowing errors.Is and errors.As
// to work with the wrapped error.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{op: op, err: err}
}

// wrappedError is an error with an operation context.
type wrappedError struct {
	op  string
	err error
}

func (e *wrappedError) Error() string { return fmt.Sprintf("%s: %s", e.op, e.err) }
func (e *wrappedError) Unwrap() error { return e.err }

// IsUnsupportedPlatform reports whether err is or wraps ErrUnsupportedPlatform.
func IsUnsupportedPlatform(err error) bool {
	return errors.Is(err, ErrUnsupportedPlatform)
}

// IsNetwork reports whether err is or wraps ErrNetwork.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsCorruptArchive reports whether err is or wraps ErrCorruptArchive.
func IsCorruptArchive(err error) bool {
	return errors.Is(err, ErrCorruptArchive)
}

// IsPathTraversal reports whether err is or wraps ErrPathTraversal.
func IsPathTraversal(err error) bool {
	return errors.Is(err, ErrPathTraversal)
}

// IsExtraction reports whether err is or wraps ErrExtraction.
func IsExtraction(err error) bool {
	return errors.Is(err, ErrExtraction)
}

// IsCanceled reports whether err is or wraps ErrCanceled.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// AsEntryError reports whether err can be typed as an *EntryError.
func AsEntryError(err error) (*EntryError, bool) {
	var ee *EntryError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}

// AsDownloadError reports whether err can be typed as a *DownloadError.
func AsDownloadError(err error) (*DownloadError, bool) {
	var de *DownloadError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// AsConfigError reports whether err can be typed as a *ConfigError.
func AsConfigError(err error) (*ConfigError, bool) {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
