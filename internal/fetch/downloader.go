// Package fetch downloads the package archive into memory and extracts it,
// restoring the Unix permission bits recorded in the archive.
package fetch

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	pioerrors "github.com/chazuruo/piodl/internal/errors"
)

const (
	// MinChunkSize is the smallest read size used when the total size is known.
	MinChunkSize = 4096
	// MaxChunkSize caps a single read whatever the announced size.
	MaxChunkSize = 8 << 20
	// maxPrealloc caps how much of an announced Content-Length is reserved up front.
	maxPrealloc = 64 << 20
	// DefaultFallbackChunkSize is the read size used when the server sends no Content-Length.
	DefaultFallbackChunkSize = 1_000_000
	// DefaultTimeout bounds a whole download.
	DefaultTimeout = 5 * time.Minute
	// DefaultUserAgent is the User-Agent header sent with requests.
	DefaultUserAgent = "piodl"
)

// ProgressHook is called after every chunk with bytes downloaded and total bytes.
// total is -1 when the server did not announce a size.
type ProgressHook func(downloaded, total int64)

// StartHook is called once the response headers have arrived, before any of
// the body is read. total is -1 when the server did not announce a size.
type StartHook func(total int64)

// Downloader streams a remote archive into memory.
type Downloader struct {
	httpClient        *http.Client
	userAgent         string
	fallbackChunkSize int
	progressHook      ProgressHook
	startHook         StartHook
	logger            *slog.Logger
}

// NewDownloader creates a new Downloader.
func NewDownloader() *Downloader {
	return &Downloader{
		httpClient:        &http.Client{Timeout: DefaultTimeout},
		userAgent:         DefaultUserAgent,
		fallbackChunkSize: DefaultFallbackChunkSize,
		logger:            slog.Default(),
	}
}

// SetProgressHook sets the progress callback.
func (d *Downloader) SetProgressHook(hook ProgressHook) {
	d.progressHook = hook
}

// SetStartHook sets the callback run before the body is streamed.
func (d *Downloader) SetStartHook(hook StartHook) {
	d.startHook = hook
}

// SetHTTPClient sets the HTTP client (useful for testing).
func (d *Downloader) SetHTTPClient(client *http.Client) {
	d.httpClient = client
}

// SetUserAgent sets the User-Agent header.
func (d *Downloader) SetUserAgent(ua string) {
	if ua != "" {
		d.userAgent = ua
	}
}

// SetFallbackChunkSize sets the read size used for downloads of unknown size.
func (d *Downloader) SetFallbackChunkSize(n int) {
	if n > 0 {
		d.fallbackChunkSize = n
	}
}

// SetLogger sets the logger used for diagnostics.
func (d *Downloader) SetLogger(l *slog.Logger) {
	if l != nil {
		d.logger = l
	}
}

// ChunkSize returns the read size for a download of total bytes.
// A known total yields roughly one hundred reads; an unknown total
// (total <= 0) uses DefaultFallbackChunkSize. No read exceeds MaxChunkSize.
func ChunkSize(total int64) int {
	return chunkSize(total, DefaultFallbackChunkSize)
}

func chunkSize(total int64, fallback int) int {
	if total <= 0 {
		return min(fallback, MaxChunkSize)
	}
	return int(min(max(MinChunkSize, total/100), MaxChunkSize))
}

// Fetch downloads url and returns its full body.
// Any transport failure, non-200 status or body shorter than the announced
// Content-Length is reported as a *errors.DownloadError.
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &pioerrors.DownloadError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, &pioerrors.DownloadError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &pioerrors.DownloadError{URL: url, Status: resp.StatusCode}
	}

	total := resp.ContentLength
	if total <= 0 {
		total = -1
	}
	size := chunkSize(total, d.fallbackChunkSize)
	d.logger.Debug("download started", "url", url, "total", total, "chunk", size)
	if d.startHook != nil {
		d.startHook(total)
	}

	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(min(total, maxPrealloc)))
	}

	var downloaded int64
	chunk := make([]byte, size)
	for {
		n, err := readChunk(resp.Body, chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			downloaded += int64(n)
			if d.progressHook != nil {
				d.progressHook(downloaded, total)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &pioerrors.DownloadError{URL: url, Err: err}
		}
	}

	if total > 0 && downloaded < total {
		return nil, &pioerrors.DownloadError{URL: url, Err: io.ErrUnexpectedEOF}
	}

	d.logger.Debug("download finished", "url", url, "bytes", downloaded)
	return buf.Bytes(), nil
}

// readChunk fills buf from r. It returns io.EOF only once the stream is
// exhausted, possibly together with a final partial chunk.
func readChunk(r io.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
