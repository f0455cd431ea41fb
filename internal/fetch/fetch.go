// Package fetch opens post sources: standard input, local files and web pages.
//
// Usage Example:
//
//	f := fetch.New()
//	rc, err := f.Open(ctx, "https://vk.com/wall-1_2")
//	if err != nil {
//		return err
//	}
//	defer rc.Close()
//
// Every reader returned by Open is capped; reading past the cap fails with
// ErrTooLarge instead of exhausting memory.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrTooLarge is returned when a source exceeds the configured size cap.
var ErrTooLarge = errors.New("content exceeds size limit")

// default caps and timeouts
const (
	DefaultMaxFileBytes = 50 << 20
	DefaultMaxHTTPBytes = 100 << 20
	DefaultTimeout      = 30 * time.Second

	userAgent = "winnow/0.1"
)

// StdinSource names standard input on the command line.
const StdinSource = "-"

// Fetcher opens sources. The zero value is not usable; call New.
type Fetcher struct {
	client       *http.Client
	stdin        io.Reader
	maxFileBytes int64
	maxHTTPBytes int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient replaces the default HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithStdin replaces os.Stdin as the reader behind "-".
func WithStdin(r io.Reader) Option {
	return func(f *Fetcher) {
		f.stdin = r
	}
}

// WithMaxBytes caps files, stdin and HTTP bodies at n bytes.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxFileBytes = n
		f.maxHTTPBytes = n
	}
}

// New returns a Fetcher with the default client and caps.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:       newClient(DefaultTimeout),
		stdin:        os.Stdin,
		maxFileBytes: DefaultMaxFileBytes,
		maxHTTPBytes: DefaultMaxHTTPBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// newClient splits the request timeout between dialing, TLS and headers
func newClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext:           (&net.Dialer{Timeout: timeout / 6}).DialContext,
			TLSHandshakeTimeout:   timeout / 6,
			ResponseHeaderTimeout: timeout / 2,
			DisableKeepAlives:     true,
		},
	}
}

// IsURL reports whether source is fetched over HTTP.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Open returns a reader for source: "-" is standard input, http(s) URLs are
// fetched, anything else is a local path. The caller closes the reader;
// closing stdin's reader leaves os.Stdin open.
func (f *Fetcher) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	switch {
	case source == StdinSource:
		return &cappedReader{ReadCloser: io.NopCloser(f.stdin), remaining: f.maxFileBytes, source: "stdin"}, nil
	case IsURL(source):
		return f.openURL(ctx, source)
	default:
		return f.openFile(source)
	}
}

func (f *Fetcher) openURL(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %q: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL %q: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %q: unexpected status %s", url, resp.Status)
	}

	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if size, err := strconv.ParseInt(cl, 10, 64); err == nil && size > f.maxHTTPBytes {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %q is %d bytes (limit %d)", ErrTooLarge, url, size, f.maxHTTPBytes)
		}
	}

	slog.Debug("fetched URL", "url", url, "contentType", resp.Header.Get("Content-Type"))
	return &cappedReader{ReadCloser: resp.Body, remaining: f.maxHTTPBytes, source: url}, nil
}

func (f *Fetcher) openFile(path string) (io.ReadCloser, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("file %q does not exist", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to access file %q: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%q is a directory", path)
	}
	if info.Size() > f.maxFileBytes {
		return nil, fmt.Errorf("%w: %q is %d bytes (limit %d)", ErrTooLarge, path, info.Size(), f.maxFileBytes)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", path, err)
	}
	return &cappedReader{ReadCloser: file, remaining: f.maxFileBytes, source: path}, nil
}

// cappedReader fails once more than remaining bytes have been read. It reads
// one byte past the cap so content of exactly the cap still ends with io.EOF.
type cappedReader struct {
	io.ReadCloser
	remaining int64
	source    string
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		return 0, fmt.Errorf("%w: %s", ErrTooLarge, c.source)
	}
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.ReadCloser.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return n + int(c.remaining), fmt.Errorf("%w: %s", ErrTooLarge, c.source)
	}
	return n, err
}
