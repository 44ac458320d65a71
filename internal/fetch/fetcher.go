package fetch

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

// Defaults applied when no option overrides them.
const (
	// DefaultTimeout is the total per-request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize caps how many bytes of a response body are read.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultUserAgent is the fixed browser identity. Some sites serve
	// reduced markup to clients that do not look like a browser.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Fetcher performs GET requests with a fixed browser identity, a hard
// timeout, transparent content-encoding handling, and a body size cap.
// One Fetcher is shared by all page fetches of a crawl; image
// acquisition builds its own with a larger cap.
type Fetcher struct {
	// client is the HTTP client used for all requests.
	client *http.Client

	// userAgent is the User-Agent header to use.
	userAgent string

	// maxBodySize limits the size of response bodies to read.
	// Bodies over the cap fail the fetch rather than being truncated:
	// a truncated HTML document parses into a misleading tree.
	maxBodySize int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient replaces the HTTP client. Useful in tests and for callers
// that need custom transport settings.
func WithClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithTimeout sets the total per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// New creates a Fetcher with sane transport defaults.
func New(opts ...Option) *Fetcher {
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	f := &Fetcher{
		client: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
		},
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Result is a fetched response with the body fully read and decoded.
type Result struct {
	// URL is the URL the request was made for (before any redirects).
	URL string

	// StatusCode is the HTTP response status code.
	StatusCode int

	// ContentType is the lower-cased media type portion of the
	// Content-Type header, parameters stripped ("image/jpeg", not
	// "image/JPEG; charset=binary"). Empty when the header is missing
	// or malformed.
	ContentType string

	// Body is the response body with any Content-Encoding removed.
	Body []byte

	// Header contains the response headers.
	Header http.Header
}

// Fetch performs a GET request. Every failure comes back as a
// *FetchError wrapping the cause; ctx cancellation surfaces the same
// way so callers have a single error path per URL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/*;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	body, err := f.readBody(resp)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	// Non-2xx means the page content is an error document, not the page.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("unexpected status: %s", resp.Status)}
	}

	return &Result{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: mediaType(resp.Header.Get("Content-Type")),
		Body:        body,
		Header:      resp.Header.Clone(),
	}, nil
}

// readBody drains the response body, undoing the negotiated
// Content-Encoding and enforcing the size cap.
func (f *Fetcher) readBody(resp *http.Response) ([]byte, error) {
	reader := io.Reader(resp.Body)
	closers := []io.Closer{resp.Body}

	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch encoding {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		reader = gz
		closers = append(closers, gz)
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		reader = fl
		closers = append(closers, fl)
	}

	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	// Read one byte past the cap to tell "exactly at the cap" from "over it".
	limited := io.LimitReader(reader, f.maxBodySize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, f.maxBodySize)
	}

	return body, nil
}

// mediaType extracts the lower-cased media type from a Content-Type
// header value. Malformed values yield "".
func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}

	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}
