package fetch

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/wagiedev/procshim-go/internal/errors"
)

// DefaultUserAgent is sent until SetUserAgent is called.
const DefaultUserAgent = "procshim"

// maxRedirects matches net/http's own default policy.
const maxRedirects = 10

var (
	// ErrBadRequest indicates a URL or path that cannot be used.
	ErrBadRequest = stderrors.New("bad request")

	// ErrTooLarge indicates a response body above the configured limit.
	ErrTooLarge = stderrors.New("response body exceeds limit")
)

// Config configures a Client.
type Config struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// UserAgent is the initial User-Agent header. Empty uses DefaultUserAgent.
	UserAgent string

	// Timeout bounds each request including the body. Zero means none.
	Timeout time.Duration

	// MaxBytes caps Bytes and String results. Zero means unlimited.
	// Downloads to files are not capped.
	MaxBytes int64

	// Transport overrides the HTTP round tripper, mainly for tests.
	Transport http.RoundTripper
}

// Client performs downloads. It is safe for concurrent use.
type Client struct {
	log      *slog.Logger
	http     *http.Client
	maxBytes int64

	mu    sync.RWMutex
	agent string
}

// New creates a Client from cfg.
func New(cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	agent := cfg.UserAgent
	if agent == "" {
		agent = DefaultUserAgent
	}

	c := &Client{
		log:      log.With("component", "fetch"),
		maxBytes: cfg.MaxBytes,
		agent:    agent,
	}

	c.http = &http.Client{
		Transport: cfg.Transport,
		Timeout:   cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}

			// Redirected requests keep the configured agent.
			req.Header.Set("User-Agent", c.UserAgent())
			c.log.Debug("Following redirect", "to", req.URL.String())

			return nil
		},
	}

	return c
}

// SetUserAgent changes the User-Agent for subsequent downloads.
func (c *Client) SetUserAgent(agent string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.agent = agent
}

// UserAgent returns the current User-Agent.
func (c *Client) UserAgent() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.agent
}

// Bytes downloads rawURL into memory.
func (c *Client) Bytes(ctx context.Context, rawURL string) ([]byte, error) {
	body, closeBody, err := c.open(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer closeBody()

	var r io.Reader = body
	if c.maxBytes > 0 {
		r = io.LimitReader(body, c.maxBytes+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &errors.FetchError{URL: rawURL, Err: err}
	}

	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return nil, &errors.FetchError{URL: rawURL, Err: ErrTooLarge}
	}

	c.log.Debug("Downloaded", "url", rawURL, "bytes", len(data))

	return data, nil
}

// String downloads rawURL and returns the body as a string. The body is
// not checked for valid UTF-8.
func (c *Client) String(ctx context.Context, rawURL string) (string, error) {
	data, err := c.Bytes(ctx, rawURL)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// ToFile downloads rawURL into path, truncating any existing file, and
// returns the number of bytes written. The file is opened before the
// transfer starts; on any failure after that the partial file is removed.
func (c *Client) ToFile(ctx context.Context, rawURL, path string) (n int64, err error) {
	if path == "" {
		return 0, fmt.Errorf("empty destination path: %w", ErrBadRequest)
	}

	if err := validateURL(rawURL); err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		c.log.Warn("Failed to create download file", "path", path, "error", err)

		return 0, err
	}

	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}

		if err != nil {
			if rerr := os.Remove(path); rerr != nil {
				c.log.Debug("Failed to remove partial download", "path", path, "error", rerr)
			}
		}
	}()

	body, closeBody, err := c.open(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer closeBody()

	n, err = io.Copy(f, body)
	if err != nil {
		if _, ok := stderrors.AsType[*os.PathError](err); ok {
			return n, err
		}

		return n, &errors.FetchError{URL: rawURL, Err: err}
	}

	c.log.Debug("Downloaded to file", "url", rawURL, "path", path, "bytes", n)

	return n, nil
}

// open issues the GET and returns the body of a 2xx response.
func (c *Client) open(ctx context.Context, rawURL string) (io.Reader, func(), error) {
	if err := validateURL(rawURL); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	req.Header.Set("User-Agent", c.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("Request failed", "url", rawURL, "error", err)

		return nil, nil, &errors.FetchError{URL: rawURL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()

		return nil, nil, &errors.FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	return resp.Body, func() { _ = resp.Body.Close() }, nil
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL: %w", ErrBadRequest)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q: %w", u.Scheme, ErrBadRequest)
	}

	if u.Host == "" {
		return fmt.Errorf("missing host: %w", ErrBadRequest)
	}

	return nil
}
