package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/virtstack/cloud-image-fetcher/internal/utils/logger"
)

const userAgent = "cloud-image-fetcher/1.0"

// NetworkError reports a transport failure or a non-success HTTP status.
// Callers may retry; the fetcher itself never does.
type NetworkError struct {
	URL    string
	Status int // 0 when the transport failed before a response arrived
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Client performs single-attempt HTTP downloads. The zero value is not
// usable; construct with New.
type Client struct {
	http     *http.Client
	progress bool
}

// Option configures a Client.
type Option func(*Client)

// WithProgress toggles the console progress bar shown during Fetch.
func WithProgress(enabled bool) Option {
	return func(c *Client) { c.progress = enabled }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{},
		progress: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves url and returns the response body in full. It is used for
// small documents such as checksum manifests.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	body, _, err := c.do(ctx, url, nil)
	return body, err
}

// Fetch retrieves url, buffering the whole payload in memory. A progress
// bar is rendered unless disabled. No retry on failure.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	log := logger.Logger()

	var bar *progressbar.ProgressBar
	body, n, err := c.do(ctx, url, func(contentLength int64) io.Writer {
		if !c.progress {
			return io.Discard
		}
		bar = progressbar.NewOptions64(contentLength,
			progressbar.OptionSetDescription(path.Base(url)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
		return bar
	})
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return nil, err
	}

	log.Debugf("fetched %d bytes from %s", n, url)
	return body, nil
}

// do performs one GET. mirror, when non-nil, supplies a secondary writer
// (progress accounting) that receives a copy of every chunk.
func (c *Client) do(ctx context.Context, url string, mirror func(contentLength int64) io.Writer) ([]byte, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, &NetworkError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, 0, &NetworkError{URL: url, Status: resp.StatusCode}
	}

	var buf bytes.Buffer
	var dst io.Writer = &buf
	if mirror != nil {
		dst = io.MultiWriter(&buf, mirror(resp.ContentLength))
	}

	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return nil, n, &NetworkError{URL: url, Err: err}
	}
	return buf.Bytes(), n, nil
}
