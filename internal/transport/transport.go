// Package transport provides the byte-fetching collaborator used by remote
// package sources: HTTP(S) GET with optional basic-auth credentials and a
// per-call timeout.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// CatalogTimeout is the default timeout for catalog queries. Archive
// downloads pass zero (no timeout).
const CatalogTimeout = 10 * time.Second

// Credentials carries optional basic-auth credentials for a feed
type Credentials struct {
	Username string
	Password string
}

// Error is a typed transport failure carrying the HTTP status when the server
// answered at all (zero when the request never completed).
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error (status %d): %s", e.StatusCode, e.Message)
	}
	return "transport error: " + e.Message
}

// IsNotFound reports whether err wraps a transport error with an HTTP 404
// status. Remote GetUpdates uses this as the signal that the batched endpoint
// does not exist on the server.
func IsNotFound(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.StatusCode == http.StatusNotFound
}

// Fetcher fetches the document at a URL. Implementations must honor the
// context for cancellation and close the returned stream only via its Close.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, creds *Credentials, timeout time.Duration) (io.ReadCloser, error)
}

// HTTPFetcher is the default Fetcher, an HTTP GET with bounded retries
type HTTPFetcher struct {
	client *retryablehttp.Client
}

// Ensure HTTPFetcher implements Fetcher
var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates a fetcher with retry support
func NewHTTPFetcher() *HTTPFetcher {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil

	return &HTTPFetcher{client: retryClient}
}

// Fetch performs a GET against rawURL. Non-2xx responses and network
// failures return a *Error; context cancellation returns the context error.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string, creds *Credentials, timeout time.Duration) (io.ReadCloser, error) {
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if creds != nil && creds.Username != "" {
		req.SetBasicAuth(creds.Username, creds.Password)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		cancel()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		cancel()
		return nil, &Error{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("GET %s: %s", rawURL, string(body)),
		}
	}

	// The deadline stays armed until the caller closes the stream
	return &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}, nil
}

type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
