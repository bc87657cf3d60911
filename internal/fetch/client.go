package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config controls how the fetch client reaches the widget endpoints.
// It is a plain value; callers may hold one per widget kind.
type Config struct {
	Timeout time.Duration
	// Transport is used when HTTPClient is nil; nil means the default transport.
	Transport  http.RoundTripper
	HTTPClient *http.Client
}

// Response is the raw outcome of one GET.
type Response struct {
	StatusCode int
	Body       []byte
	// HasBody is false when the server sent no entity at all.
	HasBody bool
}

// Success reports whether the status is in the 2xx range.
func (r Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ErrBodyTooLarge reports a response body over the client's size cap.
var ErrBodyTooLarge = fmt.Errorf("response body exceeds %d bytes", maxBodyBytes)

// TransportError wraps failures that happen before a status code is known:
// timeouts, refused connections, DNS failures, unreadable or oversized bodies.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(e.Err, &te) && te.Timeout()
}

// AsTransportError attempts to unwrap an error into a TransportError.
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// Client performs single unauthenticated GETs. It never retries.
type Client struct {
	httpClient httpDoer
}

// NewClient constructs a client with the provided configuration.
func NewClient(cfg Config) *Client {
	return &Client{httpClient: resolveHTTPClient(cfg.HTTPClient, cfg.Transport, cfg.Timeout)}
}

// Get issues GET url and returns the status code and body.
func (c *Client) Get(ctx context.Context, url string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, &TransportError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return Response{}, &TransportError{URL: url, Err: err}
	}
	if len(body) > maxBodyBytes {
		return Response{}, &TransportError{URL: url, Err: ErrBodyTooLarge}
	}

	return Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		HasBody:    len(body) > 0,
	}, nil
}
