package fetch

import (
	"net/http"
	"time"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

func resolveHTTPClient(client *http.Client, transport http.RoundTripper, timeout time.Duration) httpDoer {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: resolveTimeout(timeout), Transport: transport}
}

// resolveTimeout clamps the configured timeout into the 10-15s window.
func resolveTimeout(timeout time.Duration) time.Duration {
	switch {
	case timeout <= 0:
		return defaultTimeout
	case timeout < minTimeout:
		return minTimeout
	case timeout > maxTimeout:
		return maxTimeout
	default:
		return timeout
	}
}
