package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGetReturnsStatusAndBody(t *testing.T) {
	var gotAccept, gotAuth string
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodGet {
			t.Fatalf("expected GET, got %s", req.Method)
		}
		gotAccept = req.Header.Get("Accept")
		gotAuth = req.Header.Get("Authorization")
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"games":[]}`)),
			Header:     make(http.Header),
		}, nil
	})

	client := NewClient(Config{HTTPClient: &http.Client{Transport: rt}})
	resp, err := client.Get(context.Background(), "http://example.com/api/scoreboard")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.StatusCode != http.StatusOK || !resp.Success() {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if !resp.HasBody || string(resp.Body) != `{"games":[]}` {
		t.Fatalf("unexpected body %q", resp.Body)
	}
	if gotAccept != "application/json" {
		t.Fatalf("expected json accept header, got %q", gotAccept)
	}
	if gotAuth != "" {
		t.Fatalf("expected no auth header, got %q", gotAuth)
	}
}

func TestGetReportsNon2xxWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("down"))
	}))
	defer srv.Close()

	resp, err := NewClient(Config{}).Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("expected no transport error, got %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable || resp.Success() {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestGetEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := NewClient(Config{}).Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if resp.HasBody {
		t.Fatalf("expected no body")
	}
}

func TestGetWrapsTransportFailures(t *testing.T) {
	boom := errors.New("connection refused")
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return nil, boom
	})
	client := NewClient(Config{HTTPClient: &http.Client{Transport: rt}})

	_, err := client.Get(context.Background(), "http://example.com/api/standings")
	te, ok := AsTransportError(err)
	if !ok {
		t.Fatalf("expected transport error, got %T", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause")
	}
	if te.URL != "http://example.com/api/standings" {
		t.Fatalf("unexpected url %q", te.URL)
	}
	if te.Timeout() {
		t.Fatalf("did not expect timeout classification")
	}
}

func TestGetRejectsOversizedBody(t *testing.T) {
	cases := map[string]struct {
		size    int
		wantErr bool
	}{
		"at limit":   {maxBodyBytes, false},
		"over limit": {maxBodyBytes + 1, true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(strings.NewReader(strings.Repeat("x", tc.size))),
					Header:     make(http.Header),
				}, nil
			})
			resp, err := NewClient(Config{HTTPClient: &http.Client{Transport: rt}}).Get(context.Background(), "http://example.com/api/injuries")
			if !tc.wantErr {
				if err != nil || len(resp.Body) != tc.size {
					t.Fatalf("expected full body, got len=%d err=%v", len(resp.Body), err)
				}
				return
			}
			if _, ok := AsTransportError(err); !ok || !errors.Is(err, ErrBodyTooLarge) {
				t.Fatalf("expected oversized body transport error, got %v", err)
			}
		})
	}
}

func TestGetTimeoutIsTransportError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	_, err := NewClient(Config{}).Get(ctx, srv.URL)
	te, ok := AsTransportError(err)
	if !ok || !te.Timeout() {
		t.Fatalf("expected timeout transport error, got %v", err)
	}
}

func TestNewClientSetsDefaultTimeout(t *testing.T) {
	c := NewClient(Config{})
	httpClient, ok := c.httpClient.(*http.Client)
	if !ok {
		t.Fatalf("expected default http client")
	}
	if httpClient.Timeout != defaultTimeout {
		t.Fatalf("expected %s timeout, got %s", defaultTimeout, httpClient.Timeout)
	}
}

func TestResolveTimeoutClamps(t *testing.T) {
	cases := []struct {
		in, want time.Duration
	}{
		{0, defaultTimeout},
		{time.Second, minTimeout},
		{12 * time.Second, 12 * time.Second},
		{time.Minute, maxTimeout},
	}
	for _, tc := range cases {
		if got := resolveTimeout(tc.in); got != tc.want {
			t.Fatalf("resolveTimeout(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestNewClientUsesConfiguredTransport(t *testing.T) {
	called := false
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		called = true
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Header: http.Header{}}, nil
	})
	c := NewClient(Config{Timeout: 10 * time.Second, Transport: rt})

	httpClient, ok := c.httpClient.(*http.Client)
	if !ok || httpClient.Timeout != 10*time.Second {
		t.Fatalf("expected clamped timeout on built client, got %+v", c.httpClient)
	}
	if _, err := c.Get(context.Background(), "http://example.test/api/standings"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if !called {
		t.Fatalf("expected configured transport to be used")
	}
}

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
