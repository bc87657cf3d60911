package offline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func okResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/html"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func get(t *testing.T, rt http.RoundTripper, url string) (*http.Response, error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	return rt.RoundTrip(req)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func TestBypass(t *testing.T) {
	cases := []struct {
		method, url string
		want        bool
	}{
		{http.MethodGet, "https://nbastables.com/api/scoreboard", true},
		{http.MethodGet, "https://nbastables.com/static/app.js", false},
		{http.MethodPost, "https://nbastables.com/index.html", true},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.url, nil)
		if got := Bypass(req); got != tc.want {
			t.Fatalf("Bypass(%s %s) = %v, want %v", tc.method, tc.url, got, tc.want)
		}
	}
}

func TestAPIRequestsNeverTouchCache(t *testing.T) {
	cache := NewMemoryCache()
	var calls atomic.Int32
	rt := NewTransport(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		if calls.Add(1) == 1 {
			return okResponse(`{"games":[]}`), nil
		}
		return nil, errors.New("offline")
	}), cache, nil)

	resp, err := get(t, rt, "https://nbastables.com/api/scoreboard")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	_ = readBody(t, resp)
	if cache.Len() != 0 {
		t.Fatalf("expected api response not to be cached")
	}
	if _, err := get(t, rt, "https://nbastables.com/api/scoreboard"); err == nil {
		t.Fatalf("expected api failure to surface without fallback")
	}
}

func TestNetworkFirstWithCacheFallback(t *testing.T) {
	var online atomic.Bool
	online.Store(true)
	rt := NewTransport(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		if !online.Load() {
			return nil, errors.New("dial tcp: connection refused")
		}
		return okResponse("<html>v1</html>"), nil
	}), NewMemoryCache(), nil)

	resp, err := get(t, rt, "https://nbastables.com/index.html")
	if err != nil {
		t.Fatalf("online call: %v", err)
	}
	if got := readBody(t, resp); got != "<html>v1</html>" {
		t.Fatalf("unexpected body %q", got)
	}
	if resp.Header.Get(HeaderCache) != "" {
		t.Fatalf("expected network response not to be marked cached")
	}

	online.Store(false)
	resp, err = get(t, rt, "https://nbastables.com/index.html")
	if err != nil {
		t.Fatalf("expected cached fallback, got %v", err)
	}
	if got := readBody(t, resp); got != "<html>v1</html>" {
		t.Fatalf("unexpected cached body %q", got)
	}
	if resp.StatusCode != http.StatusOK || resp.Header.Get(HeaderCache) != CacheName {
		t.Fatalf("unexpected cached response %d %v", resp.StatusCode, resp.Header)
	}

	if _, err := get(t, rt, "https://nbastables.com/never-seen.html"); err == nil {
		t.Fatalf("expected miss to return the network error")
	}
}

func TestNonSuccessResponsesAreNotCached(t *testing.T) {
	cache := NewMemoryCache()
	rt := NewTransport(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusNotFound, Body: http.NoBody, Header: http.Header{}}, nil
	}), cache, nil)

	resp, err := get(t, rt, "https://nbastables.com/missing.png")
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected result %v %v", resp, err)
	}
	if cache.Len() != 0 {
		t.Fatalf("expected 404 not to be cached")
	}
}

func TestRedisCacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewRedisCache(client, time.Hour)
	ctx := context.Background()

	if _, ok, err := cache.Get(ctx, "https://nbastables.com/"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	entry := Entry{StatusCode: 200, Header: http.Header{"Content-Type": []string{"text/html"}}, Body: []byte("<html/>")}
	if err := cache.Put(ctx, "https://nbastables.com/", entry); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := cache.Get(ctx, "https://nbastables.com/")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(got.Body) != "<html/>" || got.Header.Get("Content-Type") != "text/html" {
		t.Fatalf("unexpected entry %+v", got)
	}
	if ttl := mr.TTL("nba-stables-v1:https://nbastables.com/"); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %s", ttl)
	}
}

func TestServiceWorkerHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	ServiceWorkerHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sw.js", nil))

	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/javascript") {
		t.Fatalf("unexpected content type %s", ct)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "const CACHE_NAME = '"+CacheName+"'") || !strings.Contains(body, "'/api/'") {
		t.Fatalf("unexpected service worker body:\n%s", body)
	}
	if len(ServiceWorker()) == 0 {
		t.Fatalf("expected embedded worker")
	}
}
