package offline

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/preston-bernstein/nba-stables-widgets/internal/logging"
)

// HeaderCache marks responses served from the cache.
const HeaderCache = "X-Offline-Cache"

const maxCachedBody = 1 << 20

// Transport applies the service worker policy to outgoing requests: API
// calls always go to the network; other GETs are network-first and fall
// back to the last successful copy when the network fails.
type Transport struct {
	Base   http.RoundTripper
	Cache  Cache
	Logger *slog.Logger
	now    func() time.Time
}

// NewTransport wraps base. A nil base uses http.DefaultTransport.
func NewTransport(base http.RoundTripper, cache Cache, logger *slog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Transport{Base: base, Cache: cache, Logger: logger, now: time.Now}
}

// Bypass reports whether a request skips the cache entirely.
func Bypass(req *http.Request) bool {
	return req.Method != http.MethodGet || strings.Contains(req.URL.String(), "/api/")
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if Bypass(req) {
		return t.Base.RoundTrip(req)
	}

	key := req.URL.String()
	resp, err := t.Base.RoundTrip(req)
	if err != nil {
		entry, ok, cacheErr := t.Cache.Get(req.Context(), key)
		if cacheErr != nil {
			logging.Warn(t.Logger, "offline cache read failed", logging.FieldURL, key, "error", cacheErr)
		}
		if !ok {
			return nil, err
		}
		logging.Info(t.Logger, "serving cached response", logging.FieldURL, key)
		return entry.response(req), nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, nil
	}
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxCachedBody+1))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if len(body) > maxCachedBody {
		return resp, nil
	}

	entry := Entry{StatusCode: resp.StatusCode, Header: resp.Header.Clone(), Body: body, StoredAt: t.now().UTC()}
	if err := t.Cache.Put(req.Context(), key, entry); err != nil {
		logging.Warn(t.Logger, "offline cache write failed", logging.FieldURL, key, "error", err)
	}
	return resp, nil
}

func (e Entry) response(req *http.Request) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set(HeaderCache, CacheName)
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode)),
		StatusCode:    e.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}
