package testutil

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

func TestNowAt(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := NowAt(now)(); !got.Equal(now) {
		t.Fatalf("expected fixed time, got %v", got)
	}
}

func TestAPIServerServesBodiesByPath(t *testing.T) {
	srv := NewAPIServer(t, DefaultAPIBodies())

	resp, err := http.Get(srv.URL + "/api/standings")
	if err != nil {
		t.Fatalf("get standings: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != StandingsJSON {
		t.Fatalf("unexpected standings response %d %s", resp.StatusCode, body)
	}

	resp, err = http.Get(srv.URL + "/api/unknown")
	if err != nil {
		t.Fatalf("get unknown: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown path, got %d", resp.StatusCode)
	}
	if srv.Hits() != 2 {
		t.Fatalf("expected 2 hits, got %d", srv.Hits())
	}
}

func TestServeHelpers(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	rr := Serve(handler, http.MethodPost, "/test", strings.NewReader("{}"))
	AssertStatus(t, rr, http.StatusCreated)
	var body map[string]bool
	DecodeJSON(t, rr, &body)
	if !body["ok"] {
		t.Fatalf("expected ok=true")
	}

	req := httptest.NewRequest(http.MethodGet, "/req", nil)
	rr2 := ServeRequest(handler, req)
	AssertStatus(t, rr2, http.StatusCreated)
}

func TestLoggers(t *testing.T) {
	logger, buf := NewBufferLogger()
	logger.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("expected debug records captured, got %q", buf.String())
	}
	DiscardLogger().Info("dropped")
}

func TestServerStubs(t *testing.T) {
	sched := &StubScheduler{Err: errors.New("stop")}
	if err := sched.Stop(context.Background()); !errors.Is(err, sched.Err) || sched.StopCalls != 1 {
		t.Fatalf("expected stop error and one call, got %v %d", err, sched.StopCalls)
	}

	srv := &StubHTTPServer{AddrVal: ":1", ListenErr: errors.New("listen")}
	if err := srv.ListenAndServe(); err == nil || srv.ListenCalls != 1 {
		t.Fatalf("expected listen error and one call")
	}
	_ = srv.Shutdown(context.Background())
	if srv.ShutdownCalls != 1 || srv.Addr() != ":1" {
		t.Fatalf("unexpected stub state %+v", srv)
	}

	blocking := &BlockingHTTPServer{Unblock: make(chan struct{})}
	close(blocking.Unblock)
	if err := blocking.Shutdown(context.Background()); err != nil {
		t.Fatalf("expected unblocked shutdown, got %v", err)
	}

	if err := (&CloseableHTTPServer{}).ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		t.Fatalf("expected ErrServerClosed, got %v", err)
	}
	if err := (&ErrHTTPServer{}).ListenAndServe(); err == nil {
		t.Fatalf("expected listen failure")
	}
}
