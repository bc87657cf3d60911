package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/preston-bernstein/nba-stables-widgets/internal/desktop"
	"github.com/preston-bernstein/nba-stables-widgets/internal/domain"
	"github.com/preston-bernstein/nba-stables-widgets/internal/logging"
	"github.com/preston-bernstein/nba-stables-widgets/internal/pipeline"
	"github.com/preston-bernstein/nba-stables-widgets/internal/scheduler"
	"github.com/preston-bernstein/nba-stables-widgets/internal/surface"
	"github.com/preston-bernstein/nba-stables-widgets/internal/widgets"
)

const readyCheckTimeout = 2 * time.Second

// WidgetService is the lifecycle surface of *widgets.Manager.
type WidgetService interface {
	Definitions() []widgets.Definition
	Definition(kind domain.Kind) (widgets.Definition, bool)
	Register(ctx context.Context, kind domain.Kind, id surface.ID) error
	Unregister(ctx context.Context, kind domain.Kind, id surface.ID) error
	Refresh(kind domain.Kind) error
}

// OutcomeSource exposes the last pipeline result per kind.
type OutcomeSource interface {
	Last(kind domain.Kind) (pipeline.Outcome, bool)
	State(kind domain.Kind) pipeline.State
}

// SocketServer upgrades a request into a live widget surface.
type SocketServer interface {
	ServeWS(kind domain.Kind, w http.ResponseWriter, r *http.Request)
}

// DesktopSource provides the desktop card.
type DesktopSource interface {
	Snapshot() desktop.Snapshot
}

// Check is a named readiness probe, typically a backend ping.
type Check func(ctx context.Context) error

// Options wires a Handler. Only Widgets and Outcomes are required.
type Options struct {
	Widgets  WidgetService
	Outcomes OutcomeSource
	Sockets  SocketServer
	Desktop  DesktopSource
	Statuses func() []scheduler.Status
	Checks   map[string]Check
	Logger   *slog.Logger
	Now      func() time.Time
}

// Handler serves widget state over HTTP.
type Handler struct {
	widgets  WidgetService
	outcomes OutcomeSource
	sockets  SocketServer
	desktop  DesktopSource
	statuses func() []scheduler.Status
	checks   map[string]Check
	logger   *slog.Logger
	now      func() time.Time
	validate *validator.Validate
}

// NewHandler builds a Handler from opts.
func NewHandler(opts Options) *Handler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	statuses := opts.Statuses
	if statuses == nil {
		statuses = func() []scheduler.Status { return nil }
	}
	return &Handler{
		widgets:  opts.Widgets,
		outcomes: opts.Outcomes,
		sockets:  opts.Sockets,
		desktop:  opts.Desktop,
		statuses: statuses,
		checks:   opts.Checks,
		logger:   opts.Logger,
		now:      now,
		validate: validator.New(),
	}
}

// Health returns a simple liveness payload.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

type jobStatus struct {
	Name                string `json:"name"`
	State               string `json:"state"`
	Interval            string `json:"interval,omitempty"`
	Runs                int    `json:"runs"`
	Retries             int    `json:"retries"`
	Skipped             int    `json:"skipped"`
	ConsecutiveFailures int    `json:"consecutiveFailures"`
	LastResult          string `json:"lastResult,omitempty"`
	LastError           string `json:"lastError,omitempty"`
	LastSuccess         string `json:"lastSuccess,omitempty"`
}

type readyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
	Jobs   []jobStatus       `json:"jobs"`
}

// Ready reports whether backends answer and no periodic job is failing
// repeatedly. Jobs that have not run yet do not block readiness.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := r.Context().Err(); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "request canceled", h.logger)
		return
	}

	resp := readyResponse{Status: "ready", Jobs: []jobStatus{}}
	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()
		resp.Checks = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "not ready"
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	for _, st := range h.statuses() {
		if st.Periodic && !st.IsReady() {
			resp.Status = "not ready"
		}
		resp.Jobs = append(resp.Jobs, toJobStatus(st))
	}
	sort.Slice(resp.Jobs, func(i, j int) bool { return resp.Jobs[i].Name < resp.Jobs[j].Name })

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp, h.logger)
}

func toJobStatus(st scheduler.Status) jobStatus {
	js := jobStatus{
		Name:                st.Name,
		State:               string(st.State),
		Runs:                st.Runs,
		Retries:             st.Retries,
		Skipped:             st.Skipped,
		ConsecutiveFailures: st.ConsecutiveFailures,
		LastError:           st.LastError,
	}
	if st.Periodic {
		js.Interval = st.Interval.String()
	}
	if st.Runs > 0 {
		js.LastResult = st.LastResult
	}
	if !st.LastSuccess.IsZero() {
		js.LastSuccess = st.LastSuccess.UTC().Format(time.RFC3339)
	}
	return js
}

// Desktop serves the latest desktop card as HTML.
func (h *Handler) Desktop(w http.ResponseWriter, r *http.Request) {
	if h.desktop == nil {
		writeError(w, r, http.StatusNotFound, "desktop widget disabled", h.logger)
		return
	}
	snap := h.desktop.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if !snap.Updated.IsZero() {
		w.Header().Set("Last-Modified", snap.Updated.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(snap.HTML)); err != nil {
		logging.Warn(loggerFromContext(r, h.logger), "desktop write failed", "error", err)
	}
}

// NotFound is the router fallback.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "not found", h.logger)
}

// MethodNotAllowed is the router fallback for known paths.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed", h.logger)
}
