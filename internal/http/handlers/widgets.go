package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/preston-bernstein/nba-stables-widgets/internal/domain"
	"github.com/preston-bernstein/nba-stables-widgets/internal/format"
	"github.com/preston-bernstein/nba-stables-widgets/internal/logging"
	"github.com/preston-bernstein/nba-stables-widgets/internal/surface"
	"github.com/preston-bernstein/nba-stables-widgets/internal/widgets"
)

const maxBodyBytes = 4 << 10

type widgetSummary struct {
	Widget   string `json:"widget"`
	Job      string `json:"job"`
	Interval string `json:"interval"`
	Policy   string `json:"policy"`
	State    string `json:"state"`
}

type widgetResponse struct {
	Widget      string           `json:"widget"`
	State       string           `json:"state"`
	Text        string           `json:"text"`
	Rows        []format.GameRow `json:"rows,omitempty"`
	Error       string           `json:"error,omitempty"`
	UpdatedAt   string           `json:"updatedAt,omitempty"`
	GeneratedAt string           `json:"generatedAt"`
}

type surfaceRequest struct {
	ID string `json:"id" validate:"omitempty,max=128,printascii,excludesall=/"`
}

type surfaceResponse struct {
	Widget string `json:"widget"`
	ID     string `json:"id"`
}

// ListWidgets returns every enabled widget with its schedule and state.
func (h *Handler) ListWidgets(w http.ResponseWriter, r *http.Request) {
	defs := h.widgets.Definitions()
	out := make([]widgetSummary, 0, len(defs))
	for _, def := range defs {
		out = append(out, widgetSummary{
			Widget:   string(def.Kind),
			Job:      def.JobName,
			Interval: def.Interval.String(),
			Policy:   def.Policy.String(),
			State:    string(h.outcomes.State(def.Kind)),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"widgets": out}, h.logger)
}

// Widget returns the current text of one widget. Before the first run the
// placeholder is reported.
func (h *Handler) Widget(w http.ResponseWriter, r *http.Request) {
	def, ok := h.definition(w, r)
	if !ok {
		return
	}
	resp := widgetResponse{
		Widget:      string(def.Kind),
		State:       string(h.outcomes.State(def.Kind)),
		Text:        def.Placeholder,
		GeneratedAt: h.now().UTC().Format(time.RFC3339),
	}
	if out, ok := h.outcomes.Last(def.Kind); ok {
		resp.Text = out.Content.Text
		resp.Rows = out.Content.Rows
		if out.Err != nil {
			resp.Error = out.Err.Error()
		}
		if !out.Finished.IsZero() {
			resp.UpdatedAt = out.Finished.UTC().Format(time.RFC3339)
		}
	}
	writeJSON(w, http.StatusOK, resp, h.logger)
}

// RegisterSurface adds a surface to a widget. An empty id is assigned one.
func (h *Handler) RegisterSurface(w http.ResponseWriter, r *http.Request) {
	def, ok := h.definition(w, r)
	if !ok {
		return
	}
	var req surfaceRequest
	if r.Body != nil && r.ContentLength != 0 {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, r, http.StatusBadRequest, "invalid request body", h.logger)
			return
		}
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid surface id", h.logger)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	logger := loggerFromContext(r, h.logger)
	if err := h.widgets.Register(r.Context(), def.Kind, surface.ID(req.ID)); err != nil {
		logging.Error(logger, "surface registration failed", err,
			logging.FieldWidget, string(def.Kind),
			logging.FieldSurfaceID, req.ID,
		)
		writeError(w, r, h.statusFor(err), "surface registration failed", h.logger)
		return
	}
	logging.Info(logger, "surface registered", logging.FieldWidget, string(def.Kind), logging.FieldSurfaceID, req.ID)
	writeJSON(w, http.StatusCreated, surfaceResponse{Widget: string(def.Kind), ID: req.ID}, h.logger)
}

// UnregisterSurface removes a surface from a widget.
func (h *Handler) UnregisterSurface(w http.ResponseWriter, r *http.Request) {
	def, ok := h.definition(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.validate.Var(id, "required,max=128,printascii"); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid surface id", h.logger)
		return
	}
	if err := h.widgets.Unregister(r.Context(), def.Kind, surface.ID(id)); err != nil {
		status := h.statusFor(err)
		if status == http.StatusInternalServerError {
			logging.Error(loggerFromContext(r, h.logger), "surface removal failed", err,
				logging.FieldWidget, string(def.Kind),
				logging.FieldSurfaceID, id,
			)
		}
		writeError(w, r, status, "surface removal failed", h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Refresh schedules a one-time run of a widget.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	def, ok := h.definition(w, r)
	if !ok {
		return
	}
	if err := h.widgets.Refresh(def.Kind); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, err.Error(), h.logger)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled", "job": def.OnceJobName()}, h.logger)
}

// Socket upgrades the request into a live surface for the widget.
func (h *Handler) Socket(w http.ResponseWriter, r *http.Request) {
	def, ok := h.definition(w, r)
	if !ok {
		return
	}
	if h.sockets == nil {
		writeError(w, r, http.StatusNotFound, "websocket surfaces disabled", h.logger)
		return
	}
	h.sockets.ServeWS(def.Kind, w, r)
}

func (h *Handler) definition(w http.ResponseWriter, r *http.Request) (widgets.Definition, bool) {
	kind, err := domain.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, r, http.StatusNotFound, "unknown widget", h.logger)
		return widgets.Definition{}, false
	}
	def, ok := h.widgets.Definition(kind)
	if !ok {
		writeError(w, r, http.StatusNotFound, "widget disabled", h.logger)
		return widgets.Definition{}, false
	}
	return def, true
}

func (h *Handler) statusFor(err error) int {
	switch {
	case errors.Is(err, widgets.ErrUnknownWidget), errors.Is(err, surface.ErrUnknownSurface):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
