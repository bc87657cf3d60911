package http

import (
	"log/slog"
	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/preston-bernstein/nba-stables-widgets/internal/http/handlers"
	"github.com/preston-bernstein/nba-stables-widgets/internal/http/middleware"
	"github.com/preston-bernstein/nba-stables-widgets/internal/http/requestutil"
	"github.com/preston-bernstein/nba-stables-widgets/internal/metrics"
	"github.com/preston-bernstein/nba-stables-widgets/internal/offline"
)

// RouterOptions carries the cross-cutting pieces of the router.
type RouterOptions struct {
	Logger  *slog.Logger
	Metrics *metrics.Recorder
	// AllowedOrigins defaults to any origin.
	AllowedOrigins []string
}

// NewRouter registers HTTP routes on a chi router.
func NewRouter(h *handlers.Handler, opts RouterOptions) nethttp.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.Logging(opts.Logger, opts.Metrics))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{nethttp.MethodGet, nethttp.MethodPost, nethttp.MethodDelete, nethttp.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestutil.HeaderRequestID},
		ExposedHeaders: []string{requestutil.HeaderRequestID, offline.HeaderCache},
		MaxAge:         300,
	}))

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Get("/desktop", h.Desktop)
	r.Method(nethttp.MethodGet, "/sw.js", offline.ServiceWorkerHandler())

	r.Route("/widgets", func(r chi.Router) {
		r.Get("/", h.ListWidgets)
		r.Route("/{kind}", func(r chi.Router) {
			r.Get("/", h.Widget)
			r.Post("/refresh", h.Refresh)
			r.Get("/ws", h.Socket)
			r.Post("/surfaces", h.RegisterSurface)
			r.Delete("/surfaces/{id}", h.UnregisterSurface)
		})
	})
	return r
}
