package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"

	"github.com/preston-bernstein/nba-stables-widgets/internal/config"
	"github.com/preston-bernstein/nba-stables-widgets/internal/desktop"
	"github.com/preston-bernstein/nba-stables-widgets/internal/fetch"
	httpserver "github.com/preston-bernstein/nba-stables-widgets/internal/http"
	"github.com/preston-bernstein/nba-stables-widgets/internal/http/handlers"
	"github.com/preston-bernstein/nba-stables-widgets/internal/logging"
	"github.com/preston-bernstein/nba-stables-widgets/internal/metrics"
	"github.com/preston-bernstein/nba-stables-widgets/internal/offline"
	"github.com/preston-bernstein/nba-stables-widgets/internal/pipeline"
	"github.com/preston-bernstein/nba-stables-widgets/internal/scheduler"
	"github.com/preston-bernstein/nba-stables-widgets/internal/surface"
	"github.com/preston-bernstein/nba-stables-widgets/internal/widgets"
)

var metricsSetup = metrics.Setup

// jobScheduler is the part of *scheduler.Scheduler the server owns.
type jobScheduler interface {
	Stop(ctx context.Context) error
}

type Server struct {
	cfg           config.Config
	logger        *slog.Logger
	metrics       *metrics.Recorder
	httpServer    httpServer
	metricsServer httpServer
	scheduler     jobScheduler
	starters      []func()
	backends      *backends
	metricsStop   func(context.Context) error
}

// New wires every component from cfg. Only an unreachable surface backend
// or an invalid widgets file is fatal.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	return newServerWithMetrics(ctx, cfg, logger, nil)
}

func newServerWithMetrics(ctx context.Context, cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*Server, error) {
	if logger == nil {
		logger = logging.NewLogger(logging.Config{})
	}
	recorder, metricsSrv, metricsShutdown := buildMetrics(cfg, logger, recorder)

	defs, err := buildDefinitions(cfg)
	if err != nil {
		stopMetrics(metricsShutdown, logger)
		return nil, err
	}
	b, err := buildBackends(ctx, cfg, logger)
	if err != nil {
		stopMetrics(metricsShutdown, logger)
		return nil, err
	}

	sched := scheduler.New(scheduler.Options{
		Logger:     logger,
		Metrics:    recorder,
		Probe:      apiProbe(cfg.APIBaseURL),
		RetryDelay: cfg.RetryDelay,
	})
	transport := offline.NewTransport(nil, b.cache, logger)
	writer := surface.NewWriter(logger, recorder, b.registries...)
	runner := pipeline.NewRunner(
		fetch.NewClient(fetch.Config{Timeout: cfg.FetchTimeout, Transport: transport}),
		writer, logger, recorder,
	)
	manager := widgets.NewManager(widgets.Options{
		Definitions: defs,
		Scheduler:   sched,
		Runner:      runner,
		Registries:  b.registries,
		Transport:   transport,
		Logger:      logger,
	})

	starters := []func(){manager.Start}
	opts := handlers.Options{
		Widgets:  manager,
		Outcomes: runner,
		Sockets:  b.hub,
		Statuses: sched.Statuses,
		Checks:   b.checks,
		Logger:   logger,
	}
	if cfg.Desktop.Enabled {
		host := desktop.New(desktop.ShellRunner{}, cfg.Desktop.Command, cfg.Desktop.Interval, logger)
		opts.Desktop = host
		starters = append(starters, func() { host.Schedule(sched) })
	}

	router := httpserver.NewRouter(handlers.NewHandler(opts), httpserver.RouterOptions{
		Logger:         logger,
		Metrics:        recorder,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	httpSrv := netHTTPServer{srv: &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}}

	return &Server{
		cfg:           cfg,
		logger:        logger,
		metrics:       recorder,
		httpServer:    httpSrv,
		metricsServer: metricsSrv,
		scheduler:     sched,
		starters:      starters,
		backends:      b,
		metricsStop:   metricsShutdown,
	}, nil
}

func buildDefinitions(cfg config.Config) ([]widgets.Definition, error) {
	defs := widgets.Defaults(cfg.APIBaseURL)
	if cfg.WidgetsFile == "" {
		return defs, nil
	}
	file, err := config.LoadWidgetFile(cfg.WidgetsFile)
	if err != nil {
		return nil, err
	}
	defs, err = widgets.ApplyOverrides(defs, file)
	if err != nil {
		return nil, fmt.Errorf("widgets file %s: %w", cfg.WidgetsFile, err)
	}
	return defs, nil
}

// apiProbe treats the network as usable when the API host accepts a TCP
// connection. An unparsable base disables the probe.
func apiProbe(base string) scheduler.NetworkProbe {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return nil
	}
	addr := u.Host
	if u.Port() == "" {
		port := "443"
		if u.Scheme == "http" {
			port = "80"
		}
		addr = net.JoinHostPort(u.Hostname(), port)
	}
	return scheduler.NetworkProbeFunc(func(ctx context.Context) bool {
		ctx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	})
}

// Run starts the HTTP servers and widget jobs, then waits for context
// cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.startMetrics()
	s.startServer(stop)
	for _, start := range s.starters {
		start()
	}

	<-ctx.Done()
	logging.Info(s.logger, "shutdown signal received")

	s.gracefulShutdown()
}

func (s *Server) startServer(stop context.CancelFunc) {
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics shutdown failed", "error", err)
		}
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics server shutdown failed", "error", err)
		}
	}

	if s.scheduler != nil {
		if err := s.scheduler.Stop(shutdownCtx); err != nil {
			logging.Error(s.logger, "failed to stop scheduler", err)
		}
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error(s.logger, "graceful shutdown failed", err)
	}

	if s.backends != nil {
		s.backends.close(s.logger)
	}

	logging.Info(s.logger, "shutdown complete")
}

func buildMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*metrics.Recorder, httpServer, func(context.Context) error) {
	if recorder != nil {
		return recorder, nil, nil
	}

	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}

	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		logging.Warn(logger, "metrics setup failed, continuing without telemetry", "err", err)
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && recCfg.Enabled {
		metricsSrv = netHTTPServer{
			srv: &http.Server{
				Addr:              ":" + recCfg.Port,
				Handler:           handler,
				ReadHeaderTimeout: readHeaderTimeout,
			},
		}
	}

	return rec, metricsSrv, shutdown
}

func stopMetrics(shutdown func(context.Context) error, logger *slog.Logger) {
	if shutdown == nil {
		return
	}
	if err := shutdown(context.Background()); err != nil {
		logging.Warn(logger, "metrics shutdown failed", "error", err)
	}
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		logging.Info(logger, "starting "+name+" server", slog.String("addr", srv.Addr()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Warn(logger, name+" server failed", "error", err)
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}
