package server

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/preston-bernstein/nba-stables-widgets/internal/config"
	"github.com/preston-bernstein/nba-stables-widgets/internal/metrics"
)

func TestBuildMetricsHandlesSetupFailure(t *testing.T) {
	origSetup := metricsSetup
	defer func() { metricsSetup = origSetup }()

	metricsSetup = func(ctx context.Context, cfg metrics.TelemetryConfig) (*metrics.Recorder, http.Handler, func(context.Context) error, error) {
		return nil, nil, nil, errors.New("fail")
	}

	cfg := config.Config{Metrics: config.MetricsConfig{Enabled: true}}
	rec, srv, stop := buildMetrics(cfg, nil, nil)
	if rec == nil {
		t.Fatalf("expected fallback metrics recorder even on setup failure")
	}
	if srv != nil || stop != nil {
		t.Fatalf("expected no metrics server after setup failure")
	}
}

func TestBuildMetricsEnabledStartsServer(t *testing.T) {
	origSetup := metricsSetup
	defer func() { metricsSetup = origSetup }()

	var gotCfg metrics.TelemetryConfig
	metricsSetup = func(ctx context.Context, cfg metrics.TelemetryConfig) (*metrics.Recorder, http.Handler, func(context.Context) error, error) {
		gotCfg = cfg
		return metrics.NewRecorder(), http.NewServeMux(), func(context.Context) error { return nil }, nil
	}

	cfg := config.Config{Metrics: config.MetricsConfig{Enabled: true, Port: "9191", ServiceName: "widgets"}}
	rec, srv, stop := buildMetrics(cfg, nil, nil)
	if rec == nil || srv == nil || stop == nil {
		t.Fatalf("expected recorder, server and shutdown")
	}
	if srv.Addr() != ":9191" || gotCfg.ServiceName != "widgets" {
		t.Fatalf("unexpected metrics wiring addr=%s cfg=%+v", srv.Addr(), gotCfg)
	}
}

func TestBuildMetricsDisabledSkipsServer(t *testing.T) {
	cfg := config.Config{Metrics: config.MetricsConfig{Enabled: false}}
	rec, srv, _ := buildMetrics(cfg, nil, nil)
	if rec == nil {
		t.Fatalf("expected recorder to be set even when metrics disabled")
	}
	if srv != nil {
		t.Fatalf("expected no metrics server when disabled")
	}
}

func TestBuildMetricsUsesInjectedRecorder(t *testing.T) {
	rec := metrics.NewRecorder()
	got, srv, stop := buildMetrics(config.Config{Metrics: config.MetricsConfig{Enabled: true}}, nil, rec)
	if got != rec || srv != nil || stop != nil {
		t.Fatalf("expected injected recorder to short-circuit setup")
	}
}
