package metrics

import (
	"sync"
	"time"
)

type widgetStats struct {
	fetches          int
	fetchErrors      int
	retries          int
	renders          map[string]int
	surfaceWrites    int
	surfaceErrors    int
	lastFetchLatency time.Duration
}

// Recorder captures lightweight, in-memory metrics per widget kind and
// forwards them to OpenTelemetry instruments when configured.
type Recorder struct {
	mu    sync.Mutex
	stats map[string]*widgetStats
	otel  *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		stats: make(map[string]*widgetStats),
		otel:  otel,
	}
}

// RecordFetchAttempt counts one HTTP fetch for a widget and stores its latency.
func (r *Recorder) RecordFetchAttempt(widget string, duration time.Duration, err error) {
	if r == nil {
		return
	}

	r.update(widget, func(s *widgetStats) {
		s.fetches++
		s.lastFetchLatency = duration
		if err != nil {
			s.fetchErrors++
		}
	})
	if r.otel != nil {
		r.otel.recordFetchAttempt(widget, duration, err)
	}
}

// RecordRender counts a finished render cycle by its terminal outcome.
func (r *Recorder) RecordRender(widget, outcome string) {
	if r == nil {
		return
	}

	r.update(widget, func(s *widgetStats) {
		s.renders[outcome]++
	})
	if r.otel != nil {
		r.otel.recordRender(widget, outcome)
	}
}

// RecordRetry counts a retry attempt requested by a widget job.
func (r *Recorder) RecordRetry(widget string) {
	if r == nil {
		return
	}

	r.update(widget, func(s *widgetStats) {
		s.retries++
	})
	if r.otel != nil {
		r.otel.recordRetry(widget)
	}
}

// RecordSurfaceWrite counts a write to one surface on a backend.
func (r *Recorder) RecordSurfaceWrite(widget, backend string, err error) {
	if r == nil {
		return
	}

	r.update(widget, func(s *widgetStats) {
		s.surfaceWrites++
		if err != nil {
			s.surfaceErrors++
		}
	})
	if r.otel != nil {
		r.otel.recordSurfaceWrite(widget, backend, err)
	}
}

// FetchCalls returns the total fetch attempts recorded for a widget.
func (r *Recorder) FetchCalls(widget string) int {
	return r.Snapshot(widget).Fetches
}

// FetchErrors returns the failed fetch attempts recorded for a widget.
func (r *Recorder) FetchErrors(widget string) int {
	return r.Snapshot(widget).FetchErrors
}

// Retries returns how many retries were requested for a widget.
func (r *Recorder) Retries(widget string) int {
	return r.Snapshot(widget).Retries
}

// Renders returns how many render cycles ended with outcome.
func (r *Recorder) Renders(widget, outcome string) int {
	return r.Snapshot(widget).Renders[outcome]
}

// Snapshot is a copy of the current stats for one widget.
type Snapshot struct {
	Fetches          int
	FetchErrors      int
	Retries          int
	Renders          map[string]int
	SurfaceWrites    int
	SurfaceErrors    int
	LastFetchLatency time.Duration
}

func (r *Recorder) Snapshot(widget string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.stats[widget]
	if !ok || stats == nil {
		return Snapshot{}
	}
	renders := make(map[string]int, len(stats.renders))
	for k, v := range stats.renders {
		renders[k] = v
	}
	return Snapshot{
		Fetches:          stats.fetches,
		FetchErrors:      stats.fetchErrors,
		Retries:          stats.retries,
		Renders:          renders,
		SurfaceWrites:    stats.surfaceWrites,
		SurfaceErrors:    stats.surfaceErrors,
		LastFetchLatency: stats.lastFetchLatency,
	}
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// RecordSchedulerCycle tracks one scheduled job execution.
func (r *Recorder) RecordSchedulerCycle(job string, duration time.Duration, err error) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordScheduler(job, duration, err)
}

func (r *Recorder) update(widget string, fn func(*widgetStats)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.stats[widget]
	if !ok {
		stats = &widgetStats{renders: make(map[string]int)}
		r.stats[widget] = stats
	}
	fn(stats)
}
