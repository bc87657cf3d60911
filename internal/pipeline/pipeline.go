package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/preston-bernstein/nba-stables-widgets/internal/decode"
	"github.com/preston-bernstein/nba-stables-widgets/internal/domain"
	"github.com/preston-bernstein/nba-stables-widgets/internal/fetch"
	"github.com/preston-bernstein/nba-stables-widgets/internal/logging"
	"github.com/preston-bernstein/nba-stables-widgets/internal/metrics"
	"github.com/preston-bernstein/nba-stables-widgets/internal/surface"
)

// State is where a widget kind sits in its render cycle.
type State string

const (
	StateIdle     State = "idle"
	StateFetching State = "fetching"
	StateRendered State = "rendered"
	StateFailed   State = "failed"
)

// Fetcher performs the HTTP GET for a job.
type Fetcher interface {
	Get(ctx context.Context, url string) (fetch.Response, error)
}

// Pusher writes content to every surface of a kind.
type Pusher interface {
	Push(ctx context.Context, kind domain.Kind, content surface.Content) (int, error)
}

// Job is one fetch-render-write unit. A nil Fetcher uses the runner's.
type Job struct {
	Kind    domain.Kind
	URL     string
	Noun    string
	Render  Renderer
	Fetcher Fetcher
}

// ErrorText is the fallback surface string for failures without a more
// specific message.
func (j Job) ErrorText() string {
	return "Error loading " + j.Noun
}

// Outcome is the tagged result of one run.
type Outcome struct {
	Kind      domain.Kind
	State     State
	Content   surface.Content
	Err       error
	ErrorKind decode.ErrorKind
	Retry     bool
	Written   int
	Finished  time.Time
}

var errPanicked = errors.New("render panicked")

// Runner executes jobs and remembers the latest outcome per kind.
type Runner struct {
	fetcher Fetcher
	writer  Pusher
	logger  *slog.Logger
	metrics *metrics.Recorder
	now     func() time.Time

	mu     sync.RWMutex
	states map[domain.Kind]State
	last   map[domain.Kind]Outcome
}

// NewRunner wires a Runner to its collaborators.
func NewRunner(fetcher Fetcher, writer Pusher, logger *slog.Logger, recorder *metrics.Recorder) *Runner {
	return &Runner{
		fetcher: fetcher,
		writer:  writer,
		logger:  logger,
		metrics: recorder,
		now:     time.Now,
		states:  make(map[domain.Kind]State),
		last:    make(map[domain.Kind]Outcome),
	}
}

// Run fetches, renders and writes one job. Fetch, decode and render failures
// are converted into a surface string and an outcome that requests a retry.
// Surface write failures are logged and counted but leave the run rendered.
// Run never panics.
func (r *Runner) Run(ctx context.Context, job Job) (out Outcome) {
	logger := logging.ForWidget(r.logger, string(job.Kind))
	r.setState(job.Kind, StateFetching)

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("%w: %v", errPanicked, rec)
			out = r.fail(ctx, logger, job, err)
		}
		out.Finished = r.now()
		r.metrics.RecordRender(string(job.Kind), string(out.State))
		if out.Retry {
			r.metrics.RecordRetry(string(job.Kind))
		}
		r.remember(out)
	}()

	fetcher := job.Fetcher
	if fetcher == nil {
		fetcher = r.fetcher
	}
	start := r.now()
	resp, err := fetcher.Get(ctx, job.URL)
	if err == nil && !resp.Success() {
		r.metrics.RecordFetchAttempt(string(job.Kind), r.now().Sub(start), fmt.Errorf("status %d", resp.StatusCode))
	} else {
		r.metrics.RecordFetchAttempt(string(job.Kind), r.now().Sub(start), err)
	}
	if err != nil {
		return r.fail(ctx, logger, job, err)
	}

	content, err := job.Render(resp)
	if err != nil {
		return r.fail(ctx, logger, job, err)
	}

	written, err := r.writer.Push(ctx, job.Kind, content)
	if err != nil {
		logging.Warn(logger, "widget not written to every surface",
			logging.FieldCount, written,
			"error", err,
		)
	}

	logging.Info(logger, "widget rendered",
		logging.FieldCount, written,
		logging.FieldDurationMS, r.now().Sub(start).Milliseconds(),
	)
	return Outcome{
		Kind:    job.Kind,
		State:   StateRendered,
		Content: content,
		Written: written,
	}
}

func (r *Runner) fail(ctx context.Context, logger *slog.Logger, job Job, err error) Outcome {
	kind := decode.Classify(err)
	text := decode.StatusText(err)
	if text == "" {
		text = job.ErrorText()
	}
	content := surface.Content{Text: text}

	written, pushErr := r.writer.Push(ctx, job.Kind, content)
	if pushErr != nil {
		logging.Warn(logger, "error text not written to every surface", "error", pushErr)
	}
	logging.Warn(logger, "widget render failed",
		"error_kind", kind.String(),
		logging.FieldURL, job.URL,
		"error", err,
	)
	return Outcome{
		Kind:      job.Kind,
		State:     StateFailed,
		Content:   content,
		Err:       err,
		ErrorKind: kind,
		Retry:     true,
		Written:   written,
	}
}

// Placeholder writes text to every surface of kind without fetching.
func (r *Runner) Placeholder(ctx context.Context, kind domain.Kind, text string) (int, error) {
	return r.writer.Push(ctx, kind, surface.Content{Text: text})
}

// Last returns the most recent outcome for kind.
func (r *Runner) Last(kind domain.Kind) (Outcome, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out, ok := r.last[kind]
	return out, ok
}

// State returns the current render state for kind.
func (r *Runner) State(kind domain.Kind) State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if st, ok := r.states[kind]; ok {
		return st
	}
	return StateIdle
}

func (r *Runner) setState(kind domain.Kind, st State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[kind] = st
}

func (r *Runner) remember(out Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[out.Kind] = out.State
	r.last[out.Kind] = out
}
