package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/preston-bernstein/nba-stables-widgets/internal/logging"
	"github.com/preston-bernstein/nba-stables-widgets/internal/metrics"
)

const (
	defaultInterval   = 15 * time.Minute
	defaultRetryDelay = 30 * time.Second
)

var (
	errRetryRequested = errors.New("retry requested")
	errWorkFailed     = errors.New("work failed")
	errPanicked       = errors.New("work panicked")
)

// Options configures a Scheduler.
type Options struct {
	Logger     *slog.Logger
	Metrics    *metrics.Recorder
	Probe      NetworkProbe
	RetryDelay time.Duration
}

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler runs named jobs on fixed intervals. A run that returns Retry gets
// exactly one extra attempt after RetryDelay; the next periodic tick fires
// regardless of how the previous run ended. Runs of the same name are not
// serialized.
type Scheduler struct {
	logger     *slog.Logger
	metrics    *metrics.Recorder
	probe      NetworkProbe
	retryDelay time.Duration
	now        func() time.Time

	mu       sync.Mutex
	periodic map[string]*job
	once     map[string]map[*job]struct{}
	stopped  bool
	wg       sync.WaitGroup

	statusMu sync.RWMutex
	status   map[string]*Status
}

// New constructs a Scheduler with sane defaults.
func New(opts Options) *Scheduler {
	if opts.Probe == nil {
		opts.Probe = alwaysOnline{}
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	return &Scheduler{
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		probe:      opts.Probe,
		retryDelay: opts.RetryDelay,
		now:        time.Now,
		periodic:   make(map[string]*job),
		once:       make(map[string]map[*job]struct{}),
		status:     make(map[string]*Status),
	}
}

// EnqueueUniquePeriodic schedules work every p.Interval under name. The first
// run happens after p.InitialDelay. It reports whether a new job was started;
// with Keep and an existing job nothing changes and it returns false.
func (s *Scheduler) EnqueueUniquePeriodic(name string, p Periodic, work Work) bool {
	if p.Interval <= 0 {
		p.Interval = defaultInterval
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	if existing, ok := s.periodic[name]; ok {
		if p.Policy == Keep {
			s.mu.Unlock()
			logging.Info(s.logger, "periodic job kept", logging.FieldJob, name)
			return false
		}
		existing.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{cancel: cancel, done: make(chan struct{})}
	s.periodic[name] = j
	s.wg.Add(1)
	s.mu.Unlock()

	s.updateStatus(name, func(st *Status) {
		st.Periodic = true
		st.Interval = p.Interval
	})

	go func() {
		defer s.wg.Done()
		defer close(j.done)
		s.loop(ctx, name, p, work)
	}()

	logging.Info(s.logger, "periodic job scheduled",
		logging.FieldJob, name,
		"policy", p.Policy.String(),
		logging.FieldDurationMS, p.Interval.Milliseconds(),
	)
	return true
}

// EnqueueOnce runs work a single time in the background. One-time runs are not
// unique; each call starts its own run.
func (s *Scheduler) EnqueueOnce(name string, c Constraints, work Work) bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{cancel: cancel, done: make(chan struct{})}
	if s.once[name] == nil {
		s.once[name] = make(map[*job]struct{})
	}
	s.once[name][j] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	s.updateStatus(name, func(*Status) {})

	go func() {
		defer s.wg.Done()
		defer close(j.done)
		defer func() {
			s.mu.Lock()
			delete(s.once[name], j)
			s.mu.Unlock()
			cancel()
		}()
		s.execute(ctx, name, c, work)
	}()
	return true
}

// Cancel stops the periodic job and any in-flight one-time runs under name.
// It reports whether anything was cancelled.
func (s *Scheduler) Cancel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	if j, ok := s.periodic[name]; ok {
		j.cancel()
		delete(s.periodic, name)
		found = true
	}
	for j := range s.once[name] {
		j.cancel()
		found = true
	}
	if found {
		logging.Info(s.logger, "job cancelled", logging.FieldJob, name)
	}
	return found
}

// Scheduled reports whether a periodic job exists under name.
func (s *Scheduler) Scheduled(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.periodic[name]
	return ok
}

// Stop cancels every job and waits for running work to return or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	for name, j := range s.periodic {
		j.cancel()
		delete(s.periodic, name)
	}
	for _, runs := range s.once {
		for j := range runs {
			j.cancel()
		}
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logging.Info(s.logger, "scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns a snapshot of one job's health.
func (s *Scheduler) Status(name string) (Status, bool) {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	st, ok := s.status[name]
	if !ok {
		return Status{}, false
	}
	return *st, true
}

// Statuses returns every known job's health ordered by name.
func (s *Scheduler) Statuses() []Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	out := make([]Status, 0, len(s.status))
	for _, st := range s.status {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) loop(ctx context.Context, name string, p Periodic, work Work) {
	if p.InitialDelay > 0 {
		timer := time.NewTimer(p.InitialDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			logging.Info(s.logger, "periodic job stopped", logging.FieldJob, name)
			return
		case <-timer.C:
		}
	}
	s.execute(ctx, name, p.Constraints, work)

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info(s.logger, "periodic job stopped", logging.FieldJob, name)
			return
		case <-ticker.C:
			s.execute(ctx, name, p.Constraints, work)
		}
	}
}

// execute performs one run, honoring constraints and the single retry.
func (s *Scheduler) execute(ctx context.Context, name string, c Constraints, work Work) {
	if c.RequiresNetwork && !s.probe.Online(ctx) {
		s.updateStatus(name, func(st *Status) { st.Skipped++ })
		logging.Info(s.logger, "job skipped, network unavailable", logging.FieldJob, name)
		return
	}

	start := s.now()
	s.updateStatus(name, func(st *Status) {
		st.State = StateRunning
		st.Runs++
		st.LastAttempt = start
	})

	attempt := 0
	last := Failure
	op := func() error {
		attempt++
		last = s.runSafely(ctx, name, work)
		switch last {
		case Success:
			return nil
		case Retry:
			return errRetryRequested
		default:
			return backoff.Permanent(errWorkFailed)
		}
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryDelay), 1),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		s.updateStatus(name, func(st *Status) {
			st.State = StateRetrying
			st.Retries++
		})
		logging.Warn(s.logger, "job retry scheduled",
			logging.FieldJob, name,
			logging.FieldAttempt, attempt+1,
			logging.FieldDurationMS, wait.Milliseconds(),
		)
	}
	err := backoff.RetryNotify(op, policy, notify)
	if err != nil {
		err = fmt.Errorf("%s after %d attempt(s): %w", last, attempt, err)
	}

	s.metrics.RecordSchedulerCycle(name, time.Since(start), err)
	s.finish(name, last, err, start)
}

func (s *Scheduler) runSafely(ctx context.Context, name string, work Work) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error(s.logger, "job panicked", errPanicked, logging.FieldJob, name, "panic", fmt.Sprint(r))
			res = Retry
		}
	}()
	return work(ctx)
}

func (s *Scheduler) finish(name string, last Result, err error, start time.Time) {
	s.updateStatus(name, func(st *Status) {
		st.State = StateIdle
		st.LastResult = last.String()
		if err == nil {
			st.ConsecutiveFailures = 0
			st.LastError = ""
			st.LastSuccess = start
			return
		}
		st.ConsecutiveFailures++
		st.LastError = err.Error()
	})
	if err != nil {
		logging.Warn(s.logger, "job finished without success", logging.FieldJob, name, "error", err)
	}
}

func (s *Scheduler) updateStatus(name string, fn func(*Status)) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	st, ok := s.status[name]
	if !ok {
		st = &Status{Name: name, State: StateIdle}
		s.status[name] = st
	}
	fn(st)
}
