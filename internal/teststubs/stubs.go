package teststubs

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/preston-bernstein/nba-stables-widgets/internal/scheduler"
)

// StubScheduler is a test double for the widget and desktop schedulers. It
// records enqueued jobs without running them unless Run is called.
type StubScheduler struct {
	mu       sync.Mutex
	Periodic map[string]scheduler.Periodic
	Once     []string
	Canceled []string
	Stopped  bool
	works    map[string]scheduler.Work
}

func (s *StubScheduler) EnqueueUniquePeriodic(name string, p scheduler.Periodic, work scheduler.Work) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Stopped {
		return false
	}
	if s.Periodic == nil {
		s.Periodic = make(map[string]scheduler.Periodic)
	}
	if _, exists := s.Periodic[name]; exists && p.Policy == scheduler.Keep {
		return false
	}
	s.Periodic[name] = p
	s.store(name, work)
	return true
}

func (s *StubScheduler) EnqueueOnce(name string, _ scheduler.Constraints, work scheduler.Work) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Stopped {
		return false
	}
	s.Once = append(s.Once, name)
	s.store(name, work)
	return true
}

func (s *StubScheduler) Cancel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Periodic[name]
	delete(s.Periodic, name)
	s.Canceled = append(s.Canceled, name)
	return ok
}

// Run executes the most recently enqueued work for name.
func (s *StubScheduler) Run(ctx context.Context, name string) (scheduler.Result, bool) {
	s.mu.Lock()
	work, ok := s.works[name]
	s.mu.Unlock()
	if !ok {
		return scheduler.Failure, false
	}
	return work(ctx), true
}

// OnceCount reports how many one-time runs were enqueued under name.
func (s *StubScheduler) OnceCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, o := range s.Once {
		if o == name {
			n++
		}
	}
	return n
}

func (s *StubScheduler) store(name string, work scheduler.Work) {
	if s.works == nil {
		s.works = make(map[string]scheduler.Work)
	}
	s.works[name] = work
}

// StubCommandRunner returns Output and Err, counting calls.
type StubCommandRunner struct {
	Output []byte
	Err    error
	Calls  atomic.Int32
	Last   atomic.Value
}

func (r *StubCommandRunner) Run(ctx context.Context, command string) ([]byte, error) {
	_ = ctx
	r.Calls.Add(1)
	r.Last.Store(command)
	return r.Output, r.Err
}
