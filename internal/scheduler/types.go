package scheduler

import (
	"context"
	"time"
)

// Result is what a unit of work reports back to the scheduler.
type Result int

const (
	Success Result = iota
	Retry
	Failure
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Retry:
		return "retry"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Work is one execution of a scheduled job.
type Work func(ctx context.Context) Result

// Policy decides what happens when a unique periodic job is enqueued under a
// name that is already scheduled.
type Policy int

const (
	// Replace cancels the existing job and schedules the new one.
	Replace Policy = iota
	// Keep leaves the existing job untouched and drops the new one.
	Keep
)

func (p Policy) String() string {
	if p == Keep {
		return "keep"
	}
	return "replace"
}

// Constraints gate whether a run may start.
type Constraints struct {
	RequiresNetwork bool
}

// Periodic describes a repeating job. The first run happens InitialDelay
// after scheduling; zero runs it as soon as constraints allow.
type Periodic struct {
	Interval     time.Duration
	InitialDelay time.Duration
	Policy       Policy
	Constraints
}

// NetworkProbe reports whether the network is currently usable.
type NetworkProbe interface {
	Online(ctx context.Context) bool
}

// NetworkProbeFunc adapts a function to NetworkProbe.
type NetworkProbeFunc func(ctx context.Context) bool

func (f NetworkProbeFunc) Online(ctx context.Context) bool { return f(ctx) }

type alwaysOnline struct{}

func (alwaysOnline) Online(context.Context) bool { return true }

// State is the lifecycle position of a job.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateRetrying State = "retrying"
)

// Status describes the recent health of one job.
type Status struct {
	Name                string
	Periodic            bool
	Interval            time.Duration
	State               State
	Runs                int
	Retries             int
	Skipped             int
	ConsecutiveFailures int
	LastResult          string
	LastError           string
	LastAttempt         time.Time
	LastSuccess         time.Time
}

// FailingThreshold is the number of consecutive failed runs after which a job
// stops counting as ready.
const FailingThreshold = 3

// IsReady reports whether the job is not failing repeatedly. A job that has
// not run yet is ready.
func (s Status) IsReady() bool {
	return s.ConsecutiveFailures < FailingThreshold
}
