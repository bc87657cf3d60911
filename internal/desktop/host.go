package desktop

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/preston-bernstein/nba-stables-widgets/internal/format"
	"github.com/preston-bernstein/nba-stables-widgets/internal/logging"
	"github.com/preston-bernstein/nba-stables-widgets/internal/scheduler"
)

const (
	// JobName is the unique scheduler name of the desktop refresh.
	JobName         = "desktop_widget_update"
	defaultInterval = 60 * time.Second
	commandTimeout  = 30 * time.Second
)

// CommandRunner executes a shell command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, command string) ([]byte, error)
}

// Scheduler is the subset of *scheduler.Scheduler the host needs.
type Scheduler interface {
	EnqueueUniquePeriodic(name string, p scheduler.Periodic, work scheduler.Work) bool
}

// ShellRunner runs commands through sh -c.
type ShellRunner struct{}

func (ShellRunner) Run(ctx context.Context, command string) ([]byte, error) {
	return exec.CommandContext(ctx, "sh", "-c", command).Output()
}

// Host periodically runs a command and keeps the rendered desktop card.
type Host struct {
	runner   CommandRunner
	command  string
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.RWMutex
	html     string
	updated  time.Time
	lastErr  error
	runCount int
}

// New builds a Host. A nil runner uses ShellRunner.
func New(runner CommandRunner, command string, interval time.Duration, logger *slog.Logger) *Host {
	if runner == nil {
		runner = ShellRunner{}
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Host{
		runner:   runner,
		command:  command,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		html:     format.Desktop(nil),
	}
}

// Refresh runs the command once and re-renders. Command failures still
// render whatever stdout was produced, which shows the loading card when
// nothing parseable came back.
func (h *Host) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	out, err := h.runner.Run(ctx, h.command)
	html := format.Desktop(out)

	h.mu.Lock()
	h.html = html
	h.updated = h.now()
	h.lastErr = err
	h.runCount++
	h.mu.Unlock()

	if err != nil {
		logging.Warn(h.logger, "desktop command failed", "command", h.command, "error", err)
		return fmt.Errorf("desktop command: %w", err)
	}
	return nil
}

// Work adapts Refresh to the scheduler contract.
func (h *Host) Work() scheduler.Work {
	return func(ctx context.Context) scheduler.Result {
		if err := h.Refresh(ctx); err != nil {
			return scheduler.Retry
		}
		return scheduler.Success
	}
}

// Schedule registers the periodic refresh. The first refresh runs immediately.
func (h *Host) Schedule(s Scheduler) {
	s.EnqueueUniquePeriodic(JobName, scheduler.Periodic{Interval: h.interval, Policy: scheduler.Replace}, h.Work())
}

// Snapshot is the current desktop render.
type Snapshot struct {
	HTML    string
	Updated time.Time
	Err     error
	Runs    int
}

func (h *Host) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Snapshot{HTML: h.html, Updated: h.updated, Err: h.lastErr, Runs: h.runCount}
}

// HTML returns the latest rendered card.
func (h *Host) HTML() string {
	return h.Snapshot().HTML
}
