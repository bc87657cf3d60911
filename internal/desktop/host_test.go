package desktop

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/preston-bernstein/nba-stables-widgets/internal/scheduler"
)

type fakeRunner struct {
	mu       sync.Mutex
	out      []byte
	err      error
	commands []string
}

func (f *fakeRunner) Run(_ context.Context, command string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, command)
	return f.out, f.err
}

const scoreboard = `{"date":"January 02, 2025","games":[{"gameId":"1","status":"Q3 4:12","awayTeam":{"tricode":"NYK","score":70},"homeTeam":{"tricode":"BOS","score":75,"leader":{"name":"Jayson Tatum","points":22}}}]}`

func TestNewHostStartsWithLoadingCard(t *testing.T) {
	h := New(&fakeRunner{}, "curl -s x", 0, nil)
	if !strings.Contains(h.HTML(), "Loading...") {
		t.Fatalf("expected loading card, got %s", h.HTML())
	}
	if h.interval != defaultInterval {
		t.Fatalf("expected default interval, got %s", h.interval)
	}
}

func TestRefreshRendersCommandOutput(t *testing.T) {
	runner := &fakeRunner{out: []byte(scoreboard)}
	h := New(runner, "curl -s https://nbastables.com/api/scoreboard", time.Minute, nil)

	if err := h.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	snap := h.Snapshot()
	for _, want := range []string{"NBA Live", "NYK", "BOS", "Jayson Tatum 22pts"} {
		if !strings.Contains(snap.HTML, want) {
			t.Fatalf("expected %q in %s", want, snap.HTML)
		}
	}
	if snap.Runs != 1 || snap.Updated.IsZero() || snap.Err != nil {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if runner.commands[0] != "curl -s https://nbastables.com/api/scoreboard" {
		t.Fatalf("unexpected command %v", runner.commands)
	}
}

func TestRefreshFailureShowsLoadingAndRetries(t *testing.T) {
	h := New(&fakeRunner{err: errors.New("exit status 6")}, "curl", time.Minute, nil)

	if res := h.Work()(context.Background()); res != scheduler.Retry {
		t.Fatalf("expected retry, got %s", res)
	}
	snap := h.Snapshot()
	if snap.Err == nil || !strings.Contains(snap.HTML, "Loading...") {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestShellRunnerCapturesStdout(t *testing.T) {
	out, err := ShellRunner{}.Run(context.Background(), "printf '{\"games\":[]}'")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if string(out) != `{"games":[]}` {
		t.Fatalf("unexpected output %q", out)
	}
}

type recordingScheduler struct {
	periodic []string
	interval time.Duration
	delay    time.Duration
}

func (r *recordingScheduler) EnqueueUniquePeriodic(name string, p scheduler.Periodic, _ scheduler.Work) bool {
	r.periodic = append(r.periodic, name)
	r.interval = p.Interval
	r.delay = p.InitialDelay
	return true
}

func TestScheduleRegistersImmediatePeriodicJob(t *testing.T) {
	s := &recordingScheduler{}
	New(&fakeRunner{}, "curl", 60*time.Second, nil).Schedule(s)

	if len(s.periodic) != 1 || s.periodic[0] != JobName || s.interval != 60*time.Second {
		t.Fatalf("unexpected periodic registration %+v", s)
	}
	if s.delay != 0 {
		t.Fatalf("expected the first refresh without delay, got %s", s.delay)
	}
}
