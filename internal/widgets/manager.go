package widgets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/preston-bernstein/nba-stables-widgets/internal/domain"
	"github.com/preston-bernstein/nba-stables-widgets/internal/fetch"
	"github.com/preston-bernstein/nba-stables-widgets/internal/logging"
	"github.com/preston-bernstein/nba-stables-widgets/internal/pipeline"
	"github.com/preston-bernstein/nba-stables-widgets/internal/scheduler"
	"github.com/preston-bernstein/nba-stables-widgets/internal/surface"
)

// ErrUnknownWidget is returned for kinds that have no enabled definition.
var ErrUnknownWidget = errors.New("widget not configured")

// Scheduler is the subset of *scheduler.Scheduler the manager drives.
type Scheduler interface {
	EnqueueUniquePeriodic(name string, p scheduler.Periodic, work scheduler.Work) bool
	EnqueueOnce(name string, c scheduler.Constraints, work scheduler.Work) bool
	Cancel(name string) bool
}

// Options configures a Manager.
type Options struct {
	Definitions []Definition
	Scheduler   Scheduler
	Runner      *pipeline.Runner
	// Registries receive placeholders. The first Registrar among them owns
	// surface membership.
	Registries []surface.Registry
	// Transport carries widget fetches; nil uses the default transport.
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// Manager plays the host provider role: it reacts to surfaces being enabled,
// updated and disabled by scheduling, refreshing and cancelling widget jobs.
type Manager struct {
	defs       map[domain.Kind]Definition
	order      []domain.Kind
	fetchers   map[domain.Kind]pipeline.Fetcher
	sched      Scheduler
	runner     *pipeline.Runner
	registries []surface.Registry
	registrar  surface.Registrar
	logger     *slog.Logger
}

// NewManager builds a Manager. Disabled definitions are ignored.
func NewManager(opts Options) *Manager {
	m := &Manager{
		defs:       make(map[domain.Kind]Definition),
		fetchers:   make(map[domain.Kind]pipeline.Fetcher),
		sched:      opts.Scheduler,
		runner:     opts.Runner,
		registries: opts.Registries,
		logger:     opts.Logger,
	}
	for _, d := range opts.Definitions {
		if !d.Enabled {
			continue
		}
		m.defs[d.Kind] = d
		m.order = append(m.order, d.Kind)
		m.fetchers[d.Kind] = fetch.NewClient(fetch.Config{Timeout: d.Timeout, Transport: opts.Transport})
	}
	for _, r := range opts.Registries {
		if reg, ok := r.(surface.Registrar); ok {
			m.registrar = reg
			break
		}
	}
	return m
}

// Definitions returns the enabled definitions in declaration order.
func (m *Manager) Definitions() []Definition {
	out := make([]Definition, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.defs[k])
	}
	return out
}

// Definition looks up the enabled definition for kind.
func (m *Manager) Definition(kind domain.Kind) (Definition, bool) {
	d, ok := m.defs[kind]
	return d, ok
}

// Start enables every configured widget.
func (m *Manager) Start() {
	for _, k := range m.order {
		_ = m.OnEnabled(k)
	}
}

// OnEnabled schedules the periodic job for kind. A newly scheduled job runs
// as soon as the network allows.
func (m *Manager) OnEnabled(kind domain.Kind) error {
	def, ok := m.defs[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWidget, kind)
	}
	m.enable(def)
	return nil
}

func (m *Manager) enable(def Definition) bool {
	scheduled := m.sched.EnqueueUniquePeriodic(def.JobName, scheduler.Periodic{
		Interval:    def.Interval,
		Policy:      def.Policy,
		Constraints: scheduler.Constraints{RequiresNetwork: true},
	}, m.work(def))
	logging.Info(m.logger, "widget enabled",
		logging.FieldWidget, string(def.Kind),
		logging.FieldJob, def.JobName,
		"scheduled", scheduled,
	)
	return scheduled
}

// OnUpdate writes the loading placeholder to each id, then reschedules. When
// the periodic job is kept, a one-time run renders the new ids right away.
func (m *Manager) OnUpdate(ctx context.Context, kind domain.Kind, ids []surface.ID) error {
	def, ok := m.defs[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWidget, kind)
	}
	var errs []error
	if def.Placeholder != "" {
		for _, id := range ids {
			errs = append(errs, m.writePlaceholder(ctx, def, id))
		}
	}
	if !m.enable(def) {
		m.sched.EnqueueOnce(def.OnceJobName(), scheduler.Constraints{RequiresNetwork: true}, m.work(def))
	}
	return errors.Join(errs...)
}

// OnDisabled cancels the unique job for kind.
func (m *Manager) OnDisabled(kind domain.Kind) error {
	def, ok := m.defs[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWidget, kind)
	}
	m.sched.Cancel(def.JobName)
	logging.Info(m.logger, "widget disabled", logging.FieldWidget, string(kind), logging.FieldJob, def.JobName)
	return nil
}

// Refresh runs kind once in the background.
func (m *Manager) Refresh(kind domain.Kind) error {
	def, ok := m.defs[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWidget, kind)
	}
	if !m.sched.EnqueueOnce(def.OnceJobName(), scheduler.Constraints{RequiresNetwork: true}, m.work(def)) {
		return fmt.Errorf("refresh %s: scheduler stopped", kind)
	}
	return nil
}

// RunNow executes kind synchronously and returns the outcome.
func (m *Manager) RunNow(ctx context.Context, kind domain.Kind) (pipeline.Outcome, error) {
	def, ok := m.defs[kind]
	if !ok {
		return pipeline.Outcome{}, fmt.Errorf("%w: %s", ErrUnknownWidget, kind)
	}
	return m.runner.Run(ctx, def.Job(m.fetchers[kind])), nil
}

// Register adds a surface. The first surface of a kind enables it; every
// registration triggers the update path for the new id.
func (m *Manager) Register(ctx context.Context, kind domain.Kind, id surface.ID) error {
	if _, ok := m.defs[kind]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWidget, kind)
	}
	if m.registrar == nil {
		return errors.New("surface registration not supported by configured backends")
	}
	if err := m.registrar.Register(ctx, kind, id); err != nil {
		return fmt.Errorf("register %s/%s: %w", kind, id, err)
	}
	return m.OnUpdate(ctx, kind, []surface.ID{id})
}

// Unregister removes a surface and disables the kind once none remain.
func (m *Manager) Unregister(ctx context.Context, kind domain.Kind, id surface.ID) error {
	if _, ok := m.defs[kind]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWidget, kind)
	}
	if m.registrar == nil {
		return errors.New("surface registration not supported by configured backends")
	}
	if err := m.registrar.Unregister(ctx, kind, id); err != nil {
		return fmt.Errorf("unregister %s/%s: %w", kind, id, err)
	}
	remaining, err := m.countSurfaces(ctx, kind)
	if err != nil {
		return err
	}
	if remaining == 0 {
		return m.OnDisabled(kind)
	}
	return nil
}

func (m *Manager) work(def Definition) scheduler.Work {
	job := def.Job(m.fetchers[def.Kind])
	return func(ctx context.Context) scheduler.Result {
		if out := m.runner.Run(ctx, job); out.Retry {
			return scheduler.Retry
		}
		return scheduler.Success
	}
}

func (m *Manager) writePlaceholder(ctx context.Context, def Definition, id surface.ID) error {
	content := surface.Content{Text: def.Placeholder}
	var errs []error
	for _, reg := range m.registries {
		err := reg.Write(ctx, def.Kind, id, content)
		if err != nil && !errors.Is(err, surface.ErrUnknownSurface) {
			errs = append(errs, fmt.Errorf("placeholder %s/%s on %s: %w", def.Kind, id, reg.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) countSurfaces(ctx context.Context, kind domain.Kind) (int, error) {
	total := 0
	for _, reg := range m.registries {
		ids, err := reg.List(ctx, kind)
		if err != nil {
			return 0, fmt.Errorf("list %s on %s: %w", kind, reg.Name(), err)
		}
		total += len(ids)
	}
	return total, nil
}
