package surface

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/preston-bernstein/nba-stables-widgets/internal/domain"
	"github.com/preston-bernstein/nba-stables-widgets/internal/logging"
	"github.com/preston-bernstein/nba-stables-widgets/internal/metrics"
)

// Writer pushes one content value to every surface of a kind across all
// configured registries.
type Writer struct {
	registries []Registry
	logger     *slog.Logger
	metrics    *metrics.Recorder
}

// NewWriter builds a Writer over the given registries. Nil registries are skipped.
func NewWriter(logger *slog.Logger, recorder *metrics.Recorder, registries ...Registry) *Writer {
	kept := make([]Registry, 0, len(registries))
	for _, r := range registries {
		if r != nil {
			kept = append(kept, r)
		}
	}
	return &Writer{registries: kept, logger: logger, metrics: recorder}
}

// Push writes content to every registered surface of kind and returns how
// many writes succeeded. No surfaces is not an error. A surface removed
// between List and Write is skipped. A failing surface does not stop the
// others; all failures are joined into the returned error.
func (w *Writer) Push(ctx context.Context, kind domain.Kind, content Content) (int, error) {
	if w == nil {
		return 0, nil
	}
	written := 0
	var errs []error
	for _, reg := range w.registries {
		ids, err := reg.List(ctx, kind)
		if err != nil {
			errs = append(errs, fmt.Errorf("list %s surfaces on %s: %w", kind, reg.Name(), err))
			continue
		}
		for _, id := range ids {
			err := reg.Write(ctx, kind, id, content)
			if errors.Is(err, ErrUnknownSurface) {
				logging.Info(w.logger, "surface gone, skipping",
					logging.FieldWidget, string(kind),
					logging.FieldBackend, reg.Name(),
					logging.FieldSurfaceID, string(id),
				)
				continue
			}
			w.metrics.RecordSurfaceWrite(string(kind), reg.Name(), err)
			if err != nil {
				logging.Warn(w.logger, "surface write failed",
					logging.FieldWidget, string(kind),
					logging.FieldBackend, reg.Name(),
					logging.FieldSurfaceID, string(id),
					"error", err,
				)
				errs = append(errs, fmt.Errorf("write %s/%s on %s: %w", kind, id, reg.Name(), err))
				continue
			}
			written++
		}
	}
	return written, errors.Join(errs...)
}

// Registries exposes the configured registries.
func (w *Writer) Registries() []Registry {
	if w == nil {
		return nil
	}
	return w.registries
}
