package surface

import (
	"context"
	"errors"
	"strings"

	"github.com/preston-bernstein/nba-stables-widgets/internal/domain"
	"github.com/preston-bernstein/nba-stables-widgets/internal/format"
)

// ID identifies one registered widget instance within a kind.
type ID string

// Content is everything a surface displays. Writes always replace it whole.
type Content struct {
	Text string           `json:"text"`
	Rows []format.GameRow `json:"rows,omitempty"`
}

// ErrUnknownSurface is returned by registries asked about an unregistered id.
var ErrUnknownSurface = errors.New("surface not registered")

// Registry enumerates the surfaces of a kind and pushes content to one of them.
type Registry interface {
	Name() string
	List(ctx context.Context, kind domain.Kind) ([]ID, error)
	Write(ctx context.Context, kind domain.Kind, id ID, content Content) error
}

// Registrar is implemented by registries whose membership is managed by callers.
type Registrar interface {
	Register(ctx context.Context, kind domain.Kind, id ID) error
	Unregister(ctx context.Context, kind domain.Kind, id ID) error
}

// Reader is implemented by registries that retain the last written content.
type Reader interface {
	Read(ctx context.Context, kind domain.Kind, id ID) (Content, error)
}

// Plain renders the content as text. Row-only content is flattened one
// game per line.
func (c Content) Plain() string {
	if c.Text != "" || len(c.Rows) == 0 {
		return c.Text
	}
	lines := make([]string, len(c.Rows))
	for i, r := range c.Rows {
		lines[i] = r.AwayTricode + " " + r.AwayScore + " - " + r.HomeScore + " " + r.HomeTricode + "  " + r.Status
	}
	return strings.Join(lines, "\n")
}
