package surface

import (
	"context"
	"sort"
	"sync"

	"github.com/preston-bernstein/nba-stables-widgets/internal/domain"
)

// Memory keeps surfaces and their content in process.
type Memory struct {
	mu       sync.RWMutex
	surfaces map[domain.Kind]map[ID]Content
	writes   int
}

// NewMemory constructs an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{surfaces: make(map[domain.Kind]map[ID]Content)}
}

func (m *Memory) Name() string { return "memory" }

// List returns the registered ids of kind in sorted order.
func (m *Memory) List(ctx context.Context, kind domain.Kind) ([]ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]ID, 0, len(m.surfaces[kind]))
	for id := range m.surfaces[kind] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Write replaces the content of a registered surface.
func (m *Memory) Write(ctx context.Context, kind domain.Kind, id ID, content Content) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.surfaces[kind]
	if !ok {
		return ErrUnknownSurface
	}
	if _, ok := bucket[id]; !ok {
		return ErrUnknownSurface
	}
	bucket[id] = cloneContent(content)
	m.writes++
	return nil
}

// Register adds id to kind. Registering twice keeps the current content.
func (m *Memory) Register(ctx context.Context, kind domain.Kind, id ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.surfaces[kind]
	if !ok {
		bucket = make(map[ID]Content)
		m.surfaces[kind] = bucket
	}
	if _, exists := bucket[id]; !exists {
		bucket[id] = Content{}
	}
	return nil
}

// Unregister removes id from kind. Unknown ids are ignored.
func (m *Memory) Unregister(ctx context.Context, kind domain.Kind, id ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.surfaces[kind], id)
	return nil
}

// Read returns the last content written to a surface.
func (m *Memory) Read(ctx context.Context, kind domain.Kind, id ID) (Content, error) {
	if err := ctx.Err(); err != nil {
		return Content{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	content, ok := m.surfaces[kind][id]
	if !ok {
		return Content{}, ErrUnknownSurface
	}
	return cloneContent(content), nil
}

// Writes returns how many successful writes the registry has accepted.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

func cloneContent(c Content) Content {
	if c.Rows != nil {
		c.Rows = append(c.Rows[:0:0], c.Rows...)
	}
	return c
}
