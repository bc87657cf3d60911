package wshub

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/preston-bernstein/nba-stables-widgets/internal/domain"
	"github.com/preston-bernstein/nba-stables-widgets/internal/logging"
	"github.com/preston-bernstein/nba-stables-widgets/internal/surface"
)

// Hub treats every open websocket as a surface of the kind it subscribed to.
// The last content per kind is replayed to new connections.
type Hub struct {
	mu       sync.RWMutex
	clients  map[domain.Kind]map[surface.ID]*client
	last     map[domain.Kind]surface.Content
	upgrader websocket.Upgrader
	logger   *slog.Logger
	now      func() time.Time
}

// New builds a Hub. checkOrigin may be nil to accept any origin.
func New(logger *slog.Logger, checkOrigin func(*http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		clients: make(map[domain.Kind]map[surface.ID]*client),
		last:    make(map[domain.Kind]surface.Content),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
		now:    time.Now,
	}
}

func (h *Hub) Name() string { return "websocket" }

// List returns the ids of open connections subscribed to kind.
func (h *Hub) List(_ context.Context, kind domain.Kind) ([]surface.ID, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]surface.ID, 0, len(h.clients[kind]))
	for id := range h.clients[kind] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Write queues content for one connection. Slow clients are dropped.
func (h *Hub) Write(_ context.Context, kind domain.Kind, id surface.ID, content surface.Content) error {
	h.mu.Lock()
	h.last[kind] = content
	c, ok := h.clients[kind][id]
	sent := ok && c.trySend(h.message(kind, content))
	h.mu.Unlock()

	if !ok {
		return surface.ErrUnknownSurface
	}
	if !sent {
		h.remove(c)
		return errSlowClient
	}
	return nil
}

// Connections reports the number of open connections for kind.
func (h *Hub) Connections(kind domain.Kind) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[kind])
}

// ServeWS upgrades the request and subscribes the connection to kind.
func (h *Hub) ServeWS(kind domain.Kind, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn(h.logger, "websocket upgrade failed", logging.FieldWidget, string(kind), "error", err)
		return
	}

	c := newClient(surface.ID(uuid.NewString()), kind, conn, h)
	h.add(c)

	go c.writePump()
	go c.readPump()
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	bucket, ok := h.clients[c.kind]
	if !ok {
		bucket = make(map[surface.ID]*client)
		h.clients[c.kind] = bucket
	}
	bucket[c.id] = c
	if last, ok := h.last[c.kind]; ok {
		c.trySend(h.message(c.kind, last))
	}
	total := len(bucket)
	h.mu.Unlock()

	logging.Info(h.logger, "websocket surface connected",
		logging.FieldWidget, string(c.kind),
		logging.FieldSurfaceID, string(c.id),
		logging.FieldCount, total,
	)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.clients[c.kind][c.id]; ok && existing == c {
		delete(h.clients[c.kind], c.id)
		close(c.send)
	}
}

func (h *Hub) message(kind domain.Kind, content surface.Content) Message {
	return Message{Widget: string(kind), Content: content, SentAt: h.now().UTC()}
}
