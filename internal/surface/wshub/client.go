package wshub

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/preston-bernstein/nba-stables-widgets/internal/domain"
	"github.com/preston-bernstein/nba-stables-widgets/internal/logging"
	"github.com/preston-bernstein/nba-stables-widgets/internal/surface"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 16
)

var errSlowClient = errors.New("client send buffer full")

// Message is the frame pushed to browser widgets.
type Message struct {
	Widget  string          `json:"widget"`
	Content surface.Content `json:"content"`
	SentAt  time.Time       `json:"sentAt"`
}

type client struct {
	id     surface.ID
	kind   domain.Kind
	conn   *websocket.Conn
	send   chan Message
	hub    *Hub
	logger *slog.Logger
}

func newClient(id surface.ID, kind domain.Kind, conn *websocket.Conn, hub *Hub) *client {
	return &client{
		id:     id,
		kind:   kind,
		conn:   conn,
		send:   make(chan Message, sendBufferSize),
		hub:    hub,
		logger: hub.logger,
	}
}

// readPump drains inbound frames so control messages are processed and
// unregisters the client once the peer goes away.
func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn(c.logger, "websocket closed unexpectedly",
					logging.FieldSurfaceID, string(c.id),
					"error", err,
				)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				logging.Warn(c.logger, "websocket write failed",
					logging.FieldSurfaceID, string(c.id),
					"error", err,
				)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) trySend(msg Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}
