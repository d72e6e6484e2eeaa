package dashboard

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/greenquant-lab/greenquant/internal/logger"
)

// Hub tracks connected websocket clients and pushes refreshed
// snapshots to all of them.
type Hub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]*client
	logger *logger.Logger
}

// client pairs a connection with its write lock. gorilla/websocket
// allows only one concurrent writer per connection, and overlapping
// refreshes may broadcast at the same time.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		conns:  make(map[*websocket.Conn]*client),
		logger: log,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The dashboard serves a local operator UI; cross-origin pages
		// are allowed to subscribe.
		return true
	},
}

// Upgrade turns an http request into a tracked websocket connection.
// The read loop only drains control frames; pushes are one-way.
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.conns[conn] = &client{conn: conn}
	h.mu.Unlock()

	go func() {
		defer h.remove(conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()

	conn.Close()
}

// Broadcast sends one json payload to every connected client. Clients
// that fail to receive are dropped.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.conns))

	for _, c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.write(payload); err != nil {
			h.logger.Debug("dropping websocket client", zap.Error(err))
			h.remove(c.conn)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.conns)
}
