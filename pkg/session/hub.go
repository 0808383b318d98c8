package session

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nicktill/tinygraphite/pkg/config"
	"github.com/nicktill/tinygraphite/pkg/model"
)

// client is one websocket connection and the session it drives
type client struct {
	conn    *websocket.Conn
	session *Session
	send    chan []byte
	// closed is closed when the write loop exits
	closed chan struct{}
}

// Hub tracks live editing sessions and fans out server notices to them
type Hub struct {
	// Registered clients
	clients map[*client]bool

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	registry RegistrySource
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu sync.RWMutex
}

// NewHub creates a hub whose sessions parse against registry. Browser
// connections are accepted from the server's own host and from
// allowedOrigins.
func NewHub(registry RegistrySource, logger *zap.Logger, allowedOrigins []string) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client, config.WSChannelBuffer),
		unregister: make(chan *client, config.WSChannelBuffer),
		broadcast:  make(chan []byte, config.WSChannelBuffer),
		done:       make(chan struct{}),
		registry:   registry,
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  config.WSReadBufferSize,
		WriteBufferSize: config.WSWriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// No Origin header = non-browser client
			if origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host {
				return true
			}
			return slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			// Close all client connections on shutdown
			h.mu.Lock()
			for c := range h.clients {
				c.conn.Close()
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("editing session opened",
				zap.String("session", c.session.ID), zap.Int("sessions", count))
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("editing session closed",
				zap.String("session", c.session.ID), zap.Int("sessions", count))
		case message := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// slow reader; dropping the connection ends its read loop,
					// which unregisters it
					h.logger.Warn("session send buffer full, closing", zap.String("session", c.session.ID))
					c.conn.Close()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(data interface{}) error {
	message, err := json.Marshal(data)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
	return nil
}

// Count returns the number of open sessions
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the request and runs an editing session on it.
// The optional refId, target and textEditor query parameters open the
// session on that target.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		conn:    conn,
		session: New(h.registry, h.logger),
		send:    make(chan []byte, config.WSChannelBuffer),
		closed:  make(chan struct{}),
	}
	if q := r.URL.Query(); q.Has("target") || q.Has("refId") {
		target := model.Target{RefID: q.Get("refId"), Target: q.Get("target"), TextEditor: q.Get("textEditor") == "true"}
		if target.RefID == "" {
			target.RefID = "A"
		}
		c.session.open(target)
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writeLoop()

	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
	}()

	c.deliver(c.session.Hello())

	conn.SetReadLimit(config.WSMaxMessageBytes)
	conn.SetReadDeadline(time.Now().Add(config.WSReadDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(config.WSReadDeadline))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.String("session", c.session.ID), zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(config.WSReadDeadline))

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.deliver(Reply{Type: ReplyError, Session: c.session.ID, Error: "invalid command: " + err.Error()})
			continue
		}
		c.deliver(c.session.Apply(cmd))
	}
}

// deliver queues a reply for the write loop
func (c *client) deliver(reply Reply) {
	message, err := json.Marshal(reply)
	if err != nil {
		return
	}
	select {
	case c.send <- message:
	case <-c.closed:
	}
}

// writeLoop is the only writer on the connection
func (c *client) writeLoop() {
	ticker := time.NewTicker(config.WSPingInterval)
	defer func() {
		ticker.Stop()
		close(c.closed)
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(config.WSWriteDeadline))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(config.WSWriteDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
