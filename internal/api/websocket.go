package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nerrad567/seeed-ha-core/internal/infrastructure/config"
	"github.com/nerrad567/seeed-ha-core/internal/infrastructure/logging"
)

const (
	// wsSendBufferSize is the per-client outbound message buffer size.
	wsSendBufferSize = 256

	// sleepWriteTimeout bounds the synchronous sleep notice write.
	sleepWriteTimeout = 2 * time.Second
)

// Hub tracks the open sync connections and fans messages out to them.
type Hub struct {
	cfg     config.WebSocketConfig
	logger  *logging.Logger
	clients map[*WSClient]struct{}
	mu      sync.RWMutex
}

// WSClient is one open sync connection.
type WSClient struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// writeMu serialises writes between writePump and WriteNow.
	writeMu sync.Mutex
}

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// The Home Assistant integration connects from a server, not a browser.
		return true
	},
}

// NewHub creates a new WebSocket hub.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run blocks until the context is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// newClient wraps conn. The client is not registered yet.
func (h *Hub) newClient(conn *websocket.Conn) *WSClient {
	return &WSClient{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, wsSendBufferSize),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("websocket client connected", "client_id", client.id, "clients", n)
}

// Unregister removes a client from the hub.
// Only the goroutine that removes the client from the map closes the send
// channel.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	n := len(h.clients)
	h.mu.Unlock()

	if existed {
		close(client.send)
		h.logger.Info("websocket client disconnected", "client_id", client.id, "clients", n)
	}
}

// Broadcast queues data for every open client and returns how many were
// addressed.
func (h *Hub) Broadcast(data []byte) int {
	clients := h.snapshot()
	for _, client := range clients {
		client.trySend(data)
	}
	return len(clients)
}

// WriteNow writes data to every open client synchronously, bypassing the
// send queues.
func (h *Hub) WriteNow(data []byte) int {
	sent := 0
	for _, client := range h.snapshot() {
		if err := client.writeNow(data); err != nil {
			h.logger.Debug("websocket direct write failed", "client_id", client.id, "error", err)
			continue
		}
		sent++
	}
	return sent
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) snapshot() []*WSClient {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*WSClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

// closeAll disconnects all clients and closes their send channels
// so writePump goroutines can exit cleanly.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		if client.conn != nil {
			client.conn.Close()
		}
		delete(h.clients, client)
	}
}

// readPump reads messages until the connection fails and hands each one to
// handle.
func (c *WSClient) readPump(handle func(*WSClient, []byte)) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	cfg := c.hub.cfg
	if cfg.MaxMessageSize > 0 {
		c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	}
	deadline := readDeadline(cfg)
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(deadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "client_id", c.id, "error", err)
			} else {
				c.hub.logger.Debug("websocket closed", "client_id", c.id, "error", err)
			}
			return
		}
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(deadline))
		handle(c, message)
	}
}

// writePump drains the send queue and keeps the transport alive with
// control pings.
func (c *WSClient) writePump() {
	ticker := time.NewTicker(heartbeatInterval(c.hub.cfg))
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.writeMu.Lock()
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				c.writeMu.Unlock()
				return
			}
			if err := c.write(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	//nolint:errcheck // Best-effort deadline; write error caught by caller
	c.conn.SetWriteDeadline(time.Now().Add(readDeadline(c.hub.cfg)))
	return c.conn.WriteMessage(messageType, data)
}

func (c *WSClient) writeNow(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	//nolint:errcheck // Best-effort deadline; write error returned below
	c.conn.SetWriteDeadline(time.Now().Add(sleepWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// trySend queues data without blocking. Closed channels and full buffers
// drop the message.
func (c *WSClient) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // Absorb send-on-closed-channel panic
	}()

	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn("websocket send buffer full, dropping message", "client_id", c.id)
	}
}

func heartbeatInterval(cfg config.WebSocketConfig) time.Duration {
	if cfg.HeartbeatInterval <= 0 {
		return 30 * time.Second //nolint:mnd // protocol heartbeat
	}
	return time.Duration(cfg.HeartbeatInterval) * time.Second
}

func readDeadline(cfg config.WebSocketConfig) time.Duration {
	pong := time.Duration(cfg.PongTimeout) * time.Second
	if pong <= 0 {
		pong = 60 * time.Second //nolint:mnd // generous default for half-open detection
	}
	return heartbeatInterval(cfg) + pong
}
