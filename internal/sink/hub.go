package sink

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/prolink/internal/discovery"
	"github.com/muurk/prolink/internal/logging"
)

const (
	// Time allowed to write a message to a client
	writeWait = 10 * time.Second

	// Queued events per client before it is considered too slow
	clientQueueSize = 16
)

// Hub publishes fresh devices to websocket clients.
//
// GET /ws upgrades to a websocket that receives every device seen so far, then
// each new sighting, as JSON text messages. GET /devices returns the same
// snapshot as a JSON array.
type Hub struct {
	upgrader websocket.Upgrader
	namer    Namer
	now      func() time.Time

	mu      sync.Mutex
	clients map[*client]struct{}
	devices map[discovery.Key]Event
	closed  bool
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub. namer may be nil.
func NewHub(namer Namer) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		namer:   namer,
		now:     time.Now,
		clients: make(map[*client]struct{}),
		devices: make(map[discovery.Key]Event),
	}
}

// Handler returns the HTTP handler serving /ws and /devices
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.serveWebSocket)
	mux.HandleFunc("/devices", h.serveDevices)
	return mux
}

// Handle implements Handler by broadcasting d to every client
func (h *Hub) Handle(d discovery.Device) error {
	event := NewEvent(d, h.now(), h.namer)
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.devices[d.Key()] = event
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Never let a slow client stall discovery
			logging.Warn("Dropping slow websocket client",
				zap.String("client_id", c.id),
				zap.String("remote_addr", c.conn.RemoteAddr().String()),
			)
			h.removeLocked(c)
		}
	}
	return nil
}

// Snapshot returns every device published so far, ordered by address then ID
func (h *Hub) Snapshot() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

func (h *Hub) snapshotLocked() []Event {
	keys := make([]discovery.Key, 0, len(h.devices))
	for k := range h.devices {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if c := keys[i].IP.Compare(keys[j].IP); c != 0 {
			return c < 0
		}
		return keys[i].ID < keys[j].ID
	})

	events := make([]Event, 0, len(keys))
	for _, k := range keys {
		events = append(events, h.devices[k])
	}
	return events
}

// ClientCount returns the number of connected websocket clients
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) serveDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.Snapshot()); err != nil {
		logging.Warn("Failed to write device snapshot", zap.Error(err))
	}
}

func (h *Hub) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error
		logging.Debug("Websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}

	// Queue the snapshot before registering so it precedes live events.
	// The queue holds the whole snapshot plus the usual headroom.
	snapshot := h.snapshotLocked()
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, len(snapshot)+clientQueueSize),
	}
	for _, e := range snapshot {
		data, err := json.Marshal(e)
		if err != nil {
			logging.Warn("Failed to encode snapshot event", zap.Error(err))
			continue
		}
		c.send <- data
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	logging.LogConnection(r.RemoteAddr, "websocket_connected")
	logging.Debug("Websocket client registered", zap.String("client_id", c.id))

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards client messages and unregisters the client when it goes away
func (h *Hub) readPump(c *client) {
	defer func() {
		h.mu.Lock()
		h.removeLocked(c)
		h.mu.Unlock()
		logging.LogConnection(c.conn.RemoteAddr().String(), "websocket_closed")
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump sends queued events until the client is removed
func (h *Hub) writePump(c *client) {
	defer c.conn.Close()

	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
