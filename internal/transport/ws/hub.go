package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"evalconsole/internal/logger"
	"evalconsole/internal/metrics"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	SentAt  time.Time       `json:"sent_at"`
}

// Connection is one research console subscriber
type Connection struct {
	ID      string
	AdminID string // empty when auth is disabled
	Send    chan []byte
}

// NewConnection creates a subscriber with a buffered outbox
func NewConnection(adminID string) *Connection {
	return &Connection{
		ID:      uuid.NewString(),
		AdminID: adminID,
		Send:    make(chan []byte, 256),
	}
}

// Hub fans console events out to every connected subscriber. It implements
// service.Broadcaster.
type Hub struct {
	conns map[string]*Connection
	mu    sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan []byte
	done       chan struct{}
	stopOnce   sync.Once

	log *logger.Logger
	now func() time.Time
}

// NewHub creates a hub and starts its dispatch loop
func NewHub(log *logger.Logger) *Hub {
	h := &Hub{
		conns:      make(map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		log:        log.With("component", "ws.Hub"),
		now:        time.Now,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.conns[conn.ID] = conn
			h.mu.Unlock()
			metrics.WSClients.Inc()
			h.log.Debug("console client connected", "conn_id", conn.ID, "admin_id", conn.AdminID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if existing, ok := h.conns[conn.ID]; ok && existing == conn {
				delete(h.conns, conn.ID)
				close(conn.Send)
				metrics.WSClients.Dec()
				h.log.Debug("console client disconnected", "conn_id", conn.ID)
			}
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.RLock()
			for _, conn := range h.conns {
				select {
				case conn.Send <- data:
				default:
					// slow consumer, drop
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for id, conn := range h.conns {
				delete(h.conns, id)
				close(conn.Send)
				metrics.WSClients.Dec()
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Broadcast queues an event for every subscriber. It never blocks the
// caller; events are dropped when the queue is full.
func (h *Hub) Broadcast(msgType string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.log.Warn("failed to encode console event", "type", msgType, "error", err)
		return
	}
	data, err := json.Marshal(&Message{Type: msgType, Payload: raw, SentAt: h.now().UTC()})
	if err != nil {
		h.log.Warn("failed to encode console event", "type", msgType, "error", err)
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		h.log.Warn("console event queue full, dropping event", "type", msgType)
	}
}

// ClientCount returns the number of registered subscribers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close disconnects every subscriber and stops the dispatch loop
func (h *Hub) Close() {
	h.stopOnce.Do(func() { close(h.done) })
}
