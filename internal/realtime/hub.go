package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

type Client struct {
	ID     string
	UserID string
	Send   chan []byte
}

// Hub fans notification events out to connected browsers. Slow receivers are
// skipped, never blocked on; delivery is best-effort by design of the whole
// notification surface.
type Hub struct {
	clients    map[string]*Client
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.log.Warn("broadcast payload marshal failed", zap.Error(err))
		return
	}
	h.broadcast <- b
}

// SendToUser delivers to every connection the user currently holds.
func (h *Hub) SendToUser(userID string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.log.Warn("message marshal failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.UserID == userID {
			select {
			case client.Send <- payload:
			default:
				// full buffer: drop rather than block
			}
		}
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.log.Debug("client registered", zap.String("client", client.ID), zap.String("user", client.UserID))

		case client := <-h.unregister:
			h.mu.Lock()
			if old, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(old.Send)
				h.log.Debug("client unregistered", zap.String("client", client.ID))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for id, client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, id)
				}
			}
			h.mu.Unlock()
		}
	}
}
