// internal/websocket/hub.go
package websocket

import (
	"encoding/json"
	"sync"

	"gymflow-service/internal/service/settlement"

	"go.uber.org/zap"
)

// Hub fans settlement notices out to connected gym dashboards. Clients are
// grouped by gym; admins may watch any gym, owners only their own.
type Hub struct {
	clients map[int64]map[*Client]bool
	mu      sync.RWMutex

	logger *zap.Logger
}

type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]bool),
		logger:  logger,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.gymID] == nil {
		h.clients[c.gymID] = make(map[*Client]bool)
	}
	h.clients[c.gymID][c] = true
	h.logger.Debug("websocket client registered", zap.Int64("gym_id", c.gymID))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[c.gymID]; ok {
		if clients[c] {
			delete(clients, c)
			close(c.send)
			if len(clients) == 0 {
				delete(h.clients, c.gymID)
			}
		}
	}
}

// PublishSettlement implements settlement.Notifier: every dashboard watching
// the gym gets the notice. Slow clients are dropped rather than blocked on.
func (h *Hub) PublishSettlement(gymID int64, notice settlement.Notice) {
	data, err := json.Marshal(Envelope{Type: "settlement.recorded", Data: notice})
	if err != nil {
		h.logger.Error("failed to encode settlement notice", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[gymID] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping slow websocket client", zap.Int64("gym_id", gymID))
			go c.conn.Close()
		}
	}
}
