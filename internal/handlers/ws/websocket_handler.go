// internal/handlers/ws/websocket_handler.go
package ws

import (
	"net/http"
	"strconv"

	"gymflow-service/internal/middleware"
	"gymflow-service/internal/pkg/response"
	ws "gymflow-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub    *ws.Hub
	logger *zap.Logger
}

func NewWebSocketHandler(hub *ws.Hub, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// HandleConnection upgrades a dashboard connection and scopes it to a gym's
// settlement feed. Admins may pass ?gym_id= to watch any gym.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	gymID, ok := middleware.GetGymID(c)
	if middleware.IsAdmin(c) {
		if v, err := strconv.ParseInt(c.Query("gym_id"), 10, 64); err == nil && v > 0 {
			gymID, ok = v, true
		}
	}
	if !ok {
		response.Forbidden(c, "gym access required")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ws.NewClient(h.hub, conn, gymID).Start()
}
