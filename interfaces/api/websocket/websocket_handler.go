package websocket

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	websocketManager "safesight/infrastructure/websocket"
	"safesight/pkg/logger"
	"safesight/pkg/utils"
)

type WebSocketHandler struct {
	manager *websocketManager.Manager
}

func NewWebSocketHandler(manager *websocketManager.Manager) *WebSocketHandler {
	return &WebSocketHandler{manager: manager}
}

func (h *WebSocketHandler) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// HandleWebSocket keeps the connection registered for the live detection
// feed. Clients are read-only; incoming frames are drained so pings and
// close frames are handled.
func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	var userID uuid.UUID

	if userContext := c.Locals("user"); userContext != nil {
		if user, ok := userContext.(*utils.UserContext); ok {
			userID = user.ID
		}
	}

	if userID == uuid.Nil {
		userID = uuid.New()
		logger.WebSocket("anonymous_connected", "Anonymous dashboard connected", map[string]interface{}{"user_id": userID.String()})
	} else {
		logger.WebSocket("authenticated_connected", "Authenticated dashboard connected", map[string]interface{}{"user_id": userID.String()})
	}

	h.manager.RegisterClient(c, userID)

	defer func() {
		h.manager.UnregisterClient(c)
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
