package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	websocketManager "safesight/infrastructure/websocket"
	"safesight/interfaces/api/middleware"
	websocketHandler "safesight/interfaces/api/websocket"
)

func SetupWebSocketRoutes(app *fiber.App, manager *websocketManager.Manager) {
	wsHandler := websocketHandler.NewWebSocketHandler(manager)

	// WebSocket with optional authentication (supports query token for WS connections)
	app.Use("/ws/detections", middleware.OptionalWithQueryToken(), wsHandler.WebSocketUpgrade)
	app.Get("/ws/detections", websocket.New(wsHandler.HandleWebSocket))
}
