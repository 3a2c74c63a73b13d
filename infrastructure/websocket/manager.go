package websocket

import (
	"context"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"safesight/pkg/logger"
)

// DetectionChannel is the Redis pub/sub channel carrying live detection
// outcomes from the ledger to connected dashboards.
const DetectionChannel = "safesight:detections"

type feedSource interface {
	Subscribe(ctx context.Context, channel string) <-chan []byte
}

// Manager fans the live detection feed out to connected dashboard clients.
type Manager struct {
	feed feedSource

	mu      sync.RWMutex
	clients map[*websocket.Conn]uuid.UUID
}

func NewManager(feed feedSource) *Manager {
	return &Manager{
		feed:    feed,
		clients: make(map[*websocket.Conn]uuid.UUID),
	}
}

// Run consumes the Redis feed until the context is cancelled. Safe to call
// when Redis is unavailable; the feed channel just closes.
func (m *Manager) Run(ctx context.Context) {
	if m.feed == nil {
		return
	}

	messages := m.feed.Subscribe(ctx, DetectionChannel)
	for msg := range messages {
		m.broadcast(msg)
	}
	logger.WebSocket("feed_closed", "Detection feed subscription closed", nil)
}

func (m *Manager) RegisterClient(conn *websocket.Conn, userID uuid.UUID) {
	m.mu.Lock()
	m.clients[conn] = userID
	count := len(m.clients)
	m.mu.Unlock()

	logger.WebSocket("client_registered", "Client connected", map[string]interface{}{
		"user_id": userID.String(),
		"clients": count,
	})
}

func (m *Manager) UnregisterClient(conn *websocket.Conn) {
	m.mu.Lock()
	delete(m.clients, conn)
	count := len(m.clients)
	m.mu.Unlock()

	logger.WebSocket("client_unregistered", "Client disconnected", map[string]interface{}{
		"clients": count,
	})
}

func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (m *Manager) broadcast(payload []byte) {
	m.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(m.clients))
	for conn := range m.clients {
		conns = append(conns, conn)
	}
	m.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.WebSocketError("broadcast_failed", "Dropping client after write error", err, nil)
			m.UnregisterClient(conn)
			conn.Close()
		}
	}
}
