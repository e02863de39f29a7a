package service

import (
	"github.com/mlammarsch/finwise/planning-backend/internal/websocket"
)

// WebSocketBalanceNotifier delivers the recalculation signal to the
// balance collaborator over the workspace's WebSocket feed.
type WebSocketBalanceNotifier struct {
	events websocket.EventPublisher
}

// NewWebSocketBalanceNotifier creates a new WebSocketBalanceNotifier
func NewWebSocketBalanceNotifier(events websocket.EventPublisher) *WebSocketBalanceNotifier {
	return &WebSocketBalanceNotifier{events: events}
}

// RequestRecalculation implements BalanceNotifier
func (n *WebSocketBalanceNotifier) RequestRecalculation(workspaceID int32, reason string) error {
	n.events.Publish(workspaceID, websocket.BalanceRecalculate(reason))
	return nil
}
