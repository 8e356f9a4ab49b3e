package service

// Broadcaster pushes live session events to WebSocket watchers
// (interface lives here to avoid an import cycle with transport/ws).
type Broadcaster interface {
	BroadcastToSession(sessionID string, msgType string, payload interface{})
	DisconnectSession(sessionID string)
}
