package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Watcher message types
const (
	MsgTurnRecorded     = "turn_recorded"
	MsgSessionConcluded = "session_concluded"
	MsgSessionRenamed   = "session_renamed"
	MsgError            = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Hub manages WebSocket watcher connections per session. A watcher is
// the session owner observing the exam live while the student talks
// to the model: the reconciler pushes every applied tool call here.
type Hub struct {
	// Session id -> open watcher connections
	watchers map[string]map[*Connection]bool

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *broadcastMessage
}

// Connection represents one watcher connection
type Connection struct {
	SessionID string
	Send      chan []byte
	Hub       *Hub
}

type broadcastMessage struct {
	sessionID  string
	data       []byte
	disconnect bool
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		watchers:   make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *broadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.watchers[conn.SessionID] == nil {
				h.watchers[conn.SessionID] = make(map[*Connection]bool)
			}
			h.watchers[conn.SessionID][conn] = true
			h.mu.Unlock()
			log.Printf("Watcher connected to session %s", conn.SessionID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.watchers[conn.SessionID]; ok {
				if conns[conn] {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.watchers, conn.SessionID)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			conns := h.watchers[msg.sessionID]
			for conn := range conns {
				if msg.disconnect {
					delete(conns, conn)
					close(conn.Send)
					continue
				}
				select {
				case conn.Send <- msg.data:
				default:
					// Slow consumer, drop it.
					delete(conns, conn)
					close(conn.Send)
				}
			}
			if msg.disconnect || len(conns) == 0 {
				delete(h.watchers, msg.sessionID)
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToSession sends a message to all watchers of a session.
// Implements service.Broadcaster.
func (h *Hub) BroadcastToSession(sessionID string, msgType string, payload interface{}) {
	data, err := json.Marshal(&Message{Type: msgType, Payload: payload})
	if err != nil {
		log.Printf("Failed to marshal ws message %s: %v", msgType, err)
		return
	}
	h.broadcast <- &broadcastMessage{sessionID: sessionID, data: data}
}

// DisconnectSession closes all watcher connections for a session
// (used when the session is deleted). Implements service.Broadcaster.
func (h *Hub) DisconnectSession(sessionID string) {
	h.broadcast <- &broadcastMessage{sessionID: sessionID, disconnect: true}
}

// WatcherCount returns how many connections watch a session.
func (h *Hub) WatcherCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[sessionID])
}
