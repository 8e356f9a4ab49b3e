package ws

import (
	"errors"
	"log"
	"net/http"
	"regexp"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"veenoe/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var sessionIDPattern = regexp.MustCompile(`^[a-fA-F0-9]{24}$`)

// Handler handles WebSocket watch connections
type Handler struct {
	hub      *Hub
	verifier service.IdentityVerifier
	vivaSvc  *service.VivaService
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. Upgrades follow the same
// origin list the REST CORS middleware enforces; requests without an
// Origin header (non-browser clients) are allowed through.
func NewHandler(hub *Hub, verifier service.IdentityVerifier, vivaSvc *service.VivaService, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &Handler{
		hub:      hub,
		verifier: verifier,
		vivaSvc:  vivaSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
	}
}

// WatchWS handles GET /api/v1/ws/sessions/{session_id}/watch. Only
// the session owner may watch; the token travels in a query param
// because browsers cannot set headers on WebSocket upgrades.
func (h *Handler) WatchWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]
	if !sessionIDPattern.MatchString(sessionID) {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	user, err := h.verifier.VerifyToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	session, err := h.vivaSvc.GetSessionDetails(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if session.UserID != user.UserID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		SessionID: sessionID,
		Send:      make(chan []byte, 64),
		Hub:       h.hub,
	}
	h.hub.register <- conn

	go conn.writePump(wsConn)
	go conn.readPump(wsConn)
}

// writePump forwards hub messages to the socket and keeps it alive
// with pings.
func (c *Connection) writePump(wsConn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := wsConn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the socket (watchers never send useful data) and
// unregisters on close.
func (c *Connection) readPump(wsConn *websocket.Conn) {
	defer func() {
		c.Hub.unregister <- c
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := wsConn.ReadMessage(); err != nil {
			return
		}
	}
}
