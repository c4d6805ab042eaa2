package play

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// Message is the envelope pushed to scoreboard clients.
type Message struct {
	Type    string    `json:"type"`
	Payload *Snapshot `json:"payload,omitempty"`
}

// Message types.
const (
	MessageSnapshot = "snapshot"
	MessageEnded    = "ended"
)

type client struct {
	conn    *websocket.Conn
	send    chan Message
	version uint64 // last snapshot version queued; guarded by Hub.mu
}

// Hub fans session snapshots out to the websocket clients watching each session.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[*client]struct{}
	upgrader websocket.Upgrader
}

// NewHub creates a Hub. allowedOrigins of ["*"] accepts any origin.
func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		sessions: make(map[uuid.UUID]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// Serve upgrades the request and streams the session to the client. The
// client is registered before current is read, so a session that ends in
// between still reaches the client as an "ended" message. It returns once
// the connection is set up.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID, current func() (Snapshot, error)) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn, send: make(chan Message, sendBuffer)}
	h.register(sessionID, c)

	go h.writePump(c)

	snap, err := current()
	if err != nil {
		h.mu.Lock()
		h.endLocked(sessionID, c)
		h.mu.Unlock()
		return nil
	}

	h.mu.Lock()
	h.deliverLocked(snap, c)
	h.mu.Unlock()

	go h.readPump(sessionID, c)
	return nil
}

// Publish sends snap to every client watching its session. Snapshots older
// than one a client already has are skipped. Slow clients are dropped.
func (h *Hub) Publish(snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.sessions[snap.SessionID] {
		h.deliverLocked(snap, c)
	}
}

// Closed tells every client the session is over and disconnects them.
func (h *Hub) Closed(sessionID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.sessions[sessionID] {
		h.endLocked(sessionID, c)
	}
}

// deliverLocked queues snap for c unless c already has a newer one. h.mu must be held.
func (h *Hub) deliverLocked(snap Snapshot, c *client) {
	if _, ok := h.sessions[snap.SessionID][c]; !ok || snap.Version <= c.version {
		return
	}
	select {
	case c.send <- Message{Type: MessageSnapshot, Payload: &snap}:
		c.version = snap.Version
	default:
		slog.Warn("scoreboard client too slow, disconnecting", "sessionId", snap.SessionID)
		h.dropLocked(snap.SessionID, c)
	}
}

// endLocked sends the "ended" message and disconnects c. h.mu must be held.
func (h *Hub) endLocked(sessionID uuid.UUID, c *client) {
	if _, ok := h.sessions[sessionID][c]; !ok {
		return
	}
	select {
	case c.send <- Message{Type: MessageEnded}:
	default:
	}
	h.dropLocked(sessionID, c)
}

// Clients returns the number of clients watching a session.
func (h *Hub) Clients(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

func (h *Hub) register(sessionID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[sessionID]
	if !ok {
		set = make(map[*client]struct{})
		h.sessions[sessionID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(sessionID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(sessionID, c)
}

// dropLocked removes c and closes its send channel exactly once. h.mu must be held.
func (h *Hub) dropLocked(sessionID uuid.UUID, c *client) {
	set, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.sessions, sessionID)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages; it exists to notice disconnects and answer pings.
func (h *Hub) readPump(sessionID uuid.UUID, c *client) {
	defer h.unregister(sessionID, c)

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("scoreboard client read error", "sessionId", sessionID, "error", err)
			}
			return
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == origin {
				return true
			}
		}
		return false
	}
}
