package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/icplatform/dashboard/internal/dashboard"
	"github.com/icplatform/dashboard/internal/ui"
)

const (
	liveWriteWait    = 10 * time.Second
	livePingInterval = 30 * time.Second
	livePongWait     = 2 * livePingInterval
	liveBuffer       = 32
)

// LiveMessage is pushed to a tab over /ui/live.
type LiveMessage struct {
	Type string `json:"type"`
	HTML string `json:"html,omitempty"`
}

// liveHub fans messages out to the websocket clients of each session.
type liveHub struct {
	mu      sync.RWMutex
	clients map[string]map[chan []byte]struct{}
	log     *logrus.Entry
}

func newLiveHub() *liveHub {
	return &liveHub{
		clients: make(map[string]map[chan []byte]struct{}),
		log:     logrus.WithField("component", "live"),
	}
}

func (h *liveHub) register(sessionID string) chan []byte {
	ch := make(chan []byte, liveBuffer)
	h.mu.Lock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = make(map[chan []byte]struct{})
	}
	h.clients[sessionID][ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *liveHub) unregister(sessionID string, ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[sessionID]
	if !ok {
		return
	}
	if _, ok := set[ch]; ok {
		delete(set, ch)
		close(ch)
	}
	if len(set) == 0 {
		delete(h.clients, sessionID)
	}
}

// drop closes every client of a session.
func (h *liveHub) drop(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients[sessionID] {
		close(ch)
	}
	delete(h.clients, sessionID)
}

// publish sends msg to the session's clients without blocking; a client
// whose buffer is full misses the message.
func (h *liveHub) publish(sessionID string, msg LiveMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients[sessionID] {
		select {
		case ch <- data:
		default:
			h.log.WithField("session", sessionID).Debug("client buffer full, dropping message")
		}
	}
}

func (h *liveHub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// logPublisher returns a LogBuffer hook streaming entries to sessionID.
func (h *liveHub) logPublisher(sessionID string) func(dashboard.LogEntry) {
	return func(e dashboard.LogEntry) {
		html, err := ui.RenderString(ui.LogLine(e))
		if err != nil {
			return
		}
		h.publish(sessionID, LiveMessage{Type: "log", HTML: html})
	}
}

func (s *Server) handleLive(c *gin.Context) {
	sess, ok := s.sessionFromRequest(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}

	// Register first so nothing published after the handshake is missed.
	ch := s.hub.register(sess.id)
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.hub.unregister(sess.id, ch)
		s.log.WithError(err).Debug("live upgrade failed")
		return
	}
	s.metrics.liveClients.Inc()
	defer s.metrics.liveClients.Dec()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(1024)
		conn.SetReadDeadline(time.Now().Add(livePongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(livePongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.log.WithError(err).Debug("live read")
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(livePingInterval)
	defer func() {
		ticker.Stop()
		s.hub.unregister(sess.id, ch)
		conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-ch:
			conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.log.WithError(err).Debug("live write")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
