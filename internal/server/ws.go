package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Oliverpt-1/Thymos/internal/auth"
	"github.com/Oliverpt-1/Thymos/internal/metrics"
	"github.com/Oliverpt-1/Thymos/internal/models"
)

const wsWriteTimeout = 10 * time.Second

// subscriber wraps a connection with a write lock. gorilla/websocket permits
// only one writer at a time, and generation requests for the same owner may
// broadcast concurrently.
type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) send(batch []models.Insight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteJSON(map[string]interface{}{"insights": batch})
}

// Hub pushes freshly generated insight batches to connected journal UIs.
// Subscriptions are per owner; a broadcast never crosses owners.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]map[*subscriber]bool
	closed bool
	logger *logrus.Logger
}

// NewHub creates an empty subscriber registry
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		conns:  make(map[string]map[*subscriber]bool),
		logger: logger,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is CORS-permissive; the bearer check is the access control
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleInsightStream upgrades the connection and registers the caller for
// insight pushes. Browsers cannot set headers on websocket requests, so the
// credential may arrive as a query parameter instead.
func (s *Server) handleInsightStream(w http.ResponseWriter, r *http.Request) {
	const route = "/api/v1/insights/stream"

	token := r.URL.Query().Get("token")
	if token == "" {
		token = auth.BearerToken(r.Header.Get("Authorization"))
	}

	owner, err := s.verifier.Verify(r.Context(), token)
	if err != nil {
		s.writeDomainError(w, route, models.ErrUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	sub := &subscriber{conn: conn}
	s.hub.add(owner, sub)

	// Reader loop exists only to detect disconnects; clients send nothing
	go func() {
		defer s.hub.remove(owner, sub)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) add(owner string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		sub.conn.Close()
		return
	}
	if h.conns[owner] == nil {
		h.conns[owner] = make(map[*subscriber]bool)
	}
	h.conns[owner][sub] = true
	metrics.StreamSubscribers.Inc()
}

func (h *Hub) remove(owner string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subscribers, ok := h.conns[owner]; ok && subscribers[sub] {
		delete(subscribers, sub)
		if len(subscribers) == 0 {
			delete(h.conns, owner)
		}
		metrics.StreamSubscribers.Dec()
	}
	sub.conn.Close()
}

// Broadcast pushes a batch to every subscriber of the owner. Writes to one
// connection are serialized through the subscriber's lock; write failures
// drop the subscriber, so generation never blocks on a slow client beyond
// the write timeout.
func (h *Hub) Broadcast(owner string, batch []models.Insight) {
	h.mu.RLock()
	subscribers := make([]*subscriber, 0, len(h.conns[owner]))
	for sub := range h.conns[owner] {
		subscribers = append(subscribers, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subscribers {
		if err := sub.send(batch); err != nil {
			h.logger.WithError(err).Debug("Dropping stream subscriber")
			h.remove(owner, sub)
		}
	}
}

// Close drops every subscriber; used during shutdown
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for owner, subscribers := range h.conns {
		for sub := range subscribers {
			sub.conn.Close()
			metrics.StreamSubscribers.Dec()
		}
		delete(h.conns, owner)
	}
}
