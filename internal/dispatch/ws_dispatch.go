package dispatch

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/koulibalyamadou10/afrilyft-bolt/internal/models"
)

// WSSession represents a connected client (driver or customer) session.
type WSSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *WSSession) send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// WSRegistry holds live sessions keyed by user id.
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*WSSession
}

func NewWSRegistry() *WSRegistry { return &WSRegistry{sessions: make(map[string]*WSSession)} }

func (r *WSRegistry) Add(userID string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = &WSSession{conn: conn}
}

func (r *WSRegistry) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}

// Push delivers a stored notification over the user's live session.
func (r *WSRegistry) Push(userID string, n models.Notification) error {
	s, ok := r.session(userID)
	if !ok {
		return ErrNoSession
	}
	return s.send(n)
}

// Offer delivers a ride offer to a candidate driver's live session.
func (r *WSRegistry) Offer(driverID string, offer models.RideOffer) error {
	s, ok := r.session(driverID)
	if !ok {
		return ErrNoSession
	}
	return s.send(offer)
}

func (r *WSRegistry) session(userID string) (*WSSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[userID]
	return s, ok
}

var ErrNoSession = &NoSessionError{}

type NoSessionError struct{}

func (n *NoSessionError) Error() string { return "no ws session" }
