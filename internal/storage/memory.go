package storage

import (
	"context"
	"sync"
	"time"

	"github.com/koulibalyamadou10/afrilyft-bolt/internal/models"
)

// MemoryStore is an in-process store used for local runs and tests.
type MemoryStore struct {
	mu            sync.RWMutex
	rides         map[string]*models.Ride
	locations     []models.DriverLocation
	locationIdx   map[string]int
	rideRequests  []models.RideRequest
	requestKeys   map[string]struct{}
	notifications []models.Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rides:       make(map[string]*models.Ride),
		locationIdx: make(map[string]int),
		requestKeys: make(map[string]struct{}),
	}
}

func (m *MemoryStore) CreateRide(ctx context.Context, r *models.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	cp := *r
	m.rides[r.ID] = &cp
	return nil
}

func (m *MemoryStore) GetRide(ctx context.Context, id string) (*models.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) UpdateRideStatus(ctx context.Context, id string, from, to models.RideStatus, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return false, ErrNotFound
	}
	if r.Status != from {
		return false, nil
	}
	r.Status = to
	switch to {
	case models.StatusAccepted:
		r.AcceptedAt = &at
	case models.StatusInProgress:
		r.StartedAt = &at
	case models.StatusCompleted:
		r.CompletedAt = &at
	case models.StatusCancelled:
		r.CancelledAt = &at
	}
	return true, nil
}

func (m *MemoryStore) SetPaymentRef(ctx context.Context, id, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return ErrNotFound
	}
	r.PaymentRef = ref
	return nil
}

func (m *MemoryStore) UpsertLocation(ctx context.Context, loc models.DriverLocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if loc.LastUpdated.IsZero() {
		loc.LastUpdated = time.Now()
	}
	if i, ok := m.locationIdx[loc.DriverID]; ok {
		m.locations[i] = loc
		return nil
	}
	m.locationIdx[loc.DriverID] = len(m.locations)
	m.locations = append(m.locations, loc)
	return nil
}

func (m *MemoryStore) AvailableSince(ctx context.Context, cutoff time.Time) ([]models.DriverLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.DriverLocation, 0, len(m.locations))
	for _, loc := range m.locations {
		if loc.IsAvailable && !loc.LastUpdated.Before(cutoff) {
			out = append(out, loc)
		}
	}
	return out, nil
}

func (m *MemoryStore) CreateRideRequests(ctx context.Context, reqs []models.RideRequest) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	inserted := 0
	for _, rr := range reqs {
		key := rr.RideID + "|" + rr.DriverID
		if _, dup := m.requestKeys[key]; dup {
			continue
		}
		if rr.CreatedAt.IsZero() {
			rr.CreatedAt = now
		}
		m.requestKeys[key] = struct{}{}
		m.rideRequests = append(m.rideRequests, rr)
		inserted++
	}
	return inserted, nil
}

func (m *MemoryStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.ID == "" {
		n.ID = models.NewID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	m.notifications = append(m.notifications, *n)
	return nil
}

// RideRequests returns a snapshot of recorded ride requests (test helper).
func (m *MemoryStore) RideRequests() []models.RideRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.RideRequest, len(m.rideRequests))
	copy(out, m.rideRequests)
	return out
}

// Notifications returns a snapshot of recorded notifications (test helper).
func (m *MemoryStore) Notifications() []models.Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}
