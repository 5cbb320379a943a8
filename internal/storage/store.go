package storage

import (
	"context"
	"errors"
	"time"

	"github.com/koulibalyamadou10/afrilyft-bolt/internal/models"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// RideStore defines persistence operations for rides.
type RideStore interface {
	CreateRide(ctx context.Context, r *models.Ride) error
	GetRide(ctx context.Context, id string) (*models.Ride, error)
	// UpdateRideStatus applies the transition only if the ride is still in
	// the from status; it reports false when another writer got there first.
	UpdateRideStatus(ctx context.Context, id string, from, to models.RideStatus, at time.Time) (bool, error)
	SetPaymentRef(ctx context.Context, id, ref string) error
}

// DriverLocationStore holds the last known position of every driver.
type DriverLocationStore interface {
	UpsertLocation(ctx context.Context, loc models.DriverLocation) error
	// AvailableSince returns drivers flagged available whose location was
	// updated at or after cutoff, in store order.
	AvailableSince(ctx context.Context, cutoff time.Time) ([]models.DriverLocation, error)
}

// RideRequestStore records fan-out of a ride to candidate drivers. A
// (ride_id, driver_id) pair already on record is skipped, so re-running a
// match for a ride that is still searching is safe; the returned count is
// the number of requests actually recorded.
type RideRequestStore interface {
	CreateRideRequests(ctx context.Context, reqs []models.RideRequest) (int, error)
}

// NotificationStore persists notifications; records are append-only.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}
