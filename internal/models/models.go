package models

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"
)

// NewID returns a random 16-character hex identifier.
func NewID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RideStatus is the closed set of ride lifecycle states.
type RideStatus string

const (
	StatusPending    RideStatus = "pending"
	StatusSearching  RideStatus = "searching"
	StatusAccepted   RideStatus = "accepted"
	StatusInProgress RideStatus = "in_progress"
	StatusCompleted  RideStatus = "completed"
	StatusCancelled  RideStatus = "cancelled"
)

// ValidRideStatus reports whether s is one of the known lifecycle states.
func ValidRideStatus(s RideStatus) bool {
	switch s {
	case StatusPending, StatusSearching, StatusAccepted, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Ride struct {
	ID         string     `json:"id"`
	CustomerID string     `json:"customer_id"`
	DriverID   string     `json:"driver_id"` // empty until a driver is assigned
	Status     RideStatus `json:"status"`
	PaymentRef string     `json:"payment_ref,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// DriverLocation is the last reported position of a driver, plus the
// profile fields the matching response echoes back to clients.
type DriverLocation struct {
	DriverID    string    `json:"driver_id"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	IsAvailable bool      `json:"is_available"`
	LastUpdated time.Time `json:"last_updated"`
	FullName    string    `json:"full_name,omitempty"`
	Phone       string    `json:"phone,omitempty"`
}

// RideRequest fans a ride out to one candidate driver.
type RideRequest struct {
	RideID    string    `json:"ride_id"`
	DriverID  string    `json:"driver_id"`
	Status    string    `json:"status"` // "sent" on creation
	CreatedAt time.Time `json:"created_at"`
}

const RideRequestSent = "sent"

type NotificationType string

const (
	NotificationRideRequest NotificationType = "ride_request"
	NotificationRideUpdate  NotificationType = "ride_update"
	NotificationPayment     NotificationType = "payment"
	NotificationGeneral     NotificationType = "general"
)

func ValidNotificationType(t NotificationType) bool {
	switch t {
	case NotificationRideRequest, NotificationRideUpdate, NotificationPayment, NotificationGeneral:
		return true
	}
	return false
}

// Notification is written once per triggering event and never mutated.
// Data is an opaque payload whose shape varies by type.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Data      json.RawMessage  `json:"data,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// RideOffer is the payload pushed to a candidate driver during matching.
type RideOffer struct {
	RideID     string  `json:"ride_id"`
	DistanceKm float64 `json:"distance_km"`
	ETASeconds float64 `json:"eta_seconds"`
}
