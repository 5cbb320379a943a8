package rides

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/koulibalyamadou10/afrilyft-bolt/internal/models"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/observability"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/storage"
)

// Notifier records a notification and pushes it best-effort.
type Notifier interface {
	Create(ctx context.Context, n models.Notification) (*models.Notification, error)
}

// PaymentGateway mirrors the hold/capture/cancel flow of the payments client.
type PaymentGateway interface {
	Hold(ctx context.Context, amount int64, currency, customerID string) (string, error)
	Capture(ctx context.Context, paymentRef string) error
	Cancel(ctx context.Context, paymentRef string) error
}

// Service validates and applies ride lifecycle transitions.
type Service struct {
	Store    storage.RideStore
	Notifier Notifier
	Payments PaymentGateway // optional
	Logger   *slog.Logger

	// Fare held on acceptance when a payment gateway is configured.
	BaseFareAmount int64
	Currency       string
}

type UpdateStatusCommand struct {
	RideID string
	Target models.RideStatus
	UserID string
}

type StatusUpdate struct {
	RideID string
	Status models.RideStatus
}

// UpdateStatus runs the full transition pipeline: load, membership check,
// transition-table check, role gating, conditional persist, then side
// effects (payment hook and notification) that never fail the operation.
func (s *Service) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (*StatusUpdate, error) {
	if cmd.RideID == "" || cmd.UserID == "" || cmd.Target == "" {
		return nil, fmt.Errorf("%w: rideId, status, userId", ErrValidation)
	}
	if !models.ValidRideStatus(cmd.Target) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, cmd.Target)
	}

	ride, err := s.Store.GetRide(ctx, cmd.RideID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, cmd.RideID)
	}
	if err != nil {
		return nil, fmt.Errorf("load ride: %w", err)
	}

	isCustomer := cmd.UserID == ride.CustomerID
	isDriver := ride.DriverID != "" && cmd.UserID == ride.DriverID
	if !isCustomer && !isDriver {
		return nil, fmt.Errorf("%w: you are not associated with this ride", ErrUnauthorized)
	}

	// The table is consulted before role gating: a structurally invalid
	// transition is reported as such even when the actor also lacks
	// permission for it.
	if !CanTransition(ride.Status, cmd.Target) {
		return nil, fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, ride.Status, cmd.Target)
	}
	if msg, restricted := driverOnly[cmd.Target]; restricted && !isDriver {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	}

	ok, err := s.Store.UpdateRideStatus(ctx, ride.ID, ride.Status, cmd.Target, time.Now())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, cmd.RideID)
	}
	if err != nil {
		return nil, fmt.Errorf("update ride: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConflict, ride.ID)
	}
	observability.RideTransitionsTotal.WithLabelValues(string(cmd.Target)).Inc()

	// The transition is committed: everything below is fire-and-forget.
	s.settlePayment(ctx, ride, cmd.Target)
	s.notifyCounterparty(ctx, ride, cmd.Target, isCustomer)

	return &StatusUpdate{RideID: ride.ID, Status: cmd.Target}, nil
}

func (s *Service) settlePayment(ctx context.Context, ride *models.Ride, target models.RideStatus) {
	if s.Payments == nil {
		return
	}
	var err error
	switch target {
	case models.StatusAccepted:
		var ref string
		if ref, err = s.Payments.Hold(ctx, s.BaseFareAmount, s.Currency, ride.CustomerID); err == nil {
			err = s.Store.SetPaymentRef(ctx, ride.ID, ref)
		}
	case models.StatusCompleted:
		if ride.PaymentRef != "" {
			err = s.Payments.Capture(ctx, ride.PaymentRef)
		}
	case models.StatusCancelled:
		if ride.PaymentRef != "" {
			err = s.Payments.Cancel(ctx, ride.PaymentRef)
		}
	}
	if err != nil {
		s.Logger.Warn("payment hook failed", "ride_id", ride.ID, "status", target, "error", err)
	}
}

// statusCopy is the fixed notification wording keyed by target status.
// searching has no entry: there is no counterparty to tell yet.
var statusCopy = map[models.RideStatus]struct{ title, message string }{
	models.StatusAccepted:   {"Trajet accepté", "Un chauffeur a accepté votre demande de trajet"},
	models.StatusInProgress: {"Trajet démarré", "Votre trajet a commencé"},
	models.StatusCompleted:  {"Trajet terminé", "Votre trajet est terminé"},
	models.StatusCancelled:  {"Trajet annulé", ""},
}

func (s *Service) notifyCounterparty(ctx context.Context, ride *models.Ride, target models.RideStatus, actorIsCustomer bool) {
	recipient := ride.CustomerID
	if actorIsCustomer {
		recipient = ride.DriverID
	}
	if recipient == "" {
		return
	}
	copyText, ok := statusCopy[target]
	if !ok {
		return
	}
	message := copyText.message
	if target == models.StatusCancelled {
		if actorIsCustomer {
			message = "Le client a annulé le trajet"
		} else {
			message = "Le chauffeur a annulé le trajet"
		}
	}

	data, _ := json.Marshal(map[string]any{"ride_id": ride.ID, "status": target})
	_, err := s.Notifier.Create(ctx, models.Notification{
		UserID:  recipient,
		Title:   copyText.title,
		Message: message,
		Type:    models.NotificationRideUpdate,
		Data:    data,
	})
	if err != nil {
		s.Logger.Warn("ride update notification failed", "ride_id", ride.ID, "user_id", recipient, "error", err)
	}
}
