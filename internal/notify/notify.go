// Package notify records notifications and forwards them to push delivery.
// Persistence is the contract; push is best-effort and never fails a caller.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/koulibalyamadou10/afrilyft-bolt/internal/models"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/observability"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/storage"
)

// ErrValidation covers missing or malformed notification input.
var ErrValidation = errors.New("missing required fields")

// Pusher attempts real-time delivery of a stored notification.
type Pusher interface {
	Push(userID string, n models.Notification) error
}

type Service struct {
	Store  storage.NotificationStore
	Push   Pusher // optional
	Logger *slog.Logger
}

// Create validates and persists a notification, then pushes it best-effort.
func (s *Service) Create(ctx context.Context, n models.Notification) (*models.Notification, error) {
	if n.UserID == "" || n.Title == "" || n.Message == "" || n.Type == "" {
		return nil, fmt.Errorf("%w: userId, title, message, type", ErrValidation)
	}
	if !models.ValidNotificationType(n.Type) {
		return nil, fmt.Errorf("%w: unknown type %q", ErrValidation, n.Type)
	}

	if err := s.Store.CreateNotification(ctx, &n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	observability.NotificationsCreated.Inc()

	if s.Push != nil {
		if err := s.Push.Push(n.UserID, n); err != nil {
			observability.PushFailures.Inc()
			s.Logger.Debug("push delivery failed", "user_id", n.UserID, "type", n.Type, "error", err)
		}
	}
	return &n, nil
}
