package dispatch

import (
	"errors"

	"github.com/koulibalyamadou10/afrilyft-bolt/internal/models"
)

// PushDispatcher tries the live websocket session first and falls back to
// FCM when the user has no connection. Either leg may be nil.
type PushDispatcher struct {
	WS  *WSRegistry
	FCM *FCMDispatcher
}

func NewPushDispatcher(ws *WSRegistry, fcm *FCMDispatcher) *PushDispatcher {
	return &PushDispatcher{WS: ws, FCM: fcm}
}

func (p *PushDispatcher) Push(userID string, n models.Notification) error {
	if p.WS != nil {
		err := p.WS.Push(userID, n)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNoSession) {
			return err
		}
	}
	if p.FCM != nil {
		return p.FCM.Push(userID, n)
	}
	return ErrNoSession
}

func (p *PushDispatcher) Offer(driverID string, offer models.RideOffer) error {
	if p.WS != nil {
		err := p.WS.Offer(driverID, offer)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNoSession) {
			return err
		}
	}
	if p.FCM != nil {
		return p.FCM.Offer(driverID, offer)
	}
	return ErrNoSession
}
