package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/koulibalyamadou10/afrilyft-bolt/internal/models"
)

// FCMDispatcher posts JSON to an FCM HTTPv1 endpoint using a server key or
// oauth token. The user id is sent as the topic so device tokens stay out of
// this service.
type FCMDispatcher struct {
	Endpoint string
	Key      string
	Client   *http.Client
}

func NewFCMDispatcher(endpoint, key string) *FCMDispatcher {
	return &FCMDispatcher{Endpoint: endpoint, Key: key, Client: &http.Client{Timeout: 3 * time.Second}}
}

func (f *FCMDispatcher) Push(userID string, n models.Notification) error {
	body := map[string]any{"message": map[string]any{
		"topic": "user-" + userID,
		"notification": map[string]any{
			"title": n.Title,
			"body":  n.Message,
		},
		"data": map[string]any{"type": string(n.Type), "payload": string(n.Data)},
	}}
	return f.post(body)
}

func (f *FCMDispatcher) Offer(driverID string, offer models.RideOffer) error {
	body := map[string]any{"message": map[string]any{
		"topic": "user-" + driverID,
		"data":  map[string]any{"type": "ride_request", "ride_id": offer.RideID},
	}}
	return f.post(body)
}

func (f *FCMDispatcher) post(body map[string]any) error {
	b, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, f.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if f.Key != "" {
		req.Header.Set("Authorization", "Bearer "+f.Key)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("fcm push: status %d", resp.StatusCode)
	}
	return nil
}
