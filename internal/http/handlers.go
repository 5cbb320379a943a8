package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/koulibalyamadou10/afrilyft-bolt/internal/matcher"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/models"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/observability"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/rides"
)

type helloRequest struct {
	Name string `json:"name"`
}

// handleHello is the greeting/health echo. A missing or malformed body is
// not an error; it just greets the world.
func (s *Server) handleHello(w http.ResponseWriter, r *http.Request) {
	var req helloRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Name == "" {
		req.Name = "World"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   fmt.Sprintf("Hello %s from AfriLyft!", req.Name),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type notificationRequest struct {
	UserID  string          `json:"userId"`
	Title   string          `json:"title"`
	Message string          `json:"message"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (s *Server) handleNotification(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.UserID == "" || req.Title == "" || req.Message == "" || req.Type == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: userId, title, message, type")
		return
	}
	n, err := s.notifications.Create(r.Context(), models.Notification{
		UserID:  req.UserID,
		Title:   req.Title,
		Message: req.Message,
		Type:    models.NotificationType(req.Type),
		Data:    req.Data,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"notification": n,
		"message":      "Notification sent successfully",
	})
}

type rideStatusRequest struct {
	RideID string `json:"rideId"`
	Status string `json:"status"`
	UserID string `json:"userId"`
}

func (s *Server) handleRideStatus(w http.ResponseWriter, r *http.Request) {
	var req rideStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.RideID == "" || req.Status == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: rideId, status, userId")
		return
	}
	res, err := s.rides.UpdateStatus(r.Context(), rides.UpdateStatusCommand{
		RideID: req.RideID,
		Target: models.RideStatus(req.Status),
		UserID: req.UserID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Ride status updated to %s", res.Status),
		"ride_id": res.RideID,
	})
}

// rideMatchRequest uses pointers for the coordinates so an absent field can
// be told apart from a legitimate zero (equator / prime meridian).
type rideMatchRequest struct {
	RideID      string   `json:"rideId"`
	PickupLat   *float64 `json:"pickupLat"`
	PickupLng   *float64 `json:"pickupLng"`
	MaxDistance *float64 `json:"maxDistance,omitempty"`
}

func (s *Server) handleRideMatch(w http.ResponseWriter, r *http.Request) {
	var req rideMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.RideID == "" || req.PickupLat == nil || req.PickupLng == nil {
		writeError(w, http.StatusBadRequest, "Missing required fields: rideId, pickupLat, pickupLng")
		return
	}
	if req.MaxDistance != nil && *req.MaxDistance <= 0 {
		writeError(w, http.StatusBadRequest, "maxDistance must be a positive number")
		return
	}
	q := matcher.MatchQuery{
		RideID: req.RideID,
		Pickup: models.Coord{Lat: *req.PickupLat, Lng: *req.PickupLng},
	}
	if req.MaxDistance != nil {
		q.MaxDistanceKm = *req.MaxDistance
	}
	res, err := s.matcher.Match(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"driversFound": res.DriversFound,
		"requestsSent": res.RequestsSent,
		"drivers":      res.Drivers,
	})
}

func (s *Server) handleDriverLocation(w http.ResponseWriter, r *http.Request) {
	var loc models.DriverLocation
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if loc.DriverID == "" {
		writeError(w, http.StatusBadRequest, "Missing required field: driver_id")
		return
	}
	loc.LastUpdated = time.Now()

	// publish to kafka if configured; the consumer keeps replicas in sync
	if s.kafka != nil {
		if err := s.kafka.PublishLocation(loc); err != nil {
			s.logger.Warn("kafka publish failed", "driver_id", loc.DriverID, "error", err)
		}
	}
	if err := s.locations.UpsertLocation(r.Context(), loc); err != nil {
		writeDomainError(w, err)
		return
	}
	observability.DriverLocationUpdates.Inc()
	w.WriteHeader(http.StatusNoContent)
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		s.logger.Debug("ws upgrade failed", "user_id", userID, "error", err)
		return
	}
	s.wsreg.Add(userID, conn)

	// drain the connection so close frames are seen and the session is
	// dropped from the registry
	go func() {
		defer s.wsreg.Remove(userID)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				_ = conn.Close()
				return
			}
		}
	}()
}
