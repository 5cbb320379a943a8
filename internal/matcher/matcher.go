package matcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/koulibalyamadou10/afrilyft-bolt/internal/eta"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/geo"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/models"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/observability"
)

// ErrValidation covers missing required matching input.
var ErrValidation = errors.New("missing required fields")

// LocationSource yields available drivers with a fresh enough location.
type LocationSource interface {
	AvailableSince(ctx context.Context, cutoff time.Time) ([]models.DriverLocation, error)
}

// RequestStore records the fan-out to selected drivers. Pairs already on
// record are skipped; the count reflects requests actually created.
type RequestStore interface {
	CreateRideRequests(ctx context.Context, reqs []models.RideRequest) (int, error)
}

// Offerer pushes a ride offer to one driver, best-effort.
type Offerer interface {
	Offer(driverID string, offer models.RideOffer) error
}

// Service finds nearby available drivers for a pickup point, ranks them by
// distance and issues ride requests to the closest few.
type Service struct {
	Locations LocationSource
	Requests  RequestStore
	Dispatch  Offerer    // optional
	ETAClient eta.Client // optional routing engine
	ETACache  *eta.Cache // optional
	Logger    *slog.Logger

	MaxDistanceKm float64       // default radius when the request omits one
	Fanout        int           // cap on ride requests per match run
	Freshness     time.Duration // location staleness cutoff
	SpeedMps      float64       // naive ETA speed when no routing engine
}

const (
	DefaultMaxDistanceKm = 5.0
	DefaultFanout        = 5
	DefaultFreshness     = 5 * time.Minute
)

type MatchQuery struct {
	RideID        string
	Pickup        models.Coord
	MaxDistanceKm float64 // 0 means use the service default
}

// RankedDriver is a candidate annotated with its computed distance and ETA.
type RankedDriver struct {
	models.DriverLocation
	DistanceKm float64 `json:"distance"`
	ETASeconds float64 `json:"eta_seconds"`
}

type MatchResult struct {
	DriversFound int            // within range, before the fan-out cap
	RequestsSent int            // ride requests actually created
	Drivers      []RankedDriver // selected candidates, closest first
}

// Match runs one synchronous matching pass. Candidates are narrowed by the
// store query (available and recently active), then linearly scanned with
// the exact haversine distance. Linear scan is deliberate at this scale; a
// spatial index can replace the LocationSource without changing callers.
func (s *Service) Match(ctx context.Context, q MatchQuery) (*MatchResult, error) {
	if q.RideID == "" {
		return nil, fmt.Errorf("%w: rideId", ErrValidation)
	}
	maxDist := q.MaxDistanceKm
	if maxDist <= 0 {
		maxDist = s.maxDistance()
	}

	cutoff := time.Now().Add(-s.freshness())
	candidates, err := s.Locations.AvailableSince(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query driver locations: %w", err)
	}

	ranked := make([]RankedDriver, 0, len(candidates))
	for _, d := range candidates {
		dist := geo.HaversineKm(q.Pickup.Lat, q.Pickup.Lng, d.Latitude, d.Longitude)
		// NaN from nonsensical coordinates fails this comparison and is
		// dropped along with everything out of range.
		if dist <= maxDist {
			ranked = append(ranked, RankedDriver{DriverLocation: d, DistanceKm: dist})
		}
	}
	// Stable sort keeps store order for equal distances, so ties are
	// deterministic.
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].DistanceKm < ranked[j].DistanceKm })

	found := len(ranked)
	if len(ranked) > s.fanout() {
		ranked = ranked[:s.fanout()]
	}
	for i := range ranked {
		ranked[i].ETASeconds = s.estimateETA(ranked[i].DriverLocation, q.Pickup, ranked[i].DistanceKm)
	}

	sent := 0
	if len(ranked) > 0 {
		reqs := make([]models.RideRequest, len(ranked))
		for i, d := range ranked {
			reqs[i] = models.RideRequest{RideID: q.RideID, DriverID: d.DriverID, Status: models.RideRequestSent}
		}
		sent, err = s.Requests.CreateRideRequests(ctx, reqs)
		if err != nil {
			return nil, fmt.Errorf("create ride requests: %w", err)
		}
		observability.RideRequestsSent.Add(float64(sent))

		if s.Dispatch != nil {
			for _, d := range ranked {
				offer := models.RideOffer{RideID: q.RideID, DistanceKm: d.DistanceKm, ETASeconds: d.ETASeconds}
				if err := s.Dispatch.Offer(d.DriverID, offer); err != nil {
					s.Logger.Debug("offer push failed", "ride_id", q.RideID, "driver_id", d.DriverID, "error", err)
				}
			}
		}
	}
	observability.MatchesTotal.Inc()

	return &MatchResult{DriversFound: found, RequestsSent: sent, Drivers: ranked}, nil
}

func (s *Service) estimateETA(d models.DriverLocation, pickup models.Coord, distKm float64) float64 {
	from := models.Coord{Lat: d.Latitude, Lng: d.Longitude}
	if s.ETACache != nil {
		if v, ok := s.ETACache.Get(from, pickup); ok {
			return v
		}
	}
	if s.ETAClient != nil {
		if v, err := s.ETAClient.EstimateSeconds(from, pickup); err == nil {
			if s.ETACache != nil {
				s.ETACache.Set(from, pickup, v)
			}
			return v
		}
	}
	return eta.NaiveSeconds(distKm, s.SpeedMps)
}

func (s *Service) maxDistance() float64 {
	if s.MaxDistanceKm > 0 {
		return s.MaxDistanceKm
	}
	return DefaultMaxDistanceKm
}

func (s *Service) fanout() int {
	if s.Fanout > 0 {
		return s.Fanout
	}
	return DefaultFanout
}

func (s *Service) freshness() time.Duration {
	if s.Freshness > 0 {
		return s.Freshness
	}
	return DefaultFreshness
}
