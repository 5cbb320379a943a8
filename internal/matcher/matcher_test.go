package matcher

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/koulibalyamadou10/afrilyft-bolt/internal/models"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/storage"
)

type fakeLocations struct {
	drivers []models.DriverLocation
	err     error
}

func (f *fakeLocations) AvailableSince(ctx context.Context, cutoff time.Time) ([]models.DriverLocation, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.DriverLocation, 0, len(f.drivers))
	for _, d := range f.drivers {
		if d.IsAvailable && !d.LastUpdated.Before(cutoff) {
			out = append(out, d)
		}
	}
	return out, nil
}

func driverAt(id string, lat, lng float64, updatedAgo time.Duration) models.DriverLocation {
	return models.DriverLocation{
		DriverID:    id,
		Latitude:    lat,
		Longitude:   lng,
		IsAvailable: true,
		LastUpdated: time.Now().Add(-updatedAgo),
	}
}

func newTestService(locs *fakeLocations) (*Service, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	return &Service{Locations: locs, Requests: store, Logger: slog.Default()}, store
}

func TestMatchDriverAtPickup(t *testing.T) {
	// pickup at the origin is a legitimate coordinate, not a missing one
	svc, store := newTestService(&fakeLocations{drivers: []models.DriverLocation{
		driverAt("d1", 0, 0, time.Minute),
	}})

	res, err := svc.Match(context.Background(), MatchQuery{RideID: "r1", Pickup: models.Coord{Lat: 0, Lng: 0}})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.DriversFound != 1 || res.RequestsSent != 1 {
		t.Fatalf("found=%d sent=%d, want 1/1", res.DriversFound, res.RequestsSent)
	}
	if res.Drivers[0].DistanceKm != 0 {
		t.Fatalf("distance = %f, want 0", res.Drivers[0].DistanceKm)
	}
	reqs := store.RideRequests()
	if len(reqs) != 1 || reqs[0].RideID != "r1" || reqs[0].DriverID != "d1" || reqs[0].Status != models.RideRequestSent {
		t.Fatalf("ride requests = %+v", reqs)
	}
}

func TestStaleDriverExcluded(t *testing.T) {
	svc, store := newTestService(&fakeLocations{drivers: []models.DriverLocation{
		driverAt("d1", 0, 0, 10*time.Minute),
	}})

	res, err := svc.Match(context.Background(), MatchQuery{RideID: "r1", Pickup: models.Coord{Lat: 0, Lng: 0}})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.DriversFound != 0 || res.RequestsSent != 0 {
		t.Fatalf("found=%d sent=%d, want 0/0", res.DriversFound, res.RequestsSent)
	}
	if len(store.RideRequests()) != 0 {
		t.Fatal("no ride requests expected")
	}
}

func TestOutOfRangeDriverExcluded(t *testing.T) {
	// ~0.09 degrees latitude ≈ 10 km, beyond the default 5 km radius
	svc, _ := newTestService(&fakeLocations{drivers: []models.DriverLocation{
		driverAt("near", 0.01, 0, time.Minute),
		driverAt("far", 0.09, 0, time.Minute),
	}})

	res, err := svc.Match(context.Background(), MatchQuery{RideID: "r1", Pickup: models.Coord{Lat: 0, Lng: 0}})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.DriversFound != 1 {
		t.Fatalf("found = %d, want 1", res.DriversFound)
	}
	if res.Drivers[0].DriverID != "near" {
		t.Fatalf("selected = %s", res.Drivers[0].DriverID)
	}
	if res.Drivers[0].DistanceKm > 5 {
		t.Fatalf("distance %f exceeds radius", res.Drivers[0].DistanceKm)
	}
}

func TestFanoutCapped(t *testing.T) {
	drivers := make([]models.DriverLocation, 0, 8)
	for i := 0; i < 8; i++ {
		drivers = append(drivers, driverAt(string(rune('a'+i)), 0.001*float64(i), 0, time.Minute))
	}
	svc, store := newTestService(&fakeLocations{drivers: drivers})

	res, err := svc.Match(context.Background(), MatchQuery{RideID: "r1", Pickup: models.Coord{Lat: 0, Lng: 0}})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.DriversFound != 8 {
		t.Fatalf("found = %d, want pre-cap count 8", res.DriversFound)
	}
	if res.RequestsSent != 5 || len(res.Drivers) != 5 {
		t.Fatalf("sent = %d drivers = %d, want 5", res.RequestsSent, len(res.Drivers))
	}
	if got := len(store.RideRequests()); got != 5 {
		t.Fatalf("persisted requests = %d", got)
	}
	// closest first
	if res.Drivers[0].DriverID != "a" {
		t.Fatalf("first = %s, want a", res.Drivers[0].DriverID)
	}
	for i := 1; i < len(res.Drivers); i++ {
		if res.Drivers[i].DistanceKm < res.Drivers[i-1].DistanceKm {
			t.Fatalf("results not sorted ascending at %d", i)
		}
	}
}

func TestEqualDistancesKeepStoreOrder(t *testing.T) {
	svc, _ := newTestService(&fakeLocations{drivers: []models.DriverLocation{
		driverAt("first", 0.01, 0, time.Minute),
		driverAt("second", 0.01, 0, time.Minute),
		driverAt("third", 0.01, 0, time.Minute),
	}})

	res, err := svc.Match(context.Background(), MatchQuery{RideID: "r1", Pickup: models.Coord{Lat: 0, Lng: 0}})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if res.Drivers[i].DriverID != w {
			t.Fatalf("drivers[%d] = %s, want %s", i, res.Drivers[i].DriverID, w)
		}
	}
}

func TestCustomMaxDistance(t *testing.T) {
	svc, _ := newTestService(&fakeLocations{drivers: []models.DriverLocation{
		driverAt("d1", 0.05, 0, time.Minute), // ~5.6 km away
	}})

	res, err := svc.Match(context.Background(), MatchQuery{RideID: "r1", Pickup: models.Coord{Lat: 0, Lng: 0}})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.DriversFound != 0 {
		t.Fatalf("found = %d with default radius, want 0", res.DriversFound)
	}

	res, err = svc.Match(context.Background(), MatchQuery{RideID: "r1", Pickup: models.Coord{Lat: 0, Lng: 0}, MaxDistanceKm: 10})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.DriversFound != 1 {
		t.Fatalf("found = %d with 10 km radius, want 1", res.DriversFound)
	}
}

func TestRepeatedMatchDoesNotDuplicateRequests(t *testing.T) {
	// a ride stuck in searching gets re-matched; existing requests must not
	// fail the run or be recorded twice
	svc, store := newTestService(&fakeLocations{drivers: []models.DriverLocation{
		driverAt("d1", 0, 0, time.Minute),
	}})

	q := MatchQuery{RideID: "r1", Pickup: models.Coord{Lat: 0, Lng: 0}}
	if _, err := svc.Match(context.Background(), q); err != nil {
		t.Fatalf("first match: %v", err)
	}
	res, err := svc.Match(context.Background(), q)
	if err != nil {
		t.Fatalf("second match: %v", err)
	}
	if res.DriversFound != 1 {
		t.Fatalf("found = %d, want 1", res.DriversFound)
	}
	if res.RequestsSent != 0 {
		t.Fatalf("sent = %d on re-match, want 0", res.RequestsSent)
	}
	if got := len(store.RideRequests()); got != 1 {
		t.Fatalf("persisted requests = %d, want 1", got)
	}
}

func TestMissingRideIDFailsValidation(t *testing.T) {
	svc, _ := newTestService(&fakeLocations{})
	if _, err := svc.Match(context.Background(), MatchQuery{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestLocationQueryErrorSurfaces(t *testing.T) {
	svc, _ := newTestService(&fakeLocations{err: errors.New("store down")})
	if _, err := svc.Match(context.Background(), MatchQuery{RideID: "r1"}); err == nil {
		t.Fatal("expected error")
	}
}

type countingOfferer struct{ offers int }

func (c *countingOfferer) Offer(driverID string, offer models.RideOffer) error {
	c.offers++
	return nil
}

func TestOffersPushedToSelectedDrivers(t *testing.T) {
	svc, _ := newTestService(&fakeLocations{drivers: []models.DriverLocation{
		driverAt("d1", 0, 0, time.Minute),
		driverAt("d2", 0.01, 0, time.Minute),
	}})
	offerer := &countingOfferer{}
	svc.Dispatch = offerer

	if _, err := svc.Match(context.Background(), MatchQuery{RideID: "r1", Pickup: models.Coord{Lat: 0, Lng: 0}}); err != nil {
		t.Fatalf("match: %v", err)
	}
	if offerer.offers != 2 {
		t.Fatalf("offers = %d, want 2", offerer.offers)
	}
}
