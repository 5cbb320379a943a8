package rides

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/koulibalyamadou10/afrilyft-bolt/internal/models"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/storage"
)

type fakeNotifier struct {
	sent []models.Notification
	err  error
}

func (f *fakeNotifier) Create(ctx context.Context, n models.Notification) (*models.Notification, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, n)
	return &n, nil
}

type fakeGateway struct {
	held, captured, cancelled int
}

func (f *fakeGateway) Hold(ctx context.Context, amount int64, currency, customerID string) (string, error) {
	f.held++
	return "pi_test", nil
}
func (f *fakeGateway) Capture(ctx context.Context, ref string) error { f.captured++; return nil }
func (f *fakeGateway) Cancel(ctx context.Context, ref string) error  { f.cancelled++; return nil }

func newTestService(t *testing.T) (*Service, *storage.MemoryStore, *fakeNotifier) {
	t.Helper()
	store := storage.NewMemoryStore()
	notifier := &fakeNotifier{}
	svc := &Service{Store: store, Notifier: notifier, Logger: slog.Default()}
	return svc, store, notifier
}

func seedRide(t *testing.T, store *storage.MemoryStore, id, customer, driver string, status models.RideStatus) {
	t.Helper()
	err := store.CreateRide(context.Background(), &models.Ride{
		ID: id, CustomerID: customer, DriverID: driver, Status: status,
	})
	if err != nil {
		t.Fatalf("seed ride: %v", err)
	}
}

func TestDriverAcceptsSearchingRide(t *testing.T) {
	svc, store, notifier := newTestService(t)
	seedRide(t, store, "r1", "cust1", "drv1", models.StatusSearching)

	res, err := svc.UpdateStatus(context.Background(), UpdateStatusCommand{RideID: "r1", Target: models.StatusAccepted, UserID: "drv1"})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if res.Status != models.StatusAccepted {
		t.Fatalf("status = %s, want accepted", res.Status)
	}

	ride, _ := store.GetRide(context.Background(), "r1")
	if ride.Status != models.StatusAccepted {
		t.Fatalf("persisted status = %s", ride.Status)
	}
	if ride.AcceptedAt == nil {
		t.Fatal("accepted_at not set")
	}
	if ride.StartedAt != nil || ride.CompletedAt != nil || ride.CancelledAt != nil {
		t.Fatal("unrelated timestamps were touched")
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifier.sent))
	}
	n := notifier.sent[0]
	if n.UserID != "cust1" {
		t.Fatalf("notification recipient = %s, want customer", n.UserID)
	}
	if n.Type != models.NotificationRideUpdate {
		t.Fatalf("notification type = %s", n.Type)
	}
	var payload map[string]string
	if err := json.Unmarshal(n.Data, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["ride_id"] != "r1" || payload["status"] != "accepted" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestCustomerCannotAcceptRide(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedRide(t, store, "r1", "cust1", "drv1", models.StatusSearching)

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusCommand{RideID: "r1", Target: models.StatusAccepted, UserID: "cust1"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestInvalidTransitionReportedBeforeRoleCheck(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedRide(t, store, "r1", "cust1", "drv1", models.StatusPending)

	// pending has no path to accepted; even the customer actor gets the
	// transition error, not the role error
	_, err := svc.UpdateStatus(context.Background(), UpdateStatusCommand{RideID: "r1", Target: models.StatusAccepted, UserID: "cust1"})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestTerminalStatesRejectAllTransitions(t *testing.T) {
	svc, store, _ := newTestService(t)
	for i, terminal := range []models.RideStatus{models.StatusCompleted, models.StatusCancelled} {
		id := string(terminal) + "-ride"
		seedRide(t, store, id, "cust1", "drv1", terminal)
		for _, target := range []models.RideStatus{models.StatusPending, models.StatusSearching, models.StatusAccepted, models.StatusInProgress, models.StatusCompleted, models.StatusCancelled} {
			_, err := svc.UpdateStatus(context.Background(), UpdateStatusCommand{RideID: id, Target: target, UserID: "drv1"})
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("case %d: %s -> %s: err = %v, want ErrInvalidTransition", i, terminal, target, err)
			}
		}
	}
}

func TestStrangerIsRejected(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedRide(t, store, "r1", "cust1", "drv1", models.StatusSearching)

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusCommand{RideID: "r1", Target: models.StatusCancelled, UserID: "someone-else"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestUnknownRideIsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.UpdateStatus(context.Background(), UpdateStatusCommand{RideID: "nope", Target: models.StatusCancelled, UserID: "cust1"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMissingInputFailsValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	cases := []UpdateStatusCommand{
		{Target: models.StatusCancelled, UserID: "u"},
		{RideID: "r1", UserID: "u"},
		{RideID: "r1", Target: models.StatusCancelled},
		{RideID: "r1", Target: "teleported", UserID: "u"},
	}
	for i, cmd := range cases {
		if _, err := svc.UpdateStatus(context.Background(), cmd); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: err = %v, want ErrValidation", i, err)
		}
	}
}

func TestCustomerCancelNotifiesDriver(t *testing.T) {
	svc, store, notifier := newTestService(t)
	seedRide(t, store, "r1", "cust1", "drv1", models.StatusAccepted)

	if _, err := svc.UpdateStatus(context.Background(), UpdateStatusCommand{RideID: "r1", Target: models.StatusCancelled, UserID: "cust1"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("notifications = %d", len(notifier.sent))
	}
	n := notifier.sent[0]
	if n.UserID != "drv1" {
		t.Fatalf("recipient = %s, want driver", n.UserID)
	}
	if n.Message != "Le client a annulé le trajet" {
		t.Fatalf("message = %q", n.Message)
	}
}

func TestNoNotificationWithoutAssignedDriver(t *testing.T) {
	svc, store, notifier := newTestService(t)
	seedRide(t, store, "r1", "cust1", "", models.StatusPending)

	if _, err := svc.UpdateStatus(context.Background(), UpdateStatusCommand{RideID: "r1", Target: models.StatusCancelled, UserID: "cust1"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("expected no notification, got %d", len(notifier.sent))
	}
}

func TestSearchingTransitionSkipsNotification(t *testing.T) {
	svc, store, notifier := newTestService(t)
	seedRide(t, store, "r1", "cust1", "drv1", models.StatusPending)

	if _, err := svc.UpdateStatus(context.Background(), UpdateStatusCommand{RideID: "r1", Target: models.StatusSearching, UserID: "cust1"}); err != nil {
		t.Fatalf("searching: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("expected no notification for searching, got %d", len(notifier.sent))
	}
}

func TestNotificationFailureDoesNotFailTransition(t *testing.T) {
	svc, store, notifier := newTestService(t)
	notifier.err = errors.New("sink down")
	seedRide(t, store, "r1", "cust1", "drv1", models.StatusInProgress)

	res, err := svc.UpdateStatus(context.Background(), UpdateStatusCommand{RideID: "r1", Target: models.StatusCompleted, UserID: "drv1"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if res.Status != models.StatusCompleted {
		t.Fatalf("status = %s", res.Status)
	}
	ride, _ := store.GetRide(context.Background(), "r1")
	if ride.Status != models.StatusCompleted || ride.CompletedAt == nil {
		t.Fatal("transition was not committed")
	}
}

// conflictStore simulates a concurrent writer that moved the ride between
// the read and the conditional update.
type conflictStore struct{ *storage.MemoryStore }

func (c *conflictStore) UpdateRideStatus(ctx context.Context, id string, from, to models.RideStatus, at time.Time) (bool, error) {
	return false, nil
}

func TestConcurrentTransitionConflicts(t *testing.T) {
	mem := storage.NewMemoryStore()
	seedRide(t, mem, "r1", "cust1", "drv1", models.StatusSearching)
	svc := &Service{Store: &conflictStore{mem}, Notifier: &fakeNotifier{}, Logger: slog.Default()}

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusCommand{RideID: "r1", Target: models.StatusAccepted, UserID: "drv1"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestPaymentHooks(t *testing.T) {
	svc, store, _ := newTestService(t)
	gw := &fakeGateway{}
	svc.Payments = gw
	svc.BaseFareAmount = 50000
	svc.Currency = "gnf"
	seedRide(t, store, "r1", "cust1", "drv1", models.StatusSearching)

	ctx := context.Background()
	if _, err := svc.UpdateStatus(ctx, UpdateStatusCommand{RideID: "r1", Target: models.StatusAccepted, UserID: "drv1"}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if gw.held != 1 {
		t.Fatalf("held = %d, want 1", gw.held)
	}
	ride, _ := store.GetRide(ctx, "r1")
	if ride.PaymentRef != "pi_test" {
		t.Fatalf("payment_ref = %q", ride.PaymentRef)
	}

	if _, err := svc.UpdateStatus(ctx, UpdateStatusCommand{RideID: "r1", Target: models.StatusInProgress, UserID: "drv1"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, UpdateStatusCommand{RideID: "r1", Target: models.StatusCompleted, UserID: "drv1"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if gw.captured != 1 {
		t.Fatalf("captured = %d, want 1", gw.captured)
	}
}
