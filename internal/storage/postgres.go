package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"

	"github.com/koulibalyamadou10/afrilyft-bolt/internal/models"
)

// PostgresStore implements all store interfaces over a single database.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) Close() error { return p.db.Close() }

func (p *PostgresStore) CreateRide(ctx context.Context, r *models.Ride) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO rides(id, customer_id, driver_id, status, created_at) VALUES($1,$2,NULLIF($3,''),$4,$5)`,
		r.ID, r.CustomerID, r.DriverID, r.Status, r.CreatedAt)
	return err
}

func (p *PostgresStore) GetRide(ctx context.Context, id string) (*models.Ride, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, customer_id, COALESCE(driver_id,''), status, COALESCE(payment_ref,''),
		        created_at, accepted_at, started_at, completed_at, cancelled_at
		 FROM rides WHERE id = $1`, id)

	var r models.Ride
	var acceptedAt, startedAt, completedAt, cancelledAt sql.NullTime
	err := row.Scan(&r.ID, &r.CustomerID, &r.DriverID, &r.Status, &r.PaymentRef,
		&r.CreatedAt, &acceptedAt, &startedAt, &completedAt, &cancelledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.AcceptedAt = nullTimePtr(acceptedAt)
	r.StartedAt = nullTimePtr(startedAt)
	r.CompletedAt = nullTimePtr(completedAt)
	r.CancelledAt = nullTimePtr(cancelledAt)
	return &r, nil
}

// UpdateRideStatus is conditional on the status observed by the caller, so
// two racing transitions cannot both commit.
func (p *PostgresStore) UpdateRideStatus(ctx context.Context, id string, from, to models.RideStatus, at time.Time) (bool, error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE rides SET status = $1,
		        accepted_at  = CASE WHEN $1 = 'accepted'    THEN $2 ELSE accepted_at  END,
		        started_at   = CASE WHEN $1 = 'in_progress' THEN $2 ELSE started_at   END,
		        completed_at = CASE WHEN $1 = 'completed'   THEN $2 ELSE completed_at END,
		        cancelled_at = CASE WHEN $1 = 'cancelled'   THEN $2 ELSE cancelled_at END
		 WHERE id = $3 AND status = $4`,
		to, at, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (p *PostgresStore) SetPaymentRef(ctx context.Context, id, ref string) error {
	_, err := p.db.ExecContext(ctx, `UPDATE rides SET payment_ref = $1 WHERE id = $2`, ref, id)
	return err
}

func (p *PostgresStore) UpsertLocation(ctx context.Context, loc models.DriverLocation) error {
	if loc.LastUpdated.IsZero() {
		loc.LastUpdated = time.Now()
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO driver_locations(driver_id, latitude, longitude, is_available, last_updated)
		 VALUES($1,$2,$3,$4,$5)
		 ON CONFLICT (driver_id) DO UPDATE SET
		   latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude,
		   is_available = EXCLUDED.is_available, last_updated = EXCLUDED.last_updated`,
		loc.DriverID, loc.Latitude, loc.Longitude, loc.IsAvailable, loc.LastUpdated)
	return err
}

func (p *PostgresStore) AvailableSince(ctx context.Context, cutoff time.Time) ([]models.DriverLocation, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT l.driver_id, l.latitude, l.longitude, l.is_available, l.last_updated,
		        COALESCE(pr.full_name,''), COALESCE(pr.phone,'')
		 FROM driver_locations l
		 LEFT JOIN profiles pr ON pr.id = l.driver_id
		 WHERE l.is_available = true AND l.last_updated >= $1
		 ORDER BY l.driver_id`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DriverLocation
	for rows.Next() {
		var l models.DriverLocation
		if err := rows.Scan(&l.DriverID, &l.Latitude, &l.Longitude, &l.IsAvailable, &l.LastUpdated, &l.FullName, &l.Phone); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (p *PostgresStore) CreateRideRequests(ctx context.Context, reqs []models.RideRequest) (int, error) {
	if len(reqs) == 0 {
		return 0, nil
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	inserted := 0
	for _, rr := range reqs {
		if rr.CreatedAt.IsZero() {
			rr.CreatedAt = time.Now()
		}
		// a driver already asked for this ride keeps their original request
		res, err := tx.ExecContext(ctx,
			`INSERT INTO ride_requests(ride_id, driver_id, status, created_at) VALUES($1,$2,$3,$4)
			 ON CONFLICT (ride_id, driver_id) DO NOTHING`,
			rr.RideID, rr.DriverID, rr.Status, rr.CreatedAt)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (p *PostgresStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	var data any
	if len(n.Data) > 0 {
		data = []byte(n.Data)
	}
	row := p.db.QueryRowContext(ctx,
		`INSERT INTO notifications(user_id, title, message, type, data, created_at)
		 VALUES($1,$2,$3,$4,$5,$6) RETURNING id`,
		n.UserID, n.Title, n.Message, n.Type, data, n.CreatedAt)
	return row.Scan(&n.ID)
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
