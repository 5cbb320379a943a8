// Package locations provides a Redis-backed driver location store. Positions
// live in a GEO set; availability and freshness live in per-driver hashes.
package locations

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/koulibalyamadou10/afrilyft-bolt/internal/models"
)

type RedisLocations struct {
	client *redis.Client
	key    string
}

func NewRedisLocations(addr, password, key string) *RedisLocations {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisLocations{client: c, key: key}
}

// NewRedisLocationsWithClient is used when the caller owns the client (consumer).
func NewRedisLocationsWithClient(c *redis.Client, key string) *RedisLocations {
	return &RedisLocations{client: c, key: key}
}

func (r *RedisLocations) Close() error { return r.client.Close() }

func (r *RedisLocations) UpsertLocation(ctx context.Context, loc models.DriverLocation) error {
	if loc.LastUpdated.IsZero() {
		loc.LastUpdated = time.Now()
	}
	if err := r.client.GeoAdd(ctx, r.key, &redis.GeoLocation{
		Name:      loc.DriverID,
		Longitude: loc.Longitude,
		Latitude:  loc.Latitude,
	}).Err(); err != nil {
		return err
	}
	return r.client.HSet(ctx, metaKey(loc.DriverID), map[string]interface{}{
		"available": strconv.FormatBool(loc.IsAvailable),
		"updated":   loc.LastUpdated.UTC().Format(time.RFC3339),
		"full_name": loc.FullName,
		"phone":     loc.Phone,
	}).Err()
}

// AvailableSince walks the GEO set and filters on the metadata hashes. The
// set only holds currently active drivers, so the scan stays small; the
// matcher does its own distance ranking.
func (r *RedisLocations) AvailableSince(ctx context.Context, cutoff time.Time) ([]models.DriverLocation, error) {
	ids, err := r.client.ZRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	positions, err := r.client.GeoPos(ctx, r.key, ids...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]models.DriverLocation, 0, len(ids))
	for i, id := range ids {
		if i >= len(positions) || positions[i] == nil {
			continue
		}
		meta, err := r.client.HGetAll(ctx, metaKey(id)).Result()
		if err != nil {
			return nil, err
		}
		if meta["available"] != "true" {
			continue
		}
		updated, err := time.Parse(time.RFC3339, meta["updated"])
		if err != nil || updated.Before(cutoff) {
			continue
		}
		out = append(out, models.DriverLocation{
			DriverID:    id,
			Latitude:    positions[i].Latitude,
			Longitude:   positions[i].Longitude,
			IsAvailable: true,
			LastUpdated: updated,
			FullName:    meta["full_name"],
			Phone:       meta["phone"],
		})
	}
	return out, nil
}

func metaKey(id string) string { return "driver:meta:" + id }
