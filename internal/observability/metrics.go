package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RideTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "afrilyft", Name: "ride_transitions_total", Help: "Committed ride status transitions by target status"},
		[]string{"status"},
	)
	MatchesTotal         = promauto.NewCounter(prometheus.CounterOpts{Namespace: "afrilyft", Name: "matches_total", Help: "Total matching runs"})
	RideRequestsSent     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "afrilyft", Name: "ride_requests_sent_total", Help: "Ride requests fanned out to drivers"})
	NotificationsCreated  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "afrilyft", Name: "notifications_created_total", Help: "Notifications persisted"})
	PushFailures          = promauto.NewCounter(prometheus.CounterOpts{Namespace: "afrilyft", Name: "push_failures_total", Help: "Best-effort push deliveries that failed"})
	DriverLocationUpdates = promauto.NewCounter(prometheus.CounterOpts{Namespace: "afrilyft", Name: "driver_location_updates_total", Help: "Driver location updates ingested"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "afrilyft", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "afrilyft",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
