// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tourdesk"

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// Reservations counts ledger outcomes; source is staff or widget
	Reservations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservations_total",
		Help:      "Reservation attempts by source and outcome.",
	}, []string{"source", "outcome"})

	ReservationsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservations_cancelled_total",
		Help:      "Reservations moved to cancelled.",
	})

	SlotsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "slots_created_total",
		Help:      "Slot creations by mode and outcome.",
	}, []string{"mode", "outcome"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Domain events delivered to the notification sink.",
	}, []string{"subject"})

	SeatDrift = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "seat_drift_total",
		Help:      "Slots whose reserved seats disagreed with their reservations.",
	}, []string{"action"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Cache lookups by cache name and result.",
	}, []string{"cache", "result"})
)

// Outcome labels
const (
	OutcomeCreated  = "created"
	OutcomeCapacity = "capacity_exceeded"
	OutcomeInvalid  = "invalid"
	OutcomeFailed   = "failed"
)

func Handler() http.Handler {
	return promhttp.Handler()
}
