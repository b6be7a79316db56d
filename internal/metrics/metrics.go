package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_confirmed_total",
		Help: "The total number of fully confirmed bookings",
	})
	BookingsDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_degraded_total",
		Help: "The total number of degraded fallback bookings returned while the flight service was unavailable",
	})
	BookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_cancelled_total",
		Help: "The total number of cancelled bookings",
	})
	EventPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_event_publish_failures_total",
		Help: "The total number of booking lifecycle events that failed to publish",
	})
)
