// Package metrics holds the Prometheus collectors shared by kratzbaum
// components. They register with the default registry on init and are
// served by the ops endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReconcileTotal counts reconciliations by reminder type and outcome
	// (created, updated, unchanged, deleted, none, error).
	ReconcileTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kratzbaum_reconcile_total",
			Help: "Total number of reminder reconciliations",
		},
		[]string{"type", "outcome"},
	)

	SweepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kratzbaum_sweep_runs_total",
			Help: "Total number of sweep ticks by result",
		},
		[]string{"result"},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kratzbaum_sweep_duration_seconds",
			Help:    "Duration of sweep ticks in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	// SweepRemindersTotal counts due reminders seen by the sweep, by what
	// happened to them (notified, cooldown, dormant, orphaned).
	SweepRemindersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kratzbaum_sweep_reminders_total",
			Help: "Due reminders processed by the sweep",
		},
		[]string{"result"},
	)

	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kratzbaum_deliveries_total",
			Help: "Notification delivery attempts by channel and result",
		},
		[]string{"channel", "result"},
	)

	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kratzbaum_delivery_duration_seconds",
			Help:    "Duration of notification deliveries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"channel"},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kratzbaum_notifier_breaker_state",
			Help: "Circuit breaker state per notification channel",
		},
		[]string{"channel"},
	)

	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kratzbaum_job_runs_total",
			Help: "Scheduled job runs by job and result",
		},
		[]string{"job", "result"},
	)

	// EventsDropped counts bus events a full subscriber buffer discarded,
	// by topic (the event type up to its first dot).
	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kratzbaum_events_dropped_total",
			Help: "Bus events dropped for slow subscribers",
		},
		[]string{"topic"},
	)
)
