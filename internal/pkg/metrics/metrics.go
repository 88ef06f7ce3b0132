// Package metrics holds the prometheus collectors of the fulfillment service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fulfillment"

// Metrics groups every collector the service exports.
type Metrics struct {
	assignments   *prometheus.CounterVec
	raceLost      prometheus.Counter
	transitions   *prometheus.CounterVec
	staleStates   prometheus.Counter
	releases      *prometheus.CounterVec
	drift         prometheus.Counter
	notifications *prometheus.CounterVec
	cache         *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignments_total",
			Help:      "Provider assignment attempts by outcome.",
		}, []string{"outcome"}),
		raceLost: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capacity_race_lost_total",
			Help:      "Reservations lost to a concurrent assignment between scoring and reserve.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Committed order status transitions.",
		}, []string{"from", "to", "actor"}),
		staleStates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_state_total",
			Help:      "Transitions rejected by the optimistic concurrency check.",
		}),
		releases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capacity_releases_total",
			Help:      "Capacity releases, split into effective releases and idempotent no-ops.",
		}, []string{"result"}),
		drift: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capacity_drift_corrections_total",
			Help:      "Provider reserved counts corrected by reconciliation.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification channel attempts by outcome.",
		}, []string{"channel", "outcome"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_cache_total",
			Help:      "Analytics cache lookups by result.",
		}, []string{"result"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		m.assignments, m.raceLost, m.transitions, m.staleStates,
		m.releases, m.drift, m.notifications, m.cache, m.httpDuration,
	)
	return m
}

func (m *Metrics) Assignment(outcome string) {
	if m == nil {
		return
	}
	m.assignments.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CapacityRaceLost() {
	if m == nil {
		return
	}
	m.raceLost.Inc()
}

func (m *Metrics) Transition(from, to, actor string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to, actor).Inc()
}

func (m *Metrics) StaleState() {
	if m == nil {
		return
	}
	m.staleStates.Inc()
}

// Release counts a capacity release; released=false is an idempotent no-op.
func (m *Metrics) Release(released bool) {
	if m == nil {
		return
	}
	result := "noop"
	if released {
		result = "released"
	}
	m.releases.WithLabelValues(result).Inc()
}

func (m *Metrics) DriftCorrected(n int) {
	if m == nil {
		return
	}
	m.drift.Add(float64(n))
}

func (m *Metrics) Notification(channel, outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cache.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
