// Package metrics exposes Prometheus counters for the authentication flow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Login outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeInvalid     = "invalid_credentials"
	OutcomeThrottled   = "rate_limited"
	OutcomeValidation  = "validation_error"
	OutcomeUnavailable = "unavailable"
	OutcomeConflict    = "conflict"
)

// Cache lookup results.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Metrics groups the auth collectors. A nil *Metrics is valid and records
// nothing, which keeps tests free of registry plumbing.
type Metrics struct {
	LoginAttempts   *prometheus.CounterVec
	UserCacheLookup *prometheus.CounterVec
	Throttled       *prometheus.CounterVec
	Registrations   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// Panics if registration fails (following prometheus convention).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partyplanner_login_attempts_total",
				Help: "Total number of login attempts by outcome",
			},
			[]string{"outcome"},
		),
		UserCacheLookup: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partyplanner_user_cache_lookups_total",
				Help: "Total number of user cache lookups by result",
			},
			[]string{"result"},
		),
		Throttled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partyplanner_throttled_requests_total",
				Help: "Total number of requests rejected by a rate limiter",
			},
			[]string{"limiter"},
		),
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partyplanner_registrations_total",
				Help: "Total number of registration attempts by outcome",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(m.LoginAttempts, m.UserCacheLookup, m.Throttled, m.Registrations)
	return m
}

func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := CacheMiss
	if hit {
		result = CacheHit
	}
	m.UserCacheLookup.WithLabelValues(result).Inc()
}

// RecordThrottled counts a rejection by the named limiter ("login" or "api").
func (m *Metrics) RecordThrottled(limiter string) {
	if m == nil {
		return
	}
	m.Throttled.WithLabelValues(limiter).Inc()
}

func (m *Metrics) RecordRegistration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}
