// Copyright 2025 Certen Protocol
//
// Prometheus instrumentation for the policy cache, verifier, and audit
// chain. Grounded on the teacher's go.mod carrying
// github.com/prometheus/client_golang; the teacher's own service-side
// metrics registration is not retrievable in this pack, so the
// registerer/collector shapes below follow client_golang's own
// promauto idiom directly.

package capmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the counters and histograms the pipeline emits. A
// zero-value Metrics is not usable; construct with New.
type Metrics struct {
	PolicyCacheHits   prometheus.Counter
	PolicyCacheMisses prometheus.Counter

	VerificationDuration *prometheus.HistogramVec
	VerificationTotal    *prometheus.CounterVec

	AuditAppends prometheus.Counter
}

// New registers the pipeline's metrics with reg and returns the bundle.
// Passing prometheus.NewRegistry() isolates metrics per-test; passing
// prometheus.DefaultRegisterer wires them into the process's default
// /metrics endpoint.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PolicyCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "capctl",
			Subsystem: "policy_cache",
			Name:      "hits_total",
			Help:      "Policy cache lookups that found a cached entry.",
		}),
		PolicyCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "capctl",
			Subsystem: "policy_cache",
			Name:      "misses_total",
			Help:      "Policy cache lookups that found no cached entry.",
		}),
		VerificationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "capctl",
			Subsystem: "verifier",
			Name:      "duration_seconds",
			Help:      "Time spent verifying a proof bundle.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		VerificationTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capctl",
			Subsystem: "verifier",
			Name:      "verifications_total",
			Help:      "Proof bundle verifications, labeled by outcome.",
		}, []string{"outcome"}),
		AuditAppends: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "capctl",
			Subsystem: "audit",
			Name:      "appends_total",
			Help:      "Events appended to the audit hash chain.",
		}),
	}
}

// ObserveVerification records one verification's duration and outcome.
// outcome is "valid" or "invalid".
func (m *Metrics) ObserveVerification(outcome string, seconds float64) {
	m.VerificationDuration.WithLabelValues(outcome).Observe(seconds)
	m.VerificationTotal.WithLabelValues(outcome).Inc()
}

// RecordCacheLookup increments the hit or miss counter.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if hit {
		m.PolicyCacheHits.Inc()
		return
	}
	m.PolicyCacheMisses.Inc()
}
