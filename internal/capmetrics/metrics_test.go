// Copyright 2025 Certen Protocol

package capmetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestRecordCacheLookupIncrementsHitsAndMisses(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordCacheLookup(true)
	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)

	require.Equal(t, 2.0, counterValue(t, m.PolicyCacheHits))
	require.Equal(t, 1.0, counterValue(t, m.PolicyCacheMisses))
}

func TestObserveVerificationLabelsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveVerification("valid", 0.01)
	m.ObserveVerification("invalid", 0.02)

	validCounter, err := m.VerificationTotal.GetMetricWithLabelValues("valid")
	require.NoError(t, err)
	require.Equal(t, 1.0, counterValue(t, validCounter))
}

func TestNewRegistersDistinctMetricsPerRegistry(t *testing.T) {
	regA := prometheus.NewRegistry()
	regB := prometheus.NewRegistry()

	mA := New(regA)
	mB := New(regB)

	mA.AuditAppends.Inc()
	require.Equal(t, 1.0, counterValue(t, mA.AuditAppends))
	require.Equal(t, 0.0, counterValue(t, mB.AuditAppends))
}
