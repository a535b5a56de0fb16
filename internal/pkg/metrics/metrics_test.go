package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) int {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return len(f.GetMetric())
		}
	}
	return 0
}

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	require.NotNil(t, m)
	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.BookingOperationsTotal)
	assert.NotNil(t, m.BookingLockWait)
	assert.NotNil(t, m.TimelineCacheTotal)
}

func TestObserveBooking(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.ObserveBooking("create", OutcomeSuccess)
	m.ObserveBooking("create", OutcomeSuccess)
	m.ObserveBooking("create", OutcomeConflict)
	m.ObserveBooking("approve", OutcomeSuccess)

	assert.Equal(t, 3, gather(t, reg, "booking_operations_total"))
}

func TestObserveCacheAndLock(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.ObserveCache("hit")
	m.ObserveCache("miss")
	m.ObserveLockWait(0.002)

	assert.Equal(t, 2, gather(t, reg, "availability_cache_total"))
	assert.Equal(t, 1, gather(t, reg, "booking_lock_wait_seconds"))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBooking("create", OutcomeError)
		m.ObserveLockWait(1)
		m.ObserveCache("miss")
	})
}
