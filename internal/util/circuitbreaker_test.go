package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestBreaker(threshold int, reset time.Duration) (*CircuitBreaker, *time.Time) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("test", threshold, reset, nil)
	cb.now = func() time.Time { return now }
	return cb, &now
}

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)

	cb.RecordFailure(0)
	cb.RecordFailure(0)
	require.Equal(t, CircuitStateClosed, cb.GetState())
	require.True(t, cb.CanExecute())

	cb.RecordFailure(0)
	require.Equal(t, CircuitStateOpen, cb.GetState())
	require.False(t, cb.CanExecute())

	status := cb.GetStatus()
	require.Equal(t, 3, status.FailureCount)
	require.NotNil(t, status.NextRetryTime)
}

func TestCircuitBreakerSuccessResetsCount(t *testing.T) {
	cb, _ := newTestBreaker(2, time.Minute)

	cb.RecordFailure(0)
	cb.RecordSuccess()
	cb.RecordFailure(0)
	require.Equal(t, CircuitStateClosed, cb.GetState())
}

func TestCircuitBreakerHalfOpenAdmitsOneProbe(t *testing.T) {
	cb, now := newTestBreaker(1, time.Minute)

	cb.RecordFailure(0)
	require.False(t, cb.CanExecute())

	*now = now.Add(time.Minute)
	require.Equal(t, CircuitStateHalfOpen, cb.GetState())
	require.True(t, cb.CanExecute())
	require.False(t, cb.CanExecute(), "second caller waits for the probe")

	cb.Release()
	require.True(t, cb.CanExecute(), "a released probe frees the slot")

	cb.RecordSuccess()
	require.Equal(t, CircuitStateClosed, cb.GetState())
}

func TestCircuitBreakerFailedProbeReopens(t *testing.T) {
	cb, now := newTestBreaker(1, time.Minute)

	cb.RecordFailure(0)
	*now = now.Add(time.Minute)
	require.True(t, cb.CanExecute())

	cb.RecordFailure(10 * time.Minute)
	require.Equal(t, CircuitStateOpen, cb.GetState())

	*now = now.Add(5 * time.Minute)
	require.Equal(t, CircuitStateOpen, cb.GetState(), "custom timeout applies")

	*now = now.Add(5 * time.Minute)
	require.Equal(t, CircuitStateHalfOpen, cb.GetState())

	cb.Reset()
	require.Equal(t, CircuitStateClosed, cb.GetState())
	require.Zero(t, cb.GetStatus().FailureCount)
}
