package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errIssuerDown = errors.New("issuer down")

func TestCircuitBreaker_OpensAfterThresholdAndRecovers(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "test", FailureThreshold: 3, SuccessThreshold: 2, OpenTimeout: time.Minute})
	cb.now = func() time.Time { return now }
	fail := func() error { return errIssuerDown }
	ok := func() error { return nil }

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(fail), errIssuerDown)
	}
	assert.Equal(t, CBOpen, cb.State())

	calls := 0
	err := cb.Execute(func() error { calls++; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Zero(t, calls)

	now = now.Add(time.Minute)
	assert.Equal(t, CBHalfOpen, cb.State())
	assert.NoError(t, cb.Execute(ok))
	assert.Equal(t, CBHalfOpen, cb.State())
	assert.NoError(t, cb.Execute(ok))
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "test", FailureThreshold: 1, OpenTimeout: time.Second})
	cb.now = func() time.Time { return now }

	_ = cb.Execute(func() error { return errIssuerDown })
	now = now.Add(time.Second)
	assert.Equal(t, CBHalfOpen, cb.State())

	_ = cb.Execute(func() error { return errIssuerDown })
	assert.Equal(t, CBOpen, cb.State())
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "test", FailureThreshold: 2})

	_ = cb.Execute(func() error { return errIssuerDown })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return errIssuerDown })

	assert.Equal(t, CBClosed, cb.State())
}

func TestDefaultCBConfig(t *testing.T) {
	cfg := DefaultCBConfig("focusnfe")
	assert.Equal(t, "focusnfe", cfg.Name)
	assert.Equal(t, 5, cfg.FailureThreshold)
	assert.Equal(t, 60*time.Second, cfg.OpenTimeout)
}
