package infra

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// CBState is the state of a CircuitBreaker.
//   - closed:    calls pass through
//   - open:      calls fail fast until OpenTimeout elapses
//   - half-open: calls probe the dependency; SuccessThreshold successes close it
type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned by Execute while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
}

// DefaultCBConfig returns the settings used for the fiscal issuer.
func DefaultCBConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      60 * time.Second,
	}
}

// CircuitBreaker guards calls to an unreliable dependency. Safe for
// concurrent use by the worker pool.
type CircuitBreaker struct {
	mu        sync.Mutex
	cfg       CircuitBreakerConfig
	state     CBState
	failures  int
	successes int
	openedAt  time.Time
	now       func() time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 60 * time.Second
	}
	return &CircuitBreaker{cfg: cfg, state: CBClosed, now: time.Now}
}

// State returns the current state, moving open to half-open once the
// timeout has elapsed.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentLocked()
}

func (cb *CircuitBreaker) currentLocked() CBState {
	if cb.state == CBOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.OpenTimeout {
		cb.transitionLocked(CBHalfOpen)
	}
	return cb.state
}

// Execute runs fn unless the breaker is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.currentLocked() == CBOpen {
		cb.mu.Unlock()
		return ErrCircuitOpen
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.failures++
		switch cb.state {
		case CBClosed:
			if cb.failures >= cb.cfg.FailureThreshold {
				cb.transitionLocked(CBOpen)
			}
		case CBHalfOpen:
			cb.transitionLocked(CBOpen)
		}
		return err
	}

	switch cb.state {
	case CBClosed:
		cb.failures = 0
	case CBHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.transitionLocked(CBClosed)
		}
	}
	return nil
}

func (cb *CircuitBreaker) transitionLocked(to CBState) {
	if cb.state == to {
		return
	}
	log.Warn().Str("breaker", cb.cfg.Name).Str("from", cb.state.String()).Str("to", to.String()).Msg("circuit breaker state change")
	cb.state = to
	cb.failures = 0
	cb.successes = 0
	if to == CBOpen {
		cb.openedAt = cb.now()
	}
}
