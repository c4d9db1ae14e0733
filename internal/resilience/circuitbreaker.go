// Package resilience provides a circuit breaker and failover across chat and
// transcription backends.
//
// [CircuitBreaker] is a three-state breaker (closed, open, half-open).
// [Group] tries a list of named backends in order, each behind its own
// breaker, so a provider that keeps failing is skipped until it has had time
// to recover. [Chat] and [Transcriber] wrap a Group behind the provider
// interfaces the rest of the server consumes.
//
// All types are safe for concurrent use.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [CircuitBreaker.Execute] while the breaker is
// open.
var ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

// State is the operating mode of a [CircuitBreaker].
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota

	// StateOpen rejects calls with [ErrCircuitOpen] until ResetTimeout has
	// passed since the last failure.
	StateOpen

	// StateHalfOpen lets up to HalfOpenMax probe calls through. All probes
	// succeeding closes the breaker; any failure re-opens it.
	StateHalfOpen
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds tuning knobs for a [CircuitBreaker].
type CircuitBreakerConfig struct {
	// Name labels the breaker in logs.
	Name string

	// MaxFailures is the number of consecutive failures that opens the
	// breaker. Default: 5.
	MaxFailures int

	// ResetTimeout is how long the breaker stays open. Default: 30s.
	ResetTimeout time.Duration

	// HalfOpenMax is the number of probe calls in the half-open state.
	// Default: 3.
	HalfOpenMax int
}

// CircuitBreaker implements the three-state circuit breaker pattern.
type CircuitBreaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration
	halfOpenMax  int
	now          func() time.Time

	mu            sync.Mutex
	state         State
	failures      int
	openedAt      time.Time
	probes        int
	probeOK int
}

// NewCircuitBreaker creates a [CircuitBreaker]. Zero-value config fields are
// replaced with defaults.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 3
	}
	return &CircuitBreaker{
		name:         cfg.Name,
		maxFailures:  cfg.MaxFailures,
		resetTimeout: cfg.ResetTimeout,
		halfOpenMax:  cfg.HalfOpenMax,
		now:          time.Now,
	}
}

// Name returns the breaker's label.
func (cb *CircuitBreaker) Name() string { return cb.name }

// Execute runs fn if the breaker allows it and records the outcome.
// Caller cancellation and errors a [Group] marks permanent leave the counters
// untouched.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	probe, err := cb.admit()
	if err != nil {
		return err
	}

	err = fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch {
	case errors.Is(err, context.Canceled) || isPermanent(err):
		if probe {
			cb.probes--
		}
	case err != nil:
		cb.onFailure(probe)
	default:
		cb.onSuccess(probe)
	}
	return err
}

// admit decides whether a call may proceed and whether it is a probe.
func (cb *CircuitBreaker) admit() (probe bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if cb.now().Sub(cb.openedAt) < cb.resetTimeout {
			return false, ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		cb.probes, cb.probeOK = 0, 0
		slog.Info("circuit breaker half-open", "name", cb.name)
	}
	if cb.state == StateHalfOpen {
		if cb.probes >= cb.halfOpenMax {
			return false, ErrCircuitOpen
		}
		cb.probes++
		return true, nil
	}
	return false, nil
}

// onFailure must be called with cb.mu held.
func (cb *CircuitBreaker) onFailure(probe bool) {
	if probe {
		cb.trip()
		slog.Warn("circuit breaker re-opened by failed probe", "name", cb.name)
		return
	}
	cb.failures++
	if cb.state == StateClosed && cb.failures >= cb.maxFailures {
		cb.trip()
		slog.Warn("circuit breaker opened", "name", cb.name, "consecutive_failures", cb.failures)
	}
}

// onSuccess must be called with cb.mu held.
func (cb *CircuitBreaker) onSuccess(probe bool) {
	if !probe {
		cb.failures = 0
		return
	}
	cb.probeOK++
	if cb.probeOK >= cb.halfOpenMax {
		cb.state = StateClosed
		cb.failures = 0
		slog.Info("circuit breaker closed", "name", cb.name)
	}
}

func (cb *CircuitBreaker) trip() {
	cb.state = StateOpen
	cb.openedAt = cb.now()
	cb.failures = cb.maxFailures
}

// State returns the current [State]. An open breaker whose timeout has passed
// reports [StateHalfOpen]; the transition itself happens on the next call.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.resetTimeout {
		return StateHalfOpen
	}
	return cb.state
}

// Reset forces the breaker back to [StateClosed].
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failures = 0
	cb.probes, cb.probeOK = 0, 0
}
