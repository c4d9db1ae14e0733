package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every member of a [Group] failed or had an
// open breaker. The last member error is wrapped as well.
var ErrAllFailed = errors.New("resilience: all providers failed")

// GroupConfig configures a [Group].
type GroupConfig struct {
	// CircuitBreaker is the template for every member's breaker. Name is
	// replaced by the member name.
	CircuitBreaker CircuitBreakerConfig

	// Permanent reports errors caused by the request rather than the backend
	// (an empty upload, say). They are returned at once without failover.
	Permanent func(error) bool
}

type member[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// Group holds a primary and ordered fallbacks of the same provider type.
type Group[T any] struct {
	cfg     GroupConfig
	members []member[T]
}

// NewGroup returns a Group with primary as its first member.
func NewGroup[T any](primaryName string, primary T, cfg GroupConfig) *Group[T] {
	g := &Group[T]{cfg: cfg}
	g.Add(primaryName, primary)
	return g
}

// Add appends a fallback. Members are tried in the order they were added.
// Add must not be called concurrently with [Do].
func (g *Group[T]) Add(name string, value T) {
	cb := g.cfg.CircuitBreaker
	cb.Name = name
	g.members = append(g.members, member[T]{name: name, value: value, breaker: NewCircuitBreaker(cb)})
}

// Names returns the member names in try order.
func (g *Group[T]) Names() []string {
	names := make([]string, len(g.members))
	for i, m := range g.members {
		names[i] = m.name
	}
	return names
}

// States reports every member's breaker state.
func (g *Group[T]) States() map[string]State {
	out := make(map[string]State, len(g.members))
	for _, m := range g.members {
		out[m.name] = m.breaker.State()
	}
	return out
}

// Do calls fn on each member in order until one succeeds. It stops early when
// ctx is done or fn returns a permanent error.
func Do[T, R any](ctx context.Context, g *Group[T], fn func(name string, v T) (R, error)) (R, error) {
	var (
		zero    R
		lastErr error
	)
	for i := range g.members {
		m := &g.members[i]
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		var out R
		err := m.breaker.Execute(func() error {
			var err error
			out, err = fn(m.name, m.value)
			if err != nil && g.permanent(err) {
				return permanentError{err}
			}
			return err
		})
		if err == nil {
			return out, nil
		}
		var perm permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		lastErr = err
		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("skipping provider, circuit open", "provider", m.name)
			continue
		}
		slog.Warn("provider failed, trying next", "provider", m.name, "err", err)
	}
	return zero, fmt.Errorf("%w: %w", ErrAllFailed, lastErr)
}

func (g *Group[T]) permanent(err error) bool {
	return g.cfg.Permanent != nil && g.cfg.Permanent(err)
}

// permanentError marks an error that must not trip the breaker or fail over.
type permanentError struct{ err error }

func isPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }
