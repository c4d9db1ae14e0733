// Package health serves the liveness and readiness probes.
//
//   - /healthz always answers 200 while the process can serve HTTP.
//   - /readyz answers 200 only when every registered [Checker] passes.
//
// Both respond with {"status": "ok"|"fail", "checks": {...}}.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/pronuncia/internal/resilience"
)

// checkTimeout bounds a single readiness check.
const checkTimeout = 5 * time.Second

// Checker is a named readiness check. Check returns nil when the dependency
// is usable.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

// Pinger is implemented by connection pools and clients that can be probed,
// such as the attempt store and the score cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck returns a Checker that pings p.
func PingCheck(name string, p Pinger) Checker {
	return Checker{Name: name, Check: p.Ping}
}

// BreakerCheck returns a Checker that fails when every breaker reported by
// states is open. A single healthy backend keeps the group usable.
func BreakerCheck(name string, states func() map[string]resilience.State) Checker {
	return Checker{Name: name, Check: func(context.Context) error {
		st := states()
		var open []string
		for n, s := range st {
			if s == resilience.StateOpen {
				open = append(open, n)
			}
		}
		if len(st) > 0 && len(open) == len(st) {
			sort.Strings(open)
			return fmt.Errorf("all circuits open: %s", strings.Join(open, ", "))
		}
		return nil
	}}
}

type result struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler serves the probe endpoints. The checker list is fixed at
// construction time.
type Handler struct {
	checkers []Checker
}

// New returns a Handler evaluating checkers on each /readyz request.
func New(checkers ...Checker) *Handler {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &Handler{checkers: c}
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, result{Status: "ok"})
}

// Readyz runs all checkers concurrently, each with its own [checkTimeout].
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	var (
		mu     sync.Mutex
		checks = make(map[string]string, len(h.checkers))
		g      errgroup.Group
	)
	for _, c := range h.checkers {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
			defer cancel()
			err := c.Check(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				checks[c.Name] = "fail: " + err.Error()
				return err
			}
			checks[c.Name] = "ok"
			return nil
		})
	}
	err := g.Wait()

	res := result{Status: "ok", Checks: checks}
	status := http.StatusOK
	if err != nil {
		res.Status = "fail"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, res)
}

// Register mounts /healthz and /readyz on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
