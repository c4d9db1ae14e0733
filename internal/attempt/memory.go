package attempt

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a [Store] that keeps the most recent attempts of each user
// in memory. Older attempts are evicted once a user exceeds the per-user
// limit.
type MemoryStore struct {
	limit int
	now   func() time.Time

	mu     sync.RWMutex
	byUser map[string][]Attempt
	byID   map[uuid.UUID]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns a MemoryStore keeping up to perUser attempts per
// user. A non-positive perUser means 100.
func NewMemoryStore(perUser int) *MemoryStore {
	if perUser <= 0 {
		perUser = 100
	}
	return &MemoryStore{
		limit:  perUser,
		now:    time.Now,
		byUser: make(map[string][]Attempt),
		byID:   make(map[uuid.UUID]string),
	}
}

// Record implements [Store].
func (s *MemoryStore) Record(_ context.Context, a *Attempt) error {
	if err := a.Validate(); err != nil {
		return err
	}
	a.prepare(s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.byUser[a.UserID], *a)
	if over := len(list) - s.limit; over > 0 {
		for _, old := range list[:over] {
			delete(s.byID, old.ID)
		}
		list = append([]Attempt(nil), list[over:]...)
	}
	s.byUser[a.UserID] = list
	s.byID[a.ID] = a.UserID
	return nil
}

// Get implements [Store].
func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	for _, a := range s.byUser[user] {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

// ListByUser implements [Store].
func (s *MemoryStore) ListByUser(_ context.Context, userID string, limit int) ([]Attempt, error) {
	limit = clampLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.byUser[userID]
	out := make([]Attempt, 0, min(limit, len(list)))
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

// Ping implements [Store]. It always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }
