// Package attempt records evaluation attempts so a user's progress can be
// reviewed later.
//
// Two [Store] implementations exist: [MemoryStore], which keeps a bounded
// history per user in process memory, and [PostgresStore], which persists
// attempts with pgx. Both are safe for concurrent use.
package attempt

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/pronuncia/internal/scoring"
)

// ErrNotFound is returned by [Store.Get] when no attempt has the given ID.
var ErrNotFound = errors.New("attempt: not found")

// DefaultListLimit is used by [Store.ListByUser] when limit is not positive.
const DefaultListLimit = 20

// MaxListLimit caps the number of attempts returned by one listing.
const MaxListLimit = 200

// Attempt is one scored utterance.
type Attempt struct {
	ID                    uuid.UUID      `json:"id"`
	UserID                string         `json:"user_id"`
	Expected              string         `json:"expected"`
	Transcript            string         `json:"transcript"`
	AudioName             string         `json:"audio_name,omitempty"`
	TranscriptionProvider string         `json:"transcription_provider,omitempty"`
	Result                scoring.Result `json:"result"`
	CreatedAt             time.Time      `json:"created_at"`
}

// Validate reports whether a can be stored.
func (a *Attempt) Validate() error {
	if strings.TrimSpace(a.UserID) == "" {
		return errors.New("attempt: user_id must not be empty")
	}
	return nil
}

// prepare assigns an ID and timestamp to a fresh attempt.
func (a *Attempt) prepare(now time.Time) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now.UTC()
	}
}

// Store persists attempts.
type Store interface {
	// Record validates and stores a. It fills in ID and CreatedAt when they
	// are unset.
	Record(ctx context.Context, a *Attempt) error

	// Get returns the attempt with the given ID or [ErrNotFound].
	Get(ctx context.Context, id uuid.UUID) (*Attempt, error)

	// ListByUser returns up to limit attempts of userID, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]Attempt, error)

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
