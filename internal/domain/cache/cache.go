// Package cache stores computed match scores per (user, pet) and decides
// whether a stored score is still fresh.
package cache

import (
	"context"
	"time"
)

// Key identifies one user's score for one pet. Scores are never shared across
// users.
type Key struct {
	UserID string
	PetID  string
}

// Entry is a stored score and the instant it was computed.
type Entry struct {
	Score      float64   `json:"score"`
	ComputedAt time.Time `json:"computed_at"`
}

// Store holds score entries. Implementations must be safe for concurrent use;
// concurrent writers to the same key race and the last completed write wins.
type Store interface {
	// Get returns the entry for key and whether one exists.
	Get(ctx context.Context, key Key) (Entry, bool, error)
	// Put overwrites the entry for key. A zero ComputedAt is stamped with the
	// store clock.
	Put(ctx context.Context, key Key, e Entry) error
	// Invalidate removes the entry for key.
	Invalidate(ctx context.Context, key Key) error
	// Len reports the number of stored entries.
	Len(ctx context.Context) (int, error)
}

// IsValid reports whether e was computed at or after the user's last
// preference edit. A zero preferencesLastUpdated means no edit was recorded.
func IsValid(e Entry, preferencesLastUpdated time.Time) bool {
	return !e.ComputedAt.Before(preferencesLastUpdated)
}
