package repository

import "time"

// ProfileOption configures a ProfileStore.
type ProfileOption func(*ProfileStore)

// WithClock sets the clock used to stamp preference edits.
func WithClock(now func() time.Time) ProfileOption {
	return func(s *ProfileStore) {
		if now != nil {
			s.now = now
		}
	}
}
