package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/pawmatch/internal/domain/profile"
)

// ProfileStore is an in-memory profile store. It owns preferences_last_updated
// and only ever moves it forward.
type ProfileStore struct {
	mu   sync.RWMutex
	docs map[string]profile.Document
	now  func() time.Time
}

var _ profile.Store = (*ProfileStore)(nil)

// NewProfileStore creates a store holding docs.
func NewProfileStore(docs []profile.Document, opts ...ProfileOption) *ProfileStore {
	s := &ProfileStore{
		docs: make(map[string]profile.Document, len(docs)),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, d := range docs {
		s.docs[d.UserID] = cloneDoc(d)
	}
	return s
}

// GetProfile returns a copy of the user's document.
func (s *ProfileStore) GetProfile(ctx context.Context, userID string) (profile.Document, error) {
	if err := ctx.Err(); err != nil {
		return profile.Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[userID]
	if !ok {
		return profile.Document{}, fmt.Errorf("user %s: %w", userID, profile.ErrNoDocument)
	}
	return cloneDoc(d), nil
}

// UpdatePreferences stores new preferences and advances the edit timestamp.
// The timestamp never goes backwards, even if the clock does.
func (s *ProfileStore) UpdatePreferences(_ context.Context, userID string, raw profile.RawPreferences) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[userID]
	if !ok {
		d = profile.Document{UserID: userID}
	}
	at := s.now()
	if d.PreferencesLastUpdated != nil && !at.After(*d.PreferencesLastUpdated) {
		at = d.PreferencesLastUpdated.Add(time.Nanosecond)
	}
	d.BuyerPreferences = &raw
	d.PreferencesLastUpdated = &at
	s.docs[userID] = d
	return at, nil
}

// Like records a liked pet and drops it from the disliked set.
func (s *ProfileStore) Like(ctx context.Context, userID, petID string) error {
	return s.react(ctx, userID, petID, true)
}

// Dislike records a disliked pet and drops it from the liked set.
func (s *ProfileStore) Dislike(ctx context.Context, userID, petID string) error {
	return s.react(ctx, userID, petID, false)
}

func (s *ProfileStore) react(_ context.Context, userID, petID string, like bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, profile.ErrNoDocument)
	}
	add, drop := &d.LikedPets, &d.DislikedPets
	if !like {
		add, drop = drop, add
	}
	*drop = slices.DeleteFunc(*drop, func(id string) bool { return id == petID })
	if !slices.Contains(*add, petID) {
		*add = append(*add, petID)
	}
	s.docs[userID] = d
	return nil
}

// Len returns the number of profiles.
func (s *ProfileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func cloneDoc(d profile.Document) profile.Document {
	if d.BuyerPreferences != nil {
		p := *d.BuyerPreferences
		p.AgeRange = slices.Clone(p.AgeRange)
		d.BuyerPreferences = &p
	}
	if d.PreferencesLastUpdated != nil {
		t := *d.PreferencesLastUpdated
		d.PreferencesLastUpdated = &t
	}
	d.LikedPets = slices.Clone(d.LikedPets)
	d.DislikedPets = slices.Clone(d.DislikedPets)
	return d
}
