// Package profile reads a user's preferences and like/dislike history from the
// profile store and validates them at the boundary.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/pawmatch/internal/domain/model"
	"github.com/okian/pawmatch/internal/validation"
)

// Snapshot is the engine's view of a profile at one instant.
type Snapshot struct {
	UserID      string
	Preferences model.Preferences
	// PreferencesLastUpdated is the zero time when the store never recorded an edit.
	PreferencesLastUpdated time.Time
	// PreferencesStamped is false when the document carries no edit time. Cached
	// scores cannot be proven fresh against such a profile.
	PreferencesStamped bool
	LikedIDs           map[string]struct{}
	DislikedIDs        map[string]struct{}
	// ReadAt is when the snapshot was taken; scores computed from it are stamped
	// with this time.
	ReadAt time.Time
}

// Reader turns store documents into snapshots.
type Reader struct {
	store Store
	now   func() time.Time
}

// Option configures a Reader.
type Option func(*Reader)

// WithClock overrides the clock used to stamp ReadAt.
func WithClock(now func() time.Time) Option {
	return func(r *Reader) {
		if now != nil {
			r.now = now
		}
	}
}

// NewReader creates a Reader over store.
func NewReader(store Store, opts ...Option) *Reader {
	r := &Reader{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read loads the profile of userID.
//
// On ErrPreferencesMissing and ErrInvalidPreferences the returned snapshot still
// carries the history sets and timestamps, only Preferences is empty.
func (r *Reader) Read(ctx context.Context, userID string) (Snapshot, error) {
	readAt := r.now()
	doc, err := r.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoDocument) {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrProfileNotFound, userID)
		}
		return Snapshot{}, fmt.Errorf("read profile %s: %w", userID, err)
	}

	snap := Snapshot{
		UserID:      userID,
		LikedIDs:    toSet(doc.LikedPets),
		DislikedIDs: toSet(doc.DislikedPets),
		ReadAt:      readAt,
	}
	if doc.PreferencesLastUpdated != nil {
		snap.PreferencesLastUpdated = *doc.PreferencesLastUpdated
		snap.PreferencesStamped = true
	}

	if doc.BuyerPreferences == nil {
		return snap, ErrPreferencesMissing
	}
	prefs, err := ParsePreferences(*doc.BuyerPreferences)
	if err != nil {
		return snap, err
	}
	snap.Preferences = prefs
	return snap, nil
}

// ParsePreferences validates raw preferences and converts them to model types.
func ParsePreferences(raw RawPreferences) (model.Preferences, error) {
	if err := validation.Struct(raw); err != nil {
		return model.Preferences{}, fmt.Errorf("%w: %w", ErrInvalidPreferences, err)
	}

	var (
		p   model.Preferences
		err error
	)
	if p.Species, err = model.ParseSpecies(raw.Species); err != nil {
		return model.Preferences{}, fmt.Errorf("%w: %w", ErrInvalidPreferences, err)
	}
	if p.Size, err = model.ParseSize(raw.Size); err != nil {
		return model.Preferences{}, fmt.Errorf("%w: %w", ErrInvalidPreferences, err)
	}
	if p.ActivityLevel, err = model.ParseActivityLevel(raw.ActivityLevel); err != nil {
		return model.Preferences{}, fmt.Errorf("%w: %w", ErrInvalidPreferences, err)
	}
	if p.Experience, err = model.ParseExperience(raw.Experience); err != nil {
		return model.Preferences{}, fmt.Errorf("%w: %w", ErrInvalidPreferences, err)
	}
	if p.LivingSpace, err = model.ParseLivingSpace(raw.LivingSpace); err != nil {
		return model.Preferences{}, fmt.Errorf("%w: %w", ErrInvalidPreferences, err)
	}
	if len(raw.AgeRange) == 2 {
		lo, err := model.ParseAgeGroup(raw.AgeRange[0])
		if err != nil {
			return model.Preferences{}, fmt.Errorf("%w: %w", ErrInvalidPreferences, err)
		}
		hi, err := model.ParseAgeGroup(raw.AgeRange[1])
		if err != nil {
			return model.Preferences{}, fmt.Errorf("%w: %w", ErrInvalidPreferences, err)
		}
		if lo.Ordinal() > hi.Ordinal() {
			return model.Preferences{}, fmt.Errorf("%w: age range %s..%s is inverted", ErrInvalidPreferences, lo, hi)
		}
		p.AgeRange = &model.AgeRange{Min: lo, Max: hi}
	}
	p.MaxDistanceKm = raw.MaxDistanceKm
	p.HasChildren = raw.HasChildren
	p.HasOtherPets = raw.HasOtherPets
	return p, nil
}

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			out[id] = struct{}{}
		}
	}
	return out
}
