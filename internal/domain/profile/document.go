package profile

import (
	"context"
	"time"
)

// Document is the raw profile shape held by the profile store. Values are
// loosely typed; Reader turns them into model types.
type Document struct {
	UserID                 string          `yaml:"user_id" json:"user_id"`
	BuyerPreferences       *RawPreferences `yaml:"buyer_preferences" json:"buyer_preferences,omitempty"`
	PreferencesLastUpdated *time.Time      `yaml:"preferences_last_updated" json:"preferences_last_updated,omitempty"`
	LikedPets              []string        `yaml:"liked_pets" json:"liked_pets,omitempty"`
	DislikedPets           []string        `yaml:"disliked_pets" json:"disliked_pets,omitempty"`
}

// RawPreferences mirrors the preference form as stored.
type RawPreferences struct {
	Species       string   `yaml:"species" json:"species" validate:"required"`
	Size          string   `yaml:"size" json:"size" validate:"required"`
	ActivityLevel string   `yaml:"activity_level" json:"activity_level" validate:"required"`
	Experience    string   `yaml:"experience" json:"experience" validate:"required"`
	LivingSpace   string   `yaml:"living_space" json:"living_space" validate:"required"`
	MaxDistanceKm float64  `yaml:"max_distance_km" json:"max_distance_km" validate:"gte=0,lte=20000"`
	AgeRange      []string `yaml:"age_range" json:"age_range,omitempty" validate:"omitempty,len=2"`
	HasChildren   bool     `yaml:"has_children" json:"has_children"`
	HasOtherPets  bool     `yaml:"has_other_pets" json:"has_other_pets"`
}

// Store is the read contract of the external profile store.
type Store interface {
	// GetProfile returns the user's document or an error wrapping ErrNoDocument.
	GetProfile(ctx context.Context, userID string) (Document, error)
}
