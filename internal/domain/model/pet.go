// Package model contains the domain types shared by the matching engine.
package model

import (
	"errors"
	"math"
	"time"
)

// Score bounds and the neutral fallback value.
const (
	MinScore     = 1.0
	MaxScore     = 100.0
	NeutralScore = 50.0
)

// ErrUnknownValue is returned by the Parse* helpers for values outside an enumeration.
var ErrUnknownValue = errors.New("unknown enumeration value")

// Pet is a catalog record. The engine treats it as read-only.
type Pet struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Species     Species  `json:"species" yaml:"species"`
	Breed       string   `json:"breed" yaml:"breed"`
	Size        Size     `json:"size" yaml:"size"`
	Age         AgeGroup `json:"age" yaml:"age"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Interests   []string `json:"interests,omitempty" yaml:"interests"`
	Location    string   `json:"location,omitempty" yaml:"location"`
}

// AgeRange bounds acceptable pet ages, inclusive on both ends.
type AgeRange struct {
	Min AgeGroup `json:"min"`
	Max AgeGroup `json:"max"`
}

// Contains reports whether age falls inside the range.
func (r AgeRange) Contains(age AgeGroup) bool {
	o := age.Ordinal()
	return o >= r.Min.Ordinal() && o <= r.Max.Ordinal()
}

// Preferences are an adopter's stated wishes, already validated.
type Preferences struct {
	Species       Species       `json:"species"`
	Size          Size          `json:"size"`
	ActivityLevel ActivityLevel `json:"activity_level"`
	Experience    Experience    `json:"experience"`
	LivingSpace   LivingSpace   `json:"living_space"`
	MaxDistanceKm float64       `json:"max_distance_km"`
	AgeRange      *AgeRange     `json:"age_range,omitempty"`
	HasChildren   bool          `json:"has_children"`
	HasOtherPets  bool          `json:"has_other_pets"`
}

// ScoreOrigin records where a ranked score came from.
type ScoreOrigin string

const (
	OriginFresh    ScoreOrigin = "fresh"
	OriginCached   ScoreOrigin = "cached"
	OriginNeutral  ScoreOrigin = "neutral"
	OriginFallback ScoreOrigin = "fallback"
)

// ScoredPet is a pet together with the score valid when it was assembled.
type ScoredPet struct {
	Pet    Pet         `json:"pet"`
	Score  float64     `json:"score"`
	Origin ScoreOrigin `json:"origin"`
}

// RankMode tells whether a list was scored or filled with neutral scores.
type RankMode string

const (
	ModeScored  RankMode = "scored"
	ModeNeutral RankMode = "neutral"
)

// RankedList is an ordered match list for one user.
type RankedList struct {
	UserID      string      `json:"user_id"`
	Pets        []ScoredPet `json:"pets"`
	Mode        RankMode    `json:"mode"`
	Generation  uint64      `json:"generation"`
	AssembledAt time.Time   `json:"assembled_at"`
}

// Find returns the scored entry for petID.
func (l RankedList) Find(petID string) (ScoredPet, bool) {
	for _, p := range l.Pets {
		if p.Pet.ID == petID {
			return p, true
		}
	}
	return ScoredPet{}, false
}

// ClampScore forces s into [MinScore, MaxScore]. NaN maps to NeutralScore.
func ClampScore(s float64) float64 {
	if math.IsNaN(s) {
		return NeutralScore
	}
	return math.Max(MinScore, math.Min(MaxScore, s))
}
