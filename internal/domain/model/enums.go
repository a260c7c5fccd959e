package model

import (
	"fmt"
	"strings"
)

// Species is the animal kind of a pet. SpeciesAny is only meaningful in
// preferences.
type Species string

const (
	SpeciesDog         Species = "dog"
	SpeciesCat         Species = "cat"
	SpeciesRabbit      Species = "rabbit"
	SpeciesBird        Species = "bird"
	SpeciesSmallMammal Species = "small_mammal"
	SpeciesReptile     Species = "reptile"
	SpeciesOther       Species = "other"
	SpeciesAny         Species = "any"
)

var speciesValues = []Species{
	SpeciesDog, SpeciesCat, SpeciesRabbit, SpeciesBird,
	SpeciesSmallMammal, SpeciesReptile, SpeciesOther, SpeciesAny,
}

// ParseSpecies converts raw input into a Species.
func ParseSpecies(raw string) (Species, error) {
	return parseEnum(raw, "species", speciesValues)
}

// Size is the adult body size class of a pet.
type Size string

const (
	SizeSmall      Size = "small"
	SizeMedium     Size = "medium"
	SizeLarge      Size = "large"
	SizeExtraLarge Size = "extra_large"
	SizeAny        Size = "any"
)

var sizeValues = []Size{SizeSmall, SizeMedium, SizeLarge, SizeExtraLarge, SizeAny}

// ParseSize converts raw input into a Size.
func ParseSize(raw string) (Size, error) {
	return parseEnum(raw, "size", sizeValues)
}

// AgeGroup buckets a pet's age.
type AgeGroup string

const (
	AgeBaby   AgeGroup = "baby"
	AgeYoung  AgeGroup = "young"
	AgeAdult  AgeGroup = "adult"
	AgeSenior AgeGroup = "senior"
)

var ageValues = []AgeGroup{AgeBaby, AgeYoung, AgeAdult, AgeSenior}

// ParseAgeGroup converts raw input into an AgeGroup.
func ParseAgeGroup(raw string) (AgeGroup, error) {
	return parseEnum(raw, "age group", ageValues)
}

// Ordinal returns the position of the age group from youngest (0) to oldest.
// Unknown groups return -1.
func (a AgeGroup) Ordinal() int {
	for i, v := range ageValues {
		if v == a {
			return i
		}
	}
	return -1
}

// ActivityLevel describes how active the adopter's household is.
type ActivityLevel string

const (
	ActivityLow      ActivityLevel = "low"
	ActivityModerate ActivityLevel = "moderate"
	ActivityHigh     ActivityLevel = "high"
)

var activityValues = []ActivityLevel{ActivityLow, ActivityModerate, ActivityHigh}

// ParseActivityLevel converts raw input into an ActivityLevel.
func ParseActivityLevel(raw string) (ActivityLevel, error) {
	return parseEnum(raw, "activity level", activityValues)
}

// Experience is the adopter's prior pet-keeping experience.
type Experience string

const (
	ExperienceFirstTime   Experience = "first_time"
	ExperienceSome        Experience = "some"
	ExperienceExperienced Experience = "experienced"
)

var experienceValues = []Experience{ExperienceFirstTime, ExperienceSome, ExperienceExperienced}

// ParseExperience converts raw input into an Experience.
func ParseExperience(raw string) (Experience, error) {
	return parseEnum(raw, "experience", experienceValues)
}

// LivingSpace is the adopter's home type.
type LivingSpace string

const (
	LivingApartment     LivingSpace = "apartment"
	LivingHouse         LivingSpace = "house"
	LivingHouseWithYard LivingSpace = "house_with_yard"
	LivingFarm          LivingSpace = "farm"
)

var livingValues = []LivingSpace{LivingApartment, LivingHouse, LivingHouseWithYard, LivingFarm}

// ParseLivingSpace converts raw input into a LivingSpace.
func ParseLivingSpace(raw string) (LivingSpace, error) {
	return parseEnum(raw, "living space", livingValues)
}

func parseEnum[T ~string](raw, what string, allowed []T) (T, error) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for _, v := range allowed {
		if string(v) == norm {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %s %q", ErrUnknownValue, what, raw)
}
