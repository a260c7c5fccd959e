package scoring

import (
	"fmt"
	"strings"

	"github.com/okian/pawmatch/internal/domain/interaction"
	"github.com/okian/pawmatch/internal/domain/model"
)

// Factor is one weighted part of the compatibility rubric.
type Factor struct {
	Name   string
	Weight int
}

// Rubric is the weighting the oracle is asked to follow. Weights sum to 100.
// The engine does not enforce it; only the output contract is checked.
var Rubric = []Factor{
	{Name: "species match", Weight: 15},
	{Name: "breed suitability", Weight: 15},
	{Name: "size compatibility", Weight: 10},
	{Name: "activity level and living space", Weight: 15},
	{Name: "experience requirements", Weight: 15},
	{Name: "age and location", Weight: 15},
	{Name: "lifestyle (children, other pets)", Weight: 10},
	{Name: "interaction history", Weight: 5},
}

const systemPrompt = "You are a pet adoption compatibility judge. " +
	"Score how well the pet suits the adopter from 1 to 100 using the rubric. " +
	"Reply with the number only."

// Request is a fully formatted scoring request. System and User carry the text
// sent to remote judges; the structured fields let in-process judges skip
// parsing.
type Request struct {
	System string
	User   string

	Pet         model.Pet
	Preferences model.Preferences
	Stats       interaction.Stats
}

// BuildRequest formats the request for one pet. Output is deterministic for
// identical inputs.
func BuildRequest(pet model.Pet, prefs model.Preferences, stats interaction.Stats) Request {
	var b strings.Builder

	b.WriteString("Pet:\n")
	fmt.Fprintf(&b, "- name: %s\n", pet.Name)
	fmt.Fprintf(&b, "- species: %s\n", pet.Species)
	fmt.Fprintf(&b, "- breed: %s\n", pet.Breed)
	fmt.Fprintf(&b, "- size: %s\n", pet.Size)
	fmt.Fprintf(&b, "- age: %s\n", pet.Age)
	fmt.Fprintf(&b, "- location: %s\n", pet.Location)
	fmt.Fprintf(&b, "- interests: %s\n", strings.Join(pet.Interests, ", "))
	fmt.Fprintf(&b, "- description: %s\n", pet.Description)

	b.WriteString("Adopter preferences:\n")
	fmt.Fprintf(&b, "- species: %s\n", prefs.Species)
	fmt.Fprintf(&b, "- size: %s\n", prefs.Size)
	fmt.Fprintf(&b, "- activity level: %s\n", prefs.ActivityLevel)
	fmt.Fprintf(&b, "- experience: %s\n", prefs.Experience)
	fmt.Fprintf(&b, "- living space: %s\n", prefs.LivingSpace)
	fmt.Fprintf(&b, "- max distance km: %g\n", prefs.MaxDistanceKm)
	if prefs.AgeRange != nil {
		fmt.Fprintf(&b, "- age range: %s to %s\n", prefs.AgeRange.Min, prefs.AgeRange.Max)
	} else {
		b.WriteString("- age range: any\n")
	}
	fmt.Fprintf(&b, "- has children: %t\n", prefs.HasChildren)
	fmt.Fprintf(&b, "- has other pets: %t\n", prefs.HasOtherPets)

	b.WriteString("Interaction history:\n")
	fmt.Fprintf(&b, "- %s\n", stats.FavoriteSummary())
	fmt.Fprintf(&b, "- %s\n", stats.DislikeSummary())

	b.WriteString("Rubric:\n")
	for _, f := range Rubric {
		fmt.Fprintf(&b, "- %s: %d%%\n", f.Name, f.Weight)
	}

	return Request{
		System:      systemPrompt,
		User:        b.String(),
		Pet:         pet,
		Preferences: prefs,
		Stats:       stats,
	}
}
