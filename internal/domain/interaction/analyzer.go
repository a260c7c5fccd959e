// Package interaction summarizes how a candidate pet relates to the pets a user
// has already liked or disliked.
package interaction

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/pawmatch/internal/domain/model"
)

// NoPattern is emitted instead of percentages when a history set is empty.
const NoPattern = "no pattern yet"

// Trait is one compared attribute.
type Trait string

const (
	TraitSpecies   Trait = "species"
	TraitSize      Trait = "size"
	TraitAge       Trait = "age"
	TraitInterests Trait = "shared interests"
)

// Traits lists the compared attributes in summary order.
var Traits = []Trait{TraitSpecies, TraitSize, TraitAge, TraitInterests}

// PatternStats counts, for one history set, how many pets share each trait with
// the candidate.
type PatternStats struct {
	Total           int
	SpeciesMatches  int
	SizeMatches     int
	AgeMatches      int
	InterestMatches int
}

// Stats holds the pattern counts for both history sets.
type Stats struct {
	Favorites PatternStats
	Dislikes  PatternStats
}

// Analyze compares candidate against the liked and disliked pets. It is pure:
// identical inputs give identical output.
func Analyze(candidate model.Pet, liked, disliked []model.Pet) Stats {
	return Stats{
		Favorites: count(candidate, liked),
		Dislikes:  count(candidate, disliked),
	}
}

func count(candidate model.Pet, history []model.Pet) PatternStats {
	interests := interestSet(candidate.Interests)
	ps := PatternStats{Total: len(history)}
	for _, p := range history {
		if p.Species == candidate.Species {
			ps.SpeciesMatches++
		}
		if p.Size == candidate.Size {
			ps.SizeMatches++
		}
		if p.Age == candidate.Age {
			ps.AgeMatches++
		}
		if sharesInterest(interests, p.Interests) {
			ps.InterestMatches++
		}
	}
	return ps
}

func interestSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

func sharesInterest(set map[string]struct{}, tags []string) bool {
	for _, t := range tags {
		if _, ok := set[strings.ToLower(strings.TrimSpace(t))]; ok {
			return true
		}
	}
	return false
}

// Empty reports whether the history set had no pets.
func (s PatternStats) Empty() bool { return s.Total == 0 }

// Matches returns the raw match count for trait.
func (s PatternStats) Matches(t Trait) int {
	switch t {
	case TraitSpecies:
		return s.SpeciesMatches
	case TraitSize:
		return s.SizeMatches
	case TraitAge:
		return s.AgeMatches
	case TraitInterests:
		return s.InterestMatches
	default:
		return 0
	}
}

// Percent returns the share of the set matching trait, rounded half away from
// zero. It returns 0 for an empty set; use Empty to tell the cases apart.
func (s PatternStats) Percent(t Trait) int {
	if s.Total == 0 {
		return 0
	}
	return int(math.Round(float64(s.Matches(t)) * 100 / float64(s.Total)))
}

// Summary renders the stats as one line, e.g.
// "Favorites (4 pets): species 75%, size 50%, age 25%, shared interests 100%".
func (s PatternStats) Summary(label string) string {
	if s.Empty() {
		return fmt.Sprintf("%s: %s", label, NoPattern)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d pets): ", label, s.Total)
	for i, t := range Traits {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %d%%", t, s.Percent(t))
	}
	return b.String()
}

// FavoriteSummary renders the liked-set statistics.
func (s Stats) FavoriteSummary() string { return s.Favorites.Summary("Favorites") }

// DislikeSummary renders the disliked-set statistics.
func (s Stats) DislikeSummary() string { return s.Dislikes.Summary("Dislikes") }
