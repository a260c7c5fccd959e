package scoring

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/okian/pawmatch/internal/domain/interaction"
	"github.com/okian/pawmatch/internal/domain/model"
)

const (
	defaultMinLatency = 80 * time.Millisecond
	defaultMaxLatency = 150 * time.Millisecond
	defaultRandomSeed = 42
)

// SimulatedOracle is an in-process Oracle that approximates the rubric from the
// structured request. Scores are deterministic; only the latency is random.
type SimulatedOracle struct {
	minLatency time.Duration
	maxLatency time.Duration
	seed       int64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedOracle creates a simulated judge.
func NewSimulatedOracle(opts ...SimulatedOption) *SimulatedOracle {
	s := &SimulatedOracle{
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
		seed:       defaultRandomSeed,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rng = rand.New(rand.NewSource(s.seed)) //nolint:gosec // reproducible latency
	return s
}

// Judge waits the simulated latency and answers with a score.
func (s *SimulatedOracle) Judge(ctx context.Context, req Request) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	case <-time.After(s.latency()):
	}
	return strconv.FormatFloat(Estimate(req.Pet, req.Preferences, req.Stats), 'f', 1, 64), nil
}

func (s *SimulatedOracle) latency() time.Duration {
	span := s.maxLatency - s.minLatency
	if span <= 0 {
		return s.minLatency
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minLatency + time.Duration(s.rng.Int63n(int64(span)))
}

// Estimate scores a pet with a fixed heuristic following Rubric weights.
func Estimate(pet model.Pet, prefs model.Preferences, stats interaction.Stats) float64 {
	score := 0.0

	// species 15
	if prefs.Species == model.SpeciesAny || prefs.Species == pet.Species {
		score += 15
	}

	// breed 15: liked-species share stands in for breed affinity
	if stats.Favorites.Empty() {
		score += 7.5
	} else {
		score += 15 * float64(stats.Favorites.Percent(interaction.TraitSpecies)) / 100
	}

	// size 10
	switch d := sizeDistance(prefs.Size, pet.Size); {
	case d == 0:
		score += 10
	case d == 1:
		score += 5
	}

	// activity and living space 15
	score += livingFit(prefs, pet)

	// experience 15
	score += experienceFit(prefs.Experience, pet)

	// age and location 15
	if prefs.AgeRange == nil || prefs.AgeRange.Contains(pet.Age) {
		score += 15
	} else {
		score += 5
	}

	// lifestyle 10
	score += lifestyleFit(prefs, pet)

	// history 5
	if !stats.Favorites.Empty() || !stats.Dislikes.Empty() {
		liked := float64(stats.Favorites.Percent(interaction.TraitSpecies))
		disliked := float64(stats.Dislikes.Percent(interaction.TraitSpecies))
		score += 2.5 + 2.5*(liked-disliked)/100
	} else {
		score += 2.5
	}

	return model.ClampScore(score)
}

var sizeOrder = map[model.Size]int{
	model.SizeSmall:      0,
	model.SizeMedium:     1,
	model.SizeLarge:      2,
	model.SizeExtraLarge: 3,
}

func sizeDistance(want, got model.Size) int {
	if want == model.SizeAny {
		return 0
	}
	w, ok1 := sizeOrder[want]
	g, ok2 := sizeOrder[got]
	if !ok1 || !ok2 {
		return 2
	}
	if w > g {
		return w - g
	}
	return g - w
}

func livingFit(prefs model.Preferences, pet model.Pet) float64 {
	big := pet.Size == model.SizeLarge || pet.Size == model.SizeExtraLarge
	switch prefs.LivingSpace {
	case model.LivingApartment:
		if big && pet.Species == model.SpeciesDog {
			return 4
		}
		if prefs.ActivityLevel == model.ActivityHigh {
			return 10
		}
		return 13
	case model.LivingHouseWithYard, model.LivingFarm:
		if prefs.ActivityLevel == model.ActivityLow && big {
			return 10
		}
		return 15
	default:
		return 12
	}
}

func experienceFit(exp model.Experience, pet model.Pet) float64 {
	demanding := pet.Species == model.SpeciesReptile || pet.Size == model.SizeExtraLarge
	switch exp {
	case model.ExperienceExperienced:
		return 15
	case model.ExperienceSome:
		if demanding {
			return 11
		}
		return 15
	default:
		if demanding {
			return 6
		}
		return 12
	}
}

func lifestyleFit(prefs model.Preferences, pet model.Pet) float64 {
	fit := 10.0
	if prefs.HasChildren && (pet.Species == model.SpeciesReptile || pet.Age == model.AgeBaby) {
		fit -= 4
	}
	if prefs.HasOtherPets && pet.Species == model.SpeciesBird {
		fit -= 3
	}
	return fit
}
