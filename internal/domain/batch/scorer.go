// Package batch scores a list of pets in fixed-size concurrent chunks and is
// the single place where failed judgments become the neutral score.
package batch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/pawmatch/internal/domain/cache"
	"github.com/okian/pawmatch/internal/domain/interaction"
	"github.com/okian/pawmatch/internal/domain/model"
	"github.com/okian/pawmatch/internal/domain/scoring"
	"github.com/okian/pawmatch/pkg/logger"
	"github.com/okian/pawmatch/pkg/metrics"
)

// DefaultConcurrency is the chunk size used when none is configured.
const DefaultConcurrency = 5

// PetScorer judges one pet. *scoring.Client implements it.
type PetScorer interface {
	Score(ctx context.Context, pet model.Pet, prefs model.Preferences, stats interaction.Stats) scoring.Result
}

// Request describes one batch.
type Request struct {
	UserID      string
	Pets        []model.Pet
	Preferences model.Preferences
	Liked       []model.Pet
	Disliked    []model.Pet
	// ComputedAt stamps the cache entries written by the batch. Callers pass the
	// instant the profile snapshot was read.
	ComputedAt time.Time
}

// Scorer runs batches.
type Scorer struct {
	scorer      PetScorer
	cache       cache.Store
	concurrency int
	log         logger.Logger
}

// NewScorer creates a batch scorer writing successful scores into store.
func NewScorer(scorer PetScorer, store cache.Store, opts ...Option) *Scorer {
	s := &Scorer{
		scorer:      scorer,
		cache:       store,
		concurrency: DefaultConcurrency,
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Concurrency returns the configured chunk size.
func (s *Scorer) Concurrency() int { return s.concurrency }

// ScoreAll scores every pet in req and returns exactly len(req.Pets) entries
// sorted by score, highest first, ties in input order. It never fails: any
// per-pet error yields NeutralScore with OriginFallback.
func (s *Scorer) ScoreAll(ctx context.Context, req Request) []model.ScoredPet {
	start := time.Now()
	out := make([]model.ScoredPet, len(req.Pets))

	for lo := 0; lo < len(req.Pets); lo += s.concurrency {
		hi := min(lo+s.concurrency, len(req.Pets))

		var g errgroup.Group
		for i := lo; i < hi; i++ {
			g.Go(func() error {
				out[i] = s.scoreOne(ctx, req, req.Pets[i])
				return nil
			})
		}
		_ = g.Wait()
	}

	model.SortByScore(out)
	metrics.RecordBatch(len(req.Pets), float64(time.Since(start).Milliseconds()))
	return out
}

func (s *Scorer) scoreOne(ctx context.Context, req Request, pet model.Pet) model.ScoredPet {
	stats := interaction.Analyze(pet, req.Liked, req.Disliked)
	res := s.scorer.Score(ctx, pet, req.Preferences, stats)
	if res.Err != nil {
		metrics.RecordBatchFallback()
		s.log.Warn(ctx, "scoring failed, using neutral score",
			logger.String("user_id", req.UserID),
			logger.String("pet_id", pet.ID),
			logger.Error(res.Err))
		return model.ScoredPet{Pet: pet, Score: model.NeutralScore, Origin: model.OriginFallback}
	}

	score := model.ClampScore(res.Score)
	key := cache.Key{UserID: req.UserID, PetID: pet.ID}
	if err := s.cache.Put(ctx, key, cache.Entry{Score: score, ComputedAt: req.ComputedAt}); err != nil {
		metrics.RecordCacheError("put")
		s.log.Warn(ctx, "failed to cache score",
			logger.String("user_id", req.UserID),
			logger.String("pet_id", pet.ID),
			logger.Error(err))
	} else {
		metrics.RecordCacheWrite()
	}
	return model.ScoredPet{Pet: pet, Score: score, Origin: model.OriginFresh}
}
