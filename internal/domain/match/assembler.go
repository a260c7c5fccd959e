// Package match assembles per-user ranked match lists: it reads the profile,
// reuses fresh cached scores, batch-scores the rest and publishes a stably
// sorted list.
package match

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/okian/pawmatch/internal/domain/batch"
	"github.com/okian/pawmatch/internal/domain/cache"
	"github.com/okian/pawmatch/internal/domain/model"
	"github.com/okian/pawmatch/internal/domain/profile"
	"github.com/okian/pawmatch/pkg/logger"
	"github.com/okian/pawmatch/pkg/metrics"
)

const defaultCycleTimeout = 30 * time.Second

// Catalog lists adoptable pets.
type Catalog interface {
	ListPets(ctx context.Context) ([]model.Pet, error)
}

// ProfileReader reads a user's profile snapshot.
type ProfileReader interface {
	Read(ctx context.Context, userID string) (profile.Snapshot, error)
}

// BatchScorer scores pets that lack a fresh cached score.
type BatchScorer interface {
	ScoreAll(ctx context.Context, req batch.Request) []model.ScoredPet
}

// Assembler owns one session per user and runs at most one loading cycle per
// user at a time.
type Assembler struct {
	catalog Catalog
	reader  ProfileReader
	scorer  BatchScorer
	cache   cache.Store

	cycleTimeout time.Duration
	log          logger.Logger
	now          func() time.Time

	flight singleflight.Group

	mu       sync.Mutex
	sessions map[string]*session
	counts   map[State]int

	base   context.Context
	cancel context.CancelFunc
}

// NewAssembler wires the assembler. store must be the same cache the batch
// scorer writes into.
func NewAssembler(catalog Catalog, reader ProfileReader, scorer BatchScorer, store cache.Store, opts ...Option) *Assembler {
	a := &Assembler{
		catalog:      catalog,
		reader:       reader,
		scorer:       scorer,
		cache:        store,
		cycleTimeout: defaultCycleTimeout,
		log:          logger.Nop(),
		now:          time.Now,
		sessions:     make(map[string]*session),
		counts:       make(map[State]int),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.base, a.cancel = context.WithCancel(context.Background())
	return a
}

// Close aborts in-flight cycles. Further calls fail with ErrClosed.
func (a *Assembler) Close() {
	a.cancel()
}

// GetRankedList returns the user's ranked list, loading it if needed. A ready
// list is only served while the user's preferences are unchanged since it was
// assembled. A session in the Error state returns its error without retrying;
// call Refresh to retry.
func (a *Assembler) GetRankedList(ctx context.Context, userID string) (model.RankedList, error) {
	a.mu.Lock()
	s := a.sessionLocked(userID)
	switch s.state {
	case StateReady:
		list := cloneList(s.list)
		gen, seen := s.generation, s.prefsUpdated
		a.mu.Unlock()
		ok, err := a.current(ctx, userID, gen, seen, list.Mode)
		if err != nil {
			return model.RankedList{}, err
		}
		if ok {
			return list, nil
		}
		return a.await(ctx, userID)
	case StateError:
		err := s.err
		a.mu.Unlock()
		return model.RankedList{}, err
	}
	a.mu.Unlock()
	return a.await(ctx, userID)
}

// Refresh reloads the user's list. A refresh arriving while a cycle is in
// flight joins that cycle.
func (a *Assembler) Refresh(ctx context.Context, userID string) (model.RankedList, error) {
	return a.await(ctx, userID)
}

// ScoreFor returns the score of one pet from the ready list. If the list is not
// ready yet it starts a cycle in the background and reports Pending.
func (a *Assembler) ScoreFor(ctx context.Context, userID, petID string) (ScoreStatus, error) {
	if a.base.Err() != nil {
		return ScoreStatus{}, ErrClosed
	}
	a.mu.Lock()
	s := a.sessionLocked(userID)
	switch s.state {
	case StateReady:
		p, ok := s.list.Find(petID)
		gen, seen, mode := s.generation, s.prefsUpdated, s.list.Mode
		a.mu.Unlock()
		fresh, err := a.current(ctx, userID, gen, seen, mode)
		if err != nil {
			return ScoreStatus{}, err
		}
		if !fresh {
			a.kick(userID)
			return ScoreStatus{PetID: petID, Pending: true}, nil
		}
		if !ok {
			return ScoreStatus{}, fmt.Errorf("%w: %s", ErrPetNotFound, petID)
		}
		return ScoreStatus{PetID: petID, Score: p.Score, Origin: p.Origin}, nil
	case StateError:
		err := s.err
		a.mu.Unlock()
		return ScoreStatus{}, err
	}
	a.mu.Unlock()

	a.kick(userID)
	return ScoreStatus{PetID: petID, Pending: true}, nil
}

// Invalidate marks the user's list as outdated. An in-flight cycle will discard
// its result and run again; a published list is dropped.
func (a *Assembler) Invalidate(userID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.sessions[userID]; ok {
		a.invalidateLocked(s)
	}
}

// InvalidateAll invalidates every session, e.g. after a catalog change.
func (a *Assembler) InvalidateAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range a.sessions {
		a.invalidateLocked(s)
	}
}

// Republish invalidates the user's list and rebuilds it in the background. It
// reports false for users without a session.
func (a *Assembler) Republish(userID string) bool {
	a.mu.Lock()
	s, ok := a.sessions[userID]
	if ok {
		a.invalidateLocked(s)
	}
	a.mu.Unlock()
	if ok {
		a.kick(userID)
	}
	return ok
}

// RepublishAll invalidates and rebuilds every known session. It returns the
// number of sessions scheduled.
func (a *Assembler) RepublishAll() int {
	a.mu.Lock()
	users := make([]string, 0, len(a.sessions))
	for id, s := range a.sessions {
		a.invalidateLocked(s)
		users = append(users, id)
	}
	a.mu.Unlock()
	for _, id := range users {
		a.kick(id)
	}
	return len(users)
}

// State returns the user's session state. Unknown users are Idle.
func (a *Assembler) State(userID string) State {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.sessions[userID]; ok {
		return s.state
	}
	return StateIdle
}

// Sessions returns the number of sessions per state.
func (a *Assembler) Sessions() map[State]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[State]int, len(a.counts))
	for st, n := range a.counts {
		if n > 0 {
			out[st] = n
		}
	}
	return out
}

// current reports whether a published list of generation gen, assembled from
// preferences last edited at seen, still matches the profile. An outdated list
// is invalidated so the next cycle rebuilds it. Only a cancelled ctx is
// returned as an error; other read failures mark the list outdated and the
// following cycle reports them.
func (a *Assembler) current(ctx context.Context, userID string, gen uint64, seen time.Time, mode model.RankMode) (bool, error) {
	snap, err := a.reader.Read(ctx, userID)
	if cerr := ctx.Err(); cerr != nil {
		return false, cerr
	}
	neutral := errors.Is(err, profile.ErrPreferencesMissing) || errors.Is(err, profile.ErrInvalidPreferences)
	switch {
	case err != nil && !neutral:
	case neutral != (mode == model.ModeNeutral):
	case !snap.PreferencesLastUpdated.Equal(seen):
	default:
		return true, nil
	}

	a.mu.Lock()
	if s, ok := a.sessions[userID]; ok && s.generation == gen {
		a.invalidateLocked(s)
	}
	a.mu.Unlock()
	metrics.RecordCycleDiscarded()
	a.log.Debug(ctx, "published list outdated by a profile change",
		logger.String("user_id", userID),
		logger.Uint64("generation", gen))
	return false, nil
}

func (a *Assembler) await(ctx context.Context, userID string) (model.RankedList, error) {
	if a.base.Err() != nil {
		return model.RankedList{}, ErrClosed
	}

	// led is only read after the result arrives, which orders it after the
	// cycle function returns.
	var led atomic.Bool
	ch := a.flight.DoChan(userID, func() (any, error) {
		led.Store(true)
		return a.runCycles(userID)
	})
	select {
	case r := <-ch:
		if r.Shared && !led.Load() {
			metrics.RecordCycleCoalesced()
		}
		if r.Err != nil {
			return model.RankedList{}, r.Err
		}
		list := r.Val.(model.RankedList)
		return cloneList(&list), nil
	case <-ctx.Done():
		return model.RankedList{}, ctx.Err()
	}
}

func (a *Assembler) kick(userID string) {
	if a.base.Err() != nil {
		return
	}
	a.flight.DoChan(userID, func() (any, error) {
		return a.runCycles(userID)
	})
}

// runCycles loads the user's list until a result is published for the current
// generation. It runs on the assembler context so one caller giving up does not
// abort the shared cycle.
func (a *Assembler) runCycles(userID string) (model.RankedList, error) {
	ctx, cancel := context.WithTimeout(a.base, a.cycleTimeout)
	defer cancel()

	for {
		gen := a.begin(userID)
		start := time.Now()
		list, seen, outcome, err := a.cycle(ctx, userID, gen)
		elapsed := float64(time.Since(start).Milliseconds())

		if a.commit(userID, gen, list, seen, err) {
			metrics.RecordCycleOutcome(outcome, elapsed)
			return list, err
		}

		metrics.RecordCycleDiscarded()
		metrics.RecordCycleOutcome("discarded", elapsed)
		a.log.Debug(ctx, "discarding superseded cycle",
			logger.String("user_id", userID),
			logger.Uint64("generation", gen))

		if ctx.Err() != nil {
			a.abandon(userID)
			return model.RankedList{}, fmt.Errorf("loading cycle for %s: %w", userID, ctx.Err())
		}
	}
}

// cycle assembles one list and reports the preference timestamp it was built
// against.
func (a *Assembler) cycle(ctx context.Context, userID string, gen uint64) (model.RankedList, time.Time, string, error) {
	log := a.log.With(
		logger.String("user_id", userID),
		logger.String("cycle_id", uuid.NewString()),
		logger.Uint64("generation", gen))
	metrics.RecordCycleStarted()

	snap, err := a.reader.Read(ctx, userID)
	neutral := errors.Is(err, profile.ErrPreferencesMissing) || errors.Is(err, profile.ErrInvalidPreferences)
	if err != nil && !neutral {
		log.Warn(ctx, "profile read failed", logger.Error(err))
		return model.RankedList{}, time.Time{}, "error", err
	}

	pets, lerr := a.catalog.ListPets(ctx)
	if lerr != nil {
		log.Warn(ctx, "catalog read failed", logger.Error(lerr))
		return model.RankedList{}, time.Time{}, "error", fmt.Errorf("list pets: %w", lerr)
	}

	list := model.RankedList{UserID: userID, Generation: gen}
	if neutral {
		log.Info(ctx, "no usable preferences, ranking with neutral scores",
			logger.String("reason", err.Error()),
			logger.Int("pets", len(pets)))
		list.Mode = model.ModeNeutral
		list.Pets = neutralList(pets)
		list.AssembledAt = a.now()
		return list, snap.PreferencesLastUpdated, string(model.ModeNeutral), nil
	}

	cached, needs := a.partition(ctx, log, userID, pets, snap)

	var fresh []model.ScoredPet
	if len(needs) > 0 {
		fresh = a.scorer.ScoreAll(ctx, batch.Request{
			UserID:      userID,
			Pets:        needs,
			Preferences: snap.Preferences,
			Liked:       model.SelectPets(pets, snap.LikedIDs),
			Disliked:    model.SelectPets(pets, snap.DislikedIDs),
			ComputedAt:  snap.ReadAt,
		})
	}

	merged, collisions := mergeScores(pets, cached, fresh)
	for _, id := range collisions {
		metrics.RecordLogicCollision()
		log.Error(ctx, "score merge collision", logger.String("pet_id", id), logger.Error(ErrLogicCollision))
	}

	log.Debug(ctx, "ranked list assembled",
		logger.Int("cached", len(cached)),
		logger.Int("scored", len(fresh)))

	list.Mode = model.ModeScored
	list.Pets = merged
	list.AssembledAt = a.now()
	return list, snap.PreferencesLastUpdated, string(model.ModeScored), nil
}

// partition splits the catalog into pets with a fresh cached score and pets
// that need scoring. Cache read errors count as misses. When the profile never
// recorded a preference edit no cached score can be proven fresh, so every hit
// counts as stale.
func (a *Assembler) partition(ctx context.Context, log logger.Logger, userID string, pets []model.Pet, snap profile.Snapshot) (map[string]model.ScoredPet, []model.Pet) {
	cached := make(map[string]model.ScoredPet, len(pets))
	needs := make([]model.Pet, 0, len(pets))
	queued := make(map[string]struct{}, len(pets))

	for _, p := range pets {
		if _, ok := cached[p.ID]; ok {
			continue
		}
		if _, ok := queued[p.ID]; ok {
			continue
		}

		e, ok, err := a.cache.Get(ctx, cache.Key{UserID: userID, PetID: p.ID})
		switch {
		case err != nil:
			metrics.RecordCacheError("get")
			log.Warn(ctx, "cache read failed", logger.String("pet_id", p.ID), logger.Error(err))
		case !ok:
			metrics.RecordCacheMiss()
		case !snap.PreferencesStamped || !cache.IsValid(e, snap.PreferencesLastUpdated):
			metrics.RecordCacheStale()
		default:
			metrics.RecordCacheHit()
			cached[p.ID] = model.ScoredPet{Pet: p, Score: model.ClampScore(e.Score), Origin: model.OriginCached}
			continue
		}
		queued[p.ID] = struct{}{}
		needs = append(needs, p)
	}
	return cached, needs
}

func (a *Assembler) sessionLocked(userID string) *session {
	s, ok := a.sessions[userID]
	if !ok {
		s = &session{state: StateIdle}
		a.sessions[userID] = s
		a.counts[StateIdle]++
		metrics.UpdateSessions(string(StateIdle), a.counts[StateIdle])
	}
	return s
}

func (a *Assembler) setStateLocked(s *session, st State) {
	if s.state == st {
		return
	}
	a.counts[s.state]--
	metrics.UpdateSessions(string(s.state), a.counts[s.state])
	s.state = st
	a.counts[st]++
	metrics.UpdateSessions(string(st), a.counts[st])
}

func (a *Assembler) invalidateLocked(s *session) {
	s.generation++
	if s.state == StateReady || s.state == StateError {
		s.list = nil
		s.err = nil
		a.setStateLocked(s, StateIdle)
	}
}

func (a *Assembler) begin(userID string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.sessionLocked(userID)
	a.setStateLocked(s, StateLoading)
	return s.generation
}

// commit publishes the cycle result if gen is still current.
func (a *Assembler) commit(userID string, gen uint64, list model.RankedList, seen time.Time, err error) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.sessionLocked(userID)
	if s.generation != gen {
		return false
	}
	if err != nil {
		s.list = nil
		s.err = err
		a.setStateLocked(s, StateError)
		return true
	}
	s.list = &list
	s.prefsUpdated = seen
	s.err = nil
	a.setStateLocked(s, StateReady)
	return true
}

func (a *Assembler) abandon(userID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.sessions[userID]; ok && s.state == StateLoading {
		a.setStateLocked(s, StateIdle)
	}
}

func cloneList(l *model.RankedList) model.RankedList {
	if l == nil {
		return model.RankedList{}
	}
	out := *l
	out.Pets = slices.Clone(l.Pets)
	return out
}
