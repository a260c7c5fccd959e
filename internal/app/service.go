// Package service wires the match engine and its adapters, and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	eventqueue "github.com/okian/pawmatch/internal/adapters/mq/queue"
	workerpool "github.com/okian/pawmatch/internal/adapters/mq/worker"
	"github.com/okian/pawmatch/internal/adapters/oracle"
	"github.com/okian/pawmatch/internal/adapters/rediscache"
	"github.com/okian/pawmatch/internal/adapters/repository"
	"github.com/okian/pawmatch/internal/domain/batch"
	"github.com/okian/pawmatch/internal/domain/cache"
	"github.com/okian/pawmatch/internal/domain/dedupe"
	"github.com/okian/pawmatch/internal/domain/match"
	"github.com/okian/pawmatch/internal/domain/model"
	"github.com/okian/pawmatch/internal/domain/profile"
	"github.com/okian/pawmatch/internal/domain/scoring"
	"github.com/okian/pawmatch/pkg/logger"
	"github.com/okian/pawmatch/pkg/metrics"
)

// ErrNotStarted is returned by operations on a service that is not running.
var ErrNotStarted = errors.New("service not started")

// Service owns the engine for the lifetime of the process.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog    *repository.CatalogStore
	profiles   *repository.ProfileStore
	cacheStore cache.Store
	redis      *goredis.Client
	oracle     scoring.Oracle
	httpOracle *httpOracleConfig
	assembler  *match.Assembler
	deduper    dedupe.Deduper
	eventQueue *eventqueue.InMemoryQueue
	workerPool *workerpool.Pool

	// Configuration
	workerCount      int
	queueSize        int
	dedupeSize       int
	batchConcurrency int
	oracleTimeout    time.Duration
	cycleTimeout     time.Duration
	simMinLatency    time.Duration
	simMaxLatency    time.Duration
	cacheMaxEntries  int
	redisAddr        string
	redisTTL         time.Duration
	fixtures         *repository.Fixtures
	fixturesPath     string
	oracleBackend    string
	cacheBackend     string

	started bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      runtime.NumCPU(),
		queueSize:        10_000,
		dedupeSize:       100_000,
		batchConcurrency: batch.DefaultConcurrency,
		oracleTimeout:    4 * time.Second,
		cycleTimeout:     60 * time.Second,
		simMinLatency:    80 * time.Millisecond,
		simMaxLatency:    150 * time.Millisecond,
		cacheMaxEntries:  100_000,
		oracleBackend:    "simulated",
		cacheBackend:     "memory",
		logger:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the stores and the engine and starts the event workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting match service...")

	fx, err := s.loadFixtures()
	if err != nil {
		return err
	}
	s.catalog, s.profiles = fx.Stores()

	if err := s.openCache(ctx); err != nil {
		return err
	}

	switch {
	case s.oracle != nil:
	case s.httpOracle != nil:
		c := s.httpOracle
		s.oracle = oracle.NewHTTPJudge(c.baseURL, c.apiKey, c.model,
			append([]oracle.Option{oracle.WithLogger(s.logger.Named("oracle"))}, c.opts...)...)
	default:
		s.oracle = scoring.NewSimulatedOracle(scoring.WithLatencyRange(s.simMinLatency, s.simMaxLatency))
	}
	client := scoring.NewClient(s.oracle,
		scoring.WithTimeout(s.oracleTimeout),
		scoring.WithLogger(s.logger.Named("scoring")))
	scorer := batch.NewScorer(client, s.cacheStore,
		batch.WithConcurrency(s.batchConcurrency),
		batch.WithLogger(s.logger.Named("batch")))
	s.assembler = match.NewAssembler(s.catalog, profile.NewReader(s.profiles), scorer, s.cacheStore,
		match.WithCycleTimeout(s.cycleTimeout),
		match.WithLogger(s.logger.Named("match")))

	s.deduper = dedupe.NewRing(dedupe.WithMaxSize(s.dedupeSize))
	s.eventQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, workerpool.HandlerFunc(s.HandleChange),
		workerpool.WithPoolLogger(s.logger.Named("worker")))
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "match service started",
		logger.Int("pets", s.catalog.Len()),
		logger.Int("profiles", s.profiles.Len()),
		logger.String("oracle", s.oracleBackend),
		logger.String("cache", s.cacheBackend),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

func (s *Service) loadFixtures() (repository.Fixtures, error) {
	if s.fixtures != nil {
		return *s.fixtures, nil
	}
	fx, err := repository.LoadFile(s.fixturesPath)
	if err != nil {
		return repository.Fixtures{}, fmt.Errorf("load fixtures: %w", err)
	}
	return fx, nil
}

func (s *Service) openCache(ctx context.Context) error {
	switch {
	case s.cacheStore != nil:
	case s.redisAddr != "":
		rdb, err := rediscache.Dial(ctx, s.redisAddr)
		if err != nil {
			return fmt.Errorf("open score cache: %w", err)
		}
		s.redis = rdb
		s.cacheStore = rediscache.New(rdb, rediscache.WithTTL(s.redisTTL))
	default:
		s.cacheStore = cache.NewMemory(cache.WithMaxEntries(s.cacheMaxEntries))
	}
	return nil
}

// Stop drains the event queue, aborts loading cycles and closes connections.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	pool, a, rdb := s.workerPool, s.assembler, s.redis
	if rdb != nil {
		s.redis, s.cacheStore = nil, nil
	}
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping match service...")

	// Workers still apply what is queued; the assembler stays usable until then.
	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	a.Close()
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			s.logger.Warn(ctx, "redis close failed", logger.Error(err))
		}
	}
	s.logger.Info(ctx, "match service stopped")
}

func (s *Service) engine() (*match.Assembler, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.assembler, nil
}

// GetRankedList returns the user's ranked list.
func (s *Service) GetRankedList(ctx context.Context, userID string) (model.RankedList, error) {
	a, err := s.engine()
	if err != nil {
		return model.RankedList{}, err
	}
	return a.GetRankedList(ctx, userID)
}

// Refresh reloads the user's ranked list.
func (s *Service) Refresh(ctx context.Context, userID string) (model.RankedList, error) {
	a, err := s.engine()
	if err != nil {
		return model.RankedList{}, err
	}
	return a.Refresh(ctx, userID)
}

// ScoreFor returns one pet's score for the user.
func (s *Service) ScoreFor(ctx context.Context, userID, petID string) (match.ScoreStatus, error) {
	a, err := s.engine()
	if err != nil {
		return match.ScoreStatus{}, err
	}
	return a.ScoreFor(ctx, userID, petID)
}

// HandleChange applies one change notification. Catalog changes republish
// every session; preference and history changes republish the user's session.
// A history change also drops the user's cached scores, since they were judged
// with the old like/dislike statistics.
func (s *Service) HandleChange(ctx context.Context, e model.ChangeEvent) error {
	s.mu.RLock()
	a, store := s.assembler, s.cacheStore
	s.mu.RUnlock()
	if a == nil {
		return ErrNotStarted
	}
	switch e.Kind {
	case model.ChangeCatalog:
		n := a.RepublishAll()
		s.logger.Debug(ctx, "catalog changed", logger.String("event_id", e.EventID), logger.Int("sessions", n))
	case model.ChangePreferences:
		a.Republish(e.UserID)
	case model.ChangeHistory:
		if inv, ok := store.(interface {
			InvalidateUser(ctx context.Context, userID string) int
		}); ok {
			inv.InvalidateUser(ctx, e.UserID)
		}
		a.Republish(e.UserID)
	default:
		return fmt.Errorf("unknown change kind %q", e.Kind)
	}
	return nil
}

// SeenAndRecord reports whether the event id was already seen and records it
// if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	if s.deduper == nil {
		return false
	}
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord forgets an event id so it can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	if s.deduper != nil {
		s.deduper.Unrecord(ctx, id)
	}
}

// Size returns the number of remembered event ids.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits a change event to the workers.
func (s *Service) Enqueue(ctx context.Context, e model.ChangeEvent) error {
	s.mu.RLock()
	q, started := s.eventQueue, s.started
	s.mu.RUnlock()
	if !started {
		return eventqueue.ErrClosed
	}
	if err := q.Enqueue(ctx, e); err != nil {
		return err
	}
	metrics.UpdateQueueSize(q.Len(ctx))
	return nil
}

// Catalog exposes the catalog store for seeding and tests.
func (s *Service) Catalog() *repository.CatalogStore { return s.catalog }

// Profiles exposes the profile store for seeding and tests.
func (s *Service) Profiles() *repository.ProfileStore { return s.profiles }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"oracleBackend": s.oracleBackend,
		"cacheBackend":  s.cacheBackend,
	}
	if !s.started {
		return stats
	}

	queueLen := s.eventQueue.Len(ctx)
	stats["queueLength"] = queueLen
	stats["dedupeEntries"] = s.deduper.Size()
	stats["pets"] = s.catalog.Len()
	stats["profiles"] = s.profiles.Len()

	sessions := make(map[string]int)
	for st, n := range s.assembler.Sessions() {
		sessions[string(st)] = n
	}
	stats["sessions"] = sessions

	if n, err := s.cacheStore.Len(ctx); err == nil {
		stats["cacheEntries"] = n
	} else {
		s.logger.Debug(ctx, "cache size unavailable", logger.Error(err))
	}

	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateWorkerCount(s.workerPool.Size())
	return stats
}
