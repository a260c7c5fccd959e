package service

import (
	"time"

	"github.com/okian/pawmatch/internal/adapters/oracle"
	"github.com/okian/pawmatch/internal/adapters/repository"
	"github.com/okian/pawmatch/internal/domain/cache"
	"github.com/okian/pawmatch/internal/domain/scoring"
	"github.com/okian/pawmatch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of change-event workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many event ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBatchConcurrency sets the oracle calls per batch chunk.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

// WithOracleTimeout bounds each oracle call.
func WithOracleTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.oracleTimeout = d
		}
	}
}

// WithCycleTimeout bounds each ranked list loading cycle.
func WithCycleTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.cycleTimeout = d
		}
	}
}

// WithSimulatedLatency sets the latency range of the built-in oracle.
func WithSimulatedLatency(minLatency, maxLatency time.Duration) Option {
	return func(s *Service) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.simMinLatency = minLatency
			s.simMaxLatency = maxLatency
		}
	}
}

// WithHTTPOracle scores through a remote OpenAI-compatible endpoint instead of
// the simulated oracle.
func WithHTTPOracle(baseURL, apiKey, model string, opts ...oracle.Option) Option {
	return func(s *Service) {
		s.httpOracle = &httpOracleConfig{baseURL: baseURL, apiKey: apiKey, model: model, opts: opts}
		s.oracleBackend = "http"
	}
}

type httpOracleConfig struct {
	baseURL, apiKey, model string
	opts                   []oracle.Option
}

// WithOracle replaces the scoring oracle.
func WithOracle(o scoring.Oracle) Option {
	return func(s *Service) {
		if o != nil {
			s.oracle = o
			s.oracleBackend = "custom"
		}
	}
}

// WithFixtures seeds the catalog and profile stores.
func WithFixtures(f repository.Fixtures) Option {
	return func(s *Service) {
		s.fixtures = &f
	}
}

// WithFixturesPath loads the stores from a YAML file at Start.
func WithFixturesPath(path string) Option {
	return func(s *Service) {
		s.fixturesPath = path
	}
}

// WithCacheStore replaces the score cache.
func WithCacheStore(c cache.Store) Option {
	return func(s *Service) {
		if c != nil {
			s.cacheStore = c
			s.cacheBackend = "custom"
		}
	}
}

// WithCacheMaxEntries bounds the in-memory score cache.
func WithCacheMaxEntries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.cacheMaxEntries = n
		}
	}
}

// WithRedisCache keeps scores in Redis at addr. The connection is opened by
// Start.
func WithRedisCache(addr string, ttl time.Duration) Option {
	return func(s *Service) {
		s.redisAddr = addr
		s.redisTTL = ttl
		s.cacheBackend = "redis"
	}
}
