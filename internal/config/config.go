// Package config defines service configuration and its loading from defaults,
// an optional YAML file and PAWMATCH_* environment variables.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Oracle and cache backends.
const (
	OracleSimulated = "simulated"
	OracleHTTP      = "http"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// BatchConcurrency is the number of oracle calls per chunk.
	BatchConcurrency int `koanf:"batch_concurrency"`

	// OracleBackend selects the scoring oracle: simulated or http.
	OracleBackend   string  `koanf:"oracle_backend"`
	OracleBaseURL   string  `koanf:"oracle_base_url"`
	OracleAPIKey    string  `koanf:"oracle_api_key"`
	OracleModel     string  `koanf:"oracle_model"`
	OracleTimeoutMS int     `koanf:"oracle_timeout_ms"`
	OracleRate      float64 `koanf:"oracle_rate_per_sec"`
	OracleBurst     int     `koanf:"oracle_burst"`

	BreakerMinRequests   int     `koanf:"breaker_min_requests"`
	BreakerFailureRatio  float64 `koanf:"breaker_failure_ratio"`
	BreakerOpenTimeoutMS int     `koanf:"breaker_open_timeout_ms"`

	// SimulatedLatencyMinMS and SimulatedLatencyMaxMS bound the simulated oracle latency.
	SimulatedLatencyMinMS int `koanf:"simulated_latency_min_ms"`
	SimulatedLatencyMaxMS int `koanf:"simulated_latency_max_ms"`

	// CycleTimeoutMS bounds one loading cycle of a ranked list.
	CycleTimeoutMS int `koanf:"cycle_timeout_ms"`

	// CacheBackend selects the score cache: memory or redis.
	CacheBackend    string `koanf:"cache_backend"`
	CacheMaxEntries int    `koanf:"cache_max_entries"`
	RedisAddr       string `koanf:"redis_addr"`
	RedisTTLSeconds int    `koanf:"redis_ttl_s"`

	// FixturesPath points at a YAML catalog/profile file. Empty loads the
	// built-in sample.
	FixturesPath string `koanf:"fixtures_path"`

	// EventQueueSize bounds the in-memory change-event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of change-event workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many event ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxRankedLimit caps GET /matches/{user}?limit.
	MaxRankedLimit int `koanf:"max_ranked_limit"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		BatchConcurrency:      5,
		OracleBackend:         OracleSimulated,
		OracleModel:           "gpt-4o-mini",
		OracleTimeoutMS:       4000,
		OracleRate:            10,
		OracleBurst:           5,
		BreakerMinRequests:    10,
		BreakerFailureRatio:   0.6,
		BreakerOpenTimeoutMS:  30_000,
		SimulatedLatencyMinMS: 80,
		SimulatedLatencyMaxMS: 150,
		CycleTimeoutMS:        60_000,
		CacheBackend:          CacheMemory,
		CacheMaxEntries:       100_000,
		RedisAddr:             "localhost:6379",
		RedisTTLSeconds:       86_400,
		EventQueueSize:        10_000,
		WorkerCount:           runtime.NumCPU(),
		DedupeSize:            100_000,
		MaxRankedLimit:        500,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.BatchConcurrency < 1:
		return fmt.Errorf("%w: batch_concurrency must be positive", ErrInvalidConfig)
	case c.OracleTimeoutMS < 1:
		return fmt.Errorf("%w: oracle_timeout_ms must be positive", ErrInvalidConfig)
	case c.CycleTimeoutMS < 1:
		return fmt.Errorf("%w: cycle_timeout_ms must be positive", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.EventQueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.MaxRankedLimit < 1:
		return fmt.Errorf("%w: max_ranked_limit must be positive", ErrInvalidConfig)
	case c.SimulatedLatencyMinMS < 0 || c.SimulatedLatencyMaxMS < c.SimulatedLatencyMinMS:
		return fmt.Errorf("%w: simulated latency bounds are inverted", ErrInvalidConfig)
	case c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1:
		return fmt.Errorf("%w: breaker_failure_ratio must be in (0,1]", ErrInvalidConfig)
	}

	switch c.OracleBackend {
	case OracleSimulated:
	case OracleHTTP:
		if c.OracleBaseURL == "" {
			return fmt.Errorf("%w: oracle_base_url is required for the http oracle", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown oracle_backend %q", ErrInvalidConfig, c.OracleBackend)
	}

	switch c.CacheBackend {
	case CacheMemory:
	case CacheRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr is required for the redis cache", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown cache_backend %q", ErrInvalidConfig, c.CacheBackend)
	}
	return nil
}

// OracleTimeout returns the per-call oracle timeout.
func (c *Config) OracleTimeout() time.Duration { return ms(c.OracleTimeoutMS) }

// CycleTimeout returns the loading cycle bound.
func (c *Config) CycleTimeout() time.Duration { return ms(c.CycleTimeoutMS) }

// BreakerOpenTimeout returns how long the oracle circuit stays open.
func (c *Config) BreakerOpenTimeout() time.Duration { return ms(c.BreakerOpenTimeoutMS) }

// RedisTTL returns the expiry of redis cache entries.
func (c *Config) RedisTTL() time.Duration { return time.Duration(c.RedisTTLSeconds) * time.Second }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
