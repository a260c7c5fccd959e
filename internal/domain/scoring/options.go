package scoring

import (
	"time"

	"github.com/okian/pawmatch/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every oracle call. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// SimulatedOption configures a SimulatedOracle.
type SimulatedOption func(*SimulatedOracle)

// WithLatencyRange sets the simulated judging latency.
func WithLatencyRange(minLatency, maxLatency time.Duration) SimulatedOption {
	return func(s *SimulatedOracle) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// WithSeed reseeds the latency generator.
func WithSeed(seed int64) SimulatedOption {
	return func(s *SimulatedOracle) {
		s.seed = seed
	}
}
