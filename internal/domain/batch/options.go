package batch

import "github.com/okian/pawmatch/pkg/logger"

// Option configures a Scorer.
type Option func(*Scorer)

// WithConcurrency sets the chunk size, i.e. the peak number of outstanding
// oracle calls. Non-positive values are ignored.
func WithConcurrency(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets the scorer logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scorer) {
		if l != nil {
			s.log = l
		}
	}
}
