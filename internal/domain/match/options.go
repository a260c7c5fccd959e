package match

import (
	"time"

	"github.com/okian/pawmatch/pkg/logger"
)

// Option configures an Assembler.
type Option func(*Assembler)

// WithCycleTimeout bounds one loading cycle, including re-runs after
// invalidation.
func WithCycleTimeout(d time.Duration) Option {
	return func(a *Assembler) {
		if d > 0 {
			a.cycleTimeout = d
		}
	}
}

// WithLogger sets the assembler logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.log = l
		}
	}
}

// WithClock sets the clock used for AssembledAt.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}
