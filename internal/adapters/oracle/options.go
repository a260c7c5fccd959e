package oracle

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/pawmatch/pkg/logger"
)

// Option configures an HTTPJudge.
type Option func(*HTTPJudge)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(j *HTTPJudge) {
		if c != nil {
			j.http = c
		}
	}
}

// WithRateLimit caps outgoing requests with a token bucket. A non-positive rate
// disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(j *HTTPJudge) {
		if perSecond <= 0 {
			j.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		j.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithBreaker sets when the circuit opens: after at least minRequests calls
// in a window with a failure share of failureRatio or more. It stays open for
// openTimeout before probing again.
func WithBreaker(minRequests uint32, failureRatio float64, openTimeout time.Duration) Option {
	return func(j *HTTPJudge) {
		if minRequests > 0 {
			j.breakerMinRequests = minRequests
		}
		if failureRatio > 0 && failureRatio <= 1 {
			j.breakerFailureRatio = failureRatio
		}
		if openTimeout > 0 {
			j.breakerOpenTimeout = openTimeout
		}
	}
}

// WithLogger sets the judge logger.
func WithLogger(l logger.Logger) Option {
	return func(j *HTTPJudge) {
		if l != nil {
			j.log = l
		}
	}
}
