package scoring

import "errors"

var (
	// ErrOracleUnavailable covers transport failures, timeouts, an open breaker
	// and rate limiter refusals.
	ErrOracleUnavailable = errors.New("scoring oracle unavailable")
	// ErrOracleMalformedResponse means the oracle answered with something that is
	// not a finite number.
	ErrOracleMalformedResponse = errors.New("scoring oracle returned a malformed response")
)
