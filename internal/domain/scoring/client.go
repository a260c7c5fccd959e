// Package scoring asks an external oracle for a pet/adopter compatibility score
// and enforces the numeric output contract.
package scoring

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/okian/pawmatch/internal/domain/interaction"
	"github.com/okian/pawmatch/internal/domain/model"
	"github.com/okian/pawmatch/pkg/logger"
	"github.com/okian/pawmatch/pkg/metrics"
)

const defaultTimeout = 4 * time.Second

// Oracle is a remote judge answering one request with a numeric string.
type Oracle interface {
	// Judge returns the raw answer, honoring ctx for cancellation.
	Judge(ctx context.Context, req Request) (string, error)
}

// Result is the outcome of scoring one pet. Err is nil on success; callers
// decide how to substitute a fallback.
type Result struct {
	PetID string
	Score float64
	Err   error
}

// Client wraps an Oracle with the timeout and output contract.
type Client struct {
	oracle  Oracle
	timeout time.Duration
	log     logger.Logger
}

// NewClient creates a Client over oracle.
func NewClient(oracle Oracle, opts ...Option) *Client {
	c := &Client{
		oracle:  oracle,
		timeout: defaultTimeout,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Score judges one pet. It never retries.
func (c *Client) Score(ctx context.Context, pet model.Pet, prefs model.Preferences, stats interaction.Stats) Result {
	req := BuildRequest(pet, prefs, stats)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	raw, err := c.oracle.Judge(callCtx, req)
	metrics.RecordOracleCall(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordOracleFailure(metrics.OracleFailureUnavailable)
		c.log.Debug(ctx, "oracle call failed", logger.String("pet_id", pet.ID), logger.Error(err))
		return Result{PetID: pet.ID, Err: fmt.Errorf("%w: %w", ErrOracleUnavailable, err)}
	}

	score, err := ParseScore(raw)
	if err != nil {
		metrics.RecordOracleFailure(metrics.OracleFailureMalformed)
		c.log.Debug(ctx, "oracle answer rejected", logger.String("pet_id", pet.ID), logger.Error(err))
		return Result{PetID: pet.ID, Err: err}
	}
	return Result{PetID: pet.ID, Score: score}
}

// ParseScore parses an oracle answer and clamps it to [1,100]. Surrounding
// whitespace is ignored; anything else that is not a finite float is rejected.
func ParseScore(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrOracleMalformedResponse, truncate(s, 64))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrOracleMalformedResponse, s)
	}
	return model.ClampScore(v), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
