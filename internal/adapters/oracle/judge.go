// Package oracle implements the scoring oracle over an OpenAI-compatible
// Responses API.
package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/okian/pawmatch/internal/domain/scoring"
	"github.com/okian/pawmatch/pkg/logger"
	"github.com/okian/pawmatch/pkg/metrics"
)

const (
	breakerName        = "scoring-oracle"
	responsesPath      = "/v1/responses"
	maxErrorBody       = 512
	defaultMinRequests = 10
	defaultFailRatio   = 0.6
	defaultOpenTimeout = 30 * time.Second
	breakerInterval    = time.Minute
	halfOpenRequests   = 3
	defaultTemperature = 0.0
)

// HTTPError is a non-2xx answer from the oracle.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("oracle http %d: %s", e.StatusCode, e.Body)
}

// HTTPJudge calls a remote model and returns its text answer. Transport
// failures, an open circuit and rate limiter refusals surface as errors, which
// the scoring client maps to ErrOracleUnavailable.
type HTTPJudge struct {
	baseURL string
	apiKey  string
	model   string

	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[string]
	log     logger.Logger

	breakerMinRequests  uint32
	breakerFailureRatio float64
	breakerOpenTimeout  time.Duration
}

var _ scoring.Oracle = (*HTTPJudge)(nil)

// NewHTTPJudge creates a judge for baseURL using model.
func NewHTTPJudge(baseURL, apiKey, model string, opts ...Option) *HTTPJudge {
	j := &HTTPJudge{
		baseURL:             strings.TrimRight(baseURL, "/"),
		apiKey:              apiKey,
		model:               model,
		http:                &http.Client{},
		log:                 logger.Nop(),
		breakerMinRequests:  defaultMinRequests,
		breakerFailureRatio: defaultFailRatio,
		breakerOpenTimeout:  defaultOpenTimeout,
	}
	for _, opt := range opts {
		opt(j)
	}
	j.cb = j.newBreaker()
	metrics.UpdateBreakerState(breakerName, stateToFloat(gobreaker.StateClosed))
	return j
}

func (j *HTTPJudge) newBreaker() *gobreaker.CircuitBreaker[string] {
	minRequests, ratio := j.breakerMinRequests, j.breakerFailureRatio
	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: halfOpenRequests,
		Interval:    breakerInterval,
		Timeout:     j.breakerOpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < minRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= ratio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(name, stateToFloat(to))
			if to == gobreaker.StateOpen {
				metrics.RecordBreakerTrip()
			}
			j.log.Warn(context.Background(), "oracle circuit state changed",
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
		// A caller giving up says nothing about the oracle's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// State returns the circuit state.
func (j *HTTPJudge) State() gobreaker.State { return j.cb.State() }

// Judge sends req and returns the model's output text.
func (j *HTTPJudge) Judge(ctx context.Context, req scoring.Request) (string, error) {
	if j.limiter != nil {
		if err := j.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit: %w", err)
		}
	}
	return j.cb.Execute(func() (string, error) {
		return j.call(ctx, req)
	})
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model       string         `json:"model"`
	Input       []inputMessage `json:"input"`
	Temperature float64        `json:"temperature"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func (j *HTTPJudge) call(ctx context.Context, req scoring.Request) (string, error) {
	body, err := json.Marshal(responsesRequest{
		Model: j.model,
		Input: []inputMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: defaultTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, j.baseURL+responsesPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if j.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+j.apiKey)
	}

	resp, err := j.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("oracle request: %w", err)
	}
	raw, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return "", fmt.Errorf("read oracle response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b := string(raw)
		if len(b) > maxErrorBody {
			b = b[:maxErrorBody]
		}
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: b}
	}

	var out responsesResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode oracle response: %w", err)
	}
	if out.Refusal != "" {
		// Not a transport fault; the scoring client rejects it as non-numeric.
		return out.Refusal, nil
	}
	return extractOutputText(out), nil
}

func extractOutputText(resp responsesResponse) string {
	var b strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, c := range item.Content {
			if c.Type == "output_text" {
				b.WriteString(c.Text)
			}
		}
	}
	return b.String()
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
