// Package api exposes the match engine over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/okian/pawmatch/internal/domain/dedupe"
	"github.com/okian/pawmatch/internal/domain/match"
	"github.com/okian/pawmatch/internal/domain/model"
	"github.com/okian/pawmatch/pkg/logger"
)

const defaultMaxLimit = 500

// Matcher serves ranked lists.
type Matcher interface {
	GetRankedList(ctx context.Context, userID string) (model.RankedList, error)
	Refresh(ctx context.Context, userID string) (model.RankedList, error)
	ScoreFor(ctx context.Context, userID, petID string) (match.ScoreStatus, error)
}

// EventSink accepts change notifications for asynchronous processing.
type EventSink interface {
	dedupe.Deduper
	// Enqueue hands the event to the workers. It fails with queue.ErrFull
	// under backpressure.
	Enqueue(ctx context.Context, e model.ChangeEvent) error
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]any
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	eventsHandler  *EventsHandler
	matchesHandler *MatchesHandler
}

// Option configures a Server.
type Option func(*serverConfig)

type serverConfig struct {
	maxLimit int
	log      logger.Logger
}

// WithMaxLimit caps the limit query parameter of ranked list requests.
func WithMaxLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(c *serverConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(matcher Matcher, events EventSink, stats StatsProvider, opts ...Option) *Server {
	cfg := serverConfig{maxLimit: defaultMaxLimit, log: logger.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(stats),
		eventsHandler:  NewEventsHandler(events, cfg.log),
		matchesHandler: NewMatchesHandler(matcher, cfg.maxLimit, cfg.log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("GET /matches/{userID}", MetricsMiddleware(s.matchesHandler.HandleGetMatches, "matches"))
	mux.HandleFunc("POST /matches/{userID}/refresh", MetricsMiddleware(s.matchesHandler.HandleRefresh, "refresh"))
	mux.HandleFunc("GET /matches/{userID}/pets/{petID}", MetricsMiddleware(s.matchesHandler.HandleGetScore, "score"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError classifies err and writes it.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}
