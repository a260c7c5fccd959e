package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/okian/pawmatch/internal/adapters/mq/queue"
	"github.com/okian/pawmatch/internal/domain/model"
	"github.com/okian/pawmatch/internal/validation"
	"github.com/okian/pawmatch/pkg/logger"
	"github.com/okian/pawmatch/pkg/metrics"
)

// eventRequest is the wire shape of POST /events.
type eventRequest struct {
	EventID string `json:"event_id" validate:"required,max=128"`
	Kind    string `json:"kind" validate:"required,oneof=catalog_changed preferences_changed history_changed"`
	UserID  string `json:"user_id" validate:"required_unless=Kind catalog_changed,max=128"`
	TS      string `json:"ts"`
}

func (e eventRequest) toEvent() (model.ChangeEvent, error) {
	if err := validation.Struct(e); err != nil {
		return model.ChangeEvent{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	ev := model.ChangeEvent{EventID: e.EventID, Kind: model.ChangeKind(e.Kind), UserID: e.UserID}
	if e.TS != "" {
		ts, err := time.Parse(time.RFC3339, e.TS)
		if err != nil {
			return model.ChangeEvent{}, fmt.Errorf("%w: invalid ts", ErrBadRequest)
		}
		ev.Timestamp = ts
	}
	return ev, nil
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// EventsHandler handles change notifications.
type EventsHandler struct {
	sink EventSink
	log  logger.Logger
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(sink EventSink, log logger.Logger) *EventsHandler {
	return &EventsHandler{sink: sink, log: log}
}

// HandlePostEvent handles POST /events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	ev, err := req.toEvent()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	metrics.RecordEventReceived(string(ev.Kind))

	if h.sink.SeenAndRecord(r.Context(), ev.EventID) {
		metrics.RecordEventDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	if err := h.sink.Enqueue(r.Context(), ev); err != nil {
		// Forget the id so the sender can retry.
		h.sink.Unrecord(r.Context(), ev.EventID)
		if errors.Is(err, queue.ErrFull) {
			writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
			return
		}
		h.log.Warn(r.Context(), "enqueue failed", logger.String("event_id", ev.EventID), logger.Error(err))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
