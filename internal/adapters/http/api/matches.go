package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/pawmatch/internal/domain/model"
	"github.com/okian/pawmatch/pkg/logger"
)

// MatchesHandler serves ranked lists and single-pet scores.
type MatchesHandler struct {
	matcher  Matcher
	maxLimit int
	log      logger.Logger
}

// NewMatchesHandler creates a matches handler.
func NewMatchesHandler(matcher Matcher, maxLimit int, log logger.Logger) *MatchesHandler {
	return &MatchesHandler{matcher: matcher, maxLimit: maxLimit, log: log}
}

// HandleGetMatches handles GET /matches/{userID}?limit=N.
func (h *MatchesHandler) HandleGetMatches(w http.ResponseWriter, r *http.Request) {
	limit, err := h.parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	list, err := h.matcher.GetRankedList(r.Context(), r.PathValue("userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, truncate(list, limit))
}

// HandleRefresh handles POST /matches/{userID}/refresh.
func (h *MatchesHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	limit, err := h.parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	list, err := h.matcher.Refresh(r.Context(), r.PathValue("userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, truncate(list, limit))
}

// HandleGetScore handles GET /matches/{userID}/pets/{petID}. A pending answer
// is returned with 202.
func (h *MatchesHandler) HandleGetScore(w http.ResponseWriter, r *http.Request) {
	st, err := h.matcher.ScoreFor(r.Context(), r.PathValue("userID"), r.PathValue("petID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if st.Pending {
		writeJSON(w, http.StatusAccepted, st)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *MatchesHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), "match request failed",
			logger.String("path", r.URL.Path), logger.Error(err))
	}
	writeError(w, status, code, err)
}

// parseLimit returns 0 when no limit was given.
func (h *MatchesHandler) parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest)
	}
	if n > h.maxLimit {
		return 0, fmt.Errorf("%w: limit exceeds %d", ErrBadRequest, h.maxLimit)
	}
	return n, nil
}

func truncate(list model.RankedList, limit int) model.RankedList {
	if limit > 0 && len(list.Pets) > limit {
		list.Pets = list.Pets[:limit]
	}
	return list
}
