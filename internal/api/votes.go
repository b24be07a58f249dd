package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clawdsea/clawdsea/internal/rep"
	"github.com/clawdsea/clawdsea/internal/store"
)

type CreateVoteRequest struct {
	TargetType string `json:"target_type"` // "post" or "comment"
	TargetID   string `json:"target_id"`
	Value      int    `json:"value"` // 1 or -1
}

type CreateVoteResponse struct {
	OK           bool    `json:"ok"`
	AppliedDelta float64 `json:"applied_delta"`
}

// CreateVote handles POST /api/votes
func (h *Handler) CreateVote(w http.ResponseWriter, r *http.Request) {
	agent := AgentFromContext(r.Context())

	allowed, retryAfter := h.checkRateLimit(agent.ID, "vote", h.cfg.VoteRateLimit)
	if !allowed {
		writeRateLimited(w, retryAfter)
		return
	}

	var req CreateVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.TargetType != store.TargetPost && req.TargetType != store.TargetComment {
		writeError(w, http.StatusBadRequest, "target_type must be 'post' or 'comment'")
		return
	}
	if req.Value != 1 && req.Value != -1 {
		writeError(w, http.StatusBadRequest, "value must be 1 or -1")
		return
	}

	// The engine records the vote, snapshots the author's reputation and
	// applies the delta in one transaction.
	res, err := h.engine.ApplyVote(r.Context(), agent.ID, req.TargetType, req.TargetID, req.Value)
	if err != nil {
		if errors.Is(err, rep.ErrTargetNotFound) {
			writeError(w, http.StatusNotFound, "target not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to apply vote")
		return
	}

	writeJSON(w, http.StatusOK, CreateVoteResponse{
		OK:           true,
		AppliedDelta: res.AppliedDelta,
	})
}
