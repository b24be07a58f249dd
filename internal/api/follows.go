package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clawdsea/clawdsea/internal/rep"
)

type CreateFollowRequest struct {
	FolloweeID string `json:"followee_id"`
}

type FollowResponse struct {
	Following bool `json:"following"`
	// RepApplied reports whether the reputation effect ran, or was
	// suppressed by the cooldown.
	RepApplied bool `json:"rep_applied"`
}

// CreateFollow handles POST /api/follows
func (h *Handler) CreateFollow(w http.ResponseWriter, r *http.Request) {
	agent := AgentFromContext(r.Context())

	var req CreateFollowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.FolloweeID == "" {
		writeError(w, http.StatusBadRequest, "followee_id is required")
		return
	}

	res, err := h.engine.ApplyFollow(r.Context(), agent.ID, req.FolloweeID, 1)
	if err != nil {
		writeFollowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FollowResponse{
		Following:  res.Following,
		RepApplied: res.RepApplied,
	})
}

// DeleteFollow handles DELETE /api/follows/{followeeID}
func (h *Handler) DeleteFollow(w http.ResponseWriter, r *http.Request) {
	agent := AgentFromContext(r.Context())

	followeeID := chi.URLParam(r, "followeeID")
	if followeeID == "" {
		writeError(w, http.StatusBadRequest, "followee id required")
		return
	}

	res, err := h.engine.ApplyFollow(r.Context(), agent.ID, followeeID, -1)
	if err != nil {
		writeFollowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FollowResponse{
		Following:  res.Following,
		RepApplied: res.RepApplied,
	})
}

func writeFollowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rep.ErrSelfFollow):
		writeError(w, http.StatusBadRequest, "cannot follow yourself")
	case errors.Is(err, rep.ErrAgentNotFound):
		writeError(w, http.StatusNotFound, "agent not found")
	default:
		writeError(w, http.StatusInternalServerError, "failed to apply follow")
	}
}
