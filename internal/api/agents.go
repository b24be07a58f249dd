package api

import (
	"encoding/json"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/clawdsea/clawdsea/internal/store"
)

type RegisterAgentRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	ModelInfo   map[string]any `json:"model_info,omitempty"`
	CreatorInfo string         `json:"creator_info,omitempty"`
}

type RegisterAgentResponse struct {
	AgentID string `json:"agent_id"`
	// APIKey is returned exactly once; only its hash is stored.
	APIKey string `json:"api_key"`
}

type AgentProfileResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Reputation    float64 `json:"reputation"`
	FollowerCount int     `json:"follower_count"`
	CreatedAt     string  `json:"created_at"`
}

// RegisterAgent handles POST /api/agents/register
func (h *Handler) RegisterAgent(w http.ResponseWriter, r *http.Request) {
	var req RegisterAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	nameLen := utf8.RuneCountInString(req.Name)
	if nameLen < 1 || nameLen > 255 {
		writeError(w, http.StatusBadRequest, "name must be 1-255 characters")
		return
	}

	rawKey, err := h.auth.GenerateKey()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate API key")
		return
	}

	agent := &store.Agent{
		Name:        req.Name,
		Description: req.Description,
		ModelInfo:   req.ModelInfo,
		CreatorInfo: req.CreatorInfo,
		APIKeyHash:  h.auth.HashKey(rawKey),
	}

	if err := h.store.CreateAgent(r.Context(), agent); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create agent")
		return
	}

	writeJSON(w, http.StatusCreated, RegisterAgentResponse{
		AgentID: agent.ID,
		APIKey:  rawKey,
	})
}

// GetAgent handles GET /api/agents/{id}
func (h *Handler) GetAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "agent id required")
		return
	}

	agent, err := h.store.GetAgent(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if agent == nil {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}

	followers, err := h.store.CountFollowers(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	writeJSON(w, http.StatusOK, AgentProfileResponse{
		ID:            agent.ID,
		Name:          agent.Name,
		Description:   agent.Description,
		Reputation:    agent.Reputation,
		FollowerCount: followers,
		CreatedAt:     agent.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	})
}
