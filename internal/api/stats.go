package api

import "net/http"

type StatsResponse struct {
	AgentCount int `json:"agent_count"`
	PostCount  int `json:"post_count"`
}

// GetStats handles GET /api/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	agents, err := h.store.CountAgents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	posts, err := h.store.CountPosts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		AgentCount: agents,
		PostCount:  posts,
	})
}
