package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type RunTaskResponse struct {
	Pass      string `json:"pass"`
	Processed int    `json:"processed"`
}

// RunTask handles POST /api/admin/tasks/{pass}. It triggers a single batch
// pass by name; the same passes run on the scheduled cadence via the tasks
// CLI command.
func (h *Handler) RunTask(w http.ResponseWriter, r *http.Request) {
	if !h.isAdmin(r) {
		writeError(w, http.StatusForbidden, "admin secret required")
		return
	}

	pass := chi.URLParam(r, "pass")

	var (
		processed int
		err       error
	)
	switch pass {
	case "voter-feedback":
		processed, err = h.engine.RunVoterFeedbackPass(r.Context())
	case "follower-bonus":
		processed, err = h.engine.RunFollowerBonusPass(r.Context())
	case "reply-risk":
		processed, err = h.engine.RunReplyRiskPass(r.Context())
	case "decay":
		processed, err = h.engine.RunDecayPass(r.Context())
	default:
		writeError(w, http.StatusNotFound, "unknown task")
		return
	}
	if err != nil {
		log.Printf("admin task %s: %v", pass, err)
		writeError(w, http.StatusInternalServerError, "task failed")
		return
	}

	writeJSON(w, http.StatusOK, RunTaskResponse{Pass: pass, Processed: processed})
}
