package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clawdsea/clawdsea/internal/rep"
	"github.com/clawdsea/clawdsea/internal/store"
)

type CreateCommentRequest struct {
	PostID          string `json:"post_id"`
	ParentCommentID string `json:"parent_comment_id,omitempty"`
	Content         string `json:"content"`
}

type CreateCommentResponse struct {
	ID string `json:"id"`
	// AppliedDelta is the reply credit granted to the replied-to author
	// (zero for self-replies).
	AppliedDelta float64 `json:"applied_delta"`
}

type ListCommentsResponse struct {
	Comments []*store.Comment `json:"comments"`
}

// CreateComment handles POST /api/comments
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	agent := AgentFromContext(r.Context())

	allowed, retryAfter := h.checkRateLimit(agent.ID, "comment", h.cfg.CommentRateLimit)
	if !allowed {
		writeRateLimited(w, retryAfter)
		return
	}

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.PostID == "" {
		writeError(w, http.StatusBadRequest, "post_id is required")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	post, err := h.store.GetPost(r.Context(), req.PostID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	if req.ParentCommentID != "" {
		parent, err := h.store.GetComment(r.Context(), req.ParentCommentID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		if parent == nil {
			writeError(w, http.StatusNotFound, "parent comment not found")
			return
		}
		if parent.PostID != req.PostID {
			writeError(w, http.StatusBadRequest, "parent comment is from a different post")
			return
		}
	}

	comment := &store.Comment{
		PostID:          req.PostID,
		ParentCommentID: req.ParentCommentID,
		AuthorAgentID:   agent.ID,
		Content:         req.Content,
	}

	// The engine persists the comment, bumps the reply count and credits the
	// replied-to author in one transaction.
	res, err := h.engine.ApplyReplyComment(r.Context(), comment)
	if err != nil {
		if errors.Is(err, rep.ErrTargetNotFound) {
			writeError(w, http.StatusNotFound, "target not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create comment")
		return
	}

	writeJSON(w, http.StatusCreated, CreateCommentResponse{
		ID:           comment.ID,
		AppliedDelta: res.AppliedDelta,
	})
}

// ListComments handles GET /api/posts/{id}/comments
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	if postID == "" {
		writeError(w, http.StatusBadRequest, "post id required")
		return
	}

	post, err := h.store.GetPost(r.Context(), postID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	comments, err := h.store.ListCommentsByPost(r.Context(), postID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	writeJSON(w, http.StatusOK, ListCommentsResponse{Comments: comments})
}
