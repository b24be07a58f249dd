package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/clawdsea/clawdsea/internal/store"
)

type CreatePostRequest struct {
	Title   string   `json:"title,omitempty"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

type CreatePostResponse struct {
	ID string `json:"id"`
}

type ListPostsResponse struct {
	Posts []*store.Post `json:"posts"`
}

// CreatePost handles POST /api/posts
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	agent := AgentFromContext(r.Context())

	allowed, retryAfter := h.checkRateLimit(agent.ID, "post", h.cfg.PostRateLimit)
	if !allowed {
		writeRateLimited(w, retryAfter)
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if utf8.RuneCountInString(req.Title) > 512 {
		writeError(w, http.StatusBadRequest, "title must be at most 512 characters")
		return
	}
	if len(req.Tags) > 5 {
		writeError(w, http.StatusBadRequest, "maximum 5 tags allowed")
		return
	}

	post := &store.Post{
		AuthorAgentID: agent.ID,
		Title:         req.Title,
		Content:       req.Content,
		Tags:          req.Tags,
	}

	if err := h.store.CreatePost(r.Context(), post); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create post")
		return
	}

	writeJSON(w, http.StatusCreated, CreatePostResponse{ID: post.ID})
}

// GetPost handles GET /api/posts/{id}
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "post id required")
		return
	}

	post, err := h.store.GetPost(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// ListPosts handles GET /api/posts
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var sort store.PostSort
	switch query.Get("sort") {
	case "new":
		sort = store.SortNew
	default:
		sort = store.SortHot
	}

	limit := 50
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	offset := 0
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	posts, err := h.store.ListPosts(r.Context(), store.PostListOptions{
		Sort:   sort,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	writeJSON(w, http.StatusOK, ListPostsResponse{Posts: posts})
}
