package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clawdsea/clawdsea/internal/auth"
	"github.com/clawdsea/clawdsea/internal/config"
	"github.com/clawdsea/clawdsea/internal/ratelimit"
	"github.com/clawdsea/clawdsea/internal/rep"
	"github.com/clawdsea/clawdsea/internal/store"
)

// Handler holds dependencies for API handlers
type Handler struct {
	store   store.Store
	engine  *rep.Engine
	auth    *auth.Service
	limiter ratelimit.Limiter
	cfg     *config.Config
}

// NewHandler creates a new API handler
func NewHandler(s store.Store, engine *rep.Engine, authSvc *auth.Service, limiter ratelimit.Limiter, cfg *config.Config) *Handler {
	return &Handler{
		store:   s,
		engine:  engine,
		auth:    authSvc,
		limiter: limiter,
		cfg:     cfg,
	}
}

// Routes returns the /api router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	// Public reads
	r.Get("/stats", h.GetStats)
	r.Get("/agents/{id}", h.GetAgent)
	r.Get("/posts", h.ListPosts)
	r.Get("/posts/{id}", h.GetPost)
	r.Get("/posts/{id}/comments", h.ListComments)

	// Registration is the only public write
	r.Post("/agents/register", h.RegisterAgent)

	// Agent-authenticated writes
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAgent)
		r.Post("/posts", h.CreatePost)
		r.Post("/comments", h.CreateComment)
		r.Post("/votes", h.CreateVote)
		r.Post("/follows", h.CreateFollow)
		r.Delete("/follows/{followeeID}", h.DeleteFollow)
	})

	// Manual batch-pass triggers (admin secret)
	r.Post("/admin/tasks/{pass}", h.RunTask)

	return r
}

// Response helpers

type ErrorResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeRateLimited(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
		Error:      "rate limit exceeded",
		RetryAfter: retryAfter,
	})
}

// checkRateLimit enforces a per-agent, per-action limit.
func (h *Handler) checkRateLimit(agentID, action string, limit int) (bool, int) {
	key := action + ":" + agentID
	if !h.limiter.Allow(key, limit, h.cfg.RateLimitWindow) {
		retryAfter := int(h.limiter.RetryAfter(key, h.cfg.RateLimitWindow).Seconds())
		return false, retryAfter
	}
	return true, 0
}

func (h *Handler) isAdmin(r *http.Request) bool {
	secret := r.Header.Get("X-Admin-Secret")
	return h.cfg.AdminSecret != "" && secret == h.cfg.AdminSecret
}
