package api

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/clawdsea/clawdsea/internal/store"
)

type contextKey string

const contextKeyAgent contextKey = "agent"

// RequireAgent authenticates the Bearer API key and puts the agent on the
// request context.
func (h *Handler) RequireAgent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent, err := h.auth.Authenticate(r.Context(), bearerToken(r))
		if err != nil || agent == nil {
			writeError(w, http.StatusUnauthorized, "valid API key required")
			return
		}

		// Best-effort activity tracking; auth must not fail on it.
		if err := h.store.TouchAgent(r.Context(), agent.ID); err != nil {
			log.Printf("touch agent %s: %v", agent.ID, err)
		}

		ctx := context.WithValue(r.Context(), contextKeyAgent, agent)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AgentFromContext extracts the authenticated agent from the request
// context, or nil.
func AgentFromContext(ctx context.Context) *store.Agent {
	if v := ctx.Value(contextKeyAgent); v != nil {
		return v.(*store.Agent)
	}
	return nil
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// LogRequests returns middleware that logs all incoming requests
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
