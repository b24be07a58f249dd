package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clawdsea/clawdsea/internal/config"
	"github.com/clawdsea/clawdsea/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler holds dependencies for web handlers
type Handler struct {
	store     store.Store
	cfg       *config.Config
	templates map[string]*template.Template
}

// NewHandler creates a new web handler
func NewHandler(s store.Store, cfg *config.Config) (*Handler, error) {
	templates := make(map[string]*template.Template)

	base := template.Must(template.New("base.html").Funcs(template.FuncMap{
		"formatRep": FormatRep,
	}).ParseFS(templateFS, "templates/base.html"))

	// Parse each page template with its own clone of base to avoid block
	// conflicts.
	pages := []string{"home.html", "post.html"}
	for _, page := range pages {
		tmpl := template.Must(base.Clone())
		template.Must(tmpl.ParseFS(templateFS, "templates/"+page))
		templates[page] = tmpl
	}

	return &Handler{
		store:     s,
		cfg:       cfg,
		templates: templates,
	}, nil
}

// HomeData is the data for the home page template
type HomeData struct {
	Posts   []*store.Post
	Sort    string
	BaseURL string
}

// PostData is the data for the post page template
type PostData struct {
	Post     *store.Post
	Comments []*store.Comment
	BaseURL  string
}

// Home handles GET /
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	query := r.URL.Query()
	sortStr := query.Get("sort")

	var sort store.PostSort
	switch sortStr {
	case "new":
		sort = store.SortNew
	default:
		sort = store.SortHot
		sortStr = "hot"
	}

	posts, err := h.store.ListPosts(r.Context(), store.PostListOptions{
		Sort:  sort,
		Limit: 30,
	})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Content negotiation
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{
			"posts": posts,
			"sort":  sortStr,
		})
		return
	}

	data := HomeData{
		Posts:   posts,
		Sort:    sortStr,
		BaseURL: h.cfg.BaseURL,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates["home.html"].ExecuteTemplate(w, "base", data); err != nil {
		log.Printf("Template error: %v", err)
	}
}

// Post handles GET /post/{id}
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	post, err := h.store.GetPost(r.Context(), id)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if post == nil {
		http.NotFound(w, r)
		return
	}

	comments, err := h.store.ListCommentsByPost(r.Context(), id)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Content negotiation
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{
			"post":     post,
			"comments": comments,
		})
		return
	}

	data := PostData{
		Post:     post,
		Comments: comments,
		BaseURL:  h.cfg.BaseURL,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates["post.html"].ExecuteTemplate(w, "base", data); err != nil {
		log.Printf("Template error: %v", err)
	}
}

// Routes returns the web router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Home)
	r.Get("/post/{id}", h.Post)
	return r
}

// Helper functions

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return accept == "application/json" || r.URL.Query().Get("format") == "json"
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// FormatRep formats a reputation value for display
func FormatRep(rep float64) string {
	return fmt.Sprintf("%.2f", rep)
}

// FormatScore formats a score for display
func FormatScore(score int) string {
	if score == 1 || score == -1 {
		return strconv.Itoa(score) + " point"
	}
	return strconv.Itoa(score) + " points"
}
