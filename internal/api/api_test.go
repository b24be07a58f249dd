package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/clawdsea/clawdsea/internal/auth"
	"github.com/clawdsea/clawdsea/internal/config"
	"github.com/clawdsea/clawdsea/internal/ratelimit"
	"github.com/clawdsea/clawdsea/internal/rep"
	"github.com/clawdsea/clawdsea/internal/store"
)

func setupTestHandler(t *testing.T) (*Handler, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "clawdsea-api-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	s, err := store.NewSQLiteStore(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	cfg := &config.Config{
		AdminSecret:      "test-admin",
		APIKeySecret:     "test-secret",
		PostRateLimit:    100,
		CommentRateLimit: 100,
		VoteRateLimit:    100,
		RateLimitWindow:  time.Minute,
		Rep:              rep.DefaultParams(),
	}

	authSvc := auth.NewService(s, cfg.APIKeySecret)
	engine := rep.NewEngine(s, cfg.Rep)
	limiter := ratelimit.NewMemoryLimiter()
	h := NewHandler(s, engine, authSvc, limiter, cfg)

	cleanup := func() {
		s.Close()
		os.Remove(tmpFile.Name())
	}

	return h, cleanup
}

func doJSON(t *testing.T, h *Handler, method, path, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

// registerAgent registers through the API and returns the agent ID and raw
// API key.
func registerAgent(t *testing.T, h *Handler, name string) (string, string) {
	t.Helper()

	rec := doJSON(t, h, "POST", "/agents/register", "", map[string]any{"name": name})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}

	var res RegisterAgentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}
	if res.AgentID == "" || res.APIKey == "" {
		t.Fatal("register response missing agent_id or api_key")
	}
	return res.AgentID, res.APIKey
}

func createPostVia(t *testing.T, h *Handler, apiKey, content string) string {
	t.Helper()

	rec := doJSON(t, h, "POST", "/posts", apiKey, map[string]any{"content": content})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post failed: %d %s", rec.Code, rec.Body.String())
	}
	var res CreatePostResponse
	json.Unmarshal(rec.Body.Bytes(), &res)
	return res.ID
}

func TestRegisterAndGetAgent(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	agentID, _ := registerAgent(t, h, "newcomer")

	rec := doJSON(t, h, "GET", "/agents/"+agentID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get agent failed: %d", rec.Code)
	}

	var profile AgentProfileResponse
	json.Unmarshal(rec.Body.Bytes(), &profile)
	if profile.Name != "newcomer" {
		t.Errorf("expected name newcomer, got %s", profile.Name)
	}
	if profile.Reputation != 1.0 {
		t.Errorf("new agent should have reputation 1.0, got %f", profile.Reputation)
	}
}

func TestRegisterValidation(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	rec := doJSON(t, h, "POST", "/agents/register", "", map[string]any{"name": ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty name should 400, got %d", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	rec := doJSON(t, h, "POST", "/posts", "", map[string]any{"content": "hi"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key should 401, got %d", rec.Code)
	}

	rec = doJSON(t, h, "POST", "/posts", "bogus-key", map[string]any{"content": "hi"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad key should 401, got %d", rec.Code)
	}
}

func TestCreateAndListPosts(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	_, key := registerAgent(t, h, "poster")
	postID := createPostVia(t, h, key, "hello feed")

	rec := doJSON(t, h, "GET", "/posts/"+postID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get post failed: %d", rec.Code)
	}

	rec = doJSON(t, h, "GET", "/posts?sort=new", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list posts failed: %d", rec.Code)
	}
	var list ListPostsResponse
	json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list.Posts) != 1 {
		t.Errorf("expected 1 post, got %d", len(list.Posts))
	}
	if list.Posts[0].AuthorName != "poster" {
		t.Errorf("expected author name joined, got %q", list.Posts[0].AuthorName)
	}
}

func TestVoteMovesReputation(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	authorID, authorKey := registerAgent(t, h, "author")
	_, voterKey := registerAgent(t, h, "voter")
	postID := createPostVia(t, h, authorKey, "vote on me")

	rec := doJSON(t, h, "POST", "/votes", voterKey, map[string]any{
		"target_type": "post",
		"target_id":   postID,
		"value":       1,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("vote failed: %d %s", rec.Code, rec.Body.String())
	}

	var res CreateVoteResponse
	json.Unmarshal(rec.Body.Bytes(), &res)
	if res.AppliedDelta <= 0 {
		t.Errorf("upvote should apply a positive delta, got %f", res.AppliedDelta)
	}

	rec = doJSON(t, h, "GET", "/agents/"+authorID, "", nil)
	var profile AgentProfileResponse
	json.Unmarshal(rec.Body.Bytes(), &profile)
	if profile.Reputation <= 1.0 {
		t.Errorf("author reputation should have grown, got %f", profile.Reputation)
	}
}

func TestVoteValidation(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	_, key := registerAgent(t, h, "voter")

	rec := doJSON(t, h, "POST", "/votes", key, map[string]any{
		"target_type": "post",
		"target_id":   "whatever",
		"value":       5,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("value 5 should 400, got %d", rec.Code)
	}

	rec = doJSON(t, h, "POST", "/votes", key, map[string]any{
		"target_type": "post",
		"target_id":   "no-such-post",
		"value":       1,
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown target should 404, got %d", rec.Code)
	}
}

func TestCommentCreatesReplyCredit(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	authorID, authorKey := registerAgent(t, h, "author")
	_, replierKey := registerAgent(t, h, "replier")
	postID := createPostVia(t, h, authorKey, "reply to me")

	rec := doJSON(t, h, "POST", "/comments", replierKey, map[string]any{
		"post_id": postID,
		"content": "interesting take",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("comment failed: %d %s", rec.Code, rec.Body.String())
	}

	var res CreateCommentResponse
	json.Unmarshal(rec.Body.Bytes(), &res)
	if res.AppliedDelta <= 0 {
		t.Errorf("reply should credit the author, got %f", res.AppliedDelta)
	}

	rec = doJSON(t, h, "GET", "/agents/"+authorID, "", nil)
	var profile AgentProfileResponse
	json.Unmarshal(rec.Body.Bytes(), &profile)
	if profile.Reputation <= 1.0 {
		t.Errorf("author reputation should have grown, got %f", profile.Reputation)
	}

	// Reply count moved too.
	rec = doJSON(t, h, "GET", "/posts/"+postID, "", nil)
	var post store.Post
	json.Unmarshal(rec.Body.Bytes(), &post)
	if post.ReplyCount != 1 {
		t.Errorf("expected reply count 1, got %d", post.ReplyCount)
	}
}

func TestSelfCommentNoCredit(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	authorID, authorKey := registerAgent(t, h, "monologuer")
	postID := createPostVia(t, h, authorKey, "my own thread")

	rec := doJSON(t, h, "POST", "/comments", authorKey, map[string]any{
		"post_id": postID,
		"content": "replying to myself",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("comment failed: %d", rec.Code)
	}

	var res CreateCommentResponse
	json.Unmarshal(rec.Body.Bytes(), &res)
	if res.AppliedDelta != 0 {
		t.Errorf("self-reply should apply nothing, got %f", res.AppliedDelta)
	}

	rec = doJSON(t, h, "GET", "/agents/"+authorID, "", nil)
	var profile AgentProfileResponse
	json.Unmarshal(rec.Body.Bytes(), &profile)
	if profile.Reputation != 1.0 {
		t.Errorf("self-reply moved reputation to %f", profile.Reputation)
	}
}

func TestNestedCommentWrongPost(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	_, key := registerAgent(t, h, "author")
	post1 := createPostVia(t, h, key, "first")
	post2 := createPostVia(t, h, key, "second")

	rec := doJSON(t, h, "POST", "/comments", key, map[string]any{
		"post_id": post1,
		"content": "top level",
	})
	var top CreateCommentResponse
	json.Unmarshal(rec.Body.Bytes(), &top)

	rec = doJSON(t, h, "POST", "/comments", key, map[string]any{
		"post_id":           post2,
		"parent_comment_id": top.ID,
		"content":           "cross-post nesting",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("parent from another post should 400, got %d", rec.Code)
	}
}

func TestFollowAndUnfollow(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	followeeID, _ := registerAgent(t, h, "followee")
	_, followerKey := registerAgent(t, h, "follower")

	rec := doJSON(t, h, "POST", "/follows", followerKey, map[string]any{"followee_id": followeeID})
	if rec.Code != http.StatusOK {
		t.Fatalf("follow failed: %d %s", rec.Code, rec.Body.String())
	}
	var res FollowResponse
	json.Unmarshal(rec.Body.Bytes(), &res)
	if !res.Following || !res.RepApplied {
		t.Errorf("first follow should apply: %+v", res)
	}

	rec = doJSON(t, h, "GET", "/agents/"+followeeID, "", nil)
	var profile AgentProfileResponse
	json.Unmarshal(rec.Body.Bytes(), &profile)
	if profile.FollowerCount != 1 {
		t.Errorf("expected 1 follower, got %d", profile.FollowerCount)
	}

	rec = doJSON(t, h, "DELETE", "/follows/"+followeeID, followerKey, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unfollow failed: %d", rec.Code)
	}
	json.Unmarshal(rec.Body.Bytes(), &res)
	if res.Following {
		t.Error("edge should be gone after unfollow")
	}
	if res.RepApplied {
		t.Error("unfollow inside cooldown should not apply a delta")
	}
}

func TestSelfFollowRejected(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	agentID, key := registerAgent(t, h, "loner")

	rec := doJSON(t, h, "POST", "/follows", key, map[string]any{"followee_id": agentID})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("self-follow should 400, got %d", rec.Code)
	}
}

func TestStats(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	_, key := registerAgent(t, h, "poster")
	createPostVia(t, h, key, "one post")

	rec := doJSON(t, h, "GET", "/stats", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats failed: %d", rec.Code)
	}
	var stats StatsResponse
	json.Unmarshal(rec.Body.Bytes(), &stats)
	if stats.AgentCount != 1 || stats.PostCount != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestAdminTask(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	// No secret: rejected.
	rec := doJSON(t, h, "POST", "/admin/tasks/decay", "", nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("missing admin secret should 403, got %d", rec.Code)
	}

	registerAgent(t, h, "decayee")

	req := httptest.NewRequest("POST", "/admin/tasks/decay", nil)
	req.Header.Set("X-Admin-Secret", "test-admin")
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("admin decay failed: %d %s", w.Code, w.Body.String())
	}
	var res RunTaskResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	if res.Processed != 1 {
		t.Errorf("expected 1 agent decayed, got %d", res.Processed)
	}

	req = httptest.NewRequest("POST", "/admin/tasks/not-a-pass", nil)
	req.Header.Set("X-Admin-Secret", "test-admin")
	w = httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown pass should 404, got %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	h.cfg.PostRateLimit = 1

	_, key := registerAgent(t, h, "spammer")
	createPostVia(t, h, key, "first post")

	rec := doJSON(t, h, "POST", "/posts", key, map[string]any{"content": "second post"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second post in window should 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 should carry Retry-After")
	}
}
