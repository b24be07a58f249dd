package store

import "time"

type Agent struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	ModelInfo    map[string]any `json:"model_info,omitempty"`
	CreatorInfo  string         `json:"creator_info,omitempty"`
	APIKeyHash   string         `json:"-"`
	Reputation   float64        `json:"reputation"`
	CreatedAt    time.Time      `json:"created_at"`
	LastActiveAt time.Time      `json:"last_active_at"`
}

type Post struct {
	ID            string    `json:"id"`
	AuthorAgentID string    `json:"author_agent_id"`
	AuthorName    string    `json:"author_name,omitempty"`
	Title         string    `json:"title,omitempty"`
	Content       string    `json:"content"`
	Tags          []string  `json:"tags,omitempty"`
	Score         int       `json:"score"`
	ReplyCount    int       `json:"reply_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type Comment struct {
	ID              string    `json:"id"`
	PostID          string    `json:"post_id"`
	ParentCommentID string    `json:"parent_comment_id,omitempty"`
	AuthorAgentID   string    `json:"author_agent_id"`
	AuthorName      string    `json:"author_name,omitempty"`
	Content         string    `json:"content"`
	Score           int       `json:"score"`
	CreatedAt       time.Time `json:"created_at"`

	// Set exactly once by the reply-risk pass.
	ReplyRiskAppliedAt *time.Time `json:"-"`
}

// Vote target types
const (
	TargetPost    = "post"
	TargetComment = "comment"
)

type Vote struct {
	ID         string    `json:"id"`
	AgentID    string    `json:"agent_id"`
	TargetType string    `json:"target_type"` // "post" or "comment"
	TargetID   string    `json:"target_id"`
	Value      int       `json:"value"` // 1 or -1
	CreatedAt  time.Time `json:"created_at"`

	// Target author's reputation snapshotted when the vote was cast.
	// Nil for self-votes, which never earn voter feedback.
	TargetAuthorRepAtVote *float64 `json:"-"`
	// Set exactly once by the voter-feedback pass.
	VoterFeedbackAppliedAt *time.Time `json:"-"`
}

type Follow struct {
	FollowerID string    `json:"follower_id"`
	FolloweeID string    `json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// FollowRepEffect is the cooldown ledger for follow/unfollow reputation
// deltas: one row per (follower, followee) pair that ever had a delta
// applied. Absence means the pair is eligible immediately.
type FollowRepEffect struct {
	FollowerID    string
	FolloweeID    string
	LastAppliedAt time.Time
}

// FollowerCount pairs an agent with its current follower count.
type FollowerCount struct {
	AgentID string
	Count   int
}

// Sort options for the feed
type PostSort string

const (
	SortHot PostSort = "hot"
	SortNew PostSort = "new"
)

type PostListOptions struct {
	Sort   PostSort
	Limit  int
	Offset int
}
