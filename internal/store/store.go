package store

import (
	"context"
	"time"
)

// Tx is the set of operations the reputation engine composes inside one
// atomic unit of work. Every method is also available on Store outside a
// transaction, where each call is independently atomic.
type Tx interface {
	// Agents
	GetAgent(ctx context.Context, id string) (*Agent, error)
	// AdjustAgentReputation adds delta to the agent's reputation, clamped
	// at zero, as a single relative UPDATE so concurrent deltas compose.
	AdjustAgentReputation(ctx context.Context, id string, delta float64) error
	SetAgentReputation(ctx context.Context, id string, reputation float64) error

	// Content
	GetPost(ctx context.Context, id string) (*Post, error)
	GetComment(ctx context.Context, id string) (*Comment, error)
	CreateComment(ctx context.Context, comment *Comment) error
	UpdatePostScore(ctx context.Context, id string, delta int) error
	UpdatePostReplyCount(ctx context.Context, id string, delta int) error
	UpdateCommentScore(ctx context.Context, id string, delta int) error

	// Votes
	GetVoteByVoterTarget(ctx context.Context, agentID, targetID string) (*Vote, error)
	CreateVote(ctx context.Context, vote *Vote) error
	UpdateVoteValue(ctx context.Context, id string, value int, repSnapshot *float64) error
	// MarkVoterFeedbackApplied sets the feedback sentinel iff it is still
	// unset. Returns false when another run already claimed the vote.
	MarkVoterFeedbackApplied(ctx context.Context, id string, at time.Time) (bool, error)

	// MarkReplyRiskApplied sets the reply-risk sentinel iff still unset.
	MarkReplyRiskApplied(ctx context.Context, id string, at time.Time) (bool, error)

	// Follows
	GetFollow(ctx context.Context, followerID, followeeID string) (*Follow, error)
	CreateFollow(ctx context.Context, follow *Follow) error
	DeleteFollow(ctx context.Context, followerID, followeeID string) error
	CountFollowers(ctx context.Context, agentID string) (int, error)
	GetFollowRepEffect(ctx context.Context, followerID, followeeID string) (*FollowRepEffect, error)
	UpsertFollowRepEffect(ctx context.Context, followerID, followeeID string, at time.Time) error
}

// Store defines the interface for data persistence
type Store interface {
	Tx

	// WithTx runs fn inside a single transaction, committing iff fn
	// returns nil. Busy/locked conflicts are retried a bounded number of
	// times before the error is surfaced.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Agents
	CreateAgent(ctx context.Context, agent *Agent) error
	GetAgentByAPIKeyHash(ctx context.Context, hash string) (*Agent, error)
	TouchAgent(ctx context.Context, id string) error
	CountAgents(ctx context.Context) (int, error)
	ListAgentIDs(ctx context.Context, limit, offset int) ([]string, error)

	// Posts
	CreatePost(ctx context.Context, post *Post) error
	ListPosts(ctx context.Context, opts PostListOptions) ([]*Post, error)
	CountPosts(ctx context.Context) (int, error)

	// Comments
	ListCommentsByPost(ctx context.Context, postID string) ([]*Comment, error)

	// Deferred-pass scans
	ListVotesForFeedback(ctx context.Context, cutoff time.Time, limit int) ([]*Vote, error)
	ListCommentsForReplyRisk(ctx context.Context, cutoff time.Time, limit int) ([]*Comment, error)
	ListFollowerCounts(ctx context.Context) ([]FollowerCount, error)

	// Lifecycle
	Close() error
}
