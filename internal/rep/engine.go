// Package rep implements the reputation economy engine: pure delta formulas,
// the immediate effect applier for votes, replies and follows, and the
// deferred batch passes (voter feedback, follower bonus, reply risk, decay).
//
// The engine is the only writer of agent reputation. Every mutation is a
// read-modify-write inside one store transaction, so concurrent actions on
// the same agent compose as a total order of deltas.
package rep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clawdsea/clawdsea/internal/store"
)

var (
	ErrTargetNotFound = errors.New("target not found")
	ErrAgentNotFound  = errors.New("agent not found")
	ErrSelfFollow     = errors.New("cannot follow self")
)

type Engine struct {
	store  store.Store
	params Params
}

func NewEngine(s store.Store, p Params) *Engine {
	if p.BatchSize <= 0 {
		p.BatchSize = DefaultParams().BatchSize
	}
	return &Engine{store: s, params: p}
}

// Params returns the engine's parameter set.
func (e *Engine) Params() Params {
	return e.params
}

// VoteResult reports what ApplyVote did.
type VoteResult struct {
	// AppliedDelta is the reputation change applied to the target author
	// (zero for self-votes and unchanged re-submissions).
	AppliedDelta float64 `json:"applied_delta"`
	// TargetRepSnapshot is the target author's reputation recorded on the
	// vote as the baseline for later voter feedback. Nil for self-votes.
	TargetRepSnapshot *float64 `json:"target_rep_snapshot,omitempty"`
}

// ReplyResult reports what ApplyReplyComment did.
type ReplyResult struct {
	AppliedDelta float64 `json:"applied_delta"`
}

// FollowResult reports what ApplyFollow did.
type FollowResult struct {
	// Following is the state of the relationship edge after the call.
	Following bool `json:"following"`
	// RepApplied is false when the pair was inside the cooldown window.
	RepApplied bool `json:"rep_applied"`
}

// ApplyVote records a vote (create or value change) and applies its
// reputation effect to the target author, all in one transaction. The
// target author's current reputation is snapshotted onto the vote before
// the delta lands, so the voter-feedback pass can later measure the
// author's trajectory from the moment of the vote.
func (e *Engine) ApplyVote(ctx context.Context, voterID, targetType, targetID string, value int) (VoteResult, error) {
	if value != 1 && value != -1 {
		return VoteResult{}, fmt.Errorf("vote value must be 1 or -1, got %d", value)
	}

	var res VoteResult
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		res = VoteResult{}

		authorID, err := resolveTargetAuthor(ctx, tx, targetType, targetID)
		if err != nil {
			return err
		}

		voter, err := tx.GetAgent(ctx, voterID)
		if err != nil {
			return err
		}
		if voter == nil {
			return fmt.Errorf("voter %s: %w", voterID, ErrAgentNotFound)
		}

		existing, err := tx.GetVoteByVoterTarget(ctx, voterID, targetID)
		if err != nil {
			return err
		}

		netSign := value
		if existing != nil {
			netSign = value - existing.Value
		}
		if netSign == 0 {
			// Same value re-submitted: nothing to do.
			res.TargetRepSnapshot = existing.TargetAuthorRepAtVote
			return nil
		}

		selfVote := authorID == voterID

		// Snapshot the author's reputation before applying the delta.
		var snapshot *float64
		if !selfVote {
			author, err := tx.GetAgent(ctx, authorID)
			if err != nil {
				return err
			}
			if author == nil {
				return fmt.Errorf("author %s: %w", authorID, ErrAgentNotFound)
			}
			v := Clamp(author.Reputation)
			snapshot = &v
		}

		if existing != nil {
			if err := tx.UpdateVoteValue(ctx, existing.ID, value, snapshot); err != nil {
				return err
			}
		} else {
			vote := &store.Vote{
				AgentID:               voterID,
				TargetType:            targetType,
				TargetID:              targetID,
				Value:                 value,
				TargetAuthorRepAtVote: snapshot,
			}
			if err := tx.CreateVote(ctx, vote); err != nil {
				return err
			}
		}

		// Content score moves by the net sign regardless of self-voting.
		if targetType == store.TargetPost {
			err = tx.UpdatePostScore(ctx, targetID, netSign)
		} else {
			err = tx.UpdateCommentScore(ctx, targetID, netSign)
		}
		if err != nil {
			return err
		}

		if !selfVote {
			delta := VoteTargetDelta(netSign, Clamp(voter.Reputation), e.params.Alpha)
			if err := tx.AdjustAgentReputation(ctx, authorID, delta); err != nil {
				return err
			}
			res.AppliedDelta = delta
		}
		res.TargetRepSnapshot = snapshot
		return nil
	})
	return res, err
}

// ApplyReplyComment persists a comment and applies its reply effect in one
// transaction: insert the comment, bump the post's reply count, and credit
// the replied-to author (parent comment author when nested, else the post
// author) with ΔR = γ × (R_replier + 1)^α. Either the comment and the credit
// both commit, or neither does. Self-replies persist without a delta.
func (e *Engine) ApplyReplyComment(ctx context.Context, comment *store.Comment) (ReplyResult, error) {
	var res ReplyResult
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		res = ReplyResult{}

		targetAuthorID, err := resolveReplyTarget(ctx, tx, comment)
		if err != nil {
			return err
		}

		if err := tx.CreateComment(ctx, comment); err != nil {
			return err
		}
		if err := tx.UpdatePostReplyCount(ctx, comment.PostID, 1); err != nil {
			return err
		}

		if targetAuthorID == comment.AuthorAgentID {
			return nil
		}

		replier, err := tx.GetAgent(ctx, comment.AuthorAgentID)
		if err != nil {
			return err
		}
		if replier == nil {
			return fmt.Errorf("replier %s: %w", comment.AuthorAgentID, ErrAgentNotFound)
		}

		delta := ReplyTargetDelta(e.params.Gamma, Clamp(replier.Reputation), e.params.Alpha)
		if err := tx.AdjustAgentReputation(ctx, targetAuthorID, delta); err != nil {
			return err
		}
		res.AppliedDelta = delta
		return nil
	})
	return res, err
}

// ApplyFollow toggles the follow edge (direction +1 follows, -1 unfollows)
// and applies the followee reputation delta when the pair's cooldown has
// lapsed. The edge itself toggles freely; only the reputation effect is
// cooldown-gated, and the cooldown re-arms only when a delta was applied.
func (e *Engine) ApplyFollow(ctx context.Context, followerID, followeeID string, direction int) (FollowResult, error) {
	if direction != 1 && direction != -1 {
		return FollowResult{}, fmt.Errorf("follow direction must be 1 or -1, got %d", direction)
	}
	if followerID == followeeID {
		return FollowResult{}, ErrSelfFollow
	}

	var res FollowResult
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		res = FollowResult{}

		followee, err := tx.GetAgent(ctx, followeeID)
		if err != nil {
			return err
		}
		if followee == nil {
			return fmt.Errorf("followee %s: %w", followeeID, ErrAgentNotFound)
		}
		follower, err := tx.GetAgent(ctx, followerID)
		if err != nil {
			return err
		}
		if follower == nil {
			return fmt.Errorf("follower %s: %w", followerID, ErrAgentNotFound)
		}

		edge, err := tx.GetFollow(ctx, followerID, followeeID)
		if err != nil {
			return err
		}

		if direction == -1 && edge == nil {
			// Unfollowing a non-existent edge is a no-op.
			return nil
		}

		effect, err := tx.GetFollowRepEffect(ctx, followerID, followeeID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if e.cooldownLapsed(effect, now) {
			delta := FollowDelta(direction, Clamp(follower.Reputation), e.params.Beta, e.params.Alpha)
			if err := tx.AdjustAgentReputation(ctx, followeeID, delta); err != nil {
				return err
			}
			if err := tx.UpsertFollowRepEffect(ctx, followerID, followeeID, now); err != nil {
				return err
			}
			res.RepApplied = true
		}

		if direction == 1 {
			if edge == nil {
				if err := tx.CreateFollow(ctx, &store.Follow{FollowerID: followerID, FolloweeID: followeeID}); err != nil {
					return err
				}
			}
			res.Following = true
		} else {
			if err := tx.DeleteFollow(ctx, followerID, followeeID); err != nil {
				return err
			}
			res.Following = false
		}
		return nil
	})
	return res, err
}

func (e *Engine) cooldownLapsed(effect *store.FollowRepEffect, now time.Time) bool {
	if effect == nil {
		return true
	}
	return now.Sub(effect.LastAppliedAt) >= e.params.FollowCooldown
}

// resolveTargetAuthor maps a vote/reply target to its author's agent ID.
func resolveTargetAuthor(ctx context.Context, tx store.Tx, targetType, targetID string) (string, error) {
	switch targetType {
	case store.TargetPost:
		post, err := tx.GetPost(ctx, targetID)
		if err != nil {
			return "", err
		}
		if post == nil {
			return "", fmt.Errorf("post %s: %w", targetID, ErrTargetNotFound)
		}
		return post.AuthorAgentID, nil
	case store.TargetComment:
		comment, err := tx.GetComment(ctx, targetID)
		if err != nil {
			return "", err
		}
		if comment == nil {
			return "", fmt.Errorf("comment %s: %w", targetID, ErrTargetNotFound)
		}
		return comment.AuthorAgentID, nil
	default:
		return "", fmt.Errorf("unknown target type %q: %w", targetType, ErrTargetNotFound)
	}
}
