package rep

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/clawdsea/clawdsea/internal/store"
)

// The deferred passes are safe to re-run and safe to run concurrently:
// eligibility is owned by the sentinel columns, and each row is claimed by
// a guarded sentinel UPDATE inside the same transaction that applies the
// delta, so the first committer wins and every later runner sees a no-op.
//
// A row whose triggering data has gone away (author or target deleted by an
// operator) still gets its sentinel set, with no delta: it can never become
// eligible again, so rescanning it every run would be pure churn.

// RunVoterFeedbackPass applies voter feedback to votes older than the
// maturation window: ΔR_voter = κ × sign × (ΔR_net / (|ΔR_net| + c)), where
// ΔR_net is the target author's reputation movement since the vote.
// Returns the number of votes processed.
func (e *Engine) RunVoterFeedbackPass(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-e.params.VoterFeedbackWindow)
	processed := 0

	for {
		votes, err := e.store.ListVotesForFeedback(ctx, cutoff, e.params.BatchSize)
		if err != nil {
			return processed, err
		}
		if len(votes) == 0 {
			return processed, nil
		}

		batchProcessed := 0
		for _, v := range votes {
			vote := v
			err := e.store.WithTx(ctx, func(tx store.Tx) error {
				ok, err := tx.MarkVoterFeedbackApplied(ctx, vote.ID, time.Now().UTC())
				if err != nil {
					return err
				}
				if !ok {
					// Another runner got here first.
					log.Printf("voter feedback: vote %s already applied, skipping", vote.ID)
					return nil
				}

				// Re-read the row inside the claiming transaction: the voter
				// may have flipped the vote since the scan, which changes
				// both the sign and the snapshot.
				current, err := tx.GetVoteByVoterTarget(ctx, vote.AgentID, vote.TargetID)
				if err != nil {
					return err
				}
				if current == nil || current.TargetAuthorRepAtVote == nil {
					log.Printf("voter feedback: vote %s gone or unsnapshotted, marked without delta", vote.ID)
					return nil
				}

				authorID, err := resolveTargetAuthor(ctx, tx, current.TargetType, current.TargetID)
				if err != nil {
					if errors.Is(err, ErrTargetNotFound) {
						log.Printf("voter feedback: vote %s target gone, marked without delta", vote.ID)
						return nil
					}
					return err
				}
				author, err := tx.GetAgent(ctx, authorID)
				if err != nil {
					return err
				}
				voter, err := tx.GetAgent(ctx, current.AgentID)
				if err != nil {
					return err
				}
				if author == nil || voter == nil {
					log.Printf("voter feedback: vote %s agent gone, marked without delta", vote.ID)
					return nil
				}

				repNow := Clamp(author.Reputation)
				repAtVote := Clamp(*current.TargetAuthorRepAtVote)
				delta := VoterFeedbackDelta(current.Value, repNow-repAtVote, e.params.Kappa, e.params.C)
				return tx.AdjustAgentReputation(ctx, current.AgentID, delta)
			})
			if err != nil {
				log.Printf("voter feedback: vote %s failed: %v", vote.ID, err)
				continue
			}
			processed++
			batchProcessed++
		}

		// Every failed row stays eligible; stop rather than spin on a
		// batch that cannot make progress.
		if batchProcessed == 0 {
			return processed, nil
		}
	}
}

// RunFollowerBonusPass credits every agent with at least one follower:
// ΔR = β × ln(1 + followers). Agents with zero followers are skipped
// entirely, not written with a zero delta. Returns the number of agents
// credited.
func (e *Engine) RunFollowerBonusPass(ctx context.Context) (int, error) {
	counts, err := e.store.ListFollowerCounts(ctx)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, fc := range counts {
		if fc.Count <= 0 {
			continue
		}
		delta := FollowerBonusDelta(e.params.Beta, fc.Count)
		if err := e.store.AdjustAgentReputation(ctx, fc.AgentID, delta); err != nil {
			log.Printf("follower bonus: agent %s failed: %v", fc.AgentID, err)
			continue
		}
		applied++
	}
	return applied, nil
}

// RunReplyRiskPass penalizes authors of negatively-scored comments once the
// comment has aged past the minimum window: ΔR_replier = -λ × (R_target+1)^α,
// scaled by the replied-to author's standing. Returns the number of
// comments processed.
func (e *Engine) RunReplyRiskPass(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-e.params.ReplyRiskMinAge)
	processed := 0

	for {
		comments, err := e.store.ListCommentsForReplyRisk(ctx, cutoff, e.params.BatchSize)
		if err != nil {
			return processed, err
		}
		if len(comments) == 0 {
			return processed, nil
		}

		batchProcessed := 0
		for _, c := range comments {
			comment := c
			err := e.store.WithTx(ctx, func(tx store.Tx) error {
				ok, err := tx.MarkReplyRiskApplied(ctx, comment.ID, time.Now().UTC())
				if err != nil {
					return err
				}
				if !ok {
					log.Printf("reply risk: comment %s already applied, skipping", comment.ID)
					return nil
				}

				targetID, err := resolveReplyTarget(ctx, tx, comment)
				if err != nil {
					if errors.Is(err, ErrTargetNotFound) {
						log.Printf("reply risk: comment %s target gone, marked without delta", comment.ID)
						return nil
					}
					return err
				}
				if targetID == comment.AuthorAgentID {
					// Self-replies never mutate reputation.
					return nil
				}

				target, err := tx.GetAgent(ctx, targetID)
				if err != nil {
					return err
				}
				if target == nil {
					log.Printf("reply risk: comment %s target agent gone, marked without delta", comment.ID)
					return nil
				}

				delta := ReplyRiskDelta(e.params.Lambda, Clamp(target.Reputation), e.params.Alpha)
				return tx.AdjustAgentReputation(ctx, comment.AuthorAgentID, delta)
			})
			if err != nil {
				log.Printf("reply risk: comment %s failed: %v", comment.ID, err)
				continue
			}
			processed++
			batchProcessed++
		}

		if batchProcessed == 0 {
			return processed, nil
		}
	}
}

// RunDecayPass applies multiplicative decay R × (1 - δ) to every agent,
// clamped at zero. Cadence discipline (once per period) belongs to the
// external scheduler. Returns the number of agents decayed.
func (e *Engine) RunDecayPass(ctx context.Context) (int, error) {
	decayed := 0
	offset := 0

	for {
		ids, err := e.store.ListAgentIDs(ctx, e.params.BatchSize, offset)
		if err != nil {
			return decayed, err
		}
		if len(ids) == 0 {
			return decayed, nil
		}

		batch := 0
		err = e.store.WithTx(ctx, func(tx store.Tx) error {
			batch = 0
			for _, id := range ids {
				agent, err := tx.GetAgent(ctx, id)
				if err != nil {
					return err
				}
				if agent == nil {
					continue
				}
				if err := tx.SetAgentReputation(ctx, id, MonthlyDecay(agent.Reputation, e.params.Decay)); err != nil {
					return err
				}
				batch++
			}
			return nil
		})
		if err != nil {
			return decayed, err
		}
		decayed += batch

		offset += len(ids)
	}
}

// resolveReplyTarget resolves the effective target of a reply: the parent
// comment's author when the comment is a nested reply, else the post's
// author.
func resolveReplyTarget(ctx context.Context, tx store.Tx, comment *store.Comment) (string, error) {
	if comment.ParentCommentID != "" {
		parent, err := tx.GetComment(ctx, comment.ParentCommentID)
		if err != nil {
			return "", err
		}
		if parent == nil {
			return "", fmt.Errorf("parent comment %s: %w", comment.ParentCommentID, ErrTargetNotFound)
		}
		return parent.AuthorAgentID, nil
	}
	post, err := tx.GetPost(ctx, comment.PostID)
	if err != nil {
		return "", err
	}
	if post == nil {
		return "", fmt.Errorf("post %s: %w", comment.PostID, ErrTargetNotFound)
	}
	return post.AuthorAgentID, nil
}
