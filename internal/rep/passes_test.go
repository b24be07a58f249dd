package rep

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/clawdsea/clawdsea/internal/store"
)

func TestVoterFeedbackPass(t *testing.T) {
	engine, s, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	voter := createAgent(t, s, "voter")
	author := createAgent(t, s, "author")
	post := createPost(t, s, author.ID)

	// A mature upvote: snapshot 1.0, then the author gained ground.
	snapshot := 1.0
	vote := &store.Vote{
		AgentID:               voter.ID,
		TargetType:            store.TargetPost,
		TargetID:              post.ID,
		Value:                 1,
		CreatedAt:             time.Now().UTC().Add(-15 * 24 * time.Hour),
		TargetAuthorRepAtVote: &snapshot,
	}
	if err := s.CreateVote(ctx, vote); err != nil {
		t.Fatal(err)
	}
	if err := s.AdjustAgentReputation(ctx, author.ID, 1.5157); err != nil {
		t.Fatal(err)
	}

	n, err := engine.RunVoterFeedbackPass(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 vote processed, got %d", n)
	}

	// κ × sign × (Δ / (Δ + c)) with Δ = 1.5157.
	want := 1 + 0.02*(1.5157/(1.5157+0.1))
	if !closeEnough(repOf(t, s, voter.ID), want) {
		t.Errorf("expected voter reputation %f, got %f", want, repOf(t, s, voter.ID))
	}
}

func TestVoterFeedbackPassIdempotent(t *testing.T) {
	engine, s, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	voter := createAgent(t, s, "voter")
	author := createAgent(t, s, "author")
	post := createPost(t, s, author.ID)

	snapshot := 1.0
	vote := &store.Vote{
		AgentID:               voter.ID,
		TargetType:            store.TargetPost,
		TargetID:              post.ID,
		Value:                 1,
		CreatedAt:             time.Now().UTC().Add(-15 * 24 * time.Hour),
		TargetAuthorRepAtVote: &snapshot,
	}
	if err := s.CreateVote(ctx, vote); err != nil {
		t.Fatal(err)
	}
	if err := s.AdjustAgentReputation(ctx, author.ID, 2); err != nil {
		t.Fatal(err)
	}

	if _, err := engine.RunVoterFeedbackPass(ctx); err != nil {
		t.Fatal(err)
	}
	after := repOf(t, s, voter.ID)

	n, err := engine.RunVoterFeedbackPass(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("second run should process nothing, got %d", n)
	}
	if repOf(t, s, voter.ID) != after {
		t.Error("second run moved the voter's reputation")
	}
}

func TestVoterFeedbackPassSkipsImmatureVotes(t *testing.T) {
	engine, s, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	voter := createAgent(t, s, "voter")
	author := createAgent(t, s, "author")
	post := createPost(t, s, author.ID)

	if _, err := engine.ApplyVote(ctx, voter.ID, store.TargetPost, post.ID, 1); err != nil {
		t.Fatal(err)
	}

	n, err := engine.RunVoterFeedbackPass(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("a fresh vote must not mature immediately, processed %d", n)
	}
}

func TestVoterFeedbackPassDownvoteAgainstGain(t *testing.T) {
	engine, s, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	voter := createAgent(t, s, "contrarian")
	author := createAgent(t, s, "author")
	post := createPost(t, s, author.ID)

	// Downvoted an author who then gained: feedback punishes the voter.
	snapshot := 1.0
	vote := &store.Vote{
		AgentID:               voter.ID,
		TargetType:            store.TargetPost,
		TargetID:              post.ID,
		Value:                 -1,
		CreatedAt:             time.Now().UTC().Add(-15 * 24 * time.Hour),
		TargetAuthorRepAtVote: &snapshot,
	}
	if err := s.CreateVote(ctx, vote); err != nil {
		t.Fatal(err)
	}
	if err := s.AdjustAgentReputation(ctx, author.ID, 2); err != nil {
		t.Fatal(err)
	}

	if _, err := engine.RunVoterFeedbackPass(ctx); err != nil {
		t.Fatal(err)
	}

	want := 1 - 0.02*(2.0/(2.0+0.1))
	if !closeEnough(repOf(t, s, voter.ID), want) {
		t.Errorf("expected voter reputation %f, got %f", want, repOf(t, s, voter.ID))
	}
}

// staleScanStore returns scan rows whose value and snapshot predate a vote
// flip, while the database already holds the flipped row.
type staleScanStore struct {
	*store.SQLiteStore
}

func (s *staleScanStore) ListVotesForFeedback(ctx context.Context, cutoff time.Time, limit int) ([]*store.Vote, error) {
	votes, err := s.SQLiteStore.ListVotesForFeedback(ctx, cutoff, limit)
	if err != nil {
		return nil, err
	}
	for _, v := range votes {
		v.Value = -v.Value
		stale := 99.0
		v.TargetAuthorRepAtVote = &stale
	}
	return votes, nil
}

func TestVoterFeedbackPassReadsVoteInsideTx(t *testing.T) {
	_, s, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	voter := createAgent(t, s, "voter")
	author := createAgent(t, s, "author")
	post := createPost(t, s, author.ID)

	// The database truth: an upvote with snapshot 1.0, author since gained 2.
	snapshot := 1.0
	vote := &store.Vote{
		AgentID:               voter.ID,
		TargetType:            store.TargetPost,
		TargetID:              post.ID,
		Value:                 1,
		CreatedAt:             time.Now().UTC().Add(-15 * 24 * time.Hour),
		TargetAuthorRepAtVote: &snapshot,
	}
	if err := s.CreateVote(ctx, vote); err != nil {
		t.Fatal(err)
	}
	if err := s.AdjustAgentReputation(ctx, author.ID, 2); err != nil {
		t.Fatal(err)
	}

	engine := NewEngine(&staleScanStore{s}, DefaultParams())

	n, err := engine.RunVoterFeedbackPass(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 vote processed, got %d", n)
	}

	// Feedback must use the row as committed, not the scan's stale copy:
	// an upvoter of a rising author is rewarded.
	want := 1 + 0.02*(2.0/(2.0+0.1))
	if !closeEnough(repOf(t, s, voter.ID), want) {
		t.Errorf("expected voter reputation %f from the committed row, got %f", want, repOf(t, s, voter.ID))
	}
}

func TestFollowerBonusPass(t *testing.T) {
	engine, s, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	popular := createAgent(t, s, "popular")
	loner := createAgent(t, s, "loner")

	for i := 0; i < 9; i++ {
		f := createAgent(t, s, "fan-"+string(rune('a'+i)))
		if err := s.CreateFollow(ctx, &store.Follow{FollowerID: f.ID, FolloweeID: popular.ID}); err != nil {
			t.Fatal(err)
		}
	}

	n, err := engine.RunFollowerBonusPass(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 agent credited, got %d", n)
	}

	want := 1 + 0.3*math.Log(10)
	if !closeEnough(repOf(t, s, popular.ID), want) {
		t.Errorf("expected reputation %f, got %f", want, repOf(t, s, popular.ID))
	}
	if repOf(t, s, loner.ID) != 1.0 {
		t.Errorf("agent with no followers should be untouched, got %f", repOf(t, s, loner.ID))
	}
}

func TestReplyRiskPass(t *testing.T) {
	engine, s, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	author := createAgent(t, s, "op")
	replier := createAgent(t, s, "replier")
	post := createPost(t, s, author.ID)

	old := time.Now().UTC().Add(-8 * 24 * time.Hour)
	comment := &store.Comment{
		PostID:        post.ID,
		AuthorAgentID: replier.ID,
		Content:       "poorly received",
		CreatedAt:     old,
	}
	if err := s.CreateComment(ctx, comment); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateCommentScore(ctx, comment.ID, -2); err != nil {
		t.Fatal(err)
	}

	n, err := engine.RunReplyRiskPass(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 comment processed, got %d", n)
	}

	// -λ × (R_target + 1)^α against the replier.
	want := 1 - 0.05*math.Pow(2, 0.6)
	if !closeEnough(repOf(t, s, replier.ID), want) {
		t.Errorf("expected replier reputation %f, got %f", want, repOf(t, s, replier.ID))
	}
	if repOf(t, s, author.ID) != 1.0 {
		t.Errorf("the replied-to author should be untouched, got %f", repOf(t, s, author.ID))
	}

	// Re-running never double-charges.
	n, err = engine.RunReplyRiskPass(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("second run should process nothing, got %d", n)
	}
}

func TestReplyRiskPassNestedTargetsParentAuthor(t *testing.T) {
	engine, s, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	op := createAgent(t, s, "op")
	parentAuthor := createAgent(t, s, "parent-author")
	replier := createAgent(t, s, "replier")
	post := createPost(t, s, op.ID)

	old := time.Now().UTC().Add(-8 * 24 * time.Hour)
	parent := &store.Comment{PostID: post.ID, AuthorAgentID: parentAuthor.ID, Content: "parent", CreatedAt: old}
	if err := s.CreateComment(ctx, parent); err != nil {
		t.Fatal(err)
	}
	// Boost the parent author so the risk magnitude reflects their standing.
	if err := s.AdjustAgentReputation(ctx, parentAuthor.ID, 2); err != nil {
		t.Fatal(err)
	}

	bad := &store.Comment{
		PostID:          post.ID,
		ParentCommentID: parent.ID,
		AuthorAgentID:   replier.ID,
		Content:         "bad nested reply",
		CreatedAt:       old,
	}
	if err := s.CreateComment(ctx, bad); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateCommentScore(ctx, bad.ID, -1); err != nil {
		t.Fatal(err)
	}

	if _, err := engine.RunReplyRiskPass(ctx); err != nil {
		t.Fatal(err)
	}

	// Penalty scales with the parent author's R=3, not the post author's.
	want := 1 - 0.05*math.Pow(4, 0.6)
	if !closeEnough(repOf(t, s, replier.ID), want) {
		t.Errorf("expected replier reputation %f, got %f", want, repOf(t, s, replier.ID))
	}
}

func TestReplyRiskPassSelfReply(t *testing.T) {
	engine, s, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	author := createAgent(t, s, "self-replier")
	post := createPost(t, s, author.ID)

	old := time.Now().UTC().Add(-8 * 24 * time.Hour)
	comment := &store.Comment{PostID: post.ID, AuthorAgentID: author.ID, Content: "own thread", CreatedAt: old}
	if err := s.CreateComment(ctx, comment); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateCommentScore(ctx, comment.ID, -5); err != nil {
		t.Fatal(err)
	}

	n, err := engine.RunReplyRiskPass(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("self-reply should still be marked, got %d", n)
	}
	if repOf(t, s, author.ID) != 1.0 {
		t.Errorf("self-reply must not mutate reputation, got %f", repOf(t, s, author.ID))
	}

	// Marked once, never rescanned.
	n, err = engine.RunReplyRiskPass(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("second run should process nothing, got %d", n)
	}
}

func TestDecayPass(t *testing.T) {
	engine, s, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	rich := createAgent(t, s, "rich")
	broke := createAgent(t, s, "broke")

	if err := s.AdjustAgentReputation(ctx, rich.ID, 9); err != nil {
		t.Fatal(err)
	}
	if err := s.AdjustAgentReputation(ctx, broke.ID, -1); err != nil {
		t.Fatal(err)
	}

	n, err := engine.RunDecayPass(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 agents decayed, got %d", n)
	}

	if !closeEnough(repOf(t, s, rich.ID), 9.7) {
		t.Errorf("expected 10 × 0.97 = 9.7, got %f", repOf(t, s, rich.ID))
	}
	if repOf(t, s, broke.ID) != 0 {
		t.Errorf("zero decays to zero, got %f", repOf(t, s, broke.ID))
	}
}
