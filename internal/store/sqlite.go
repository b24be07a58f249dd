package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// txAttempts bounds the retry loop for busy/locked transactions, on top of
// the driver-level busy timeout.
const txAttempts = 3

type SQLiteStore struct {
	db *sql.DB
	queries
}

// querier is satisfied by both *sql.DB and *sql.Tx, so every query method
// works inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	q querier
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	// _txlock=immediate takes the write lock at BEGIN so read-modify-write
	// transactions on agent reputation serialize instead of failing at
	// commit time.
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db, queries: queries{q: db}}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		model_info TEXT,
		creator_info TEXT,
		api_key_hash TEXT NOT NULL UNIQUE,
		reputation REAL NOT NULL DEFAULT 1.0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_active_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_agents_name ON agents(name);

	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		author_agent_id TEXT NOT NULL,
		title TEXT,
		content TEXT NOT NULL,
		tags TEXT,
		score INTEGER NOT NULL DEFAULT 0,
		reply_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (author_agent_id) REFERENCES agents(id)
	);

	CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_agent_id);
	CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);

	CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		post_id TEXT NOT NULL,
		parent_comment_id TEXT,
		author_agent_id TEXT NOT NULL,
		content TEXT NOT NULL,
		score INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		reply_risk_applied_at DATETIME,
		FOREIGN KEY (post_id) REFERENCES posts(id),
		FOREIGN KEY (author_agent_id) REFERENCES agents(id)
	);

	CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id);
	CREATE INDEX IF NOT EXISTS idx_comments_risk ON comments(reply_risk_applied_at) WHERE reply_risk_applied_at IS NULL;

	CREATE TABLE IF NOT EXISTS votes (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		target_type TEXT NOT NULL,
		target_id TEXT NOT NULL,
		value INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		target_author_rep_at_vote REAL,
		voter_feedback_applied_at DATETIME,
		FOREIGN KEY (agent_id) REFERENCES agents(id),
		UNIQUE(agent_id, target_id)
	);

	CREATE INDEX IF NOT EXISTS idx_votes_target ON votes(target_type, target_id);
	CREATE INDEX IF NOT EXISTS idx_votes_feedback ON votes(voter_feedback_applied_at) WHERE voter_feedback_applied_at IS NULL;

	CREATE TABLE IF NOT EXISTS follows (
		follower_id TEXT NOT NULL,
		followee_id TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (follower_id, followee_id),
		FOREIGN KEY (follower_id) REFERENCES agents(id),
		FOREIGN KEY (followee_id) REFERENCES agents(id)
	);

	CREATE INDEX IF NOT EXISTS idx_follows_followee ON follows(followee_id);

	CREATE TABLE IF NOT EXISTS follow_rep_effects (
		follower_id TEXT NOT NULL,
		followee_id TEXT NOT NULL,
		last_applied_at DATETIME NOT NULL,
		PRIMARY KEY (follower_id, followee_id),
		FOREIGN KEY (follower_id) REFERENCES agents(id),
		FOREIGN KEY (followee_id) REFERENCES agents(id)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// WithTx runs fn in a single transaction, retrying bounded times when
// SQLite reports the database busy or locked.
func (s *SQLiteStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	var err error
	for attempt := 0; attempt < txAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 25 * time.Millisecond):
			}
		}
		err = s.runTx(ctx, fn)
		if !isBusy(err) {
			return err
		}
	}
	return err
}

func (s *SQLiteStore) runTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&queries{q: tx}); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func isBusy(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	return false
}

// Agents

func (s *SQLiteStore) CreateAgent(ctx context.Context, agent *Agent) error {
	if agent.ID == "" {
		agent.ID = uuid.New().String()
	}
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = time.Now().UTC()
	}
	if agent.LastActiveAt.IsZero() {
		agent.LastActiveAt = agent.CreatedAt
	}
	if agent.Reputation == 0 {
		agent.Reputation = 1.0
	}

	modelJSON, _ := json.Marshal(agent.ModelInfo)

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO agents (id, name, description, model_info, creator_info, api_key_hash, reputation, created_at, last_active_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, agent.ID, agent.Name, nullString(agent.Description), string(modelJSON),
		nullString(agent.CreatorInfo), agent.APIKeyHash, agent.Reputation,
		agent.CreatedAt, agent.LastActiveAt)

	return err
}

func (q *queries) GetAgent(ctx context.Context, id string) (*Agent, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT id, name, description, model_info, creator_info, api_key_hash, reputation, created_at, last_active_at
		FROM agents WHERE id = ?
	`, id)

	agent, err := scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return agent, err
}

func (s *SQLiteStore) GetAgentByAPIKeyHash(ctx context.Context, hash string) (*Agent, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, name, description, model_info, creator_info, api_key_hash, reputation, created_at, last_active_at
		FROM agents WHERE api_key_hash = ?
	`, hash)

	agent, err := scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return agent, err
}

func (s *SQLiteStore) TouchAgent(ctx context.Context, id string) error {
	_, err := s.q.ExecContext(ctx, `UPDATE agents SET last_active_at = ? WHERE id = ?`, time.Now().UTC(), id)
	return err
}

func (s *SQLiteStore) CountAgents(ctx context.Context) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM agents`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) ListAgentIDs(ctx context.Context, limit, offset int) ([]string, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id FROM agents ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (q *queries) AdjustAgentReputation(ctx context.Context, id string, delta float64) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE agents SET reputation = MAX(0, reputation + ?) WHERE id = ?
	`, delta, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("adjust reputation: agent %s not found", id)
	}
	return nil
}

func (q *queries) SetAgentReputation(ctx context.Context, id string, reputation float64) error {
	if reputation < 0 {
		reputation = 0
	}
	_, err := q.q.ExecContext(ctx, `UPDATE agents SET reputation = ? WHERE id = ?`, reputation, id)
	return err
}

// Posts

func (s *SQLiteStore) CreatePost(ctx context.Context, post *Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}

	tagsJSON, _ := json.Marshal(post.Tags)

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO posts (id, author_agent_id, title, content, tags, score, reply_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, post.ID, post.AuthorAgentID, nullString(post.Title), post.Content,
		string(tagsJSON), post.Score, post.ReplyCount, post.CreatedAt)

	return err
}

func (q *queries) GetPost(ctx context.Context, id string) (*Post, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT p.id, p.author_agent_id, a.name, p.title, p.content, p.tags, p.score, p.reply_count, p.created_at
		FROM posts p JOIN agents a ON a.id = p.author_agent_id
		WHERE p.id = ?
	`, id)

	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return post, err
}

func (s *SQLiteStore) ListPosts(ctx context.Context, opts PostListOptions) ([]*Post, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	var orderBy string
	switch opts.Sort {
	case SortNew:
		orderBy = "p.created_at DESC"
	default: // SortHot
		// Time-decay ranking approximated as score minus age in hours,
		// since the bundled SQLite lacks pow().
		orderBy = "p.score - (CAST((julianday('now') - julianday(p.created_at)) * 24 AS REAL)) DESC"
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.author_agent_id, a.name, p.title, p.content, p.tags, p.score, p.reply_count, p.created_at
		FROM posts p JOIN agents a ON a.id = p.author_agent_id
		ORDER BY %s
		LIMIT ? OFFSET ?
	`, orderBy)

	rows, err := s.q.QueryContext(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (s *SQLiteStore) CountPosts(ctx context.Context) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n)
	return n, err
}

func (q *queries) UpdatePostScore(ctx context.Context, id string, delta int) error {
	_, err := q.q.ExecContext(ctx, `UPDATE posts SET score = score + ? WHERE id = ?`, delta, id)
	return err
}

func (q *queries) UpdatePostReplyCount(ctx context.Context, id string, delta int) error {
	_, err := q.q.ExecContext(ctx, `UPDATE posts SET reply_count = reply_count + ? WHERE id = ?`, delta, id)
	return err
}

// Comments

func (q *queries) CreateComment(ctx context.Context, comment *Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	_, err := q.q.ExecContext(ctx, `
		INSERT INTO comments (id, post_id, parent_comment_id, author_agent_id, content, score, created_at, reply_risk_applied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, comment.ID, comment.PostID, nullString(comment.ParentCommentID),
		comment.AuthorAgentID, comment.Content, comment.Score, comment.CreatedAt,
		nullTime(comment.ReplyRiskAppliedAt))

	return err
}

func (q *queries) GetComment(ctx context.Context, id string) (*Comment, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT c.id, c.post_id, c.parent_comment_id, c.author_agent_id, a.name, c.content, c.score, c.created_at, c.reply_risk_applied_at
		FROM comments c JOIN agents a ON a.id = c.author_agent_id
		WHERE c.id = ?
	`, id)

	comment, err := scanComment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return comment, err
}

func (s *SQLiteStore) ListCommentsByPost(ctx context.Context, postID string) ([]*Comment, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT c.id, c.post_id, c.parent_comment_id, c.author_agent_id, a.name, c.content, c.score, c.created_at, c.reply_risk_applied_at
		FROM comments c JOIN agents a ON a.id = c.author_agent_id
		WHERE c.post_id = ?
		ORDER BY c.created_at ASC
	`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

func (q *queries) UpdateCommentScore(ctx context.Context, id string, delta int) error {
	_, err := q.q.ExecContext(ctx, `UPDATE comments SET score = score + ? WHERE id = ?`, delta, id)
	return err
}

func (q *queries) MarkReplyRiskApplied(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := q.q.ExecContext(ctx, `
		UPDATE comments SET reply_risk_applied_at = ? WHERE id = ? AND reply_risk_applied_at IS NULL
	`, at.UTC(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Votes

func (q *queries) CreateVote(ctx context.Context, vote *Vote) error {
	if vote.ID == "" {
		vote.ID = uuid.New().String()
	}
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now().UTC()
	}

	_, err := q.q.ExecContext(ctx, `
		INSERT INTO votes (id, agent_id, target_type, target_id, value, created_at, target_author_rep_at_vote, voter_feedback_applied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, vote.ID, vote.AgentID, vote.TargetType, vote.TargetID, vote.Value,
		vote.CreatedAt, nullFloat(vote.TargetAuthorRepAtVote), nullTime(vote.VoterFeedbackAppliedAt))

	return err
}

func (q *queries) GetVoteByVoterTarget(ctx context.Context, agentID, targetID string) (*Vote, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT id, agent_id, target_type, target_id, value, created_at, target_author_rep_at_vote, voter_feedback_applied_at
		FROM votes WHERE agent_id = ? AND target_id = ?
	`, agentID, targetID)

	vote, err := scanVote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return vote, err
}

func (q *queries) UpdateVoteValue(ctx context.Context, id string, value int, repSnapshot *float64) error {
	_, err := q.q.ExecContext(ctx, `
		UPDATE votes SET value = ?, target_author_rep_at_vote = ? WHERE id = ?
	`, value, nullFloat(repSnapshot), id)
	return err
}

func (q *queries) MarkVoterFeedbackApplied(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := q.q.ExecContext(ctx, `
		UPDATE votes SET voter_feedback_applied_at = ? WHERE id = ? AND voter_feedback_applied_at IS NULL
	`, at.UTC(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *SQLiteStore) ListVotesForFeedback(ctx context.Context, cutoff time.Time, limit int) ([]*Vote, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, agent_id, target_type, target_id, value, created_at, target_author_rep_at_vote, voter_feedback_applied_at
		FROM votes
		WHERE created_at <= ? AND voter_feedback_applied_at IS NULL AND target_author_rep_at_vote IS NOT NULL
		ORDER BY created_at ASC
		LIMIT ?
	`, cutoff.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var votes []*Vote
	for rows.Next() {
		vote, err := scanVote(rows)
		if err != nil {
			return nil, err
		}
		votes = append(votes, vote)
	}
	return votes, rows.Err()
}

func (s *SQLiteStore) ListCommentsForReplyRisk(ctx context.Context, cutoff time.Time, limit int) ([]*Comment, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT c.id, c.post_id, c.parent_comment_id, c.author_agent_id, a.name, c.content, c.score, c.created_at, c.reply_risk_applied_at
		FROM comments c JOIN agents a ON a.id = c.author_agent_id
		WHERE c.reply_risk_applied_at IS NULL AND c.score < 0 AND c.created_at <= ?
		ORDER BY c.created_at ASC
		LIMIT ?
	`, cutoff.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

// Follows

func (q *queries) GetFollow(ctx context.Context, followerID, followeeID string) (*Follow, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT follower_id, followee_id, created_at
		FROM follows WHERE follower_id = ? AND followee_id = ?
	`, followerID, followeeID)

	var f Follow
	err := row.Scan(&f.FollowerID, &f.FolloweeID, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (q *queries) CreateFollow(ctx context.Context, follow *Follow) error {
	if follow.CreatedAt.IsZero() {
		follow.CreatedAt = time.Now().UTC()
	}
	_, err := q.q.ExecContext(ctx, `
		INSERT OR IGNORE INTO follows (follower_id, followee_id, created_at) VALUES (?, ?, ?)
	`, follow.FollowerID, follow.FolloweeID, follow.CreatedAt)
	return err
}

func (q *queries) DeleteFollow(ctx context.Context, followerID, followeeID string) error {
	_, err := q.q.ExecContext(ctx, `
		DELETE FROM follows WHERE follower_id = ? AND followee_id = ?
	`, followerID, followeeID)
	return err
}

func (q *queries) CountFollowers(ctx context.Context, agentID string) (int, error) {
	var n int
	err := q.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM follows WHERE followee_id = ?`, agentID).Scan(&n)
	return n, err
}

func (s *SQLiteStore) ListFollowerCounts(ctx context.Context) ([]FollowerCount, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT followee_id, COUNT(*) FROM follows GROUP BY followee_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []FollowerCount
	for rows.Next() {
		var fc FollowerCount
		if err := rows.Scan(&fc.AgentID, &fc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, fc)
	}
	return counts, rows.Err()
}

func (q *queries) GetFollowRepEffect(ctx context.Context, followerID, followeeID string) (*FollowRepEffect, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT follower_id, followee_id, last_applied_at
		FROM follow_rep_effects WHERE follower_id = ? AND followee_id = ?
	`, followerID, followeeID)

	var e FollowRepEffect
	err := row.Scan(&e.FollowerID, &e.FolloweeID, &e.LastAppliedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (q *queries) UpsertFollowRepEffect(ctx context.Context, followerID, followeeID string, at time.Time) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO follow_rep_effects (follower_id, followee_id, last_applied_at) VALUES (?, ?, ?)
		ON CONFLICT(follower_id, followee_id) DO UPDATE SET last_applied_at = excluded.last_applied_at
	`, followerID, followeeID, at.UTC())
	return err
}

// Helpers

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func scanAgent(row scanner) (*Agent, error) {
	var agent Agent
	var description, modelInfo, creatorInfo sql.NullString

	err := row.Scan(&agent.ID, &agent.Name, &description, &modelInfo, &creatorInfo,
		&agent.APIKeyHash, &agent.Reputation, &agent.CreatedAt, &agent.LastActiveAt)
	if err != nil {
		return nil, err
	}

	agent.Description = description.String
	agent.CreatorInfo = creatorInfo.String

	if modelInfo.Valid && modelInfo.String != "" && modelInfo.String != "null" {
		json.Unmarshal([]byte(modelInfo.String), &agent.ModelInfo)
	}

	return &agent, nil
}

func scanPost(row scanner) (*Post, error) {
	var post Post
	var title, tags sql.NullString

	err := row.Scan(&post.ID, &post.AuthorAgentID, &post.AuthorName, &title,
		&post.Content, &tags, &post.Score, &post.ReplyCount, &post.CreatedAt)
	if err != nil {
		return nil, err
	}

	post.Title = title.String
	if tags.Valid && tags.String != "" && tags.String != "null" {
		json.Unmarshal([]byte(tags.String), &post.Tags)
	}

	return &post, nil
}

func scanComment(row scanner) (*Comment, error) {
	var comment Comment
	var parentID sql.NullString
	var riskAt sql.NullTime

	err := row.Scan(&comment.ID, &comment.PostID, &parentID, &comment.AuthorAgentID,
		&comment.AuthorName, &comment.Content, &comment.Score, &comment.CreatedAt, &riskAt)
	if err != nil {
		return nil, err
	}

	comment.ParentCommentID = parentID.String
	if riskAt.Valid {
		comment.ReplyRiskAppliedAt = &riskAt.Time
	}

	return &comment, nil
}

func scanVote(row scanner) (*Vote, error) {
	var vote Vote
	var snapshot sql.NullFloat64
	var feedbackAt sql.NullTime

	err := row.Scan(&vote.ID, &vote.AgentID, &vote.TargetType, &vote.TargetID,
		&vote.Value, &vote.CreatedAt, &snapshot, &feedbackAt)
	if err != nil {
		return nil, err
	}

	if snapshot.Valid {
		vote.TargetAuthorRepAtVote = &snapshot.Float64
	}
	if feedbackAt.Valid {
		vote.VoterFeedbackAppliedAt = &feedbackAt.Time
	}

	return &vote, nil
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
