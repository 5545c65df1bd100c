package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/counseling-api/internal/models"
)

const summaryColumns = `id, session_id, volunteer_id, summary, initial_mood, final_mood, concerns_discussed, topics_discussed,
cultural_stories_used, story_effectiveness, techniques_used, key_insights, breakthroughs, challenges_faced,
engagement_level, participation_level, next_session_focus, next_session_timing, next_steps, action_items,
session_effectiveness, overall_progress, risk_indicators, counselor_notes, resolution_status, follow_up_needed,
follow_up_date, is_draft, created_at, updated_at`

// SummaryRepository persists session summaries and the memories derived from them.
type SummaryRepository struct {
	db *sqlx.DB
}

// NewSummaryRepository constructs the repository.
func NewSummaryRepository(db *sqlx.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// FindBySessionID returns the summary attached to a session.
func (r *SummaryRepository) FindBySessionID(ctx context.Context, sessionID string) (*models.SessionSummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM session_summaries WHERE session_id = $1`
	var summary models.SessionSummary
	if err := r.db.GetContext(ctx, &summary, query, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find session summary: %w", err)
	}
	return &summary, nil
}

const upsertSummaryQuery = `
INSERT INTO session_summaries (id, session_id, volunteer_id, summary, initial_mood, final_mood, concerns_discussed, topics_discussed,
	cultural_stories_used, story_effectiveness, techniques_used, key_insights, breakthroughs, challenges_faced,
	engagement_level, participation_level, next_session_focus, next_session_timing, next_steps, action_items,
	session_effectiveness, overall_progress, risk_indicators, counselor_notes, resolution_status, follow_up_needed,
	follow_up_date, is_draft, created_at, updated_at)
VALUES (:id, :session_id, :volunteer_id, :summary, :initial_mood, :final_mood, :concerns_discussed, :topics_discussed,
	:cultural_stories_used, :story_effectiveness, :techniques_used, :key_insights, :breakthroughs, :challenges_faced,
	:engagement_level, :participation_level, :next_session_focus, :next_session_timing, :next_steps, :action_items,
	:session_effectiveness, :overall_progress, :risk_indicators, :counselor_notes, :resolution_status, :follow_up_needed,
	:follow_up_date, :is_draft, :created_at, :updated_at)
ON CONFLICT (session_id) DO UPDATE SET
	volunteer_id = EXCLUDED.volunteer_id,
	summary = EXCLUDED.summary,
	initial_mood = EXCLUDED.initial_mood,
	final_mood = EXCLUDED.final_mood,
	concerns_discussed = EXCLUDED.concerns_discussed,
	topics_discussed = EXCLUDED.topics_discussed,
	cultural_stories_used = EXCLUDED.cultural_stories_used,
	story_effectiveness = EXCLUDED.story_effectiveness,
	techniques_used = EXCLUDED.techniques_used,
	key_insights = EXCLUDED.key_insights,
	breakthroughs = EXCLUDED.breakthroughs,
	challenges_faced = EXCLUDED.challenges_faced,
	engagement_level = EXCLUDED.engagement_level,
	participation_level = EXCLUDED.participation_level,
	next_session_focus = EXCLUDED.next_session_focus,
	next_session_timing = EXCLUDED.next_session_timing,
	next_steps = EXCLUDED.next_steps,
	action_items = EXCLUDED.action_items,
	session_effectiveness = EXCLUDED.session_effectiveness,
	overall_progress = EXCLUDED.overall_progress,
	risk_indicators = EXCLUDED.risk_indicators,
	counselor_notes = EXCLUDED.counselor_notes,
	resolution_status = EXCLUDED.resolution_status,
	follow_up_needed = EXCLUDED.follow_up_needed,
	follow_up_date = EXCLUDED.follow_up_date,
	is_draft = EXCLUDED.is_draft,
	updated_at = EXCLUDED.updated_at
RETURNING ` + summaryColumns

const insertMemoryQuery = `INSERT INTO conversation_memories (id, child_id, session_id, volunteer_id, memory_type, content, importance, tags, created_at)
VALUES (:id, :child_id, :session_id, :volunteer_id, :memory_type, :content, :importance, :tags, :created_at)`

// Save upserts the summary keyed by session. When the summary is final the parent
// session is completed, all in one transaction. Memories are appended only on the
// first final save; resubmitting an already final summary keeps the existing ones.
func (r *SummaryRepository) Save(ctx context.Context, summary *models.SessionSummary, memories []models.ConversationMemory) (saved *models.SessionSummary, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin summary save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	appendMemories := !summary.IsDraft
	if appendMemories {
		var wasDraft bool
		err = tx.GetContext(ctx, &wasDraft, `SELECT is_draft FROM session_summaries WHERE session_id = $1 FOR UPDATE`, summary.SessionID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			err = nil
		case err != nil:
			return nil, fmt.Errorf("lock session summary: %w", err)
		default:
			appendMemories = wasDraft
		}
	}

	query, args, err := tx.BindNamed(upsertSummaryQuery, summary)
	if err != nil {
		return nil, fmt.Errorf("bind summary: %w", err)
	}
	var out models.SessionSummary
	if err = tx.GetContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("upsert session summary: %w", err)
	}

	if !summary.IsDraft {
		if _, err = tx.ExecContext(ctx, `UPDATE sessions SET status = 'COMPLETED', ended_at = $2, updated_at = $2 WHERE id = $1`, summary.SessionID, summary.UpdatedAt); err != nil {
			return nil, fmt.Errorf("complete session: %w", err)
		}
	}
	if appendMemories {
		for i := range memories {
			if _, err = tx.NamedExecContext(ctx, insertMemoryQuery, &memories[i]); err != nil {
				return nil, fmt.Errorf("insert conversation memory: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit summary save: %w", err)
	}
	return &out, nil
}

// ListMemories returns the most recent memories for a child.
func (r *SummaryRepository) ListMemories(ctx context.Context, childID string, limit int) ([]models.ConversationMemory, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const query = `SELECT id, child_id, session_id, volunteer_id, memory_type, content, importance, tags, created_at
FROM conversation_memories WHERE child_id = $1 ORDER BY importance DESC, created_at DESC LIMIT $2`
	var memories []models.ConversationMemory
	if err := r.db.SelectContext(ctx, &memories, query, childID, limit); err != nil {
		return nil, fmt.Errorf("list conversation memories: %w", err)
	}
	return memories, nil
}
