package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/counseling-api/internal/models"
)

const sessionColumns = `id, child_id, volunteer_id, status, session_type, started_at, ended_at, notes, created_at, updated_at`

// SessionRepository persists counseling sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// FindByID returns a session.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	var s models.Session
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &s, nil
}

// ListByChild returns a child's sessions, newest first.
func (r *SessionRepository) ListByChild(ctx context.Context, childID string) ([]models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE child_id = $1 ORDER BY created_at DESC`
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, childID); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// StartParams describes a start request.
type StartParams struct {
	ChildID     string
	VolunteerID string
	SessionType string
	At          time.Time
}

// Start promotes the child's open session to IN_PROGRESS or opens a new one.
// created reports whether a new row was inserted. A concurrent insert that loses
// the open-session unique index is retried once, which then promotes the winner.
func (r *SessionRepository) Start(ctx context.Context, p StartParams) (*models.Session, bool, error) {
	s, created, err := r.startOnce(ctx, p)
	if err != nil && IsUniqueViolation(err) {
		return r.startOnce(ctx, p)
	}
	return s, created, err
}

func (r *SessionRepository) startOnce(ctx context.Context, p StartParams) (s *models.Session, created bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin session start: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var open models.Session
	lockQuery := `SELECT ` + sessionColumns + ` FROM sessions WHERE child_id = $1 AND status IN ('PLANNED', 'IN_PROGRESS') FOR UPDATE`
	err = tx.GetContext(ctx, &open, lockQuery, p.ChildID)
	switch {
	case err == nil:
		promoteQuery := `UPDATE sessions SET status = 'IN_PROGRESS', started_at = $2, updated_at = $2 WHERE id = $1 RETURNING ` + sessionColumns
		if err = tx.GetContext(ctx, &open, promoteQuery, open.ID, p.At); err != nil {
			return nil, false, fmt.Errorf("promote session: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		insertQuery := `INSERT INTO sessions (id, child_id, volunteer_id, status, session_type, started_at, created_at, updated_at)
VALUES ($1, $2, $3, 'IN_PROGRESS', $4, $5, $5, $5)
RETURNING ` + sessionColumns
		if err = tx.GetContext(ctx, &open, insertQuery, uuid.NewString(), p.ChildID, p.VolunteerID, p.SessionType, p.At); err != nil {
			return nil, false, fmt.Errorf("insert session: %w", err)
		}
		created = true
	default:
		return nil, false, fmt.Errorf("lock open session: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit session start: %w", err)
	}
	return &open, created, nil
}

// Complete marks a session COMPLETED and stamps ended_at. Nil notes keep existing notes.
func (r *SessionRepository) Complete(ctx context.Context, id string, notes *string, at time.Time) (*models.Session, error) {
	query := `UPDATE sessions SET status = 'COMPLETED', ended_at = $2, notes = COALESCE($3, notes), updated_at = $2 WHERE id = $1 RETURNING ` + sessionColumns
	var s models.Session
	if err := r.db.GetContext(ctx, &s, query, id, at, notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("complete session: %w", err)
	}
	return &s, nil
}
