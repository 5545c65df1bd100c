package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/counseling-api/internal/models"
)

const concernColumns = `id, child_id, title, description, category, severity, status, created_by, created_at, updated_at, resolved_at`

// ConcernRepository persists concerns flagged on children.
type ConcernRepository struct {
	db *sqlx.DB
}

// NewConcernRepository constructs the repository.
func NewConcernRepository(db *sqlx.DB) *ConcernRepository {
	return &ConcernRepository{db: db}
}

// Create inserts a concern.
func (r *ConcernRepository) Create(ctx context.Context, concern *models.Concern) error {
	if concern.ID == "" {
		concern.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	concern.CreatedAt = now
	concern.UpdatedAt = now

	const query = `INSERT INTO concerns (id, child_id, title, description, category, severity, status, created_by, created_at, updated_at)
VALUES (:id, :child_id, :title, :description, :category, :severity, :status, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, concern); err != nil {
		return fmt.Errorf("create concern: %w", err)
	}
	return nil
}

// FindByID returns a concern.
func (r *ConcernRepository) FindByID(ctx context.Context, id string) (*models.Concern, error) {
	query := `SELECT ` + concernColumns + ` FROM concerns WHERE id = $1`
	var concern models.Concern
	if err := r.db.GetContext(ctx, &concern, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find concern: %w", err)
	}
	return &concern, nil
}

// List returns concerns, optionally for one child and scoped to a volunteer's active assignments.
func (r *ConcernRepository) List(ctx context.Context, childID, volunteerID string) ([]models.Concern, error) {
	var query strings.Builder
	query.WriteString(`SELECT ` + concernColumns + ` FROM concerns cn WHERE 1=1`)
	var args []interface{}
	if childID != "" {
		args = append(args, childID)
		fmt.Fprintf(&query, ` AND cn.child_id = $%d`, len(args))
	}
	if volunteerID != "" {
		args = append(args, volunteerID)
		fmt.Fprintf(&query, ` AND EXISTS (SELECT 1 FROM assignments a WHERE a.child_id = cn.child_id AND a.volunteer_id = $%d AND a.is_active = TRUE)`, len(args))
	}
	query.WriteString(` ORDER BY cn.created_at DESC`)

	var concerns []models.Concern
	if err := r.db.SelectContext(ctx, &concerns, query.String(), args...); err != nil {
		return nil, fmt.Errorf("list concerns: %w", err)
	}
	return concerns, nil
}

// Transition moves a concern from one status to the next, guarding against concurrent moves.
// sql.ErrNoRows means the concern is no longer in the from status.
func (r *ConcernRepository) Transition(ctx context.Context, id string, from, to models.ConcernStatus, at time.Time) (*models.Concern, error) {
	query := `UPDATE concerns
SET status = $3, updated_at = $4, resolved_at = CASE WHEN $3 = 'RESOLVED' THEN $4 ELSE resolved_at END
WHERE id = $1 AND status = $2
RETURNING ` + concernColumns
	var concern models.Concern
	if err := r.db.GetContext(ctx, &concern, query, id, from, to, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("transition concern: %w", err)
	}
	return &concern, nil
}
