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

const assignmentColumns = `id, child_id, volunteer_id, is_active, assigned_at, assigned_by, updated_at`

// AssignmentRepository persists child-volunteer links.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListActive returns active assignments joined with child and volunteer names, newest first.
func (r *AssignmentRepository) ListActive(ctx context.Context) ([]models.AssignmentDetail, error) {
	const query = `
SELECT a.id, a.child_id, a.volunteer_id, a.is_active, a.assigned_at, a.assigned_by, a.updated_at,
	c.full_name AS child_name, c.state AS child_state,
	u.full_name AS volunteer_name, u.email AS volunteer_email
FROM assignments a
JOIN children c ON c.id = a.child_id
JOIN users u ON u.id = a.volunteer_id
WHERE a.is_active = TRUE
ORDER BY a.assigned_at DESC`
	var items []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return items, nil
}

// FindByID returns an assignment regardless of its active flag.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`
	var a models.Assignment
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return &a, nil
}

// Assign creates the pair or reactivates its inactive row in a single statement.
// The unique (child_id, volunteer_id) constraint serialises concurrent callers;
// the loser of a race, or a pair that is already active, gets ErrAlreadyActive.
func (r *AssignmentRepository) Assign(ctx context.Context, childID, volunteerID, assignedBy string, at time.Time) (*models.Assignment, error) {
	query := `
INSERT INTO assignments (id, child_id, volunteer_id, is_active, assigned_at, assigned_by, updated_at)
VALUES ($1, $2, $3, TRUE, $4, $5, $4)
ON CONFLICT (child_id, volunteer_id) DO UPDATE
SET is_active = TRUE, assigned_at = EXCLUDED.assigned_at, assigned_by = EXCLUDED.assigned_by, updated_at = EXCLUDED.updated_at
WHERE assignments.is_active = FALSE
RETURNING ` + assignmentColumns
	var by *string
	if assignedBy != "" {
		by = &assignedBy
	}
	var a models.Assignment
	if err := r.db.GetContext(ctx, &a, query, uuid.NewString(), childID, volunteerID, at, by); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlreadyActive
		}
		return nil, fmt.Errorf("assign volunteer: %w", err)
	}
	return &a, nil
}

// Deactivate flips an active assignment to inactive. sql.ErrNoRows when it was not active.
func (r *AssignmentRepository) Deactivate(ctx context.Context, id string, at time.Time) (*models.Assignment, error) {
	query := `UPDATE assignments SET is_active = FALSE, updated_at = $2 WHERE id = $1 AND is_active = TRUE RETURNING ` + assignmentColumns
	var a models.Assignment
	if err := r.db.GetContext(ctx, &a, query, id, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("deactivate assignment: %w", err)
	}
	return &a, nil
}

// IsActive reports whether the volunteer is actively assigned to the child.
func (r *AssignmentRepository) IsActive(ctx context.Context, childID, volunteerID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM assignments WHERE child_id = $1 AND volunteer_id = $2 AND is_active = TRUE)`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, childID, volunteerID); err != nil {
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return ok, nil
}
