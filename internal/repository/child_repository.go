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

const childColumns = `id, full_name, date_of_birth, age, gender, state, district, city, background, interests, challenges, language, active, created_at, updated_at`

// ChildRepository persists child records.
type ChildRepository struct {
	db *sqlx.DB
}

// NewChildRepository constructs the repository.
func NewChildRepository(db *sqlx.DB) *ChildRepository {
	return &ChildRepository{db: db}
}

// List returns active children matching the filter with a total count.
func (r *ChildRepository) List(ctx context.Context, filter models.ChildFilter) ([]models.Child, int, error) {
	var where strings.Builder
	where.WriteString(`FROM children c WHERE c.active = TRUE`)
	var args []interface{}

	if filter.VolunteerID != "" {
		args = append(args, filter.VolunteerID)
		fmt.Fprintf(&where, ` AND EXISTS (SELECT 1 FROM assignments a WHERE a.child_id = c.id AND a.volunteer_id = $%d AND a.is_active = TRUE)`, len(args))
	}
	if filter.State != "" {
		args = append(args, strings.ToLower(filter.State))
		fmt.Fprintf(&where, ` AND LOWER(c.state) = $%d`, len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		fmt.Fprintf(&where, ` AND (LOWER(c.full_name) LIKE $%d OR LOWER(c.district) LIKE $%d)`, len(args), len(args))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT c.%s %s ORDER BY c.full_name ASC LIMIT %d OFFSET %d`,
		strings.ReplaceAll(childColumns, ", ", ", c."), where.String(), pageSize, offset)
	var children []models.Child
	if err := r.db.SelectContext(ctx, &children, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list children: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) `+where.String(), args...); err != nil {
		return nil, 0, fmt.Errorf("count children: %w", err)
	}
	return children, total, nil
}

// FindByID returns an active child.
func (r *ChildRepository) FindByID(ctx context.Context, id string) (*models.Child, error) {
	query := `SELECT ` + childColumns + ` FROM children WHERE id = $1 AND active = TRUE`
	var child models.Child
	if err := r.db.GetContext(ctx, &child, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find child: %w", err)
	}
	return &child, nil
}

// ExistsSimilar reports whether another active child shares the name, derived age and district.
func (r *ChildRepository) ExistsSimilar(ctx context.Context, name string, age int, district, excludeID string) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM children
	WHERE active = TRUE
		AND LOWER(full_name) = LOWER($1)
		AND LOWER(district) = LOWER($2)
		AND COALESCE(DATE_PART('year', AGE(date_of_birth))::int, age) = $3
		AND id <> $4
)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, strings.TrimSpace(name), strings.TrimSpace(district), age, excludeID); err != nil {
		return false, fmt.Errorf("check duplicate child: %w", err)
	}
	return exists, nil
}

// Create inserts a child.
func (r *ChildRepository) Create(ctx context.Context, child *models.Child) error {
	if child.ID == "" {
		child.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	child.CreatedAt = now
	child.UpdatedAt = now
	child.Active = true

	const query = `INSERT INTO children (id, full_name, date_of_birth, age, gender, state, district, city, background, interests, challenges, language, active, created_at, updated_at)
VALUES (:id, :full_name, :date_of_birth, :age, :gender, :state, :district, :city, :background, :interests, :challenges, :language, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, child); err != nil {
		return fmt.Errorf("create child: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of an active child. sql.ErrNoRows when it does not exist.
func (r *ChildRepository) Update(ctx context.Context, child *models.Child) error {
	child.UpdatedAt = time.Now().UTC()
	const query = `UPDATE children SET full_name = :full_name, date_of_birth = :date_of_birth, age = :age, gender = :gender, state = :state,
district = :district, city = :city, background = :background, interests = :interests, challenges = :challenges, language = :language, updated_at = :updated_at
WHERE id = :id AND active = TRUE`
	res, err := r.db.NamedExecContext(ctx, query, child)
	if err != nil {
		return fmt.Errorf("update child: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SoftDelete deactivates the child and all of its active assignments atomically.
// It returns the number of assignments closed.
func (r *ChildRepository) SoftDelete(ctx context.Context, id string, at time.Time) (closed int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin child delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `UPDATE children SET active = FALSE, updated_at = $2 WHERE id = $1 AND active = TRUE`, id, at)
	if err != nil {
		return 0, fmt.Errorf("deactivate child: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deactivate child rows: %w", err)
	}
	if n == 0 {
		err = sql.ErrNoRows
		return 0, err
	}

	res, err = tx.ExecContext(ctx, `UPDATE assignments SET is_active = FALSE, updated_at = $2 WHERE child_id = $1 AND is_active = TRUE`, id, at)
	if err != nil {
		return 0, fmt.Errorf("deactivate child assignments: %w", err)
	}
	if closed, err = res.RowsAffected(); err != nil {
		return 0, fmt.Errorf("deactivate child assignments rows: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit child delete: %w", err)
	}
	return closed, nil
}
