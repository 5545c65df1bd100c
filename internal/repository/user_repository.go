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

const userColumns = `id, email, password_hash, full_name, role, approval_status, active, state, specialization, experience, motivation, rejection_reason, approved_by, approved_at, last_login, created_at, updated_at`

// UserRepository provides database access for accounts, refresh tokens and approvals.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// UpdateLastLogin updates the last_login timestamp for a user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET last_login = $2, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// Create inserts a new account. A duplicate email surfaces as a unique violation.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, email, password_hash, full_name, role, approval_status, active, state, specialization, experience, motivation, created_at, updated_at)
VALUES (:id, :email, :password_hash, :full_name, :role, :approval_status, :active, :state, :specialization, :experience, :motivation, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// ListByApproval returns volunteers in the given approval state, oldest first.
func (r *UserRepository) ListByApproval(ctx context.Context, status models.ApprovalStatus) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 AND approval_status = $2 ORDER BY created_at ASC`
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, models.RoleVolunteer, status); err != nil {
		return nil, fmt.Errorf("list users by approval: %w", err)
	}
	return users, nil
}

// ApprovalDecision is a terminal transition out of PENDING.
type ApprovalDecision struct {
	UserID          string
	Status          models.ApprovalStatus
	Active          bool
	RejectionReason *string
	DecidedBy       string
	DecidedAt       time.Time
}

// Decide applies the decision only if the user is still PENDING.
// sql.ErrNoRows means the user is missing or already decided.
func (r *UserRepository) Decide(ctx context.Context, d ApprovalDecision) (*models.User, error) {
	query := `UPDATE users
SET approval_status = $2, active = $3, rejection_reason = $4, approved_by = $5, approved_at = $6, updated_at = $6
WHERE id = $1 AND approval_status = 'PENDING'
RETURNING ` + userColumns
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, d.UserID, d.Status, d.Active, d.RejectionReason, d.DecidedBy, d.DecidedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("decide approval: %w", err)
	}
	return &user, nil
}

// ListVolunteers returns approved active volunteers with their active assignment counts.
func (r *UserRepository) ListVolunteers(ctx context.Context) ([]models.VolunteerSummary, error) {
	const query = `
SELECT u.id, u.email, u.full_name, u.state, u.specialization,
	COUNT(a.id) FILTER (WHERE a.is_active) AS active_assignments
FROM users u
LEFT JOIN assignments a ON a.volunteer_id = u.id
WHERE u.role = 'VOLUNTEER' AND u.approval_status = 'APPROVED' AND u.active
GROUP BY u.id
ORDER BY u.full_name ASC`
	var volunteers []models.VolunteerSummary
	if err := r.db.SelectContext(ctx, &volunteers, query); err != nil {
		return nil, fmt.Errorf("list volunteers: %w", err)
	}
	return volunteers, nil
}

// CreateRefreshToken persists a refresh token entry.
func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent) VALUES (:id, :user_id, :token, :expires_at, :created_at, :revoked, :revoked_at, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken returns a refresh token by token string.
func (r *UserRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, user_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent FROM refresh_tokens WHERE token = $1 LIMIT 1`
	var rt models.RefreshToken
	if err := r.db.GetContext(ctx, &rt, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &rt, nil
}

// RevokeRefreshToken marks a token as revoked.
func (r *UserRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeUserRefreshTokens revokes all refresh tokens for a user.
func (r *UserRepository) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE user_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}
