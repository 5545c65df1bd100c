package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/counseling-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var userColumnNames = []string{"id", "email", "password_hash", "full_name", "role", "approval_status", "active", "state", "specialization", "experience", "motivation", "rejection_reason", "approved_by", "approved_at", "last_login", "created_at", "updated_at"}

func userRow(rows *sqlmock.Rows, id string, status models.ApprovalStatus, active bool, reason interface{}) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, id+"@example.com", "hash", "Volunteer "+id, string(models.RoleVolunteer), string(status), active, "Lagos", "", "", "", reason, nil, nil, nil, now, now)
}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+userColumns+" FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("V1@example.com").
		WillReturnRows(userRow(sqlmock.NewRows(userColumnNames), "v1", models.ApprovalApproved, true, nil))

	user, err := repo.FindByEmail(context.Background(), "V1@example.com")
	require.NoError(t, err)
	assert.Equal(t, "v1@example.com", user.Email)
	assert.Equal(t, models.ApprovalApproved, user.ApprovalStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("FROM users WHERE id").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{Email: "new@example.com", FullName: "New", Role: models.RoleVolunteer, ApprovalStatus: models.ApprovalPending}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideRejectsPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	reason := "incomplete application"
	at := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND approval_status = 'PENDING'")).
		WithArgs("v2", models.ApprovalRejected, false, &reason, "admin", at).
		WillReturnRows(userRow(sqlmock.NewRows(userColumnNames), "v2", models.ApprovalRejected, false, reason))

	user, err := repo.Decide(context.Background(), ApprovalDecision{
		UserID: "v2", Status: models.ApprovalRejected, Active: false, RejectionReason: &reason, DecidedBy: "admin", DecidedAt: at,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalRejected, user.ApprovalStatus)
	assert.False(t, user.Active)
	require.NotNil(t, user.RejectionReason)
	assert.Equal(t, reason, *user.RejectionReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideAlreadyDecided(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("UPDATE users").WillReturnRows(sqlmock.NewRows(userColumnNames))

	_, err := repo.Decide(context.Background(), ApprovalDecision{UserID: "v1", Status: models.ApprovalApproved, Active: true, DecidedBy: "admin", DecidedAt: time.Now()})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListVolunteers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "email", "full_name", "state", "specialization", "active_assignments"}).
		AddRow("v1", "v1@example.com", "V One", "Lagos", "trauma", 3)
	mock.ExpectQuery("FROM users u\\s+LEFT JOIN assignments a").WillReturnRows(rows)

	volunteers, err := repo.ListVolunteers(context.Background())
	require.NoError(t, err)
	require.Len(t, volunteers, 1)
	assert.Equal(t, 3, volunteers[0].ActiveAssignments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateRefreshToken(context.Background(), &models.RefreshToken{UserID: "u1", Token: "token", ExpiresAt: time.Now()})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{Action: models.AuditActionApprove, Resource: "users", NewValues: []byte(`{"status":"APPROVED"}`)}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
