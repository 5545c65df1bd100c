package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/counseling-api/internal/models"
)

var concernColumnNames = []string{"id", "child_id", "title", "description", "category", "severity", "status", "created_by", "created_at", "updated_at", "resolved_at"}

func TestConcernTransitionStampsResolution(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewConcernRepository(db)

	at := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND status = $2")).
		WithArgs("cn1", "IN_PROGRESS", "RESOLVED", at).
		WillReturnRows(sqlmock.NewRows(concernColumnNames).AddRow("cn1", "c1", "Bullying", "", "SOCIAL", "HIGH", "RESOLVED", nil, at, at, at))

	concern, err := repo.Transition(context.Background(), "cn1", models.ConcernInProgress, models.ConcernResolved, at)
	require.NoError(t, err)
	assert.Equal(t, models.ConcernResolved, concern.Status)
	require.NotNil(t, concern.ResolvedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConcernTransitionLostRace(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewConcernRepository(db)

	mock.ExpectQuery("UPDATE concerns").WillReturnRows(sqlmock.NewRows(concernColumnNames))

	_, err := repo.Transition(context.Background(), "cn1", models.ConcernOpen, models.ConcernInProgress, time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListConcernsScoped(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewConcernRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("cn.child_id = $1 AND EXISTS (SELECT 1 FROM assignments a WHERE a.child_id = cn.child_id AND a.volunteer_id = $2")).
		WithArgs("c1", "v1").
		WillReturnRows(sqlmock.NewRows(concernColumnNames))

	concerns, err := repo.List(context.Background(), "c1", "v1")
	require.NoError(t, err)
	assert.Empty(t, concerns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateConcern(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewConcernRepository(db)

	mock.ExpectExec("INSERT INTO concerns").WillReturnResult(sqlmock.NewResult(0, 1))

	concern := &models.Concern{ChildID: "c1", Title: "Sleep", Status: models.ConcernOpen}
	require.NoError(t, repo.Create(context.Background(), concern))
	assert.NotEmpty(t, concern.ID)
	assert.False(t, concern.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
