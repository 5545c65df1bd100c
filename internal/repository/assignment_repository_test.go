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
)

var assignmentColumnNames = []string{"id", "child_id", "volunteer_id", "is_active", "assigned_at", "assigned_by", "updated_at"}

func TestAssignInsertsOrReactivates(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	at := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (child_id, volunteer_id) DO UPDATE")).
		WithArgs(sqlmock.AnyArg(), "c1", "v1", at, "admin").
		WillReturnRows(sqlmock.NewRows(assignmentColumnNames).AddRow("a-original", "c1", "v1", true, at, "admin", at))

	a, err := repo.Assign(context.Background(), "c1", "v1", "admin", at)
	require.NoError(t, err)
	assert.Equal(t, "a-original", a.ID)
	assert.True(t, a.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignAlreadyActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE assignments.is_active = FALSE")).
		WillReturnRows(sqlmock.NewRows(assignmentColumnNames))

	_, err := repo.Assign(context.Background(), "c1", "v1", "admin", time.Now())
	assert.ErrorIs(t, err, ErrAlreadyActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateInactive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE assignments SET is_active = FALSE, updated_at = $2 WHERE id = $1 AND is_active = TRUE")).
		WillReturnRows(sqlmock.NewRows(assignmentColumnNames))

	_, err := repo.Deactivate(context.Background(), "a1", time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveAssignments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	cols := append(append([]string{}, assignmentColumnNames...), "child_name", "child_state", "volunteer_name", "volunteer_email")
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY a.assigned_at DESC")).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("a1", "c1", "v1", true, now, nil, now, "Ada", "Lagos", "Vee", "v@example.com"))

	items, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Ada", items[0].ChildName)
	assert.Nil(t, items[0].AssignedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("SELECT EXISTS").WithArgs("c1", "v1").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.IsActive(context.Background(), "c1", "v1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
