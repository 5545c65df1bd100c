package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/counseling-api/internal/models"
)

func summaryColumnNames() []string {
	fields := strings.Split(summaryColumns, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

func summaryRow(s *models.SessionSummary) *sqlmock.Rows {
	return sqlmock.NewRows(summaryColumnNames()).AddRow(
		s.ID, s.SessionID, s.VolunteerID, s.Summary, "", "", "{}", "{}",
		"{}", "{}", "{}", s.KeyInsights, "", "",
		"", "", "", "", "{}", "{}",
		s.SessionEffectiveness, "", "{}", "", string(s.ResolutionStatus), s.FollowUpNeeded,
		nil, s.IsDraft, s.CreatedAt, s.UpdatedAt,
	)
}

func newSummary(draft bool) *models.SessionSummary {
	now := time.Now().UTC()
	return &models.SessionSummary{
		ID:                   "sum-1",
		SessionID:            "s1",
		VolunteerID:          "v1",
		Summary:              "good session",
		KeyInsights:          "child opened up about school",
		SessionEffectiveness: "Effective",
		ResolutionStatus:     models.ResolutionInProgress,
		IsDraft:              draft,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func TestSaveDraftSummaryLeavesSessionOpen(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSummaryRepository(db)

	summary := newSummary(true)
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO session_summaries").WillReturnRows(summaryRow(summary))
	mock.ExpectCommit()

	saved, err := repo.Save(context.Background(), summary, nil)
	require.NoError(t, err)
	assert.True(t, saved.IsDraft)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveFinalSummaryCompletesSessionAndAppendsMemories(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSummaryRepository(db)

	summary := newSummary(false)
	session := &models.Session{ID: "s1", ChildID: "c1", VolunteerID: "v1"}
	memories := []models.ConversationMemory{
		models.NewConversationMemory("m1", models.InsightMemory{Text: summary.KeyInsights}, session, summary.UpdatedAt),
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT is_draft FROM session_summaries").WithArgs("s1").WillReturnRows(sqlmock.NewRows([]string{"is_draft"}))
	mock.ExpectQuery("INSERT INTO session_summaries").WillReturnRows(summaryRow(summary))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET status = 'COMPLETED'")).
		WithArgs("s1", summary.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO conversation_memories").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	saved, err := repo.Save(context.Background(), summary, memories)
	require.NoError(t, err)
	assert.Equal(t, "sum-1", saved.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveFinalSummaryRollsBackOnMemoryFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSummaryRepository(db)

	summary := newSummary(false)
	session := &models.Session{ID: "s1", ChildID: "c1", VolunteerID: "v1"}
	memories := []models.ConversationMemory{
		models.NewConversationMemory("m1", models.WarningMemory{Text: "withdrawn"}, session, summary.UpdatedAt),
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT is_draft FROM session_summaries").WillReturnRows(sqlmock.NewRows([]string{"is_draft"}).AddRow(true))
	mock.ExpectQuery("INSERT INTO session_summaries").WillReturnRows(summaryRow(summary))
	mock.ExpectExec("UPDATE sessions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO conversation_memories").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.Save(context.Background(), summary, memories)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert conversation memory")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResubmittedFinalSummaryKeepsExistingMemories(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSummaryRepository(db)

	summary := newSummary(false)
	session := &models.Session{ID: "s1", ChildID: "c1", VolunteerID: "v1"}
	memories := []models.ConversationMemory{
		models.NewConversationMemory("m2", models.InsightMemory{Text: summary.KeyInsights}, session, summary.UpdatedAt),
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT is_draft FROM session_summaries").WithArgs("s1").WillReturnRows(sqlmock.NewRows([]string{"is_draft"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO session_summaries").WillReturnRows(summaryRow(summary))
	mock.ExpectExec("UPDATE sessions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := repo.Save(context.Background(), summary, memories)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMemoriesDefaultsLimit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSummaryRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM conversation_memories WHERE child_id").
		WithArgs("c1", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "child_id", "session_id", "volunteer_id", "memory_type", "content", "importance", "tags", "created_at"}).
			AddRow("m1", "c1", "s1", "v1", "BREAKTHROUGH_MOMENT", "spoke freely", 5, "{family}", now))

	memories, err := repo.ListMemories(context.Background(), "c1", 0)
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.Equal(t, models.MemoryBreakthrough, memories[0].Type)
	assert.Equal(t, []string{"family"}, []string(memories[0].Tags))
	assert.NoError(t, mock.ExpectationsWereMet())
}
