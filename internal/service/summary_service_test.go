package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/counseling-api/internal/dto"
	"github.com/noah-isme/counseling-api/internal/models"
	appErrors "github.com/noah-isme/counseling-api/pkg/errors"
)

type summaryFixture struct {
	*sessionFixture
	summaries *fakeSummaries
	svc       *SummaryService
	session   *models.Session
}

func newSummaryFixture(t *testing.T) *summaryFixture {
	t.Helper()
	base := newSessionFixture(SessionConfig{})
	ctx := context.Background()

	_, err := base.assign.Assign(ctx, adminCaller, dto.AssignRequest{ChildID: "c1", VolunteerID: "v1"})
	require.NoError(t, err)
	session, err := base.svc.Start(ctx, models.Caller{ID: "v1", Role: models.RoleVolunteer}, dto.StartSessionRequest{ChildID: "c1"})
	require.NoError(t, err)

	summaries := newFakeSummaries(base.sessions)
	svc := NewSummaryService(summaries, base.sessions, base.assignments, NewMetricsService(), validator.New(), zap.NewNop(), SummaryConfig{})
	return &summaryFixture{sessionFixture: base, summaries: summaries, svc: svc, session: session}
}

func TestSummaryServiceFinalSaveCompletesSession(t *testing.T) {
	f := newSummaryFixture(t)
	ctx := context.Background()
	v1 := models.Caller{ID: "v1", Role: models.RoleVolunteer}

	result, err := f.svc.Save(ctx, v1, dto.SaveSummaryRequest{
		SessionID:   f.session.ID,
		SummaryData: dto.SummaryData{KeyInsights: "child opened up about school"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Session summary submitted successfully", result.Message)
	assert.False(t, result.Summary.IsDraft)

	session, err := f.sessions.FindByID(ctx, f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, session.Status)
	assert.NotNil(t, session.EndedAt)

	memories, err := f.svc.Memories(ctx, v1, "c1", 0)
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.Equal(t, models.MemoryInsight, memories[0].Type)
	assert.Equal(t, 4, memories[0].Importance)
	assert.Equal(t, "child opened up about school", memories[0].Content)
	assert.Equal(t, "v1", memories[0].VolunteerID)
}

func TestSummaryServiceResubmitDoesNotDuplicateMemories(t *testing.T) {
	f := newSummaryFixture(t)
	ctx := context.Background()
	v1 := models.Caller{ID: "v1", Role: models.RoleVolunteer}
	req := dto.SaveSummaryRequest{
		SessionID:   f.session.ID,
		SummaryData: dto.SummaryData{KeyInsights: "child opened up about school"},
	}

	_, err := f.svc.Save(ctx, v1, req)
	require.NoError(t, err)
	_, err = f.svc.Save(ctx, v1, req)
	require.NoError(t, err)

	memories, err := f.svc.Memories(ctx, v1, "c1", 0)
	require.NoError(t, err)
	assert.Len(t, memories, 1)
}

func TestSummaryServiceDraftKeepsSessionOpen(t *testing.T) {
	f := newSummaryFixture(t)
	ctx := context.Background()
	v1 := models.Caller{ID: "v1", Role: models.RoleVolunteer}

	result, err := f.svc.Save(ctx, v1, dto.SaveSummaryRequest{
		SessionID:   f.session.ID,
		IsDraft:     true,
		SummaryData: dto.SummaryData{KeyInsights: "partial notes", Breakthroughs: "laughed"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Session summary saved as draft", result.Message)
	assert.True(t, result.Summary.IsDraft)
	assert.JSONEq(t, `{}`, string(result.Summary.StoryEffectiveness))

	session, err := f.sessions.FindByID(ctx, f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionInProgress, session.Status)
	assert.Empty(t, f.summaries.memories)

	final, err := f.svc.Save(ctx, v1, dto.SaveSummaryRequest{
		SessionID:   f.session.ID,
		SummaryData: dto.SummaryData{SessionEffectiveness: models.MaxEffectiveness},
	})
	require.NoError(t, err)
	assert.Equal(t, result.Summary.ID, final.Summary.ID)
	assert.Equal(t, models.ResolutionResolved, final.Summary.ResolutionStatus)
}

func TestSummaryServiceOnlyAuthorMaySave(t *testing.T) {
	f := newSummaryFixture(t)
	ctx := context.Background()

	_, err := f.svc.Save(ctx, adminCaller, dto.SaveSummaryRequest{SessionID: f.session.ID})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = f.svc.Save(ctx, models.Caller{ID: "v1", Role: models.RoleVolunteer}, dto.SaveSummaryRequest{SessionID: "nope"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = f.svc.Save(ctx, models.Caller{ID: "v1", Role: models.RoleVolunteer}, dto.SaveSummaryRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, f.summaries.bySession)
}

func TestSummaryServiceGet(t *testing.T) {
	f := newSummaryFixture(t)
	ctx := context.Background()
	v1 := models.Caller{ID: "v1", Role: models.RoleVolunteer}

	_, err := f.svc.Get(ctx, v1, f.session.ID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = f.svc.Save(ctx, v1, dto.SaveSummaryRequest{SessionID: f.session.ID, IsDraft: true})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, adminCaller, f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, f.session.ID, got.SessionID)

	_, err = f.svc.Get(ctx, models.Caller{ID: "v2", Role: models.RoleVolunteer}, f.session.ID)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = f.svc.Get(ctx, v1, "")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestDeriveResolution(t *testing.T) {
	cases := []struct {
		name string
		data dto.SummaryData
		want models.ResolutionStatus
	}{
		{"very effective without actions", dto.SummaryData{SessionEffectiveness: "Very Effective"}, models.ResolutionResolved},
		{"blank action items ignored", dto.SummaryData{SessionEffectiveness: "Very Effective", ActionItems: []string{" ", ""}}, models.ResolutionResolved},
		{"action items keep it open", dto.SummaryData{SessionEffectiveness: "Very Effective", ActionItems: []string{"call school"}}, models.ResolutionInProgress},
		{"lower effectiveness", dto.SummaryData{SessionEffectiveness: "Effective"}, models.ResolutionInProgress},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, deriveResolution(tc.data))
		})
	}
}

func TestDeriveFollowUp(t *testing.T) {
	now := time.Now().UTC()

	needed, date := deriveFollowUp(dto.SummaryData{NextSessionTiming: "1 week"}, now, 7)
	assert.False(t, needed)
	require.NotNil(t, date)
	assert.WithinDuration(t, now.Add(7*24*time.Hour), *date, time.Second)

	explicit := time.Date(2024, 6, 1, 10, 0, 0, 0, time.FixedZone("WAT", 3600))
	needed, date = deriveFollowUp(dto.SummaryData{ActionItems: []string{"visit"}, NextSessionTiming: "soon", FollowUpDate: &explicit}, now, 7)
	assert.True(t, needed)
	require.NotNil(t, date)
	assert.Equal(t, explicit.UTC(), *date)
	assert.Equal(t, time.UTC, date.Location())

	needed, date = deriveFollowUp(dto.SummaryData{NextSessionFocus: "family"}, now, 7)
	assert.True(t, needed)
	assert.Nil(t, date)

	needed, date = deriveFollowUp(dto.SummaryData{}, now, 7)
	assert.False(t, needed)
	assert.Nil(t, date)
}

func TestSummaryFollowUpDateUsesSubmissionTime(t *testing.T) {
	f := newSummaryFixture(t)
	fixed := time.Date(2024, 2, 26, 8, 30, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return fixed }

	result, err := f.svc.Save(context.Background(), models.Caller{ID: "v1", Role: models.RoleVolunteer}, dto.SaveSummaryRequest{
		SessionID:   f.session.ID,
		SummaryData: dto.SummaryData{NextSessionTiming: "next week", ActionItems: []string{"check homework"}},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Summary.FollowUpDate)
	assert.Equal(t, fixed.AddDate(0, 0, 7), *result.Summary.FollowUpDate)
	assert.True(t, result.Summary.FollowUpNeeded)
	assert.Equal(t, models.ResolutionInProgress, result.Summary.ResolutionStatus)
}

func TestMemoryEntries(t *testing.T) {
	entries := memoryEntries(dto.SummaryData{
		KeyInsights:     " trusts the school nurse ",
		Breakthroughs:   "named the fear",
		ChallengesFaced: "withdrawn at start",
		TopicsDiscussed: []string{"school", " ", "family"},
	})
	require.Len(t, entries, 3)

	session := &models.Session{ID: "s1", ChildID: "c1", VolunteerID: "v1"}
	rows := make([]models.ConversationMemory, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, models.NewConversationMemory("id", e, session, time.Now()))
	}

	assert.Equal(t, models.MemoryInsight, rows[0].Type)
	assert.Equal(t, "trusts the school nurse", rows[0].Content)
	assert.Equal(t, []string{"school", "family"}, []string(rows[0].Tags))
	assert.Equal(t, models.MemoryBreakthrough, rows[1].Type)
	assert.Equal(t, 5, rows[1].Importance)
	assert.Equal(t, models.MemoryWarning, rows[2].Type)
	assert.Equal(t, 3, rows[2].Importance)
	assert.Equal(t, []string{"challenges"}, []string(rows[2].Tags))

	assert.Empty(t, memoryEntries(dto.SummaryData{KeyInsights: "  "}))
}
