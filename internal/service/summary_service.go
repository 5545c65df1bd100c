package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/counseling-api/internal/dto"
	"github.com/noah-isme/counseling-api/internal/models"
	appErrors "github.com/noah-isme/counseling-api/pkg/errors"
)

const (
	draftSavedMessage       = "Session summary saved as draft"
	summarySubmittedMessage = "Session summary submitted successfully"
)

type summaryRepository interface {
	FindBySessionID(ctx context.Context, sessionID string) (*models.SessionSummary, error)
	Save(ctx context.Context, summary *models.SessionSummary, memories []models.ConversationMemory) (*models.SessionSummary, error)
	ListMemories(ctx context.Context, childID string, limit int) ([]models.ConversationMemory, error)
}

type sessionLookup interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
}

// SummaryConfig tunes summary derivations.
type SummaryConfig struct {
	FollowUpDays int
}

// SummaryService records session summaries and derives follow-up state and memories.
type SummaryService struct {
	summaries   summaryRepository
	sessions    sessionLookup
	assignments assignmentChecker
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         SummaryConfig
	now         func() time.Time
}

// NewSummaryService constructs the service.
func NewSummaryService(summaries summaryRepository, sessions sessionLookup, assignments assignmentChecker, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg SummaryConfig) *SummaryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FollowUpDays <= 0 {
		cfg.FollowUpDays = 7
	}
	return &SummaryService{
		summaries:   summaries,
		sessions:    sessions,
		assignments: assignments,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Save upserts the caller's summary for a session. A final save completes the session;
// the first one also appends memories.
func (s *SummaryService) Save(ctx context.Context, caller models.Caller, req dto.SaveSummaryRequest) (*dto.SaveSummaryResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid summary payload")
	}

	session, err := s.sessions.FindByID(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.VolunteerID != caller.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the session volunteer can record its summary")
	}

	now := s.now()
	summary, err := s.buildSummary(session, req, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid story effectiveness")
	}

	var memories []models.ConversationMemory
	if !req.IsDraft {
		for _, entry := range memoryEntries(req.SummaryData) {
			memories = append(memories, models.NewConversationMemory(uuid.NewString(), entry, session, now))
		}
	}

	saved, err := s.summaries.Save(ctx, summary, memories)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save session summary")
	}

	if req.IsDraft {
		s.metrics.RecordSummary("draft")
		return &dto.SaveSummaryResult{Summary: saved, Message: draftSavedMessage}, nil
	}
	s.metrics.RecordSummary("final")
	s.metrics.RecordSession("completed")
	return &dto.SaveSummaryResult{Summary: saved, Message: summarySubmittedMessage}, nil
}

// Get returns the summary for a session the caller may see.
func (s *SummaryService) Get(ctx context.Context, caller models.Caller, sessionID string) (*models.SessionSummary, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sessionId is required")
	}
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.VolunteerID != caller.ID {
		if err := ensureChildAccess(ctx, s.assignments, caller, session.ChildID); err != nil {
			return nil, err
		}
	}

	summary, err := s.summaries.FindBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "summary not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load summary")
	}
	return summary, nil
}

// Memories returns the conversation memories recorded for a child.
func (s *SummaryService) Memories(ctx context.Context, caller models.Caller, childID string, limit int) ([]models.ConversationMemory, error) {
	if err := ensureChildAccess(ctx, s.assignments, caller, childID); err != nil {
		return nil, err
	}
	memories, err := s.summaries.ListMemories(ctx, childID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list memories")
	}
	if memories == nil {
		memories = []models.ConversationMemory{}
	}
	return memories, nil
}

func (s *SummaryService) buildSummary(session *models.Session, req dto.SaveSummaryRequest, now time.Time) (*models.SessionSummary, error) {
	data := req.SummaryData
	stories, err := data.StoryEffectivenessJSON()
	if err != nil {
		return nil, err
	}
	followUp, followUpDate := deriveFollowUp(data, now, s.cfg.FollowUpDays)
	return &models.SessionSummary{
		ID:                   uuid.NewString(),
		SessionID:            session.ID,
		VolunteerID:          session.VolunteerID,
		Summary:              data.SessionSummary,
		InitialMood:          data.InitialMood,
		FinalMood:            data.FinalMood,
		ConcernsDiscussed:    stringArray(data.ConcernsDiscussed),
		TopicsDiscussed:      stringArray(data.TopicsDiscussed),
		CulturalStoriesUsed:  stringArray(data.CulturalStoriesUsed),
		StoryEffectiveness:   stories,
		TechniquesUsed:       stringArray(data.TechniquesUsed),
		KeyInsights:          data.KeyInsights,
		Breakthroughs:        data.Breakthroughs,
		ChallengesFaced:      data.ChallengesFaced,
		EngagementLevel:      data.EngagementLevel,
		ParticipationLevel:   data.ParticipationLevel,
		NextSessionFocus:     data.NextSessionFocus,
		NextSessionTiming:    data.NextSessionTiming,
		NextSteps:            stringArray(data.NextSteps),
		ActionItems:          stringArray(data.ActionItems),
		SessionEffectiveness: data.SessionEffectiveness,
		OverallProgress:      data.OverallProgress,
		RiskIndicators:       stringArray(data.RiskIndicators),
		CounselorNotes:       data.CounselorNotes,
		ResolutionStatus:     deriveResolution(data),
		FollowUpNeeded:       followUp,
		FollowUpDate:         followUpDate,
		IsDraft:              req.IsDraft,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// deriveResolution resolves only a maximally effective session with nothing left to do.
func deriveResolution(data dto.SummaryData) models.ResolutionStatus {
	if data.SessionEffectiveness == models.MaxEffectiveness && len(nonBlank(data.ActionItems)) == 0 {
		return models.ResolutionResolved
	}
	return models.ResolutionInProgress
}

// deriveFollowUp flags follow-up when action items or a next focus exist.
// The date is the explicit one if given, otherwise now plus days when a timing was chosen.
func deriveFollowUp(data dto.SummaryData, now time.Time, days int) (bool, *time.Time) {
	needed := len(nonBlank(data.ActionItems)) > 0 || strings.TrimSpace(data.NextSessionFocus) != ""
	if data.FollowUpDate != nil {
		date := data.FollowUpDate.UTC()
		return needed, &date
	}
	if strings.TrimSpace(data.NextSessionTiming) == "" {
		return needed, nil
	}
	date := now.AddDate(0, 0, days)
	return needed, &date
}

func memoryEntries(data dto.SummaryData) []models.MemoryEntry {
	topics := nonBlank(data.TopicsDiscussed)
	var entries []models.MemoryEntry
	if text := strings.TrimSpace(data.KeyInsights); text != "" {
		entries = append(entries, models.InsightMemory{Text: text, Topics: topics})
	}
	if text := strings.TrimSpace(data.Breakthroughs); text != "" {
		entries = append(entries, models.BreakthroughMemory{Text: text, Topics: topics})
	}
	if text := strings.TrimSpace(data.ChallengesFaced); text != "" {
		entries = append(entries, models.WarningMemory{Text: text})
	}
	return entries
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func stringArray(values []string) pq.StringArray {
	return pq.StringArray(nonBlank(values))
}
