package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/counseling-api/internal/dto"
	"github.com/noah-isme/counseling-api/internal/models"
	"github.com/noah-isme/counseling-api/internal/repository"
	appErrors "github.com/noah-isme/counseling-api/pkg/errors"
)

type sessionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
	ListByChild(ctx context.Context, childID string) ([]models.Session, error)
	Start(ctx context.Context, p repository.StartParams) (*models.Session, bool, error)
	Complete(ctx context.Context, id string, notes *string, at time.Time) (*models.Session, error)
}

// SessionConfig tunes session rules.
type SessionConfig struct {
	// EndRequiresOwner limits end to the session's volunteer or an admin.
	EndRequiresOwner bool
}

// SessionService runs the per-child session lifecycle.
type SessionService struct {
	sessions    sessionRepository
	children    childLookup
	assignments assignmentChecker
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         SessionConfig
	now         func() time.Time
}

// NewSessionService constructs the service.
func NewSessionService(sessions sessionRepository, children childLookup, assignments assignmentChecker, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg SessionConfig) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		sessions:    sessions,
		children:    children,
		assignments: assignments,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Handle dispatches a decoded session command.
func (s *SessionService) Handle(ctx context.Context, caller models.Caller, cmd dto.SessionCommand) (*models.Session, error) {
	switch req := cmd.(type) {
	case *dto.StartSessionRequest:
		return s.Start(ctx, caller, *req)
	case *dto.EndSessionRequest:
		return s.End(ctx, caller, *req)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported session action")
	}
}

// Start resumes the child's open session or opens a new one. Repeated calls return the same session.
func (s *SessionService) Start(ctx context.Context, caller models.Caller, req dto.StartSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start payload")
	}
	if err := ensureChildAccess(ctx, s.assignments, caller, req.ChildID); err != nil {
		return nil, err
	}
	if _, err := s.children.FindByID(ctx, req.ChildID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load child")
	}

	sessionType := strings.TrimSpace(req.SessionType)
	if sessionType == "" {
		sessionType = models.DefaultSessionType
	}

	session, created, err := s.sessions.Start(ctx, repository.StartParams{
		ChildID:     req.ChildID,
		VolunteerID: caller.ID,
		SessionType: sessionType,
		At:          s.now(),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start session")
	}

	if created {
		s.metrics.RecordSession("created")
	} else {
		s.metrics.RecordSession("resumed")
	}
	return session, nil
}

// End completes a session and stamps its end time.
func (s *SessionService) End(ctx context.Context, caller models.Caller, req dto.EndSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end payload")
	}

	session, err := s.sessions.FindByID(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if s.cfg.EndRequiresOwner && !caller.IsAdmin() && session.VolunteerID != caller.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the session volunteer can end this session")
	}

	completed, err := s.sessions.Complete(ctx, session.ID, req.Notes, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to end session")
	}

	s.metrics.RecordSession("completed")
	return completed, nil
}

// Get returns a session visible to the caller.
func (s *SessionService) Get(ctx context.Context, caller models.Caller, id string) (*models.Session, error) {
	session, err := s.sessions.FindByID(ctx, id)
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
	return session, nil
}

// ListByChild returns a child's sessions, newest first.
func (s *SessionService) ListByChild(ctx context.Context, caller models.Caller, childID string) ([]models.Session, error) {
	if strings.TrimSpace(childID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "childId is required")
	}
	if err := ensureChildAccess(ctx, s.assignments, caller, childID); err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ListByChild(ctx, childID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	return sessions, nil
}
