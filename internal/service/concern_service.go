package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/counseling-api/internal/dto"
	"github.com/noah-isme/counseling-api/internal/models"
	appErrors "github.com/noah-isme/counseling-api/pkg/errors"
)

type concernRepository interface {
	Create(ctx context.Context, concern *models.Concern) error
	FindByID(ctx context.Context, id string) (*models.Concern, error)
	List(ctx context.Context, childID, volunteerID string) ([]models.Concern, error)
	Transition(ctx context.Context, id string, from, to models.ConcernStatus, at time.Time) (*models.Concern, error)
}

// ConcernService tracks issues flagged on children. Status only moves forward.
type ConcernService struct {
	concerns    concernRepository
	children    childLookup
	assignments assignmentChecker
	audit       auditRecorder
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewConcernService constructs the service.
func NewConcernService(concerns concernRepository, children childLookup, assignments assignmentChecker, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *ConcernService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConcernService{
		concerns:    concerns,
		children:    children,
		assignments: assignments,
		audit:       audit,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create opens a concern for a child the caller may act on.
func (s *ConcernService) Create(ctx context.Context, caller models.Caller, req dto.CreateConcernRequest) (*models.Concern, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid concern payload")
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

	severity := req.Severity
	if severity == "" {
		severity = "MEDIUM"
	}
	createdBy := caller.ID
	concern := &models.Concern{
		ChildID:     req.ChildID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    req.Category,
		Severity:    severity,
		Status:      models.ConcernOpen,
		CreatedBy:   &createdBy,
	}
	if err := s.concerns.Create(ctx, concern); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create concern")
	}
	return concern, nil
}

// List returns concerns visible to the caller, optionally for one child.
func (s *ConcernService) List(ctx context.Context, caller models.Caller, childID string) ([]models.Concern, error) {
	if childID != "" {
		if err := ensureChildAccess(ctx, s.assignments, caller, childID); err != nil {
			return nil, err
		}
	}
	concerns, err := s.concerns.List(ctx, childID, volunteerScope(caller))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list concerns")
	}
	if concerns == nil {
		concerns = []models.Concern{}
	}
	return concerns, nil
}

// UpdateStatus advances a concern. Backward or repeated transitions conflict.
func (s *ConcernService) UpdateStatus(ctx context.Context, caller models.Caller, id string, req dto.UpdateConcernStatusRequest) (*models.Concern, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	current, err := s.concerns.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "concern not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load concern")
	}
	if err := ensureChildAccess(ctx, s.assignments, caller, current.ChildID); err != nil {
		return nil, err
	}
	if !current.Status.CanAdvanceTo(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cannot move concern from %s to %s", current.Status, req.Status))
	}

	updated, err := s.concerns.Transition(ctx, id, current.Status, req.Status, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "concern status changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update concern")
	}
	if s.audit != nil {
		s.audit.Record(ctx, auditEntry(caller.ID, models.AuditActionConcernStatus, "concerns", id,
			[]byte(fmt.Sprintf(`{"from":%q,"to":%q}`, current.Status, updated.Status))))
	}
	return updated, nil
}
