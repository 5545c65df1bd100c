package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/counseling-api/internal/dto"
	"github.com/noah-isme/counseling-api/internal/models"
	"github.com/noah-isme/counseling-api/internal/repository"
	appErrors "github.com/noah-isme/counseling-api/pkg/errors"
)

type assignmentRepository interface {
	ListActive(ctx context.Context) ([]models.AssignmentDetail, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Assign(ctx context.Context, childID, volunteerID, assignedBy string, at time.Time) (*models.Assignment, error)
	Deactivate(ctx context.Context, id string, at time.Time) (*models.Assignment, error)
}

type childLookup interface {
	FindByID(ctx context.Context, id string) (*models.Child, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AssignmentService manages child-volunteer links.
type AssignmentService struct {
	assignments assignmentRepository
	children    childLookup
	users       userLookup
	audit       auditRecorder
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewAssignmentService constructs the service.
func NewAssignmentService(assignments assignmentRepository, children childLookup, users userLookup, audit auditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		assignments: assignments,
		children:    children,
		users:       users,
		audit:       audit,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// List returns every active assignment, newest first.
func (s *AssignmentService) List(ctx context.Context, caller models.Caller) ([]models.AssignmentDetail, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	items, err := s.assignments.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	if items == nil {
		items = []models.AssignmentDetail{}
	}
	return items, nil
}

// Handle dispatches a decoded assignment command.
func (s *AssignmentService) Handle(ctx context.Context, caller models.Caller, cmd dto.AssignmentCommand) (*models.Assignment, error) {
	switch req := cmd.(type) {
	case *dto.AssignRequest:
		return s.Assign(ctx, caller, *req)
	case *dto.RemoveRequest:
		return s.Remove(ctx, caller, *req)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported assignment action")
	}
}

// Assign links the volunteer to the child, reactivating a previously removed link when one exists.
func (s *AssignmentService) Assign(ctx context.Context, caller models.Caller, req dto.AssignRequest) (*models.Assignment, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	if _, err := s.children.FindByID(ctx, req.ChildID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load child")
	}

	volunteer, err := s.users.FindByID(ctx, req.VolunteerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "volunteer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load volunteer")
	}
	if volunteer.Role != models.RoleVolunteer {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user is not a volunteer")
	}
	if !volunteer.CanWork() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "volunteer is not approved")
	}

	assignment, err := s.assignments.Assign(ctx, req.ChildID, req.VolunteerID, caller.ID, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyActive) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Assignment already exists for this volunteer and child")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign volunteer")
	}

	s.metrics.RecordAssignment("assign")
	s.record(ctx, caller, models.AuditActionAssign, assignment)
	return assignment, nil
}

// Remove deactivates an active assignment.
func (s *AssignmentService) Remove(ctx context.Context, caller models.Caller, req dto.RemoveRequest) (*models.Assignment, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid remove payload")
	}

	existing, err := s.assignments.FindByID(ctx, req.AssignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if !existing.Active {
		return nil, appErrors.Clone(appErrors.ErrConflict, "assignment is already inactive")
	}

	assignment, err := s.assignments.Deactivate(ctx, existing.ID, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "assignment is already inactive")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove assignment")
	}

	s.metrics.RecordAssignment("remove")
	s.record(ctx, caller, models.AuditActionUnassign, assignment)
	return assignment, nil
}

func (s *AssignmentService) record(ctx context.Context, caller models.Caller, action string, a *models.Assignment) {
	if s.audit == nil {
		return
	}
	payload, err := json.Marshal(a)
	if err != nil {
		s.logger.Warn("failed to encode audit payload", zap.Error(err))
	}
	s.audit.Record(ctx, auditEntry(caller.ID, action, "assignments", a.ID, payload))
}
