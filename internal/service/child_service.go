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

type childRepository interface {
	List(ctx context.Context, filter models.ChildFilter) ([]models.Child, int, error)
	FindByID(ctx context.Context, id string) (*models.Child, error)
	ExistsSimilar(ctx context.Context, name string, age int, district, excludeID string) (bool, error)
	Create(ctx context.Context, child *models.Child) error
	Update(ctx context.Context, child *models.Child) error
	SoftDelete(ctx context.Context, id string, at time.Time) (int64, error)
}

// ChildService manages child records. Writes are admin only; volunteers read their caseload.
type ChildService struct {
	children    childRepository
	assignments assignmentChecker
	audit       auditRecorder
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewChildService constructs the service.
func NewChildService(children childRepository, assignments assignmentChecker, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *ChildService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChildService{
		children:    children,
		assignments: assignments,
		audit:       audit,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// List returns active children; volunteers only see those actively assigned to them.
func (s *ChildService) List(ctx context.Context, caller models.Caller, q dto.ChildQuery) ([]models.Child, *models.Pagination, error) {
	filter := models.ChildFilter{
		Search:      strings.TrimSpace(q.Search),
		State:       strings.TrimSpace(q.State),
		VolunteerID: volunteerScope(caller),
		Page:        q.Page,
		PageSize:    q.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	children, total, err := s.children.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list children")
	}
	if children == nil {
		children = []models.Child{}
	}
	return children, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a child the caller may see.
func (s *ChildService) Get(ctx context.Context, caller models.Caller, id string) (*models.Child, error) {
	if err := ensureChildAccess(ctx, s.assignments, caller, id); err != nil {
		return nil, err
	}
	child, err := s.children.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load child")
	}
	return child, nil
}

// Create registers a child after the duplicate heuristic passes.
func (s *ChildService) Create(ctx context.Context, caller models.Caller, req dto.ChildRequest) (*models.Child, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	child, err := s.childFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, child, ""); err != nil {
		return nil, err
	}
	if err := s.children.Create(ctx, child); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create child")
	}
	s.record(ctx, caller, models.AuditActionChildCreate, child.ID, nil)
	return child, nil
}

// Update replaces a child's mutable fields.
func (s *ChildService) Update(ctx context.Context, caller models.Caller, id string, req dto.ChildRequest) (*models.Child, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	existing, err := s.children.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load child")
	}
	child, err := s.childFromRequest(req)
	if err != nil {
		return nil, err
	}
	child.ID = existing.ID
	child.CreatedAt = existing.CreatedAt
	child.Active = existing.Active
	if err := s.ensureUnique(ctx, child, existing.ID); err != nil {
		return nil, err
	}
	if err := s.children.Update(ctx, child); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update child")
	}
	s.record(ctx, caller, models.AuditActionChildUpdate, child.ID, nil)
	return child, nil
}

// Delete soft-deletes the child and closes its active assignments in one transaction.
func (s *ChildService) Delete(ctx context.Context, caller models.Caller, id string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	closed, err := s.children.SoftDelete(ctx, id, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete child")
	}
	s.record(ctx, caller, models.AuditActionChildDelete, id, []byte(fmt.Sprintf(`{"closedAssignments":%d}`, closed)))
	return nil
}

func (s *ChildService) childFromRequest(req dto.ChildRequest) (*models.Child, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid child payload")
	}
	if req.DateOfBirth == nil && req.Age == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dateOfBirth or age is required")
	}
	if req.DateOfBirth != nil && req.DateOfBirth.After(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dateOfBirth cannot be in the future")
	}
	return &models.Child{
		FullName:    strings.TrimSpace(req.FullName),
		DateOfBirth: req.DateOfBirth,
		Age:         req.Age,
		Gender:      req.Gender,
		State:       strings.TrimSpace(req.State),
		District:    strings.TrimSpace(req.District),
		City:        strings.TrimSpace(req.City),
		Background:  req.Background,
		Interests:   stringArray(req.Interests),
		Challenges:  stringArray(req.Challenges),
		Language:    req.Language,
	}, nil
}

func (s *ChildService) ensureUnique(ctx context.Context, child *models.Child, excludeID string) error {
	age, ok := child.AgeAt(s.now())
	if !ok {
		return nil
	}
	exists, err := s.children.ExistsSimilar(ctx, child.FullName, age, child.District, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check duplicate child")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "a child with the same name, age and district already exists")
	}
	return nil
}

func (s *ChildService) record(ctx context.Context, caller models.Caller, action, childID string, payload []byte) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, auditEntry(caller.ID, action, "children", childID, payload))
}
