package service

import (
	"context"
	"database/sql"
	"encoding/json"
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

type approvalRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListByApproval(ctx context.Context, status models.ApprovalStatus) ([]models.User, error)
	Decide(ctx context.Context, d repository.ApprovalDecision) (*models.User, error)
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
}

type tokenRevoker interface {
	Revoke(ctx context.Context, userID string, at time.Time) error
}

// ApprovalService moves volunteer accounts out of PENDING.
type ApprovalService struct {
	users     approvalRepository
	revoker   tokenRevoker
	audit     auditRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewApprovalService constructs the service.
func NewApprovalService(users approvalRepository, revoker tokenRevoker, audit auditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ApprovalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{
		users:     users,
		revoker:   revoker,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns volunteers in the given approval state. Empty status means PENDING.
func (s *ApprovalService) List(ctx context.Context, caller models.Caller, status models.ApprovalStatus) ([]models.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if status == "" {
		status = models.ApprovalPending
	}
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown approval status")
	}
	users, err := s.users.ListByApproval(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, nil
}

// Handle dispatches a decoded approval command.
func (s *ApprovalService) Handle(ctx context.Context, caller models.Caller, cmd dto.ApprovalCommand) (*dto.ApprovalResult, error) {
	switch req := cmd.(type) {
	case *dto.ApproveRequest:
		return s.Approve(ctx, caller, *req)
	case *dto.RejectRequest:
		return s.Reject(ctx, caller, *req)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported approval action")
	}
}

// Approve activates a pending volunteer.
func (s *ApprovalService) Approve(ctx context.Context, caller models.Caller, req dto.ApproveRequest) (*dto.ApprovalResult, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval payload")
	}

	user, err := s.decide(ctx, repository.ApprovalDecision{
		UserID:    req.UserID,
		Status:    models.ApprovalApproved,
		Active:    true,
		DecidedBy: caller.ID,
		DecidedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordApproval("approved")
	s.record(ctx, caller, models.AuditActionApprove, user.ID, map[string]interface{}{"approvalStatus": user.ApprovalStatus})
	return &dto.ApprovalResult{Message: "User approved successfully", User: user}, nil
}

// Reject closes a pending application and cuts off any outstanding credentials.
func (s *ApprovalService) Reject(ctx context.Context, caller models.Caller, req dto.RejectRequest) (*dto.ApprovalResult, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rejection payload")
	}
	reason := strings.TrimSpace(req.RejectionReason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}

	now := s.now()
	user, err := s.decide(ctx, repository.ApprovalDecision{
		UserID:          req.UserID,
		Status:          models.ApprovalRejected,
		Active:          false,
		RejectionReason: &reason,
		DecidedBy:       caller.ID,
		DecidedAt:       now,
	})
	if err != nil {
		return nil, err
	}

	if err := s.users.RevokeUserRefreshTokens(ctx, user.ID); err != nil {
		s.logger.Warn("failed to revoke refresh tokens after rejection", zap.String("user_id", user.ID), zap.Error(err))
	}
	if s.revoker != nil {
		if err := s.revoker.Revoke(ctx, user.ID, now); err != nil {
			s.logger.Warn("failed to revoke access tokens after rejection", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	s.metrics.RecordApproval("rejected")
	s.record(ctx, caller, models.AuditActionReject, user.ID, map[string]interface{}{"approvalStatus": user.ApprovalStatus, "rejectionReason": reason})
	return &dto.ApprovalResult{Message: "User rejected successfully", User: user}, nil
}

func (s *ApprovalService) decide(ctx context.Context, d repository.ApprovalDecision) (*models.User, error) {
	user, err := s.users.Decide(ctx, d)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record decision")
	}

	current, findErr := s.users.FindByID(ctx, d.UserID)
	if findErr != nil {
		if errors.Is(findErr, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(findErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return nil, appErrors.Clone(appErrors.ErrConflict, "user is already "+strings.ToLower(string(current.ApprovalStatus)))
}

func (s *ApprovalService) record(ctx context.Context, caller models.Caller, action, userID string, values map[string]interface{}) {
	if s.audit == nil {
		return
	}
	payload, err := json.Marshal(values)
	if err != nil {
		s.logger.Warn("failed to encode audit payload", zap.Error(err))
	}
	s.audit.Record(ctx, auditEntry(caller.ID, action, "users", userID, payload))
}
