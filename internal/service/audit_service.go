package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/counseling-api/internal/models"
	"github.com/noah-isme/counseling-api/pkg/jobs"
)

const auditJobType = "audit_log"

type auditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AuditService writes audit records off the request path. Failures are logged, never returned.
type AuditService struct {
	repo   auditWriter
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditService wires the audit writer to a background queue.
func NewAuditService(repo auditWriter, cfg jobs.QueueConfig, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Logger = logger
	s := &AuditService{repo: repo, logger: logger}
	s.queue = jobs.NewQueue("audit", s.handle, cfg)
	return s
}

// Start launches the workers.
func (s *AuditService) Start(ctx context.Context) {
	if s == nil {
		return
	}
	s.queue.Start(ctx)
}

// Stop drains and stops the workers.
func (s *AuditService) Stop() {
	if s == nil {
		return
	}
	s.queue.Stop()
}

// Record enqueues an audit entry.
func (s *AuditService) Record(ctx context.Context, entry *models.AuditLog) {
	if s == nil || entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := s.queue.Enqueue(jobs.Job{Type: auditJobType, Payload: entry}); err != nil {
		s.logger.Warn("audit entry dropped", zap.String("action", entry.Action), zap.Error(err))
	}
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.AuditLog)
	if !ok {
		return fmt.Errorf("unexpected audit payload %T", job.Payload)
	}
	return s.repo.Create(ctx, entry)
}

// auditRecorder is what domain services depend on.
type auditRecorder interface {
	Record(ctx context.Context, entry *models.AuditLog)
}

func auditEntry(actor, action, resource, resourceID string, newValues []byte) *models.AuditLog {
	entry := &models.AuditLog{
		Action:    action,
		Resource:  resource,
		NewValues: newValues,
	}
	if actor != "" {
		entry.UserID = &actor
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	return entry
}
