package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/medora-hq/roster-api/internal/models"
)

type auditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error)
}

// AuditEntry captures one auditable action before serialization.
type AuditEntry struct {
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	OldValues  interface{}
	NewValues  interface{}
	IPAddress  string
	UserAgent  string
}

// AuditService records and queries the audit trail. Recording is
// best-effort: a failed write is logged, never surfaced to the caller.
type AuditService struct {
	repo   auditWriter
	logger *zap.Logger
}

// NewAuditService constructs the audit service.
func NewAuditService(repo auditWriter, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// Record persists one audit entry.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	if s.repo == nil {
		return
	}

	log := &models.AuditLog{
		Action:     entry.Action,
		EntityType: entry.EntityType,
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
	}
	if entry.UserID != "" {
		userID := entry.UserID
		log.UserID = &userID
	}
	if entry.EntityID != "" {
		entityID := entry.EntityID
		log.EntityID = &entityID
	}
	if entry.OldValues != nil {
		if raw, err := json.Marshal(entry.OldValues); err == nil {
			log.OldValues = raw
		}
	}
	if entry.NewValues != nil {
		if raw, err := json.Marshal(entry.NewValues); err == nil {
			log.NewValues = raw
		}
	}

	if err := s.repo.Create(ctx, log); err != nil {
		s.logger.Warn("audit write failed",
			zap.String("action", entry.Action),
			zap.String("entity_type", entry.EntityType),
			zap.Error(err))
	}
}

// List returns audit records matching the filter.
func (s *AuditService) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, *models.Pagination, error) {
	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return logs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
