package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/fathussalafi/yayasan-api/internal/models"
	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
)

type auditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, int, error)
}

// AuditEntry describes one dashboard mutation to record.
type AuditEntry struct {
	UserID     string
	Action     string
	Resource   string
	ResourceID string
	Before     interface{}
	After      interface{}
	IPAddress  string
	UserAgent  string
}

// AuditService records and lists the dashboard audit trail. Recording never
// fails the request that triggered it.
type AuditService struct {
	repo   auditRepository
	logger *zap.Logger
}

// NewAuditService constructs an AuditService.
func NewAuditService(repo auditRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// Record stores entry, logging instead of returning any failure.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	log := &models.AuditLog{
		Action:    entry.Action,
		Resource:  entry.Resource,
		IPAddress: entry.IPAddress,
		UserAgent: entry.UserAgent,
	}
	if entry.UserID != "" {
		log.UserID = &entry.UserID
	}
	if entry.ResourceID != "" {
		log.ResourceID = &entry.ResourceID
	}
	log.OldValues = s.encode(entry.Before)
	log.NewValues = s.encode(entry.After)

	if err := s.repo.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log",
			zap.String("action", entry.Action),
			zap.String("resource", entry.Resource),
			zap.Error(err))
	}
}

// List returns a page of audit entries.
func (s *AuditService) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return logs, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

func (s *AuditService) encode(v interface{}) []byte {
	if v == nil {
		return nil
	}
	if raw, ok := v.([]byte); ok {
		return raw
	}
	payload, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("failed to encode audit payload", zap.Error(err))
		return nil
	}
	return payload
}
