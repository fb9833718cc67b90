package services

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/accenprove/accenprove-api/internal/models"
	"github.com/accenprove/accenprove-api/internal/repository"
	"github.com/accenprove/accenprove-api/pkg/logger"
)

// Principal is the verified identity of the acting user, threaded
// explicitly into service calls instead of being re-derived per
// handler.
type Principal struct {
	ID    uint
	Email string
	Role  string
}

// ActionContext carries request metadata for the audit trail.
type ActionContext struct {
	IPAddress string
	UserAgent string
}

// AuditEntry describes one auditable action.
type AuditEntry struct {
	Actor       Principal
	Action      string
	Category    string
	Description string
	TargetType  string
	TargetID    uint
	Metadata    map[string]any
	Status      string
	Context     ActionContext
}

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// row builds the persistence model for an entry.
func (s *AuditService) row(entry AuditEntry) *models.AuditLog {
	status := entry.Status
	if status == "" {
		status = models.AuditStatusSuccess
	}

	var metadata *string
	if len(entry.Metadata) > 0 {
		if raw, err := json.Marshal(entry.Metadata); err == nil {
			str := string(raw)
			metadata = &str
		}
	}

	return &models.AuditLog{
		UserID:      entry.Actor.ID,
		Action:      entry.Action,
		Category:    entry.Category,
		Description: entry.Description,
		TargetType:  entry.TargetType,
		TargetID:    entry.TargetID,
		IPAddress:   entry.Context.IPAddress,
		UserAgent:   entry.Context.UserAgent,
		Metadata:    metadata,
		Status:      status,
	}
}

// Log records an audit entry. The write error is returned so callers
// can surface logging failures instead of silently dropping them;
// callers are expected not to fail the original request over it.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	if s.db == nil {
		return errors.New("audit log database not configured")
	}
	return s.db.WithContext(ctx).Create(s.row(entry)).Error
}

// Row exposes the persistence model for callers that write the audit
// entry inside their own transaction (status transitions).
func (s *AuditService) Row(entry AuditEntry) *models.AuditLog {
	return s.row(entry)
}

// LogBestEffort records an entry and logs a warning if persistence
// fails. Used where the caller has nothing useful to do with the error.
func (s *AuditService) LogBestEffort(ctx context.Context, entry AuditEntry) {
	if err := s.Log(ctx, entry); err != nil {
		logger.Warn("audit log write failed",
			"action", entry.Action,
			"target_type", entry.TargetType,
			"target_id", entry.TargetID,
			"error", err)
	}
}

// List retrieves audit logs, newest first, with optional filters.
func (s *AuditService) List(ctx context.Context, query *repository.ListQuery) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	db := s.db.WithContext(ctx).Model(&models.AuditLog{})

	if category := query.Filters["category"]; category != "" {
		db = db.Where("category = ?", category)
	}
	if action := query.Filters["action"]; action != "" {
		db = db.Where("action = ?", action)
	}
	if userID := query.Filters["user_id"]; userID != "" {
		db = db.Where("user_id = ?", userID)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Preload("User").Order("created_at DESC")
	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&logs).Error
	return logs, total, err
}
