package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/accenprove/accenprove-api/internal/models"
)

// BeritaAcaraRepository defines the interface for BA data access
type BeritaAcaraRepository interface {
	FindByID(ctx context.Context, id uint) (*models.BeritaAcara, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.BeritaAcara, error)
	FindByVendor(ctx context.Context, vendorID uint) ([]models.BeritaAcara, error)
	Create(ctx context.Context, ba *models.BeritaAcara) error
	Update(ctx context.Context, ba *models.BeritaAcara) error
	UpdateWithAudit(ctx context.Context, ba *models.BeritaAcara, entry *models.AuditLog) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *BeritaAcaraQuery) ([]models.BeritaAcara, int64, error)
	CountByMonthPrefix(ctx context.Context, prefix string) (int64, error)
	GetStats(ctx context.Context, vendorID uint) (*BeritaAcaraStats, error)
	OldestPending(ctx context.Context, vendorID uint) (*models.BeritaAcara, error)
	CountDecidedSince(ctx context.Context, status string, since time.Time) (int64, error)
	FindPendingOlderThan(ctx context.Context, olderThan time.Duration) ([]models.BeritaAcara, error)
}

// BeritaAcaraQuery extends ListQuery with BA-specific filters
type BeritaAcaraQuery struct {
	*ListQuery
	VendorID  uint // restrict to one vendor's rows (vendor role, or explicit filter)
	Status    string
	Type      string
	StartDate string
	EndDate   string
}

// Sortable columns for BA listings. Anything else falls back to the
// default ordering.
var baSortWhitelist = map[string]string{
	"created_at":      "berita_acaras.created_at",
	"updated_at":      "berita_acaras.updated_at",
	"inspection_date": "berita_acaras.inspection_date",
	"document_number": "berita_acaras.document_number",
	"status":          "berita_acaras.status",
	"vendor_name":     "berita_acaras.vendor_name",
}

type beritaAcaraRepository struct {
	db *gorm.DB
}

// NewBeritaAcaraRepository creates a new BA repository
func NewBeritaAcaraRepository(db *gorm.DB) BeritaAcaraRepository {
	return &beritaAcaraRepository{db: db}
}

func (r *beritaAcaraRepository) FindByID(ctx context.Context, id uint) (*models.BeritaAcara, error) {
	var ba models.BeritaAcara
	err := r.db.WithContext(ctx).First(&ba, id).Error
	if err != nil {
		return nil, err
	}
	return &ba, nil
}

func (r *beritaAcaraRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.BeritaAcara, error) {
	var ba models.BeritaAcara
	// Vendor, Approver and Rejecter are belongs-to so a single Joins
	// round trip loads everything.
	err := r.db.WithContext(ctx).
		Joins("Vendor").
		Joins("Approver").
		Joins("Rejecter").
		First(&ba, id).Error
	if err != nil {
		return nil, err
	}
	return &ba, nil
}

func (r *beritaAcaraRepository) FindByVendor(ctx context.Context, vendorID uint) ([]models.BeritaAcara, error) {
	var bas []models.BeritaAcara
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Find(&bas).Error
	return bas, err
}

func (r *beritaAcaraRepository) Create(ctx context.Context, ba *models.BeritaAcara) error {
	return r.db.WithContext(ctx).Create(ba).Error
}

func (r *beritaAcaraRepository) Update(ctx context.Context, ba *models.BeritaAcara) error {
	return r.db.WithContext(ctx).Save(ba).Error
}

// UpdateWithAudit persists a status change and its audit row in one
// transaction so a crash cannot leave the trail inconsistent.
func (r *beritaAcaraRepository) UpdateWithAudit(ctx context.Context, ba *models.BeritaAcara, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(ba).Error; err != nil {
			return err
		}
		return tx.Create(entry).Error
	})
}

func (r *beritaAcaraRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.BeritaAcara{}, id).Error
}

func (r *beritaAcaraRepository) List(ctx context.Context, query *BeritaAcaraQuery) ([]models.BeritaAcara, int64, error) {
	var bas []models.BeritaAcara
	var total int64

	db := r.db.WithContext(ctx).Model(&models.BeritaAcara{})

	if query.VendorID > 0 {
		db = db.Where("berita_acaras.vendor_id = ?", query.VendorID)
	}

	if query.Status != "" {
		db = db.Where("berita_acaras.status = ?", query.Status)
	}

	if query.Type != "" {
		db = db.Where("berita_acaras.type = ?", query.Type)
	}

	if query.StartDate != "" {
		db = db.Where("berita_acaras.created_at >= ?", query.StartDate)
	}
	if query.EndDate != "" {
		endDate := query.EndDate
		if len(endDate) == 10 { // YYYY-MM-DD, include the full day
			endDate += " 23:59:59"
		}
		db = db.Where("berita_acaras.created_at <= ?", endDate)
	}

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where(
			"berita_acaras.document_number ILIKE ? OR berita_acaras.contract_number ILIKE ? OR "+
				"berita_acaras.vendor_name ILIKE ? OR berita_acaras.inspection_location ILIKE ? OR "+
				"berita_acaras.item_description ILIKE ?",
			search, search, search, search, search)
	}

	// Count using a separate session so the main query is not altered by Count()
	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order(orderClause(baSortWhitelist, query.SortBy, query.SortDir, "berita_acaras.created_at DESC"))

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.
		Preload("Vendor").
		Preload("Approver").
		Preload("Rejecter").
		Find(&bas).Error
	if err != nil {
		return nil, 0, err
	}

	return bas, total, nil
}

// CountByMonthPrefix returns how many documents carry the given
// month prefix, e.g. "BA/2025/03/". The count feeds sequential
// numbering; uniqueness is still enforced by the unique index.
func (r *beritaAcaraRepository) CountByMonthPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BeritaAcara{}).
		Where("document_number LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}

// BeritaAcaraStats holds the count of documents by status
type BeritaAcaraStats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

// GetStats counts documents by status. vendorID of 0 means all rows.
func (r *beritaAcaraRepository) GetStats(ctx context.Context, vendorID uint) (*BeritaAcaraStats, error) {
	stats := &BeritaAcaraStats{}

	db := r.db.WithContext(ctx).Model(&models.BeritaAcara{})
	if vendorID > 0 {
		db = db.Where("vendor_id = ?", vendorID)
	}

	rows, err := db.
		Select("status, count(*) as count").
		Group("status").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		switch status {
		case models.BAStatusPending:
			stats.Pending = count
		case models.BAStatusApproved:
			stats.Approved = count
		case models.BAStatusRejected:
			stats.Rejected = count
		}
	}

	return stats, nil
}

func (r *beritaAcaraRepository) OldestPending(ctx context.Context, vendorID uint) (*models.BeritaAcara, error) {
	var ba models.BeritaAcara
	db := r.db.WithContext(ctx).Where("status = ?", models.BAStatusPending)
	if vendorID > 0 {
		db = db.Where("vendor_id = ?", vendorID)
	}
	err := db.Order("created_at ASC").First(&ba).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ba, nil
}

func (r *beritaAcaraRepository) CountDecidedSince(ctx context.Context, status string, since time.Time) (int64, error) {
	var count int64
	db := r.db.WithContext(ctx).Model(&models.BeritaAcara{}).Where("status = ?", status)
	switch status {
	case models.BAStatusApproved:
		db = db.Where("approved_at >= ?", since)
	case models.BAStatusRejected:
		db = db.Where("rejected_at >= ?", since)
	default:
		db = db.Where("updated_at >= ?", since)
	}
	err := db.Count(&count).Error
	return count, err
}

func (r *beritaAcaraRepository) FindPendingOlderThan(ctx context.Context, olderThan time.Duration) ([]models.BeritaAcara, error) {
	var bas []models.BeritaAcara
	cutoff := time.Now().Add(-olderThan)
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.BAStatusPending, cutoff).
		Preload("Vendor").
		Order("created_at ASC").
		Find(&bas).Error
	return bas, err
}

// IsDocumentNumberConflict reports whether err is the unique-index
// violation on document_number. Used by the numbering retry loop.
func IsDocumentNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "document_number")
	}
	return false
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Notification, error)
	FindByUser(ctx context.Context, userID uint, query *ListQuery) ([]models.Notification, int64, error)
	Create(ctx context.Context, notification *models.Notification) error
	Update(ctx context.Context, notification *models.Notification) error
	MarkAllAsRead(ctx context.Context, userID uint) error
	CountUnread(ctx context.Context, userID uint) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) FindByID(ctx context.Context, id uint) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.WithContext(ctx).First(&notification, id).Error
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) FindByUser(ctx context.Context, userID uint, query *ListQuery) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)

	if status, ok := query.Filters["status"]; ok && status != "" {
		switch strings.ToLower(status) {
		case "unread":
			db = db.Where("read_at IS NULL")
		case "read":
			db = db.Where("read_at IS NOT NULL")
		}
	}

	db.Count(&total)
	db = db.Order("created_at DESC")

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&notifications).Error
	return notifications, total, err
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) Update(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Save(notification).Error
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", now).Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

// RefreshTokenRepository defines the interface for refresh token data access
type RefreshTokenRepository interface {
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Create(ctx context.Context, rt *models.RefreshToken) error
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type refreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&rt).Error
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *refreshTokenRepository) Create(ctx context.Context, rt *models.RefreshToken) error {
	return r.db.WithContext(ctx).Create(rt).Error
}

func (r *refreshTokenRepository) Delete(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{}).Error
}

func (r *refreshTokenRepository) DeleteByUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}

func (r *refreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", time.Now()).
		Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
