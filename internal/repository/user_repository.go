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

// ErrDuplicateEmail is returned when a create/update collides with the
// unique email index.
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository defines the interface for user data access
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	SetRecoveryCode(ctx context.Context, userID uint, code string, sentAt time.Time) error
	ClearPhoto(ctx context.Context, userID uint) error
	SoftDelete(ctx context.Context, id uint) error
	Restore(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.User, int64, error)
	FindByRole(ctx context.Context, role string) ([]models.User, error)
	CountActive(ctx context.Context) (int64, error)
}

// Sortable columns for user listings. Anything else falls back to the
// default ordering.
var userSortWhitelist = map[string]string{
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"full_name":    "full_name",
	"email":        "email",
	"role":         "role",
	"company_name": "company_name",
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("discarded_at IS NULL").
		First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?) AND discarded_at IS NULL", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *userRepository) SetRecoveryCode(ctx context.Context, userID uint, code string, sentAt time.Time) error {
	sentAt = sentAt.UTC()
	u := &models.User{
		RecoveryCode:       &code,
		RecoveryCodeSentAt: &sentAt,
	}
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Select("RecoveryCode", "RecoveryCodeSentAt").
		Updates(u).Error
}

func (r *userRepository) ClearPhoto(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("photo_path", nil).Error
}

func (r *userRepository) SoftDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("discarded_at", gorm.Expr("NOW()")).Error
}

func (r *userRepository) Restore(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("discarded_at", nil).Error
}

func (r *userRepository) List(ctx context.Context, query *ListQuery) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	db := r.db.WithContext(ctx).Model(&models.User{}).Where("discarded_at IS NULL")

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("full_name ILIKE ? OR email ILIKE ? OR company_name ILIKE ?", search, search, search)
	}

	if role := query.Filters["role"]; role != "" {
		db = db.Where("role = ?", role)
	}

	if active := query.Filters["active"]; active != "" {
		db = db.Where("active = ?", active == "true")
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order(orderClause(userSortWhitelist, query.SortBy, query.SortDir, "created_at DESC"))

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&users).Error
	return users, total, err
}

func (r *userRepository) FindByRole(ctx context.Context, role string) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND active = ? AND discarded_at IS NULL", role, true).
		Find(&users).Error
	return users, err
}

func (r *userRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("active = ? AND discarded_at IS NULL", true).
		Count(&count).Error
	return count, err
}

// ListQuery holds common pagination, search and filter parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// orderClause resolves sort params against a column whitelist so raw
// query input never reaches the ORDER BY clause. Unknown columns fall
// back to the given default ordering.
func orderClause(whitelist map[string]string, sortBy, sortDir, fallback string) string {
	col, ok := whitelist[sortBy]
	if !ok {
		return fallback
	}
	if strings.ToLower(sortDir) == "desc" {
		col += " DESC"
	}
	return col
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

// LoginHistoryRepository defines the interface for login history data access
type LoginHistoryRepository interface {
	Create(ctx context.Context, entry *models.LoginHistory) error
	FindByUser(ctx context.Context, userID uint, query *ListQuery) ([]models.LoginHistory, int64, error)
}

type loginHistoryRepository struct {
	db *gorm.DB
}

func NewLoginHistoryRepository(db *gorm.DB) LoginHistoryRepository {
	return &loginHistoryRepository{db: db}
}

func (r *loginHistoryRepository) Create(ctx context.Context, entry *models.LoginHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *loginHistoryRepository) FindByUser(ctx context.Context, userID uint, query *ListQuery) ([]models.LoginHistory, int64, error) {
	var entries []models.LoginHistory
	var total int64

	db := r.db.WithContext(ctx).Model(&models.LoginHistory{})
	if userID > 0 {
		db = db.Where("user_id = ?", userID)
	}

	db.Count(&total)
	db = db.Order("created_at DESC")

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&entries).Error
	return entries, total, err
}
