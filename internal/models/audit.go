package models

import (
	"time"
)

// AuditLog is an append-only record of who did what to which entity.
// Rows are never updated or deleted.
type AuditLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Action      string    `gorm:"size:50;not null" json:"action"`   // CREATE, APPROVE, REJECT, RESUBMIT, DELETE, LOGIN, PASSWORD_RESET
	Category    string    `gorm:"size:50;not null" json:"category"` // berita_acara, user, auth
	Description string    `gorm:"type:text" json:"description"`
	TargetType  string    `gorm:"size:50" json:"target_type"`
	TargetID    uint      `json:"target_id"`
	IPAddress   string    `gorm:"size:45" json:"ip_address"`
	UserAgent   string    `gorm:"size:255" json:"user_agent"`
	Metadata    *string   `gorm:"type:text" json:"metadata"` // JSON blob with action-specific context
	Status      string    `gorm:"size:20;default:success" json:"status"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`

	// Associations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

// Audit status constants
const (
	AuditStatusSuccess = "success"
	AuditStatusFailed  = "failed"
	AuditStatusError   = "error"
)

// Audit category constants
const (
	AuditCategoryBeritaAcara = "berita_acara"
	AuditCategoryUser        = "user"
	AuditCategoryAuth        = "auth"
)

// LoginHistory records every authentication attempt.
type LoginHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	UserAgent string    `gorm:"size:255" json:"user_agent"`
	Success   bool      `gorm:"not null" json:"success"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// Associations
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for LoginHistory
func (LoginHistory) TableName() string {
	return "login_histories"
}
