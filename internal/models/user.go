package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account in the system: a vendor submitting
// Berita Acara documents, a direksi approving them, finance (dk)
// reading them, or an admin managing everything.
type User struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Email              string     `gorm:"uniqueIndex;not null" json:"email"`
	EncryptedPassword  string     `gorm:"column:encrypted_password;not null" json:"-"`
	FullName           string     `gorm:"not null" json:"full_name"`
	Role               string     `gorm:"default:vendor;index" json:"role"`
	CompanyName        *string    `json:"company_name"`
	Phone              string     `json:"phone"`
	PhotoPath          *string    `json:"photo_path"`
	Active             bool       `gorm:"default:true" json:"active"`
	VerifiedAt         *time.Time `json:"verified_at"`
	VerificationToken  *string    `json:"-"`
	RecoveryCode       *string    `json:"-"`
	RecoveryCodeSentAt *time.Time `json:"-"`
	DiscardedAt        *time.Time `gorm:"index" json:"-"`
	CreatedBy          *uint      `json:"created_by"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// Associations
	Creator      *User         `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	BeritaAcaras []BeritaAcara `gorm:"foreignKey:VendorID" json:"berita_acaras,omitempty"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// BeforeCreate hook for setting defaults
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleVendor
	}
	return nil
}

// Role constants
const (
	RoleAdmin   = "admin"
	RoleDireksi = "direksi"
	RoleDK      = "dk"
	RoleVendor  = "vendor"
)

// IsAdmin returns true if user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsDireksi returns true if user has the director role
func (u *User) IsDireksi() bool {
	return u.Role == RoleDireksi
}

// IsVendor returns true if user has the vendor role
func (u *User) IsVendor() bool {
	return u.Role == RoleVendor
}

// IsActive returns true if the account can log in
func (u *User) IsActive() bool {
	return u.Active && u.DiscardedAt == nil
}

// IsVerified returns true if the account email is verified
func (u *User) IsVerified() bool {
	return u.VerifiedAt != nil
}

// IsDiscarded returns true if user is soft-deleted
func (u *User) IsDiscarded() bool {
	return u.DiscardedAt != nil
}

// ValidRole reports whether role is one of the four known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleDireksi, RoleDK, RoleVendor:
		return true
	}
	return false
}

// UserResponse is the JSON response format for users
type UserResponse struct {
	ID          uint       `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	Role        string     `json:"role"`
	CompanyName *string    `json:"company_name"`
	Phone       string     `json:"phone"`
	PhotoPath   *string    `json:"photo_path"`
	Active      bool       `json:"active"`
	VerifiedAt  *time.Time `json:"verified_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		CompanyName: u.CompanyName,
		Phone:       u.Phone,
		PhotoPath:   u.PhotoPath,
		Active:      u.Active,
		VerifiedAt:  u.VerifiedAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
