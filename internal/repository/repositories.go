package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	User         UserRepository
	BeritaAcara  BeritaAcaraRepository
	Notification NotificationRepository
	RefreshToken RefreshTokenRepository
	LoginHistory LoginHistoryRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		BeritaAcara:  NewBeritaAcaraRepository(db),
		Notification: NewNotificationRepository(db),
		RefreshToken: NewRefreshTokenRepository(db),
		LoginHistory: NewLoginHistoryRepository(db),
	}
}
