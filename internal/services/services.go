package services

import (
	"gorm.io/gorm"

	"github.com/accenprove/accenprove-api/internal/config"
	"github.com/accenprove/accenprove-api/internal/jobs"
	"github.com/accenprove/accenprove-api/internal/repository"
	"github.com/accenprove/accenprove-api/internal/storage"
)

// Services holds all service instances
type Services struct {
	Auth         *AuthService
	User         *UserService
	BeritaAcara  *BeritaAcaraService
	Notification *NotificationService
	Stats        *StatsService
	Export       *ExportService
	Report       *ReportService
	Audit        *AuditService
	Email        *EmailService
	Image        *ImageService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, store *storage.LocalStorage, cfg *config.Config, db *gorm.DB) *Services {
	notificationSvc := NewNotificationService(repos.Notification, repos.User)
	emailSvc := NewEmailService(cfg)
	auditSvc := NewAuditService(db)
	imageSvc := NewImageService(cfg.StoragePath + "/uploads")

	return &Services{
		Auth:         NewAuthService(repos.User, repos.RefreshToken, repos.LoginHistory, auditSvc, cfg),
		User:         NewUserService(repos.User, notificationSvc, emailSvc, auditSvc, worker),
		BeritaAcara:  NewBeritaAcaraService(repos.BeritaAcara, repos.User, notificationSvc, emailSvc, auditSvc, worker),
		Notification: notificationSvc,
		Stats:        NewStatsService(repos.BeritaAcara, repos.User),
		Export:       NewExportService(repos.BeritaAcara),
		Report:       NewReportService(repos.BeritaAcara, repos.User, store),
		Audit:        auditSvc,
		Email:        emailSvc,
		Image:        imageSvc,
	}
}
