package services

import (
	"context"

	"github.com/accenprove/accenprove-api/internal/models"
	"github.com/accenprove/accenprove-api/internal/repository"
)

type NotificationService struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
}

func NewNotificationService(repo repository.NotificationRepository, userRepo repository.UserRepository) *NotificationService {
	return &NotificationService{repo: repo, userRepo: userRepo}
}

func (s *NotificationService) FindByUser(ctx context.Context, userID uint, query *repository.ListQuery) ([]models.Notification, int64, error) {
	return s.repo.FindByUser(ctx, userID, query)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkAsRead marks one notification as read, refusing to touch
// notifications belonging to someone else.
func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uint) error {
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}
	if notification.UserID != userID {
		return ErrForbidden
	}
	notification.MarkAsRead()
	return s.repo.Update(ctx, notification)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// NotifyUser creates an in-app notification for one user.
func (s *NotificationService) NotifyUser(ctx context.Context, userID uint, title, message, notifType string) error {
	notification := &models.Notification{
		UserID:           userID,
		Title:            title,
		Message:          message,
		NotificationType: &notifType,
	}
	return s.repo.Create(ctx, notification)
}

// NotifyRole fans a notification out to every active user in a role.
func (s *NotificationService) NotifyRole(ctx context.Context, role, title, message, notifType string) error {
	users, err := s.userRepo.FindByRole(ctx, role)
	if err != nil {
		return err
	}
	for _, user := range users {
		notification := &models.Notification{
			UserID:           user.ID,
			Title:            title,
			Message:          message,
			NotificationType: &notifType,
		}
		s.repo.Create(ctx, notification)
	}
	return nil
}
