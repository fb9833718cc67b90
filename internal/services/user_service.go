package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/accenprove/accenprove-api/internal/jobs"
	"github.com/accenprove/accenprove-api/internal/models"
	"github.com/accenprove/accenprove-api/internal/repository"
)

type UserService struct {
	userRepo        repository.UserRepository
	notificationSvc *NotificationService
	emailSvc        *EmailService
	auditSvc        *AuditService
	worker          *jobs.Worker
}

func NewUserService(
	userRepo repository.UserRepository,
	notificationSvc *NotificationService,
	emailSvc *EmailService,
	auditSvc *AuditService,
	worker *jobs.Worker,
) *UserService {
	return &UserService{
		userRepo:        userRepo,
		notificationSvc: notificationSvc,
		emailSvc:        emailSvc,
		auditSvc:        auditSvc,
		worker:          worker,
	}
}

// CreateUserInput carries the fields an admin supplies for a new account.
type CreateUserInput struct {
	FullName    string
	Email       string
	Password    string
	Role        string
	CompanyName *string
	Phone       string
}

// UpdateUserInput carries optional account updates.
type UpdateUserInput struct {
	FullName    *string
	Email       *string
	Role        *string
	CompanyName *string
	Phone       *string
	Active      *bool
}

// UpdateProfileInput is the self-service subset of UpdateUserInput.
// Email, role and active status stay admin-only.
type UpdateProfileInput struct {
	FullName    *string
	CompanyName *string
	Phone       *string
}

func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error) {
	return s.userRepo.List(ctx, query)
}

// Create registers a new account and emails the credentials to its owner.
func (s *UserService) Create(ctx context.Context, input CreateUserInput, actor Principal, actionCtx ActionContext) (*models.User, error) {
	if !models.ValidRole(input.Role) {
		return nil, fmt.Errorf("unknown role: %s", input.Role)
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	verificationToken := uuid.New().String()
	user := &models.User{
		FullName:          input.FullName,
		Email:             input.Email,
		EncryptedPassword: hashed,
		Role:              input.Role,
		CompanyName:       input.CompanyName,
		Phone:             input.Phone,
		Active:            true,
		CreatedBy:         &actor.ID,
		VerificationToken: &verificationToken,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.auditSvc.LogBestEffort(ctx, AuditEntry{
		Actor:       actor,
		Action:      "CREATE",
		Category:    models.AuditCategoryUser,
		Description: fmt.Sprintf("User %s created with role %s", user.Email, user.Role),
		TargetType:  "User",
		TargetID:    user.ID,
		Metadata:    map[string]any{"email": user.Email, "role": user.Role},
		Context:     actionCtx,
	})

	password := input.Password
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.emailSvc.SendAccountCreated(ctx, user, password)
	})
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notificationSvc.NotifyUser(ctx, user.ID,
			"Welcome to Accenprove",
			"Your account has been created. Check your email for credentials.",
			models.NotificationTypeNewUser)
	})

	return user, nil
}

// Update applies account changes. Role changes are validated against
// the known role set.
func (s *UserService) Update(ctx context.Context, id uint, input UpdateUserInput, actor Principal, actionCtx ActionContext) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	var changed []string
	if input.FullName != nil && *input.FullName != user.FullName {
		user.FullName = *input.FullName
		changed = append(changed, "full_name")
	}
	if input.Email != nil && *input.Email != user.Email {
		user.Email = *input.Email
		changed = append(changed, "email")
	}
	if input.Role != nil && *input.Role != user.Role {
		if !models.ValidRole(*input.Role) {
			return nil, fmt.Errorf("unknown role: %s", *input.Role)
		}
		user.Role = *input.Role
		changed = append(changed, "role")
	}
	if input.CompanyName != nil {
		user.CompanyName = input.CompanyName
		changed = append(changed, "company_name")
	}
	if input.Phone != nil && *input.Phone != user.Phone {
		user.Phone = *input.Phone
		changed = append(changed, "phone")
	}
	if input.Active != nil && *input.Active != user.Active {
		user.Active = *input.Active
		changed = append(changed, "active")
	}

	if len(changed) == 0 {
		return user, nil
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.auditSvc.LogBestEffort(ctx, AuditEntry{
		Actor:       actor,
		Action:      "UPDATE",
		Category:    models.AuditCategoryUser,
		Description: fmt.Sprintf("User %s updated", user.Email),
		TargetType:  "User",
		TargetID:    user.ID,
		Metadata:    map[string]any{"changed_fields": changed},
		Context:     actionCtx,
	})

	return user, nil
}

// UpdateProfile lets a user edit their own contact fields.
func (s *UserService) UpdateProfile(ctx context.Context, actor Principal, input UpdateProfileInput, actionCtx ActionContext) (*models.User, error) {
	return s.Update(ctx, actor.ID, UpdateUserInput{
		FullName:    input.FullName,
		CompanyName: input.CompanyName,
		Phone:       input.Phone,
	}, actor, actionCtx)
}

// ChangePassword verifies the current password before setting a new one.
func (s *UserService) ChangePassword(ctx context.Context, id uint, current, next string, actor Principal, actionCtx ActionContext) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}

	if !VerifyPassword(current, user.EncryptedPassword) {
		return ErrInvalidPassword
	}

	hashed, err := HashPassword(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.EncryptedPassword = hashed
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	s.auditSvc.LogBestEffort(ctx, AuditEntry{
		Actor:       actor,
		Action:      "PASSWORD_CHANGE",
		Category:    models.AuditCategoryUser,
		Description: fmt.Sprintf("User %s changed password", user.Email),
		TargetType:  "User",
		TargetID:    user.ID,
		Context:     actionCtx,
	})

	return nil
}

// SetPhoto stores the profile photo path on the account.
func (s *UserService) SetPhoto(ctx context.Context, id uint, photoPath string) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}
	user.PhotoPath = &photoPath
	return s.userRepo.Update(ctx, user)
}

// ClearPhoto removes the profile photo path.
func (s *UserService) ClearPhoto(ctx context.Context, id uint) error {
	return s.userRepo.ClearPhoto(ctx, id)
}

// Deactivate soft-deletes an account so it no longer appears in
// listings or authenticates.
func (s *UserService) Deactivate(ctx context.Context, id uint, actor Principal, actionCtx ActionContext) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}

	if err := s.userRepo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.LogBestEffort(ctx, AuditEntry{
		Actor:       actor,
		Action:      "DEACTIVATE",
		Category:    models.AuditCategoryUser,
		Description: fmt.Sprintf("User %s deactivated", user.Email),
		TargetType:  "User",
		TargetID:    user.ID,
		Context:     actionCtx,
	})

	return nil
}

// Restore reverses a soft delete.
func (s *UserService) Restore(ctx context.Context, id uint, actor Principal, actionCtx ActionContext) error {
	if err := s.userRepo.Restore(ctx, id); err != nil {
		return err
	}

	s.auditSvc.LogBestEffort(ctx, AuditEntry{
		Actor:       actor,
		Action:      "RESTORE",
		Category:    models.AuditCategoryUser,
		Description: fmt.Sprintf("User %d restored", id),
		TargetType:  "User",
		TargetID:    id,
		Context:     actionCtx,
	})

	return nil
}
