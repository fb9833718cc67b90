package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/accenprove/accenprove-api/internal/config"
	"github.com/accenprove/accenprove-api/internal/jobs"
	"github.com/accenprove/accenprove-api/internal/models"
	"github.com/accenprove/accenprove-api/internal/repository"
)

func newUserServiceForTest(userRepo repository.UserRepository) *UserService {
	return NewUserService(
		userRepo,
		NewNotificationService(&mockNotificationRepo{}, userRepo),
		NewEmailService(&config.Config{}),
		NewAuditService(nil),
		jobs.NewWorker(1),
	)
}

func TestUserService_SendResetCode_UnknownEmailIsSilent(t *testing.T) {
	mockRepo := &mockUserRepo{}
	service := newUserServiceForTest(mockRepo)

	mockRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return nil, errors.New("record not found")
	}

	codeSet := false
	mockRepo.mockSetRecoveryCode = func(ctx context.Context, userID uint, code string, sentAt time.Time) error {
		codeSet = true
		return nil
	}

	// The endpoint must not reveal whether an account exists
	err := service.SendResetCode(context.Background(), "nobody@example.com", ActionContext{})
	assert.NoError(t, err)
	assert.False(t, codeSet)
}

func TestUserService_SendResetCode_InactiveAccountIsSilent(t *testing.T) {
	mockRepo := &mockUserRepo{}
	service := newUserServiceForTest(mockRepo)

	mockRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{ID: 3, Email: email, Active: false}, nil
	}

	codeSet := false
	mockRepo.mockSetRecoveryCode = func(ctx context.Context, userID uint, code string, sentAt time.Time) error {
		codeSet = true
		return nil
	}

	err := service.SendResetCode(context.Background(), "inactive@example.com", ActionContext{})
	assert.NoError(t, err)
	assert.False(t, codeSet)
}

func TestUserService_SendResetCode_StoresSixDigitCode(t *testing.T) {
	mockRepo := &mockUserRepo{}
	service := newUserServiceForTest(mockRepo)

	mockRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{ID: 3, Email: email, Role: models.RoleVendor, Active: true}, nil
	}

	var savedCode string
	mockRepo.mockSetRecoveryCode = func(ctx context.Context, userID uint, code string, sentAt time.Time) error {
		assert.Equal(t, uint(3), userID)
		savedCode = code
		return nil
	}

	err := service.SendResetCode(context.Background(), "vendor@example.com", ActionContext{})
	assert.NoError(t, err)
	assert.Len(t, savedCode, 6)
	for _, r := range savedCode {
		assert.True(t, r >= '0' && r <= '9', "code must be numeric, got %q", savedCode)
	}
}

func TestUserService_ConfirmReset_WrongCode(t *testing.T) {
	mockRepo := &mockUserRepo{}
	service := newUserServiceForTest(mockRepo)

	code := "123456"
	sentAt := time.Now()
	mockRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{ID: 3, Email: email, RecoveryCode: &code, RecoveryCodeSentAt: &sentAt, Active: true}, nil
	}

	err := service.ConfirmReset(context.Background(), "vendor@example.com", "654321", "newpassword123", ActionContext{})
	assert.ErrorIs(t, err, ErrInvalidResetCode)
}

func TestUserService_ConfirmReset_ExpiredCode(t *testing.T) {
	mockRepo := &mockUserRepo{}
	service := newUserServiceForTest(mockRepo)

	code := "123456"
	sentAt := time.Now().Add(-recoveryCodeTTL - time.Minute)
	mockRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{ID: 3, Email: email, RecoveryCode: &code, RecoveryCodeSentAt: &sentAt, Active: true}, nil
	}

	err := service.ConfirmReset(context.Background(), "vendor@example.com", "123456", "newpassword123", ActionContext{})
	assert.ErrorIs(t, err, ErrInvalidResetCode)
}

func TestUserService_ConfirmReset_NoCodeOnFile(t *testing.T) {
	mockRepo := &mockUserRepo{}
	service := newUserServiceForTest(mockRepo)

	mockRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{ID: 3, Email: email, Active: true}, nil
	}

	err := service.ConfirmReset(context.Background(), "vendor@example.com", "123456", "newpassword123", ActionContext{})
	assert.ErrorIs(t, err, ErrInvalidResetCode)
}

func TestUserService_ConfirmReset_Success(t *testing.T) {
	mockRepo := &mockUserRepo{}
	service := newUserServiceForTest(mockRepo)

	code := "123456"
	sentAt := time.Now().Add(-time.Minute)
	mockRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{ID: 3, Email: email, Role: models.RoleVendor, RecoveryCode: &code, RecoveryCodeSentAt: &sentAt, Active: true}, nil
	}

	var saved *models.User
	mockRepo.mockUpdate = func(ctx context.Context, user *models.User) error {
		saved = user
		return nil
	}

	err := service.ConfirmReset(context.Background(), "vendor@example.com", "123456", "newpassword123", ActionContext{})
	assert.NoError(t, err)
	assert.NotNil(t, saved)
	assert.True(t, VerifyPassword("newpassword123", saved.EncryptedPassword))
	assert.Nil(t, saved.RecoveryCode, "the code is single-use")
	assert.Nil(t, saved.RecoveryCodeSentAt)
}
