package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/accenprove/accenprove-api/internal/config"
	"github.com/accenprove/accenprove-api/internal/models"
	"github.com/accenprove/accenprove-api/internal/repository"
)

type mockRefreshTokenRepo struct {
	repository.RefreshTokenRepository
	mockFindByToken func(ctx context.Context, token string) (*models.RefreshToken, error)
	mockCreate      func(ctx context.Context, rt *models.RefreshToken) error
	mockDelete      func(ctx context.Context, token string) error
}

func (m *mockRefreshTokenRepo) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	return m.mockFindByToken(ctx, token)
}

func (m *mockRefreshTokenRepo) Create(ctx context.Context, rt *models.RefreshToken) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, rt)
	}
	return nil
}

func (m *mockRefreshTokenRepo) Delete(ctx context.Context, token string) error {
	if m.mockDelete != nil {
		return m.mockDelete(ctx, token)
	}
	return nil
}

func TestAuthService_Login_InactiveAccount(t *testing.T) {
	mockRepo := &mockUserRepo{}
	service := NewAuthService(mockRepo, nil, nil, nil, &config.Config{JWTSecret: "test", JWTExpirationHours: 1})

	mockRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{Email: email, Active: false}, nil
	}

	result, err := service.Login(context.Background(), "inactive@example.com", "password", ActionContext{})
	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Equal(t, "account is inactive", err.Error())
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	mockRepo := &mockUserRepo{}
	service := NewAuthService(mockRepo, nil, nil, nil, &config.Config{JWTSecret: "test", JWTExpirationHours: 1})

	hashed, _ := HashPassword("correct-password")
	mockRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{Email: email, Active: true, EncryptedPassword: hashed}, nil
	}

	result, err := service.Login(context.Background(), "vendor@example.com", "wrong-password", ActionContext{})
	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Equal(t, "invalid credentials", err.Error())
}

func TestAuthService_Login_Success(t *testing.T) {
	mockRepo := &mockUserRepo{}
	mockRTRepo := &mockRefreshTokenRepo{}
	service := NewAuthService(mockRepo, mockRTRepo, nil, nil, &config.Config{JWTSecret: "test", JWTExpirationHours: 1})

	hashed, _ := HashPassword("password123")
	mockRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{ID: 7, Email: email, Role: models.RoleVendor, Active: true, EncryptedPassword: hashed}, nil
	}

	result, err := service.Login(context.Background(), "vendor@example.com", "password123", ActionContext{})
	assert.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, uint(7), result.User.ID)
}

func TestAuthService_RefreshToken_Expired(t *testing.T) {
	mockRTRepo := &mockRefreshTokenRepo{}
	service := NewAuthService(&mockUserRepo{}, mockRTRepo, nil, nil, &config.Config{})

	expired := time.Now().Add(-time.Hour)
	mockRTRepo.mockFindByToken = func(ctx context.Context, token string) (*models.RefreshToken, error) {
		return &models.RefreshToken{UserID: 7, Token: token, ExpiresAt: &expired}, nil
	}

	deleted := false
	mockRTRepo.mockDelete = func(ctx context.Context, token string) error {
		deleted = true
		return nil
	}

	result, err := service.RefreshToken(context.Background(), "stale-token")
	assert.Nil(t, result)
	assert.Error(t, err)
	assert.True(t, deleted, "expired tokens are removed on use")
}

func TestAuthService_RefreshToken_RotatesToken(t *testing.T) {
	mockRepo := &mockUserRepo{}
	mockRTRepo := &mockRefreshTokenRepo{}
	service := NewAuthService(mockRepo, mockRTRepo, nil, nil, &config.Config{JWTSecret: "test", JWTExpirationHours: 1})

	future := time.Now().Add(time.Hour)
	mockRTRepo.mockFindByToken = func(ctx context.Context, token string) (*models.RefreshToken, error) {
		return &models.RefreshToken{UserID: 7, Token: token, ExpiresAt: &future}, nil
	}
	mockRepo.mockFindByID = func(ctx context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id, Email: "vendor@example.com", Role: models.RoleVendor, Active: true}, nil
	}

	var deletedToken string
	mockRTRepo.mockDelete = func(ctx context.Context, token string) error {
		deletedToken = token
		return nil
	}

	result, err := service.RefreshToken(context.Background(), "old-token")
	assert.NoError(t, err)
	assert.Equal(t, "old-token", deletedToken)
	assert.NotEqual(t, "old-token", result.RefreshToken)
}

func TestAuthService_RefreshToken_Invalid(t *testing.T) {
	mockRTRepo := &mockRefreshTokenRepo{}
	service := NewAuthService(&mockUserRepo{}, mockRTRepo, nil, nil, &config.Config{})

	mockRTRepo.mockFindByToken = func(ctx context.Context, token string) (*models.RefreshToken, error) {
		return nil, errors.New("record not found")
	}

	result, err := service.RefreshToken(context.Background(), "bogus")
	assert.Nil(t, result)
	assert.Error(t, err)
}
