package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/accenprove/accenprove-api/internal/models"
	"github.com/accenprove/accenprove-api/pkg/logger"
)

// recoveryCodeTTL is how long a reset code stays valid.
const recoveryCodeTTL = 15 * time.Minute

// generateRecoveryCode returns a 6-digit numeric code.
func generateRecoveryCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate recovery code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// SendResetCode generates a recovery code for the account and emails
// it. Unknown or inactive emails are silently accepted so the endpoint
// does not reveal which addresses exist.
func (s *UserService) SendResetCode(ctx context.Context, email string, actionCtx ActionContext) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil || !user.IsActive() {
		logger.Log.Info("password reset requested for unknown or inactive email", "email", email)
		return nil
	}

	code, err := generateRecoveryCode()
	if err != nil {
		return err
	}

	now := time.Now()
	if err := s.userRepo.SetRecoveryCode(ctx, user.ID, code, now); err != nil {
		return err
	}

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.emailSvc.SendResetCode(ctx, user, code)
	})

	s.auditSvc.LogBestEffort(ctx, AuditEntry{
		Actor:       Principal{ID: user.ID, Email: user.Email, Role: user.Role},
		Action:      "PASSWORD_RESET_REQUEST",
		Category:    models.AuditCategoryAuth,
		Description: fmt.Sprintf("Password reset code sent to %s", user.Email),
		TargetType:  "User",
		TargetID:    user.ID,
		Context:     actionCtx,
	})

	return nil
}

// ConfirmReset validates the recovery code and sets the new password.
func (s *UserService) ConfirmReset(ctx context.Context, email, code, newPassword string, actionCtx ActionContext) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return ErrInvalidResetCode
	}

	if user.RecoveryCode == nil || user.RecoveryCodeSentAt == nil {
		return ErrInvalidResetCode
	}
	if *user.RecoveryCode != code {
		return ErrInvalidResetCode
	}
	if time.Since(*user.RecoveryCodeSentAt) > recoveryCodeTTL {
		return ErrInvalidResetCode
	}

	hashed, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.EncryptedPassword = hashed
	user.RecoveryCode = nil
	user.RecoveryCodeSentAt = nil

	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.emailSvc.SendResetConfirmed(ctx, user)
	})

	s.auditSvc.LogBestEffort(ctx, AuditEntry{
		Actor:       Principal{ID: user.ID, Email: user.Email, Role: user.Role},
		Action:      "PASSWORD_RESET",
		Category:    models.AuditCategoryAuth,
		Description: fmt.Sprintf("Password reset completed for %s", user.Email),
		TargetType:  "User",
		TargetID:    user.ID,
		Context:     actionCtx,
	})

	return nil
}
