package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v2"

	"github.com/accenprove/accenprove-api/internal/config"
	"github.com/accenprove/accenprove-api/internal/models"
	"github.com/accenprove/accenprove-api/pkg/logger"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

type EmailService struct {
	config       *config.Config
	resendClient *resend.Client
}

func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		config:       cfg,
		resendClient: client,
	}
}

// configured reports whether outbound email can be sent. Deployments
// without Resend credentials run with email silently disabled.
func (s *EmailService) configured() bool {
	return s.config.ResendAPIKey != "" && s.config.FromEmail != ""
}

func (s *EmailService) send(to, subject, body string) error {
	if !s.configured() {
		logger.Info(fmt.Sprintf("📧 [Email Skipped] To: %s | Subject: %s (email not configured)", to, subject))
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}
	_, err := s.resendClient.Emails.Send(params)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to send email to %s: %v", to, err))
		return err
	}

	logger.Info(fmt.Sprintf("📧 [Email Sent] To: %s | Subject: %s", to, subject))
	return nil
}

func (s *EmailService) SendBASubmitted(ctx context.Context, vendor *models.User, ba *models.BeritaAcara) error {
	data := struct {
		Name           string
		DocumentNumber string
		Type           string
		ContractNumber string
		InspectionDate string
		SubmittedAt    string
		AppURL         string
	}{
		Name:           vendor.FullName,
		DocumentNumber: ba.DocumentNumber,
		Type:           ba.Type,
		ContractNumber: ba.ContractNumber,
		InspectionDate: ba.InspectionDate.Format("02/01/2006"),
		SubmittedAt:    ba.CreatedAt.Format("02/01/2006 15:04"),
		AppURL:         s.config.AppURL,
	}

	body, err := s.renderTemplate("ba_submitted.html", data)
	if err != nil {
		return err
	}

	return s.send(vendor.Email, fmt.Sprintf("Berita Acara %s Submitted", ba.DocumentNumber), body)
}

func (s *EmailService) SendBAApproved(ctx context.Context, vendor *models.User, ba *models.BeritaAcara) error {
	approvedAt := ""
	if ba.ApprovedAt != nil {
		approvedAt = ba.ApprovedAt.Format("02/01/2006 15:04")
	}

	data := struct {
		Name           string
		DocumentNumber string
		ContractNumber string
		ApprovedAt     string
		AppURL         string
	}{
		Name:           vendor.FullName,
		DocumentNumber: ba.DocumentNumber,
		ContractNumber: ba.ContractNumber,
		ApprovedAt:     approvedAt,
		AppURL:         s.config.AppURL,
	}

	body, err := s.renderTemplate("ba_approved.html", data)
	if err != nil {
		return err
	}

	return s.send(vendor.Email, fmt.Sprintf("Berita Acara %s Approved", ba.DocumentNumber), body)
}

func (s *EmailService) SendBARejected(ctx context.Context, vendor *models.User, ba *models.BeritaAcara, reason string) error {
	data := struct {
		Name           string
		DocumentNumber string
		ContractNumber string
		Reason         string
		AppURL         string
	}{
		Name:           vendor.FullName,
		DocumentNumber: ba.DocumentNumber,
		ContractNumber: ba.ContractNumber,
		Reason:         reason,
		AppURL:         s.config.AppURL,
	}

	body, err := s.renderTemplate("ba_rejected.html", data)
	if err != nil {
		return err
	}

	return s.send(vendor.Email, fmt.Sprintf("Berita Acara %s Rejected", ba.DocumentNumber), body)
}

func (s *EmailService) SendResetCode(ctx context.Context, user *models.User, code string) error {
	data := struct {
		Name    string
		Code    string
		Minutes int
		AppURL  string
	}{
		Name:    user.FullName,
		Code:    code,
		Minutes: 15,
		AppURL:  s.config.AppURL,
	}

	body, err := s.renderTemplate("reset_code.html", data)
	if err != nil {
		return err
	}

	return s.send(user.Email, "Password Reset Code", body)
}

func (s *EmailService) SendResetConfirmed(ctx context.Context, user *models.User) error {
	data := struct {
		Name   string
		AppURL string
	}{
		Name:   user.FullName,
		AppURL: s.config.AppURL,
	}

	body, err := s.renderTemplate("reset_confirmed.html", data)
	if err != nil {
		return err
	}

	return s.send(user.Email, "Password Updated", body)
}

func (s *EmailService) SendAccountCreated(ctx context.Context, user *models.User, password string) error {
	data := struct {
		Name     string
		Email    string
		Password string
		Role     string
		AppURL   string
	}{
		Name:     user.FullName,
		Email:    user.Email,
		Password: password,
		Role:     user.Role,
		AppURL:   s.config.AppURL,
	}

	body, err := s.renderTemplate("account_created.html", data)
	if err != nil {
		return err
	}

	return s.send(user.Email, "Welcome to Accenprove", body)
}

func (s *EmailService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
