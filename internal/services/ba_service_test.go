package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/accenprove/accenprove-api/internal/config"
	"github.com/accenprove/accenprove-api/internal/jobs"
	"github.com/accenprove/accenprove-api/internal/models"
	"github.com/accenprove/accenprove-api/internal/repository"
	"github.com/accenprove/accenprove-api/pkg/logger"
)

func init() {
	logger.Setup("test")
}

type mockBARepo struct {
	repository.BeritaAcaraRepository
	mockFindByID            func(ctx context.Context, id uint) (*models.BeritaAcara, error)
	mockFindByIDWithDetails func(ctx context.Context, id uint) (*models.BeritaAcara, error)
	mockCreate              func(ctx context.Context, ba *models.BeritaAcara) error
	mockUpdateWithAudit     func(ctx context.Context, ba *models.BeritaAcara, entry *models.AuditLog) error
	mockCountByMonthPrefix  func(ctx context.Context, prefix string) (int64, error)
	mockDelete              func(ctx context.Context, id uint) error
	mockList                func(ctx context.Context, query *repository.BeritaAcaraQuery) ([]models.BeritaAcara, int64, error)
}

func (m *mockBARepo) List(ctx context.Context, query *repository.BeritaAcaraQuery) ([]models.BeritaAcara, int64, error) {
	return m.mockList(ctx, query)
}

func (m *mockBARepo) FindByID(ctx context.Context, id uint) (*models.BeritaAcara, error) {
	return m.mockFindByID(ctx, id)
}

func (m *mockBARepo) FindByIDWithDetails(ctx context.Context, id uint) (*models.BeritaAcara, error) {
	return m.mockFindByIDWithDetails(ctx, id)
}

func (m *mockBARepo) Create(ctx context.Context, ba *models.BeritaAcara) error {
	return m.mockCreate(ctx, ba)
}

func (m *mockBARepo) UpdateWithAudit(ctx context.Context, ba *models.BeritaAcara, entry *models.AuditLog) error {
	return m.mockUpdateWithAudit(ctx, ba, entry)
}

func (m *mockBARepo) CountByMonthPrefix(ctx context.Context, prefix string) (int64, error) {
	return m.mockCountByMonthPrefix(ctx, prefix)
}

func (m *mockBARepo) Delete(ctx context.Context, id uint) error {
	return m.mockDelete(ctx, id)
}

type mockUserRepo struct {
	repository.UserRepository
	mockFindByID        func(ctx context.Context, id uint) (*models.User, error)
	mockFindByEmail     func(ctx context.Context, email string) (*models.User, error)
	mockUpdate          func(ctx context.Context, user *models.User) error
	mockSetRecoveryCode func(ctx context.Context, userID uint, code string, sentAt time.Time) error
	mockFindByRole      func(ctx context.Context, role string) ([]models.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return m.mockFindByID(ctx, id)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.mockFindByEmail(ctx, email)
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	return m.mockUpdate(ctx, user)
}

func (m *mockUserRepo) SetRecoveryCode(ctx context.Context, userID uint, code string, sentAt time.Time) error {
	return m.mockSetRecoveryCode(ctx, userID, code, sentAt)
}

func (m *mockUserRepo) FindByRole(ctx context.Context, role string) ([]models.User, error) {
	if m.mockFindByRole != nil {
		return m.mockFindByRole(ctx, role)
	}
	return nil, nil
}

type mockNotificationRepo struct {
	repository.NotificationRepository
	mockCreate func(ctx context.Context, notification *models.Notification) error
}

func (m *mockNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, notification)
	}
	return nil
}

// newBAServiceForTest wires a BA service over mocks. Email stays
// unconfigured so nothing leaves the process.
func newBAServiceForTest(repo repository.BeritaAcaraRepository, userRepo repository.UserRepository) *BeritaAcaraService {
	if userRepo == nil {
		userRepo = &mockUserRepo{}
	}
	return NewBeritaAcaraService(
		repo,
		userRepo,
		NewNotificationService(&mockNotificationRepo{}, userRepo),
		NewEmailService(&config.Config{}),
		NewAuditService(nil),
		jobs.NewWorker(1),
	)
}

func documentNumberConflict() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "idx_berita_acaras_document_number"}
}

func TestBeritaAcaraService_DocumentNumberSequence(t *testing.T) {
	mockRepo := &mockBARepo{}
	service := newBAServiceForTest(mockRepo, nil)

	prefix := models.DocumentNumberPrefix(time.Now())

	mockRepo.mockCountByMonthPrefix = func(ctx context.Context, p string) (int64, error) {
		assert.Equal(t, prefix, p)
		return 0, nil
	}
	mockRepo.mockCreate = func(ctx context.Context, ba *models.BeritaAcara) error {
		return nil
	}

	ba := &models.BeritaAcara{}
	err := service.createWithDocumentNumber(context.Background(), ba)
	assert.NoError(t, err)
	assert.Equal(t, models.FormatDocumentNumber(prefix, 1), ba.DocumentNumber)
}

func TestBeritaAcaraService_DocumentNumberRetriesOnConflict(t *testing.T) {
	mockRepo := &mockBARepo{}
	service := newBAServiceForTest(mockRepo, nil)

	prefix := models.DocumentNumberPrefix(time.Now())

	// A concurrent create grabbed the same number: the count moves from
	// 3 to 4 between attempts and the second insert succeeds.
	counts := []int64{3, 4}
	countCalls := 0
	mockRepo.mockCountByMonthPrefix = func(ctx context.Context, p string) (int64, error) {
		count := counts[countCalls]
		countCalls++
		return count, nil
	}

	createCalls := 0
	mockRepo.mockCreate = func(ctx context.Context, ba *models.BeritaAcara) error {
		createCalls++
		if createCalls == 1 {
			return documentNumberConflict()
		}
		return nil
	}

	ba := &models.BeritaAcara{}
	err := service.createWithDocumentNumber(context.Background(), ba)
	assert.NoError(t, err)
	assert.Equal(t, 2, createCalls)
	assert.Equal(t, models.FormatDocumentNumber(prefix, 5), ba.DocumentNumber)
}

func TestBeritaAcaraService_DocumentNumberGivesUpAfterRetries(t *testing.T) {
	mockRepo := &mockBARepo{}
	service := newBAServiceForTest(mockRepo, nil)

	mockRepo.mockCountByMonthPrefix = func(ctx context.Context, p string) (int64, error) {
		return 0, nil
	}

	createCalls := 0
	mockRepo.mockCreate = func(ctx context.Context, ba *models.BeritaAcara) error {
		createCalls++
		return documentNumberConflict()
	}

	err := service.createWithDocumentNumber(context.Background(), &models.BeritaAcara{})
	assert.Error(t, err)
	assert.Equal(t, documentNumberAttempts, createCalls)
}

func TestBeritaAcaraService_DocumentNumberStopsOnOtherErrors(t *testing.T) {
	mockRepo := &mockBARepo{}
	service := newBAServiceForTest(mockRepo, nil)

	mockRepo.mockCountByMonthPrefix = func(ctx context.Context, p string) (int64, error) {
		return 0, nil
	}

	createCalls := 0
	dbDown := errors.New("connection refused")
	mockRepo.mockCreate = func(ctx context.Context, ba *models.BeritaAcara) error {
		createCalls++
		return dbDown
	}

	err := service.createWithDocumentNumber(context.Background(), &models.BeritaAcara{})
	assert.ErrorIs(t, err, dbDown)
	assert.Equal(t, 1, createCalls)
}

func TestBeritaAcaraService_CreateRejectsUnknownType(t *testing.T) {
	service := newBAServiceForTest(&mockBARepo{}, nil)

	_, err := service.Create(context.Background(), CreateBeritaAcaraInput{Type: "INVOICE"},
		Principal{ID: 1, Role: models.RoleVendor}, ActionContext{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown document type")
}

func TestBeritaAcaraService_ApproveRequiresSignature(t *testing.T) {
	service := newBAServiceForTest(&mockBARepo{}, nil)

	_, err := service.Approve(context.Background(), 1, "   ",
		Principal{ID: 2, Role: models.RoleDireksi}, ActionContext{})
	assert.ErrorIs(t, err, ErrMissingSignature)
}

func TestBeritaAcaraService_ApproveSetsDecisionFields(t *testing.T) {
	mockRepo := &mockBARepo{}
	service := newBAServiceForTest(mockRepo, nil)

	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.BeritaAcara, error) {
		return &models.BeritaAcara{
			ID:             id,
			DocumentNumber: "BA/2026/08/001",
			VendorID:       7,
			Status:         models.BAStatusPending,
		}, nil
	}

	var savedAudit *models.AuditLog
	mockRepo.mockUpdateWithAudit = func(ctx context.Context, ba *models.BeritaAcara, entry *models.AuditLog) error {
		savedAudit = entry
		return nil
	}

	direksi := Principal{ID: 2, Role: models.RoleDireksi}
	ba, err := service.Approve(context.Background(), 1, "data:image/png;base64,sig", direksi, ActionContext{IPAddress: "10.0.0.1"})

	assert.NoError(t, err)
	assert.Equal(t, models.BAStatusApproved, ba.Status)
	assert.NotNil(t, ba.SignatureDireksi)
	assert.Equal(t, direksi.ID, *ba.ApprovedBy)
	assert.NotNil(t, ba.ApprovedAt)

	assert.NotNil(t, savedAudit, "status change and audit row must be written together")
	assert.Equal(t, "APPROVE", savedAudit.Action)
	assert.Equal(t, direksi.ID, savedAudit.UserID)
	assert.Equal(t, "10.0.0.1", savedAudit.IPAddress)
}

func TestBeritaAcaraService_ApproveApprovedDocumentFails(t *testing.T) {
	mockRepo := &mockBARepo{}
	service := newBAServiceForTest(mockRepo, nil)

	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.BeritaAcara, error) {
		return &models.BeritaAcara{ID: id, Status: models.BAStatusApproved}, nil
	}

	_, err := service.Approve(context.Background(), 1, "sig",
		Principal{ID: 2, Role: models.RoleDireksi}, ActionContext{})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestBeritaAcaraService_RejectRequiresReason(t *testing.T) {
	service := newBAServiceForTest(&mockBARepo{}, nil)

	_, err := service.Reject(context.Background(), 1, "",
		Principal{ID: 2, Role: models.RoleDireksi}, ActionContext{})
	assert.ErrorIs(t, err, ErrMissingReason)
}

func TestBeritaAcaraService_RejectRecordsReason(t *testing.T) {
	mockRepo := &mockBARepo{}
	service := newBAServiceForTest(mockRepo, nil)

	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.BeritaAcara, error) {
		return &models.BeritaAcara{
			ID:             id,
			DocumentNumber: "BA/2026/08/002",
			VendorID:       7,
			Status:         models.BAStatusPending,
		}, nil
	}

	var savedAudit *models.AuditLog
	mockRepo.mockUpdateWithAudit = func(ctx context.Context, ba *models.BeritaAcara, entry *models.AuditLog) error {
		savedAudit = entry
		return nil
	}

	direksi := Principal{ID: 2, Role: models.RoleDireksi}
	ba, err := service.Reject(context.Background(), 1, "incomplete item details", direksi, ActionContext{})

	assert.NoError(t, err)
	assert.Equal(t, models.BAStatusRejected, ba.Status)
	assert.Equal(t, "incomplete item details", *ba.RejectionReason)
	assert.Equal(t, direksi.ID, *ba.RejectedBy)
	assert.NotNil(t, ba.RejectedAt)
	assert.Equal(t, "REJECT", savedAudit.Action)
}

func TestBeritaAcaraService_UpdateEnforcesOwnership(t *testing.T) {
	mockRepo := &mockBARepo{}
	service := newBAServiceForTest(mockRepo, nil)

	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.BeritaAcara, error) {
		return &models.BeritaAcara{ID: id, VendorID: 7, Status: models.BAStatusPending}, nil
	}

	otherVendor := Principal{ID: 9, Role: models.RoleVendor}
	desc := "updated"
	_, err := service.Update(context.Background(), 1,
		UpdateBeritaAcaraInput{ItemDescription: &desc}, otherVendor, ActionContext{})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestBeritaAcaraService_UpdateApprovedLocked(t *testing.T) {
	mockRepo := &mockBARepo{}
	service := newBAServiceForTest(mockRepo, nil)

	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.BeritaAcara, error) {
		return &models.BeritaAcara{ID: id, VendorID: 7, Status: models.BAStatusApproved}, nil
	}

	owner := Principal{ID: 7, Role: models.RoleVendor}
	desc := "updated"
	_, err := service.Update(context.Background(), 1,
		UpdateBeritaAcaraInput{ItemDescription: &desc}, owner, ActionContext{})
	assert.ErrorIs(t, err, ErrApprovedLocked)
}

func TestBeritaAcaraService_ResubmitPreservesRejectionFields(t *testing.T) {
	mockRepo := &mockBARepo{}
	service := newBAServiceForTest(mockRepo, nil)

	reason := "wrong quantity"
	rejectedBy := uint(2)
	rejectedAt := time.Now().Add(-time.Hour)
	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.BeritaAcara, error) {
		return &models.BeritaAcara{
			ID:              id,
			DocumentNumber:  "BA/2026/08/003",
			VendorID:        7,
			Status:          models.BAStatusRejected,
			RejectionReason: &reason,
			RejectedBy:      &rejectedBy,
			RejectedAt:      &rejectedAt,
		}, nil
	}

	var savedAudit *models.AuditLog
	mockRepo.mockUpdateWithAudit = func(ctx context.Context, ba *models.BeritaAcara, entry *models.AuditLog) error {
		savedAudit = entry
		return nil
	}

	owner := Principal{ID: 7, Role: models.RoleVendor}
	quantity := 12.0
	ba, err := service.Update(context.Background(), 1,
		UpdateBeritaAcaraInput{ItemQuantity: &quantity}, owner, ActionContext{})

	assert.NoError(t, err)
	assert.Equal(t, models.BAStatusPending, ba.Status)
	assert.Equal(t, 12.0, ba.ItemQuantity)

	// The rejection history stays on the row
	assert.Equal(t, reason, *ba.RejectionReason)
	assert.Equal(t, rejectedBy, *ba.RejectedBy)
	assert.NotNil(t, ba.RejectedAt)

	assert.Equal(t, "RESUBMIT", savedAudit.Action)
}

func TestBeritaAcaraService_UpdateWithoutChangesSkipsWrite(t *testing.T) {
	mockRepo := &mockBARepo{}
	service := newBAServiceForTest(mockRepo, nil)

	mockRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.BeritaAcara, error) {
		return &models.BeritaAcara{ID: id, VendorID: 7, Status: models.BAStatusPending}, nil
	}

	updateCalled := false
	mockRepo.mockUpdateWithAudit = func(ctx context.Context, ba *models.BeritaAcara, entry *models.AuditLog) error {
		updateCalled = true
		return nil
	}

	owner := Principal{ID: 7, Role: models.RoleVendor}
	_, err := service.Update(context.Background(), 1, UpdateBeritaAcaraInput{}, owner, ActionContext{})

	assert.NoError(t, err)
	assert.False(t, updateCalled, "no-op edits should not touch the database")
}

func TestBeritaAcaraService_VendorListAlwaysScopedToOwnRows(t *testing.T) {
	mockRepo := &mockBARepo{}
	service := newBAServiceForTest(mockRepo, nil)

	var capturedVendorID uint
	mockRepo.mockList = func(ctx context.Context, query *repository.BeritaAcaraQuery) ([]models.BeritaAcara, int64, error) {
		capturedVendorID = query.VendorID
		return nil, 0, nil
	}

	vendor := Principal{ID: 7, Role: models.RoleVendor}
	query := &repository.BeritaAcaraQuery{ListQuery: repository.NewListQuery(), VendorID: 99}
	_, _, err := service.List(context.Background(), query, vendor)

	assert.NoError(t, err)
	assert.Equal(t, vendor.ID, capturedVendorID, "vendor filter must be forced to the actor's own ID")
}
