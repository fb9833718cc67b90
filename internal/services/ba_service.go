package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/accenprove/accenprove-api/internal/jobs"
	"github.com/accenprove/accenprove-api/internal/models"
	"github.com/accenprove/accenprove-api/internal/repository"
	"github.com/accenprove/accenprove-api/internal/statemachine"
)

// documentNumberAttempts bounds the retry loop on document-number
// collisions under concurrent creates in the same month.
const documentNumberAttempts = 3

type BeritaAcaraService struct {
	repo            repository.BeritaAcaraRepository
	userRepo        repository.UserRepository
	notificationSvc *NotificationService
	emailSvc        *EmailService
	auditSvc        *AuditService
	worker          *jobs.Worker
}

func NewBeritaAcaraService(
	repo repository.BeritaAcaraRepository,
	userRepo repository.UserRepository,
	notificationSvc *NotificationService,
	emailSvc *EmailService,
	auditSvc *AuditService,
	worker *jobs.Worker,
) *BeritaAcaraService {
	return &BeritaAcaraService{
		repo:            repo,
		userRepo:        userRepo,
		notificationSvc: notificationSvc,
		emailSvc:        emailSvc,
		auditSvc:        auditSvc,
		worker:          worker,
	}
}

// CreateBeritaAcaraInput carries the fields a vendor submits for a new BA.
type CreateBeritaAcaraInput struct {
	Type               string
	ContractNumber     string
	InspectionDate     time.Time
	InspectionLocation string
	PICName            string
	PICTitle           string
	ItemDescription    string
	ItemQuantity       float64
	ItemUnit           string
	ItemCondition      string
	Remarks            *string
	SignatureVendor    string
}

// UpdateBeritaAcaraInput carries optional field updates; nil fields
// are left untouched.
type UpdateBeritaAcaraInput struct {
	ContractNumber     *string
	InspectionDate     *time.Time
	InspectionLocation *string
	PICName            *string
	PICTitle           *string
	ItemDescription    *string
	ItemQuantity       *float64
	ItemUnit           *string
	ItemCondition      *string
	Remarks            *string
	SignatureVendor    *string
}

// FindByID gets a BA by ID without access checks (internal use)
func (s *BeritaAcaraService) FindByID(ctx context.Context, id uint) (*models.BeritaAcara, error) {
	return s.repo.FindByIDWithDetails(ctx, id)
}

// FindForActor gets a BA by ID, enforcing that vendors only see their
// own documents.
func (s *BeritaAcaraService) FindForActor(ctx context.Context, id uint, actor Principal) (*models.BeritaAcara, error) {
	ba, err := s.repo.FindByIDWithDetails(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if actor.Role == models.RoleVendor && !ba.IsOwnedBy(actor.ID) {
		return nil, ErrForbidden
	}
	return ba, nil
}

// List returns BA documents visible to the actor. Vendors are always
// restricted to their own rows regardless of requested filters.
func (s *BeritaAcaraService) List(ctx context.Context, query *repository.BeritaAcaraQuery, actor Principal) ([]models.BeritaAcara, int64, error) {
	if actor.Role == models.RoleVendor {
		query.VendorID = actor.ID
	}
	return s.repo.List(ctx, query)
}

// Create registers a new BA for the acting vendor. The document is
// always owned by its creator and starts at PENDING.
func (s *BeritaAcaraService) Create(ctx context.Context, input CreateBeritaAcaraInput, actor Principal, actionCtx ActionContext) (*models.BeritaAcara, error) {
	if !models.ValidBAType(input.Type) {
		return nil, fmt.Errorf("unknown document type: %s", input.Type)
	}

	vendor, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load vendor: %w", err)
	}

	vendorName := vendor.FullName
	if vendor.CompanyName != nil && *vendor.CompanyName != "" {
		vendorName = *vendor.CompanyName
	}

	ba := &models.BeritaAcara{
		GUID:               uuid.New().String(),
		Type:               input.Type,
		ContractNumber:     input.ContractNumber,
		VendorID:           actor.ID,
		VendorName:         vendorName,
		InspectionDate:     input.InspectionDate,
		InspectionLocation: input.InspectionLocation,
		PICName:            input.PICName,
		PICTitle:           input.PICTitle,
		ItemDescription:    input.ItemDescription,
		ItemQuantity:       input.ItemQuantity,
		ItemUnit:           input.ItemUnit,
		ItemCondition:      input.ItemCondition,
		Remarks:            input.Remarks,
		SignatureVendor:    input.SignatureVendor,
		Status:             models.BAStatusPending,
	}

	if err := s.createWithDocumentNumber(ctx, ba); err != nil {
		return nil, err
	}

	s.auditSvc.LogBestEffort(ctx, AuditEntry{
		Actor:       actor,
		Action:      "CREATE",
		Category:    models.AuditCategoryBeritaAcara,
		Description: fmt.Sprintf("Berita acara %s created for contract %s", ba.DocumentNumber, ba.ContractNumber),
		TargetType:  "BeritaAcara",
		TargetID:    ba.ID,
		Metadata:    map[string]any{"document_number": ba.DocumentNumber, "type": ba.Type},
		Context:     actionCtx,
	})

	// Notify directors asynchronously
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notificationSvc.NotifyRole(ctx, models.RoleDireksi,
			"New berita acara submitted",
			fmt.Sprintf("%s submitted %s for review", ba.VendorName, ba.DocumentNumber),
			models.NotificationTypeBASubmitted)
	})
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.emailSvc.SendBASubmitted(ctx, vendor, ba)
	})

	return ba, nil
}

// createWithDocumentNumber assigns the next month-scoped sequence
// number and inserts. The document_number unique index backs up the
// count: on a collision the count is redone and the insert retried.
func (s *BeritaAcaraService) createWithDocumentNumber(ctx context.Context, ba *models.BeritaAcara) error {
	prefix := models.DocumentNumberPrefix(time.Now())

	var lastErr error
	for attempt := 0; attempt < documentNumberAttempts; attempt++ {
		count, err := s.repo.CountByMonthPrefix(ctx, prefix)
		if err != nil {
			return fmt.Errorf("failed to count documents for %s: %w", prefix, err)
		}

		ba.DocumentNumber = models.FormatDocumentNumber(prefix, int(count)+1)

		err = s.repo.Create(ctx, ba)
		if err == nil {
			return nil
		}
		if !repository.IsDocumentNumberConflict(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("failed to assign document number after %d attempts: %w", documentNumberAttempts, lastErr)
}

// Approve transitions a PENDING BA to APPROVED. Requires the director
// signature; the status update and audit row are one transaction.
func (s *BeritaAcaraService) Approve(ctx context.Context, id uint, signature string, actor Principal, actionCtx ActionContext) (*models.BeritaAcara, error) {
	if strings.TrimSpace(signature) == "" {
		return nil, ErrMissingSignature
	}

	ba, err := s.repo.FindByIDWithDetails(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	prevStatus := ba.Status
	fsm := statemachine.NewBeritaAcaraFSM(ba)
	if err := fsm.Approve(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	now := time.Now()
	ba.SignatureDireksi = &signature
	ba.ApprovedBy = &actor.ID
	ba.ApprovedAt = &now

	auditRow := s.auditSvc.Row(AuditEntry{
		Actor:       actor,
		Action:      "APPROVE",
		Category:    models.AuditCategoryBeritaAcara,
		Description: fmt.Sprintf("Berita acara %s approved", ba.DocumentNumber),
		TargetType:  "BeritaAcara",
		TargetID:    ba.ID,
		Metadata: map[string]any{
			"status_before": prevStatus,
			"status_after":  ba.Status,
			"approved_by":   actor.ID,
		},
		Context: actionCtx,
	})

	if err := s.repo.UpdateWithAudit(ctx, ba, auditRow); err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notificationSvc.NotifyUser(ctx, ba.VendorID,
			"Berita acara approved",
			fmt.Sprintf("Document %s has been approved", ba.DocumentNumber),
			models.NotificationTypeBAApproved)
	})
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.emailSvc.SendBAApproved(ctx, &ba.Vendor, ba)
	})

	return ba, nil
}

// Reject transitions a PENDING BA to REJECTED with a mandatory reason.
func (s *BeritaAcaraService) Reject(ctx context.Context, id uint, reason string, actor Principal, actionCtx ActionContext) (*models.BeritaAcara, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrMissingReason
	}

	ba, err := s.repo.FindByIDWithDetails(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	prevStatus := ba.Status
	fsm := statemachine.NewBeritaAcaraFSM(ba)
	if err := fsm.Reject(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	now := time.Now()
	ba.RejectionReason = &reason
	ba.RejectedBy = &actor.ID
	ba.RejectedAt = &now

	auditRow := s.auditSvc.Row(AuditEntry{
		Actor:       actor,
		Action:      "REJECT",
		Category:    models.AuditCategoryBeritaAcara,
		Description: fmt.Sprintf("Berita acara %s rejected: %s", ba.DocumentNumber, reason),
		TargetType:  "BeritaAcara",
		TargetID:    ba.ID,
		Metadata: map[string]any{
			"status_before":   prevStatus,
			"status_after":    ba.Status,
			"reason":          reason,
			"contract_number": ba.ContractNumber,
			"vendor_id":       ba.VendorID,
		},
		Context: actionCtx,
	})

	if err := s.repo.UpdateWithAudit(ctx, ba, auditRow); err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notificationSvc.NotifyUser(ctx, ba.VendorID,
			"Berita acara rejected",
			fmt.Sprintf("Document %s was rejected: %s", ba.DocumentNumber, reason),
			models.NotificationTypeBARejected)
	})
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.emailSvc.SendBARejected(ctx, &ba.Vendor, ba, reason)
	})

	return ba, nil
}

// Update edits a BA owned by the acting vendor. Editing a REJECTED
// document resubmits it: status returns to PENDING while the rejection
// fields stay in place for history. APPROVED documents are immutable.
func (s *BeritaAcaraService) Update(ctx context.Context, id uint, input UpdateBeritaAcaraInput, actor Principal, actionCtx ActionContext) (*models.BeritaAcara, error) {
	ba, err := s.repo.FindByIDWithDetails(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	if !ba.IsOwnedBy(actor.ID) {
		return nil, ErrForbidden
	}

	if ba.Status == models.BAStatusApproved {
		return nil, ErrApprovedLocked
	}

	prevStatus := ba.Status
	changed := applyBAUpdates(ba, input)
	if len(changed) == 0 {
		return ba, nil
	}

	resubmitted := false
	if ba.Status == models.BAStatusRejected {
		fsm := statemachine.NewBeritaAcaraFSM(ba)
		if err := fsm.Resubmit(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
		resubmitted = true
	}

	action := "UPDATE"
	if resubmitted {
		action = "RESUBMIT"
	}

	auditRow := s.auditSvc.Row(AuditEntry{
		Actor:       actor,
		Action:      action,
		Category:    models.AuditCategoryBeritaAcara,
		Description: fmt.Sprintf("Berita acara %s updated (%s)", ba.DocumentNumber, strings.Join(changed, ", ")),
		TargetType:  "BeritaAcara",
		TargetID:    ba.ID,
		Metadata: map[string]any{
			"status_before":  prevStatus,
			"status_after":   ba.Status,
			"changed_fields": changed,
		},
		Context: actionCtx,
	})

	if err := s.repo.UpdateWithAudit(ctx, ba, auditRow); err != nil {
		return nil, err
	}

	if resubmitted {
		s.worker.EnqueueAsync(func(ctx context.Context) error {
			return s.notificationSvc.NotifyRole(ctx, models.RoleDireksi,
				"Berita acara resubmitted",
				fmt.Sprintf("%s resubmitted %s after rejection", ba.VendorName, ba.DocumentNumber),
				models.NotificationTypeBAResubmit)
		})
	}

	return ba, nil
}

// applyBAUpdates copies the provided fields onto the model and returns
// the names of fields that actually changed.
func applyBAUpdates(ba *models.BeritaAcara, input UpdateBeritaAcaraInput) []string {
	var changed []string

	setString := func(name string, dst *string, src *string) {
		if src != nil && *src != *dst {
			*dst = *src
			changed = append(changed, name)
		}
	}

	setString("contract_number", &ba.ContractNumber, input.ContractNumber)
	setString("inspection_location", &ba.InspectionLocation, input.InspectionLocation)
	setString("pic_name", &ba.PICName, input.PICName)
	setString("pic_title", &ba.PICTitle, input.PICTitle)
	setString("item_description", &ba.ItemDescription, input.ItemDescription)
	setString("item_unit", &ba.ItemUnit, input.ItemUnit)
	setString("item_condition", &ba.ItemCondition, input.ItemCondition)
	setString("signature_vendor", &ba.SignatureVendor, input.SignatureVendor)

	if input.InspectionDate != nil && !input.InspectionDate.Equal(ba.InspectionDate) {
		ba.InspectionDate = *input.InspectionDate
		changed = append(changed, "inspection_date")
	}
	if input.ItemQuantity != nil && *input.ItemQuantity != ba.ItemQuantity {
		ba.ItemQuantity = *input.ItemQuantity
		changed = append(changed, "item_quantity")
	}
	if input.Remarks != nil && (ba.Remarks == nil || *input.Remarks != *ba.Remarks) {
		ba.Remarks = input.Remarks
		changed = append(changed, "remarks")
	}

	return changed
}

// Delete removes a BA. Admin only; the role gate lives in the policy
// table, this just records the action.
func (s *BeritaAcaraService) Delete(ctx context.Context, id uint, actor Principal, actionCtx ActionContext) error {
	ba, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.LogBestEffort(ctx, AuditEntry{
		Actor:       actor,
		Action:      "DELETE",
		Category:    models.AuditCategoryBeritaAcara,
		Description: fmt.Sprintf("Berita acara %s deleted", ba.DocumentNumber),
		TargetType:  "BeritaAcara",
		TargetID:    ba.ID,
		Metadata:    map[string]any{"document_number": ba.DocumentNumber, "status": ba.Status},
		Context:     actionCtx,
	})

	return nil
}

// RemindStalePending notifies directors about PENDING documents older
// than the threshold. Run on a schedule.
func (s *BeritaAcaraService) RemindStalePending(ctx context.Context, olderThan time.Duration) error {
	stale, err := s.repo.FindPendingOlderThan(ctx, olderThan)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	return s.notificationSvc.NotifyRole(ctx, models.RoleDireksi,
		"Pending berita acara awaiting review",
		fmt.Sprintf("%d document(s) have been pending for more than %d hours", len(stale), int(olderThan.Hours())),
		models.NotificationTypeBASubmitted)
}
