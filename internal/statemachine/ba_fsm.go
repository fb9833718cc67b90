package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/accenprove/accenprove-api/internal/models"
)

// BeritaAcaraFSM wraps a BA document with its state machine.
// APPROVED is terminal: no event leads out of it.
type BeritaAcaraFSM struct {
	ba  *models.BeritaAcara
	fsm *fsm.FSM
}

// NewBeritaAcaraFSM creates a new BA state machine seeded with the
// document's current status.
func NewBeritaAcaraFSM(ba *models.BeritaAcara) *BeritaAcaraFSM {
	b := &BeritaAcaraFSM{
		ba: ba,
	}

	b.fsm = fsm.NewFSM(
		ba.Status,
		fsm.Events{
			// PENDING → APPROVED
			{Name: "approve", Src: []string{models.BAStatusPending}, Dst: models.BAStatusApproved},

			// PENDING → REJECTED
			{Name: "reject", Src: []string{models.BAStatusPending}, Dst: models.BAStatusRejected},

			// REJECTED → PENDING (vendor edits a rejected document)
			{Name: "resubmit", Src: []string{models.BAStatusRejected}, Dst: models.BAStatusPending},
		},
		fsm.Callbacks{},
	)

	return b
}

// Approve transitions the BA to APPROVED
func (b *BeritaAcaraFSM) Approve(ctx context.Context) error {
	if !b.ba.MayApprove() {
		return fmt.Errorf("berita acara cannot be approved in current state: %s", b.ba.Status)
	}

	if err := b.fsm.Event(ctx, "approve"); err != nil {
		return fmt.Errorf("failed to approve berita acara: %w", err)
	}

	b.ba.Status = b.fsm.Current()
	return nil
}

// Reject transitions the BA to REJECTED
func (b *BeritaAcaraFSM) Reject(ctx context.Context) error {
	if !b.ba.MayReject() {
		return fmt.Errorf("berita acara cannot be rejected in current state: %s", b.ba.Status)
	}

	if err := b.fsm.Event(ctx, "reject"); err != nil {
		return fmt.Errorf("failed to reject berita acara: %w", err)
	}

	b.ba.Status = b.fsm.Current()
	return nil
}

// Resubmit transitions a REJECTED BA back to PENDING. The rejection
// fields on the model are left untouched for audit history.
func (b *BeritaAcaraFSM) Resubmit(ctx context.Context) error {
	if !b.ba.MayResubmit() {
		return fmt.Errorf("berita acara cannot be resubmitted in current state: %s", b.ba.Status)
	}

	if err := b.fsm.Event(ctx, "resubmit"); err != nil {
		return fmt.Errorf("failed to resubmit berita acara: %w", err)
	}

	b.ba.Status = b.fsm.Current()
	return nil
}

// Current returns the current state
func (b *BeritaAcaraFSM) Current() string {
	return b.fsm.Current()
}

// Can checks if a transition is possible
func (b *BeritaAcaraFSM) Can(event string) bool {
	return b.fsm.Can(event)
}
