package statemachine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/accenprove/accenprove-api/internal/models"
)

func TestBeritaAcaraFSM_ApproveFromPending(t *testing.T) {
	ba := &models.BeritaAcara{Status: models.BAStatusPending}
	fsm := NewBeritaAcaraFSM(ba)

	err := fsm.Approve(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.BAStatusApproved, ba.Status)
	assert.Equal(t, models.BAStatusApproved, fsm.Current())
}

func TestBeritaAcaraFSM_RejectFromPending(t *testing.T) {
	ba := &models.BeritaAcara{Status: models.BAStatusPending}
	fsm := NewBeritaAcaraFSM(ba)

	err := fsm.Reject(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.BAStatusRejected, ba.Status)
}

func TestBeritaAcaraFSM_ResubmitFromRejected(t *testing.T) {
	ba := &models.BeritaAcara{Status: models.BAStatusRejected}
	fsm := NewBeritaAcaraFSM(ba)

	err := fsm.Resubmit(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.BAStatusPending, ba.Status)
}

// APPROVED is terminal: nothing transitions out of it.
func TestBeritaAcaraFSM_ApprovedIsTerminal(t *testing.T) {
	ctx := context.Background()

	for _, event := range []string{"approve", "reject", "resubmit"} {
		ba := &models.BeritaAcara{Status: models.BAStatusApproved}
		fsm := NewBeritaAcaraFSM(ba)

		assert.False(t, fsm.Can(event), "event %q should not be possible from APPROVED", event)

		var err error
		switch event {
		case "approve":
			err = fsm.Approve(ctx)
		case "reject":
			err = fsm.Reject(ctx)
		case "resubmit":
			err = fsm.Resubmit(ctx)
		}
		assert.Error(t, err)
		assert.Equal(t, models.BAStatusApproved, ba.Status, "status must not move after %q", event)
	}
}

func TestBeritaAcaraFSM_RejectedCannotBeApprovedDirectly(t *testing.T) {
	ba := &models.BeritaAcara{Status: models.BAStatusRejected}
	fsm := NewBeritaAcaraFSM(ba)

	err := fsm.Approve(context.Background())
	assert.Error(t, err)
	assert.Equal(t, models.BAStatusRejected, ba.Status)
}

func TestBeritaAcaraFSM_PendingCannotResubmit(t *testing.T) {
	ba := &models.BeritaAcara{Status: models.BAStatusPending}
	fsm := NewBeritaAcaraFSM(ba)

	err := fsm.Resubmit(context.Background())
	assert.Error(t, err)
	assert.Equal(t, models.BAStatusPending, ba.Status)
}
