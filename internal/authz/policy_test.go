package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/accenprove/accenprove-api/internal/models"
)

func TestPolicy_BAWorkflowActions(t *testing.T) {
	// Only vendors submit and resubmit
	assert.Equal(t, []string{models.RoleVendor}, RolesFor(ActionBACreate))
	assert.Equal(t, []string{models.RoleVendor}, RolesFor(ActionBAResubmit))

	// Only direksi decide
	assert.Equal(t, []string{models.RoleDireksi}, RolesFor(ActionBAApprove))
	assert.Equal(t, []string{models.RoleDireksi}, RolesFor(ActionBAReject))

	// Only admins delete
	assert.Equal(t, []string{models.RoleAdmin}, RolesFor(ActionBADelete))
}

func TestPolicy_ReadSideActions(t *testing.T) {
	// Vendors never export the register; everyone else does
	assert.Equal(t, []string{models.RoleAdmin, models.RoleDireksi, models.RoleDK}, RolesFor(ActionBAExport))

	// Every role gets a dashboard
	assert.Equal(t, []string{models.RoleAdmin, models.RoleDireksi, models.RoleDK, models.RoleVendor}, RolesFor(ActionStatsView))
}

func TestPolicy_AdminOnlyActions(t *testing.T) {
	assert.Equal(t, []string{models.RoleAdmin}, RolesFor(ActionUserManage))
	assert.Equal(t, []string{models.RoleAdmin}, RolesFor(ActionAuditView))
}

func TestAllowed_UnknownInputsDeny(t *testing.T) {
	assert.False(t, Allowed("superuser", ActionBAApprove))
	assert.False(t, Allowed("", ActionBACreate))
	assert.False(t, Allowed(models.RoleAdmin, Action("ba.unknown")))
}
