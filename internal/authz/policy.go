// Package authz holds the permission matrix: one table mapping
// action × role to allow/deny, so route handlers never compare role
// strings inline.
package authz

import (
	"github.com/accenprove/accenprove-api/internal/models"
)

// Action identifies an operation gated by the policy table.
type Action string

// Gated actions.
const (
	ActionBACreate   Action = "ba.create"
	ActionBAApprove  Action = "ba.approve"
	ActionBAReject   Action = "ba.reject"
	ActionBAResubmit Action = "ba.resubmit"
	ActionBADelete   Action = "ba.delete"
	ActionBAExport   Action = "ba.export"
	ActionUserManage Action = "users.manage"
	ActionAuditView  Action = "audits.view"
	ActionStatsView  Action = "stats.view"
)

// policy is the permission matrix. Absence means deny.
var policy = map[Action]map[string]bool{
	ActionBACreate: {
		models.RoleVendor: true,
	},
	ActionBAApprove: {
		models.RoleDireksi: true,
	},
	ActionBAReject: {
		models.RoleDireksi: true,
	},
	ActionBAResubmit: {
		models.RoleVendor: true,
	},
	ActionBADelete: {
		models.RoleAdmin: true,
	},
	ActionBAExport: {
		models.RoleAdmin:   true,
		models.RoleDireksi: true,
		models.RoleDK:      true,
	},
	ActionUserManage: {
		models.RoleAdmin: true,
	},
	ActionAuditView: {
		models.RoleAdmin: true,
	},
	ActionStatsView: {
		models.RoleAdmin:   true,
		models.RoleDireksi: true,
		models.RoleDK:      true,
		models.RoleVendor:  true,
	},
}

// Allowed reports whether role may perform action.
func Allowed(role string, action Action) bool {
	roles, ok := policy[action]
	if !ok {
		return false
	}
	return roles[role]
}

// RolesFor returns the roles allowed to perform action. Used by tests
// to assert the matrix matches the documented access rules.
func RolesFor(action Action) []string {
	var allowed []string
	for _, role := range []string{models.RoleAdmin, models.RoleDireksi, models.RoleDK, models.RoleVendor} {
		if Allowed(role, action) {
			allowed = append(allowed, role)
		}
	}
	return allowed
}
