package services

import (
	"errors"
	"itr_flow_app_go/models"
)

// Permission-related errors
var (
	ErrFieldNotPermitted = errors.New("field edit not permitted for this actor")
)

// transitionTable enumerates every allowed (role, from, to) edge of the case
// state machine. Anything not listed is denied.
var transitionTable = map[string]map[string][]string{
	models.RoleAgent: {
		models.CaseStatusRejected: {models.CaseStatusPending}, // reapplication, pays extra charge
	},
	models.RoleSubadmin: {
		models.CaseStatusPending:       {models.CaseStatusInProgress, models.CaseStatusRejected},
		models.CaseStatusInProgress:    {models.CaseStatusRejected},
		models.CaseStatusFilled:        {models.CaseStatusRejected},
		models.CaseStatusEVerification: {models.CaseStatusRejected},
		models.CaseStatusRejected:      {models.CaseStatusPending}, // reapply on behalf of the agent
	},
	models.RoleCA: {
		models.CaseStatusPending:       {models.CaseStatusRejected},
		models.CaseStatusInProgress:    {models.CaseStatusFilled, models.CaseStatusRejected},
		models.CaseStatusFilled:        {models.CaseStatusEVerification, models.CaseStatusRejected},
		models.CaseStatusEVerification: {models.CaseStatusRejected},
	},
	models.RoleSuperadmin: {
		models.CaseStatusPending:       {models.CaseStatusRejected},
		models.CaseStatusInProgress:    {models.CaseStatusRejected},
		models.CaseStatusFilled:        {models.CaseStatusEVerification, models.CaseStatusCompleted, models.CaseStatusRejected},
		models.CaseStatusEVerification: {models.CaseStatusCompleted, models.CaseStatusRejected},
		models.CaseStatusRejected:      {models.CaseStatusPending}, // undo-reject, no charge
	},
}

// protectedFields are audit-critical identity and system fields. They are denied
// to subadmin and superadmin regardless of emptiness; only the originating agent
// (under an edit grant) may touch the identity subset.
var protectedFields = map[string]bool{
	"pan_number":     true,
	"aadhaar_number": true,
	"name":           true,
	"mobile":         true,
	"dob":            true,
}

// systemFields are never editable through field updates for any role
var systemFields = map[string]bool{
	"status":      true,
	"agent_id":    true,
	"subadmin_id": true,
	"ca_id":       true,
	"created_at":  true,
	"updated_at":  true,
}

// subadminEditableFields is the allow-list of customer fields a subadmin may
// fill in, and only while they are still empty
var subadminEditableFields = map[string]bool{
	"email":          true,
	"father_name":    true,
	"address":        true,
	"city":           true,
	"state":          true,
	"pincode":        true,
	"bank_name":      true,
	"account_number": true,
	"ifsc_code":      true,
	"income_source":  true,
}

// CanTransition reports whether the actor role may move a case from one status
// to another
func CanTransition(role, from, to string) bool {
	edges, ok := transitionTable[role]
	if !ok {
		return false
	}
	for _, allowed := range edges[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanEditField reports whether the actor role may write the named customer
// field given its current value.
//   - Subadmin: allow-listed fields only, and only while empty (never overwrite
//     agent-entered data).
//   - Superadmin: bypasses the emptiness check but not the protected-field list.
//   - Agent: may edit everything except system fields; the per-case edit grant
//     is enforced by the caller.
//   - CA: no field edits at all.
func CanEditField(role, field, currentValue string) bool {
	if systemFields[field] {
		return false
	}

	switch role {
	case models.RoleAgent:
		return true
	case models.RoleSubadmin:
		if protectedFields[field] {
			return false
		}
		return subadminEditableFields[field] && currentValue == ""
	case models.RoleSuperadmin:
		if protectedFields[field] {
			return false
		}
		return subadminEditableFields[field]
	default:
		return false
	}
}
