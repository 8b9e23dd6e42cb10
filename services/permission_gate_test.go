package services

import (
	"itr_flow_app_go/models"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	t.Run("Happy path edges", func(t *testing.T) {
		assert.True(t, CanTransition(models.RoleSubadmin, models.CaseStatusPending, models.CaseStatusInProgress))
		assert.True(t, CanTransition(models.RoleCA, models.CaseStatusInProgress, models.CaseStatusFilled))
		assert.True(t, CanTransition(models.RoleCA, models.CaseStatusFilled, models.CaseStatusEVerification))
		assert.True(t, CanTransition(models.RoleSuperadmin, models.CaseStatusFilled, models.CaseStatusCompleted))
		assert.True(t, CanTransition(models.RoleSuperadmin, models.CaseStatusEVerification, models.CaseStatusCompleted))
	})

	t.Run("Rejection reachable from any non-terminal state", func(t *testing.T) {
		for _, from := range []string{
			models.CaseStatusPending,
			models.CaseStatusInProgress,
			models.CaseStatusFilled,
			models.CaseStatusEVerification,
		} {
			assert.True(t, CanTransition(models.RoleSuperadmin, from, models.CaseStatusRejected), "superadmin from %s", from)
			assert.True(t, CanTransition(models.RoleSubadmin, from, models.CaseStatusRejected), "subadmin from %s", from)
		}
	})

	t.Run("Completed is terminal", func(t *testing.T) {
		for _, role := range []string{models.RoleAgent, models.RoleSubadmin, models.RoleCA, models.RoleSuperadmin} {
			assert.False(t, CanTransition(role, models.CaseStatusCompleted, models.CaseStatusRejected), "role %s", role)
			assert.False(t, CanTransition(role, models.CaseStatusCompleted, models.CaseStatusPending), "role %s", role)
		}
	})

	t.Run("Reapplication edges", func(t *testing.T) {
		assert.True(t, CanTransition(models.RoleAgent, models.CaseStatusRejected, models.CaseStatusPending))
		assert.True(t, CanTransition(models.RoleSubadmin, models.CaseStatusRejected, models.CaseStatusPending))
		assert.True(t, CanTransition(models.RoleSuperadmin, models.CaseStatusRejected, models.CaseStatusPending))
		assert.False(t, CanTransition(models.RoleCA, models.CaseStatusRejected, models.CaseStatusPending))
	})

	t.Run("Roles cannot take each other's edges", func(t *testing.T) {
		assert.False(t, CanTransition(models.RoleAgent, models.CaseStatusPending, models.CaseStatusInProgress))
		assert.False(t, CanTransition(models.RoleSubadmin, models.CaseStatusInProgress, models.CaseStatusFilled))
		assert.False(t, CanTransition(models.RoleCA, models.CaseStatusFilled, models.CaseStatusCompleted))
		assert.False(t, CanTransition(models.RoleAgent, models.CaseStatusPending, models.CaseStatusRejected))
	})

	t.Run("Unknown role is denied", func(t *testing.T) {
		assert.False(t, CanTransition("client", models.CaseStatusPending, models.CaseStatusInProgress))
	})
}

func TestCanEditField(t *testing.T) {
	t.Run("Subadmin may fill empty allow-listed fields only", func(t *testing.T) {
		assert.True(t, CanEditField(models.RoleSubadmin, "email", ""))
		assert.True(t, CanEditField(models.RoleSubadmin, "bank_name", ""))
		assert.False(t, CanEditField(models.RoleSubadmin, "email", "set@example.com"), "must not overwrite agent-entered data")
	})

	t.Run("Protected identity fields are always denied to subadmin", func(t *testing.T) {
		for _, field := range []string{"pan_number", "aadhaar_number", "name", "mobile", "dob"} {
			assert.False(t, CanEditField(models.RoleSubadmin, field, ""), "field %s, even when empty", field)
			assert.False(t, CanEditField(models.RoleSubadmin, field, "value"), "field %s", field)
		}
	})

	t.Run("Superadmin bypasses emptiness but not the protected list", func(t *testing.T) {
		assert.True(t, CanEditField(models.RoleSuperadmin, "email", "old@example.com"))
		assert.True(t, CanEditField(models.RoleSuperadmin, "address", "already set"))
		assert.False(t, CanEditField(models.RoleSuperadmin, "pan_number", ""))
		assert.False(t, CanEditField(models.RoleSuperadmin, "aadhaar_number", "123456789012"))
	})

	t.Run("System fields are denied to everyone", func(t *testing.T) {
		for _, role := range []string{models.RoleAgent, models.RoleSubadmin, models.RoleCA, models.RoleSuperadmin} {
			for _, field := range []string{"status", "agent_id", "subadmin_id", "ca_id", "created_at"} {
				assert.False(t, CanEditField(role, field, ""), "role %s field %s", role, field)
			}
		}
	})

	t.Run("CA edits nothing", func(t *testing.T) {
		assert.False(t, CanEditField(models.RoleCA, "email", ""))
		assert.False(t, CanEditField(models.RoleCA, "income_source", ""))
	})

	t.Run("Agent edits customer fields under the engine's edit grant", func(t *testing.T) {
		assert.True(t, CanEditField(models.RoleAgent, "pan_number", "ABCDE1234F"))
		assert.True(t, CanEditField(models.RoleAgent, "email", "x@example.com"))
	})
}
