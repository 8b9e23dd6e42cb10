package services

import (
	"itr_flow_app_go/models"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupFlowTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	db.AutoMigrate(&models.CaseFlow{}, &models.RejectionEntry{})
	return db
}

func TestFlowService(t *testing.T) {
	db := setupFlowTestDB()
	caseID := "case-1"
	submitted := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	flow, err := CreateFlow(db, caseID, submitted)
	require.NoError(t, err)
	require.NotNil(t, flow.SubmittedAt)

	t.Run("Milestones are set once per cycle", func(t *testing.T) {
		first := submitted.Add(time.Hour)
		require.NoError(t, RecordMilestone(db, caseID, models.MilestoneTaken, first))

		// A second stamp must not overwrite the first
		require.NoError(t, RecordMilestone(db, caseID, models.MilestoneTaken, first.Add(time.Hour)))

		current, _, err := GetHistory(db, caseID)
		require.NoError(t, err)
		require.NotNil(t, current.TakenAt)
		assert.True(t, current.TakenAt.Equal(first))
	})

	t.Run("Unknown milestone is rejected", func(t *testing.T) {
		err := RecordMilestone(db, caseID, "archived", time.Now())
		assert.ErrorIs(t, err, ErrUnknownMilestone)
	})

	t.Run("Reapply clears only the rejected cycle's timestamps", func(t *testing.T) {
		now := submitted.Add(2 * time.Hour)
		require.NoError(t, RecordMilestone(db, caseID, models.MilestoneCAAssigned, now))
		require.NoError(t, RecordMilestone(db, caseID, models.MilestoneFilled, now))
		require.NoError(t, RecordMilestone(db, caseID, models.MilestoneEVerified, now))
		require.NoError(t, RecordMilestone(db, caseID, models.MilestoneCompleted, now))

		require.NoError(t, ResetFlowForReapply(db, caseID))

		current, _, err := GetHistory(db, caseID)
		require.NoError(t, err)
		assert.NotNil(t, current.SubmittedAt, "submitted survives the cycle reset")
		assert.NotNil(t, current.TakenAt, "taken survives the cycle reset")
		assert.Nil(t, current.CAAssignedAt)
		assert.Nil(t, current.FilledAt)
		assert.Nil(t, current.EVerifiedAt)
		assert.Nil(t, current.CompletedAt)

		// The new cycle can stamp the cleared milestones again
		require.NoError(t, RecordMilestone(db, caseID, models.MilestoneFilled, now.Add(time.Hour)))
		current, _, _ = GetHistory(db, caseID)
		assert.NotNil(t, current.FilledAt)
	})

	t.Run("Rejection history is append-only across cycles", func(t *testing.T) {
		charge := decimal.NewFromInt(150)
		_, err := AppendRejection(db, caseID, models.RejectedBySubadmin, "sub-1", "missing Form 16", &charge)
		require.NoError(t, err)
		_, err = AppendRejection(db, caseID, models.RejectedBySuperadmin, "super-1", "PAN mismatch", nil)
		require.NoError(t, err)

		require.NoError(t, ResetFlowForReapply(db, caseID))

		_, rejections, err := GetHistory(db, caseID)
		require.NoError(t, err)
		require.Len(t, rejections, 2, "reapplication keeps the audit trail")
		assert.Equal(t, "missing Form 16", rejections[0].Reason)
		require.NotNil(t, rejections[0].ExtraCharge)
		assert.Equal(t, "150", rejections[0].ExtraCharge.String())
		assert.Equal(t, models.RejectedBySuperadmin, rejections[1].ActorType)
		assert.Nil(t, rejections[1].ExtraCharge)
	})

	t.Run("Missing flow surfaces not found", func(t *testing.T) {
		_, _, err := GetHistory(db, "missing")
		assert.ErrorIs(t, err, ErrFlowNotFound)

		err = ResetFlowForReapply(db, "missing")
		assert.ErrorIs(t, err, ErrFlowNotFound)
	})
}
