package services

import (
	"errors"
	"fmt"
	"itr_flow_app_go/models"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Flow-related errors
var (
	ErrFlowNotFound     = errors.New("case flow not found")
	ErrUnknownMilestone = errors.New("unknown flow milestone")
)

// milestoneColumns maps milestone names to their case_flows timestamp column
var milestoneColumns = map[string]string{
	models.MilestoneSubmitted:  "submitted_at",
	models.MilestoneTaken:      "taken_at",
	models.MilestoneCAAssigned: "ca_assigned_at",
	models.MilestoneFilled:     "filled_at",
	models.MilestoneEVerified:  "e_verified_at",
	models.MilestoneCompleted:  "completed_at",
}

// CreateFlow creates the 1:1 flow record for a new case with the submitted
// timestamp already set
func CreateFlow(db *gorm.DB, caseID string, submittedAt time.Time) (*models.CaseFlow, error) {
	flow := &models.CaseFlow{
		CaseID:      caseID,
		SubmittedAt: &submittedAt,
	}
	if err := db.Create(flow).Error; err != nil {
		return nil, fmt.Errorf("failed to create case flow: %w", err)
	}
	return flow, nil
}

// RecordMilestone stamps a milestone timestamp. Timestamps are set once per
// cycle: a milestone that already carries a timestamp is left untouched.
func RecordMilestone(db *gorm.DB, caseID, milestone string, at time.Time) error {
	column, ok := milestoneColumns[milestone]
	if !ok {
		return ErrUnknownMilestone
	}

	result := db.Model(&models.CaseFlow{}).
		Where("case_id = ? AND "+column+" IS NULL", caseID).
		Update(column, at)
	if result.Error != nil {
		return fmt.Errorf("failed to record milestone %s: %w", milestone, result.Error)
	}
	// RowsAffected == 0 means the milestone was already stamped this cycle
	return nil
}

// ResetFlowForReapply clears the timestamps belonging to the rejected cycle so
// the new cycle can stamp them again. The submitted and taken timestamps stay,
// as does the rejection history.
func ResetFlowForReapply(db *gorm.DB, caseID string) error {
	result := db.Model(&models.CaseFlow{}).
		Where("case_id = ?", caseID).
		Updates(map[string]interface{}{
			"ca_assigned_at": nil,
			"filled_at":      nil,
			"e_verified_at":  nil,
			"completed_at":   nil,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to reset case flow: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrFlowNotFound
	}
	return nil
}

// AppendRejection appends one immutable rejection record for the case
func AppendRejection(db *gorm.DB, caseID, actorType, actorID, reason string, extraCharge *decimal.Decimal) (*models.RejectionEntry, error) {
	entry := &models.RejectionEntry{
		CaseID:      caseID,
		ActorType:   actorType,
		ActorID:     actorID,
		Reason:      reason,
		ExtraCharge: extraCharge,
	}
	if err := db.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to append rejection entry: %w", err)
	}
	return entry, nil
}

// GetHistory returns the full flow record and rejection trail for a case
func GetHistory(db *gorm.DB, caseID string) (*models.CaseFlow, []models.RejectionEntry, error) {
	var flow models.CaseFlow
	if err := db.First(&flow, "case_id = ?", caseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrFlowNotFound
		}
		return nil, nil, err
	}

	var rejections []models.RejectionEntry
	if err := db.Where("case_id = ?", caseID).
		Order("created_at ASC").
		Find(&rejections).Error; err != nil {
		return nil, nil, err
	}

	return &flow, rejections, nil
}
