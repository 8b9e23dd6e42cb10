package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Flow milestone names
const (
	MilestoneSubmitted  = "submitted"
	MilestoneTaken      = "taken"
	MilestoneCAAssigned = "ca_assigned"
	MilestoneFilled     = "filled"
	MilestoneEVerified  = "everified"
	MilestoneCompleted  = "completed"
)

// CaseFlow is the 1:1 shadow of a Case recording when each workflow milestone
// happened. Timestamps are set once per filing cycle; a reapplication clears the
// late-cycle timestamps (filled, everified, completed) for the new cycle but the
// early ones stay for audit.
type CaseFlow struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CaseID string `gorm:"type:uuid;not null;uniqueIndex" json:"case_id"`

	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
	TakenAt      *time.Time `json:"taken_at,omitempty"`       // subadmin claimed the case
	CAAssignedAt *time.Time `json:"ca_assigned_at,omitempty"`
	FilledAt     *time.Time `json:"filled_at,omitempty"`
	EVerifiedAt  *time.Time `json:"everified_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// BeforeCreate hook to generate UUID
func (f *CaseFlow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for CaseFlow model
func (CaseFlow) TableName() string {
	return "case_flows"
}
