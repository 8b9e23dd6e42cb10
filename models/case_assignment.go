package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Assignment kinds
const (
	AssignmentSubadminQueue = "subadmin_queue" // case waiting for a subadmin to take it
	AssignmentCAQueue       = "ca_queue"       // subadmin sent the case to a CA
)

// CaseAssignment is a queue/link row tying a case to the actor pool it is waiting
// on. A subadmin_queue row exists while the case waits to be taken; a ca_queue row
// links the subadmin who forwarded the case to the CA working it. Reapplication
// removes all assignment rows so the case re-enters the pool clean.
type CaseAssignment struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	CaseID     string  `gorm:"type:uuid;not null;index" json:"case_id"`
	Kind       string  `gorm:"not null;index" json:"kind"` // subadmin_queue, ca_queue
	SubadminID *string `gorm:"type:uuid;index" json:"subadmin_id,omitempty"`
	CAID       *string `gorm:"column:ca_id;type:uuid;index" json:"ca_id,omitempty"`
}

// BeforeCreate hook to generate UUID
func (a *CaseAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for CaseAssignment model
func (CaseAssignment) TableName() string {
	return "case_assignments"
}
