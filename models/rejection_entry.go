package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Rejecting actor types
const (
	RejectedBySubadmin   = "subadmin"
	RejectedByCA         = "ca"
	RejectedBySuperadmin = "superadmin"
)

// RejectionEntry is one immutable rejection record. A case accumulates one entry
// per rejection across reapplication cycles; entries are never updated or removed
// while the case exists.
type RejectionEntry struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	CaseID    string `gorm:"type:uuid;not null;index" json:"case_id"`
	ActorType string `gorm:"not null" json:"actor_type"` // subadmin, ca, superadmin
	ActorID   string `gorm:"type:uuid;not null" json:"actor_id"`

	Reason      string           `gorm:"type:text;not null" json:"reason"`
	ExtraCharge *decimal.Decimal `gorm:"type:decimal(12,2)" json:"extra_charge,omitempty"`
}

// BeforeCreate hook to generate UUID
func (r *RejectionEntry) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for RejectionEntry model
func (RejectionEntry) TableName() string {
	return "rejection_entries"
}
