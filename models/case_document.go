package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document slot constants (which role's slot on the case the file fills)
const (
	DocumentSlotAgent      = "agent"
	DocumentSlotSubadmin   = "subadmin"
	DocumentSlotCA         = "ca"
	DocumentSlotSuperadmin = "superadmin"
)

// CaseDocument represents a file attached to a case. The core stores only the
// opaque storage key returned by the storage provider, never raw bytes.
type CaseDocument struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CaseID string `gorm:"type:uuid;not null;index" json:"case_id"`
	Slot   string `gorm:"not null" json:"slot"` // agent, subadmin, ca, superadmin

	// File metadata
	StorageKey       string `gorm:"not null" json:"-"` // Not exposed in JSON for security
	FileName         string `gorm:"not null" json:"file_name"`
	FileOriginalName string `gorm:"not null" json:"file_original_name"`
	FileSize         int64  `gorm:"not null" json:"file_size"`
	MimeType         string `json:"mime_type,omitempty"`

	// Upload tracking
	UploadedByID *string `gorm:"type:uuid" json:"uploaded_by_id,omitempty"`
	UploadedBy   *User   `gorm:"foreignKey:UploadedByID" json:"uploaded_by,omitempty"`
}

// BeforeCreate hook to generate UUID
func (d *CaseDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for CaseDocument model
func (CaseDocument) TableName() string {
	return "case_documents"
}

// IsValidDocumentSlot checks if the slot name is valid
func IsValidDocumentSlot(slot string) bool {
	switch slot {
	case DocumentSlotAgent, DocumentSlotSubadmin, DocumentSlotCA, DocumentSlotSuperadmin:
		return true
	}
	return false
}
