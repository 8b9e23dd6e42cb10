package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Case status constants
const (
	CaseStatusPending       = "PENDING"
	CaseStatusInProgress    = "IN_PROGRESS"
	CaseStatusFilled        = "FILLED"
	CaseStatusEVerification = "E_VERIFICATION"
	CaseStatusCompleted     = "COMPLETED"
	CaseStatusRejected      = "REJECTED"
)

// Case represents one ITR filing obligation for one customer in one assessment year.
// It moves PENDING -> IN_PROGRESS -> FILLED -> E_VERIFICATION -> COMPLETED, with
// REJECTED reachable from any non-terminal status and REJECTED -> PENDING via
// reapplication.
type Case struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Taxpayer and owning agent
	CustomerID string   `gorm:"type:uuid;not null;index:idx_case_customer_year,unique" json:"customer_id"`
	Customer   Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	AgentID    string   `gorm:"type:uuid;not null;index" json:"agent_id"`
	Agent      User     `gorm:"foreignKey:AgentID" json:"agent,omitempty"`

	AssessmentYear string `gorm:"size:9;not null;index:idx_case_customer_year,unique" json:"assessment_year"` // e.g. 2025-26

	// Status and lifecycle
	Status string `gorm:"not null;default:PENDING;index" json:"status"`

	// Workflow assignment (null until the corresponding step occurs)
	SubadminID *string `gorm:"type:uuid;index" json:"subadmin_id,omitempty"`
	Subadmin   *User   `gorm:"foreignKey:SubadminID" json:"subadmin,omitempty"`
	CAID       *string `gorm:"column:ca_id;type:uuid;index" json:"ca_id,omitempty"`
	CA         *User   `gorm:"foreignKey:CAID" json:"ca,omitempty"`

	// Rejection state (non-null only while status is REJECTED)
	Comment     *string          `gorm:"type:text" json:"comment,omitempty"`
	ExtraCharge *decimal.Decimal `gorm:"type:decimal(12,2)" json:"extra_charge,omitempty"`

	// Per-role document slots (opaque storage keys)
	AgentDocument      *string `json:"agent_document,omitempty"`
	SubadminDocument   *string `json:"subadmin_document,omitempty"`
	CADocument         *string `json:"ca_document,omitempty"`
	SuperadminDocument *string `json:"superadmin_document,omitempty"`

	// One-shot edit grant for the owning agent, consumed on use
	AgentEdit bool `gorm:"not null;default:false" json:"agent_edit"`

	// Relationships (flow and rejection history are cascade-deleted with the case)
	Flow       *CaseFlow        `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"flow,omitempty"`
	Rejections []RejectionEntry `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"rejections,omitempty"`
	Documents  []CaseDocument   `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
}

// BeforeCreate hook to generate UUID
func (c *Case) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Case model
func (Case) TableName() string {
	return "cases"
}

// IsTerminal reports whether the case can no longer move forward without a
// reapplication (COMPLETED) or has been rejected.
func (c *Case) IsTerminal() bool {
	return c.Status == CaseStatusCompleted
}

// IsRejected checks if the case is currently rejected
func (c *Case) IsRejected() bool {
	return c.Status == CaseStatusRejected
}

// IsValidCaseStatus checks if the status is valid
func IsValidCaseStatus(status string) bool {
	validStatuses := []string{
		CaseStatusPending,
		CaseStatusInProgress,
		CaseStatusFilled,
		CaseStatusEVerification,
		CaseStatusCompleted,
		CaseStatusRejected,
	}
	for _, s := range validStatuses {
		if s == status {
			return true
		}
	}
	return false
}
