package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer represents one taxpayer whose returns are filed through the platform.
// A customer is owned by the agent who onboarded them; subadmins may fill in
// fields the agent left blank but never overwrite agent-entered data.
type Customer struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Owning agent
	AgentID string `gorm:"type:uuid;not null;index" json:"agent_id"`
	Agent   User   `gorm:"foreignKey:AgentID" json:"agent,omitempty"`

	// Identity (protected fields - never editable by subadmin)
	Name          string     `gorm:"not null" json:"name"`
	PanNumber     string     `gorm:"size:10;not null;index" json:"pan_number"`
	AadhaarNumber string     `gorm:"size:12" json:"aadhaar_number,omitempty"`
	Mobile        string     `gorm:"size:15" json:"mobile,omitempty"`
	DOB           *time.Time `json:"dob,omitempty"`

	// Supplementary details (subadmin may fill when empty)
	Email         string `json:"email,omitempty"`
	FatherName    string `json:"father_name,omitempty"`
	Address       string `gorm:"type:text" json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	Pincode       string `gorm:"size:6" json:"pincode,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	IFSCCode      string `gorm:"size:11" json:"ifsc_code,omitempty"`
	IncomeSource  string `json:"income_source,omitempty"`

	// Relationships
	Cases []Case `gorm:"foreignKey:CustomerID" json:"cases,omitempty"`
}

// BeforeCreate hook to generate UUID
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Customer model
func (Customer) TableName() string {
	return "customers"
}
