package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet holds one agent's prepaid balance. The balance is never mutated outside
// a lock-protected transaction in the ledger service, and it must always equal
// the agent's transaction ledger replayed from zero.
type Wallet struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AgentID  string          `gorm:"type:uuid;not null;uniqueIndex" json:"agent_id"`
	Agent    User            `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
	Balance  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance"`
	Currency string          `gorm:"size:3;not null;default:INR" json:"currency"`

	Transactions []WalletTransaction `gorm:"foreignKey:WalletID" json:"transactions,omitempty"`
}

// BeforeCreate hook to generate UUID
func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Wallet model
func (Wallet) TableName() string {
	return "wallets"
}
