package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction type constants
const (
	TransactionTypeCredit = "credit"
	TransactionTypeDebit  = "debit"
)

// Transaction reference constants (what the money movement was for)
const (
	ReferenceRecharge       = "recharge"
	ReferenceITRPayment     = "itr_payment"
	ReferenceITRExtraCharge = "itr_extra_charge"
)

// Transaction status constants
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
	TransactionStatusReversed  = "reversed"
)

// WalletTransaction is one immutable ledger entry. BalanceAfter must always equal
// BalanceBefore plus or minus Amount according to Type; rows are appended in the
// same transaction that moves the wallet balance and are never edited afterwards.
type WalletTransaction struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	WalletID string `gorm:"type:uuid;not null;index" json:"wallet_id"`
	AgentID  string `gorm:"type:uuid;not null;index" json:"agent_id"`

	Type          string          `gorm:"not null" json:"type"` // credit, debit
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	BalanceBefore decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance_after"`

	ReferenceType string  `gorm:"not null;index" json:"reference_type"` // recharge, itr_payment, itr_extra_charge
	ReferenceID   *string `gorm:"index" json:"reference_id,omitempty"`  // weak link to a case or payment record

	Status      string `gorm:"not null;default:completed" json:"status"` // pending, completed, failed, reversed
	Description string `gorm:"type:text" json:"description,omitempty"`
}

// BeforeCreate hook to generate UUID
func (t *WalletTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for WalletTransaction model
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}

// IsCredit checks if this entry increased the balance
func (t *WalletTransaction) IsCredit() bool {
	return t.Type == TransactionTypeCredit
}
