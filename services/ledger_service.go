package services

import (
	"errors"
	"fmt"
	"itr_flow_app_go/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger-related errors
var (
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
)

// lockWallet fetches the agent's wallet with an exclusive row lock so concurrent
// debits on the same agent serialize. SQLite has no FOR UPDATE; there the
// transaction-level writer lock provides the same exclusion.
func lockWallet(tx *gorm.DB, agentID string) (*models.Wallet, error) {
	q := tx
	if tx.Dialector.Name() != "sqlite" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var wallet models.Wallet
	if err := q.First(&wallet, "agent_id = ?", agentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to fetch wallet: %w", err)
	}
	return &wallet, nil
}

// EnsureWallet creates a zero-balance wallet for the agent if none exists yet
func EnsureWallet(db *gorm.DB, agentID string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := db.First(&wallet, "agent_id = ?", agentID).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to fetch wallet: %w", err)
	}

	wallet = models.Wallet{
		AgentID:  agentID,
		Balance:  decimal.Zero,
		Currency: "INR",
	}
	if err := db.Create(&wallet).Error; err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return &wallet, nil
}

// CreditTx appends a credit entry and raises the balance inside the caller's
// transaction. The ledger row and the balance update commit or roll back together.
func CreditTx(tx *gorm.DB, agentID string, amount decimal.Decimal, referenceType string, referenceID *string, description string) (*models.WalletTransaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	wallet, err := lockWallet(tx, agentID)
	if err != nil {
		return nil, err
	}

	before := wallet.Balance
	after := before.Add(amount)

	entry := &models.WalletTransaction{
		WalletID:      wallet.ID,
		AgentID:       agentID,
		Type:          models.TransactionTypeCredit,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		Status:        models.TransactionStatusCompleted,
		Description:   description,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	if err := tx.Model(&models.Wallet{}).Where("id = ?", wallet.ID).
		Update("balance", after).Error; err != nil {
		return nil, fmt.Errorf("failed to update wallet balance: %w", err)
	}

	return entry, nil
}

// DebitTx appends a debit entry and lowers the balance inside the caller's
// transaction. Fails with ErrInsufficientFunds when the locked balance cannot
// cover the amount; in that case nothing is written.
func DebitTx(tx *gorm.DB, agentID string, amount decimal.Decimal, referenceType string, referenceID *string, description string) (*models.WalletTransaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	wallet, err := lockWallet(tx, agentID)
	if err != nil {
		return nil, err
	}

	if wallet.Balance.LessThan(amount) {
		return nil, ErrInsufficientFunds
	}

	before := wallet.Balance
	after := before.Sub(amount)

	entry := &models.WalletTransaction{
		WalletID:      wallet.ID,
		AgentID:       agentID,
		Type:          models.TransactionTypeDebit,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		Status:        models.TransactionStatusCompleted,
		Description:   description,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	if err := tx.Model(&models.Wallet{}).Where("id = ?", wallet.ID).
		Update("balance", after).Error; err != nil {
		return nil, fmt.Errorf("failed to update wallet balance: %w", err)
	}

	return entry, nil
}

// Credit credits the agent's wallet as its own atomic unit of work
func Credit(db *gorm.DB, agentID string, amount decimal.Decimal, referenceType string, referenceID *string, description string) (*models.WalletTransaction, error) {
	var entry *models.WalletTransaction
	err := db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = CreditTx(tx, agentID, amount, referenceType, referenceID, description)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Debit debits the agent's wallet as its own atomic unit of work
func Debit(db *gorm.DB, agentID string, amount decimal.Decimal, referenceType string, referenceID *string, description string) (*models.WalletTransaction, error) {
	var entry *models.WalletTransaction
	err := db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = DebitTx(tx, agentID, amount, referenceType, referenceID, description)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Recharge credits the wallet from an external payment
func Recharge(db *gorm.DB, agentID string, amount decimal.Decimal, paymentRef string) (*models.WalletTransaction, error) {
	var refID *string
	if paymentRef != "" {
		refID = &paymentRef
	}
	return Credit(db, agentID, amount, models.ReferenceRecharge, refID, "wallet recharge")
}

// GetWalletByAgent retrieves the agent's wallet
func GetWalletByAgent(db *gorm.DB, agentID string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := db.First(&wallet, "agent_id = ?", agentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

// GetTransactions retrieves the agent's ledger entries, oldest first
func GetTransactions(db *gorm.DB, agentID string) ([]models.WalletTransaction, error) {
	var entries []models.WalletTransaction
	err := db.Where("agent_id = ?", agentID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

// ReplayBalance replays the agent's ledger from zero and returns the resulting
// balance. Used for audit: the result must always equal the wallet's stored
// balance.
func ReplayBalance(db *gorm.DB, agentID string) (decimal.Decimal, error) {
	entries, err := GetTransactions(db, agentID)
	if err != nil {
		return decimal.Zero, err
	}

	balance := decimal.Zero
	for _, entry := range entries {
		if entry.Status != models.TransactionStatusCompleted {
			continue
		}
		if !balance.Equal(entry.BalanceBefore) {
			return decimal.Zero, fmt.Errorf("ledger gap for agent %s at entry %s: replayed %s, recorded before %s",
				agentID, entry.ID, balance.String(), entry.BalanceBefore.String())
		}
		if entry.IsCredit() {
			balance = balance.Add(entry.Amount)
		} else {
			balance = balance.Sub(entry.Amount)
		}
		if !balance.Equal(entry.BalanceAfter) {
			return decimal.Zero, fmt.Errorf("ledger arithmetic broken at entry %s", entry.ID)
		}
	}
	return balance, nil
}
