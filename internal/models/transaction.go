package models

import (
	"time"

	"dompet/internal/money"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
	TransactionTypeSavings TransactionType = "savings"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeSavings:
		return true
	}
	return false
}

// Transaction is a single ledger movement against one account.
// Revision increases on every balance-relevant edit and keys the
// idempotency ledger together with the event kind.
type Transaction struct {
	Base
	UserID          string          `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID       string          `gorm:"type:uuid;not null;index" json:"account_id"`
	CategoryID      *string         `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Type            TransactionType `gorm:"not null" json:"type"`
	Amount          money.Amount    `gorm:"type:bigint;not null" json:"amount"`
	TransactionDate time.Time       `gorm:"type:date;not null;index" json:"transaction_date"`
	Description     string          `json:"description"`
	Revision        int             `gorm:"not null;default:0" json:"revision"`
}
