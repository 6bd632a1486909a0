package models

import "dompet/internal/money"

// Account is a balance-holding container. CurrentBalance is maintained by the
// ledger engine and is never written from client input.
type Account struct {
	Base
	UserID         string       `gorm:"type:uuid;not null;index" json:"user_id"`
	Name           string       `gorm:"not null" json:"name"`
	Kind           Ownership    `gorm:"not null;default:personal" json:"kind"`
	Description    string       `json:"description"`
	CurrentBalance money.Amount `gorm:"type:bigint;not null;default:0" json:"current_balance"`
	IsActive       bool         `gorm:"default:true" json:"is_active"`
}

func (a *Account) OwnerID() string          { return a.UserID }
func (a *Account) OwnershipKind() Ownership { return a.Kind }
