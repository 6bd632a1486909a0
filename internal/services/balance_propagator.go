package services

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "dompet/internal/errors"
	"dompet/internal/logger"
	"dompet/internal/models"
	"dompet/internal/money"
)

// direction selects whether a ledger effect is added or taken back.
type direction int64

const (
	apply   direction = 1
	reverse direction = -1
)

func (d direction) String() string {
	if d == reverse {
		return "reverse"
	}
	return "apply"
}

// ledgerEffect is the balance-relevant snapshot of a transaction. Reversals
// always run against the snapshot taken before a change, never the new row.
type ledgerEffect struct {
	TransactionID string
	AccountID     string
	CategoryID    *string
	Type          models.TransactionType
	Amount        money.Amount
	Date          time.Time
}

func effectOf(t *models.Transaction) ledgerEffect {
	var categoryID *string
	if t.CategoryID != nil {
		id := *t.CategoryID
		categoryID = &id
	}
	return ledgerEffect{
		TransactionID: t.ID,
		AccountID:     t.AccountID,
		CategoryID:    categoryID,
		Type:          t.Type,
		Amount:        t.Amount,
		Date:          models.DateOf(t.TransactionDate),
	}
}

// sameGuardFields reports whether two snapshots agree on the fields the
// transaction guard checks. The date is not one of them.
func sameGuardFields(a, b ledgerEffect) bool {
	if a.AccountID != b.AccountID || a.Type != b.Type || a.Amount != b.Amount {
		return false
	}
	if (a.CategoryID == nil) != (b.CategoryID == nil) {
		return false
	}
	return a.CategoryID == nil || *a.CategoryID == *b.CategoryID
}

// sameEffect reports whether two snapshots move balances identically.
func sameEffect(a, b ledgerEffect) bool {
	return sameGuardFields(a, b) && a.Date.Equal(b.Date)
}

// accountDelta is the signed change an applied effect makes to its account.
func accountDelta(t models.TransactionType, amount money.Amount) money.Amount {
	if t == models.TransactionTypeExpense {
		return -amount
	}
	return amount
}

// balancePropagator turns transaction effects into account balance and budget
// spent updates. All writes are single-statement increments.
type balancePropagator struct{}

func (p balancePropagator) propagate(tx *gorm.DB, e ledgerEffect, dir direction) error {
	delta := accountDelta(e.Type, e.Amount) * money.Amount(dir)

	res := tx.Model(&models.Account{}).
		Where("id = ?", e.AccountID).
		UpdateColumn("current_balance", gorm.Expr("current_balance + ?", int64(delta)))
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrAccountNotFound
	}

	if e.Type == models.TransactionTypeExpense && e.CategoryID != nil {
		return p.propagateBudget(tx, e, dir)
	}
	return nil
}

func (p balancePropagator) propagateBudget(tx *gorm.DB, e ledgerEffect, dir direction) error {
	var budget models.Budget
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("category_id = ? AND period_start <= ? AND period_end >= ?", *e.CategoryID, e.Date, e.Date).
		Order("period_start DESC").
		First(&budget).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Get().Debugw("no active budget for expense",
			"transaction_id", e.TransactionID,
			"category_id", *e.CategoryID,
			"date", e.Date.Format(time.DateOnly),
		)
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	delta := int64(e.Amount) * int64(dir)
	if err := tx.Model(&models.Budget{}).
		Where("id = ?", budget.ID).
		UpdateColumn("spent_amount", gorm.Expr("spent_amount + ?", delta)).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if dir == apply {
		return nil
	}

	var spent int64
	if err := tx.Model(&models.Budget{}).
		Where("id = ?", budget.ID).
		Select("spent_amount").
		Scan(&spent).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if spent >= 0 {
		return nil
	}

	logger.Get().Warnw("consistency_violation: budget spent below zero after reversal",
		"budget_id", budget.ID,
		"transaction_id", e.TransactionID,
		"spent_amount", money.Amount(spent).String(),
	)
	if err := tx.Model(&models.Budget{}).
		Where("id = ?", budget.ID).
		UpdateColumn("spent_amount", 0).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
