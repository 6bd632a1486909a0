package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
)

// guardMode selects which rules apply.
type guardMode int

const (
	guardCreate guardMode = iota
	guardUpdate
	// guardLinkedUpdate is used by the project payment path, which owns the
	// linked transaction and so skips the lock rule.
	guardLinkedUpdate
)

// transactionGuard validates a transaction before it is written. It never writes.
type transactionGuard struct{}

// validate checks, in order: positive amount, sufficient balance for
// expenses, and for plain updates that no project payment holds the row.
// The balance rule compares against the stored balance before any reversal.
func (g transactionGuard) validate(tx *gorm.DB, t *models.Transaction, mode guardMode) error {
	if t.Amount <= 0 {
		return apperrors.InvalidField("amount", "amount must be greater than zero")
	}
	if !t.Type.Valid() {
		return apperrors.InvalidField("type", fmt.Sprintf("unsupported transaction type %q", t.Type))
	}

	if t.Type == models.TransactionTypeExpense {
		var account models.Account
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "current_balance").
			Where("id = ?", t.AccountID).
			First(&account).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrAccountNotFound
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if account.CurrentBalance < t.Amount {
			shortage := t.Amount - account.CurrentBalance
			return apperrors.WithDetails(apperrors.ErrInsufficientBalance,
				fmt.Sprintf("Insufficient balance: available %s, required %s, short by %s",
					account.CurrentBalance, t.Amount, shortage),
				map[string]any{
					"available": account.CurrentBalance,
					"required":  t.Amount,
					"shortage":  shortage,
				})
		}
	}

	if mode == guardUpdate && t.ID != "" {
		return g.checkLock(tx, t.ID)
	}
	return nil
}

// checkLock fails with TRANSACTION_LOCKED when a project payment references
// the transaction. The error names the project's category.
func (transactionGuard) checkLock(tx *gorm.DB, transactionID string) error {
	var payment models.ProjectPayment
	err := tx.Select("id", "project_item_id").
		Where("transaction_id = ?", transactionID).
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categoryName string
	if err := tx.Table("project_items").
		Select("categories.name").
		Joins("JOIN projects ON projects.id = project_items.project_id").
		Joins("JOIN categories ON categories.id = projects.category_id").
		Where("project_items.id = ?", payment.ProjectItemID).
		Limit(1).
		Scan(&categoryName).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return apperrors.WithDetails(apperrors.ErrTransactionLocked,
		fmt.Sprintf("Transaction belongs to a payment in project category %q; change it from the project instead", categoryName),
		map[string]any{
			"category_name":      categoryName,
			"project_payment_id": payment.ID,
		})
}
