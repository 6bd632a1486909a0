package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "dompet/internal/errors"
	"dompet/internal/logger"
	"dompet/internal/models"
	"dompet/internal/money"
)

// projectPaymentService moves money into and out of project items. Each
// payment owns one transaction, written through the ledger engine with the
// project's savings category.
type projectPaymentService struct {
	db      *gorm.DB
	policy  AccessPolicy
	engine  *ledgerEngine
	savings savingsStateMachine
}

// NewProjectPaymentService creates a new ProjectPaymentServicer.
func NewProjectPaymentService(db *gorm.DB, policy AccessPolicy) ProjectPaymentServicer {
	return &projectPaymentService{db: db, policy: policy, engine: newLedgerEngine()}
}

func lockItem(tx *gorm.DB, itemID string) (*models.ProjectItem, error) {
	var item models.ProjectItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", itemID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrProjectItemNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &item, nil
}

func paymentMethodOrDefault(m models.PaymentMethod) (models.PaymentMethod, error) {
	if m == "" {
		return models.PaymentMethodTransfer, nil
	}
	if !m.Valid() {
		return "", apperrors.InvalidField("payment_method", "payment_method must be transfer or cash")
	}
	return m, nil
}

// CreatePayment deposits savings into an item. The deposit is recorded as a
// savings transaction on the chosen account and the item is resynced.
func (s *projectPaymentService) CreatePayment(userID, itemID string, in PaymentInput) (*models.ProjectPayment, error) {
	if in.Amount <= 0 {
		return nil, apperrors.InvalidField("amount", "amount must be greater than zero")
	}
	method, err := paymentMethodOrDefault(in.PaymentMethod)
	if err != nil {
		return nil, err
	}

	ctx, err := findItem(s.db, s.policy, userID, itemID)
	if err != nil {
		return nil, err
	}
	account, err := findAccount(s.db, s.policy, userID, in.AccountID)
	if err != nil {
		return nil, err
	}

	payment := &models.ProjectPayment{
		ProjectItemID: ctx.Item.ID,
		Amount:        in.Amount,
		PaymentMethod: method,
		Note:          strings.TrimSpace(in.Note),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		item, err := lockItem(tx, ctx.Item.ID)
		if err != nil {
			return err
		}
		if !acceptsDeposits(item.Status) {
			return apperrors.WithDetails(apperrors.ErrItemNotAcceptingDeposits,
				fmt.Sprintf("Project item is %s and no longer accepts deposits", item.Status),
				map[string]any{"status": item.Status})
		}

		txn := &models.Transaction{
			UserID:          userID,
			AccountID:       account.ID,
			CategoryID:      &ctx.Category.ID,
			Type:            models.TransactionTypeSavings,
			Amount:          in.Amount,
			TransactionDate: in.TransactionDate,
			Description:     fmt.Sprintf("Savings for %s - %s", ctx.Project.Name, item.Name),
		}
		if err := s.engine.record(tx, txn); err != nil {
			return err
		}

		payment.TransactionID = &txn.ID
		if err := tx.Create(payment).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		_, err = s.savings.resync(tx, item.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// Purchase spends an item's savings. The item must be ready with savings
// covering the planned amount; the spend is an expense transaction on the
// chosen account, so it is subject to the balance check. A zero amount
// purchases the planned amount.
func (s *projectPaymentService) Purchase(userID, itemID string, in PaymentInput) (*models.ProjectPayment, error) {
	if in.Amount < 0 {
		return nil, apperrors.InvalidField("amount", "amount must be greater than zero")
	}
	method, err := paymentMethodOrDefault(in.PaymentMethod)
	if err != nil {
		return nil, err
	}

	ctx, err := findItem(s.db, s.policy, userID, itemID)
	if err != nil {
		return nil, err
	}
	account, err := findAccount(s.db, s.policy, userID, in.AccountID)
	if err != nil {
		return nil, err
	}

	var payment *models.ProjectPayment
	err = s.db.Transaction(func(tx *gorm.DB) error {
		item, err := lockItem(tx, ctx.Item.ID)
		if err != nil {
			return err
		}
		if !readyForPurchase(item) {
			return apperrors.WithDetails(apperrors.ErrItemNotReadyForPurchase, "", map[string]any{
				"status":         item.Status,
				"actual_spent":   item.ActualSpent,
				"planned_amount": item.PlannedAmount,
			})
		}

		amount := in.Amount
		if amount == 0 {
			amount = item.PlannedAmount
		}

		txn := &models.Transaction{
			UserID:          userID,
			AccountID:       account.ID,
			CategoryID:      &ctx.Category.ID,
			Type:            models.TransactionTypeExpense,
			Amount:          amount,
			TransactionDate: in.TransactionDate,
			Description:     fmt.Sprintf("Purchase for %s - %s", ctx.Project.Name, item.Name),
		}
		if err := s.engine.record(tx, txn); err != nil {
			return err
		}

		payment = &models.ProjectPayment{
			ProjectItemID: item.ID,
			TransactionID: &txn.ID,
			Amount:        -amount,
			PaymentMethod: method,
			Note:          strings.TrimSpace(in.Note),
		}
		if err := tx.Create(payment).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		resynced, err := s.savings.resync(tx, item.ID)
		if err != nil {
			return err
		}
		logger.Get().Infow("project item purchased",
			"project_item_id", item.ID,
			"amount", amount.String(),
			"actual_spent", resynced.ActualSpent.String(),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// findPayment loads a payment reachable through an item the user can access.
func (s *projectPaymentService) findPayment(userID, paymentID string) (*models.ProjectPayment, *itemContext, error) {
	var payment models.ProjectPayment
	if err := s.db.Where("id = ?", paymentID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrPaymentNotFound
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	ctx, err := findItem(s.db, s.policy, userID, payment.ProjectItemID)
	if err != nil {
		if errors.Is(err, apperrors.ErrProjectItemNotFound) {
			return nil, nil, apperrors.ErrPaymentNotFound
		}
		return nil, nil, err
	}
	return &payment, ctx, nil
}

// linkedTransaction returns the payment's transaction, or nil when the
// payment has none or it is already gone.
func linkedTransaction(tx *gorm.DB, payment *models.ProjectPayment) (*models.Transaction, error) {
	if payment.TransactionID == nil {
		return nil, nil
	}
	t, err := lockTransaction(tx, *payment.TransactionID)
	if errors.Is(err, apperrors.ErrTransactionNotFound) {
		logger.Get().Warnw("project payment references a missing transaction",
			"project_payment_id", payment.ID,
			"transaction_id", *payment.TransactionID,
		)
		return nil, nil
	}
	return t, err
}

// UpdatePayment edits a payment and its linked transaction together. Only
// deposits can change amount; purchases are corrected by deleting them.
func (s *projectPaymentService) UpdatePayment(userID, paymentID string, in PaymentUpdate) (*models.ProjectPayment, error) {
	payment, _, err := s.findPayment(userID, paymentID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	ch := transactionChanges{TransactionDate: in.TransactionDate}

	if in.Amount != nil && *in.Amount != payment.Amount.Abs() {
		if !payment.IsDeposit() {
			return nil, apperrors.InvalidField("amount", "purchase amounts cannot be edited; delete the purchase instead")
		}
		if *in.Amount <= 0 {
			return nil, apperrors.InvalidField("amount", "amount must be greater than zero")
		}
		amount := *in.Amount
		ch.Amount = &amount
		updates["amount"] = amount
	}
	if in.PaymentMethod != nil {
		if !in.PaymentMethod.Valid() {
			return nil, apperrors.InvalidField("payment_method", "payment_method must be transfer or cash")
		}
		updates["payment_method"] = *in.PaymentMethod
	}
	if in.Note != nil {
		updates["note"] = strings.TrimSpace(*in.Note)
	}
	if in.AccountID != nil {
		account, err := findAccount(s.db, s.policy, userID, *in.AccountID)
		if err != nil {
			return nil, err
		}
		ch.AccountID = &account.ID
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		linked, err := linkedTransaction(tx, payment)
		if err != nil {
			return err
		}
		if linked != nil && (ch.Amount != nil || ch.AccountID != nil || ch.TransactionDate != nil) {
			if _, err := s.engine.amend(tx, linked, ch, true); err != nil {
				return err
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.ProjectPayment{}).Where("id = ?", payment.ID).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if _, ok := updates["amount"]; ok {
			if _, err := s.savings.resync(tx, payment.ProjectItemID); err != nil {
				return err
			}
		}
		return tx.Where("id = ?", payment.ID).First(payment).Error
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// DeletePayment removes a payment, reverses its transaction and resyncs the item.
func (s *projectPaymentService) DeletePayment(userID, paymentID string) error {
	payment, _, err := s.findPayment(userID, paymentID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.ProjectPayment{}, "id = ?", payment.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		linked, err := linkedTransaction(tx, payment)
		if err != nil {
			return err
		}
		if linked != nil {
			if err := s.engine.remove(tx, linked, true); err != nil {
				return err
			}
		}
		_, err = s.savings.resync(tx, payment.ProjectItemID)
		return err
	})
}

// ListPayments returns an item's payments with its savings summary.
func (s *projectPaymentService) ListPayments(userID, itemID string) (*ItemPayments, error) {
	ctx, err := findItem(s.db, s.policy, userID, itemID)
	if err != nil {
		return nil, err
	}

	payments := []models.ProjectPayment{}
	if err := s.db.Where("project_item_id = ?", ctx.Item.ID).
		Order("created_at ASC").
		Find(&payments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var total money.Amount
	for i := range payments {
		if payments[i].IsDeposit() {
			total += payments[i].Amount
		}
	}

	return &ItemPayments{
		Item:               ctx.Item,
		Payments:           payments,
		TotalSavings:       total,
		Remaining:          max(0, ctx.Item.PlannedAmount-total),
		SavingsProgress:    money.Percent(total, ctx.Item.PlannedAmount),
		IsReadyForPurchase: readyForPurchase(ctx.Item),
	}, nil
}
