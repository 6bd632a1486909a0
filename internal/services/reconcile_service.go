package services

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "dompet/internal/errors"
	"dompet/internal/logger"
	"dompet/internal/models"
	"dompet/internal/money"
)

const (
	entityAccount     = "account"
	entityBudget      = "budget"
	entityProjectItem = "project_item"
)

// reconcileService recomputes derived amounts from their source records.
// Drift means the ledger missed or doubled an effect; it is logged and
// overwritten with the computed value.
type reconcileService struct {
	db      *gorm.DB
	policy  AccessPolicy
	savings savingsStateMachine
}

// NewReconcileService creates a new ReconcileServicer.
func NewReconcileService(db *gorm.DB, policy AccessPolicy) ReconcileServicer {
	return &reconcileService{db: db, policy: policy}
}

// computeAccountBalance sums an account's live transactions.
func computeAccountBalance(db *gorm.DB, accountID string) (money.Amount, error) {
	var balance int64
	err := db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN -amount ELSE amount END), 0)", models.TransactionTypeExpense).
		Where("account_id = ?", accountID).
		Scan(&balance).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return money.Amount(balance), nil
}

func newResult(entityType, id string, stored, computed money.Amount) *ReconcileResult {
	return &ReconcileResult{
		EntityType: entityType,
		EntityID:   id,
		Stored:     stored,
		Computed:   computed,
		Drift:      stored - computed,
	}
}

func logDrift(r *ReconcileResult) {
	logger.Get().Warnw("consistency_violation: derived amount drifted, corrected",
		"entity_type", r.EntityType,
		"entity_id", r.EntityID,
		"stored", r.Stored.String(),
		"computed", r.Computed.String(),
		"drift", r.Drift.String(),
	)
}

func (s *reconcileService) reconcileAccount(tx *gorm.DB, accountID string) (*ReconcileResult, error) {
	var account models.Account
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "current_balance").
		Where("id = ?", accountID).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrAccountNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	computed, err := computeAccountBalance(tx, account.ID)
	if err != nil {
		return nil, err
	}
	result := newResult(entityAccount, account.ID, account.CurrentBalance, computed)
	if result.Drift == 0 {
		return result, nil
	}

	if err := tx.Model(&models.Account{}).
		Where("id = ?", account.ID).
		UpdateColumn("current_balance", computed).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	result.Corrected = true
	logDrift(result)
	return result, nil
}

func (s *reconcileService) reconcileBudget(tx *gorm.DB, budgetID string) (*ReconcileResult, error) {
	var budget models.Budget
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", budgetID).First(&budget).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrBudgetNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	computed, err := sumBudgetSpent(tx, budget.CategoryID, budget.PeriodStart, budget.PeriodEnd)
	if err != nil {
		return nil, err
	}
	result := newResult(entityBudget, budget.ID, budget.SpentAmount, computed)
	if result.Drift == 0 {
		return result, nil
	}

	if err := tx.Model(&models.Budget{}).
		Where("id = ?", budget.ID).
		UpdateColumn("spent_amount", computed).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	result.Corrected = true
	logDrift(result)
	return result, nil
}

func (s *reconcileService) reconcileItem(tx *gorm.DB, item models.ProjectItem) (*ReconcileResult, error) {
	resynced, err := s.savings.resync(tx, item.ID)
	if err != nil {
		return nil, err
	}
	result := newResult(entityProjectItem, item.ID, item.ActualSpent, resynced.ActualSpent)
	if result.Drift != 0 || resynced.Status != item.Status {
		result.Corrected = true
		logDrift(result)
	}
	return result, nil
}

// ReconcileAccount checks one account the user can access.
func (s *reconcileService) ReconcileAccount(userID, accountID string) (*ReconcileResult, error) {
	account, err := findAccount(s.db, s.policy, userID, accountID)
	if err != nil {
		return nil, err
	}

	var result *ReconcileResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.reconcileAccount(tx, account.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReconcileBudget checks one budget whose category the user can access.
func (s *reconcileService) ReconcileBudget(userID, budgetID string) (*ReconcileResult, error) {
	var budget models.Budget
	if err := s.db.Where("id = ?", budgetID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if _, err := findCategory(s.db, s.policy, userID, budget.CategoryID); err != nil {
		if errors.Is(err, apperrors.ErrCategoryNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, err
	}

	var result *ReconcileResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.reconcileBudget(tx, budget.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReconcileAll checks every account, budget and project item. Each entity is
// its own unit of work so one failure does not undo earlier corrections.
func (s *reconcileService) ReconcileAll() (*ReconcileSummary, error) {
	summary := &ReconcileSummary{Drifted: []ReconcileResult{}}
	record := func(r *ReconcileResult) {
		summary.Checked++
		if r.Corrected {
			summary.Drifted = append(summary.Drifted, *r)
		}
	}

	var accountIDs []string
	if err := s.db.Model(&models.Account{}).Order("id").Pluck("id", &accountIDs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, id := range accountIDs {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			r, err := s.reconcileAccount(tx, id)
			if err != nil {
				return err
			}
			record(r)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	var budgetIDs []string
	if err := s.db.Model(&models.Budget{}).Order("id").Pluck("id", &budgetIDs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, id := range budgetIDs {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			r, err := s.reconcileBudget(tx, id)
			if err != nil {
				return err
			}
			record(r)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	var items []models.ProjectItem
	if err := s.db.Order("id").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, item := range items {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			r, err := s.reconcileItem(tx, item)
			if err != nil {
				return err
			}
			record(r)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	logger.Get().Infow("reconciliation finished",
		"checked", summary.Checked,
		"drifted", len(summary.Drifted),
	)
	return summary, nil
}
