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

// resolveItemStatus derives an item's status from its deposits.
func resolveItemStatus(totalSavings, planned money.Amount) models.ItemStatus {
	status := models.ItemStatusPending
	if totalSavings > 0 {
		status = models.ItemStatusInProgress
	}
	if totalSavings >= planned {
		status = models.ItemStatusReady
	}
	return status
}

// acceptsDeposits reports whether new savings may be added to an item.
func acceptsDeposits(status models.ItemStatus) bool {
	switch status {
	case models.ItemStatusReady, models.ItemStatusComplete, models.ItemStatusCancelled:
		return false
	}
	return true
}

// readyForPurchase reports whether an item's savings cover its planned amount.
func readyForPurchase(item *models.ProjectItem) bool {
	return item.Status == models.ItemStatusReady && item.ActualSpent >= item.PlannedAmount
}

// savingsStateMachine keeps ProjectItem.ActualSpent and Status in line with
// the item's payments.
type savingsStateMachine struct{}

type paymentTotals struct {
	Deposits  int64
	Purchases int64
}

func (savingsStateMachine) totals(tx *gorm.DB, itemID string) (paymentTotals, error) {
	var t paymentTotals
	err := tx.Model(&models.ProjectPayment{}).
		Select("COALESCE(SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END), 0) AS deposits, "+
			"COALESCE(SUM(CASE WHEN amount < 0 THEN -amount ELSE 0 END), 0) AS purchases").
		Where("project_item_id = ?", itemID).
		Scan(&t).Error
	if err != nil {
		return t, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return t, nil
}

// resync recomputes an item from its live payments:
//
//	actual_spent = sum of deposits
//	status       = pending / in_progress / ready by deposits against planned_amount
//
// An item with a purchase is complete and keeps deposits minus purchases,
// floored at zero. A cancelled item keeps its status.
func (m savingsStateMachine) resync(tx *gorm.DB, itemID string) (*models.ProjectItem, error) {
	var item models.ProjectItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", itemID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrProjectItemNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	t, err := m.totals(tx, itemID)
	if err != nil {
		return nil, err
	}

	actual := money.Amount(t.Deposits)
	status := resolveItemStatus(actual, item.PlannedAmount)
	if t.Purchases > 0 {
		actual = max(0, money.Amount(t.Deposits-t.Purchases))
		status = models.ItemStatusComplete
	}
	if item.Status == models.ItemStatusCancelled {
		status = models.ItemStatusCancelled
	}

	if actual != item.ActualSpent || status != item.Status {
		logger.Get().Debugw("project item resynced",
			"project_item_id", item.ID,
			"actual_spent", actual.String(),
			"status", status,
			"previous_status", item.Status,
		)
	}

	if err := tx.Model(&models.ProjectItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{"actual_spent": actual, "status": status}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	item.ActualSpent = actual
	item.Status = status
	return &item, nil
}
