package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "dompet/internal/errors"
	"dompet/internal/logger"
	"dompet/internal/models"
	"dompet/internal/money"
)

// transactionChanges lists the fields an update touches. Nil means unchanged;
// an empty CategoryID clears the category.
type transactionChanges struct {
	AccountID       *string
	CategoryID      *string
	Type            *models.TransactionType
	Amount          *money.Amount
	TransactionDate *time.Time
	Description     *string
}

// ledgerEngine is the single write path for transactions: guard, persist,
// then dispatch the balance effects exactly once, all inside the caller's
// database transaction.
type ledgerEngine struct {
	guard      transactionGuard
	propagator balancePropagator
	dispatcher eventDispatcher
}

func newLedgerEngine() *ledgerEngine {
	return &ledgerEngine{}
}

// record validates and inserts t, then applies its effects.
func (e *ledgerEngine) record(tx *gorm.DB, t *models.Transaction) error {
	if t.TransactionDate.IsZero() {
		t.TransactionDate = time.Now()
	}
	t.TransactionDate = models.DateOf(t.TransactionDate)
	t.Revision = 0

	if err := e.guard.validate(tx, t, guardCreate); err != nil {
		return err
	}
	if err := tx.Create(t).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return e.onCreated(tx, t)
}

// onCreated applies the effects of a newly stored transaction. Repeat calls
// for the same row are no-ops.
func (e *ledgerEngine) onCreated(tx *gorm.DB, t *models.Transaction) error {
	snapshot := effectOf(t)
	key := eventKey{EntityID: t.ID, Kind: models.EventCreated, Revision: t.Revision}
	return e.dispatcher.dispatch(tx, key, func(tx *gorm.DB) error {
		return e.propagator.propagate(tx, snapshot, apply)
	})
}

// amend applies changes to current. Balance-relevant changes bump the
// revision and are propagated as reverse(old) then apply(new). Only changes
// to account, category, type or amount pass the full guard; a date move or a
// description edit only has to clear the lock rule. linked is set by the
// project payment path, which owns locked transactions.
func (e *ledgerEngine) amend(tx *gorm.DB, current *models.Transaction, ch transactionChanges, linked bool) (*models.Transaction, error) {
	before := effectOf(current)
	next := *current

	if ch.AccountID != nil {
		next.AccountID = *ch.AccountID
	}
	if ch.CategoryID != nil {
		if *ch.CategoryID == "" {
			next.CategoryID = nil
		} else {
			id := *ch.CategoryID
			next.CategoryID = &id
		}
	}
	if ch.Type != nil {
		next.Type = *ch.Type
	}
	if ch.Amount != nil {
		next.Amount = *ch.Amount
	}
	if ch.TransactionDate != nil {
		next.TransactionDate = models.DateOf(*ch.TransactionDate)
	}
	if ch.Description != nil {
		next.Description = *ch.Description
	}

	after := effectOf(&next)
	relevant := !sameEffect(before, after)

	if relevant {
		next.Revision = current.Revision + 1
	}

	if !sameGuardFields(before, after) {
		mode := guardUpdate
		if linked {
			mode = guardLinkedUpdate
		}
		if err := e.guard.validate(tx, &next, mode); err != nil {
			return nil, err
		}
	} else if !linked {
		if err := e.guard.checkLock(tx, current.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Model(&models.Transaction{}).
		Where("id = ?", next.ID).
		Updates(map[string]any{
			"account_id":       next.AccountID,
			"category_id":      next.CategoryID,
			"type":             next.Type,
			"amount":           next.Amount,
			"transaction_date": next.TransactionDate,
			"description":      next.Description,
			"revision":         next.Revision,
		}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if relevant {
		key := eventKey{EntityID: next.ID, Kind: models.EventUpdated, Revision: next.Revision}
		err := e.dispatcher.dispatch(tx, key, func(tx *gorm.DB) error {
			if err := e.propagator.propagate(tx, before, reverse); err != nil {
				return err
			}
			return e.propagator.propagate(tx, after, apply)
		})
		if err != nil {
			return nil, err
		}
	} else {
		logger.Get().Infow("transaction update has no balance effect",
			"transaction_id", next.ID,
			"revision", next.Revision,
		)
	}

	var reloaded models.Transaction
	if err := tx.Where("id = ?", next.ID).First(&reloaded).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &reloaded, nil
}

// remove deletes t and reverses its effects. linked skips the lock rule.
func (e *ledgerEngine) remove(tx *gorm.DB, t *models.Transaction, linked bool) error {
	if !linked {
		if err := e.guard.checkLock(tx, t.ID); err != nil {
			return err
		}
	}

	if err := tx.Delete(&models.Transaction{}, "id = ?", t.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	snapshot := effectOf(t)
	key := eventKey{EntityID: t.ID, Kind: models.EventDeleted, Revision: t.Revision}
	return e.dispatcher.dispatch(tx, key, func(tx *gorm.DB) error {
		return e.propagator.propagate(tx, snapshot, reverse)
	})
}
