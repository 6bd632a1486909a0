package services

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "dompet/internal/errors"
	"dompet/internal/logger"
	"dompet/internal/models"
)

// eventKey identifies one application of a transaction's side effects.
type eventKey struct {
	EntityID string
	Kind     models.EventKind
	Revision int
}

// eventDispatcher runs side effects at most once per eventKey. The marker row
// and the effects share the caller's database transaction, so a rollback
// forgets both.
type eventDispatcher struct{}

func (eventDispatcher) dispatch(tx *gorm.DB, key eventKey, effect func(tx *gorm.DB) error) error {
	marker := &models.LedgerEvent{
		EntityID:  key.EntityID,
		EventKind: key.Kind,
		Revision:  key.Revision,
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(marker)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		logger.Get().Warnw("ledger event already applied, skipping",
			"entity_id", key.EntityID,
			"event_kind", key.Kind,
			"revision", key.Revision,
		)
		return nil
	}
	return effect(tx)
}

