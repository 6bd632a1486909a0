package models

import (
	"time"

	"dompet/internal/uuid"

	"gorm.io/gorm"
)

// EventKind names a transaction lifecycle step whose side effects are applied once.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// LedgerEvent marks that the side effects of (EntityID, EventKind, Revision)
// have been applied. Rows are written in the same database transaction as the
// effects and are never updated or soft-deleted.
type LedgerEvent struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	EntityID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_events_key" json:"entity_id"`
	EventKind EventKind `gorm:"not null;uniqueIndex:idx_ledger_events_key" json:"event_kind"`
	Revision  int       `gorm:"not null;uniqueIndex:idx_ledger_events_key" json:"revision"`
	AppliedAt time.Time `gorm:"not null" json:"applied_at"`
}

// BeforeCreate fills the id and timestamp.
func (e *LedgerEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New()
	}
	if e.AppliedAt.IsZero() {
		e.AppliedAt = time.Now().UTC()
	}
	return nil
}
