package models

import (
	"fmt"
	"strings"
	"time"

	"dompet/internal/money"
)

// ProjectStatus is the lifecycle of a savings project.
type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusOnGoing   ProjectStatus = "on_going"
	ProjectStatusCompleted ProjectStatus = "completed"
)

// Project is a goal-based savings sub-ledger attached to a savings category.
type Project struct {
	Base
	UserID               string        `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID           string        `gorm:"type:uuid;not null;index" json:"category_id"`
	Name                 string        `gorm:"not null" json:"name"`
	Description          string        `json:"description"`
	TargetTotalAmount    money.Amount  `gorm:"type:bigint;not null;default:0" json:"target_total_amount"`
	TargetCompletionDate *time.Time    `gorm:"type:date" json:"target_completion_date,omitempty"`
	Status               ProjectStatus `gorm:"not null;default:planning" json:"status"`
	Items                []ProjectItem `gorm:"foreignKey:ProjectID" json:"items,omitempty"`
}

// ItemType classifies what a project item is.
type ItemType string

const (
	ItemTypeGoods    ItemType = "goods"
	ItemTypeService  ItemType = "service"
	ItemTypeDocument ItemType = "document"
	ItemTypeTask     ItemType = "task"
	ItemTypeMaterial ItemType = "material"
)

// ItemStatus is the savings progress of a project item.
type ItemStatus string

const (
	ItemStatusPending    ItemStatus = "pending"
	ItemStatusInProgress ItemStatus = "in_progress"
	ItemStatusReady      ItemStatus = "ready"
	ItemStatusComplete   ItemStatus = "complete"
	ItemStatusCancelled  ItemStatus = "cancelled"
)

// ParseItemStatus accepts the stored values plus the legacy "needed" alias.
func ParseItemStatus(s string) (ItemStatus, bool) {
	switch ItemStatus(strings.ToLower(s)) {
	case "needed", ItemStatusPending:
		return ItemStatusPending, true
	case ItemStatusInProgress:
		return ItemStatusInProgress, true
	case ItemStatusReady:
		return ItemStatusReady, true
	case ItemStatusComplete:
		return ItemStatusComplete, true
	case ItemStatusCancelled:
		return ItemStatusCancelled, true
	}
	return "", false
}

// Scan normalises stored values so rows written with the legacy "needed"
// status load as pending.
func (s *ItemStatus) Scan(value any) error {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*s = ""
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ItemStatus", value)
	}
	parsed, ok := ParseItemStatus(raw)
	if !ok {
		return fmt.Errorf("unknown item status %q", raw)
	}
	*s = parsed
	return nil
}

// ProjectItem is one thing a project saves toward. ActualSpent and Status are
// derived from its payments.
type ProjectItem struct {
	Base
	ProjectID     string       `gorm:"type:uuid;not null;index" json:"project_id"`
	ItemType      ItemType     `gorm:"not null;default:goods" json:"item_type"`
	ItemCategory  string       `json:"item_category"`
	Name          string       `gorm:"not null" json:"name"`
	Description   string       `json:"description"`
	PlannedAmount money.Amount `gorm:"type:bigint;not null;default:0" json:"planned_amount"`
	ActualSpent   money.Amount `gorm:"type:bigint;not null;default:0" json:"actual_spent"`
	Status        ItemStatus   `gorm:"not null;default:pending" json:"status"`
}

// PaymentMethod records how money reached a project item.
type PaymentMethod string

const (
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodCash     PaymentMethod = "cash"
)

// ProjectPayment is a signed movement against a project item. Positive amounts
// are deposits, negative amounts are purchases or withdrawals. The linked
// transaction carries the absolute value.
type ProjectPayment struct {
	Base
	ProjectItemID string        `gorm:"type:uuid;not null;index" json:"project_item_id"`
	TransactionID *string       `gorm:"type:uuid;uniqueIndex" json:"transaction_id,omitempty"`
	Amount        money.Amount  `gorm:"type:bigint;not null" json:"amount"`
	PaymentMethod PaymentMethod `gorm:"not null;default:transfer" json:"payment_method"`
	Note          string        `json:"note"`
}

// IsDeposit reports whether the payment adds savings to its item.
func (p *ProjectPayment) IsDeposit() bool { return p.Amount > 0 }

// ItemChecklist is a to-do entry attached to a project item.
type ItemChecklist struct {
	Base
	ProjectItemID   string     `gorm:"type:uuid;not null;index" json:"project_item_id"`
	TaskDescription string     `gorm:"not null" json:"task_description"`
	IsCompleted     bool       `gorm:"not null;default:false" json:"is_completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusOnGoing, ProjectStatusCompleted:
		return true
	}
	return false
}

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeGoods, ItemTypeService, ItemTypeDocument, ItemTypeTask, ItemTypeMaterial:
		return true
	}
	return false
}

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodTransfer || m == PaymentMethodCash
}
