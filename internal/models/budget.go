package models

import (
	"time"

	"dompet/internal/money"
)

// Budget is a spending target for one category over an inclusive date range.
// SpentAmount is derived from expense transactions by the ledger engine.
type Budget struct {
	Base
	CategoryID   string       `gorm:"type:uuid;not null;uniqueIndex:idx_budgets_category_period" json:"category_id"`
	PeriodStart  time.Time    `gorm:"type:date;not null;uniqueIndex:idx_budgets_category_period" json:"period_start"`
	PeriodEnd    time.Time    `gorm:"type:date;not null" json:"period_end"`
	TargetAmount money.Amount `gorm:"type:bigint;not null" json:"target_amount"`
	SpentAmount  money.Amount `gorm:"type:bigint;not null;default:0" json:"spent_amount"`
}

// Covers reports whether date falls inside the budget period.
func (b *Budget) Covers(date time.Time) bool {
	d := DateOf(date)
	return !d.Before(DateOf(b.PeriodStart)) && !d.After(DateOf(b.PeriodEnd))
}
