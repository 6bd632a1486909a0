package models

// BudgetType classifies the money flow a category tracks.
type BudgetType string

const (
	BudgetTypeIncome  BudgetType = "income"
	BudgetTypeExpense BudgetType = "expense"
	BudgetTypeSavings BudgetType = "savings"
)

// Category labels transactions and scopes budgets and projects.
type Category struct {
	Base
	UserID      string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string     `gorm:"not null" json:"name"`
	Kind        Ownership  `gorm:"not null;default:personal" json:"kind"`
	BudgetType  BudgetType `gorm:"not null" json:"budget_type"`
	Description string     `json:"description"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
}

func (c *Category) OwnerID() string          { return c.UserID }
func (c *Category) OwnershipKind() Ownership { return c.Kind }
