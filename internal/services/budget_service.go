package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "dompet/internal/errors"
	"dompet/internal/logger"
	"dompet/internal/models"
	"dompet/internal/money"
	"dompet/internal/pagination"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db     *gorm.DB
	policy AccessPolicy
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, policy AccessPolicy) BudgetServicer {
	return &budgetService{db: db, policy: policy}
}

// sumBudgetSpent totals the live expense transactions a budget period covers.
func sumBudgetSpent(db *gorm.DB, categoryID string, start, end time.Time) (money.Amount, error) {
	var spent int64
	err := db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("category_id = ? AND type = ? AND transaction_date >= ? AND transaction_date <= ?",
			categoryID, models.TransactionTypeExpense, models.DateOf(start), models.DateOf(end)).
		Scan(&spent).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return money.Amount(spent), nil
}

// checkPeriod rejects inverted periods and periods overlapping another budget
// of the same category. excludeID skips the budget being edited.
func checkPeriod(db *gorm.DB, categoryID, excludeID string, start, end time.Time) error {
	if end.Before(start) {
		return apperrors.InvalidField("period_end", "period_end must not be before period_start")
	}

	q := db.Model(&models.Budget{}).
		Select("id", "period_start", "period_end").
		Where("category_id = ? AND period_start <= ? AND period_end >= ?", categoryID, end, start)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var clash models.Budget
	err := q.First(&clash).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return apperrors.WithDetails(apperrors.ErrBudgetPeriodConflict, "", map[string]any{
		"budget_id":    clash.ID,
		"period_start": clash.PeriodStart.Format(time.DateOnly),
		"period_end":   clash.PeriodEnd.Format(time.DateOnly),
	})
}

// CreateBudget creates a budget and seeds its spent amount from the
// expenses already recorded in the period.
func (s *budgetService) CreateBudget(userID string, in BudgetInput) (*models.Budget, error) {
	if in.TargetAmount <= 0 {
		return nil, apperrors.InvalidField("target_amount", "target amount must be greater than zero")
	}
	if in.PeriodStart.IsZero() || in.PeriodEnd.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "period_start and period_end are required")
	}

	category, err := findCategory(s.db, s.policy, userID, in.CategoryID)
	if err != nil {
		return nil, err
	}

	budget := &models.Budget{
		CategoryID:   category.ID,
		PeriodStart:  models.DateOf(in.PeriodStart),
		PeriodEnd:    models.DateOf(in.PeriodEnd),
		TargetAmount: in.TargetAmount,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := checkPeriod(tx, category.ID, "", budget.PeriodStart, budget.PeriodEnd); err != nil {
			return err
		}
		spent, err := sumBudgetSpent(tx, category.ID, budget.PeriodStart, budget.PeriodEnd)
		if err != nil {
			return err
		}
		budget.SpentAmount = spent
		if err := tx.Create(budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return budget, nil
}

// GetUserBudgets returns a paginated list of budgets on accessible categories.
func (s *budgetService) GetUserBudgets(userID string, filter BudgetFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).
		Where("category_id IN (?)", accessibleCategoryIDs(s.db, s.policy, userID))
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.ActiveOn != nil {
		day := models.DateOf(*filter.ActiveOn)
		base = base.Where("period_start <= ? AND period_end >= ?", day, day)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Scopes(pagination.Paginate(page)).
		Order("period_start DESC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget whose category the user can access.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
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
	return &budget, nil
}

// UpdateBudget edits the target or the period. A period change recomputes
// spent from the transactions the new period covers.
func (s *budgetService) UpdateBudget(userID, budgetID string, in BudgetUpdate) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if in.TargetAmount != nil {
		if *in.TargetAmount <= 0 {
			return nil, apperrors.InvalidField("target_amount", "target amount must be greater than zero")
		}
		updates["target_amount"] = *in.TargetAmount
	}

	start, end := budget.PeriodStart, budget.PeriodEnd
	if in.PeriodStart != nil {
		start = models.DateOf(*in.PeriodStart)
	}
	if in.PeriodEnd != nil {
		end = models.DateOf(*in.PeriodEnd)
	}
	periodChanged := !start.Equal(models.DateOf(budget.PeriodStart)) || !end.Equal(models.DateOf(budget.PeriodEnd))

	if len(updates) == 0 && !periodChanged {
		return budget, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if periodChanged {
			if err := checkPeriod(tx, budget.CategoryID, budget.ID, start, end); err != nil {
				return err
			}
			spent, err := sumBudgetSpent(tx, budget.CategoryID, start, end)
			if err != nil {
				return err
			}
			updates["period_start"] = start
			updates["period_end"] = end
			updates["spent_amount"] = spent
			logger.Get().Infow("budget period changed, spent recomputed",
				"budget_id", budget.ID,
				"period_start", start.Format(time.DateOnly),
				"period_end", end.Format(time.DateOnly),
				"spent_amount", spent.String(),
			)
		}
		if err := tx.Model(&models.Budget{}).Where("id = ?", budget.ID).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return tx.Where("id = ?", budget.ID).First(budget).Error
	})
	if err != nil {
		return nil, err
	}

	return budget, nil
}

// DeleteBudget removes a budget. Budgets are derived views over transactions,
// so the row is hard-deleted and the period becomes free for a new budget.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Unscoped().Delete(&models.Budget{}, "id = ?", budget.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetBudgetProgress reports spent against target for a budget's period.
func (s *budgetService) GetBudgetProgress(userID, budgetID string) (*BudgetProgress, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	percentage := money.Percent(budget.SpentAmount, budget.TargetAmount)

	status := BudgetStatusSafe
	switch {
	case percentage > 100:
		status = BudgetStatusOver
	case percentage >= budgetWarningPercent:
		status = BudgetStatusWarning
	}

	return &BudgetProgress{
		BudgetID:    budget.ID,
		CategoryID:  budget.CategoryID,
		PeriodStart: budget.PeriodStart,
		PeriodEnd:   budget.PeriodEnd,
		Target:      budget.TargetAmount,
		Spent:       budget.SpentAmount,
		Remaining:   budget.TargetAmount - budget.SpentAmount,
		Percentage:  percentage,
		Status:      status,
	}, nil
}
