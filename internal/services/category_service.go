package services

import (
	"strings"

	"gorm.io/gorm"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
	"dompet/internal/pagination"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db     *gorm.DB
	policy AccessPolicy
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB, policy AccessPolicy) CategoryServicer {
	return &categoryService{db: db, policy: policy}
}

func validBudgetType(t models.BudgetType) bool {
	switch t {
	case models.BudgetTypeIncome, models.BudgetTypeExpense, models.BudgetTypeSavings:
		return true
	}
	return false
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(userID string, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.InvalidField("name", "category name is required")
	}
	if !validBudgetType(in.BudgetType) {
		return nil, apperrors.InvalidField("budget_type", "budget_type must be income, expense or savings")
	}
	if in.Kind == "" {
		in.Kind = models.OwnershipPersonal
	}

	// Check if a category with the same name already exists for this user
	var count int64
	if err := s.db.Model(&models.Category{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateCategory
	}

	category := &models.Category{
		UserID:      userID,
		Name:        name,
		Kind:        in.Kind,
		BudgetType:  in.BudgetType,
		Description: in.Description,
		IsActive:    true,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// GetUserCategories retrieves a paginated list of categories the user can
// access, optionally narrowed to one budget type.
func (s *categoryService) GetUserCategories(userID string, budgetType *models.BudgetType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Category{}).Scopes(s.policy.Scope(userID))
	if budgetType != nil {
		base = base.Where("budget_type = ?", *budgetType)
	}
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Scopes(pagination.Paginate(page)).
		Order("name ASC").
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryByID retrieves a category the user can access.
func (s *categoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	return findCategory(s.db, s.policy, userID, categoryID)
}

// categoryReferences counts the records that pin a category's classification.
func (s *categoryService) categoryReferences(db *gorm.DB, categoryID string) (map[string]any, error) {
	var budgets, transactions, projects int64
	if err := db.Model(&models.Budget{}).Where("category_id = ?", categoryID).Count(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := db.Model(&models.Transaction{}).Where("category_id = ?", categoryID).Count(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := db.Model(&models.Project{}).Where("category_id = ?", categoryID).Count(&projects).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if budgets+transactions+projects == 0 {
		return nil, nil
	}
	return map[string]any{
		"budgets":      budgets,
		"transactions": transactions,
		"projects":     projects,
	}, nil
}

// UpdateCategory updates an existing category. Kind and budget type are
// frozen once anything references the category.
func (s *categoryService) UpdateCategory(userID, categoryID string, in CategoryUpdate) (*models.Category, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.InvalidField("name", "category name cannot be empty")
		}
		if name != category.Name {
			var count int64
			if err := s.db.Model(&models.Category{}).
				Where("user_id = ? AND name = ? AND id <> ?", category.UserID, name, category.ID).
				Count(&count).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if count > 0 {
				return nil, apperrors.ErrDuplicateCategory
			}
			updates["name"] = name
		}
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}

	reclassified := false
	if in.Kind != nil && *in.Kind != category.Kind {
		updates["kind"] = *in.Kind
		reclassified = true
	}
	if in.BudgetType != nil && *in.BudgetType != category.BudgetType {
		if !validBudgetType(*in.BudgetType) {
			return nil, apperrors.InvalidField("budget_type", "budget_type must be income, expense or savings")
		}
		updates["budget_type"] = *in.BudgetType
		reclassified = true
	}

	if len(updates) == 0 {
		return category, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if reclassified {
			refs, err := s.categoryReferences(tx, category.ID)
			if err != nil {
				return err
			}
			if refs != nil {
				return apperrors.WithDetails(apperrors.ErrCategoryInUse,
					"Category kind and budget type cannot change while it is referenced", refs)
			}
		}
		if err := tx.Model(&models.Category{}).Where("id = ?", category.ID).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return tx.Where("id = ?", category.ID).First(category).Error
	})
	if err != nil {
		return nil, err
	}

	return category, nil
}

// DeleteCategory soft-deletes a category nothing references.
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		refs, err := s.categoryReferences(tx, category.ID)
		if err != nil {
			return err
		}
		if refs != nil {
			return apperrors.WithDetails(apperrors.ErrCategoryInUse, "", refs)
		}
		if err := tx.Delete(&models.Category{}, "id = ?", category.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
