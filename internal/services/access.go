package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
)

// AccessPolicy decides whether a user may act on an owned entity.
type AccessPolicy interface {
	IsAccessibleBy(db *gorm.DB, entity models.Owned, userID string) (bool, error)
	// Scope restricts a query on a table with user_id and kind columns to
	// rows the user may access.
	Scope(userID string) func(*gorm.DB) *gorm.DB
}

// familyAccessPolicy grants access to the owner, and to members of the owner's
// family when the entity is joint.
type familyAccessPolicy struct{}

// NewFamilyAccessPolicy creates the default AccessPolicy.
func NewFamilyAccessPolicy() AccessPolicy {
	return familyAccessPolicy{}
}

func (familyAccessPolicy) IsAccessibleBy(db *gorm.DB, entity models.Owned, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	if entity.OwnerID() == userID {
		return true, nil
	}
	if entity.OwnershipKind() != models.OwnershipJoint {
		return false, nil
	}

	var members []models.User
	if err := db.Select("id", "family_id").
		Where("id IN ?", []string{userID, entity.OwnerID()}).
		Find(&members).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(members) != 2 {
		return false, nil
	}
	a, b := members[0].FamilyID, members[1].FamilyID
	return a != nil && b != nil && *a == *b, nil
}

func (familyAccessPolicy) Scope(userID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		userFamily := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.User{}).Select("family_id").Where("id = ?", userID)
		familyMembers := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.User{}).Select("id").
			Where("family_id IS NOT NULL AND family_id IN (?)", userFamily)
		return db.Where("user_id = ? OR (kind = ? AND user_id IN (?))",
			userID, models.OwnershipJoint, familyMembers)
	}
}

// accessibleAccountIDs is a subquery of every account id the user may access.
func accessibleAccountIDs(db *gorm.DB, policy AccessPolicy, userID string) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Account{}).Select("id").Scopes(policy.Scope(userID))
}

// accessibleCategoryIDs is a subquery of every category id the user may access.
func accessibleCategoryIDs(db *gorm.DB, policy AccessPolicy, userID string) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Category{}).Select("id").Scopes(policy.Scope(userID))
}

// findAccount loads an account the user may access. Missing and inaccessible
// accounts are both reported as ACCOUNT_NOT_FOUND.
func findAccount(db *gorm.DB, policy AccessPolicy, userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := db.Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	ok, err := policy.IsAccessibleBy(db, &account, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrAccountNotFound
	}
	return &account, nil
}

// findCategory loads a category the user may access.
func findCategory(db *gorm.DB, policy AccessPolicy, userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := db.Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	ok, err := policy.IsAccessibleBy(db, &category, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrCategoryNotFound
	}
	return &category, nil
}

// itemContext is a project item together with the records that decide access to it.
type itemContext struct {
	Item     *models.ProjectItem
	Project  *models.Project
	Category *models.Category
}

// findProject loads a project whose category the user may access.
func findProject(db *gorm.DB, policy AccessPolicy, userID, projectID string) (*models.Project, *models.Category, error) {
	var project models.Project
	if err := db.Where("id = ?", projectID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrProjectNotFound
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	category, err := findCategory(db, policy, userID, project.CategoryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrCategoryNotFound) {
			return nil, nil, apperrors.ErrProjectNotFound
		}
		return nil, nil, err
	}
	return &project, category, nil
}

// findItem loads a project item through its project and category.
func findItem(db *gorm.DB, policy AccessPolicy, userID, itemID string) (*itemContext, error) {
	var item models.ProjectItem
	if err := db.Where("id = ?", itemID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProjectItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	project, category, err := findProject(db, policy, userID, item.ProjectID)
	if err != nil {
		if errors.Is(err, apperrors.ErrProjectNotFound) {
			return nil, apperrors.ErrProjectItemNotFound
		}
		return nil, err
	}
	return &itemContext{Item: &item, Project: project, Category: category}, nil
}
