package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"dompet/internal/models"
	"dompet/internal/money"
	"dompet/internal/uuid"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestFamily puts the given users in one new family and returns its id.
func CreateTestFamily(t *testing.T, db *gorm.DB, users ...*models.User) string {
	t.Helper()

	familyID := uuid.New()
	for _, u := range users {
		if err := db.Model(&models.User{}).Where("id = ?", u.ID).Update("family_id", familyID).Error; err != nil {
			t.Fatalf("failed to join test family: %v", err)
		}
		u.FamilyID = &familyID
	}
	return familyID
}

// CreateTestAccount creates a personal account with zero balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()
	return createAccount(t, db, userID, models.OwnershipPersonal, 0)
}

// CreateTestJointAccount creates a joint account with the given balance.
func CreateTestJointAccount(t *testing.T, db *gorm.DB, userID string, balance money.Amount) *models.Account {
	t.Helper()
	return createAccount(t, db, userID, models.OwnershipJoint, balance)
}

// CreateTestAccountWithBalance creates a personal account holding balance.
// The balance is backed by an applied opening income transaction, so the
// account reconciles cleanly.
func CreateTestAccountWithBalance(t *testing.T, db *gorm.DB, userID string, balance money.Amount) *models.Account {
	t.Helper()
	return createAccount(t, db, userID, models.OwnershipPersonal, balance)
}

func createAccount(t *testing.T, db *gorm.DB, userID string, kind models.Ownership, balance money.Amount) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:         userID,
		Name:           fmt.Sprintf("Test Account %d", nextID()),
		Kind:           kind,
		CurrentBalance: balance,
		IsActive:       true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	if balance == 0 {
		return account
	}

	opening := &models.Transaction{
		UserID:          userID,
		AccountID:       account.ID,
		Type:            models.TransactionTypeIncome,
		Amount:          balance,
		TransactionDate: models.DateOf(time.Now()),
		Description:     "Opening balance",
	}
	if err := db.Create(opening).Error; err != nil {
		t.Fatalf("failed to create opening transaction: %v", err)
	}
	marker := &models.LedgerEvent{EntityID: opening.ID, EventKind: models.EventCreated}
	if err := db.Create(marker).Error; err != nil {
		t.Fatalf("failed to mark opening transaction: %v", err)
	}
	return account
}

// CreateTestCategory creates a personal category of the given budget type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, budgetType models.BudgetType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID:     userID,
		Name:       fmt.Sprintf("Test Category %d", nextID()),
		Kind:       models.OwnershipPersonal,
		BudgetType: budgetType,
		IsActive:   true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestBudget creates a budget with zero spent over [start, end].
func CreateTestBudget(t *testing.T, db *gorm.DB, categoryID string, start, end time.Time, target money.Amount) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		CategoryID:   categoryID,
		PeriodStart:  models.DateOf(start),
		PeriodEnd:    models.DateOf(end),
		TargetAmount: target,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestProject creates a planning project on the given category.
func CreateTestProject(t *testing.T, db *gorm.DB, userID, categoryID string) *models.Project {
	t.Helper()

	project := &models.Project{
		UserID:     userID,
		CategoryID: categoryID,
		Name:       fmt.Sprintf("Test Project %d", nextID()),
		Status:     models.ProjectStatusPlanning,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}
	return project
}

// CreateTestProjectItem creates a pending goods item with the given plan.
func CreateTestProjectItem(t *testing.T, db *gorm.DB, projectID string, planned money.Amount) *models.ProjectItem {
	t.Helper()

	item := &models.ProjectItem{
		ProjectID:     projectID,
		ItemType:      models.ItemTypeGoods,
		Name:          fmt.Sprintf("Test Item %d", nextID()),
		PlannedAmount: planned,
		Status:        models.ItemStatusPending,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test project item: %v", err)
	}
	return item
}

// Date returns a UTC calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
