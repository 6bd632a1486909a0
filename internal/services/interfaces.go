package services

import (
	"time"

	"dompet/internal/models"
	"dompet/internal/money"
	"dompet/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	JoinFamily(userID, partnerEmail string) (*models.User, error)
}

// AccountInput holds the fields accepted when opening an account.
type AccountInput struct {
	Name           string
	Kind           models.Ownership
	Description    string
	OpeningBalance money.Amount
	OpeningDate    time.Time
}

// AccountUpdate lists editable account fields. Nil means unchanged.
// The balance is deliberately absent.
type AccountUpdate struct {
	Name        *string
	Description *string
	Kind        *models.Ownership
	IsActive    *bool
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID string, in AccountInput) (*models.Account, error)
	GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	UpdateAccount(userID, accountID string, in AccountUpdate) (*models.Account, error)
	DeleteAccount(userID, accountID string) error
}

// CategoryInput holds the fields accepted when creating a category.
type CategoryInput struct {
	Name        string
	Kind        models.Ownership
	BudgetType  models.BudgetType
	Description string
}

// CategoryUpdate lists editable category fields. Nil means unchanged.
type CategoryUpdate struct {
	Name        *string
	Description *string
	Kind        *models.Ownership
	BudgetType  *models.BudgetType
	IsActive    *bool
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID string, in CategoryInput) (*models.Category, error)
	GetUserCategories(userID string, budgetType *models.BudgetType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID string, in CategoryUpdate) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// TransactionInput holds the fields accepted when recording a transaction.
type TransactionInput struct {
	AccountID       string
	CategoryID      *string
	Type            models.TransactionType
	Amount          money.Amount
	TransactionDate time.Time
	Description     string
}

// TransactionUpdate lists editable transaction fields. Nil means unchanged;
// a CategoryID pointing at "" clears the category.
type TransactionUpdate struct {
	AccountID       *string
	CategoryID      *string
	Type            *models.TransactionType
	Amount          *money.Amount
	TransactionDate *time.Time
	Description     *string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
	MinAmount  *money.Amount
	MaxAmount  *money.Amount
	AccountID  *string
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID string, in TransactionInput) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, in TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
}

// BudgetInput holds the fields accepted when creating a budget.
type BudgetInput struct {
	CategoryID   string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	TargetAmount money.Amount
}

// BudgetUpdate lists editable budget fields. Nil means unchanged.
type BudgetUpdate struct {
	PeriodStart  *time.Time
	PeriodEnd    *time.Time
	TargetAmount *money.Amount
}

// BudgetFilter narrows budget listings.
type BudgetFilter struct {
	CategoryID *string
	ActiveOn   *time.Time
}

// Budget progress thresholds, in percent of the target.
const (
	BudgetStatusSafe    = "safe"
	BudgetStatusWarning = "warning"
	BudgetStatusOver    = "over"

	budgetWarningPercent = 80
)

// BudgetProgress contains spending vs target for one budget.
type BudgetProgress struct {
	BudgetID    string       `json:"budget_id"`
	CategoryID  string       `json:"category_id"`
	PeriodStart time.Time    `json:"period_start"`
	PeriodEnd   time.Time    `json:"period_end"`
	Target      money.Amount `json:"target_amount"`
	Spent       money.Amount `json:"spent_amount"`
	Remaining   money.Amount `json:"remaining"`
	Percentage  float64      `json:"percentage"`
	Status      string       `json:"status"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID string, in BudgetInput) (*models.Budget, error)
	GetUserBudgets(userID string, filter BudgetFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, in BudgetUpdate) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	GetBudgetProgress(userID, budgetID string) (*BudgetProgress, error)
}

// ProjectInput holds the fields accepted when creating a project.
type ProjectInput struct {
	CategoryID           string
	Name                 string
	Description          string
	TargetTotalAmount    money.Amount
	TargetCompletionDate *time.Time
}

// ProjectUpdate lists editable project fields. Nil means unchanged.
type ProjectUpdate struct {
	Name                 *string
	Description          *string
	TargetTotalAmount    *money.Amount
	TargetCompletionDate *time.Time
	Status               *models.ProjectStatus
}

// ItemInput holds the fields accepted when adding an item to a project.
type ItemInput struct {
	ItemType      models.ItemType
	ItemCategory  string
	Name          string
	Description   string
	PlannedAmount money.Amount
}

// ItemUpdate lists editable item fields. Nil means unchanged. Status and
// actual spent are derived and cannot be set here.
type ItemUpdate struct {
	ItemType      *models.ItemType
	ItemCategory  *string
	Name          *string
	Description   *string
	PlannedAmount *money.Amount
}

// ProjectServicer defines the contract for projects, their items and checklists.
type ProjectServicer interface {
	CreateProject(userID string, in ProjectInput) (*models.Project, error)
	GetProject(userID, projectID string) (*models.Project, error)
	GetUserProjects(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Project], error)
	UpdateProject(userID, projectID string, in ProjectUpdate) (*models.Project, error)

	CreateItem(userID, projectID string, in ItemInput) (*models.ProjectItem, error)
	GetItem(userID, itemID string) (*models.ProjectItem, error)
	UpdateItem(userID, itemID string, in ItemUpdate) (*models.ProjectItem, error)
	CancelItem(userID, itemID string) (*models.ProjectItem, error)
	DeleteItem(userID, itemID string) error

	AddChecklistTask(userID, itemID, description string) (*models.ItemChecklist, error)
	GetChecklist(userID, itemID string) ([]models.ItemChecklist, error)
	SetChecklistTaskCompleted(userID, taskID string, completed bool) (*models.ItemChecklist, error)
	DeleteChecklistTask(userID, taskID string) error
}

// PaymentInput holds the fields accepted for a deposit or a purchase.
type PaymentInput struct {
	AccountID       string
	Amount          money.Amount
	PaymentMethod   models.PaymentMethod
	Note            string
	TransactionDate time.Time
}

// PaymentUpdate lists editable payment fields. Nil means unchanged.
type PaymentUpdate struct {
	AccountID       *string
	Amount          *money.Amount
	PaymentMethod   *models.PaymentMethod
	Note            *string
	TransactionDate *time.Time
}

// ItemPayments is an item's payment history with its savings summary.
type ItemPayments struct {
	Item               *models.ProjectItem     `json:"item"`
	Payments           []models.ProjectPayment `json:"payments"`
	TotalSavings       money.Amount            `json:"total_savings"`
	Remaining          money.Amount            `json:"remaining"`
	SavingsProgress    float64                 `json:"savings_progress"`
	IsReadyForPurchase bool                    `json:"is_ready_for_purchase"`
}

// ProjectPaymentServicer defines the contract for money moving into and out
// of project items.
type ProjectPaymentServicer interface {
	CreatePayment(userID, itemID string, in PaymentInput) (*models.ProjectPayment, error)
	UpdatePayment(userID, paymentID string, in PaymentUpdate) (*models.ProjectPayment, error)
	DeletePayment(userID, paymentID string) error
	Purchase(userID, itemID string, in PaymentInput) (*models.ProjectPayment, error)
	ListPayments(userID, itemID string) (*ItemPayments, error)
}

// ReconcileResult reports one derived value checked against its source records.
type ReconcileResult struct {
	EntityType string       `json:"entity_type"`
	EntityID   string       `json:"entity_id"`
	Stored     money.Amount `json:"stored"`
	Computed   money.Amount `json:"computed"`
	Drift      money.Amount `json:"drift"`
	Corrected  bool         `json:"corrected"`
}

// ReconcileSummary aggregates a system-wide reconciliation run.
type ReconcileSummary struct {
	Checked int               `json:"checked"`
	Drifted []ReconcileResult `json:"drifted"`
}

// ReconcileServicer recomputes derived balances from source records and
// corrects any drift.
type ReconcileServicer interface {
	ReconcileAccount(userID, accountID string) (*ReconcileResult, error)
	ReconcileBudget(userID, budgetID string) (*ReconcileResult, error)
	ReconcileAll() (*ReconcileSummary, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
