// Package errors provides the structured error type used across the dompet API.
// Services return *AppError values only, so handlers can render a stable code,
// message and optional details without leaking storage errors to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, optional client-facing details
// and an optional internal error.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	StatusCode int            `json:"-"`
	Internal   error          `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target carries the same code. Sentinels are copied by the
// helpers below, so identity comparison alone would miss derived errors.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Details:    sentinel.Details,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		Details:    sentinel.Details,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// WithDetails creates a new AppError carrying the given details merged over
// any details already present on the sentinel.
func WithDetails(sentinel *AppError, message string, details map[string]any) *AppError {
	merged := make(map[string]any, len(sentinel.Details)+len(details))
	for k, v := range sentinel.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	if message == "" {
		message = sentinel.Message
	}
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		Details:    merged,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// InvalidField is shorthand for an INVALID_INPUT error naming the offending field.
func InvalidField(field, message string) *AppError {
	return WithDetails(ErrInvalidInput, message, map[string]any{"field": field})
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
	ErrInvalidToken       = &AppError{Code: "INVALID_TOKEN", Message: "Invalid or expired token", StatusCode: http.StatusUnauthorized}
	ErrInvalidAPIKey      = &AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", StatusCode: http.StatusUnauthorized}
	ErrMaintenanceOff     = &AppError{Code: "MAINTENANCE_NOT_CONFIGURED", Message: "Maintenance endpoints are not configured", StatusCode: http.StatusServiceUnavailable}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Account errors.
var (
	ErrAccountNotFound  = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found", StatusCode: http.StatusNotFound}
	ErrAccountInUse     = &AppError{Code: "ACCOUNT_IN_USE", Message: "Account has recorded transactions", StatusCode: http.StatusConflict}
	ErrDuplicateAccount = &AppError{Code: "DUPLICATE_ACCOUNT", Message: "An account with this name already exists", StatusCode: http.StatusConflict}
)

// Category errors.
var (
	ErrCategoryNotFound  = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCategoryInUse     = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is referenced by budgets, transactions or projects", StatusCode: http.StatusConflict}
	ErrDuplicateCategory = &AppError{Code: "DUPLICATE_CATEGORY", Message: "A category with this name already exists", StatusCode: http.StatusConflict}
)

// Transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInsufficientBalance = &AppError{Code: "INSUFFICIENT_BALANCE", Message: "Insufficient account balance", StatusCode: http.StatusUnprocessableEntity}
	ErrTransactionLocked   = &AppError{Code: "TRANSACTION_LOCKED", Message: "Transaction is linked to a project payment", StatusCode: http.StatusConflict}
)

// Budget errors.
var (
	ErrBudgetNotFound       = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrBudgetPeriodConflict = &AppError{Code: "BUDGET_PERIOD_CONFLICT", Message: "Budget period overlaps an existing budget for this category", StatusCode: http.StatusConflict}
)

// Project errors.
var (
	ErrProjectNotFound          = &AppError{Code: "PROJECT_NOT_FOUND", Message: "Project not found", StatusCode: http.StatusNotFound}
	ErrProjectItemNotFound      = &AppError{Code: "PROJECT_ITEM_NOT_FOUND", Message: "Project item not found", StatusCode: http.StatusNotFound}
	ErrPaymentNotFound          = &AppError{Code: "PAYMENT_NOT_FOUND", Message: "Project payment not found", StatusCode: http.StatusNotFound}
	ErrChecklistTaskNotFound    = &AppError{Code: "CHECKLIST_TASK_NOT_FOUND", Message: "Checklist task not found", StatusCode: http.StatusNotFound}
	ErrActiveProjectExists      = &AppError{Code: "ACTIVE_PROJECT_EXISTS", Message: "Category already has an active project", StatusCode: http.StatusConflict}
	ErrProjectCategoryNotSaving = &AppError{Code: "PROJECT_CATEGORY_NOT_SAVINGS", Message: "Projects require a savings category", StatusCode: http.StatusUnprocessableEntity}
	ErrItemNotAcceptingDeposits = &AppError{Code: "ITEM_NOT_ACCEPTING_DEPOSITS", Message: "Project item no longer accepts deposits", StatusCode: http.StatusConflict}
	ErrItemNotReadyForPurchase  = &AppError{Code: "ITEM_NOT_READY_FOR_PURCHASE", Message: "Project item is not ready for purchase", StatusCode: http.StatusUnprocessableEntity}
	ErrItemHasPayments          = &AppError{Code: "ITEM_HAS_PAYMENTS", Message: "Project item has recorded payments", StatusCode: http.StatusConflict}
)
