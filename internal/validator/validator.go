// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"dompet/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn installs the custom tags on v. Exposed so the tags can be
// exercised without going through Gin.
func RegisterOn(v *validator.Validate) {
	// Report fields by their JSON (or query) name so error details match
	// what the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("budget_type", validateBudgetType)
	_ = v.RegisterValidation("ownership", validateOwnership)
	_ = v.RegisterValidation("project_status", validateProjectStatus)
	_ = v.RegisterValidation("item_type", validateItemType)
	_ = v.RegisterValidation("payment_method", validatePaymentMethod)
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return models.TransactionType(fl.Field().String()).Valid()
}

func validateBudgetType(fl validator.FieldLevel) bool {
	switch models.BudgetType(fl.Field().String()) {
	case models.BudgetTypeIncome, models.BudgetTypeExpense, models.BudgetTypeSavings:
		return true
	}
	return false
}

func validateOwnership(fl validator.FieldLevel) bool {
	switch models.Ownership(fl.Field().String()) {
	case models.OwnershipPersonal, models.OwnershipJoint:
		return true
	}
	return false
}

func validateProjectStatus(fl validator.FieldLevel) bool {
	return models.ProjectStatus(fl.Field().String()).Valid()
}

func validateItemType(fl validator.FieldLevel) bool {
	return models.ItemType(fl.Field().String()).Valid()
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	return models.PaymentMethod(fl.Field().String()).Valid()
}
