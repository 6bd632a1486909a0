package services

import (
	"strings"

	"gorm.io/gorm"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
	"dompet/internal/pagination"
)

const openingBalanceDescription = "Opening balance"

// accountService handles account-related business logic.
type accountService struct {
	db     *gorm.DB
	policy AccessPolicy
	engine *ledgerEngine
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB, policy AccessPolicy) AccountServicer {
	return &accountService{db: db, policy: policy, engine: newLedgerEngine()}
}

// CreateAccount opens an account. A positive opening balance is recorded as
// an income transaction so the balance stays derivable from the ledger.
func (s *accountService) CreateAccount(userID string, in AccountInput) (*models.Account, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.InvalidField("name", "account name is required")
	}
	if in.OpeningBalance < 0 {
		return nil, apperrors.InvalidField("opening_balance", "opening balance cannot be negative")
	}
	if in.Kind == "" {
		in.Kind = models.OwnershipPersonal
	}

	account := &models.Account{
		UserID:      userID,
		Name:        name,
		Kind:        in.Kind,
		Description: in.Description,
		IsActive:    true,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Account{}).
			Where("user_id = ? AND name = ?", userID, name).
			Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.ErrDuplicateAccount
		}

		if err := tx.Create(account).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if in.OpeningBalance > 0 {
			opening := &models.Transaction{
				UserID:          userID,
				AccountID:       account.ID,
				Type:            models.TransactionTypeIncome,
				Amount:          in.OpeningBalance,
				TransactionDate: in.OpeningDate,
				Description:     openingBalanceDescription,
			}
			if err := s.engine.record(tx, opening); err != nil {
				return err
			}
		}

		return tx.Where("id = ?", account.ID).First(account).Error
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// GetUserAccounts retrieves a paginated list of active accounts the user can access.
func (s *accountService) GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Account{}).
		Scopes(s.policy.Scope(userID)).
		Where("is_active = ?", true)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	if err := base.Scopes(pagination.Paginate(page)).
		Order("name ASC").
		Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAccountByID retrieves an account the user can access.
func (s *accountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	return findAccount(s.db, s.policy, userID, accountID)
}

// UpdateAccount applies metadata edits. The balance is owned by the ledger.
func (s *accountService) UpdateAccount(userID, accountID string, in AccountUpdate) (*models.Account, error) {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.InvalidField("name", "account name cannot be empty")
		}
		if name != account.Name {
			var count int64
			if err := s.db.Model(&models.Account{}).
				Where("user_id = ? AND name = ? AND id <> ?", account.UserID, name, account.ID).
				Count(&count).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if count > 0 {
				return nil, apperrors.ErrDuplicateAccount
			}
			updates["name"] = name
		}
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Kind != nil {
		updates["kind"] = *in.Kind
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.Account{}).Where("id = ?", account.ID).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		// Reload to get fresh data
		if err := s.db.Where("id = ?", account.ID).First(account).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return account, nil
}

// DeleteAccount soft-deletes an account that has no transactions.
func (s *accountService) DeleteAccount(userID, accountID string) error {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Transaction{}).Where("account_id = ?", account.ID).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.WithDetails(apperrors.ErrAccountInUse, "",
				map[string]any{"transaction_count": count})
		}
		if err := tx.Delete(&models.Account{}, "id = ?", account.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
