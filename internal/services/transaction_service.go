package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
	"dompet/internal/pagination"
)

// transactionService handles transaction-related business logic. Every
// write goes through the ledger engine.
type transactionService struct {
	db     *gorm.DB
	policy AccessPolicy
	engine *ledgerEngine
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, policy AccessPolicy) TransactionServicer {
	return &transactionService{
		db:     db,
		policy: policy,
		engine: newLedgerEngine(),
	}
}

// CreateTransaction records a transaction on an account the user can access.
func (s *transactionService) CreateTransaction(userID string, in TransactionInput) (*models.Transaction, error) {
	if in.AccountID == "" {
		return nil, apperrors.InvalidField("account_id", "account ID is required")
	}

	account, err := findAccount(s.db, s.policy, userID, in.AccountID)
	if err != nil {
		return nil, err
	}

	var categoryID *string
	if in.CategoryID != nil && *in.CategoryID != "" {
		category, err := findCategory(s.db, s.policy, userID, *in.CategoryID)
		if err != nil {
			return nil, err
		}
		categoryID = &category.ID
	}

	transaction := &models.Transaction{
		UserID:          userID,
		AccountID:       account.ID,
		CategoryID:      categoryID,
		Type:            in.Type,
		Amount:          in.Amount,
		TransactionDate: in.TransactionDate,
		Description:     strings.TrimSpace(in.Description),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.engine.record(tx, transaction)
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// UpdateTransaction edits a transaction. Transactions held by a project
// payment are rejected with TRANSACTION_LOCKED.
func (s *transactionService) UpdateTransaction(userID, transactionID string, in TransactionUpdate) (*models.Transaction, error) {
	current, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	ch := transactionChanges{
		Type:            in.Type,
		Amount:          in.Amount,
		TransactionDate: in.TransactionDate,
		Description:     in.Description,
	}
	if in.AccountID != nil && *in.AccountID != current.AccountID {
		account, err := findAccount(s.db, s.policy, userID, *in.AccountID)
		if err != nil {
			return nil, err
		}
		ch.AccountID = &account.ID
	}
	if in.CategoryID != nil {
		cleared := ""
		ch.CategoryID = &cleared
		if *in.CategoryID != "" {
			category, err := findCategory(s.db, s.policy, userID, *in.CategoryID)
			if err != nil {
				return nil, err
			}
			ch.CategoryID = &category.ID
		}
	}
	if ch.Description != nil {
		trimmed := strings.TrimSpace(*ch.Description)
		ch.Description = &trimmed
	}

	var updated *models.Transaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		locked, err := lockTransaction(tx, current.ID)
		if err != nil {
			return err
		}
		updated, err = s.engine.amend(tx, locked, ch, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTransaction deletes a transaction and reverses its balance effects.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	current, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		locked, err := lockTransaction(tx, current.ID)
		if err != nil {
			return err
		}
		return s.engine.remove(tx, locked, false)
	})
}

// lockTransaction rereads a transaction inside the unit of work so the
// snapshot used for reversal is the committed one.
func lockTransaction(tx *gorm.DB, id string) (*models.Transaction, error) {
	var t models.Transaction
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &t, nil
}

// GetTransactionByID retrieves a transaction whose account the user can access.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ?", transactionID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if _, err := findAccount(s.db, s.policy, userID, transaction.AccountID); err != nil {
		if errors.Is(err, apperrors.ErrAccountNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, err
	}
	return &transaction, nil
}

// GetUserTransactions lists transactions on every account the user can access.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	base := s.db.Model(&models.Transaction{}).
		Where("account_id IN (?)", accessibleAccountIDs(s.db, s.policy, userID))
	return s.list(base, page, filter)
}

// GetAccountTransactions lists the transactions of one account.
func (s *transactionService) GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	account, err := findAccount(s.db, s.policy, userID, accountID)
	if err != nil {
		return nil, err
	}

	filter.AccountID = nil
	base := s.db.Model(&models.Transaction{}).Where("account_id = ?", account.ID)
	return s.list(base, page, filter)
}

func (s *transactionService) list(base *gorm.DB, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("transaction_date DESC").
		Order("created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("transaction_date >= ?", models.DateOf(*f.FromDate))
	}
	if f.ToDate != nil {
		q = q.Where("transaction_date <= ?", models.DateOf(*f.ToDate))
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.AccountID != nil {
		q = q.Where("account_id = ?", *f.AccountID)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	return q
}
