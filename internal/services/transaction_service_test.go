package services

import (
	"testing"
	"time"

	"dompet/internal/models"
	"dompet/internal/money"
	"dompet/internal/pagination"
	"dompet/internal/testutil"
)

func reloadAccount(t *testing.T, svc AccountServicer, userID, accountID string) *models.Account {
	t.Helper()
	account, err := svc.GetAccountByID(userID, accountID)
	testutil.AssertNoError(t, err)
	return account
}

func TestCreateTransaction(t *testing.T) {
	t.Run("income_increases_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		policy := NewFamilyAccessPolicy()
		svc := NewTransactionService(db, policy)
		accounts := NewAccountService(db, policy)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		txn, err := svc.CreateTransaction(user.ID, TransactionInput{
			AccountID:   account.ID,
			Type:        models.TransactionTypeIncome,
			Amount:      100000,
			Description: "  Salary ",
		})
		testutil.AssertNoError(t, err)

		if txn.ID == "" {
			t.Fatal("expected transaction ID")
		}
		if txn.Description != "Salary" {
			t.Errorf("expected trimmed description, got %q", txn.Description)
		}
		if got := reloadAccount(t, accounts, user.ID, account.ID).CurrentBalance; got != 100000 {
			t.Errorf("expected balance 100000, got %d", got)
		}
	})

	t.Run("expense_decreases_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		policy := NewFamilyAccessPolicy()
		svc := NewTransactionService(db, policy)
		accounts := NewAccountService(db, policy)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, 100000)

		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeExpense,
			Amount:    30000,
		})
		testutil.AssertNoError(t, err)

		if got := reloadAccount(t, accounts, user.ID, account.ID).CurrentBalance; got != 70000 {
			t.Errorf("expected balance 70000, got %d", got)
		}
	})

	t.Run("savings_adds_to_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		policy := NewFamilyAccessPolicy()
		svc := NewTransactionService(db, policy)
		accounts := NewAccountService(db, policy)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeSavings,
			Amount:    45000,
		})
		testutil.AssertNoError(t, err)

		if got := reloadAccount(t, accounts, user.ID, account.ID).CurrentBalance; got != 45000 {
			t.Errorf("expected balance 45000, got %d", got)
		}
	})

	t.Run("insufficient_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewFamilyAccessPolicy())
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, 20000)

		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeExpense,
			Amount:    25000,
		})
		testutil.AssertAppErrorDetail(t, err, "INSUFFICIENT_BALANCE", "shortage", money.Amount(5000))
	})

	t.Run("zero_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewFamilyAccessPolicy())
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeIncome,
		})
		testutil.AssertAppErrorDetail(t, err, "INVALID_INPUT", "field", "amount")
	})

	t.Run("negative_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewFamilyAccessPolicy())
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeIncome,
			Amount:    -500,
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewFamilyAccessPolicy())
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			AccountID: account.ID,
			Type:      "transfer",
			Amount:    500,
		})
		testutil.AssertAppErrorDetail(t, err, "INVALID_INPUT", "field", "type")
	})

	t.Run("missing_account_id", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewFamilyAccessPolicy())
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTransaction(user.ID, TransactionInput{Type: models.TransactionTypeIncome, Amount: 100})
		testutil.AssertAppErrorDetail(t, err, "INVALID_INPUT", "field", "account_id")
	})

	t.Run("wrong_user_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewFamilyAccessPolicy())
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user1.ID)

		_, err := svc.CreateTransaction(user2.ID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeIncome,
			Amount:    100,
		})
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})

	t.Run("family_member_joint_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewFamilyAccessPolicy())
		alice := testutil.CreateTestUser(t, db)
		bob := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, alice, bob)
		joint := testutil.CreateTestJointAccount(t, db, alice.ID, 0)

		_, err := svc.CreateTransaction(bob.ID, TransactionInput{
			AccountID: joint.ID,
			Type:      models.TransactionTypeIncome,
			Amount:    100,
		})
		testutil.AssertNoError(t, err)
	})

	t.Run("expense_counts_toward_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewFamilyAccessPolicy())
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, 100000)
		category := testutil.CreateTestCategory(t, db, user.ID, models.BudgetTypeExpense)
		budget := testutil.CreateTestBudget(t, db, category.ID, testutil.Date(2025, 3, 1), testutil.Date(2025, 3, 31), 50000)

		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			AccountID:       account.ID,
			CategoryID:      &category.ID,
			Type:            models.TransactionTypeExpense,
			Amount:          12000,
			TransactionDate: testutil.Date(2025, 3, 14),
		})
		testutil.AssertNoError(t, err)

		var reloaded models.Budget
		db.First(&reloaded, "id = ?", budget.ID)
		if reloaded.SpentAmount != 12000 {
			t.Errorf("expected spent 12000, got %d", reloaded.SpentAmount)
		}
	})

	t.Run("default_date_when_zero", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewFamilyAccessPolicy())
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		txn, err := svc.CreateTransaction(user.ID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeIncome,
			Amount:    100,
		})
		testutil.AssertNoError(t, err)

		if !txn.TransactionDate.Equal(models.DateOf(time.Now())) {
			t.Errorf("expected today's date, got %s", txn.TransactionDate)
		}
	})
}

func TestUpdateTransaction(t *testing.T) {
	t.Run("amount_change_moves_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		policy := NewFamilyAccessPolicy()
		svc := NewTransactionService(db, policy)
		accounts := NewAccountService(db, policy)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, 100000)

		txn, err := svc.CreateTransaction(user.ID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeExpense,
			Amount:    30000,
		})
		testutil.AssertNoError(t, err)

		amount := money.Amount(45000)
		updated, err := svc.UpdateTransaction(user.ID, txn.ID, TransactionUpdate{Amount: &amount})
		testutil.AssertNoError(t, err)

		if updated.Revision != 1 {
			t.Errorf("expected revision 1, got %d", updated.Revision)
		}
		if got := reloadAccount(t, accounts, user.ID, account.ID).CurrentBalance; got != 55000 {
			t.Errorf("expected balance 55000, got %d", got)
		}
	})

	t.Run("move_between_accounts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		policy := NewFamilyAccessPolicy()
		svc := NewTransactionService(db, policy)
		accounts := NewAccountService(db, policy)
		user := testutil.CreateTestUser(t, db)
		from := testutil.CreateTestAccount(t, db, user.ID)
		to := testutil.CreateTestAccount(t, db, user.ID)

		txn, err := svc.CreateTransaction(user.ID, TransactionInput{
			AccountID: from.ID,
			Type:      models.TransactionTypeIncome,
			Amount:    80000,
		})
		testutil.AssertNoError(t, err)

		_, err = svc.UpdateTransaction(user.ID, txn.ID, TransactionUpdate{AccountID: &to.ID})
		testutil.AssertNoError(t, err)

		if got := reloadAccount(t, accounts, user.ID, from.ID).CurrentBalance; got != 0 {
			t.Errorf("expected source balance 0, got %d", got)
		}
		if got := reloadAccount(t, accounts, user.ID, to.ID).CurrentBalance; got != 80000 {
			t.Errorf("expected target balance 80000, got %d", got)
		}
	})

	t.Run("type_flip_checks_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewFamilyAccessPolicy())
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		txn, err := svc.CreateTransaction(user.ID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeIncome,
			Amount:    10000,
		})
		testutil.AssertNoError(t, err)

		expense := models.TransactionTypeExpense
		amount := money.Amount(15000)
		_, err = svc.UpdateTransaction(user.ID, txn.ID, TransactionUpdate{Type: &expense, Amount: &amount})
		testutil.AssertAppError(t, err, "INSUFFICIENT_BALANCE")
	})

	t.Run("clear_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewFamilyAccessPolicy())
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, 100000)
		category := testutil.CreateTestCategory(t, db, user.ID, models.BudgetTypeExpense)

		txn, err := svc.CreateTransaction(user.ID, TransactionInput{
			AccountID:  account.ID,
			CategoryID: &category.ID,
			Type:       models.TransactionTypeExpense,
			Amount:     1000,
		})
		testutil.AssertNoError(t, err)

		cleared := ""
		updated, err := svc.UpdateTransaction(user.ID, txn.ID, TransactionUpdate{CategoryID: &cleared})
		testutil.AssertNoError(t, err)
		if updated.CategoryID != nil {
			t.Errorf("expected category cleared, got %s", *updated.CategoryID)
		}
	})

	t.Run("inaccessible_target_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewFamilyAccessPolicy())
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user1.ID)
		foreign := testutil.CreateTestAccount(t, db, user2.ID)

		txn, err := svc.CreateTransaction(user1.ID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeIncome,
			Amount:    1000,
		})
		testutil.AssertNoError(t, err)

		_, err = svc.UpdateTransaction(user1.ID, txn.ID, TransactionUpdate{AccountID: &foreign.ID})
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewFamilyAccessPolicy())
		user := testutil.CreateTestUser(t, db)

		desc := "x"
		_, err := svc.UpdateTransaction(user.ID, "0191e3b4-0000-7000-8000-000000000000", TransactionUpdate{Description: &desc})
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("reverses_balance_and_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		policy := NewFamilyAccessPolicy()
		svc := NewTransactionService(db, policy)
		accounts := NewAccountService(db, policy)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, 100000)
		category := testutil.CreateTestCategory(t, db, user.ID, models.BudgetTypeExpense)
		budget := testutil.CreateTestBudget(t, db, category.ID, testutil.Date(2025, 3, 1), testutil.Date(2025, 3, 31), 50000)

		txn, err := svc.CreateTransaction(user.ID, TransactionInput{
			AccountID:       account.ID,
			CategoryID:      &category.ID,
			Type:            models.TransactionTypeExpense,
			Amount:          20000,
			TransactionDate: testutil.Date(2025, 3, 2),
		})
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, svc.DeleteTransaction(user.ID, txn.ID))

		if got := reloadAccount(t, accounts, user.ID, account.ID).CurrentBalance; got != 100000 {
			t.Errorf("expected balance restored to 100000, got %d", got)
		}
		var reloaded models.Budget
		db.First(&reloaded, "id = ?", budget.ID)
		if reloaded.SpentAmount != 0 {
			t.Errorf("expected spent 0, got %d", reloaded.SpentAmount)
		}

		_, err = svc.GetTransactionByID(user.ID, txn.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("wrong_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewFamilyAccessPolicy())
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user1.ID)

		txn, err := svc.CreateTransaction(user1.ID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeIncome,
			Amount:    1000,
		})
		testutil.AssertNoError(t, err)

		err = svc.DeleteTransaction(user2.ID, txn.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestGetTransactionByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewFamilyAccessPolicy())
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		created, err := svc.CreateTransaction(user.ID, TransactionInput{
			AccountID: account.ID,
			Type:      models.TransactionTypeIncome,
			Amount:    5000,
		})
		testutil.AssertNoError(t, err)

		txn, err := svc.GetTransactionByID(user.ID, created.ID)
		testutil.AssertNoError(t, err)
		if txn.Amount != 5000 {
			t.Errorf("expected amount 5000, got %d", txn.Amount)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewFamilyAccessPolicy())
		user := testutil.CreateTestUser(t, db)

		_, err := svc.GetTransactionByID(user.ID, "0191e3b4-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestListTransactions(t *testing.T) {
	seed := func(t *testing.T, svc TransactionServicer, userID, accountID, categoryID string) {
		t.Helper()
		inputs := []TransactionInput{
			{AccountID: accountID, Type: models.TransactionTypeIncome, Amount: 500000, TransactionDate: testutil.Date(2025, 1, 1)},
			{AccountID: accountID, CategoryID: &categoryID, Type: models.TransactionTypeExpense, Amount: 20000, TransactionDate: testutil.Date(2025, 1, 5)},
			{AccountID: accountID, CategoryID: &categoryID, Type: models.TransactionTypeExpense, Amount: 75000, TransactionDate: testutil.Date(2025, 1, 20)},
			{AccountID: accountID, Type: models.TransactionTypeSavings, Amount: 10000, TransactionDate: testutil.Date(2025, 2, 1)},
		}
		for _, in := range inputs {
			_, err := svc.CreateTransaction(userID, in)
			testutil.AssertNoError(t, err)
		}
	}

	t.Run("newest_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewFamilyAccessPolicy())
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		category := testutil.CreateTestCategory(t, db, user.ID, models.BudgetTypeExpense)
		seed(t, svc, user.ID, account.ID, category.ID)

		result, err := svc.GetUserTransactions(user.ID, pagination.PageRequest{}, TransactionFilter{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 4 {
			t.Fatalf("expected 4 transactions, got %d", result.TotalItems)
		}
		if result.Data[0].Type != models.TransactionTypeSavings {
			t.Errorf("expected latest transaction first, got %s", result.Data[0].Type)
		}
	})

	t.Run("filters", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewFamilyAccessPolicy())
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		category := testutil.CreateTestCategory(t, db, user.ID, models.BudgetTypeExpense)
		seed(t, svc, user.ID, account.ID, category.ID)

		from := testutil.Date(2025, 1, 2)
		to := testutil.Date(2025, 1, 31)
		expense := models.TransactionTypeExpense
		minAmount := money.Amount(50000)

		tests := []struct {
			name   string
			filter TransactionFilter
			want   int64
		}{
			{name: "date_range", filter: TransactionFilter{FromDate: &from, ToDate: &to}, want: 2},
			{name: "type", filter: TransactionFilter{Type: &expense}, want: 2},
			{name: "category", filter: TransactionFilter{CategoryID: &category.ID}, want: 2},
			{name: "min_amount", filter: TransactionFilter{MinAmount: &minAmount}, want: 2},
			{name: "combined", filter: TransactionFilter{Type: &expense, MinAmount: &minAmount}, want: 1},
		}
		for _, tt := range tests {
			result, err := svc.GetUserTransactions(user.ID, pagination.PageRequest{}, tt.filter)
			testutil.AssertNoError(t, err)
			if result.TotalItems != tt.want {
				t.Errorf("%s: expected %d, got %d", tt.name, tt.want, result.TotalItems)
			}
		}
	})

	t.Run("account_scope", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewFamilyAccessPolicy())
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		other := testutil.CreateTestAccount(t, db, user.ID)
		category := testutil.CreateTestCategory(t, db, user.ID, models.BudgetTypeExpense)
		seed(t, svc, user.ID, account.ID, category.ID)

		_, err := svc.CreateTransaction(user.ID, TransactionInput{AccountID: other.ID, Type: models.TransactionTypeIncome, Amount: 1})
		testutil.AssertNoError(t, err)

		result, err := svc.GetAccountTransactions(user.ID, other.ID, pagination.PageRequest{}, TransactionFilter{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 1 {
			t.Errorf("expected 1 transaction, got %d", result.TotalItems)
		}
	})

	t.Run("account_not_accessible", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewFamilyAccessPolicy())
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user1.ID)

		_, err := svc.GetAccountTransactions(user2.ID, account.ID, pagination.PageRequest{}, TransactionFilter{})
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}
