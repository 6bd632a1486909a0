package integration

import (
	"fmt"
	"net/http"
	"testing"

	"dompet/internal/models"
)

func TestAccountFlow_OpeningBalanceAndTransactions(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "acct@test.com", "password123")

	// Step 1: Open an account with 100.00
	rec := app.request("POST", "/api/v1/accounts", `{"name":"Savings","opening_balance":100}`, token)
	mustStatus(t, rec, http.StatusCreated)
	account := object(t, parseJSON(t, rec), "account")
	accountID := account["id"].(string)
	if account["current_balance"] != 100.0 {
		t.Errorf("expected opening balance 100, got %v", account["current_balance"])
	}

	// Step 2: The opening balance is a real income transaction
	rec = app.request("GET", "/api/v1/accounts/"+accountID+"/transactions", "", token)
	mustStatus(t, rec, http.StatusOK)
	txResult := parseJSON(t, rec)
	if txResult["total_items"] != 1.0 {
		t.Fatalf("expected 1 opening transaction, got %v", txResult["total_items"])
	}
	opening := txResult["data"].([]interface{})[0].(map[string]interface{})
	if opening["type"] != string(models.TransactionTypeIncome) || opening["amount"] != 100.0 {
		t.Errorf("unexpected opening transaction %v", opening)
	}

	// Step 3: Income 50.00, expense 30.25
	rec = app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"account_id":%q,"type":"income","amount":50,"description":"Salary"}`, accountID), token)
	mustStatus(t, rec, http.StatusCreated)
	rec = app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"account_id":%q,"type":"expense","amount":"30.25","description":"Groceries"}`, accountID), token)
	mustStatus(t, rec, http.StatusCreated)

	// Step 4: 100 + 50 - 30.25
	if got := app.balanceOf(t, token, accountID); got != 119.75 {
		t.Errorf("expected balance 119.75, got %v", got)
	}

	rec = app.request("GET", "/api/v1/transactions?type=expense", "", token)
	mustStatus(t, rec, http.StatusOK)
	if total := parseJSON(t, rec)["total_items"]; total != 1.0 {
		t.Errorf("expected 1 expense, got %v", total)
	}
}

func TestAccountFlow_CreateWithZeroBalance(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "zero@test.com", "password123")

	accountID := app.createAccount(t, token, `{"name":"Checking"}`)
	if got := app.balanceOf(t, token, accountID); got != 0 {
		t.Errorf("expected balance 0, got %v", got)
	}

	rec := app.request("GET", "/api/v1/accounts/"+accountID+"/transactions", "", token)
	mustStatus(t, rec, http.StatusOK)
	if total := parseJSON(t, rec)["total_items"]; total != 0.0 {
		t.Errorf("expected no transactions, got %v", total)
	}
}

func TestAccountFlow_ListAccounts(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "list@test.com", "password123")

	app.createAccount(t, token, `{"name":"Account A"}`)
	app.createAccount(t, token, `{"name":"Account B"}`)

	rec := app.request("POST", "/api/v1/accounts", `{"name":"Account A"}`, token)
	mustStatus(t, rec, http.StatusConflict)

	rec = app.request("GET", "/api/v1/accounts", "", token)
	mustStatus(t, rec, http.StatusOK)
	if total := parseJSON(t, rec)["total_items"]; total != 2.0 {
		t.Errorf("expected 2 accounts, got %v", total)
	}
}

func TestAccountFlow_InsufficientBalance(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "short@test.com", "password123")
	accountID := app.createAccount(t, token, `{"name":"Wallet","opening_balance":20}`)

	rec := app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"account_id":%q,"type":"expense","amount":25}`, accountID), token)
	mustStatus(t, rec, http.StatusUnprocessableEntity)

	result := parseJSON(t, rec)
	if code := errorCode(result); code != "INSUFFICIENT_BALANCE" {
		t.Errorf("expected INSUFFICIENT_BALANCE, got %v", code)
	}
	details := result["error"].(map[string]interface{})["details"].(map[string]interface{})
	if details["available"] != 20.0 || details["required"] != 25.0 || details["shortage"] != 5.0 {
		t.Errorf("unexpected details %v", details)
	}

	if got := app.balanceOf(t, token, accountID); got != 20 {
		t.Errorf("expected balance untouched at 20, got %v", got)
	}
}

func TestAccountFlow_UpdateAndDeleteTransaction(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "edit@test.com", "password123")
	first := app.createAccount(t, token, `{"name":"First","opening_balance":100}`)
	second := app.createAccount(t, token, `{"name":"Second","opening_balance":100}`)

	rec := app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"account_id":%q,"type":"expense","amount":30}`, first), token)
	mustStatus(t, rec, http.StatusCreated)
	txID := object(t, parseJSON(t, rec), "transaction")["id"].(string)

	// Raising the amount moves the delta only
	rec = app.request("PUT", "/api/v1/transactions/"+txID, `{"amount":45}`, token)
	mustStatus(t, rec, http.StatusOK)
	if got := app.balanceOf(t, token, first); got != 55 {
		t.Errorf("expected 55 after edit, got %v", got)
	}

	// Moving to another account restores the first and charges the second
	rec = app.request("PUT", "/api/v1/transactions/"+txID, fmt.Sprintf(`{"account_id":%q}`, second), token)
	mustStatus(t, rec, http.StatusOK)
	if got := app.balanceOf(t, token, first); got != 100 {
		t.Errorf("expected first restored to 100, got %v", got)
	}
	if got := app.balanceOf(t, token, second); got != 55 {
		t.Errorf("expected second at 55, got %v", got)
	}

	// Deleting reverses the effect
	rec = app.request("DELETE", "/api/v1/transactions/"+txID, "", token)
	mustStatus(t, rec, http.StatusNoContent)
	if got := app.balanceOf(t, token, second); got != 100 {
		t.Errorf("expected second restored to 100, got %v", got)
	}

	rec = app.request("GET", "/api/v1/transactions/"+txID, "", token)
	mustStatus(t, rec, http.StatusNotFound)
}

func TestAccountFlow_ReconcileHealsDrift(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "drift@test.com", "password123")
	accountID := app.createAccount(t, token, `{"name":"Drifting","opening_balance":80}`)

	rec := app.request("POST", "/api/v1/accounts/"+accountID+"/reconcile", "", token)
	mustStatus(t, rec, http.StatusOK)
	if corrected := object(t, parseJSON(t, rec), "result")["corrected"]; corrected != false {
		t.Errorf("expected clean account, got corrected=%v", corrected)
	}

	// Corrupt the stored balance behind the engine's back
	if err := app.DB.Model(&models.Account{}).Where("id = ?", accountID).
		UpdateColumn("current_balance", 12345).Error; err != nil {
		t.Fatalf("failed to corrupt balance: %v", err)
	}

	rec = app.request("POST", "/api/v1/accounts/"+accountID+"/reconcile", "", token)
	mustStatus(t, rec, http.StatusOK)
	result := object(t, parseJSON(t, rec), "result")
	if result["corrected"] != true || result["computed"] != 80.0 || result["stored"] != 123.45 {
		t.Errorf("unexpected reconcile result %v", result)
	}
	if got := app.balanceOf(t, token, accountID); got != 80 {
		t.Errorf("expected balance healed to 80, got %v", got)
	}
}

func TestAccountFlow_DeleteAccountInUse(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "del@test.com", "password123")
	used := app.createAccount(t, token, `{"name":"Used","opening_balance":10}`)
	empty := app.createAccount(t, token, `{"name":"Empty"}`)

	rec := app.request("DELETE", "/api/v1/accounts/"+used, "", token)
	mustStatus(t, rec, http.StatusConflict)

	rec = app.request("DELETE", "/api/v1/accounts/"+empty, "", token)
	mustStatus(t, rec, http.StatusNoContent)
}
