package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "dompet/internal/errors"
	"dompet/internal/middleware"
	"dompet/internal/services"
)

// --- mock reconcile service ---

type mockReconcileService struct {
	reconcileAccountFn func(userID, accountID string) (*services.ReconcileResult, error)
	reconcileBudgetFn  func(userID, budgetID string) (*services.ReconcileResult, error)
	reconcileAllFn     func() (*services.ReconcileSummary, error)
}

func (m *mockReconcileService) ReconcileAccount(userID, accountID string) (*services.ReconcileResult, error) {
	if m.reconcileAccountFn != nil {
		return m.reconcileAccountFn(userID, accountID)
	}
	return &services.ReconcileResult{EntityType: "account", EntityID: accountID}, nil
}

func (m *mockReconcileService) ReconcileBudget(userID, budgetID string) (*services.ReconcileResult, error) {
	if m.reconcileBudgetFn != nil {
		return m.reconcileBudgetFn(userID, budgetID)
	}
	return &services.ReconcileResult{EntityType: "budget", EntityID: budgetID}, nil
}

func (m *mockReconcileService) ReconcileAll() (*services.ReconcileSummary, error) {
	if m.reconcileAllFn != nil {
		return m.reconcileAllFn()
	}
	return &services.ReconcileSummary{Drifted: []services.ReconcileResult{}}, nil
}

var _ services.ReconcileServicer = (*mockReconcileService)(nil)

func setupReconcileRouter(handler *ReconcileHandler, apiKey string) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/accounts/:id/reconcile", handler.ReconcileAccount)
	auth.POST("/budgets/:id/reconcile", handler.ReconcileBudget)
	r.POST("/maintenance/reconcile", middleware.MaintenanceAuth(apiKey), handler.ReconcileAll)
	return r
}

func newAPIKeyRequest(path, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set("X-API-Key", key)
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestReconcileHandler_ReconcileAccount(t *testing.T) {
	t.Run("reports and audits a correction", func(t *testing.T) {
		svc := &mockReconcileService{
			reconcileAccountFn: func(_, id string) (*services.ReconcileResult, error) {
				return &services.ReconcileResult{
					EntityType: "account",
					EntityID:   id,
					Stored:     150000,
					Computed:   120000,
					Drift:      30000,
					Corrected:  true,
				}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupReconcileRouter(NewReconcileHandler(svc, audit), "")

		rec := doRequest(r, "POST", "/accounts/"+testAccountID+"/reconcile", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)["result"].(map[string]interface{})
		if result["drift"] != 300.0 || result["corrected"] != true {
			t.Errorf("unexpected result %v", result)
		}
		if len(audit.actions) != 1 || audit.actions[0] != "RECONCILE_ACCOUNT" {
			t.Errorf("expected RECONCILE_ACCOUNT audit, got %v", audit.actions)
		}
	})

	t.Run("skips audit when clean", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupReconcileRouter(NewReconcileHandler(&mockReconcileService{}, audit), "")

		rec := doRequest(r, "POST", "/accounts/"+testAccountID+"/reconcile", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(audit.actions) != 0 {
			t.Errorf("expected no audit, got %v", audit.actions)
		}
	})

	t.Run("returns 404 for foreign account", func(t *testing.T) {
		svc := &mockReconcileService{
			reconcileAccountFn: func(_, _ string) (*services.ReconcileResult, error) {
				return nil, apperrors.ErrAccountNotFound
			},
		}
		r := setupReconcileRouter(NewReconcileHandler(svc, &mockAuditService{}), "")

		rec := doRequest(r, "POST", "/accounts/"+testAccountID+"/reconcile", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestReconcileHandler_ReconcileBudget(t *testing.T) {
	var gotBudget string
	svc := &mockReconcileService{
		reconcileBudgetFn: func(_, id string) (*services.ReconcileResult, error) {
			gotBudget = id
			return &services.ReconcileResult{EntityType: "budget", EntityID: id}, nil
		},
	}
	r := setupReconcileRouter(NewReconcileHandler(svc, &mockAuditService{}), "")

	rec := doRequest(r, "POST", "/budgets/"+testBudgetID+"/reconcile", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotBudget != testBudgetID {
		t.Errorf("expected budget %s, got %s", testBudgetID, gotBudget)
	}
}

func TestReconcileHandler_ReconcileAll(t *testing.T) {
	const apiKey = "maintenance-key"

	t.Run("returns summary with valid key", func(t *testing.T) {
		svc := &mockReconcileService{
			reconcileAllFn: func() (*services.ReconcileSummary, error) {
				return &services.ReconcileSummary{
					Checked: 7,
					Drifted: []services.ReconcileResult{{EntityType: "project_item", Corrected: true}},
				}, nil
			},
		}
		r := setupReconcileRouter(NewReconcileHandler(svc, &mockAuditService{}), apiKey)

		rec := serve(r, newAPIKeyRequest("/maintenance/reconcile", apiKey))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		summary := parseJSON(t, rec)["summary"].(map[string]interface{})
		if summary["checked"] != 7.0 {
			t.Errorf("expected 7 checked, got %v", summary["checked"])
		}
	})

	t.Run("returns 401 with wrong key", func(t *testing.T) {
		r := setupReconcileRouter(NewReconcileHandler(&mockReconcileService{}, &mockAuditService{}), apiKey)

		rec := serve(r, newAPIKeyRequest("/maintenance/reconcile", "nope"))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("returns 503 when not configured", func(t *testing.T) {
		r := setupReconcileRouter(NewReconcileHandler(&mockReconcileService{}, &mockAuditService{}), "")

		rec := serve(r, newAPIKeyRequest("/maintenance/reconcile", "anything"))

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})

	t.Run("returns 500 on storage failure", func(t *testing.T) {
		svc := &mockReconcileService{
			reconcileAllFn: func() (*services.ReconcileSummary, error) {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, errors.New("connection reset"))
			},
		}
		r := setupReconcileRouter(NewReconcileHandler(svc, &mockAuditService{}), apiKey)

		rec := serve(r, newAPIKeyRequest("/maintenance/reconcile", apiKey))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}
