package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"dompet/internal/config"
	"dompet/internal/logger"
	"dompet/internal/server"
	"dompet/internal/testutil"
)

const maintenanceKey = "integration-maintenance-key"

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
}

// setupApp creates the production router backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	cfg := &config.Config{
		Env:               "test",
		DBDriver:          config.DriverSQLite,
		JWTSecret:         "integration-secret",
		JWTExpirationDur:  15 * time.Minute,
		MaintenanceAPIKey: maintenanceKey,
	}
	config.Set(cfg)

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	return &testApp{DB: db, Router: server.NewRouter(db, cfg)}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// maintenanceRequest calls an operator endpoint with the given API key.
func (app *testApp) maintenanceRequest(path, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set("X-API-Key", apiKey)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// mustStatus fails the test unless rec carries the expected status.
func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// object extracts a nested JSON object by key.
func object(t *testing.T, result map[string]interface{}, key string) map[string]interface{} {
	t.Helper()
	obj, ok := result[key].(map[string]interface{})
	if !ok {
		t.Fatalf("expected object %q in response, got %v", key, result)
	}
	return obj
}

func errorCode(result map[string]interface{}) interface{} {
	errObj, _ := result["error"].(map[string]interface{})
	return errObj["code"]
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	mustStatus(t, rec, http.StatusCreated)
	result := parseJSON(t, rec)
	user := object(t, result, "user")
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	mustStatus(t, rec, http.StatusOK)
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// createAccount opens an account and returns its id.
func (app *testApp) createAccount(t *testing.T, token, body string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/accounts", body, token)
	mustStatus(t, rec, http.StatusCreated)
	return object(t, parseJSON(t, rec), "account")["id"].(string)
}

// createCategory creates a category and returns its id.
func (app *testApp) createCategory(t *testing.T, token, name, budgetType, kind string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"budget_type":%q,"kind":%q}`, name, budgetType, kind)
	rec := app.request("POST", "/api/v1/categories", body, token)
	mustStatus(t, rec, http.StatusCreated)
	return object(t, parseJSON(t, rec), "category")["id"].(string)
}

// balanceOf reads an account's current balance in major units.
func (app *testApp) balanceOf(t *testing.T, token, accountID string) float64 {
	t.Helper()
	rec := app.request("GET", "/api/v1/accounts/"+accountID, "", token)
	mustStatus(t, rec, http.StatusOK)
	return object(t, parseJSON(t, rec), "account")["current_balance"].(float64)
}
