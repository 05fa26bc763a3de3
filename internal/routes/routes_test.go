package routes_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ruivenancio/finance-app/internal/auth"
	"github.com/ruivenancio/finance-app/internal/quotes"
	"github.com/ruivenancio/finance-app/internal/routes"
	"github.com/ruivenancio/finance-app/internal/service"
	"github.com/ruivenancio/finance-app/internal/storage/memory"
)

func setup(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memory.New()
	return routes.SetupRouter(routes.Services{
		Auth:         auth.NewService(store, "test-secret", 30*time.Minute),
		Accounts:     service.NewAccountService(store),
		Categories:   service.NewCategoryService(store),
		Transactions: service.NewTransactionService(store),
		Stocks:       service.NewStockService(store, quotes.Static{}),
		Dashboard:    service.NewDashboardService(store),
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// register + login, returning a usable bearer token.
func registerAndLogin(t *testing.T, h http.Handler, email, password string) string {
	t.Helper()
	if w := doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "password": password,
	}); w.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", w.Code, w.Body.String())
	}

	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	if resp.TokenType != "bearer" || resp.AccessToken == "" {
		t.Fatalf("unexpected login response: %s", w.Body.String())
	}
	return resp.AccessToken
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := setup(t)

	protected := []struct{ method, path string }{
		{http.MethodGet, "/auth/me"},
		{http.MethodGet, "/accounts"},
		{http.MethodPost, "/accounts"},
		{http.MethodGet, "/categories"},
		{http.MethodGet, "/transactions"},
		{http.MethodPost, "/transactions/transfer"},
		{http.MethodGet, "/stocks"},
		{http.MethodPost, "/stocks/sync"},
		{http.MethodGet, "/budgets"},
		{http.MethodGet, "/dashboard/summary"},
	}
	for _, route := range protected {
		if w := doJSON(t, h, route.method, route.path, "", nil); w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token returned %d, want 401", route.method, route.path, w.Code)
		}
	}

	if w := doJSON(t, h, http.MethodGet, "/accounts", "garbage-token", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token returned %d, want 401", w.Code)
	}

	if w := doJSON(t, h, http.MethodGet, "/", "", nil); w.Code != http.StatusOK {
		t.Errorf("welcome route returned %d, want 200", w.Code)
	}
}

func TestRegisterConflictAndBadEmail(t *testing.T) {
	h := setup(t)

	registerAndLogin(t, h, "jane@example.com", "hunter22")

	if w := doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "jane@example.com", "password": "other",
	}); w.Code != http.StatusConflict {
		t.Errorf("duplicate register returned %d, want 409", w.Code)
	}

	if w := doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "not-an-email", "password": "hunter22",
	}); w.Code != http.StatusBadRequest {
		t.Errorf("bad email register returned %d, want 400", w.Code)
	}
}

func TestErrorCodeMapping(t *testing.T) {
	h := setup(t)
	token := registerAndLogin(t, h, "jane@example.com", "hunter22")

	// Unknown id maps to 404.
	if w := doJSON(t, h, http.MethodDelete, "/accounts/no-such-id", token, nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown account delete returned %d, want 404", w.Code)
	}

	// Domain validation maps to 400.
	if w := doJSON(t, h, http.MethodPost, "/accounts", token, map[string]any{
		"name": "Wallet", "type": "CASH",
	}); w.Code != http.StatusBadRequest {
		t.Errorf("bad account type returned %d, want 400", w.Code)
	}

	if w := doJSON(t, h, http.MethodPost, "/accounts", token, map[string]any{
		"name": "Checking", "type": "BANK", "balance": 100,
	}); w.Code != http.StatusCreated {
		t.Errorf("create account returned %d: %s", w.Code, w.Body.String())
	}
}

func TestResourcesScopedPerUser(t *testing.T) {
	h := setup(t)
	janeToken := registerAndLogin(t, h, "jane@example.com", "hunter22")
	malloryToken := registerAndLogin(t, h, "mallory@example.com", "hunter22")

	w := doJSON(t, h, http.MethodPost, "/accounts", janeToken, map[string]any{
		"name": "Checking", "type": "BANK", "balance": 100,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create account returned %d: %s", w.Code, w.Body.String())
	}
	var account struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &account); err != nil {
		t.Fatalf("decoding account: %v", err)
	}

	// Another user's id behaves like a missing one.
	if w := doJSON(t, h, http.MethodDelete, "/accounts/"+account.ID, malloryToken, nil); w.Code != http.StatusNotFound {
		t.Errorf("foreign delete returned %d, want 404", w.Code)
	}
	if w := doJSON(t, h, http.MethodDelete, "/accounts/"+account.ID, janeToken, nil); w.Code != http.StatusOK {
		t.Errorf("owner delete returned %d, want 200", w.Code)
	}
}
