package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/auth"
	"github.com/dafibh/casa/casa-backend/internal/middleware"
	"github.com/dafibh/casa/casa-backend/internal/service"
	"github.com/dafibh/casa/casa-backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	tokens := auth.NewTokenManager(testJWTSecret, time.Hour)
	settings := newSettingsFixture()
	expenses := testutil.NewMockExpenseRepository()
	receivables := testutil.NewMockReceivableRepository()

	authService := service.NewAuthService(testutil.NewMockUserRepository(), settings.service, tokens)
	expenseService := service.NewExpenseService(expenses, settings.people)
	receivableService := service.NewReceivableService(receivables, settings.people)
	dashboardService := service.NewDashboardService(settings.service, expenses, receivables)

	limiter := middleware.NewRateLimiterWithConfig(600, 100)
	t.Cleanup(limiter.Stop)

	e := echo.New()
	RegisterRoutes(e, middleware.NewLocalAuthMiddleware(tokens), limiter, Handlers{
		Auth:       NewAuthHandler(authService),
		Expense:    NewExpenseHandler(expenseService),
		Receivable: NewReceivableHandler(receivableService),
		Settings:   NewSettingsHandler(settings.service),
		Dashboard:  NewDashboardHandler(dashboardService),
		Receipt:    NewReceiptHandler(nil),
		Servers:    APIServers("8080", ""),
	})
	return e
}

func serve(e *echo.Echo, method, target, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = newJSONRequest(method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_SignupThenTrackMonth(t *testing.T) {
	e := newTestServer(t)

	rec := serve(e, http.MethodPost, "/api/v1/auth/signup", "", `{"email":"casa@example.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var signup AuthTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signup))
	token := signup.Token

	rec = serve(e, http.MethodPut, "/api/v1/settings/income", token, `{"monthlyIncome":"3000"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(e, http.MethodPost, "/api/v1/expenses", token,
		`{"description":"Rent","amount":"1200","kind":"fixed","category":"1","dueDate":"2025-01-10","splitBetween":["1"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(e, http.MethodPost, "/api/v1/receivables", token,
		`{"description":"Refund","amount":"500","category":"6","dueDate":"2025-01-20","splitBetween":["1"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(e, http.MethodGet, "/api/v1/dashboard/summary?month=2025-01", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary DashboardSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "2300.00", summary.ProjectedBalance)
	assert.False(t, summary.IsNegative)

	rec = serve(e, http.MethodGet, "/api/v1/auth/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "casa@example.com")
}

func TestRoutes_RequireToken(t *testing.T) {
	e := newTestServer(t)

	for _, target := range []string{"/api/v1/expenses", "/api/v1/receivables", "/api/v1/settings", "/api/v1/dashboard/summary", "/api/v1/auth/me"} {
		rec := serve(e, http.MethodGet, target, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}

	rec := serve(e, http.MethodGet, "/api/v1/expenses", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoutes_OwnersAreIsolated(t *testing.T) {
	e := newTestServer(t)

	signup := func(email string) string {
		rec := serve(e, http.MethodPost, "/api/v1/auth/signup", "", `{"email":"`+email+`","password":"correct-horse"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		var response AuthTokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		return response.Token
	}
	first := signup("first@example.com")
	second := signup("second@example.com")

	rec := serve(e, http.MethodPost, "/api/v1/expenses", first,
		`{"description":"Rent","amount":"1200","kind":"fixed","category":"1","splitBetween":["1"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created ExpenseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = serve(e, http.MethodGet, "/api/v1/expenses/"+created.ID, second, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(e, http.MethodGet, "/api/v1/expenses", second, "")
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestRoutes_OpenAPIDocument(t *testing.T) {
	e := newTestServer(t)

	rec := serve(e, http.MethodGet, "/openapi.json", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc OpenAPI3Spec
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc.OpenAPI)
	assert.Contains(t, doc.Paths, "/expenses")
	assert.Contains(t, doc.Paths, "/dashboard/summary")
	require.Len(t, doc.Servers, 1)
	assert.Equal(t, "http://localhost:8080/api/v1", doc.Servers[0].URL)
	assert.NotContains(t, rec.Body.String(), "#/definitions/")
}
