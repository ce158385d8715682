package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/dafibh/casa/casa-backend/internal/service"
	"github.com/dafibh/casa/casa-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

var errTestDriver = errors.New("driver: connection refused")

type dashboardFixture struct {
	ownerID     uuid.UUID
	settings    *settingsFixture
	expenses    *testutil.MockExpenseRepository
	receivables *testutil.MockReceivableRepository
	handler     *DashboardHandler
}

func newDashboardFixture(t *testing.T) *dashboardFixture {
	t.Helper()
	settings := newSettingsFixture()
	ownerID := uuid.New()
	if err := settings.service.SeedDefaults(t.Context(), ownerID); err != nil {
		t.Fatalf("Failed to seed settings: %v", err)
	}
	expenses := testutil.NewMockExpenseRepository()
	receivables := testutil.NewMockReceivableRepository()
	return &dashboardFixture{
		ownerID:     ownerID,
		settings:    settings,
		expenses:    expenses,
		receivables: receivables,
		handler:     NewDashboardHandler(service.NewDashboardService(settings.service, expenses, receivables)),
	}
}

func (f *dashboardFixture) get(t *testing.T, target string) (*httptest.ResponseRecorder, DashboardSummaryResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), rec)
	setupOwnerContext(c, f.ownerID)

	if err := f.handler.GetSummary(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	var response DashboardSummaryResponse
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
	}
	return rec, response
}

func TestGetSummary_MonthWithOrphanShare(t *testing.T) {
	f := newDashboardFixture(t)
	f.settings.settings.Income[f.ownerID] = decimal.NewFromInt(1000)

	jan := func(day int) time.Time { return time.Date(2025, time.January, day, 0, 0, 0, 0, time.UTC) }
	f.expenses.AddExpense(f.ownerID, &domain.Expense{
		ID: "rent", Description: "Rent", Amount: decimal.NewFromInt(900), Kind: domain.ExpenseKindFixed,
		Category: "1", DueDate: jan(5), Status: domain.StatusPaid, SplitBetween: []string{"1", "2"},
	})
	f.expenses.AddExpense(f.ownerID, &domain.Expense{
		ID: "trip", Description: "Trip", Amount: decimal.NewFromInt(600), Kind: domain.ExpenseKindVariable,
		Category: "5", DueDate: jan(20), Status: domain.StatusPending, SplitBetween: []string{"1", "ghost"},
	})
	f.expenses.AddExpense(f.ownerID, &domain.Expense{
		ID: "feb", Description: "Next month", Amount: decimal.NewFromInt(5000), Kind: domain.ExpenseKindVariable,
		Category: "5", DueDate: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), Status: domain.StatusPending, SplitBetween: []string{"1"},
	})
	f.receivables.AddReceivable(f.ownerID, &domain.Receivable{
		ID: "refund", Description: "Refund", Amount: decimal.NewFromInt(100), Category: "6",
		DueDate: jan(15), Status: domain.StatusPending, SplitBetween: []string{"1"},
	})

	rec, response := f.get(t, "/api/v1/dashboard/summary?month=2025-01")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if response.Month != "2025-01" {
		t.Errorf("Expected month '2025-01', got %s", response.Month)
	}
	if response.Expenses.Sum != "1500.00" || response.Expenses.PaidCount != 1 || response.Expenses.TotalCount != 2 {
		t.Errorf("Unexpected expense totals: %+v", response.Expenses)
	}
	if response.Receivables.Sum != "100.00" {
		t.Errorf("Expected receivables sum '100.00', got %s", response.Receivables.Sum)
	}
	if response.ProjectedBalance != "-400.00" {
		t.Errorf("Expected projected balance '-400.00', got %s", response.ProjectedBalance)
	}
	if !response.IsNegative {
		t.Error("Expected isNegative to be true")
	}
	if !response.IsHistorical {
		t.Error("Expected January 2025 to be historical")
	}
	if len(response.PendingExpenses) != 1 || response.PendingExpenses[0].ID != "trip" {
		t.Errorf("Expected only 'trip' pending, got %+v", response.PendingExpenses)
	}

	want := []PersonShareResponse{
		{PersonID: "1", Name: "Pessoa 1", Amount: "750.00"},
		{PersonID: "2", Name: "Pessoa 2", Amount: "450.00"},
		{PersonID: "ghost", Amount: "300.00", Orphan: true},
	}
	if len(response.Shares) != len(want) {
		t.Fatalf("Expected %d shares, got %+v", len(want), response.Shares)
	}
	for i := range want {
		if response.Shares[i] != want[i] {
			t.Errorf("Share %d: expected %+v, got %+v", i, want[i], response.Shares[i])
		}
	}
}

func TestGetSummary_DefaultsToCurrentMonth(t *testing.T) {
	f := newDashboardFixture(t)

	rec, response := f.get(t, "/api/v1/dashboard/summary")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if response.Month != domain.CurrentMonth().String() {
		t.Errorf("Expected current month %s, got %s", domain.CurrentMonth(), response.Month)
	}
	if response.IsHistorical {
		t.Error("Expected the current month not to be historical")
	}
	if response.ProjectedBalance != "0.00" {
		t.Errorf("Expected zero projected balance, got %s", response.ProjectedBalance)
	}
	if response.PendingExpenses == nil || response.Shares == nil {
		t.Error("Expected empty lists rather than null")
	}
}

func TestGetSummary_InvalidMonth(t *testing.T) {
	f := newDashboardFixture(t)

	rec, _ := f.get(t, "/api/v1/dashboard/summary?month=january")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestGetSummary_RepositoryFailure(t *testing.T) {
	f := newDashboardFixture(t)
	f.expenses.ListErr = domain.NewRepositoryError("list expenses", errTestDriver)

	rec, _ := f.get(t, "/api/v1/dashboard/summary")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
}
