package handler

import (
	"encoding/json"
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

func newReceivableFixture(t *testing.T) (uuid.UUID, *testutil.MockReceivableRepository, *ReceivableHandler) {
	t.Helper()
	settings := newSettingsFixture()
	ownerID := uuid.New()
	if err := settings.service.SeedDefaults(t.Context(), ownerID); err != nil {
		t.Fatalf("Failed to seed settings: %v", err)
	}
	repo := testutil.NewMockReceivableRepository()
	return ownerID, repo, NewReceivableHandler(service.NewReceivableService(repo, settings.people))
}

func TestCreateReceivable_Success(t *testing.T) {
	e := echo.New()
	ownerID, repo, handler := newReceivableFixture(t)

	body := `{"description":"Refund","amount":"300","category":"6","dueDate":"2025-03-01","splitBetween":["1","2","1"]}`
	rec := httptest.NewRecorder()
	c := e.NewContext(newJSONRequest(http.MethodPost, "/api/v1/receivables", body), rec)
	setupOwnerContext(c, ownerID)

	if err := handler.CreateReceivable(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response ReceivableResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Amount != "300.00" {
		t.Errorf("Expected amount '300.00', got %s", response.Amount)
	}
	if len(response.SplitBetween) != 2 {
		t.Errorf("Expected duplicate participants to be collapsed, got %v", response.SplitBetween)
	}
	if response.ShareAmount != "150.00" {
		t.Errorf("Expected share '150.00', got %s", response.ShareAmount)
	}
	if repo.CreateCalls != 1 {
		t.Errorf("Expected 1 create call, got %d", repo.CreateCalls)
	}
}

func TestCreateReceivable_MissingFields(t *testing.T) {
	e := echo.New()
	ownerID, repo, handler := newReceivableFixture(t)

	rec := httptest.NewRecorder()
	c := e.NewContext(newJSONRequest(http.MethodPost, "/api/v1/receivables", `{"amount":"10"}`), rec)
	setupOwnerContext(c, ownerID)

	_ = handler.CreateReceivable(c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}
	if problem := decodeProblem(t, rec); len(problem.Errors) < 3 {
		t.Errorf("Expected description, category and splitBetween errors, got %+v", problem.Errors)
	}
	if repo.CreateCalls != 0 {
		t.Error("Expected nothing to be stored")
	}
}

func TestMarkReceived(t *testing.T) {
	e := echo.New()
	ownerID, repo, handler := newReceivableFixture(t)
	repo.AddReceivable(ownerID, &domain.Receivable{
		ID:           "refund",
		Description:  "Refund",
		Amount:       decimal.NewFromInt(80),
		Category:     "6",
		DueDate:      time.Now(),
		Status:       domain.StatusPending,
		SplitBetween: []string{"1"},
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(newJSONRequest(http.MethodPatch, "/api/v1/receivables/refund/receive", `{"receivedBy":"1"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues("refund")
	setupOwnerContext(c, ownerID)

	if err := handler.MarkReceived(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response ReceivableResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Status != string(domain.StatusPaid) {
		t.Errorf("Expected paid status, got %s", response.Status)
	}
	if response.ReceivedDate == nil {
		t.Error("Expected received date to be set")
	}
	if response.ReceivedBy == nil || *response.ReceivedBy != "1" {
		t.Errorf("Expected receivedBy '1', got %v", response.ReceivedBy)
	}
}

func TestMarkReceived_NotFound(t *testing.T) {
	e := echo.New()
	ownerID, _, handler := newReceivableFixture(t)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPatch, "/api/v1/receivables/missing/receive", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("missing")
	setupOwnerContext(c, ownerID)

	_ = handler.MarkReceived(c)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGetReceivables_FiltersByMonth(t *testing.T) {
	e := echo.New()
	ownerID, repo, handler := newReceivableFixture(t)
	for _, r := range []struct {
		id  string
		due time.Time
	}{
		{"march", time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)},
		{"april", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
	} {
		repo.AddReceivable(ownerID, &domain.Receivable{
			ID:           r.id,
			Description:  r.id,
			Amount:       decimal.NewFromInt(10),
			Category:     "6",
			DueDate:      r.due,
			Status:       domain.StatusPending,
			SplitBetween: []string{"1"},
		})
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/receivables?month=2025-03", nil), rec)
	setupOwnerContext(c, ownerID)

	if err := handler.GetReceivables(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response []ReceivableResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response) != 1 || response[0].ID != "march" {
		t.Errorf("Expected only the March receivable, got %+v", response)
	}
}

func TestDeleteReceivable(t *testing.T) {
	e := echo.New()
	ownerID, repo, handler := newReceivableFixture(t)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/v1/receivables/nope", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("nope")
	setupOwnerContext(c, ownerID)

	if err := handler.DeleteReceivable(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}
	if repo.DeleteCalls != 1 {
		t.Errorf("Expected 1 delete call, got %d", repo.DeleteCalls)
	}
}
