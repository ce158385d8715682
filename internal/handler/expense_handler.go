package handler

import (
	"net/http"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/dafibh/casa/casa-backend/internal/finance"
	"github.com/dafibh/casa/casa-backend/internal/middleware"
	"github.com/dafibh/casa/casa-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// ExpenseHandler handles expense-related HTTP requests
type ExpenseHandler struct {
	expenseService *service.ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(expenseService *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// InstallmentsRequest is the installment position of an installment expense
type InstallmentsRequest struct {
	Current int `json:"current" validate:"gte=1"`
	Total   int `json:"total" validate:"gte=1"`
}

// CreateExpenseRequest represents the create expense request body
type CreateExpenseRequest struct {
	Description  string               `json:"description" validate:"required,max=255"`
	Amount       string               `json:"amount" validate:"required"`
	Kind         string               `json:"kind" validate:"required,oneof=fixed variable installment"`
	Category     string               `json:"category" validate:"required"`
	IsEssential  bool                 `json:"isEssential"`
	DueDate      *string              `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	SplitBetween []string             `json:"splitBetween" validate:"required,min=1"`
	Installments *InstallmentsRequest `json:"installments,omitempty"`
}

// UpdateExpenseRequest represents a partial expense update. Omitted fields are unchanged.
type UpdateExpenseRequest struct {
	Description  *string              `json:"description,omitempty" validate:"omitempty,max=255"`
	Amount       *string              `json:"amount,omitempty"`
	Kind         *string              `json:"kind,omitempty" validate:"omitempty,oneof=fixed variable installment"`
	Category     *string              `json:"category,omitempty"`
	IsEssential  *bool                `json:"isEssential,omitempty"`
	DueDate      *string              `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Status       *string              `json:"status,omitempty" validate:"omitempty,oneof=pending paid"`
	SplitBetween []string             `json:"splitBetween,omitempty"`
	Installments *InstallmentsRequest `json:"installments,omitempty"`
}

// MarkPaidRequest represents the mark paid request body
type MarkPaidRequest struct {
	PaidBy *string `json:"paidBy,omitempty"`
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID           string               `json:"id"`
	Description  string               `json:"description"`
	Amount       string               `json:"amount"`
	Kind         string               `json:"kind"`
	Category     string               `json:"category"`
	IsEssential  bool                 `json:"isEssential"`
	DueDate      string               `json:"dueDate"`
	Status       string               `json:"status"`
	PaidDate     *string              `json:"paidDate,omitempty"`
	PaidBy       *string              `json:"paidBy,omitempty"`
	SplitBetween []string             `json:"splitBetween"`
	ShareAmount  string               `json:"shareAmount"`
	Installments *InstallmentsRequest `json:"installments,omitempty"`
	HasReceipt   bool                 `json:"hasReceipt"`
	CreatedAt    string               `json:"createdAt"`
	UpdatedAt    string               `json:"updatedAt"`
}

// CreateExpense godoc
// @Summary Create an expense
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateExpenseRequest true "Expense creation request"
// @Success 201 {object} ExpenseResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /expenses [post]
func (h *ExpenseHandler) CreateExpense(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateExpenseRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Must be a decimal number"},
		})
	}
	dueDate, err := parseOptionalDate(req.DueDate)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "dueDate", Message: "Must be a date in YYYY-MM-DD format"},
		})
	}

	expense, err := h.expenseService.Create(c.Request().Context(), ownerID, service.CreateExpenseInput{
		Description:  req.Description,
		Amount:       amount,
		Kind:         domain.ExpenseKind(req.Kind),
		Category:     req.Category,
		IsEssential:  req.IsEssential,
		DueDate:      dueDate,
		SplitBetween: req.SplitBetween,
		Installments: toInstallments(req.Installments),
	})
	if err != nil {
		return handleServiceError(c, err, ownerID, "create expense")
	}

	return c.JSON(http.StatusCreated, toExpenseResponse(expense))
}

// GetExpenses godoc
// @Summary List expenses
// @Description List expenses in insertion order, optionally limited to one month or to essential expenses
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param month query string false "Month (YYYY-MM)"
// @Param essential query bool false "Only essential expenses"
// @Success 200 {array} ExpenseResponse
// @Failure 400 {object} ProblemDetails
// @Router /expenses [get]
func (h *ExpenseHandler) GetExpenses(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	month, err := parseMonthParam(c)
	if err != nil {
		return handleServiceError(c, err, ownerID, "list expenses")
	}

	expenses, err := h.expenseService.List(c.Request().Context(), ownerID, service.ExpenseFilter{
		Month:         month,
		EssentialOnly: c.QueryParam("essential") == "true",
	})
	if err != nil {
		return handleServiceError(c, err, ownerID, "list expenses")
	}

	response := make([]ExpenseResponse, len(expenses))
	for i, e := range expenses {
		response[i] = toExpenseResponse(e)
	}
	return c.JSON(http.StatusOK, response)
}

// GetExpense godoc
// @Summary Get an expense
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Expense ID"
// @Success 200 {object} ExpenseResponse
// @Failure 404 {object} ProblemDetails
// @Router /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	expense, err := h.expenseService.Get(c.Request().Context(), ownerID, c.Param("id"))
	if err != nil {
		return handleServiceError(c, err, ownerID, "get expense")
	}
	return c.JSON(http.StatusOK, toExpenseResponse(expense))
}

// UpdateExpense godoc
// @Summary Update an expense
// @Description Apply a partial update. Omitted fields keep their value.
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Expense ID"
// @Param request body UpdateExpenseRequest true "Fields to change"
// @Success 200 {object} ExpenseResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /expenses/{id} [patch]
func (h *ExpenseHandler) UpdateExpense(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req UpdateExpenseRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	patch := domain.ExpensePatch{
		Description:  req.Description,
		Category:     req.Category,
		IsEssential:  req.IsEssential,
		SplitBetween: req.SplitBetween,
		Installments: toInstallments(req.Installments),
	}
	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "amount", Message: "Must be a decimal number"},
			})
		}
		patch.Amount = &amount
	}
	if req.Kind != nil {
		kind := domain.ExpenseKind(*req.Kind)
		patch.Kind = &kind
	}
	if req.Status != nil {
		status := domain.ItemStatus(*req.Status)
		patch.Status = &status
	}
	dueDate, err := parseOptionalDate(req.DueDate)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "dueDate", Message: "Must be a date in YYYY-MM-DD format"},
		})
	}
	patch.DueDate = dueDate

	expense, err := h.expenseService.Update(c.Request().Context(), ownerID, c.Param("id"), patch)
	if err != nil {
		return handleServiceError(c, err, ownerID, "update expense")
	}
	return c.JSON(http.StatusOK, toExpenseResponse(expense))
}

// MarkPaid godoc
// @Summary Mark an expense as paid
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Expense ID"
// @Param request body MarkPaidRequest false "Who paid"
// @Success 200 {object} ExpenseResponse
// @Failure 404 {object} ProblemDetails
// @Router /expenses/{id}/pay [patch]
func (h *ExpenseHandler) MarkPaid(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req MarkPaidRequest
	if c.Request().ContentLength > 0 {
		if err := bindRequest(c, &req); err != nil {
			return err
		}
	}

	expense, err := h.expenseService.MarkPaid(c.Request().Context(), ownerID, c.Param("id"), req.PaidBy)
	if err != nil {
		return handleServiceError(c, err, ownerID, "mark expense paid")
	}
	return c.JSON(http.StatusOK, toExpenseResponse(expense))
}

// NextInstallment godoc
// @Summary Create the next installment
// @Description Create the following installment, due one month later
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Expense ID"
// @Success 201 {object} ExpenseResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /expenses/{id}/next-installment [post]
func (h *ExpenseHandler) NextInstallment(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	expense, err := h.expenseService.AdvanceInstallment(c.Request().Context(), ownerID, c.Param("id"))
	if err != nil {
		return handleServiceError(c, err, ownerID, "create next installment")
	}
	return c.JSON(http.StatusCreated, toExpenseResponse(expense))
}

// DeleteExpense godoc
// @Summary Delete an expense
// @Tags expenses
// @Security BearerAuth
// @Param id path string true "Expense ID"
// @Success 204
// @Router /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	if err := h.expenseService.Delete(c.Request().Context(), ownerID, c.Param("id")); err != nil {
		return handleServiceError(c, err, ownerID, "delete expense")
	}
	return c.NoContent(http.StatusNoContent)
}

func toInstallments(req *InstallmentsRequest) *domain.Installments {
	if req == nil {
		return nil
	}
	return &domain.Installments{Current: req.Current, Total: req.Total}
}

func toExpenseResponse(e *domain.Expense) ExpenseResponse {
	var installments *InstallmentsRequest
	if e.Installments != nil {
		installments = &InstallmentsRequest{Current: e.Installments.Current, Total: e.Installments.Total}
	}
	split := e.SplitBetween
	if split == nil {
		split = []string{}
	}

	return ExpenseResponse{
		ID:           e.ID,
		Description:  e.Description,
		Amount:       domain.FormatMoney(e.Amount),
		Kind:         string(e.Kind),
		Category:     e.Category,
		IsEssential:  e.IsEssential,
		DueDate:      e.DueDate.Format(dateLayout),
		Status:       string(e.Status),
		PaidDate:     formatTimePtr(e.PaidDate),
		PaidBy:       e.PaidBy,
		SplitBetween: split,
		ShareAmount:  shareAmount(e.Amount, split),
		Installments: installments,
		HasReceipt:   e.ReceiptPath != nil,
		CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// shareAmount is each participant's rounded share, or "0.00" for an empty split
func shareAmount(total decimal.Decimal, split []string) string {
	share, err := finance.ShareAmount(total, len(split))
	if err != nil {
		return domain.FormatMoney(decimal.Zero)
	}
	return domain.FormatMoney(share)
}
