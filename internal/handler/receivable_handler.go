package handler

import (
	"net/http"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/dafibh/casa/casa-backend/internal/middleware"
	"github.com/dafibh/casa/casa-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// ReceivableHandler handles receivable-related HTTP requests
type ReceivableHandler struct {
	receivableService *service.ReceivableService
}

// NewReceivableHandler creates a new ReceivableHandler
func NewReceivableHandler(receivableService *service.ReceivableService) *ReceivableHandler {
	return &ReceivableHandler{receivableService: receivableService}
}

// CreateReceivableRequest represents the create receivable request body
type CreateReceivableRequest struct {
	Description  string   `json:"description" validate:"required,max=255"`
	Amount       string   `json:"amount" validate:"required"`
	Category     string   `json:"category" validate:"required"`
	DueDate      *string  `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	SplitBetween []string `json:"splitBetween" validate:"required,min=1"`
}

// UpdateReceivableRequest represents a partial receivable update
type UpdateReceivableRequest struct {
	Description  *string  `json:"description,omitempty" validate:"omitempty,max=255"`
	Amount       *string  `json:"amount,omitempty"`
	Category     *string  `json:"category,omitempty"`
	DueDate      *string  `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Status       *string  `json:"status,omitempty" validate:"omitempty,oneof=pending paid"`
	SplitBetween []string `json:"splitBetween,omitempty"`
}

// MarkReceivedRequest represents the mark received request body
type MarkReceivedRequest struct {
	ReceivedBy *string `json:"receivedBy,omitempty"`
}

// ReceivableResponse represents a receivable in API responses
type ReceivableResponse struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	Amount       string   `json:"amount"`
	Category     string   `json:"category"`
	DueDate      string   `json:"dueDate"`
	Status       string   `json:"status"`
	ReceivedDate *string  `json:"receivedDate,omitempty"`
	ReceivedBy   *string  `json:"receivedBy,omitempty"`
	SplitBetween []string `json:"splitBetween"`
	ShareAmount  string   `json:"shareAmount"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

// CreateReceivable godoc
// @Summary Create a receivable
// @Tags receivables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateReceivableRequest true "Receivable creation request"
// @Success 201 {object} ReceivableResponse
// @Failure 400 {object} ProblemDetails
// @Router /receivables [post]
func (h *ReceivableHandler) CreateReceivable(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateReceivableRequest
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

	receivable, err := h.receivableService.Create(c.Request().Context(), ownerID, service.CreateReceivableInput{
		Description:  req.Description,
		Amount:       amount,
		Category:     req.Category,
		DueDate:      dueDate,
		SplitBetween: req.SplitBetween,
	})
	if err != nil {
		return handleServiceError(c, err, ownerID, "create receivable")
	}
	return c.JSON(http.StatusCreated, toReceivableResponse(receivable))
}

// GetReceivables godoc
// @Summary List receivables
// @Tags receivables
// @Produce json
// @Security BearerAuth
// @Param month query string false "Month (YYYY-MM)"
// @Success 200 {array} ReceivableResponse
// @Router /receivables [get]
func (h *ReceivableHandler) GetReceivables(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	month, err := parseMonthParam(c)
	if err != nil {
		return handleServiceError(c, err, ownerID, "list receivables")
	}

	receivables, err := h.receivableService.List(c.Request().Context(), ownerID, month)
	if err != nil {
		return handleServiceError(c, err, ownerID, "list receivables")
	}

	response := make([]ReceivableResponse, len(receivables))
	for i, r := range receivables {
		response[i] = toReceivableResponse(r)
	}
	return c.JSON(http.StatusOK, response)
}

// GetReceivable godoc
// @Summary Get a receivable
// @Tags receivables
// @Produce json
// @Security BearerAuth
// @Param id path string true "Receivable ID"
// @Success 200 {object} ReceivableResponse
// @Failure 404 {object} ProblemDetails
// @Router /receivables/{id} [get]
func (h *ReceivableHandler) GetReceivable(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	receivable, err := h.receivableService.Get(c.Request().Context(), ownerID, c.Param("id"))
	if err != nil {
		return handleServiceError(c, err, ownerID, "get receivable")
	}
	return c.JSON(http.StatusOK, toReceivableResponse(receivable))
}

// UpdateReceivable godoc
// @Summary Update a receivable
// @Tags receivables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Receivable ID"
// @Param request body UpdateReceivableRequest true "Fields to change"
// @Success 200 {object} ReceivableResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /receivables/{id} [patch]
func (h *ReceivableHandler) UpdateReceivable(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req UpdateReceivableRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	patch := domain.ReceivablePatch{
		Description:  req.Description,
		Category:     req.Category,
		SplitBetween: req.SplitBetween,
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

	receivable, err := h.receivableService.Update(c.Request().Context(), ownerID, c.Param("id"), patch)
	if err != nil {
		return handleServiceError(c, err, ownerID, "update receivable")
	}
	return c.JSON(http.StatusOK, toReceivableResponse(receivable))
}

// MarkReceived godoc
// @Summary Mark a receivable as received
// @Tags receivables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Receivable ID"
// @Param request body MarkReceivedRequest false "Who received"
// @Success 200 {object} ReceivableResponse
// @Failure 404 {object} ProblemDetails
// @Router /receivables/{id}/receive [patch]
func (h *ReceivableHandler) MarkReceived(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req MarkReceivedRequest
	if c.Request().ContentLength > 0 {
		if err := bindRequest(c, &req); err != nil {
			return err
		}
	}

	receivable, err := h.receivableService.MarkReceived(c.Request().Context(), ownerID, c.Param("id"), req.ReceivedBy)
	if err != nil {
		return handleServiceError(c, err, ownerID, "mark receivable received")
	}
	return c.JSON(http.StatusOK, toReceivableResponse(receivable))
}

// DeleteReceivable godoc
// @Summary Delete a receivable
// @Tags receivables
// @Security BearerAuth
// @Param id path string true "Receivable ID"
// @Success 204
// @Router /receivables/{id} [delete]
func (h *ReceivableHandler) DeleteReceivable(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	if err := h.receivableService.Delete(c.Request().Context(), ownerID, c.Param("id")); err != nil {
		return handleServiceError(c, err, ownerID, "delete receivable")
	}
	return c.NoContent(http.StatusNoContent)
}

func toReceivableResponse(r *domain.Receivable) ReceivableResponse {
	split := r.SplitBetween
	if split == nil {
		split = []string{}
	}
	return ReceivableResponse{
		ID:           r.ID,
		Description:  r.Description,
		Amount:       domain.FormatMoney(r.Amount),
		Category:     r.Category,
		DueDate:      r.DueDate.Format(dateLayout),
		Status:       string(r.Status),
		ReceivedDate: formatTimePtr(r.ReceivedDate),
		ReceivedBy:   r.ReceivedBy,
		SplitBetween: split,
		ShareAmount:  shareAmount(r.Amount, split),
		CreatedAt:    r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
