package handler

import (
	"io"
	"net/http"

	"github.com/dafibh/casa/casa-backend/internal/middleware"
	"github.com/dafibh/casa/casa-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ReceiptHandler handles receipt photo uploads for expenses
type ReceiptHandler struct {
	receiptService *service.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler. receiptService may be nil
// when object storage is not configured.
func NewReceiptHandler(receiptService *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// UploadReceipt godoc
// @Summary Attach a receipt photo to an expense
// @Description Accepts JPEG, PNG or WebP up to 5MB. Replaces any previous receipt.
// @Tags receipts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Expense ID"
// @Param file formData file true "Receipt image"
// @Success 201 {object} ExpenseResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /expenses/{id}/receipt [post]
func (h *ReceiptHandler) UploadReceipt(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	// A nil service would panic on the missing store
	if !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipt uploads are disabled (storage not configured)")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}
	if file.Size > service.MaxReceiptSize {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "file", Message: "File too large. Maximum size is 5MB"},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return NewInternalError(c, "Failed to read file")
	}

	expense, err := h.receiptService.Upload(c.Request().Context(), ownerID, c.Param("id"), data, file.Filename)
	if err != nil {
		return handleServiceError(c, err, ownerID, "upload receipt")
	}

	log.Info().
		Str("owner_id", ownerID.String()).
		Str("expense_id", expense.ID).
		Msg("Receipt uploaded successfully")

	return c.JSON(http.StatusCreated, toExpenseResponse(expense))
}

// GetReceipt godoc
// @Summary Get presigned links to an expense's receipt
// @Tags receipts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Expense ID"
// @Success 200 {object} service.ReceiptURLs
// @Failure 404 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /expenses/{id}/receipt [get]
func (h *ReceiptHandler) GetReceipt(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	urls, err := h.receiptService.URLs(c.Request().Context(), ownerID, c.Param("id"))
	if err != nil {
		return handleServiceError(c, err, ownerID, "get receipt")
	}
	return c.JSON(http.StatusOK, urls)
}
