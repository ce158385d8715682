package handler

import (
	"net/http"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/dafibh/casa/casa-backend/internal/middleware"
	"github.com/dafibh/casa/casa-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// SettingsHandler handles settings, people and category requests
type SettingsHandler struct {
	settingsService *service.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// UpdateIncomeRequest represents the monthly income update body
type UpdateIncomeRequest struct {
	MonthlyIncome string `json:"monthlyIncome" validate:"required"`
}

// NameRequest is the body of person and category renames
type NameRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// CreateCategoryRequest represents the create category body
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Kind string `json:"kind" validate:"required,oneof=expense income"`
}

// SettingsResponse represents the owner's settings in API responses
type SettingsResponse struct {
	MonthlyIncome     string            `json:"monthlyIncome"`
	People            []domain.Person   `json:"people"`
	ExpenseCategories []domain.Category `json:"expenseCategories"`
	IncomeCategories  []domain.Category `json:"incomeCategories"`
}

// GetSettings godoc
// @Summary Get settings
// @Description Returns the monthly income, people and categories
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SettingsResponse
// @Router /settings [get]
func (h *SettingsHandler) GetSettings(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	settings, err := h.settingsService.Get(c.Request().Context(), ownerID)
	if err != nil {
		return handleServiceError(c, err, ownerID, "get settings")
	}
	return c.JSON(http.StatusOK, toSettingsResponse(settings))
}

// UpdateIncome godoc
// @Summary Update monthly income
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateIncomeRequest true "New income"
// @Success 200 {object} SettingsResponse
// @Failure 400 {object} ProblemDetails
// @Router /settings/income [put]
func (h *SettingsHandler) UpdateIncome(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req UpdateIncomeRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	income, err := decimal.NewFromString(req.MonthlyIncome)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "monthlyIncome", Message: "Must be a decimal number"},
		})
	}

	settings, err := h.settingsService.UpdateMonthlyIncome(c.Request().Context(), ownerID, income)
	if err != nil {
		return handleServiceError(c, err, ownerID, "update monthly income")
	}
	return c.JSON(http.StatusOK, toSettingsResponse(settings))
}

// AddPerson godoc
// @Summary Add a person
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body NameRequest true "Person name"
// @Success 201 {object} domain.Person
// @Failure 400 {object} ProblemDetails
// @Router /settings/people [post]
func (h *SettingsHandler) AddPerson(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req NameRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	person, err := h.settingsService.AddPerson(c.Request().Context(), ownerID, req.Name)
	if err != nil {
		return handleServiceError(c, err, ownerID, "add person")
	}
	return c.JSON(http.StatusCreated, person)
}

// RenamePerson godoc
// @Summary Rename a person
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Person ID"
// @Param request body NameRequest true "New name"
// @Success 200 {object} domain.Person
// @Failure 404 {object} ProblemDetails
// @Router /settings/people/{id} [patch]
func (h *SettingsHandler) RenamePerson(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req NameRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	person, err := h.settingsService.RenamePerson(c.Request().Context(), ownerID, c.Param("id"), req.Name)
	if err != nil {
		return handleServiceError(c, err, ownerID, "rename person")
	}
	return c.JSON(http.StatusOK, person)
}

// RemovePerson godoc
// @Summary Remove a person
// @Description Expenses still split with the person keep the id as an orphan
// @Tags settings
// @Security BearerAuth
// @Param id path string true "Person ID"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Router /settings/people/{id} [delete]
func (h *SettingsHandler) RemovePerson(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	if err := h.settingsService.RemovePerson(c.Request().Context(), ownerID, c.Param("id")); err != nil {
		return handleServiceError(c, err, ownerID, "remove person")
	}
	return c.NoContent(http.StatusNoContent)
}

// AddCategory godoc
// @Summary Add a category
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCategoryRequest true "Category"
// @Success 201 {object} domain.Category
// @Failure 400 {object} ProblemDetails
// @Router /settings/categories [post]
func (h *SettingsHandler) AddCategory(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateCategoryRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	category, err := h.settingsService.AddCategory(c.Request().Context(), ownerID, req.Name, domain.CategoryKind(req.Kind))
	if err != nil {
		return handleServiceError(c, err, ownerID, "add category")
	}
	return c.JSON(http.StatusCreated, category)
}

// RenameCategory godoc
// @Summary Rename a category
// @Tags settings
// @Accept json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Param request body NameRequest true "New name"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Router /settings/categories/{id} [patch]
func (h *SettingsHandler) RenameCategory(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req NameRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	if err := h.settingsService.RenameCategory(c.Request().Context(), ownerID, c.Param("id"), req.Name); err != nil {
		return handleServiceError(c, err, ownerID, "rename category")
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveCategory godoc
// @Summary Remove a category
// @Tags settings
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 204
// @Router /settings/categories/{id} [delete]
func (h *SettingsHandler) RemoveCategory(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	if err := h.settingsService.RemoveCategory(c.Request().Context(), ownerID, c.Param("id")); err != nil {
		return handleServiceError(c, err, ownerID, "remove category")
	}
	return c.NoContent(http.StatusNoContent)
}

func toSettingsResponse(s *domain.Settings) SettingsResponse {
	return SettingsResponse{
		MonthlyIncome:     domain.FormatMoney(s.MonthlyIncome),
		People:            s.People,
		ExpenseCategories: s.ExpenseCategories,
		IncomeCategories:  s.IncomeCategories,
	}
}
