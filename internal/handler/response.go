package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/dafibh/casa/casa-backend/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://casa.app/errors/validation"
	ErrorTypeNotFound     = "https://casa.app/errors/not-found"
	ErrorTypeUnauthorized = "https://casa.app/errors/unauthorized"
	ErrorTypeForbidden    = "https://casa.app/errors/forbidden"
	ErrorTypeConflict     = "https://casa.app/errors/conflict"
	ErrorTypeUnavailable  = "https://casa.app/errors/unavailable"
	ErrorTypeInternal     = "https://casa.app/errors/internal"
)

const dateLayout = "2006-01-02"

func problem(c echo.Context, status int, errorType, title, detail string, errs []ValidationError) error {
	return c.JSON(status, ProblemDetails{
		Type:     errorType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errs,
	})
}

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return problem(c, http.StatusBadRequest, ErrorTypeValidation, "Validation Error", detail, errors)
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return problem(c, http.StatusNotFound, ErrorTypeNotFound, "Not Found", detail, nil)
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return problem(c, http.StatusUnauthorized, ErrorTypeUnauthorized, "Unauthorized", detail, nil)
}

// NewForbiddenError creates a forbidden error response
func NewForbiddenError(c echo.Context, detail string) error {
	return problem(c, http.StatusForbidden, ErrorTypeForbidden, "Forbidden", detail, nil)
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return problem(c, http.StatusConflict, ErrorTypeConflict, "Conflict", detail, nil)
}

// NewServiceUnavailableError creates a service unavailable error response
func NewServiceUnavailableError(c echo.Context, detail string) error {
	return problem(c, http.StatusServiceUnavailable, ErrorTypeUnavailable, "Service Unavailable", detail, nil)
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return problem(c, http.StatusInternalServerError, ErrorTypeInternal, "Internal Server Error", detail, nil)
}

// errorFields maps domain validation errors to the request field they concern
var errorFields = []struct {
	err   error
	field string
}{
	{domain.ErrDescriptionRequired, "description"},
	{domain.ErrDescriptionTooLong, "description"},
	{domain.ErrInvalidAmount, "amount"},
	{domain.ErrAmountPrecision, "amount"},
	{domain.ErrCategoryRequired, "category"},
	{domain.ErrSplitRequired, "splitBetween"},
	{domain.ErrUnknownPerson, "splitBetween"},
	{domain.ErrInvalidExpenseKind, "kind"},
	{domain.ErrInstallmentsRequired, "installments"},
	{domain.ErrInstallmentsNotAllowed, "installments"},
	{domain.ErrInvalidInstallments, "installments"},
	{domain.ErrLastInstallment, "installments"},
	{domain.ErrInvalidStatus, "status"},
	{domain.ErrNameRequired, "name"},
	{domain.ErrNameTooLong, "name"},
	{domain.ErrInvalidIncome, "monthlyIncome"},
	{domain.ErrIncomePrecision, "monthlyIncome"},
	{domain.ErrInvalidCategoryKind, "kind"},
	{domain.ErrLastPerson, "id"},
	{domain.ErrInvalidMonth, "month"},
	{domain.ErrInvalidEmail, "email"},
	{domain.ErrWeakPassword, "password"},
	{service.ErrReceiptTooLarge, "file"},
	{service.ErrReceiptTooSmall, "file"},
	{service.ErrInvalidFormat, "file"},
	{service.ErrInvalidImageData, "file"},
}

// validationErrorFor builds the field error for a domain validation error
func validationErrorFor(err error) []ValidationError {
	message := strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")
	for _, m := range errorFields {
		if errors.Is(err, m.err) {
			return []ValidationError{{Field: m.field, Message: message}}
		}
	}
	return nil
}

// handleServiceError translates a service error into a problem response.
// Unexpected errors are logged with the owner id and reported as 500.
func handleServiceError(c echo.Context, err error, ownerID uuid.UUID, action string) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return NewValidationError(c, "Validation failed", validationErrorFor(err))
	case errors.Is(err, domain.ErrNotFound):
		return NewNotFoundError(c, capitalize(err.Error()))
	case errors.Is(err, domain.ErrEmailExists):
		return NewConflictError(c, "Email already registered")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return NewUnauthorizedError(c, "Invalid email or password")
	case errors.Is(err, service.ErrLocalAuthDisabled):
		return NewForbiddenError(c, "Local authentication is disabled")
	case errors.Is(err, service.ErrStorageNotConfigured):
		return NewServiceUnavailableError(c, "Receipt uploads are disabled (storage not configured)")
	}

	log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to " + action)
	return NewInternalError(c, "Failed to "+action)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Use JSON tag names for field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindRequest binds the body into req and runs its validate tags. A non-nil
// result is the problem response to return.
func bindRequest(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return NewValidationError(c, "Invalid request body", nil)
		}
		details := make([]ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, ValidationError{Field: fe.Field(), Message: validationMessage(fe)})
		}
		return NewValidationError(c, "Validation failed", details)
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if fe.Kind() == reflect.String {
			return "Must be at least " + fe.Param() + " characters"
		}
		return "Must have at least " + fe.Param() + " items"
	case "max":
		return "Must be at most " + fe.Param() + " characters"
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "datetime":
		return "Must be a date in YYYY-MM-DD format"
	case "gte":
		return "Must be greater than or equal to " + fe.Param()
	default:
		return "Invalid value"
	}
}

// parseOptionalDate parses a YYYY-MM-DD date. Nil and empty input yield nil.
func parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, *value, time.UTC)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseMonthParam reads the optional month query parameter
func parseMonthParam(c echo.Context) (*domain.CalendarMonth, error) {
	raw := c.QueryParam("month")
	if raw == "" {
		return nil, nil
	}
	month, err := domain.ParseCalendarMonth(raw)
	if err != nil {
		return nil, err
	}
	return &month, nil
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
