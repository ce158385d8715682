package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrValidation         = errors.New("validation failed")
	ErrRepository         = errors.New("repository failure")
	ErrInvalidSplit       = errors.New("split requires at least one participant")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Not found errors
var (
	ErrExpenseNotFound    = fmt.Errorf("expense %w", ErrNotFound)
	ErrReceivableNotFound = fmt.Errorf("receivable %w", ErrNotFound)
	ErrPersonNotFound     = fmt.Errorf("person %w", ErrNotFound)
	ErrCategoryNotFound   = fmt.Errorf("category %w", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
)

// Validation errors. All of them match ErrValidation with errors.Is.
var (
	ErrDescriptionRequired    = validationError("description is required")
	ErrDescriptionTooLong     = validationError("description exceeds maximum length")
	ErrInvalidAmount          = validationError("amount must be greater than zero")
	ErrAmountPrecision        = validationError("amount must have at most two decimal places")
	ErrIncomePrecision        = validationError("monthly income must have at most two decimal places")
	ErrCategoryRequired       = validationError("category is required")
	ErrSplitRequired          = validationError("split must include at least one person")
	ErrUnknownPerson          = validationError("split references an unknown person")
	ErrInvalidExpenseKind     = validationError("kind must be one of: fixed, variable, installment")
	ErrInstallmentsRequired   = validationError("installments are required for installment expenses")
	ErrInstallmentsNotAllowed = validationError("installments are only allowed for installment expenses")
	ErrInvalidInstallments    = validationError("installments must satisfy 1 <= current <= total")
	ErrLastInstallment        = validationError("expense is already on its last installment")
	ErrInvalidStatus          = validationError("status must be one of: pending, paid")
	ErrNameRequired           = validationError("name is required")
	ErrNameTooLong            = validationError("name exceeds maximum length")
	ErrInvalidIncome          = validationError("monthly income must be zero or positive")
	ErrInvalidCategoryKind    = validationError("category kind must be one of: expense, income")
	ErrLastPerson             = validationError("at least one person must remain")
	ErrInvalidMonth           = validationError("month must be in YYYY-MM format")
	ErrInvalidEmail           = validationError("email is invalid")
	ErrWeakPassword           = validationError("password must be at least 8 characters")
)

// Validation constants
const (
	MaxDescriptionLength = 255
	MaxNameLength        = 100
	MinPasswordLength    = 8
)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// RepositoryError wraps a storage backend failure.
type RepositoryError struct {
	Op  string
	Err error
}

// NewRepositoryError wraps err unless it is nil or already a domain error
// that callers branch on (not found, duplicate email).
func NewRepositoryError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrEmailExists) {
		return err
	}
	var repoErr *RepositoryError
	if errors.As(err, &repoErr) {
		return err
	}
	return &RepositoryError{Op: op, Err: err}
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// Is makes every RepositoryError match ErrRepository.
func (e *RepositoryError) Is(target error) bool {
	return target == ErrRepository
}
