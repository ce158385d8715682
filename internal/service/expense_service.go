package service

import (
	"context"
	"strings"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/dafibh/casa/casa-backend/internal/finance"
	"github.com/dafibh/casa/casa-backend/internal/util"
	"github.com/dafibh/casa/casa-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ExpenseService handles expense-related business logic
type ExpenseService struct {
	eventEmitter
	expenseRepo domain.ExpenseRepository
	personRepo  domain.PersonRepository
	now         func() time.Time
}

// NewExpenseService creates a new ExpenseService. personRepo may be nil, in
// which case split ids are not checked against the people list.
func NewExpenseService(expenseRepo domain.ExpenseRepository, personRepo domain.PersonRepository) *ExpenseService {
	return &ExpenseService{
		expenseRepo: expenseRepo,
		personRepo:  personRepo,
		now:         utcNow,
	}
}

// CreateExpenseInput holds the input for creating an expense
type CreateExpenseInput struct {
	Description  string
	Amount       decimal.Decimal
	Kind         domain.ExpenseKind
	Category     string
	IsEssential  bool
	DueDate      *time.Time
	SplitBetween []string
	Installments *domain.Installments
}

// ExpenseFilter narrows List results
type ExpenseFilter struct {
	Month         *domain.CalendarMonth
	EssentialOnly bool
}

// Create validates and stores a new pending expense
func (s *ExpenseService) Create(ctx context.Context, ownerID uuid.UUID, input CreateExpenseInput) (*domain.Expense, error) {
	if ownerID == uuid.Nil {
		return nil, nil
	}

	dueDate := util.Today()
	if input.DueDate != nil {
		dueDate = *input.DueDate
	}

	installments := input.Installments
	if input.Kind == domain.ExpenseKindInstallment && installments == nil {
		installments = &domain.Installments{Current: 1, Total: 1}
	}

	expense := &domain.Expense{
		Description:  strings.TrimSpace(input.Description),
		Amount:       input.Amount,
		Kind:         input.Kind,
		Category:     strings.TrimSpace(input.Category),
		IsEssential:  input.IsEssential,
		DueDate:      dueDate,
		Status:       domain.StatusPending,
		SplitBetween: normalizeSplit(input.SplitBetween),
		Installments: installments,
	}

	if err := validateExpense(expense); err != nil {
		return nil, err
	}
	if err := checkKnownPeople(ctx, s.personRepo, ownerID, expense.SplitBetween); err != nil {
		return nil, err
	}

	created, err := s.expenseRepo.Create(ctx, ownerID, expense)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to create expense")
		return nil, err
	}

	s.publishEvent(ownerID, websocket.ExpenseCreated(created))
	return created, nil
}

// List returns the owner's expenses in storage order, optionally filtered
func (s *ExpenseService) List(ctx context.Context, ownerID uuid.UUID, filter ExpenseFilter) ([]*domain.Expense, error) {
	if ownerID == uuid.Nil {
		return nil, nil
	}

	expenses, err := s.expenseRepo.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if filter.Month != nil {
		expenses = finance.SelectForMonth(expenses, *filter.Month)
	}
	if filter.EssentialOnly {
		essential := make([]*domain.Expense, 0, len(expenses))
		for _, e := range expenses {
			if e.IsEssential {
				essential = append(essential, e)
			}
		}
		expenses = essential
	}
	return expenses, nil
}

// ListForMonth returns the expenses due in month
func (s *ExpenseService) ListForMonth(ctx context.Context, ownerID uuid.UUID, month domain.CalendarMonth) ([]*domain.Expense, error) {
	return s.List(ctx, ownerID, ExpenseFilter{Month: &month})
}

// Get retrieves a single expense
func (s *ExpenseService) Get(ctx context.Context, ownerID uuid.UUID, id string) (*domain.Expense, error) {
	if ownerID == uuid.Nil {
		return nil, nil
	}
	return s.expenseRepo.GetByID(ctx, ownerID, id)
}

// Update applies a patch after validating the patched expense as a whole
func (s *ExpenseService) Update(ctx context.Context, ownerID uuid.UUID, id string, patch domain.ExpensePatch) (*domain.Expense, error) {
	if ownerID == uuid.Nil {
		return nil, nil
	}

	if patch.Description != nil {
		trimmed := strings.TrimSpace(*patch.Description)
		patch.Description = &trimmed
	}
	if patch.Category != nil {
		trimmed := strings.TrimSpace(*patch.Category)
		patch.Category = &trimmed
	}
	if patch.SplitBetween != nil {
		patch.SplitBetween = normalizeSplit(patch.SplitBetween)
		if len(patch.SplitBetween) == 0 {
			return nil, domain.ErrSplitRequired
		}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if patch.Kind != nil && !patch.Kind.Valid() {
		return nil, domain.ErrInvalidExpenseKind
	}

	current, err := s.expenseRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return current, nil
	}

	// Leaving the installment kind drops the plan; entering it starts one
	if patch.Kind != nil && *patch.Kind != domain.ExpenseKindInstallment && patch.Installments == nil {
		patch.ClearInstallments = current.Installments != nil
	}
	if patch.Kind != nil && *patch.Kind == domain.ExpenseKindInstallment &&
		patch.Installments == nil && current.Installments == nil {
		patch.Installments = &domain.Installments{Current: 1, Total: 1}
	}

	updated := current.Clone()
	patch.Apply(updated)
	if err := validateExpense(updated); err != nil {
		return nil, err
	}
	if patch.SplitBetween != nil {
		if err := checkKnownPeople(ctx, s.personRepo, ownerID, patch.SplitBetween); err != nil {
			return nil, err
		}
	}

	if err := s.expenseRepo.Update(ctx, ownerID, id, patch); err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Str("expense_id", id).Msg("Failed to update expense")
		return nil, err
	}
	updated.UpdatedAt = s.now()

	s.publishEvent(ownerID, websocket.ExpenseUpdated(updated))
	return updated, nil
}

// MarkPaid moves an expense to paid and stamps the paid date. Other fields are untouched.
func (s *ExpenseService) MarkPaid(ctx context.Context, ownerID uuid.UUID, id string, paidBy *string) (*domain.Expense, error) {
	if ownerID == uuid.Nil {
		return nil, nil
	}

	paidBy = trimOptional(paidBy)
	if paidBy != nil {
		if err := checkKnownPeople(ctx, s.personRepo, ownerID, []string{*paidBy}); err != nil {
			return nil, err
		}
	}

	current, err := s.expenseRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	status := domain.StatusPaid
	paidAt := s.now()
	patch := domain.ExpensePatch{
		Status:   &status,
		PaidDate: &paidAt,
		PaidBy:   paidBy,
	}
	if err := s.expenseRepo.Update(ctx, ownerID, id, patch); err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Str("expense_id", id).Msg("Failed to mark expense paid")
		return nil, err
	}

	patch.Apply(current)
	s.publishEvent(ownerID, websocket.ExpensePaid(current))
	return current, nil
}

// AdvanceInstallment creates the next installment of an installment expense,
// due one month after it on the same day (clamped to the month's length)
func (s *ExpenseService) AdvanceInstallment(ctx context.Context, ownerID uuid.UUID, id string) (*domain.Expense, error) {
	if ownerID == uuid.Nil {
		return nil, nil
	}

	current, err := s.expenseRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if current.Kind != domain.ExpenseKindInstallment || current.Installments == nil {
		return nil, domain.ErrInstallmentsNotAllowed
	}
	if current.Installments.Current >= current.Installments.Total {
		return nil, domain.ErrLastInstallment
	}

	next := current.Clone()
	next.ID = ""
	next.Status = domain.StatusPending
	next.PaidDate = nil
	next.PaidBy = nil
	next.ReceiptPath = nil
	next.Installments.Current++

	nextMonth := domain.MonthOf(current.DueDate).Next()
	next.DueDate = util.CalculateActualDate(nextMonth.Year, nextMonth.Month, current.DueDate.Day())

	created, err := s.expenseRepo.Create(ctx, ownerID, next)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Str("expense_id", id).Msg("Failed to create next installment")
		return nil, err
	}

	s.publishEvent(ownerID, websocket.ExpenseCreated(created))
	return created, nil
}

// Delete removes an expense. Deleting a missing expense is not an error.
func (s *ExpenseService) Delete(ctx context.Context, ownerID uuid.UUID, id string) error {
	if ownerID == uuid.Nil {
		return nil
	}

	if err := s.expenseRepo.Delete(ctx, ownerID, id); err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Str("expense_id", id).Msg("Failed to delete expense")
		return err
	}

	s.publishEvent(ownerID, websocket.ExpenseDeleted(map[string]interface{}{"id": id}))
	return nil
}

func validateExpense(e *domain.Expense) error {
	if e.Description == "" {
		return domain.ErrDescriptionRequired
	}
	if len(e.Description) > domain.MaxDescriptionLength {
		return domain.ErrDescriptionTooLong
	}
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}
	if !domain.HasMoneyPrecision(e.Amount) {
		return domain.ErrAmountPrecision
	}
	if !e.Kind.Valid() {
		return domain.ErrInvalidExpenseKind
	}
	if e.Category == "" {
		return domain.ErrCategoryRequired
	}
	if len(e.SplitBetween) == 0 {
		return domain.ErrSplitRequired
	}
	if !e.Status.Valid() {
		return domain.ErrInvalidStatus
	}

	if e.Kind == domain.ExpenseKindInstallment {
		if e.Installments == nil {
			return domain.ErrInstallmentsRequired
		}
		if !e.Installments.Valid() {
			return domain.ErrInvalidInstallments
		}
	} else if e.Installments != nil {
		return domain.ErrInstallmentsNotAllowed
	}
	return nil
}
