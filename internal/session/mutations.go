package session

import (
	"context"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/dafibh/casa/casa-backend/internal/service"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// AddExpense creates an expense and appends it to the cache
func (s *Session) AddExpense(ctx context.Context, input service.CreateExpenseInput) (*domain.Expense, error) {
	owner := s.OwnerID()
	if owner == uuid.Nil {
		return nil, nil
	}

	created, err := s.services.Expenses.Create(ctx, owner, input)
	if err != nil {
		logFailure(err, owner, "Failed to add expense")
		return nil, err
	}

	s.mu.Lock()
	s.expenses = append(s.expenses, created.Clone())
	s.mu.Unlock()
	return created, nil
}

// UpdateExpense patches an expense and replaces the cached copy
func (s *Session) UpdateExpense(ctx context.Context, id string, patch domain.ExpensePatch) (*domain.Expense, error) {
	owner := s.OwnerID()
	if owner == uuid.Nil {
		return nil, nil
	}

	updated, err := s.services.Expenses.Update(ctx, owner, id, patch)
	if err != nil {
		logFailure(err, owner, "Failed to update expense")
		return nil, err
	}

	s.replaceExpense(updated)
	return updated, nil
}

// MarkExpensePaid marks an expense paid and replaces the cached copy
func (s *Session) MarkExpensePaid(ctx context.Context, id string, paidBy *string) (*domain.Expense, error) {
	owner := s.OwnerID()
	if owner == uuid.Nil {
		return nil, nil
	}

	paid, err := s.services.Expenses.MarkPaid(ctx, owner, id, paidBy)
	if err != nil {
		logFailure(err, owner, "Failed to mark expense paid")
		return nil, err
	}

	s.replaceExpense(paid)
	return paid, nil
}

// DeleteExpense deletes an expense and drops it from the cache
func (s *Session) DeleteExpense(ctx context.Context, id string) error {
	owner := s.OwnerID()
	if owner == uuid.Nil {
		return nil
	}

	if err := s.services.Expenses.Delete(ctx, owner, id); err != nil {
		logFailure(err, owner, "Failed to delete expense")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.expenses[:0:0]
	for _, e := range s.expenses {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.expenses = kept
	return nil
}

// AddReceivable creates a receivable and appends it to the cache
func (s *Session) AddReceivable(ctx context.Context, input service.CreateReceivableInput) (*domain.Receivable, error) {
	owner := s.OwnerID()
	if owner == uuid.Nil {
		return nil, nil
	}

	created, err := s.services.Receivables.Create(ctx, owner, input)
	if err != nil {
		logFailure(err, owner, "Failed to add receivable")
		return nil, err
	}

	s.mu.Lock()
	s.receivables = append(s.receivables, created.Clone())
	s.mu.Unlock()
	return created, nil
}

// UpdateReceivable patches a receivable and replaces the cached copy
func (s *Session) UpdateReceivable(ctx context.Context, id string, patch domain.ReceivablePatch) (*domain.Receivable, error) {
	owner := s.OwnerID()
	if owner == uuid.Nil {
		return nil, nil
	}

	updated, err := s.services.Receivables.Update(ctx, owner, id, patch)
	if err != nil {
		logFailure(err, owner, "Failed to update receivable")
		return nil, err
	}

	s.replaceReceivable(updated)
	return updated, nil
}

// MarkReceivableReceived marks a receivable received and replaces the cached copy
func (s *Session) MarkReceivableReceived(ctx context.Context, id string, receivedBy *string) (*domain.Receivable, error) {
	owner := s.OwnerID()
	if owner == uuid.Nil {
		return nil, nil
	}

	received, err := s.services.Receivables.MarkReceived(ctx, owner, id, receivedBy)
	if err != nil {
		logFailure(err, owner, "Failed to mark receivable received")
		return nil, err
	}

	s.replaceReceivable(received)
	return received, nil
}

// DeleteReceivable deletes a receivable and drops it from the cache
func (s *Session) DeleteReceivable(ctx context.Context, id string) error {
	owner := s.OwnerID()
	if owner == uuid.Nil {
		return nil
	}

	if err := s.services.Receivables.Delete(ctx, owner, id); err != nil {
		logFailure(err, owner, "Failed to delete receivable")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.receivables[:0:0]
	for _, r := range s.receivables {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	s.receivables = kept
	return nil
}

// SetMonthlyIncome stores the monthly income and refreshes cached settings
func (s *Session) SetMonthlyIncome(ctx context.Context, income decimal.Decimal) error {
	owner := s.OwnerID()
	if owner == uuid.Nil {
		return nil
	}

	settings, err := s.services.Settings.UpdateMonthlyIncome(ctx, owner, income)
	if err != nil {
		logFailure(err, owner, "Failed to set monthly income")
		return err
	}

	s.mu.Lock()
	s.settings = settings.Clone()
	s.mu.Unlock()
	return nil
}

// AddPerson adds a participant to the cached settings
func (s *Session) AddPerson(ctx context.Context, name string) (*domain.Person, error) {
	owner := s.OwnerID()
	if owner == uuid.Nil {
		return nil, nil
	}

	person, err := s.services.Settings.AddPerson(ctx, owner, name)
	if err != nil {
		logFailure(err, owner, "Failed to add person")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureSettings()
	s.settings.People = append(s.settings.People, *person)
	return person, nil
}

// RemovePerson removes a participant. Items that reference it keep the id.
func (s *Session) RemovePerson(ctx context.Context, id string) error {
	owner := s.OwnerID()
	if owner == uuid.Nil {
		return nil
	}

	if err := s.services.Settings.RemovePerson(ctx, owner, id); err != nil {
		logFailure(err, owner, "Failed to remove person")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return nil
	}
	people := make([]domain.Person, 0, len(s.settings.People))
	for _, p := range s.settings.People {
		if p.ID != id {
			people = append(people, p)
		}
	}
	s.settings.People = people
	return nil
}

// AddCategory adds a category of kind to the cached settings
func (s *Session) AddCategory(ctx context.Context, name string, kind domain.CategoryKind) (*domain.Category, error) {
	owner := s.OwnerID()
	if owner == uuid.Nil {
		return nil, nil
	}

	category, err := s.services.Settings.AddCategory(ctx, owner, name, kind)
	if err != nil {
		logFailure(err, owner, "Failed to add category")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureSettings()
	if category.Kind == domain.CategoryKindIncome {
		s.settings.IncomeCategories = append(s.settings.IncomeCategories, *category)
	} else {
		s.settings.ExpenseCategories = append(s.settings.ExpenseCategories, *category)
	}
	return category, nil
}

// RemoveCategory removes a category from the cached settings
func (s *Session) RemoveCategory(ctx context.Context, id string) error {
	owner := s.OwnerID()
	if owner == uuid.Nil {
		return nil
	}

	if err := s.services.Settings.RemoveCategory(ctx, owner, id); err != nil {
		logFailure(err, owner, "Failed to remove category")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return nil
	}
	s.settings.ExpenseCategories = withoutCategory(s.settings.ExpenseCategories, id)
	s.settings.IncomeCategories = withoutCategory(s.settings.IncomeCategories, id)
	return nil
}

func (s *Session) replaceExpense(updated *domain.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.expenses {
		if e.ID == updated.ID {
			s.expenses[i] = updated.Clone()
			return
		}
	}
	s.expenses = append(s.expenses, updated.Clone())
}

func (s *Session) replaceReceivable(updated *domain.Receivable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.receivables {
		if r.ID == updated.ID {
			s.receivables[i] = updated.Clone()
			return
		}
	}
	s.receivables = append(s.receivables, updated.Clone())
}

// ensureSettings must be called with the lock held
func (s *Session) ensureSettings() {
	if s.settings == nil {
		s.settings = &domain.Settings{}
	}
}

func withoutCategory(categories []domain.Category, id string) []domain.Category {
	kept := make([]domain.Category, 0, len(categories))
	for _, c := range categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	return kept
}

func logFailure(err error, owner uuid.UUID, msg string) {
	log.Error().Err(err).Str("owner_id", owner.String()).Msg(msg)
}
