// Package session holds the in-memory state of one signed-in user: the
// selected month and cached expenses, receivables and settings.
//
// Mutations are confirm-then-update: the cache changes only after the
// service call succeeds. A failed call is logged and returned and the cache
// is left as it was.
package session

import (
	"context"
	"sync"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/dafibh/casa/casa-backend/internal/finance"
	"github.com/dafibh/casa/casa-backend/internal/service"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ExpenseManager is the part of service.ExpenseService the session uses
type ExpenseManager interface {
	List(ctx context.Context, ownerID uuid.UUID, filter service.ExpenseFilter) ([]*domain.Expense, error)
	Create(ctx context.Context, ownerID uuid.UUID, input service.CreateExpenseInput) (*domain.Expense, error)
	Update(ctx context.Context, ownerID uuid.UUID, id string, patch domain.ExpensePatch) (*domain.Expense, error)
	MarkPaid(ctx context.Context, ownerID uuid.UUID, id string, paidBy *string) (*domain.Expense, error)
	Delete(ctx context.Context, ownerID uuid.UUID, id string) error
}

// ReceivableManager is the part of service.ReceivableService the session uses
type ReceivableManager interface {
	List(ctx context.Context, ownerID uuid.UUID, month *domain.CalendarMonth) ([]*domain.Receivable, error)
	Create(ctx context.Context, ownerID uuid.UUID, input service.CreateReceivableInput) (*domain.Receivable, error)
	Update(ctx context.Context, ownerID uuid.UUID, id string, patch domain.ReceivablePatch) (*domain.Receivable, error)
	MarkReceived(ctx context.Context, ownerID uuid.UUID, id string, receivedBy *string) (*domain.Receivable, error)
	Delete(ctx context.Context, ownerID uuid.UUID, id string) error
}

// SettingsManager is the part of service.SettingsService the session uses
type SettingsManager interface {
	Get(ctx context.Context, ownerID uuid.UUID) (*domain.Settings, error)
	UpdateMonthlyIncome(ctx context.Context, ownerID uuid.UUID, income decimal.Decimal) (*domain.Settings, error)
	AddPerson(ctx context.Context, ownerID uuid.UUID, name string) (*domain.Person, error)
	RemovePerson(ctx context.Context, ownerID uuid.UUID, id string) error
	AddCategory(ctx context.Context, ownerID uuid.UUID, name string, kind domain.CategoryKind) (*domain.Category, error)
	RemoveCategory(ctx context.Context, ownerID uuid.UUID, id string) error
}

// Services groups the collaborators of a Session
type Services struct {
	Expenses    ExpenseManager
	Receivables ReceivableManager
	Settings    SettingsManager
}

// Session is the explicit application state of one user
type Session struct {
	mu          sync.RWMutex
	services    Services
	ownerID     uuid.UUID
	month       domain.CalendarMonth
	expenses    []*domain.Expense
	receivables []*domain.Receivable
	settings    *domain.Settings
}

// New starts a session for ownerID with the current month selected.
// Call Load to fill the caches.
func New(ownerID uuid.UUID, services Services) *Session {
	return &Session{
		services: services,
		ownerID:  ownerID,
		month:    domain.CurrentMonth(),
	}
}

// OwnerID returns the signed-in owner, or uuid.Nil after Clear
func (s *Session) OwnerID() uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownerID
}

// Load fetches expenses, receivables and settings. The caches are replaced
// only when all three loads succeed.
func (s *Session) Load(ctx context.Context) error {
	owner := s.OwnerID()
	if owner == uuid.Nil {
		return nil
	}

	var (
		expenses    []*domain.Expense
		receivables []*domain.Receivable
		settings    *domain.Settings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.services.Expenses.List(gctx, owner, service.ExpenseFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		receivables, err = s.services.Receivables.List(gctx, owner, nil)
		return err
	})
	g.Go(func() error {
		var err error
		settings, err = s.services.Settings.Get(gctx, owner)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Str("owner_id", owner.String()).Msg("Failed to load session data")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = expenses
	s.receivables = receivables
	s.settings = settings
	return nil
}

// Clear drops the owner and every cache, as on sign out
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ownerID = uuid.Nil
	s.expenses = nil
	s.receivables = nil
	s.settings = nil
	s.month = domain.CurrentMonth()
}

// SelectMonth changes the month the summary is computed for
func (s *Session) SelectMonth(month domain.CalendarMonth) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownerID == uuid.Nil {
		return
	}
	s.month = month
}

// SelectedMonth returns the month the summary is computed for
func (s *Session) SelectedMonth() domain.CalendarMonth {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.month
}

// Expenses returns a copy of the cached expenses
func (s *Session) Expenses() []*domain.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*domain.Expense, len(s.expenses))
	for i, e := range s.expenses {
		result[i] = e.Clone()
	}
	return result
}

// Receivables returns a copy of the cached receivables
func (s *Session) Receivables() []*domain.Receivable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*domain.Receivable, len(s.receivables))
	for i, r := range s.receivables {
		result[i] = r.Clone()
	}
	return result
}

// Settings returns a copy of the cached settings, nil before Load
func (s *Session) Settings() *domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return nil
	}
	return s.settings.Clone()
}

// Summary computes the dashboard of the selected month from the caches
func (s *Session) Summary() *domain.MonthlySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ownerID == uuid.Nil {
		return nil
	}
	return finance.Summarize(s.month, s.settings, s.expenses, s.receivables)
}
