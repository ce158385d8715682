package service

import (
	"context"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/dafibh/casa/casa-backend/internal/finance"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DashboardService handles dashboard-related business logic
type DashboardService struct {
	settingsService *SettingsService
	expenseRepo     domain.ExpenseRepository
	receivableRepo  domain.ReceivableRepository
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	settingsService *SettingsService,
	expenseRepo domain.ExpenseRepository,
	receivableRepo domain.ReceivableRepository,
) *DashboardService {
	return &DashboardService{
		settingsService: settingsService,
		expenseRepo:     expenseRepo,
		receivableRepo:  receivableRepo,
	}
}

// GetSummary returns the dashboard summary for the current month
func (s *DashboardService) GetSummary(ctx context.Context, ownerID uuid.UUID) (*domain.MonthlySummary, error) {
	return s.GetSummaryForMonth(ctx, ownerID, domain.CurrentMonth())
}

// GetSummaryForMonth loads settings, expenses and receivables concurrently and
// aggregates them for month
func (s *DashboardService) GetSummaryForMonth(ctx context.Context, ownerID uuid.UUID, month domain.CalendarMonth) (*domain.MonthlySummary, error) {
	if ownerID == uuid.Nil {
		return nil, nil
	}

	var (
		settings    *domain.Settings
		expenses    []*domain.Expense
		receivables []*domain.Receivable
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		settings, err = s.settingsService.Get(ctx, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.expenseRepo.List(ctx, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		receivables, err = s.receivableRepo.List(ctx, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return finance.Summarize(month, settings, expenses, receivables), nil
}
