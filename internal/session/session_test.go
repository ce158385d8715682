package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/dafibh/casa/casa-backend/internal/service"
	"github.com/dafibh/casa/casa-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	session     *Session
	expenses    *testutil.MockExpenseRepository
	receivables *testutil.MockReceivableRepository
	settings    *testutil.MockSettingsRepository
	people      *testutil.MockPersonRepository
	owner       uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	expenses := testutil.NewMockExpenseRepository()
	receivables := testutil.NewMockReceivableRepository()
	people := testutil.NewMockPersonRepository()
	categories := testutil.NewMockCategoryRepository()
	settings := testutil.NewMockSettingsRepository(people, categories)

	settingsService := service.NewSettingsService(settings, people, categories)
	owner := uuid.New()
	require.NoError(t, settingsService.SeedDefaults(context.Background(), owner))

	s := New(owner, Services{
		Expenses:    service.NewExpenseService(expenses, people),
		Receivables: service.NewReceivableService(receivables, people),
		Settings:    settingsService,
	})
	require.NoError(t, s.Load(context.Background()))

	return &fixture{s, expenses, receivables, settings, people, owner}
}

func rentInput() service.CreateExpenseInput {
	due := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	return service.CreateExpenseInput{
		Description:  "Aluguel",
		Amount:       decimal.NewFromInt(1200),
		Kind:         domain.ExpenseKindFixed,
		Category:     "1",
		DueDate:      &due,
		SplitBetween: []string{"1"},
	}
}

func TestLoad_FillsCaches(t *testing.T) {
	f := newFixture(t)

	settings := f.session.Settings()
	require.NotNil(t, settings)
	assert.Len(t, settings.People, 2)
	assert.Empty(t, f.session.Expenses())
	assert.Empty(t, f.session.Receivables())
}

func TestLoad_FailureKeepsPreviousCache(t *testing.T) {
	f := newFixture(t)
	_, err := f.session.AddExpense(context.Background(), rentInput())
	require.NoError(t, err)

	f.receivables.ListErr = errors.New("offline")
	err = f.session.Load(context.Background())

	assert.Error(t, err)
	assert.Len(t, f.session.Expenses(), 1)
}

// Income plus receivables minus expenses, computed from the session caches
func TestSummary_FromCaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	due := time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)

	require.NoError(t, f.session.SetMonthlyIncome(ctx, decimal.NewFromInt(3000)))
	_, err := f.session.AddExpense(ctx, rentInput())
	require.NoError(t, err)
	_, err = f.session.AddReceivable(ctx, service.CreateReceivableInput{
		Description: "Reembolso", Amount: decimal.NewFromInt(500), Category: "6",
		DueDate: &due, SplitBetween: []string{"1"},
	})
	require.NoError(t, err)

	f.session.SelectMonth(domain.CalendarMonth{Year: 2025, Month: time.January})
	summary := f.session.Summary()

	require.NotNil(t, summary)
	assert.Equal(t, "2300.00", summary.ProjectedBalance.StringFixed(2))
	assert.Equal(t, domain.CalendarMonth{Year: 2025, Month: time.January}, f.session.SelectedMonth())

	f.session.SelectMonth(domain.CalendarMonth{Year: 2025, Month: time.February})
	assert.Equal(t, "3000.00", f.session.Summary().ProjectedBalance.StringFixed(2))
}

func TestAddExpense_FailedWriteLeavesCacheUnchanged(t *testing.T) {
	f := newFixture(t)
	f.expenses.CreateErr = domain.NewRepositoryError("create expense", errors.New("connection refused"))

	_, err := f.session.AddExpense(context.Background(), rentInput())

	assert.ErrorIs(t, err, domain.ErrRepository)
	assert.Empty(t, f.session.Expenses())
}

func TestAddExpense_ValidationFailureLeavesCacheUnchanged(t *testing.T) {
	f := newFixture(t)
	input := rentInput()
	input.SplitBetween = nil

	_, err := f.session.AddExpense(context.Background(), input)

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, f.session.Expenses())
	assert.Equal(t, 0, f.expenses.CreateCalls)
}

func TestExpenseLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.session.AddExpense(ctx, rentInput())
	require.NoError(t, err)

	amount := decimal.NewFromInt(1300)
	_, err = f.session.UpdateExpense(ctx, created.ID, domain.ExpensePatch{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, "1300", f.session.Expenses()[0].Amount.String())

	f.expenses.UpdateErr = errors.New("write failed")
	_, err = f.session.MarkExpensePaid(ctx, created.ID, nil)
	require.Error(t, err)
	assert.Equal(t, domain.StatusPending, f.session.Expenses()[0].Status, "failed write must not change the cache")

	f.expenses.UpdateErr = nil
	_, err = f.session.MarkExpensePaid(ctx, created.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, f.session.Expenses()[0].Status)

	f.expenses.DeleteErr = errors.New("write failed")
	require.Error(t, f.session.DeleteExpense(ctx, created.ID))
	assert.Len(t, f.session.Expenses(), 1)

	f.expenses.DeleteErr = nil
	require.NoError(t, f.session.DeleteExpense(ctx, created.ID))
	require.NoError(t, f.session.DeleteExpense(ctx, created.ID))
	assert.Empty(t, f.session.Expenses())
}

func TestReceivableLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.session.AddReceivable(ctx, service.CreateReceivableInput{
		Description: "Reembolso", Amount: decimal.NewFromInt(80), Category: "6",
		SplitBetween: []string{"2"},
	})
	require.NoError(t, err)

	desc := "Reembolso farmácia"
	_, err = f.session.UpdateReceivable(ctx, created.ID, domain.ReceivablePatch{Description: &desc})
	require.NoError(t, err)

	received, err := f.session.MarkReceivableReceived(ctx, created.ID, nil)
	require.NoError(t, err)
	assert.True(t, received.IsPaid())

	cached := f.session.Receivables()
	require.Len(t, cached, 1)
	assert.Equal(t, "Reembolso farmácia", cached[0].Description)
	assert.True(t, cached[0].IsPaid())

	require.NoError(t, f.session.DeleteReceivable(ctx, created.ID))
	assert.Empty(t, f.session.Receivables())
}

func TestSettingsMutations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	person, err := f.session.AddPerson(ctx, "Carla")
	require.NoError(t, err)
	assert.Len(t, f.session.Settings().People, 3)

	require.NoError(t, f.session.RemovePerson(ctx, person.ID))
	assert.Len(t, f.session.Settings().People, 2)

	category, err := f.session.AddCategory(ctx, "Freelance", domain.CategoryKindIncome)
	require.NoError(t, err)
	assert.Len(t, f.session.Settings().IncomeCategories, 2)

	require.NoError(t, f.session.RemoveCategory(ctx, category.ID))
	assert.Len(t, f.session.Settings().IncomeCategories, 1)

	err = f.session.SetMonthlyIncome(ctx, decimal.NewFromInt(-10))
	assert.ErrorIs(t, err, domain.ErrInvalidIncome)
	assert.True(t, f.session.Settings().MonthlyIncome.IsZero())
}

func TestRemoveLastPerson_LeavesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.session.RemovePerson(ctx, "2"))
	err := f.session.RemovePerson(ctx, "1")

	assert.ErrorIs(t, err, domain.ErrLastPerson)
	assert.Len(t, f.session.Settings().People, 1)
}

func TestReadsReturnCopies(t *testing.T) {
	f := newFixture(t)
	_, err := f.session.AddExpense(context.Background(), rentInput())
	require.NoError(t, err)

	f.session.Expenses()[0].Description = "mutated"
	f.session.Settings().People[0].Name = "mutated"

	assert.Equal(t, "Aluguel", f.session.Expenses()[0].Description)
	assert.Equal(t, "Pessoa 1", f.session.Settings().People[0].Name)
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.session.AddExpense(ctx, rentInput())
	require.NoError(t, err)

	f.session.Clear()

	assert.Equal(t, uuid.Nil, f.session.OwnerID())
	assert.Empty(t, f.session.Expenses())
	assert.Nil(t, f.session.Settings())
	assert.Nil(t, f.session.Summary())

	created, err := f.session.AddExpense(ctx, rentInput())
	assert.NoError(t, err)
	assert.Nil(t, created)
	assert.Equal(t, 1, f.expenses.CreateCalls)
}
