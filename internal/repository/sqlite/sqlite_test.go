package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newExpense(description, amount string, due time.Time) *domain.Expense {
	return &domain.Expense{
		Description:  description,
		Amount:       decimal.RequireFromString(amount),
		Kind:         domain.ExpenseKindFixed,
		Category:     "1",
		IsEssential:  true,
		DueDate:      due,
		Status:       domain.StatusPending,
		SplitBetween: []string{"1", "2"},
	}
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, RunMigrations(db))
}

func TestExpenseRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewExpenseRepository(openTestDB(t))
	owner := uuid.New()
	due := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)

	created, err := repo.Create(ctx, owner, newExpense("Aluguel", "1200.50", due))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := repo.GetByID(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aluguel", got.Description)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("1200.50")))
	assert.Equal(t, domain.ExpenseKindFixed, got.Kind)
	assert.True(t, got.IsEssential)
	assert.True(t, due.Equal(got.DueDate))
	assert.Equal(t, []string{"1", "2"}, got.SplitBetween)
	assert.Nil(t, got.PaidDate)
	assert.Nil(t, got.Installments)

	paid := domain.StatusPaid
	paidBy := "2"
	paidAt := time.Date(2025, time.January, 11, 8, 0, 0, 0, time.UTC)
	err = repo.Update(ctx, owner, created.ID, domain.ExpensePatch{
		Status:   &paid,
		PaidBy:   &paidBy,
		PaidDate: &paidAt,
	})
	require.NoError(t, err)

	got, err = repo.GetByID(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, got.Status)
	require.NotNil(t, got.PaidBy)
	assert.Equal(t, "2", *got.PaidBy)
	require.NotNil(t, got.PaidDate)
	assert.True(t, paidAt.Equal(*got.PaidDate))
	assert.Equal(t, "Aluguel", got.Description, "unpatched fields are kept")

	require.NoError(t, repo.Delete(ctx, owner, created.ID))
	require.NoError(t, repo.Delete(ctx, owner, created.ID), "deleting twice is a no-op")

	_, err = repo.GetByID(ctx, owner, created.ID)
	assert.ErrorIs(t, err, domain.ErrExpenseNotFound)
}

func TestExpenseRepository_InstallmentsAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewExpenseRepository(openTestDB(t))
	owner := uuid.New()
	due := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)

	first := newExpense("TV", "300", due)
	first.Kind = domain.ExpenseKindInstallment
	first.Installments = &domain.Installments{Current: 1, Total: 10}
	_, err := repo.Create(ctx, owner, first)
	require.NoError(t, err)
	_, err = repo.Create(ctx, owner, newExpense("Energia", "180", due))
	require.NoError(t, err)
	_, err = repo.Create(ctx, uuid.New(), newExpense("Other owner", "1", due))
	require.NoError(t, err)

	list, err := repo.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "TV", list[0].Description)
	assert.Equal(t, "Energia", list[1].Description)
	require.NotNil(t, list[0].Installments)
	assert.Equal(t, domain.Installments{Current: 1, Total: 10}, *list[0].Installments)

	variable := domain.ExpenseKindVariable
	err = repo.Update(ctx, owner, list[0].ID, domain.ExpensePatch{Kind: &variable, ClearInstallments: true})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, owner, list[0].ID)
	require.NoError(t, err)
	assert.Nil(t, got.Installments)
}

func TestExpenseRepository_UpdateMissing(t *testing.T) {
	repo := NewExpenseRepository(openTestDB(t))
	desc := "x"

	err := repo.Update(context.Background(), uuid.New(), "nope", domain.ExpensePatch{Description: &desc})

	assert.ErrorIs(t, err, domain.ErrExpenseNotFound)
}

func TestReceivableRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewReceivableRepository(openTestDB(t))
	owner := uuid.New()

	created, err := repo.Create(ctx, owner, &domain.Receivable{
		ID:           "refund-1",
		Description:  "Reembolso",
		Amount:       decimal.RequireFromString("500"),
		Category:     "6",
		DueDate:      time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC),
		Status:       domain.StatusPending,
		SplitBetween: []string{"1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "refund-1", created.ID, "caller supplied ids are kept")

	received := domain.StatusPaid
	by := "1"
	now := time.Now().UTC()
	require.NoError(t, repo.Update(ctx, owner, "refund-1", domain.ReceivablePatch{
		Status:       &received,
		ReceivedBy:   &by,
		ReceivedDate: &now,
	}))

	list, err := repo.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.StatusPaid, list[0].Status)
	require.NotNil(t, list[0].ReceivedBy)
	assert.Equal(t, "1", *list[0].ReceivedBy)

	require.NoError(t, repo.Delete(ctx, owner, "refund-1"))
	_, err = repo.GetByID(ctx, owner, "refund-1")
	assert.ErrorIs(t, err, domain.ErrReceivableNotFound)
}

func TestSettingsRepository_SeedDefaults(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	settings := NewSettingsRepository(db)
	people := NewPersonRepository(db)
	categories := NewCategoryRepository(db)
	owner := uuid.New()

	got, err := settings.Get(ctx, owner)
	require.NoError(t, err)
	assert.True(t, got.MonthlyIncome.IsZero(), "missing row reads as zero income")

	require.NoError(t, settings.SeedDefaults(ctx, owner, domain.DefaultPeople, domain.DefaultCategories))
	require.NoError(t, settings.SeedDefaults(ctx, owner, domain.DefaultPeople, domain.DefaultCategories))

	ps, err := people.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "Pessoa 1", ps[0].Name)

	cs, err := categories.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, cs, len(domain.DefaultCategories))

	income, err := categories.ListByKind(ctx, owner, domain.CategoryKindIncome)
	require.NoError(t, err)
	require.Len(t, income, 1)
	assert.Equal(t, "Salário", income[0].Name)
}

func TestSettingsRepository_UpdateIncome(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(openTestDB(t))
	owner := uuid.New()

	income := decimal.RequireFromString("4500.75")
	require.NoError(t, repo.Update(ctx, owner, domain.SettingsPatch{MonthlyIncome: &income}))
	income = decimal.RequireFromString("5000")
	require.NoError(t, repo.Update(ctx, owner, domain.SettingsPatch{MonthlyIncome: &income}))

	got, err := repo.Get(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "5000.00", got.MonthlyIncome.StringFixed(2))
}

func TestPersonRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewPersonRepository(openTestDB(t))
	owner := uuid.New()

	created, err := repo.Create(ctx, owner, &domain.Person{Name: "Ana"})
	require.NoError(t, err)

	name := "Ana Clara"
	require.NoError(t, repo.Update(ctx, owner, created.ID, domain.PersonPatch{Name: &name}))
	assert.ErrorIs(t, repo.Update(ctx, owner, "missing", domain.PersonPatch{Name: &name}), domain.ErrPersonNotFound)

	list, err := repo.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Ana Clara", list[0].Name)

	require.NoError(t, repo.Delete(ctx, owner, created.ID))
	list, err = repo.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCategoryRepository_UpdateMissing(t *testing.T) {
	repo := NewCategoryRepository(openTestDB(t))
	name := "Lazer"

	err := repo.Update(context.Background(), uuid.New(), "99", domain.CategoryPatch{Name: &name})

	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	created, err := repo.Create(ctx, &domain.User{
		Subject:      domain.LocalSubjectPrefix + "ana@casa.app",
		Email:        "ana@casa.app",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	byEmail, err := repo.GetByEmail(ctx, "ANA@casa.app")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	bySubject, err := repo.GetBySubject(ctx, "local|ana@casa.app")
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySubject.ID)

	_, err = repo.Create(ctx, &domain.User{Subject: "local|other", Email: "Ana@Casa.app"})
	assert.ErrorIs(t, err, domain.ErrEmailExists)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	// identity provider users carry no email and must not collide
	_, err = repo.Create(ctx, &domain.User{Subject: "auth0|1"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &domain.User{Subject: "auth0|2"})
	require.NoError(t, err)
}

func TestRepositories_DriverFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM expenses WHERE owner_id").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectExec("DELETE FROM receivables").WillReturnError(errors.New("database is locked"))
	mock.ExpectQuery("SELECT monthly_income FROM settings").WillReturnError(errors.New("disk I/O error"))

	_, err = NewExpenseRepository(db).List(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrRepository)

	err = NewReceivableRepository(db).Delete(context.Background(), uuid.New(), "1")
	assert.ErrorIs(t, err, domain.ErrRepository)

	_, err = NewSettingsRepository(db).Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrRepository)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM receivables WHERE owner_id").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	desc := "x"
	err = NewReceivableRepository(db).Update(context.Background(), uuid.New(), "1", domain.ReceivablePatch{Description: &desc})

	assert.ErrorIs(t, err, domain.ErrReceivableNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSplitEncoding(t *testing.T) {
	raw, err := encodeSplit(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)

	ids, err := decodeSplit(`["1","ghost"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "ghost"}, ids)

	ids, err = decodeSplit("")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
