package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/dafibh/casa/casa-backend/internal/repository/sqlite"
	"github.com/dafibh/casa/casa-backend/internal/service"
	"github.com/dafibh/casa/casa-backend/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) *session.Session {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	people := sqlite.NewPersonRepository(db)
	settingsService := service.NewSettingsService(sqlite.NewSettingsRepository(db), people, sqlite.NewCategoryRepository(db))
	authService := service.NewAuthService(sqlite.NewUserRepository(db), settingsService, nil)

	ownerID, err := authService.EnsureOwner(t.Context(), localSubject, "")
	require.NoError(t, err)

	sess := session.New(ownerID, session.Services{
		Expenses:    service.NewExpenseService(sqlite.NewExpenseRepository(db), people),
		Receivables: service.NewReceivableService(sqlite.NewReceivableRepository(db), people),
		Settings:    settingsService,
	})
	require.NoError(t, sess.Load(t.Context()))
	return sess
}

func runCommand(t *testing.T, sess *session.Session, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(t.Context(), sess, args, &out)
	return out.String(), err
}

func TestRun_TrackMonth(t *testing.T) {
	sess := newTestSession(t)

	_, err := runCommand(t, sess, "income", "3000")
	require.NoError(t, err)

	out, err := runCommand(t, sess, "add-expense", "-desc", "Rent", "-amount", "1200", "-category", "1", "-due", "2025-01-10")
	require.NoError(t, err)
	assert.Contains(t, out, "Added expense")

	_, err = runCommand(t, sess, "add-receivable", "-desc", "Refund", "-amount", "500", "-category", "6", "-due", "2025-01-20", "-split", "1")
	require.NoError(t, err)

	out, err = runCommand(t, sess, "summary", "-month", "2025-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Month              2025-01")
	assert.Contains(t, out, "Projected balance  2300.00")
	assert.NotContains(t, out, "NEGATIVE")
	// Split defaults to every person
	assert.Contains(t, out, "Pessoa 1")
	assert.Contains(t, out, "600.00")

	expenses := sess.Expenses()
	require.Len(t, expenses, 1)
	assert.Equal(t, []string{"1", "2"}, expenses[0].SplitBetween)

	out, err = runCommand(t, sess, "pay", "-by", "1", expenses[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Paid Rent")

	out, err = runCommand(t, sess, "expenses", "-month", "2025-01")
	require.NoError(t, err)
	assert.Contains(t, out, "paid")
}

func TestRun_NegativeBalanceFlagged(t *testing.T) {
	sess := newTestSession(t)

	_, err := runCommand(t, sess, "add-expense", "-desc", "Car", "-amount", "900.50", "-category", "1", "-due", "2025-03-05")
	require.NoError(t, err)

	out, err := runCommand(t, sess, "summary", "-month", "2025-03")
	require.NoError(t, err)
	assert.Contains(t, out, "-900.50  NEGATIVE")
}

func TestRun_PeopleAndCategories(t *testing.T) {
	sess := newTestSession(t)

	out, err := runCommand(t, sess, "add-person", "Ana", "Maria")
	require.NoError(t, err)
	assert.Contains(t, out, "Added Ana Maria")

	out, err = runCommand(t, sess, "add-category", "-name", "Freelance", "-kind", "income")
	require.NoError(t, err)
	assert.Contains(t, out, "Added income category Freelance")

	out, err = runCommand(t, sess, "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "Ana Maria")
	assert.Contains(t, out, "Freelance")
	assert.Len(t, sess.Settings().People, 3)
}

func TestRun_Errors(t *testing.T) {
	sess := newTestSession(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unknown command", []string{"frobnicate"}, nil},
		{"bad month", []string{"summary", "-month", "2025-13"}, domain.ErrValidation},
		{"bad amount", []string{"income", "lots"}, domain.ErrValidation},
		{"income below one cent", []string{"income", "10.001"}, domain.ErrIncomePrecision},
		{"expense below one cent", []string{"add-expense", "-desc", "x", "-amount", "10.001", "-category", "1"}, domain.ErrAmountPrecision},
		{"bad due date", []string{"add-expense", "-desc", "x", "-amount", "1", "-category", "1", "-due", "10/01/2025"}, domain.ErrValidation},
		{"bad installment", []string{"add-expense", "-desc", "x", "-amount", "1", "-category", "1", "-installment", "three"}, domain.ErrValidation},
		{"missing id", []string{"pay"}, errUsage},
		{"unknown flag", []string{"expenses", "-year", "2025"}, errUsage},
		{"unknown expense", []string{"pay", "nope"}, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCommand(t, sess, tt.args...)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}

	assert.Empty(t, sess.Expenses(), "failed commands leave the session unchanged")
}

func TestSplitOrEveryone(t *testing.T) {
	settings := &domain.Settings{People: []domain.Person{{ID: "1"}, {ID: "2"}}}

	assert.Equal(t, []string{"1", "2"}, splitOrEveryone("", settings))
	assert.Equal(t, []string{"2"}, splitOrEveryone(" 2 ,", settings))
	assert.Nil(t, splitOrEveryone("", nil))
	assert.True(t, strings.HasPrefix(errUsage.Error(), "invalid arguments"))
}
