package domain

import "github.com/shopspring/decimal"

// PendingLimit is how many pending items of each kind a summary lists
const PendingLimit = 5

// PersonShare is the amount owed by one person over a set of expenses.
// Orphan is set when the id no longer matches a person.
type PersonShare struct {
	PersonID string          `json:"personId"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Orphan   bool            `json:"orphan"`
}

// MonthlySummary is the dashboard view of one calendar month
type MonthlySummary struct {
	Month              CalendarMonth
	MonthlyIncome      decimal.Decimal
	Expenses           Totals
	Receivables        Totals
	ProjectedBalance   decimal.Decimal
	IsHistorical       bool
	PendingExpenses    []*Expense
	PendingReceivables []*Receivable
	Shares             []PersonShare
}

// IsNegative reports whether the projected balance is below zero
func (s *MonthlySummary) IsNegative() bool {
	return s.ProjectedBalance.IsNegative()
}
