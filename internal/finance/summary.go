package finance

import (
	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/dafibh/casa/casa-backend/internal/util"
)

// Summarize builds the dashboard view of month from unfiltered items.
// A nil settings counts as zero income and no people.
func Summarize(month domain.CalendarMonth, settings *domain.Settings, expenses []*domain.Expense, receivables []*domain.Receivable) *domain.MonthlySummary {
	if settings == nil {
		settings = &domain.Settings{}
	}

	monthExpenses := SelectForMonth(expenses, month)
	monthReceivables := SelectForMonth(receivables, month)

	expenseTotals := Totals(monthExpenses)
	receivableTotals := Totals(monthReceivables)

	return &domain.MonthlySummary{
		Month:              month,
		MonthlyIncome:      settings.MonthlyIncome,
		Expenses:           expenseTotals,
		Receivables:        receivableTotals,
		ProjectedBalance:   ProjectedBalance(settings.MonthlyIncome, receivableTotals.Sum, expenseTotals.Sum),
		IsHistorical:       util.IsHistoricalMonth(month.Year, int(month.Month)),
		PendingExpenses:    Pending(monthExpenses, domain.PendingLimit),
		PendingReceivables: Pending(monthReceivables, domain.PendingLimit),
		Shares:             SharesByPerson(monthExpenses, settings.People),
	}
}
