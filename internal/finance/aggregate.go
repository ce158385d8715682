package finance

import (
	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// SelectForMonth keeps the items due in month, preserving source order
func SelectForMonth[T domain.Item](items []T, month domain.CalendarMonth) []T {
	selected := make([]T, 0, len(items))
	for _, item := range items {
		if month.Contains(item.DueOn()) {
			selected = append(selected, item)
		}
	}
	return selected
}

// Totals sums every item regardless of status and counts the paid ones
func Totals[T domain.Item](items []T) domain.Totals {
	totals := domain.Totals{
		Sum:        decimal.Zero,
		PaidSum:    decimal.Zero,
		PendingSum: decimal.Zero,
		TotalCount: len(items),
	}
	for _, item := range items {
		totals.Sum = totals.Sum.Add(item.Value())
		if item.IsPaid() {
			totals.PaidCount++
			totals.PaidSum = totals.PaidSum.Add(item.Value())
		} else {
			totals.PendingSum = totals.PendingSum.Add(item.Value())
		}
	}
	return totals
}

// ProjectedBalance = monthly income + receivables - expenses. It may be negative.
func ProjectedBalance(monthlyIncome, receivablesTotal, expensesTotal decimal.Decimal) decimal.Decimal {
	return monthlyIncome.Add(receivablesTotal).Sub(expensesTotal)
}

// Pending returns up to limit unpaid items in source order
func Pending[T domain.Item](items []T, limit int) []T {
	if limit <= 0 {
		return nil
	}
	pending := make([]T, 0, limit)
	for _, item := range items {
		if len(pending) >= limit {
			break
		}
		if !item.IsPaid() {
			pending = append(pending, item)
		}
	}
	return pending
}
