package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount with two decimals. Use it only for display;
// computations keep full precision.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// MoneyPlaces is the number of decimal places a stored amount may carry
const MoneyPlaces = 2

// HasMoneyPrecision reports whether d needs no more than MoneyPlaces
// decimals. Trailing zeros do not count: 10.000 is accepted.
func HasMoneyPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyPlaces))
}

// ItemStatus is the settlement status of an expense or receivable
type ItemStatus string

const (
	StatusPending ItemStatus = "pending"
	StatusPaid    ItemStatus = "paid"
)

// Valid reports whether s is a known status
func (s ItemStatus) Valid() bool {
	return s == StatusPending || s == StatusPaid
}

// Item is a dated monetary record that can be aggregated per month.
type Item interface {
	DueOn() time.Time
	Value() decimal.Decimal
	IsPaid() bool
}

// Totals summarizes a set of items.
type Totals struct {
	Sum        decimal.Decimal `json:"sum"`
	PaidSum    decimal.Decimal `json:"paidSum"`
	PendingSum decimal.Decimal `json:"pendingSum"`
	PaidCount  int             `json:"paidCount"`
	TotalCount int             `json:"totalCount"`
}
