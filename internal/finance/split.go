// Package finance holds the month aggregation and split arithmetic shared by
// the services and the session.
package finance

import (
	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Share is one participant's part of an amount
type Share struct {
	PersonID string          `json:"personId"`
	Amount   decimal.Decimal `json:"amount"`
}

// ShareAmount divides total equally between participantCount people.
// The result is not rounded; round with domain.FormatMoney for display only.
func ShareAmount(total decimal.Decimal, participantCount int) (decimal.Decimal, error) {
	if participantCount <= 0 {
		return decimal.Zero, domain.ErrInvalidSplit
	}
	return total.Div(decimal.NewFromInt(int64(participantCount))), nil
}

// Shares returns one share per participant in split order
func Shares(total decimal.Decimal, splitBetween []string) ([]Share, error) {
	amount, err := ShareAmount(total, len(splitBetween))
	if err != nil {
		return nil, err
	}
	shares := make([]Share, len(splitBetween))
	for i, id := range splitBetween {
		shares[i] = Share{PersonID: id, Amount: amount}
	}
	return shares, nil
}

// SharesByPerson totals what each person owes across expenses.
// Known people come first in settings order, with zero when they owe nothing.
// Ids no longer in people follow in first-seen order, flagged as orphans.
// Expenses with an empty split are skipped.
func SharesByPerson(expenses []*domain.Expense, people []domain.Person) []domain.PersonShare {
	totals := make(map[string]decimal.Decimal)
	var orphans []string
	known := make(map[string]bool, len(people))
	for _, p := range people {
		known[p.ID] = true
	}

	for _, e := range expenses {
		shares, err := Shares(e.Amount, e.SplitBetween)
		if err != nil {
			continue
		}
		for _, s := range shares {
			if _, seen := totals[s.PersonID]; !seen && !known[s.PersonID] {
				orphans = append(orphans, s.PersonID)
			}
			totals[s.PersonID] = totals[s.PersonID].Add(s.Amount)
		}
	}

	result := make([]domain.PersonShare, 0, len(people)+len(orphans))
	for _, p := range people {
		result = append(result, domain.PersonShare{
			PersonID: p.ID,
			Name:     p.Name,
			Amount:   totals[p.ID],
		})
	}
	for _, id := range orphans {
		result = append(result, domain.PersonShare{
			PersonID: id,
			Amount:   totals[id],
			Orphan:   true,
		})
	}
	return result
}
