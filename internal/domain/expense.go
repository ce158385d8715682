package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ExpenseKind string

const (
	ExpenseKindFixed       ExpenseKind = "fixed"
	ExpenseKindVariable    ExpenseKind = "variable"
	ExpenseKindInstallment ExpenseKind = "installment"
)

// Valid reports whether k is a known expense kind
func (k ExpenseKind) Valid() bool {
	switch k {
	case ExpenseKindFixed, ExpenseKindVariable, ExpenseKindInstallment:
		return true
	}
	return false
}

// Installments tracks the position of an installment expense in its plan
type Installments struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Valid reports whether 1 <= current <= total
func (i Installments) Valid() bool {
	return i.Current >= 1 && i.Total >= 1 && i.Current <= i.Total
}

type Expense struct {
	ID           string          `json:"id"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Kind         ExpenseKind     `json:"kind"`
	Category     string          `json:"category"`
	IsEssential  bool            `json:"isEssential"`
	DueDate      time.Time       `json:"dueDate"`
	Status       ItemStatus      `json:"status"`
	PaidDate     *time.Time      `json:"paidDate,omitempty"`
	PaidBy       *string         `json:"paidBy,omitempty"`
	SplitBetween []string        `json:"splitBetween"`
	Installments *Installments   `json:"installments,omitempty"`
	ReceiptPath  *string         `json:"receiptPath,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (e *Expense) DueOn() time.Time       { return e.DueDate }
func (e *Expense) Value() decimal.Decimal { return e.Amount }
func (e *Expense) IsPaid() bool           { return e.Status == StatusPaid }

// Clone returns a deep copy so cached values can't be mutated through the result
func (e *Expense) Clone() *Expense {
	c := *e
	c.SplitBetween = append([]string(nil), e.SplitBetween...)
	if e.PaidDate != nil {
		d := *e.PaidDate
		c.PaidDate = &d
	}
	if e.PaidBy != nil {
		p := *e.PaidBy
		c.PaidBy = &p
	}
	if e.Installments != nil {
		i := *e.Installments
		c.Installments = &i
	}
	if e.ReceiptPath != nil {
		r := *e.ReceiptPath
		c.ReceiptPath = &r
	}
	return &c
}

// ExpensePatch lists the fields of an expense that may be updated independently.
// A nil field is left unchanged.
type ExpensePatch struct {
	Description  *string
	Amount       *decimal.Decimal
	Kind         *ExpenseKind
	Category     *string
	IsEssential  *bool
	DueDate      *time.Time
	Status       *ItemStatus
	PaidDate     *time.Time
	PaidBy       *string
	SplitBetween []string
	Installments *Installments
	// ClearInstallments removes the installment plan, used when kind leaves installment
	ClearInstallments bool
	ReceiptPath       *string
}

// IsEmpty reports whether the patch changes nothing
func (p ExpensePatch) IsEmpty() bool {
	return p.Description == nil && p.Amount == nil && p.Kind == nil && p.Category == nil &&
		p.IsEssential == nil && p.DueDate == nil && p.Status == nil && p.PaidDate == nil &&
		p.PaidBy == nil && p.SplitBetween == nil && p.Installments == nil &&
		!p.ClearInstallments && p.ReceiptPath == nil
}

// Apply writes the patch onto e
func (p ExpensePatch) Apply(e *Expense) {
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Kind != nil {
		e.Kind = *p.Kind
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.IsEssential != nil {
		e.IsEssential = *p.IsEssential
	}
	if p.DueDate != nil {
		e.DueDate = *p.DueDate
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.PaidDate != nil {
		d := *p.PaidDate
		e.PaidDate = &d
	}
	if p.PaidBy != nil {
		b := *p.PaidBy
		e.PaidBy = &b
	}
	if p.SplitBetween != nil {
		e.SplitBetween = append([]string(nil), p.SplitBetween...)
	}
	if p.ClearInstallments {
		e.Installments = nil
	}
	if p.Installments != nil {
		i := *p.Installments
		e.Installments = &i
	}
	if p.ReceiptPath != nil {
		r := *p.ReceiptPath
		e.ReceiptPath = &r
	}
}

// ExpenseRepository is the persistence contract for expenses. Every call is
// scoped to the owner.
type ExpenseRepository interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]*Expense, error)
	GetByID(ctx context.Context, ownerID uuid.UUID, id string) (*Expense, error)
	Create(ctx context.Context, ownerID uuid.UUID, expense *Expense) (*Expense, error)
	Update(ctx context.Context, ownerID uuid.UUID, id string, patch ExpensePatch) error
	Delete(ctx context.Context, ownerID uuid.UUID, id string) error
}
