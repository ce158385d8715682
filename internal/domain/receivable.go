package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Receivable struct {
	ID           string          `json:"id"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Category     string          `json:"category"`
	DueDate      time.Time       `json:"dueDate"`
	Status       ItemStatus      `json:"status"`
	ReceivedDate *time.Time      `json:"receivedDate,omitempty"`
	ReceivedBy   *string         `json:"receivedBy,omitempty"`
	SplitBetween []string        `json:"splitBetween"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (r *Receivable) DueOn() time.Time       { return r.DueDate }
func (r *Receivable) Value() decimal.Decimal { return r.Amount }
func (r *Receivable) IsPaid() bool           { return r.Status == StatusPaid }

func (r *Receivable) Clone() *Receivable {
	c := *r
	c.SplitBetween = append([]string(nil), r.SplitBetween...)
	if r.ReceivedDate != nil {
		d := *r.ReceivedDate
		c.ReceivedDate = &d
	}
	if r.ReceivedBy != nil {
		b := *r.ReceivedBy
		c.ReceivedBy = &b
	}
	return &c
}

// ReceivablePatch lists the independently updatable receivable fields
type ReceivablePatch struct {
	Description  *string
	Amount       *decimal.Decimal
	Category     *string
	DueDate      *time.Time
	Status       *ItemStatus
	ReceivedDate *time.Time
	ReceivedBy   *string
	SplitBetween []string
}

func (p ReceivablePatch) IsEmpty() bool {
	return p.Description == nil && p.Amount == nil && p.Category == nil && p.DueDate == nil &&
		p.Status == nil && p.ReceivedDate == nil && p.ReceivedBy == nil && p.SplitBetween == nil
}

func (p ReceivablePatch) Apply(r *Receivable) {
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.DueDate != nil {
		r.DueDate = *p.DueDate
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.ReceivedDate != nil {
		d := *p.ReceivedDate
		r.ReceivedDate = &d
	}
	if p.ReceivedBy != nil {
		b := *p.ReceivedBy
		r.ReceivedBy = &b
	}
	if p.SplitBetween != nil {
		r.SplitBetween = append([]string(nil), p.SplitBetween...)
	}
}

type ReceivableRepository interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]*Receivable, error)
	GetByID(ctx context.Context, ownerID uuid.UUID, id string) (*Receivable, error)
	Create(ctx context.Context, ownerID uuid.UUID, receivable *Receivable) (*Receivable, error)
	Update(ctx context.Context, ownerID uuid.UUID, id string, patch ReceivablePatch) error
	Delete(ctx context.Context, ownerID uuid.UUID, id string) error
}
