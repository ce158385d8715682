package service

import (
	"context"
	"strings"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/dafibh/casa/casa-backend/internal/finance"
	"github.com/dafibh/casa/casa-backend/internal/util"
	"github.com/dafibh/casa/casa-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ReceivableService handles receivable-related business logic
type ReceivableService struct {
	eventEmitter
	receivableRepo domain.ReceivableRepository
	personRepo     domain.PersonRepository
	now            func() time.Time
}

// NewReceivableService creates a new ReceivableService
func NewReceivableService(receivableRepo domain.ReceivableRepository, personRepo domain.PersonRepository) *ReceivableService {
	return &ReceivableService{
		receivableRepo: receivableRepo,
		personRepo:     personRepo,
		now:            utcNow,
	}
}

// CreateReceivableInput holds the input for creating a receivable
type CreateReceivableInput struct {
	Description  string
	Amount       decimal.Decimal
	Category     string
	DueDate      *time.Time
	SplitBetween []string
}

// Create validates and stores a new pending receivable
func (s *ReceivableService) Create(ctx context.Context, ownerID uuid.UUID, input CreateReceivableInput) (*domain.Receivable, error) {
	if ownerID == uuid.Nil {
		return nil, nil
	}

	dueDate := util.Today()
	if input.DueDate != nil {
		dueDate = *input.DueDate
	}

	receivable := &domain.Receivable{
		Description:  strings.TrimSpace(input.Description),
		Amount:       input.Amount,
		Category:     strings.TrimSpace(input.Category),
		DueDate:      dueDate,
		Status:       domain.StatusPending,
		SplitBetween: normalizeSplit(input.SplitBetween),
	}

	if err := validateReceivable(receivable); err != nil {
		return nil, err
	}
	if err := checkKnownPeople(ctx, s.personRepo, ownerID, receivable.SplitBetween); err != nil {
		return nil, err
	}

	created, err := s.receivableRepo.Create(ctx, ownerID, receivable)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to create receivable")
		return nil, err
	}

	s.publishEvent(ownerID, websocket.ReceivableCreated(created))
	return created, nil
}

// List returns the owner's receivables, restricted to month when it is set
func (s *ReceivableService) List(ctx context.Context, ownerID uuid.UUID, month *domain.CalendarMonth) ([]*domain.Receivable, error) {
	if ownerID == uuid.Nil {
		return nil, nil
	}

	receivables, err := s.receivableRepo.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if month != nil {
		receivables = finance.SelectForMonth(receivables, *month)
	}
	return receivables, nil
}

// Get retrieves a single receivable
func (s *ReceivableService) Get(ctx context.Context, ownerID uuid.UUID, id string) (*domain.Receivable, error) {
	if ownerID == uuid.Nil {
		return nil, nil
	}
	return s.receivableRepo.GetByID(ctx, ownerID, id)
}

// Update applies a patch after validating the patched receivable
func (s *ReceivableService) Update(ctx context.Context, ownerID uuid.UUID, id string, patch domain.ReceivablePatch) (*domain.Receivable, error) {
	if ownerID == uuid.Nil {
		return nil, nil
	}

	if patch.Description != nil {
		trimmed := strings.TrimSpace(*patch.Description)
		patch.Description = &trimmed
	}
	if patch.Category != nil {
		trimmed := strings.TrimSpace(*patch.Category)
		patch.Category = &trimmed
	}
	if patch.SplitBetween != nil {
		patch.SplitBetween = normalizeSplit(patch.SplitBetween)
		if len(patch.SplitBetween) == 0 {
			return nil, domain.ErrSplitRequired
		}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	current, err := s.receivableRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return current, nil
	}

	updated := current.Clone()
	patch.Apply(updated)
	if err := validateReceivable(updated); err != nil {
		return nil, err
	}
	if patch.SplitBetween != nil {
		if err := checkKnownPeople(ctx, s.personRepo, ownerID, patch.SplitBetween); err != nil {
			return nil, err
		}
	}

	if err := s.receivableRepo.Update(ctx, ownerID, id, patch); err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Str("receivable_id", id).Msg("Failed to update receivable")
		return nil, err
	}
	updated.UpdatedAt = s.now()

	s.publishEvent(ownerID, websocket.ReceivableUpdated(updated))
	return updated, nil
}

// MarkReceived moves a receivable to paid and stamps the received date
func (s *ReceivableService) MarkReceived(ctx context.Context, ownerID uuid.UUID, id string, receivedBy *string) (*domain.Receivable, error) {
	if ownerID == uuid.Nil {
		return nil, nil
	}

	receivedBy = trimOptional(receivedBy)
	if receivedBy != nil {
		if err := checkKnownPeople(ctx, s.personRepo, ownerID, []string{*receivedBy}); err != nil {
			return nil, err
		}
	}

	current, err := s.receivableRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	status := domain.StatusPaid
	receivedAt := s.now()
	patch := domain.ReceivablePatch{
		Status:       &status,
		ReceivedDate: &receivedAt,
		ReceivedBy:   receivedBy,
	}
	if err := s.receivableRepo.Update(ctx, ownerID, id, patch); err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Str("receivable_id", id).Msg("Failed to mark receivable received")
		return nil, err
	}

	patch.Apply(current)
	s.publishEvent(ownerID, websocket.ReceivableReceived(current))
	return current, nil
}

// Delete removes a receivable. Deleting a missing receivable is not an error.
func (s *ReceivableService) Delete(ctx context.Context, ownerID uuid.UUID, id string) error {
	if ownerID == uuid.Nil {
		return nil
	}

	if err := s.receivableRepo.Delete(ctx, ownerID, id); err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Str("receivable_id", id).Msg("Failed to delete receivable")
		return err
	}

	s.publishEvent(ownerID, websocket.ReceivableDeleted(map[string]interface{}{"id": id}))
	return nil
}

func validateReceivable(r *domain.Receivable) error {
	if r.Description == "" {
		return domain.ErrDescriptionRequired
	}
	if len(r.Description) > domain.MaxDescriptionLength {
		return domain.ErrDescriptionTooLong
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}
	if !domain.HasMoneyPrecision(r.Amount) {
		return domain.ErrAmountPrecision
	}
	if r.Category == "" {
		return domain.ErrCategoryRequired
	}
	if len(r.SplitBetween) == 0 {
		return domain.ErrSplitRequired
	}
	if !r.Status.Valid() {
		return domain.ErrInvalidStatus
	}
	return nil
}
