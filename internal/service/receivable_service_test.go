package service

import (
	"context"
	"testing"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/dafibh/casa/casa-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupReceivableService() (*ReceivableService, *testutil.MockReceivableRepository, *testutil.RecordingPublisher, uuid.UUID) {
	repo := testutil.NewMockReceivableRepository()
	people := testutil.NewMockPersonRepository()
	owner := uuid.New()
	people.AddPerson(owner, domain.Person{ID: "1", Name: "Pessoa 1"})
	people.AddPerson(owner, domain.Person{ID: "2", Name: "Pessoa 2"})

	svc := NewReceivableService(repo, people)
	svc.now = func() time.Time { return fixedNow }
	publisher := &testutil.RecordingPublisher{}
	svc.SetEventPublisher(publisher)
	return svc, repo, publisher, owner
}

func refundInput(due time.Time) CreateReceivableInput {
	return CreateReceivableInput{
		Description:  "Reembolso plano de saúde",
		Amount:       decimal.RequireFromString("500"),
		Category:     "6",
		DueDate:      &due,
		SplitBetween: []string{"1"},
	}
}

func TestReceivableService_Create(t *testing.T) {
	svc, repo, publisher, owner := setupReceivableService()

	created, err := svc.Create(context.Background(), owner, refundInput(time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)))

	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.StatusPending, created.Status)
	assert.Nil(t, created.ReceivedDate)
	assert.Equal(t, 1, repo.CreateCalls)
	assert.Equal(t, []string{"receivable.created"}, publisher.Types())
}

func TestReceivableService_CreateValidation(t *testing.T) {
	due := time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mutate  func(*CreateReceivableInput)
		wantErr error
	}{
		{"blank description", func(in *CreateReceivableInput) { in.Description = "" }, domain.ErrDescriptionRequired},
		{"negative amount", func(in *CreateReceivableInput) { in.Amount = decimal.NewFromInt(-1) }, domain.ErrInvalidAmount},
		{"amount below one cent", func(in *CreateReceivableInput) { in.Amount = decimal.RequireFromString("10.001") }, domain.ErrAmountPrecision},
		{"missing category", func(in *CreateReceivableInput) { in.Category = " " }, domain.ErrCategoryRequired},
		{"empty split", func(in *CreateReceivableInput) { in.SplitBetween = nil }, domain.ErrSplitRequired},
		{"unknown person", func(in *CreateReceivableInput) { in.SplitBetween = []string{"7"} }, domain.ErrUnknownPerson},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _, owner := setupReceivableService()
			input := refundInput(due)
			tt.mutate(&input)

			_, err := svc.Create(context.Background(), owner, input)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, 0, repo.CreateCalls)
		})
	}
}

func TestReceivableService_ListByMonth(t *testing.T) {
	svc, _, _, owner := setupReceivableService()
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, refundInput(time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner, refundInput(time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	all, err := svc.List(ctx, owner, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	jan := domain.CalendarMonth{Year: 2025, Month: time.January}
	inJan, err := svc.List(ctx, owner, &jan)
	require.NoError(t, err)
	require.Len(t, inJan, 1)
	assert.Equal(t, time.January, inJan[0].DueDate.Month())
}

func TestReceivableService_MarkReceived(t *testing.T) {
	svc, repo, publisher, owner := setupReceivableService()
	ctx := context.Background()
	created, err := svc.Create(ctx, owner, refundInput(time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	receivedBy := "2"
	received, err := svc.MarkReceived(ctx, owner, created.ID, &receivedBy)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, received.Status)
	require.NotNil(t, received.ReceivedDate)
	assert.True(t, received.ReceivedDate.Equal(fixedNow))
	assert.Equal(t, "2", *received.ReceivedBy)
	assert.Equal(t, created.Description, received.Description)
	assert.True(t, created.Amount.Equal(received.Amount))

	stored, err := repo.GetByID(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPaid())
	assert.Equal(t, "receivable.received", publisher.Types()[1])
}

func TestReceivableService_MarkReceivedNotFound(t *testing.T) {
	svc, repo, _, owner := setupReceivableService()

	_, err := svc.MarkReceived(context.Background(), owner, "nope", nil)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, repo.UpdateCalls)
}

func TestReceivableService_Update(t *testing.T) {
	svc, _, _, owner := setupReceivableService()
	ctx := context.Background()
	created, err := svc.Create(ctx, owner, refundInput(time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	desc := "  Reembolso dentista "
	updated, err := svc.Update(ctx, owner, created.ID, domain.ReceivablePatch{
		Description:  &desc,
		SplitBetween: []string{"1", "2"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Reembolso dentista", updated.Description)
	assert.Equal(t, []string{"1", "2"}, updated.SplitBetween)

	bad := decimal.Zero
	_, err = svc.Update(ctx, owner, created.ID, domain.ReceivablePatch{Amount: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestReceivableService_DeleteIsIdempotent(t *testing.T) {
	svc, repo, publisher, owner := setupReceivableService()
	ctx := context.Background()
	created, err := svc.Create(ctx, owner, refundInput(time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owner, created.ID))
	require.NoError(t, svc.Delete(ctx, owner, created.ID))

	remaining, err := repo.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, remaining)
	assert.Equal(t, "receivable.deleted", publisher.Types()[1])
}

func TestReceivableService_NilOwner(t *testing.T) {
	svc, repo, publisher, _ := setupReceivableService()

	created, err := svc.Create(context.Background(), uuid.Nil, refundInput(time.Now()))

	assert.NoError(t, err)
	assert.Nil(t, created)
	assert.Equal(t, 0, repo.CreateCalls)
	assert.Empty(t, publisher.Events)
}
