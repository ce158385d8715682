package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const receivableColumns = `id, description, amount, category, due_date, status,
	received_date, received_by, split_between, created_at, updated_at`

// ReceivableRepository implements domain.ReceivableRepository using PostgreSQL
type ReceivableRepository struct {
	pool *pgxpool.Pool
}

// NewReceivableRepository creates a new ReceivableRepository
func NewReceivableRepository(pool *pgxpool.Pool) *ReceivableRepository {
	return &ReceivableRepository{pool: pool}
}

func (r *ReceivableRepository) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Receivable, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+receivableColumns+` FROM receivables WHERE owner_id = $1 ORDER BY position`, ownerID)
	if err != nil {
		return nil, domain.NewRepositoryError("list receivables", err)
	}
	defer rows.Close()

	receivables := make([]*domain.Receivable, 0)
	for rows.Next() {
		rec, err := scanReceivable(rows)
		if err != nil {
			return nil, domain.NewRepositoryError("scan receivable", err)
		}
		receivables = append(receivables, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewRepositoryError("list receivables", err)
	}
	return receivables, nil
}

func (r *ReceivableRepository) GetByID(ctx context.Context, ownerID uuid.UUID, id string) (*domain.Receivable, error) {
	return getReceivable(ctx, r.pool, ownerID, id, false)
}

func (r *ReceivableRepository) Create(ctx context.Context, ownerID uuid.UUID, receivable *domain.Receivable) (*domain.Receivable, error) {
	id := receivable.ID
	if id == "" {
		id = uuid.New().String()
	}

	amount, err := decimalToPgNumeric(receivable.Amount)
	if err != nil {
		return nil, domain.NewRepositoryError("create receivable", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO receivables (owner_id, id, description, amount, category, due_date, status,
			received_date, received_by, split_between)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+receivableColumns,
		ownerID, id, receivable.Description, amount, receivable.Category, receivable.DueDate,
		string(receivable.Status), receivable.ReceivedDate, stringPtrToPgText(receivable.ReceivedBy),
		splitOrEmpty(receivable.SplitBetween),
	)
	created, err := scanReceivable(row)
	if err != nil {
		return nil, domain.NewRepositoryError("create receivable", err)
	}
	return created, nil
}

func (r *ReceivableRepository) Update(ctx context.Context, ownerID uuid.UUID, id string, patch domain.ReceivablePatch) error {
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		receivable, err := getReceivable(ctx, tx, ownerID, id, true)
		if err != nil {
			return err
		}
		patch.Apply(receivable)

		amount, err := decimalToPgNumeric(receivable.Amount)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE receivables SET description = $3, amount = $4, category = $5, due_date = $6,
				status = $7, received_date = $8, received_by = $9, split_between = $10,
				updated_at = now()
			WHERE owner_id = $1 AND id = $2`,
			ownerID, id, receivable.Description, amount, receivable.Category, receivable.DueDate,
			string(receivable.Status), receivable.ReceivedDate, stringPtrToPgText(receivable.ReceivedBy),
			splitOrEmpty(receivable.SplitBetween),
		)
		return err
	})
	return domain.NewRepositoryError("update receivable", err)
}

func (r *ReceivableRepository) Delete(ctx context.Context, ownerID uuid.UUID, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM receivables WHERE owner_id = $1 AND id = $2`, ownerID, id)
	return domain.NewRepositoryError("delete receivable", err)
}

func getReceivable(ctx context.Context, db DBTX, ownerID uuid.UUID, id string, forUpdate bool) (*domain.Receivable, error) {
	query := `SELECT ` + receivableColumns + ` FROM receivables WHERE owner_id = $1 AND id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	receivable, err := scanReceivable(db.QueryRow(ctx, query, ownerID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReceivableNotFound
		}
		return nil, domain.NewRepositoryError("get receivable", err)
	}
	return receivable, nil
}

func scanReceivable(row pgx.Row) (*domain.Receivable, error) {
	var (
		rec          domain.Receivable
		amount       pgtype.Numeric
		status       string
		receivedBy   pgtype.Text
		receivedDate *time.Time
	)
	err := row.Scan(
		&rec.ID, &rec.Description, &amount, &rec.Category, &rec.DueDate, &status,
		&receivedDate, &receivedBy, &rec.SplitBetween, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Amount = pgNumericToDecimal(amount)
	rec.Status = domain.ItemStatus(status)
	rec.ReceivedDate = receivedDate
	rec.ReceivedBy = pgTextToStringPtr(receivedBy)
	return &rec, nil
}
