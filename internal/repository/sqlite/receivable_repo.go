package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const receivableColumns = `id, description, amount, category, due_date, status,
	received_date, received_by, split_between, created_at, updated_at`

// ReceivableRepository implements domain.ReceivableRepository on SQLite
type ReceivableRepository struct {
	db *sql.DB
}

// NewReceivableRepository creates a new ReceivableRepository
func NewReceivableRepository(db *sql.DB) *ReceivableRepository {
	return &ReceivableRepository{db: db}
}

func (r *ReceivableRepository) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Receivable, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+receivableColumns+` FROM receivables WHERE owner_id = ? ORDER BY position`, ownerID.String())
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
	return getReceivable(ctx, r.db, ownerID, id)
}

func (r *ReceivableRepository) Create(ctx context.Context, ownerID uuid.UUID, receivable *domain.Receivable) (*domain.Receivable, error) {
	created := receivable.Clone()
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	split, err := encodeSplit(created.SplitBetween)
	if err != nil {
		return nil, domain.NewRepositoryError("create receivable", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO receivables (owner_id, id, description, amount, category, due_date, status,
			received_date, received_by, split_between, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ownerID.String(), created.ID, created.Description, created.Amount.String(), created.Category,
		formatDate(created.DueDate), string(created.Status), nullTime(created.ReceivedDate),
		nullString(created.ReceivedBy), split, formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, domain.NewRepositoryError("create receivable", err)
	}

	created.DueDate, _ = parseDate(formatDate(created.DueDate))
	if len(created.SplitBetween) == 0 {
		created.SplitBetween = []string{}
	}
	return created, nil
}

func (r *ReceivableRepository) Update(ctx context.Context, ownerID uuid.UUID, id string, patch domain.ReceivablePatch) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		receivable, err := getReceivable(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}
		patch.Apply(receivable)

		split, err := encodeSplit(receivable.SplitBetween)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE receivables SET description = ?, amount = ?, category = ?, due_date = ?, status = ?,
				received_date = ?, received_by = ?, split_between = ?, updated_at = ?
			WHERE owner_id = ? AND id = ?`,
			receivable.Description, receivable.Amount.String(), receivable.Category,
			formatDate(receivable.DueDate), string(receivable.Status), nullTime(receivable.ReceivedDate),
			nullString(receivable.ReceivedBy), split, formatTime(time.Now()),
			ownerID.String(), id,
		)
		return err
	})
	return domain.NewRepositoryError("update receivable", err)
}

func (r *ReceivableRepository) Delete(ctx context.Context, ownerID uuid.UUID, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM receivables WHERE owner_id = ? AND id = ?`, ownerID.String(), id)
	return domain.NewRepositoryError("delete receivable", err)
}

func getReceivable(ctx context.Context, db queryer, ownerID uuid.UUID, id string) (*domain.Receivable, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+receivableColumns+` FROM receivables WHERE owner_id = ? AND id = ?`, ownerID.String(), id)
	receivable, err := scanReceivable(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReceivableNotFound
		}
		return nil, domain.NewRepositoryError("get receivable", err)
	}
	return receivable, nil
}

func scanReceivable(row scanner) (*domain.Receivable, error) {
	var (
		rec                  domain.Receivable
		amount               decimal.Decimal
		status               string
		dueDate, split       string
		createdAt, updatedAt string
		receivedDate         sql.NullString
		receivedBy           sql.NullString
	)
	err := row.Scan(
		&rec.ID, &rec.Description, &amount, &rec.Category, &dueDate, &status,
		&receivedDate, &receivedBy, &split, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Amount = amount
	rec.Status = domain.ItemStatus(status)
	rec.ReceivedBy = stringPtr(receivedBy)

	if rec.DueDate, err = parseDate(dueDate); err != nil {
		return nil, err
	}
	if rec.ReceivedDate, err = parseNullTime(receivedDate); err != nil {
		return nil, err
	}
	if rec.SplitBetween, err = decodeSplit(split); err != nil {
		return nil, err
	}
	if rec.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, err
	}
	if rec.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}
