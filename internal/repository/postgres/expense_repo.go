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

const expenseColumns = `id, description, amount, kind, category, is_essential, due_date, status,
	paid_date, paid_by, split_between, installment_current, installment_total, receipt_path,
	created_at, updated_at`

// ExpenseRepository implements domain.ExpenseRepository using PostgreSQL
type ExpenseRepository struct {
	pool *pgxpool.Pool
}

// NewExpenseRepository creates a new ExpenseRepository
func NewExpenseRepository(pool *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{pool: pool}
}

// List returns the owner's expenses in insertion order
func (r *ExpenseRepository) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Expense, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE owner_id = $1 ORDER BY position`, ownerID)
	if err != nil {
		return nil, domain.NewRepositoryError("list expenses", err)
	}
	defer rows.Close()

	expenses := make([]*domain.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, domain.NewRepositoryError("scan expense", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewRepositoryError("list expenses", err)
	}
	return expenses, nil
}

// GetByID retrieves an expense by its ID
func (r *ExpenseRepository) GetByID(ctx context.Context, ownerID uuid.UUID, id string) (*domain.Expense, error) {
	return getExpense(ctx, r.pool, ownerID, id, false)
}

// Create inserts an expense, generating an ID when empty
func (r *ExpenseRepository) Create(ctx context.Context, ownerID uuid.UUID, expense *domain.Expense) (*domain.Expense, error) {
	id := expense.ID
	if id == "" {
		id = uuid.New().String()
	}

	amount, err := decimalToPgNumeric(expense.Amount)
	if err != nil {
		return nil, domain.NewRepositoryError("create expense", err)
	}
	current, total := installmentColumns(expense.Installments)

	row := r.pool.QueryRow(ctx, `
		INSERT INTO expenses (owner_id, id, description, amount, kind, category, is_essential, due_date,
			status, paid_date, paid_by, split_between, installment_current, installment_total, receipt_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+expenseColumns,
		ownerID, id, expense.Description, amount, string(expense.Kind), expense.Category,
		expense.IsEssential, expense.DueDate, string(expense.Status), expense.PaidDate,
		stringPtrToPgText(expense.PaidBy), splitOrEmpty(expense.SplitBetween), current, total,
		stringPtrToPgText(expense.ReceiptPath),
	)
	created, err := scanExpense(row)
	if err != nil {
		return nil, domain.NewRepositoryError("create expense", err)
	}
	return created, nil
}

// Update locks the row, applies the patch and writes the result back
func (r *ExpenseRepository) Update(ctx context.Context, ownerID uuid.UUID, id string, patch domain.ExpensePatch) error {
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		expense, err := getExpense(ctx, tx, ownerID, id, true)
		if err != nil {
			return err
		}
		patch.Apply(expense)

		amount, err := decimalToPgNumeric(expense.Amount)
		if err != nil {
			return err
		}
		current, total := installmentColumns(expense.Installments)

		_, err = tx.Exec(ctx, `
			UPDATE expenses SET description = $3, amount = $4, kind = $5, category = $6,
				is_essential = $7, due_date = $8, status = $9, paid_date = $10, paid_by = $11,
				split_between = $12, installment_current = $13, installment_total = $14,
				receipt_path = $15, updated_at = now()
			WHERE owner_id = $1 AND id = $2`,
			ownerID, id, expense.Description, amount, string(expense.Kind), expense.Category,
			expense.IsEssential, expense.DueDate, string(expense.Status), expense.PaidDate,
			stringPtrToPgText(expense.PaidBy), splitOrEmpty(expense.SplitBetween), current, total,
			stringPtrToPgText(expense.ReceiptPath),
		)
		return err
	})
	return domain.NewRepositoryError("update expense", err)
}

// Delete removes an expense. Missing rows are ignored.
func (r *ExpenseRepository) Delete(ctx context.Context, ownerID uuid.UUID, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE owner_id = $1 AND id = $2`, ownerID, id)
	return domain.NewRepositoryError("delete expense", err)
}

func getExpense(ctx context.Context, db DBTX, ownerID uuid.UUID, id string, forUpdate bool) (*domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE owner_id = $1 AND id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	expense, err := scanExpense(db.QueryRow(ctx, query, ownerID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, domain.NewRepositoryError("get expense", err)
	}
	return expense, nil
}

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var (
		e            domain.Expense
		amount       pgtype.Numeric
		kind, status string
		paidBy       pgtype.Text
		current      pgtype.Int4
		total        pgtype.Int4
		receiptPath  pgtype.Text
		paidDate     *time.Time
	)
	err := row.Scan(
		&e.ID, &e.Description, &amount, &kind, &e.Category, &e.IsEssential, &e.DueDate, &status,
		&paidDate, &paidBy, &e.SplitBetween, &current, &total, &receiptPath,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Amount = pgNumericToDecimal(amount)
	e.Kind = domain.ExpenseKind(kind)
	e.Status = domain.ItemStatus(status)
	e.PaidDate = paidDate
	e.PaidBy = pgTextToStringPtr(paidBy)
	e.ReceiptPath = pgTextToStringPtr(receiptPath)
	if current.Valid && total.Valid {
		e.Installments = &domain.Installments{Current: int(current.Int32), Total: int(total.Int32)}
	}
	return &e, nil
}

func installmentColumns(i *domain.Installments) (pgtype.Int4, pgtype.Int4) {
	if i == nil {
		return pgtype.Int4{}, pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(i.Current), Valid: true}, pgtype.Int4{Int32: int32(i.Total), Valid: true}
}

func splitOrEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
