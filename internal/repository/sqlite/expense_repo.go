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

const expenseColumns = `id, description, amount, kind, category, is_essential, due_date, status,
	paid_date, paid_by, split_between, installment_current, installment_total, receipt_path,
	created_at, updated_at`

// ExpenseRepository implements domain.ExpenseRepository on SQLite
type ExpenseRepository struct {
	db *sql.DB
}

// NewExpenseRepository creates a new ExpenseRepository
func NewExpenseRepository(db *sql.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// List returns the owner's expenses in insertion order
func (r *ExpenseRepository) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE owner_id = ? ORDER BY position`, ownerID.String())
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
	return getExpense(ctx, r.db, ownerID, id)
}

// Create inserts an expense, generating an ID when empty
func (r *ExpenseRepository) Create(ctx context.Context, ownerID uuid.UUID, expense *domain.Expense) (*domain.Expense, error) {
	created := expense.Clone()
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	split, err := encodeSplit(created.SplitBetween)
	if err != nil {
		return nil, domain.NewRepositoryError("create expense", err)
	}
	current, total := installmentColumns(created.Installments)

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO expenses (owner_id, id, description, amount, kind, category, is_essential, due_date,
			status, paid_date, paid_by, split_between, installment_current, installment_total,
			receipt_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ownerID.String(), created.ID, created.Description, created.Amount.String(), string(created.Kind),
		created.Category, created.IsEssential, formatDate(created.DueDate), string(created.Status),
		nullTime(created.PaidDate), nullString(created.PaidBy), split, current, total,
		nullString(created.ReceiptPath), formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, domain.NewRepositoryError("create expense", err)
	}

	created.DueDate, _ = parseDate(formatDate(created.DueDate))
	if len(created.SplitBetween) == 0 {
		created.SplitBetween = []string{}
	}
	return created, nil
}

// Update applies the patch to the stored row inside a transaction
func (r *ExpenseRepository) Update(ctx context.Context, ownerID uuid.UUID, id string, patch domain.ExpensePatch) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		expense, err := getExpense(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}
		patch.Apply(expense)

		split, err := encodeSplit(expense.SplitBetween)
		if err != nil {
			return err
		}
		current, total := installmentColumns(expense.Installments)

		_, err = tx.ExecContext(ctx, `
			UPDATE expenses SET description = ?, amount = ?, kind = ?, category = ?, is_essential = ?,
				due_date = ?, status = ?, paid_date = ?, paid_by = ?, split_between = ?,
				installment_current = ?, installment_total = ?, receipt_path = ?, updated_at = ?
			WHERE owner_id = ? AND id = ?`,
			expense.Description, expense.Amount.String(), string(expense.Kind), expense.Category,
			expense.IsEssential, formatDate(expense.DueDate), string(expense.Status),
			nullTime(expense.PaidDate), nullString(expense.PaidBy), split, current, total,
			nullString(expense.ReceiptPath), formatTime(time.Now()),
			ownerID.String(), id,
		)
		return err
	})
	return domain.NewRepositoryError("update expense", err)
}

// Delete removes an expense. Missing rows are ignored.
func (r *ExpenseRepository) Delete(ctx context.Context, ownerID uuid.UUID, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE owner_id = ? AND id = ?`, ownerID.String(), id)
	return domain.NewRepositoryError("delete expense", err)
}

func getExpense(ctx context.Context, db queryer, ownerID uuid.UUID, id string) (*domain.Expense, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE owner_id = ? AND id = ?`, ownerID.String(), id)
	expense, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, domain.NewRepositoryError("get expense", err)
	}
	return expense, nil
}

func scanExpense(row scanner) (*domain.Expense, error) {
	var (
		e                    domain.Expense
		amount               decimal.Decimal
		kind, status         string
		dueDate, split       string
		createdAt, updatedAt string
		paidDate             sql.NullString
		paidBy               sql.NullString
		receiptPath          sql.NullString
		current, total       sql.NullInt64
	)
	err := row.Scan(
		&e.ID, &e.Description, &amount, &kind, &e.Category, &e.IsEssential, &dueDate, &status,
		&paidDate, &paidBy, &split, &current, &total, &receiptPath, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Amount = amount
	e.Kind = domain.ExpenseKind(kind)
	e.Status = domain.ItemStatus(status)
	e.PaidBy = stringPtr(paidBy)
	e.ReceiptPath = stringPtr(receiptPath)
	if current.Valid && total.Valid {
		e.Installments = &domain.Installments{Current: int(current.Int64), Total: int(total.Int64)}
	}

	if e.DueDate, err = parseDate(dueDate); err != nil {
		return nil, err
	}
	if e.PaidDate, err = parseNullTime(paidDate); err != nil {
		return nil, err
	}
	if e.SplitBetween, err = decodeSplit(split); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func installmentColumns(i *domain.Installments) (sql.NullInt64, sql.NullInt64) {
	if i == nil {
		return sql.NullInt64{}, sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(i.Current), Valid: true}, sql.NullInt64{Int64: int64(i.Total), Valid: true}
}
