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

// PersonRepository implements domain.PersonRepository on SQLite
type PersonRepository struct {
	db *sql.DB
}

// NewPersonRepository creates a new PersonRepository
func NewPersonRepository(db *sql.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

func (r *PersonRepository) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Person, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM people WHERE owner_id = ? ORDER BY position`, ownerID.String())
	if err != nil {
		return nil, domain.NewRepositoryError("list people", err)
	}
	defer rows.Close()

	people := make([]*domain.Person, 0)
	for rows.Next() {
		var p domain.Person
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, domain.NewRepositoryError("list people", err)
		}
		people = append(people, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewRepositoryError("list people", err)
	}
	return people, nil
}

func (r *PersonRepository) Create(ctx context.Context, ownerID uuid.UUID, person *domain.Person) (*domain.Person, error) {
	created := *person
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	if err := insertPerson(ctx, r.db, ownerID, created); err != nil {
		return nil, domain.NewRepositoryError("create person", err)
	}
	return &created, nil
}

func (r *PersonRepository) Update(ctx context.Context, ownerID uuid.UUID, id string, patch domain.PersonPatch) error {
	if patch.Name == nil {
		return nil
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE people SET name = ? WHERE owner_id = ? AND id = ?`, *patch.Name, ownerID.String(), id)
	if err != nil {
		return domain.NewRepositoryError("update person", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrPersonNotFound
	}
	return nil
}

func (r *PersonRepository) Delete(ctx context.Context, ownerID uuid.UUID, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM people WHERE owner_id = ? AND id = ?`, ownerID.String(), id)
	return domain.NewRepositoryError("delete person", err)
}

// CategoryRepository implements domain.CategoryRepository on SQLite
type CategoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Category, error) {
	return r.query(ctx,
		`SELECT id, name, kind FROM categories WHERE owner_id = ? ORDER BY position`, ownerID.String())
}

func (r *CategoryRepository) ListByKind(ctx context.Context, ownerID uuid.UUID, kind domain.CategoryKind) ([]*domain.Category, error) {
	return r.query(ctx,
		`SELECT id, name, kind FROM categories WHERE owner_id = ? AND kind = ? ORDER BY position`,
		ownerID.String(), string(kind))
}

func (r *CategoryRepository) Create(ctx context.Context, ownerID uuid.UUID, category *domain.Category) (*domain.Category, error) {
	created := *category
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	if err := insertCategory(ctx, r.db, ownerID, created); err != nil {
		return nil, domain.NewRepositoryError("create category", err)
	}
	return &created, nil
}

func (r *CategoryRepository) Update(ctx context.Context, ownerID uuid.UUID, id string, patch domain.CategoryPatch) error {
	if patch.Name == nil {
		return nil
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ? WHERE owner_id = ? AND id = ?`, *patch.Name, ownerID.String(), id)
	if err != nil {
		return domain.NewRepositoryError("update category", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, ownerID uuid.UUID, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE owner_id = ? AND id = ?`, ownerID.String(), id)
	return domain.NewRepositoryError("delete category", err)
}

func (r *CategoryRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewRepositoryError("list categories", err)
	}
	defer rows.Close()

	categories := make([]*domain.Category, 0)
	for rows.Next() {
		var (
			c    domain.Category
			kind string
		)
		if err := rows.Scan(&c.ID, &c.Name, &kind); err != nil {
			return nil, domain.NewRepositoryError("list categories", err)
		}
		c.Kind = domain.CategoryKind(kind)
		categories = append(categories, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewRepositoryError("list categories", err)
	}
	return categories, nil
}

// SettingsRepository implements domain.SettingsRepository on SQLite
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the stored income, or zero when the owner has no settings row
func (r *SettingsRepository) Get(ctx context.Context, ownerID uuid.UUID) (*domain.Settings, error) {
	var income decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT monthly_income FROM settings WHERE owner_id = ?`, ownerID.String()).Scan(&income)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.Settings{MonthlyIncome: decimal.Zero}, nil
		}
		return nil, domain.NewRepositoryError("get settings", err)
	}
	return &domain.Settings{MonthlyIncome: income}, nil
}

// Update upserts the settings row
func (r *SettingsRepository) Update(ctx context.Context, ownerID uuid.UUID, patch domain.SettingsPatch) error {
	if patch.MonthlyIncome == nil {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (owner_id, monthly_income, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (owner_id) DO UPDATE SET monthly_income = excluded.monthly_income, updated_at = excluded.updated_at`,
		ownerID.String(), patch.MonthlyIncome.String(), formatTime(time.Now()))
	return domain.NewRepositoryError("update settings", err)
}

// SeedDefaults writes the settings row, people and categories in one transaction.
// Rows that already exist are kept.
func (r *SettingsRepository) SeedDefaults(ctx context.Context, ownerID uuid.UUID, people []domain.Person, categories []domain.Category) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings (owner_id, monthly_income, updated_at) VALUES (?, '0', ?) ON CONFLICT (owner_id) DO NOTHING`,
			ownerID.String(), formatTime(time.Now())); err != nil {
			return err
		}
		for _, p := range people {
			if err := insertPerson(ctx, tx, ownerID, p); err != nil {
				return err
			}
		}
		for _, c := range categories {
			if err := insertCategory(ctx, tx, ownerID, c); err != nil {
				return err
			}
		}
		return nil
	})
	return domain.NewRepositoryError("seed defaults", err)
}

func insertPerson(ctx context.Context, db queryer, ownerID uuid.UUID, p domain.Person) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO people (owner_id, id, name) VALUES (?, ?, ?) ON CONFLICT (owner_id, id) DO NOTHING`,
		ownerID.String(), p.ID, p.Name)
	return err
}

func insertCategory(ctx context.Context, db queryer, ownerID uuid.UUID, c domain.Category) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO categories (owner_id, id, name, kind) VALUES (?, ?, ?, ?) ON CONFLICT (owner_id, id) DO NOTHING`,
		ownerID.String(), c.ID, c.Name, string(c.Kind))
	return err
}
