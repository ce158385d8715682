package postgres

import (
	"context"
	"errors"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PersonRepository implements domain.PersonRepository using PostgreSQL
type PersonRepository struct {
	pool *pgxpool.Pool
}

// NewPersonRepository creates a new PersonRepository
func NewPersonRepository(pool *pgxpool.Pool) *PersonRepository {
	return &PersonRepository{pool: pool}
}

func (r *PersonRepository) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Person, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM people WHERE owner_id = $1 ORDER BY position`, ownerID)
	if err != nil {
		return nil, domain.NewRepositoryError("list people", err)
	}
	people, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Person, error) {
		var p domain.Person
		err := row.Scan(&p.ID, &p.Name)
		return &p, err
	})
	if err != nil {
		return nil, domain.NewRepositoryError("list people", err)
	}
	return people, nil
}

func (r *PersonRepository) Create(ctx context.Context, ownerID uuid.UUID, person *domain.Person) (*domain.Person, error) {
	created := *person
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	if err := insertPerson(ctx, r.pool, ownerID, created); err != nil {
		return nil, domain.NewRepositoryError("create person", err)
	}
	return &created, nil
}

func (r *PersonRepository) Update(ctx context.Context, ownerID uuid.UUID, id string, patch domain.PersonPatch) error {
	if patch.Name == nil {
		return nil
	}
	tag, err := r.pool.Exec(ctx, `UPDATE people SET name = $3 WHERE owner_id = $1 AND id = $2`, ownerID, id, *patch.Name)
	if err != nil {
		return domain.NewRepositoryError("update person", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPersonNotFound
	}
	return nil
}

func (r *PersonRepository) Delete(ctx context.Context, ownerID uuid.UUID, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM people WHERE owner_id = $1 AND id = $2`, ownerID, id)
	return domain.NewRepositoryError("delete person", err)
}

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func (r *CategoryRepository) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, kind FROM categories WHERE owner_id = $1 ORDER BY position`, ownerID)
	if err != nil {
		return nil, domain.NewRepositoryError("list categories", err)
	}
	return collectCategories(rows)
}

func (r *CategoryRepository) ListByKind(ctx context.Context, ownerID uuid.UUID, kind domain.CategoryKind) ([]*domain.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, kind FROM categories WHERE owner_id = $1 AND kind = $2 ORDER BY position`,
		ownerID, string(kind))
	if err != nil {
		return nil, domain.NewRepositoryError("list categories", err)
	}
	return collectCategories(rows)
}

func (r *CategoryRepository) Create(ctx context.Context, ownerID uuid.UUID, category *domain.Category) (*domain.Category, error) {
	created := *category
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	if err := insertCategory(ctx, r.pool, ownerID, created); err != nil {
		return nil, domain.NewRepositoryError("create category", err)
	}
	return &created, nil
}

func (r *CategoryRepository) Update(ctx context.Context, ownerID uuid.UUID, id string, patch domain.CategoryPatch) error {
	if patch.Name == nil {
		return nil
	}
	tag, err := r.pool.Exec(ctx, `UPDATE categories SET name = $3 WHERE owner_id = $1 AND id = $2`, ownerID, id, *patch.Name)
	if err != nil {
		return domain.NewRepositoryError("update category", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, ownerID uuid.UUID, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE owner_id = $1 AND id = $2`, ownerID, id)
	return domain.NewRepositoryError("delete category", err)
}

// SettingsRepository implements domain.SettingsRepository using PostgreSQL
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Get returns the stored income, or zero when the owner has no settings row
func (r *SettingsRepository) Get(ctx context.Context, ownerID uuid.UUID) (*domain.Settings, error) {
	var income pgtype.Numeric
	err := r.pool.QueryRow(ctx, `SELECT monthly_income FROM settings WHERE owner_id = $1`, ownerID).Scan(&income)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.Settings{MonthlyIncome: decimal.Zero}, nil
		}
		return nil, domain.NewRepositoryError("get settings", err)
	}
	return &domain.Settings{MonthlyIncome: pgNumericToDecimal(income)}, nil
}

// Update upserts the settings row
func (r *SettingsRepository) Update(ctx context.Context, ownerID uuid.UUID, patch domain.SettingsPatch) error {
	if patch.MonthlyIncome == nil {
		return nil
	}
	income, err := decimalToPgNumeric(*patch.MonthlyIncome)
	if err != nil {
		return domain.NewRepositoryError("update settings", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO settings (owner_id, monthly_income) VALUES ($1, $2)
		ON CONFLICT (owner_id) DO UPDATE SET monthly_income = EXCLUDED.monthly_income, updated_at = now()`,
		ownerID, income)
	return domain.NewRepositoryError("update settings", err)
}

// SeedDefaults writes the settings row, people and categories in one transaction.
// Rows that already exist are kept.
func (r *SettingsRepository) SeedDefaults(ctx context.Context, ownerID uuid.UUID, people []domain.Person, categories []domain.Category) error {
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO settings (owner_id, monthly_income) VALUES ($1, 0) ON CONFLICT (owner_id) DO NOTHING`,
			ownerID); err != nil {
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

func insertPerson(ctx context.Context, db DBTX, ownerID uuid.UUID, p domain.Person) error {
	_, err := db.Exec(ctx,
		`INSERT INTO people (owner_id, id, name) VALUES ($1, $2, $3) ON CONFLICT (owner_id, id) DO NOTHING`,
		ownerID, p.ID, p.Name)
	return err
}

func insertCategory(ctx context.Context, db DBTX, ownerID uuid.UUID, c domain.Category) error {
	_, err := db.Exec(ctx,
		`INSERT INTO categories (owner_id, id, name, kind) VALUES ($1, $2, $3, $4) ON CONFLICT (owner_id, id) DO NOTHING`,
		ownerID, c.ID, c.Name, string(c.Kind))
	return err
}

func collectCategories(rows pgx.Rows) ([]*domain.Category, error) {
	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Category, error) {
		var (
			c    domain.Category
			kind string
		)
		err := row.Scan(&c.ID, &c.Name, &kind)
		c.Kind = domain.CategoryKind(kind)
		return &c, err
	})
	if err != nil {
		return nil, domain.NewRepositoryError("list categories", err)
	}
	return categories, nil
}
