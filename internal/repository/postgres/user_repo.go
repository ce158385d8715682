package postgres

import (
	"context"
	"errors"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, subject, email, password_hash, created_at`

// UserRepository implements domain.UserRepository using PostgreSQL
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID retrieves a user by their UUID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetBySubject retrieves a user by their identity provider subject
func (r *UserRepository) GetBySubject(ctx context.Context, subject string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE subject = $1`, subject)
}

// GetByEmail retrieves a user by email, ignoring case
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1) AND email <> ''`, email)
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	var hash *string
	if user.PasswordHash != "" {
		hash = &user.PasswordHash
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (subject, email, password_hash) VALUES ($1, $2, $3) RETURNING `+userColumns,
		user.Subject, user.Email, stringPtrToPgText(hash))
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrEmailExists
		}
		return nil, domain.NewRepositoryError("create user", err)
	}
	return created, nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.NewRepositoryError("get user", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		hash pgtype.Text
	)
	if err := row.Scan(&u.ID, &u.Subject, &u.Email, &hash, &u.CreatedAt); err != nil {
		return nil, err
	}
	if p := pgTextToStringPtr(hash); p != nil {
		u.PasswordHash = *p
	}
	return &u, nil
}
