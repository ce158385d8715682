package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/google/uuid"
)

const userColumns = `id, subject, email, password_hash, created_at`

// UserRepository implements domain.UserRepository on SQLite
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id.String())
}

func (r *UserRepository) GetBySubject(ctx context.Context, subject string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE subject = ?`, subject)
}

// GetByEmail retrieves a user by email, ignoring case
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower(?) AND email <> ''`, email)
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	created := &domain.User{
		ID:           uuid.New(),
		Subject:      user.Subject,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	var hash sql.NullString
	if created.PasswordHash != "" {
		hash = sql.NullString{String: created.PasswordHash, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, subject, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		created.ID.String(), created.Subject, created.Email, hash, formatTime(created.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrEmailExists
		}
		return nil, domain.NewRepositoryError("create user", err)
	}
	return created, nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var (
		u         domain.User
		id        string
		hash      sql.NullString
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&id, &u.Subject, &u.Email, &hash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.NewRepositoryError("get user", err)
	}

	if u.ID, err = uuid.Parse(id); err != nil {
		return nil, domain.NewRepositoryError("get user", err)
	}
	if u.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, domain.NewRepositoryError("get user", err)
	}
	u.PasswordHash = hash.String
	return &u, nil
}
