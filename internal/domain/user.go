package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LocalSubjectPrefix marks subjects of users that sign in with a password
const LocalSubjectPrefix = "local|"

// User is the owner of all household data. Its ID is the opaque owner id
// passed to every repository call.
type User struct {
	ID           uuid.UUID `json:"id"`
	Subject      string    `json:"subject"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserRepository defines the interface for user persistence operations
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetBySubject(ctx context.Context, subject string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Create returns ErrEmailExists when the email is taken
	Create(ctx context.Context, user *User) (*User, error)
}
