package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/auth"
	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/dafibh/casa/casa-backend/internal/testutil"
	"github.com/google/uuid"
)

type authFixture struct {
	svc      *AuthService
	users    *testutil.MockUserRepository
	settings *testutil.MockSettingsRepository
	people   *testutil.MockPersonRepository
	tokens   *auth.TokenManager
}

func newAuthFixture(withTokens bool) *authFixture {
	users := testutil.NewMockUserRepository()
	people := testutil.NewMockPersonRepository()
	categories := testutil.NewMockCategoryRepository()
	settings := testutil.NewMockSettingsRepository(people, categories)
	settingsService := NewSettingsService(settings, people, categories)

	var tokens *auth.TokenManager
	if withTokens {
		tokens = auth.NewTokenManager("test-secret-key-with-enough-bytes", time.Hour)
	}
	return &authFixture{
		svc:      NewAuthService(users, settingsService, tokens),
		users:    users,
		settings: settings,
		people:   people,
		tokens:   tokens,
	}
}

func TestAuthenticateSubject_NewUser(t *testing.T) {
	f := newAuthFixture(false)

	result, err := f.svc.AuthenticateSubject(context.Background(), "auth0|12345", " Test@Example.com ")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !result.IsNewUser {
		t.Error("Expected IsNewUser to be true for new user")
	}
	if result.User.Subject != "auth0|12345" {
		t.Errorf("Expected subject auth0|12345, got %s", result.User.Subject)
	}
	if result.User.Email != "test@example.com" {
		t.Errorf("Expected normalized email, got %s", result.User.Email)
	}
	if f.settings.SeedCalls != 1 {
		t.Errorf("Expected defaults to be seeded once, got %d", f.settings.SeedCalls)
	}
	if people := f.people.People[result.User.ID]; len(people) != 2 {
		t.Errorf("Expected 2 default people, got %d", len(people))
	}
}

func TestAuthenticateSubject_ExistingUser(t *testing.T) {
	f := newAuthFixture(false)
	existing := &domain.User{ID: uuid.New(), Subject: "auth0|12345", Email: "test@example.com"}
	f.users.AddUser(existing)

	result, err := f.svc.AuthenticateSubject(context.Background(), "auth0|12345", "test@example.com")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.IsNewUser {
		t.Error("Expected IsNewUser to be false for existing user")
	}
	if result.User.ID != existing.ID {
		t.Errorf("Expected user ID %s, got %s", existing.ID, result.User.ID)
	}
	if f.settings.SeedCalls != 0 {
		t.Error("Expected no seeding for an existing user")
	}
}

func TestSignup_IssuesValidToken(t *testing.T) {
	f := newAuthFixture(true)

	result, err := f.svc.Signup(context.Background(), "Ana@Casa.app", "correct horse")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Token == "" {
		t.Fatal("Expected a token")
	}
	if result.User.PasswordHash == "" || result.User.PasswordHash == "correct horse" {
		t.Error("Expected the password to be stored hashed")
	}
	if result.User.Subject != "local|ana@casa.app" {
		t.Errorf("Expected local subject, got %s", result.User.Subject)
	}

	claims, err := f.tokens.Validate(result.Token)
	if err != nil {
		t.Fatalf("Expected token to validate, got %v", err)
	}
	owner, err := claims.OwnerID()
	if err != nil || owner != result.User.ID {
		t.Errorf("Expected owner %s, got %s (%v)", result.User.ID, owner, err)
	}
}

func TestSignup_Validation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"invalid email", "not-an-email", "long enough pass", domain.ErrInvalidEmail},
		{"empty email", "", "long enough pass", domain.ErrInvalidEmail},
		{"short password", "ana@casa.app", "short", domain.ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(true)

			_, err := f.svc.Signup(context.Background(), tt.email, tt.password)

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if len(f.users.ByID) != 0 {
				t.Error("Expected no user to be created")
			}
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(true)
	if _, err := f.svc.Signup(context.Background(), "ana@casa.app", "password-one"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	_, err := f.svc.Signup(context.Background(), "ANA@casa.app", "password-two")

	if !errors.Is(err, domain.ErrEmailExists) {
		t.Errorf("Expected ErrEmailExists, got %v", err)
	}
}

func TestSignIn(t *testing.T) {
	f := newAuthFixture(true)
	signup, err := f.svc.Signup(context.Background(), "ana@casa.app", "correct horse")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	result, err := f.svc.SignIn(context.Background(), "ana@casa.app", "correct horse")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.User.ID != signup.User.ID || result.IsNewUser {
		t.Error("Expected sign in to return the existing user")
	}

	if _, err := f.svc.SignIn(context.Background(), "ana@casa.app", "wrong horse"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for a wrong password, got %v", err)
	}
	if _, err := f.svc.SignIn(context.Background(), "nobody@casa.app", "correct horse"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for an unknown email, got %v", err)
	}
}

func TestLocalAuthDisabled(t *testing.T) {
	f := newAuthFixture(false)

	if _, err := f.svc.Signup(context.Background(), "ana@casa.app", "correct horse"); !errors.Is(err, ErrLocalAuthDisabled) {
		t.Errorf("Expected ErrLocalAuthDisabled, got %v", err)
	}
	if _, err := f.svc.SignIn(context.Background(), "ana@casa.app", "correct horse"); !errors.Is(err, ErrLocalAuthDisabled) {
		t.Errorf("Expected ErrLocalAuthDisabled, got %v", err)
	}
}

func TestOwnerBySubject(t *testing.T) {
	f := newAuthFixture(false)
	user := &domain.User{ID: uuid.New(), Subject: "auth0|abc"}
	f.users.AddUser(user)

	owner, err := f.svc.OwnerBySubject(context.Background(), "auth0|abc")
	if err != nil || owner != user.ID {
		t.Errorf("Expected %s, got %s (%v)", user.ID, owner, err)
	}

	if _, err := f.svc.OwnerBySubject(context.Background(), "auth0|missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestEnsureOwner_ProvisionsOnce(t *testing.T) {
	f := newAuthFixture(false)
	ctx := context.Background()

	first, err := f.svc.EnsureOwner(ctx, "auth0|777", "bia@casa.app")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := f.svc.EnsureOwner(ctx, "auth0|777", "bia@casa.app")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if first != second {
		t.Errorf("Expected the same owner, got %s and %s", first, second)
	}
	if f.settings.SeedCalls != 1 {
		t.Errorf("Expected one seeding, got %d", f.settings.SeedCalls)
	}
}
