package middleware

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/dafibh/casa/casa-backend/internal/auth"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CustomClaims contains the custom claims from Auth0 JWT
type CustomClaims struct {
	Email string `json:"email"`
}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// SubjectKey is the context key for the identity provider subject
	SubjectKey contextKey = "subject"
	// OwnerIDKey is the context key for the authenticated owner id
	OwnerIDKey contextKey = "owner_id"
)

// OwnerProvider resolves an Auth0 subject to an owner id, creating the
// owner on first sight
type OwnerProvider interface {
	EnsureOwner(ctx context.Context, subject, email string) (uuid.UUID, error)
}

// identity is what a verified bearer token resolves to
type identity struct {
	subject string
	ownerID uuid.UUID
}

// AuthMiddleware validates bearer tokens and puts the owner id in the request context
type AuthMiddleware struct {
	verify func(ctx context.Context, token string) (identity, error)
}

// NewAuthMiddleware creates an AuthMiddleware that accepts Auth0 access tokens
func NewAuthMiddleware(domain, audience string, owners OwnerProvider) (*AuthMiddleware, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	verify := func(ctx context.Context, token string) (identity, error) {
		claims, err := jwtValidator.ValidateToken(ctx, token)
		if err != nil {
			return identity{}, err
		}
		validated, ok := claims.(*validator.ValidatedClaims)
		if !ok {
			return identity{}, auth.ErrInvalidToken
		}

		var email string
		if custom, ok := validated.CustomClaims.(*CustomClaims); ok {
			email = custom.Email
		}
		subject := validated.RegisteredClaims.Subject
		ownerID, err := owners.EnsureOwner(ctx, subject, email)
		if err != nil {
			log.Error().Err(err).Str("subject", subject).Msg("Owner lookup failed")
			return identity{}, err
		}
		return identity{subject: subject, ownerID: ownerID}, nil
	}

	return &AuthMiddleware{verify: verify}, nil
}

// NewLocalAuthMiddleware creates an AuthMiddleware that accepts tokens issued
// to local accounts
func NewLocalAuthMiddleware(tokens *auth.TokenManager) *AuthMiddleware {
	verify := func(ctx context.Context, token string) (identity, error) {
		claims, err := tokens.Validate(token)
		if err != nil {
			return identity{}, err
		}
		ownerID, err := claims.OwnerID()
		if err != nil {
			return identity{}, err
		}
		return identity{subject: claims.Subject, ownerID: ownerID}, nil
	}
	return &AuthMiddleware{verify: verify}
}

// Authenticate returns an Echo middleware that validates bearer tokens
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return unauthorizedError(c, "Missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return unauthorizedError(c, "Invalid authorization header format")
			}

			id, err := m.verify(c.Request().Context(), parts[1])
			if err != nil {
				log.Debug().Err(err).Msg("Token validation failed")
				return unauthorizedError(c, "Invalid token")
			}

			ctx := context.WithValue(c.Request().Context(), SubjectKey, id.subject)
			ctx = context.WithValue(ctx, OwnerIDKey, id.ownerID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// GetSubject extracts the identity provider subject from the context
func GetSubject(c echo.Context) string {
	if subject, ok := c.Request().Context().Value(SubjectKey).(string); ok {
		return subject
	}
	return ""
}

// GetOwnerID extracts the authenticated owner id from the context.
// It returns uuid.Nil for unauthenticated requests.
func GetOwnerID(c echo.Context) uuid.UUID {
	if id, ok := c.Request().Context().Value(OwnerIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
