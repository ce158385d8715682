package websocket

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/dafibh/casa/casa-backend/internal/auth"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned when JWT validation fails
var ErrInvalidToken = errors.New("invalid token")

// ErrOwnerNotFound is returned when no user matches a valid token
var ErrOwnerNotFound = errors.New("owner not found")

// TokenValidator resolves the owner of a websocket connection from the token
// passed in the query string
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (uuid.UUID, error)
}

// OwnerLookup resolves an Auth0 subject to an owner id
type OwnerLookup interface {
	OwnerBySubject(ctx context.Context, subject string) (uuid.UUID, error)
}

// CustomClaims contains the custom claims from Auth0 JWT
type CustomClaims struct{}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// Auth0JWTValidator validates Auth0 JWT tokens for WebSocket connections
type Auth0JWTValidator struct {
	validator   *validator.Validator
	ownerLookup OwnerLookup
}

// NewAuth0JWTValidator creates a new Auth0JWTValidator
func NewAuth0JWTValidator(domain, audience string, ownerLookup OwnerLookup) (*Auth0JWTValidator, error) {
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

	return &Auth0JWTValidator{
		validator:   jwtValidator,
		ownerLookup: ownerLookup,
	}, nil
}

// ValidateToken validates a JWT token and returns the owner it belongs to
func (v *Auth0JWTValidator) ValidateToken(ctx context.Context, token string) (uuid.UUID, error) {
	claims, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}

	ownerID, err := v.ownerLookup.OwnerBySubject(ctx, validatedClaims.RegisteredClaims.Subject)
	if err != nil {
		return uuid.Nil, ErrOwnerNotFound
	}
	return ownerID, nil
}

// LocalTokenValidator validates tokens issued to local accounts
type LocalTokenValidator struct {
	tokens *auth.TokenManager
}

// NewLocalTokenValidator creates a LocalTokenValidator
func NewLocalTokenValidator(tokens *auth.TokenManager) *LocalTokenValidator {
	return &LocalTokenValidator{tokens: tokens}
}

// ValidateToken returns the owner id carried by a local token
func (v *LocalTokenValidator) ValidateToken(ctx context.Context, token string) (uuid.UUID, error) {
	claims, err := v.tokens.Validate(token)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	ownerID, err := claims.OwnerID()
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return ownerID, nil
}
