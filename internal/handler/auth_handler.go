package handler

import (
	"net/http"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/dafibh/casa/casa-backend/internal/middleware"
	"github.com/dafibh/casa/casa-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// CredentialsRequest is the body of local signup and sign-in
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

// AuthTokenResponse is returned by local signup and sign-in
type AuthTokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expiresAt"`
	User      UserResponse `json:"user"`
	IsNewUser bool         `json:"isNewUser"`
}

// Signup godoc
// @Summary Create a local account
// @Description Registers an email and password, seeds default settings and returns a token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Credentials"
// @Success 201 {object} AuthTokenResponse
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req CredentialsRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Signup(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return handleServiceError(c, err, uuid.Nil, "sign up")
	}

	log.Info().Str("user_id", result.User.ID.String()).Msg("Local account created")
	return c.JSON(http.StatusCreated, toAuthTokenResponse(result))
}

// SignIn godoc
// @Summary Sign in with a local account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Credentials"
// @Success 200 {object} AuthTokenResponse
// @Failure 401 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Router /auth/signin [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req CredentialsRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	result, err := h.authService.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return handleServiceError(c, err, uuid.Nil, "sign in")
	}
	return c.JSON(http.StatusOK, toAuthTokenResponse(result))
}

// Callback godoc
// @Summary Confirm an Auth0 sign-in
// @Description Called by the frontend after Auth0 login. The user and its default settings are created on first sight.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} ProblemDetails
// @Router /auth/callback [post]
func (h *AuthHandler) Callback(c echo.Context) error {
	subject := middleware.GetSubject(c)
	ownerID := middleware.GetOwnerID(c)
	if subject == "" || ownerID == uuid.Nil {
		log.Error().Msg("No subject in context - middleware may not be configured")
		return NewUnauthorizedError(c, "Authentication required")
	}

	user, err := h.authService.GetUserByID(c.Request().Context(), ownerID)
	if err != nil {
		return handleServiceError(c, err, ownerID, "authenticate user")
	}

	log.Debug().Str("user_id", user.ID.String()).Str("subject", subject).Msg("Auth callback")
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Me godoc
// @Summary Get the current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} ProblemDetails
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	user, err := h.authService.GetUserByID(c.Request().Context(), ownerID)
	if err != nil {
		return handleServiceError(c, err, ownerID, "get user")
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toAuthTokenResponse(r *service.AuthResult) AuthTokenResponse {
	return AuthTokenResponse{
		Token:     r.Token,
		ExpiresAt: r.ExpiresAt.UTC().Format(time.RFC3339),
		User:      toUserResponse(r.User),
		IsNewUser: r.IsNewUser,
	}
}
