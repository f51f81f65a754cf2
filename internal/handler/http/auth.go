package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aircnc/identity/internal/domain"
	"github.com/aircnc/identity/internal/service"
	apperrors "github.com/aircnc/identity/pkg/errors"
	"github.com/aircnc/identity/pkg/validator"
)

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for user registration.
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Username        string `json:"username" validate:"required,min=3,max=30"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	FirstName       string `json:"first_name" validate:"required,min=1,max=100"`
	LastName        string `json:"last_name" validate:"required,min=1,max=100"`
	Phone           string `json:"phone" validate:"omitempty,max=20"`
	UserType        string `json:"user_type" validate:"omitempty,oneof=guest host"`
}

// LoginRequest is the JSON request body for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the JSON request body for token refresh and logout.
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// --- Response types ---

// RegisterResponse wraps the new user with their first token pair.
type RegisterResponse struct {
	User    domain.ProfileView `json:"user"`
	Tokens  *domain.TokenPair  `json:"tokens"`
	Message string             `json:"message"`
}

// LoginUserSummary is the condensed user block returned on login.
type LoginUserSummary struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	UserType   string `json:"user_type"`
	IsVerified bool   `json:"is_verified"`
	FullName   string `json:"full_name"`
}

// LoginResponse carries the token pair plus a user summary.
type LoginResponse struct {
	Access  string           `json:"access"`
	Refresh string           `json:"refresh"`
	User    LoginUserSummary `json:"user"`
}

// VerifyResponse is returned by the token verification endpoint.
type VerifyResponse struct {
	Valid bool               `json:"valid"`
	User  domain.ProfileView `json:"user"`
}

// --- Handlers ---

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	input := service.RegisterInput{
		Email:           req.Email,
		Username:        req.Username,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.Phone,
		UserType:        req.UserType,
	}

	user, tokens, err := h.service.Register(r.Context(), input)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, response{
		Data: RegisterResponse{
			User:    domain.NewProfileView(user),
			Tokens:  tokens,
			Message: "Registration successful",
		},
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	user, tokens, err := h.service.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Data: LoginResponse{
			Access:  tokens.AccessToken,
			Refresh: tokens.RefreshToken,
			User: LoginUserSummary{
				ID:         user.ID,
				Email:      user.Email,
				Username:   user.Username,
				UserType:   user.UserType,
				IsVerified: user.IsVerified,
				FullName:   user.FullName(),
			},
		},
	})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.service.Logout(r.Context(), req.Refresh); err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Data: map[string]string{"message": "Logout successful"},
	})
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	tokens, err := h.service.Refresh(r.Context(), req.Refresh)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: tokens})
}

// Verify handles GET /api/v1/auth/verify
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "missing or malformed authorization header"},
		})
		return
	}

	claims, err := h.service.VerifyAccess(r.Context(), token)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	// A token for a since-deleted account is just an invalid token.
	user, err := h.service.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			writeAppError(w, r, apperrors.Unauthorized("invalid or expired token"))
			return
		}
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Data: VerifyResponse{
			Valid: true,
			User:  domain.NewProfileView(user),
		},
	})
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
