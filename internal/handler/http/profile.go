package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aircnc/identity/internal/domain"
	"github.com/aircnc/identity/internal/service"
	"github.com/aircnc/identity/pkg/middleware"
	"github.com/aircnc/identity/pkg/validator"
)

// ProfileHandler handles HTTP requests for the user profile endpoints.
type ProfileHandler struct {
	service *service.AuthService
}

// NewProfileHandler creates a new profile HTTP handler.
func NewProfileHandler(svc *service.AuthService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// --- Request DTOs ---

// UpdateProfileRequest is the JSON request body for updating a profile. It
// lists exactly the mutable fields; the decoder rejects anything else, so
// attempts to write id, email, user_type, or is_verified fail loudly
// instead of being silently dropped.
type UpdateProfileRequest struct {
	Username    *string `json:"username" validate:"omitempty,min=3,max=30"`
	FirstName   *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName    *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Phone       *string `json:"phone" validate:"omitempty,max=20"`
	Bio         *string `json:"bio" validate:"omitempty,max=1000"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,url,max=500"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

// --- Handlers ---

// GetProfile handles GET /api/v1/users/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "user not authenticated"},
		})
		return
	}

	user, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: domain.NewProfileView(user)})
}

// UpdateProfile handles PATCH /api/v1/users/profile/update
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "user not authenticated"},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req UpdateProfileRequest
	if err := dec.Decode(&req); err != nil {
		message := "invalid request body: " + err.Error()
		if strings.Contains(err.Error(), "unknown field") {
			message = "request contains a field that is unknown or read-only: " + err.Error()
		}
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: message},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	input := service.UpdateProfileInput{
		Username:    req.Username,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
		DateOfBirth: req.DateOfBirth,
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, input)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: domain.NewProfileView(user)})
}
