package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aircnc/identity/internal/auth"
	"github.com/aircnc/identity/internal/domain"
	"github.com/aircnc/identity/internal/event"
	"github.com/aircnc/identity/internal/repository"
	apperrors "github.com/aircnc/identity/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// AuthService implements the business logic for registration, authentication,
// token lifecycle, and profile management.
type AuthService struct {
	users    repository.UserRepository
	issuer   *auth.TokenIssuer
	producer *event.Producer
	logger   *slog.Logger

	// dummyHash is compared against when login hits an unknown email, so
	// the miss path costs the same bcrypt work as the hit path.
	dummyHash []byte
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	issuer *auth.TokenIssuer,
	producer *event.Producer,
	logger *slog.Logger,
) *AuthService {
	// GenerateFromPassword only fails on an out-of-range cost.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcryptCost)

	return &AuthService{
		users:     users,
		issuer:    issuer,
		producer:  producer,
		logger:    logger,
		dummyHash: dummy,
	}
}

// --- Input types ---

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Email           string
	Username        string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
	Phone           string
	UserType        string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// UpdateProfileInput holds the parameters for updating a user's profile.
// Nil pointers leave the field unchanged.
type UpdateProfileInput struct {
	Username    *string
	FirstName   *string
	LastName    *string
	Phone       *string
	Bio         *string
	AvatarURL   *string
	DateOfBirth *string
}

// --- Auth Operations ---

// Register creates a new user account, hashes the password, and returns the
// user together with a fresh token pair. New accounts start unverified.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, *domain.TokenPair, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Username == "" {
		return nil, nil, apperrors.InvalidInput("username is required")
	}
	if input.Password != input.PasswordConfirm {
		return nil, nil, apperrors.InvalidInput("passwords do not match")
	}
	if err := validatePassword(input.Password, input.Email, input.Username, input.FirstName, input.LastName); err != nil {
		return nil, nil, err
	}

	userType := input.UserType
	if userType == "" {
		userType = domain.UserTypeGuest
	}
	if !domain.IsValidUserType(userType) || userType == domain.UserTypeAdmin {
		return nil, nil, apperrors.InvalidInput("user type must be guest or host")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: string(hashedPassword),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		UserType:     userType,
		IsVerified:   false,
		IsActive:     true,
		DateJoined:   now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.issuer.Issue(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, tokens, nil
}

// Login authenticates a user with email and password, returning the user and
// a fresh token pair. The failure message never distinguishes an unknown
// email from a wrong password or a deactivated account.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.TokenPair, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Burn the same bcrypt work as the hit path.
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(input.Password))
			return nil, nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, nil, apperrors.Unavailable("user store", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	if !user.IsActive {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	tokens, err := s.issuer.Issue(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, tokens, nil
}

// Refresh rotates a refresh token: the presented token is verified, consumed
// exactly once, and replaced with a brand-new pair reflecting the user's
// current state. A concurrent rotation of the same token yields one winner.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidInput("refresh token is required")
	}

	claims, err := s.issuer.Verify(ctx, refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, mapTokenError(err)
	}

	if err := s.issuer.Spend(ctx, claims); err != nil {
		return nil, mapTokenError(err)
	}

	// Re-read the user so the new access token carries current claims and a
	// deleted or deactivated account cannot renew its session.
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid or expired refresh token")
		}
		return nil, apperrors.Unavailable("user store", err)
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized("invalid or expired refresh token")
	}

	tokens, err := s.issuer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "tokens refreshed",
		slog.String("user_id", user.ID),
	)

	return tokens, nil
}

// Logout revokes the presented refresh token. Logging out with an
// already-revoked token succeeds; a malformed, tampered, or expired token is
// rejected as invalid input.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return apperrors.InvalidInput("refresh token is required")
	}

	if err := s.issuer.Revoke(ctx, refreshToken); err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenExpired),
			errors.Is(err, auth.ErrTokenInvalid),
			errors.Is(err, auth.ErrWrongTokenType):
			return apperrors.InvalidInput("invalid refresh token")
		default:
			return err
		}
	}

	s.logger.InfoContext(ctx, "user logged out")

	return nil
}

// VerifyAccess validates an access token and returns its claims.
func (s *AuthService) VerifyAccess(ctx context.Context, accessToken string) (*auth.Claims, error) {
	claims, err := s.issuer.Verify(ctx, accessToken, auth.TokenTypeAccess)
	if err != nil {
		return nil, mapTokenError(err)
	}
	return claims, nil
}

// --- Profile Operations ---

// GetProfile retrieves a user by their ID.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", userID)
		}
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	return user, nil
}

// UpdateProfile applies a partial update to the user's mutable profile
// fields. Identity and account-state fields (id, email, user_type,
// is_verified, date_joined) are not reachable from here.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", userID)
		}
		return nil, fmt.Errorf("get user for update: %w", err)
	}

	if input.Username != nil && *input.Username != user.Username {
		if *input.Username == "" {
			return nil, apperrors.InvalidInput("username must not be empty")
		}
		taken, err := s.users.UsernameExists(ctx, *input.Username, user.ID)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if taken {
			return nil, apperrors.AlreadyExists("user", "username", *input.Username)
		}
		user.Username = *input.Username
	}

	if input.FirstName != nil {
		if *input.FirstName == "" {
			return nil, apperrors.InvalidInput("first name must not be empty")
		}
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		if *input.LastName == "" {
			return nil, apperrors.InvalidInput("last name must not be empty")
		}
		user.LastName = *input.LastName
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.AvatarURL != nil {
		user.AvatarURL = *input.AvatarURL
	}
	if input.DateOfBirth != nil {
		if *input.DateOfBirth != "" {
			if _, err := time.Parse("2006-01-02", *input.DateOfBirth); err != nil {
				return nil, apperrors.InvalidInput("date of birth must be in YYYY-MM-DD format")
			}
		}
		user.DateOfBirth = *input.DateOfBirth
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	// Publish user updated event (non-blocking on failure).
	if err := s.producer.PublishUserUpdated(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.updated event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user profile updated",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// mapTokenError converts token verification failures into transport-facing
// errors. All token failure kinds collapse into one generic 401; store
// outages surface as 503 untouched.
func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrTokenRevoked):
		return apperrors.Unauthorized("invalid or expired token")
	default:
		return err
	}
}
