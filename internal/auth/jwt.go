package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aircnc/identity/internal/domain"
	apperrors "github.com/aircnc/identity/pkg/errors"
)

// Token type claim values.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

const issuerName = "identity-service"

// Verification failure kinds. Callers map these to transport-level errors;
// the distinction never reaches the client verbatim.
var (
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrWrongTokenType = errors.New("unexpected token type")
	ErrTokenRevoked   = errors.New("token has been revoked")
)

// RevocationStore persists spent refresh token identifiers. Add must be
// atomic: it returns true only for the caller that first recorded the jti,
// which makes it the serialization point for concurrent rotations of the
// same refresh token.
type RevocationStore interface {
	Contains(ctx context.Context, jti string) (bool, error)
	Add(ctx context.Context, jti string, expiresAt time.Time) (bool, error)
}

// Claims is the decoded payload of an identity token. Refresh tokens carry
// only the user ID and token type; access tokens additionally embed the
// fields needed for downstream authorization without a database round-trip.
type Claims struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email,omitempty"`
	UserType   string `json:"user_type,omitempty"`
	IsVerified bool   `json:"is_verified,omitempty"`
	TokenType  string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and validates signed access/refresh token pairs. The
// signing key is immutable after construction and shared by all calls.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	revoked    RevocationStore
}

// NewTokenIssuer creates a token issuer with the given symmetric key,
// lifetimes, and revocation store.
func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration, revoked RevocationStore) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		revoked:    revoked,
	}
}

// Issue creates a fresh access/refresh pair for the user. Each token carries
// its own jti. Issuance has no side effects on the revocation store.
func (i *TokenIssuer) Issue(user *domain.User) (*domain.TokenPair, error) {
	now := time.Now().UTC()

	access, err := i.sign(&Claims{
		UserID:     user.ID,
		Email:      user.Email,
		UserType:   user.UserType,
		IsVerified: user.IsVerified,
		TokenType:  TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
			Issuer:    issuerName,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := i.sign(&Claims{
		UserID:    user.ID,
		TokenType: TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshTTL)),
			Issuer:    issuerName,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Verify parses and validates a token of the expected type, returning its
// claims. Failure kinds, in check order: ErrTokenExpired, ErrTokenInvalid
// (bad signature or malformed), ErrWrongTokenType, and, for refresh tokens,
// ErrTokenRevoked. Expiry is checked before the revocation store is
// consulted, so an expired token fails on expiry regardless of blacklist
// state. Access tokens are never blacklisted individually; their
// verification performs no store round-trip.
func (i *TokenIssuer) Verify(ctx context.Context, tokenString, expectedType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.TokenType != expectedType {
		return nil, ErrWrongTokenType
	}

	if expectedType == TokenTypeRefresh {
		revoked, err := i.revoked.Contains(ctx, claims.ID)
		if err != nil {
			return nil, apperrors.Unavailable("token revocation store", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	return claims, nil
}

// Spend permanently records the jti of a verified refresh token, consuming
// it. Exactly one concurrent caller wins; the rest get ErrTokenRevoked.
func (i *TokenIssuer) Spend(ctx context.Context, claims *Claims) error {
	added, err := i.revoked.Add(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return apperrors.Unavailable("token revocation store", err)
	}
	if !added {
		return ErrTokenRevoked
	}
	return nil
}

// Revoke verifies a refresh token and records its jti in the revocation
// store. Revoking an already-revoked token is a no-op success; signature,
// expiry, and type failures are still reported.
func (i *TokenIssuer) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := i.Verify(ctx, refreshToken, TokenTypeRefresh)
	if err != nil {
		if errors.Is(err, ErrTokenRevoked) {
			return nil
		}
		return err
	}

	if _, err := i.revoked.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperrors.Unavailable("token revocation store", err)
	}
	return nil
}

func (i *TokenIssuer) sign(claims *Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}
