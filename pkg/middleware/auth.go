package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKeyType string

const (
	userIDKey   contextKeyType = "user_id"
	userTypeKey contextKeyType = "user_type"
)

// Claims represents the token claims extracted by the auth middleware.
type Claims struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	UserType   string `json:"user_type"`
	IsVerified bool   `json:"is_verified"`
}

// TokenValidator is a function that validates a bearer token and returns claims.
// This allows the service to inject its own validation logic.
type TokenValidator func(ctx context.Context, token string) (*Claims, error)

// Auth middleware validates bearer tokens and injects user claims into context.
// Token failure kinds (expired, bad signature, wrong type) are collapsed into
// a single generic 401 message so the response is not an oracle.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeAuthError(w, "invalid authorization header format")
				return
			}

			claims, err := validate(r.Context(), parts[1])
			if err != nil {
				writeAuthError(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			ctx = context.WithValue(ctx, userTypeKey, claims.UserType)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUserType middleware checks that the authenticated user has one of the
// required user types.
func RequireUserType(types ...string) func(http.Handler) http.Handler {
	typeSet := make(map[string]struct{}, len(types))
	for _, t := range types {
		typeSet[t] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userType := UserTypeFromContext(r.Context())
			if _, ok := typeSet[userType]; !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"code":    "FORBIDDEN",
					"message": "insufficient permissions",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// UserTypeFromContext extracts the user type from the request context.
func UserTypeFromContext(ctx context.Context) string {
	if t, ok := ctx.Value(userTypeKey).(string); ok {
		return t
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "UNAUTHORIZED",
		"message": message,
	})
}
