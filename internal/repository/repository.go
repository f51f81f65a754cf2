package repository

import (
	"context"

	"github.com/aircnc/identity/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// UsernameExists reports whether the username is taken by any user other
	// than excludeID. Pass an empty excludeID to check across all users.
	UsernameExists(ctx context.Context, username, excludeID string) (bool, error)

	// Delete removes a user from the store by their identifier.
	Delete(ctx context.Context, id string) error
}
