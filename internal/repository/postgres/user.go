package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aircnc/identity/internal/domain"
	"github.com/aircnc/identity/pkg/database"
	apperrors "github.com/aircnc/identity/pkg/errors"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	pool database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, first_name, last_name, phone, bio, avatar_url, date_of_birth, user_type, is_verified, is_active, date_joined, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.pool.Exec(ctx, query,
		u.ID,
		u.Email,
		u.Username,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.Phone,
		u.Bio,
		u.AvatarURL,
		u.DateOfBirth,
		u.UserType,
		u.IsVerified,
		u.IsActive,
		u.DateJoined,
		u.UpdatedAt,
	)
	if err != nil {
		if field, ok := uniqueViolationField(err); ok {
			return apperrors.AlreadyExists("user", field, uniqueFieldValue(u, field))
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, username, password_hash, first_name, last_name, phone, bio, avatar_url, date_of_birth, user_type, is_verified, is_active, date_joined, updated_at
		FROM users
		WHERE id = $1`

	return r.scanUser(ctx, query, id)
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, username, password_hash, first_name, last_name, phone, bio, avatar_url, date_of_birth, user_type, is_verified, is_active, date_joined, updated_at
		FROM users
		WHERE email = $1`

	return r.scanUser(ctx, query, email)
}

// Update modifies an existing user in the database.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET email = $1, username = $2, password_hash = $3, first_name = $4, last_name = $5,
		    phone = $6, bio = $7, avatar_url = $8, date_of_birth = $9,
		    user_type = $10, is_verified = $11, is_active = $12, updated_at = $13
		WHERE id = $14`

	ct, err := r.pool.Exec(ctx, query,
		u.Email,
		u.Username,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.Phone,
		u.Bio,
		u.AvatarURL,
		u.DateOfBirth,
		u.UserType,
		u.IsVerified,
		u.IsActive,
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		if field, ok := uniqueViolationField(err); ok {
			return apperrors.AlreadyExists("user", field, uniqueFieldValue(u, field))
		}
		return fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}

	return nil
}

// UsernameExists reports whether the username is taken by a user other than excludeID.
func (r *UserRepository) UsernameExists(ctx context.Context, username, excludeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 AND id <> $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, username, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}

	return exists, nil
}

// Delete removes a user from the database by their ID.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// scanUser is a helper that executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Phone,
		&u.Bio,
		&u.AvatarURL,
		&u.DateOfBirth,
		&u.UserType,
		&u.IsVerified,
		&u.IsActive,
		&u.DateJoined,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}

// uniqueViolationField inspects a PostgreSQL unique constraint violation
// (SQLSTATE 23505) and reports which unique column was hit. The users table
// has unique indexes on email and username.
func uniqueViolationField(err error) (string, bool) {
	if err == nil || !strings.Contains(err.Error(), "23505") {
		return "", false
	}
	if strings.Contains(err.Error(), "users_username_key") {
		return "username", true
	}
	return "email", true
}

func uniqueFieldValue(u *domain.User, field string) string {
	if field == "username" {
		return u.Username
	}
	return u.Email
}
