package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aircnc/identity/internal/domain"
	apperrors "github.com/aircnc/identity/pkg/errors"
)

func newUserTestFixture(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewUserRepository(mock)
	return repo, mock
}

func sampleUser() *domain.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.User{
		ID:           "u-1234",
		Email:        "alice@example.com",
		Username:     "alice",
		PasswordHash: "hash-abc",
		FirstName:    "Alice",
		LastName:     "Smith",
		Phone:        "+1234567890",
		Bio:          "Occasional traveler.",
		AvatarURL:    "https://img.example.com/alice.jpg",
		DateOfBirth:  "1990-04-12",
		UserType:     domain.UserTypeGuest,
		IsVerified:   false,
		IsActive:     true,
		DateJoined:   now,
		UpdatedAt:    now,
	}
}

// userColumns returns the 15 column names scanned by scanUser and inserted by Create.
func userColumns() []string {
	return []string{
		"id", "email", "username", "password_hash", "first_name", "last_name",
		"phone", "bio", "avatar_url", "date_of_birth",
		"user_type", "is_verified", "is_active", "date_joined", "updated_at",
	}
}

func userRow(u *domain.User) *pgxmock.Rows {
	return pgxmock.NewRows(userColumns()).AddRow(
		u.ID, u.Email, u.Username, u.PasswordHash, u.FirstName, u.LastName,
		u.Phone, u.Bio, u.AvatarURL, u.DateOfBirth,
		u.UserType, u.IsVerified, u.IsActive, u.DateJoined, u.UpdatedAt,
	)
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestUserRepository_Create_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(
			u.ID, u.Email, u.Username, u.PasswordHash, u.FirstName, u.LastName,
			u.Phone, u.Bio, u.AvatarURL, u.DateOfBirth,
			u.UserType, u.IsVerified, u.IsActive, u.DateJoined, u.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), u)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(
			u.ID, u.Email, u.Username, u.PasswordHash, u.FirstName, u.LastName,
			u.Phone, u.Bio, u.AvatarURL, u.DateOfBirth,
			u.UserType, u.IsVerified, u.IsActive, u.DateJoined, u.UpdatedAt,
		).
		WillReturnError(fmt.Errorf(`ERROR: duplicate key value violates unique constraint "users_email_key" (SQLSTATE 23505)`))

	err := repo.Create(context.Background(), u)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists), "expected ErrAlreadyExists, got: %v", err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Message, "email")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateUsername(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(
			u.ID, u.Email, u.Username, u.PasswordHash, u.FirstName, u.LastName,
			u.Phone, u.Bio, u.AvatarURL, u.DateOfBirth,
			u.UserType, u.IsVerified, u.IsActive, u.DateJoined, u.UpdatedAt,
		).
		WillReturnError(fmt.Errorf(`ERROR: duplicate key value violates unique constraint "users_username_key" (SQLSTATE 23505)`))

	err := repo.Create(context.Background(), u)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Message, "username")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// GetByID / GetByEmail
// ---------------------------------------------------------------------------

func TestUserRepository_GetByID_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectQuery("SELECT .+ FROM users WHERE id =").
		WithArgs(u.ID).
		WillReturnRows(userRow(u))

	got, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.Username, got.Username)
	assert.Equal(t, u.UserType, got.UserType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM users WHERE id =").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(userColumns()))

	_, err := repo.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectQuery("SELECT .+ FROM users WHERE email =").
		WithArgs(u.Email).
		WillReturnRows(userRow(u))

	got, err := repo.GetByEmail(context.Background(), u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM users WHERE email =").
		WithArgs("nobody@example.com").
		WillReturnRows(pgxmock.NewRows(userColumns()))

	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestUserRepository_Update_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()
	u.FirstName = "Alicia"

	mock.ExpectExec("UPDATE users").
		WithArgs(
			u.Email, u.Username, u.PasswordHash, u.FirstName, u.LastName,
			u.Phone, u.Bio, u.AvatarURL, u.DateOfBirth,
			u.UserType, u.IsVerified, u.IsActive,
			pgxmock.AnyArg(), // updated_at
			u.ID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	before := u.UpdatedAt
	err := repo.Update(context.Background(), u)
	assert.NoError(t, err)
	assert.True(t, u.UpdatedAt.After(before) || u.UpdatedAt.Equal(before))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Update_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectExec("UPDATE users").
		WithArgs(
			u.Email, u.Username, u.PasswordHash, u.FirstName, u.LastName,
			u.Phone, u.Bio, u.AvatarURL, u.DateOfBirth,
			u.UserType, u.IsVerified, u.IsActive,
			pgxmock.AnyArg(),
			u.ID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), u)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Update_DuplicateUsername(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectExec("UPDATE users").
		WithArgs(
			u.Email, u.Username, u.PasswordHash, u.FirstName, u.LastName,
			u.Phone, u.Bio, u.AvatarURL, u.DateOfBirth,
			u.UserType, u.IsVerified, u.IsActive,
			pgxmock.AnyArg(),
			u.ID,
		).
		WillReturnError(fmt.Errorf(`ERROR: duplicate key value violates unique constraint "users_username_key" (SQLSTATE 23505)`))

	err := repo.Update(context.Background(), u)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// UsernameExists
// ---------------------------------------------------------------------------

func TestUserRepository_UsernameExists(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("alice", "u-1234").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.UsernameExists(context.Background(), "alice", "u-1234")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UsernameExists_Free(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("newname", "u-1234").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.UsernameExists(context.Background(), "newname", "u-1234")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestUserRepository_Delete_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM users").
		WithArgs("u-1234").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Delete(context.Background(), "u-1234")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM users").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
