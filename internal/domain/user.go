package domain

import (
	"strings"
	"time"
)

// User represents an authenticated principal on the platform.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	DateOfBirth  string    `json:"date_of_birth,omitempty"`
	UserType     string    `json:"user_type"`
	IsVerified   bool      `json:"is_verified"`
	IsActive     bool      `json:"is_active"`
	DateJoined   time.Time `json:"date_joined"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName returns the user's first and last name joined by a space,
// trimmed when either part is empty.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// CanHost reports whether the user may create property listings.
func (u *User) CanHost() bool {
	return u.UserType == UserTypeHost || u.UserType == UserTypeAdmin
}

// TokenPair holds an access and refresh token pair. It is handed entirely
// to the client at issuance; the server keeps no reference to it.
type TokenPair struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}

// ProfileView is the explicit read projection of a User returned by the
// profile endpoints. The password hash is never part of it.
type ProfileView struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	FullName    string    `json:"full_name"`
	UserType    string    `json:"user_type"`
	Phone       string    `json:"phone,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	IsVerified  bool      `json:"is_verified"`
	DateOfBirth string    `json:"date_of_birth,omitempty"`
	DateJoined  time.Time `json:"date_joined"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewProfileView builds the profile projection for the given user,
// enumerating exactly the allowed fields.
func NewProfileView(u *User) ProfileView {
	return ProfileView{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		UserType:    u.UserType,
		Phone:       u.Phone,
		Bio:         u.Bio,
		AvatarURL:   u.AvatarURL,
		IsVerified:  u.IsVerified,
		DateOfBirth: u.DateOfBirth,
		DateJoined:  u.DateJoined,
		UpdatedAt:   u.UpdatedAt,
	}
}
