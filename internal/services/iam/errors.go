package iam

import (
	"errors"

	"github.com/KshitijThareja/Orbyq/internal/db/models"
)

var (
	// ErrEmailTaken is returned by Register and UpdateProfile when the email belongs to another account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRefreshToken is returned when a refresh token fails verification or was already rotated.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrUserNotFound is returned when a token subject no longer resolves to an account.
	ErrUserNotFound = errors.New("user not found")
	// ErrUnauthenticated is returned by authenticators for any missing or invalid bearer token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrValidation marks malformed input. It is the same sentinel model validation wraps.
	ErrValidation = models.ErrInvalid
)
