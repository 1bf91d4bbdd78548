package users

import (
	"errors"

	"github.com/PabloPavan/alerta_api/internal/apperrors"
	"github.com/PabloPavan/alerta_api/internal/db"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already taken")

	// ErrInvalidCredentials is returned for an unknown email and for a wrong
	// password alike.
	ErrInvalidCredentials = apperrors.New(apperrors.KindInvalidInput, "invalid email or password")

	errEmailInUse = apperrors.New(apperrors.KindInvalidInput, "email already in use")
)

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, ErrNotFound)
}

func IsUniqueViolationEmail(err error) bool {
	return db.IsUniqueViolation(err, "users_email_key", "email")
}

// IsEmailTaken covers the repository pre-check and the constraint it races.
func IsEmailTaken(err error) bool {
	return errors.Is(err, ErrEmailTaken) || IsUniqueViolationEmail(err)
}
