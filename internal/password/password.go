package password

import (
	"errors"

	"github.com/PabloPavan/alerta_api/internal/apperrors"
	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor for every stored hash.
const Cost = 12

// MaxBytes is the longest input bcrypt accepts, counted in bytes.
const MaxBytes = 72

var (
	ErrEmptyPassword = apperrors.New(apperrors.KindInvalidInput, "password is required")
	ErrTooLong       = apperrors.New(apperrors.KindInvalidInput, "password is too long")
)

// TooLong reports whether plain exceeds MaxBytes once encoded.
func TooLong(plain string) bool {
	return len(plain) > MaxBytes
}

// Hash returns a salted bcrypt hash of plain.
func Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	if TooLong(plain) {
		return "", ErrTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), Cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrTooLong
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plain matches hash. Empty input and malformed hashes
// yield false.
func Verify(plain, hash string) bool {
	if plain == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
