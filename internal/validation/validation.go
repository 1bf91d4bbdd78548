// Package validation holds the shared validator instance and the custom tags
// used by request DTOs and services.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/PabloPavan/alerta_api/internal/apperrors"
	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_+&*-]+(?:\.[a-zA-Z0-9_+&*-]+)*@(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,7}$`)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return false
		}
		return strings.TrimSpace(field.String()) != ""
	})
	_ = validate.RegisterValidation("emailaddr", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return false
		}
		return IsEmail(field.String())
	})
	_ = validate.RegisterValidation("notblankitems", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.Slice {
			return false
		}
		for i := 0; i < field.Len(); i++ {
			if strings.TrimSpace(field.Index(i).String()) != "" {
				return true
			}
		}
		return false
	})
}

// IsEmail reports whether s (trimmed) looks like a deliverable address.
func IsEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 254 {
		return false
	}
	return emailPattern.MatchString(s)
}

// Messages maps a struct field name to per-tag messages. The "*" tag matches
// any failing tag of that field.
type Messages map[string]map[string]string

// Struct validates v and turns the first failure into an invalid input error
// carrying the matching message, or fallback when none matches.
func Struct(v any, messages Messages, fallback string) error {
	if err := validate.Struct(v); err != nil {
		return Message(err, messages, fallback)
	}
	return nil
}

func Message(err error, messages Messages, fallback string) error {
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return apperrors.New(apperrors.KindInvalidInput, fallback)
	}
	for _, valErr := range valErrs {
		if fieldMessages, ok := messages[valErr.Field()]; ok {
			if msg, ok := fieldMessages[valErr.Tag()]; ok {
				return apperrors.New(apperrors.KindInvalidInput, msg)
			}
			if msg, ok := fieldMessages["*"]; ok {
				return apperrors.New(apperrors.KindInvalidInput, msg)
			}
		}
	}
	return apperrors.New(apperrors.KindInvalidInput, fallback)
}

// Blank reports whether s is empty after trimming.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
