package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/PabloPavan/alerta_api/internal/apperrors"
)

func writeAppError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		if appErr.Kind == apperrors.KindRateLimited && appErr.RetryAfter > 0 {
			seconds := int(appErr.RetryAfter.Seconds())
			if seconds <= 0 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
		}
		http.Error(w, errorMessage(appErr), statusFromKind(appErr.Kind))
		return
	}

	http.Error(w, "internal error", http.StatusInternalServerError)
}

func statusFromKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindInvalidInput:
		return http.StatusBadRequest
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(appErr *apperrors.Error) string {
	if appErr == nil {
		return "internal error"
	}
	// internal details stay in the server logs
	if statusFromKind(appErr.Kind) == http.StatusInternalServerError {
		return "internal error"
	}
	if appErr.Message != "" {
		return appErr.Message
	}
	switch appErr.Kind {
	case apperrors.KindUnauthorized:
		return "unauthorized"
	case apperrors.KindNotFound:
		return "not found"
	case apperrors.KindRateLimited:
		return "too many requests"
	default:
		return "invalid request"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
