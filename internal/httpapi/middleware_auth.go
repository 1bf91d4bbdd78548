package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/PabloPavan/alerta_api/internal/identity"
	"github.com/PabloPavan/alerta_api/internal/telemetry"
)

const apiKeyHeader = "X-API-Key"

type KeyAuthenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// APIKeyMiddleware rejects requests whose X-API-Key header does not match a
// configured key and records the matching client on the request context.
func APIKeyMiddleware(keys KeyAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if keys == nil {
				http.Error(w, "auth not configured", http.StatusInternalServerError)
				return
			}

			token := strings.TrimSpace(r.Header.Get(apiKeyHeader))
			client, err := keys.Authenticate(r.Context(), token)
			if err != nil {
				telemetry.LogWarn(r.Context(), "api key rejected",
					telemetry.LogString("event", "auth.api_key_rejected"),
					telemetry.LogBool("header_present", token != ""),
					telemetry.LogString("http.route", r.URL.Path),
				)
				http.Error(w, "API Key is missing or invalid", http.StatusUnauthorized)
				return
			}

			ctx := identity.WithClient(r.Context(), client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clientLabel(ctx context.Context) string {
	if client, ok := identity.Client(ctx); ok {
		return client
	}
	return "unknown"
}
