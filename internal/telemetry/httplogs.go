package telemetry

import (
	"net/http"
	"time"

	otelLog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
)

// ChiLogMiddleware emits one log record per request once the handler returns.
func ChiLogMiddleware(serviceName string) func(http.Handler) http.Handler {
	logger := global.Logger(serviceName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			severity, text := severityForStatus(rec.status)
			var lr otelLog.Record
			lr.SetEventName("http.request")
			lr.SetTimestamp(time.Now())
			lr.SetSeverity(severity)
			lr.SetSeverityText(text)
			lr.SetBody(otelLog.StringValue("request completed"))
			lr.AddAttributes(
				otelLog.String("http.method", r.Method),
				otelLog.String("http.route", routePattern(r)),
				otelLog.String("http.target", r.URL.Path),
				otelLog.Int("http.status_code", rec.status),
				otelLog.Int64("http.duration_ms", time.Since(start).Milliseconds()),
			)

			logger.Emit(r.Context(), lr)
		})
	}
}

func severityForStatus(status int) (otelLog.Severity, string) {
	switch {
	case status >= 500:
		return otelLog.SeverityError, "ERROR"
	case status >= 400:
		return otelLog.SeverityWarn, "WARN"
	default:
		return otelLog.SeverityInfo, "INFO"
	}
}
