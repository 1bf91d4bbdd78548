package telemetry

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	httpMetricsEnabled bool
	httpRequestsTotal  metric.Int64Counter
	httpRequestSeconds metric.Float64Histogram
)

func initHTTPMetricsInstruments(serviceName string) {
	meter := otel.Meter(serviceName)

	var err error
	httpRequestsTotal, err = meter.Int64Counter(
		"alerta_http_requests_total",
		metric.WithDescription("Total de requisicoes HTTP"),
	)
	if err != nil {
		return
	}

	httpRequestSeconds, err = meter.Float64Histogram(
		"alerta_http_request_duration_seconds",
		metric.WithDescription("Latencia das requisicoes HTTP"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return
	}

	httpMetricsEnabled = true
}

func ChiMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		if !httpMetricsEnabled {
			return
		}
		attrs := metric.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", routePattern(r)),
			attribute.Int("http.status_code", rec.status),
		)
		httpRequestsTotal.Add(r.Context(), 1, attrs)
		httpRequestSeconds.Record(r.Context(), time.Since(start).Seconds(), attrs)
	})
}
