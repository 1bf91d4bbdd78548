package telemetry

import (
	"os"
	"strings"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// ServiceName is the instrumentation scope and resource name of the API.
const ServiceName = "alerta-api"

func otlpEndpoint(signalEnv string) string {
	endpoint := strings.TrimSpace(os.Getenv(signalEnv))
	if endpoint == "" {
		endpoint = strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	}
	if endpoint == "" {
		endpoint = "localhost:4317"
	}
	return endpoint
}

func serviceResource(serviceName string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)
}
