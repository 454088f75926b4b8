package monitoring

import (
	"context"

	gcptrace "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

type OpenTelemetry struct {
	serviceName string
	environment string
	projectID   string
	provider    *sdktrace.TracerProvider
}

func NewOpenTelemetry(serviceName, environment, projectID string) *OpenTelemetry {
	return &OpenTelemetry{
		serviceName: serviceName,
		environment: environment,
		projectID:   projectID,
	}
}

// Start registers the global tracer provider. When no GCP project is
// configured, spans stay in-process only.
func (m *OpenTelemetry) Start(ctx context.Context) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(m.serviceName),
			attribute.String("environment", m.environment),
		)),
	}

	if m.projectID != "" {
		exporter, err := gcptrace.New(gcptrace.WithProjectID(m.projectID))
		if err == nil {
			opts = append(opts, sdktrace.WithBatcher(exporter))
		}
	}

	m.provider = sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(m.provider)
}

func (m *OpenTelemetry) Stop(ctx context.Context) {
	if m.provider == nil {
		return
	}

	m.provider.Shutdown(ctx)
}
