package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/leadlag-ai-go/internal/config"
)

func TestInitTelemetry_Disabled(t *testing.T) {
	provider, err := InitTelemetry(config.TelemetryConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, provider)

	_, span := Tracer("test").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestInitTelemetry_StdoutExporter(t *testing.T) {
	var buf bytes.Buffer
	provider, err := initTelemetry(config.TelemetryConfig{
		Enabled:     true,
		ServiceName: "leadlag-test",
		Exporter:    "stdout",
	}, &buf)
	require.NoError(t, err)

	_, span := Tracer("test").Start(context.Background(), "analysis.run")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "analysis.run")
	assert.Contains(t, buf.String(), "leadlag-test")
}

func TestInitTelemetry_OTLPExporter(t *testing.T) {
	provider, err := InitTelemetry(config.TelemetryConfig{
		Enabled:      true,
		Exporter:     "otlp",
		OTLPEndpoint: "127.0.0.1:4318",
		OTLPInsecure: true,
	})
	require.NoError(t, err)

	_, span := Tracer("test").Start(context.Background(), "analysis.run")
	assert.True(t, span.SpanContext().IsValid())

	// Nothing was exported, so shutdown does not need a collector.
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestInitTelemetry_UnsupportedExporter(t *testing.T) {
	_, err := InitTelemetry(config.TelemetryConfig{Enabled: true, Exporter: "jaeger"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace exporter")
}

func TestProvider_ShutdownNil(t *testing.T) {
	var p *Provider
	assert.NoError(t, p.Shutdown(context.Background()))
}
