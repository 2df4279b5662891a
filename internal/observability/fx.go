// Package observability wires logging, tracing and prometheus metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/gstbook/internal/observability/logger"
	"github.com/smallbiznis/gstbook/internal/observability/metrics"
	"github.com/smallbiznis/gstbook/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		Config.loggerConfig,
		Config.tracingConfig,
		Config.metricsConfig,
		func() prometheus.Registerer { return prometheus.DefaultRegisterer },
		logger.New,
		tracing.NewProvider,
		metrics.NewInvoiceMetrics,
		metrics.NewHTTPMetrics,
	),
	// Nothing depends on the provider directly; force construction so the
	// global tracer is installed.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)

func (c Config) loggerConfig() logger.Config {
	debug := c.Debug()
	return logger.Config{
		ServiceName:         c.ServiceName,
		Environment:         c.Environment,
		Version:             c.Version,
		Level:               c.LogLevel,
		Format:              c.LogFormat,
		Debug:               debug,
		IncludeCaller:       true,
		IncludeStackOnError: debug,
	}
}

func (c Config) tracingConfig() tracing.Config {
	return tracing.Config{
		Enabled:          c.OtelEnabled,
		ServiceName:      c.ServiceName,
		ServiceVersion:   c.Version,
		Environment:      c.Environment,
		ExporterEndpoint: c.OtelExporterEndpoint,
		ExporterProtocol: c.OtelExporterProtocol,
		SamplingRatio:    c.OtelSamplingRatio,
	}
}

func (c Config) metricsConfig() metrics.Config {
	return metrics.Config{
		ServiceName: c.ServiceName,
		Environment: c.Environment,
	}
}
