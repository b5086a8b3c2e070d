// init.go - Provider construction and shutdown.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

const (
	defaultServiceName  = "gridmat"
	instrumentationName = "github.com/dev-console/gridmat"
	shutdownTimeout     = 5 * time.Second
)

// Config selects logging and telemetry behaviour.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// Mode is the running command, attached to every log record.
	Mode     string
	LogLevel slog.Level
	LogJSON  bool
	// Tracing enables an SDK tracer so sessions get real trace ids in logs.
	Tracing bool
	// LogOutput defaults to os.Stderr.
	LogOutput io.Writer
}

func (c Config) serviceName() string {
	if c.ServiceName == "" {
		return defaultServiceName
	}
	return c.ServiceName
}

// Providers holds the initialized observability providers.
type Providers struct {
	Tracer trace.Tracer
	Meter  metric.Meter
	Logger *slog.Logger
	// MetricsHandler serves the Prometheus scrape endpoint.
	MetricsHandler http.Handler
	// Shutdown flushes pending telemetry. Call before exit.
	Shutdown func(ctx context.Context) error
}

// Init builds tracer, meter and logger providers and installs them as the
// OTel globals.
func Init(cfg Config) (Providers, error) {
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", cfg.serviceName()),
		attribute.String("service.version", cfg.ServiceVersion),
	))
	if err != nil {
		return Providers{}, fmt.Errorf("build otel resource: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return Providers{}, fmt.Errorf("create prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)

	var (
		tp         trace.TracerProvider = nooptrace.NewTracerProvider()
		tpShutdown                      = func(context.Context) error { return nil }
	)
	if cfg.Tracing {
		sdkTP := sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		)
		tp, tpShutdown = sdkTP, sdkTP.Shutdown
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	out := cfg.LogOutput
	if out == nil {
		out = os.Stderr
	}

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		return errors.Join(tpShutdown(ctx), mp.Shutdown(ctx))
	}

	return Providers{
		Tracer:         tp.Tracer(instrumentationName),
		Meter:          mp.Meter(instrumentationName),
		Logger:         NewLogger(out, cfg),
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Shutdown:       shutdown,
	}, nil
}
