package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/managed/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment.
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The provider should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns the container meter from mp, or from the global provider
// when mp is nil.
func Meter(mp metric.MeterProvider) metric.Meter {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	return mp.Meter(InstrumentationName)
}

// Metric instrument names.
const (
	MetricResolutions          = "di.resolutions"
	MetricResolutionsActive    = "di.resolutions.active"
	MetricResolutionDuration   = "di.resolution.duration"
	MetricConstructions        = "di.constructions"
	MetricConstructionDuration = "di.construction.duration"
	MetricErrors               = "di.errors"
)

// Outcome values recorded on resolutions.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the container's metric instruments. A nil *Metrics records
// nothing.
type Metrics struct {
	resolutions          metric.Int64Counter
	resolutionsActive    metric.Int64UpDownCounter
	resolutionDuration   metric.Float64Histogram
	constructions        metric.Int64Counter
	constructionDuration metric.Float64Histogram
	errors               metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	resolutions, err := meter.Int64Counter(MetricResolutions,
		metric.WithDescription("Top-level resolutions by outcome and cache use"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricResolutions, err)
	}

	resolutionsActive, err := meter.Int64UpDownCounter(MetricResolutionsActive,
		metric.WithDescription("Resolutions currently in progress"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricResolutionsActive, err)
	}

	resolutionDuration, err := meter.Float64Histogram(MetricResolutionDuration,
		metric.WithDescription("Duration of top-level resolutions in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricResolutionDuration, err)
	}

	constructions, err := meter.Int64Counter(MetricConstructions,
		metric.WithDescription("Instances constructed by base and scope"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricConstructions, err)
	}

	constructionDuration, err := meter.Float64Histogram(MetricConstructionDuration,
		metric.WithDescription("Duration of construct calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricConstructionDuration, err)
	}

	errorTotal, err := meter.Int64Counter(MetricErrors,
		metric.WithDescription("Resolution errors by code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricErrors, err)
	}

	return &Metrics{
		resolutions:          resolutions,
		resolutionsActive:    resolutionsActive,
		resolutionDuration:   resolutionDuration,
		constructions:        constructions,
		constructionDuration: constructionDuration,
		errors:               errorTotal,
	}, nil
}

// RecordResolveStart increments the active resolution count.
func (m *Metrics) RecordResolveStart(ctx context.Context) {
	if m == nil {
		return
	}
	m.resolutionsActive.Add(ctx, 1)
}

// RecordResolveEnd decrements active resolutions and records the completed one.
// code is empty on success.
func (m *Metrics) RecordResolveEnd(ctx context.Context, cacheHit bool, code string, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if code != "" {
		outcome = OutcomeError
		m.errors.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrErrorCode, code)))
	}
	m.resolutionsActive.Add(ctx, -1)
	m.resolutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrOutcome, outcome),
		attribute.Bool(AttrCacheHit, cacheHit),
	))
	m.resolutionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrOutcome, outcome),
	))
}

// RecordConstruction records one construct call.
func (m *Metrics) RecordConstruction(ctx context.Context, base, scope string, duration time.Duration) {
	if m == nil {
		return
	}
	m.constructions.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrBase, base),
		attribute.String(AttrScope, scope),
	))
	m.constructionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrBase, base),
	))
}
