package bootstrap

import (
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/managed/di"
	"github.com/kbukum/managed/logger"
)

// Option configures the App during creation.
// Options are non-generic so they can be used with any config type.
type Option func(*appOptions)

// appOptions collects all option values before applying to App.
type appOptions struct {
	logger          *logger.Logger
	containerOpts   []di.Option
	tracerProvider  trace.TracerProvider
	meterProvider   metric.MeterProvider
	gracefulTimeout *time.Duration
}

// resolveOptions applies all options and returns the collected values.
func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the application.
// If not set, the logger is auto-initialized from the config's Logging field.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithGracefulTimeout sets the maximum duration for graceful shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithContainerOptions passes extra options to the container. They are
// applied after the ones derived from config.
func WithContainerOptions(opts ...di.Option) Option {
	return func(o *appOptions) {
		o.containerOpts = append(o.containerOpts, opts...)
	}
}

// WithTracerProvider uses tp instead of exporting with the configured
// OTLP tracer. The app does not shut tp down.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *appOptions) {
		o.tracerProvider = tp
	}
}

// WithMeterProvider uses mp instead of exporting with the configured
// OTLP meter. The app does not shut mp down.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *appOptions) {
		o.meterProvider = mp
	}
}
