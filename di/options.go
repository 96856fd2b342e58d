package di

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/managed/logger"
)

// Option configures a Container.
type Option func(*options)

type options struct {
	satisfier      Satisfier
	log            *logger.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	defaultScope   Scope
	strict         bool
}

func defaultOptions() options {
	return options{defaultScope: Singleton}
}

// WithSatisfier replaces the registry-declared Implements relation as the
// constraint check.
func WithSatisfier(s Satisfier) Option {
	return func(o *options) { o.satisfier = s }
}

// WithLogger sets the logger; the container tags it with its component and id.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithTracerProvider sets the provider for resolve and construct spans.
// The global provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithMeterProvider sets the provider for the resolution metrics.
// The global provider is used otherwise.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithDefaultScope sets the scope used for registrations with DefaultScope.
func WithDefaultScope(s Scope) Option {
	return func(o *options) {
		if s != DefaultScope {
			o.defaultScope = s
		}
	}
}

// WithStrict makes Build plan every non-generic binding.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}
