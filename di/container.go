package di

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/managed/component"
	"github.com/kbukum/managed/config"
	"github.com/kbukum/managed/errors"
	"github.com/kbukum/managed/logger"
	"github.com/kbukum/managed/observability"
)

// ContainerKey is the key every container binds itself under, so managed
// classes can depend on the container.
var ContainerKey = KeyOf[*Container]()

// Container owns a binding registry and a singleton cache. Lifecycle:
// New, Register*, optionally Build, Resolve*, Close. The registry is sealed
// by Build or by the first resolution; Close stops managed singletons and
// discards the cache.
type Container struct {
	id           string
	registry     *Registry
	cache        *instanceCache
	specializer  *Specializer
	satisfier    Satisfier
	managed      *component.Registry
	log          *logger.Logger
	tracer       trace.Tracer
	metrics      *observability.Metrics
	defaultScope Scope
	strict       bool
	closed       atomic.Bool
	// lifecycle orders Close against instances being adopted.
	lifecycle    sync.RWMutex
}

// New creates a container.
func New(opts ...Option) *Container {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container{
		id:           uuid.NewString(),
		registry:     NewRegistry(),
		cache:        newInstanceCache(),
		managed:      component.NewRegistry(),
		defaultScope: o.defaultScope,
		strict:       o.strict,
	}

	c.satisfier = o.satisfier
	if c.satisfier == nil {
		c.satisfier = DeclaredSatisfier{Registry: c.registry}
	}
	c.specializer = NewSpecializer(c.satisfier)

	base := o.log
	if base == nil {
		base = logger.GetGlobalLogger()
	}
	c.log = base.WithComponent("di").WithFields(map[string]interface{}{logger.FieldContainerID: c.id})
	logger.Register(c.loggerName(), c.log)

	c.tracer = observability.Tracer(o.tracerProvider)
	metrics, err := observability.NewMetrics(observability.Meter(o.meterProvider))
	if err != nil {
		c.log.Warn("metrics disabled", logger.ErrorFields("new_metrics", err))
	}
	c.metrics = metrics

	// The container's own binding cannot fail: the registry is empty and open.
	_ = c.registry.add(&Binding{
		Descriptor: instanceDescriptor(ContainerKey.Base(), c, nil),
		Scope:      Singleton,
		External:   true,
	})
	return c
}

// NewFromConfig creates a container from its configuration section.
// Options given explicitly override the configured ones.
func NewFromConfig(cfg config.ContainerConfig, opts ...Option) (*Container, error) {
	scope, err := ParseScope(cfg.DefaultScope)
	if err != nil {
		return nil, err
	}
	all := append([]Option{WithDefaultScope(scope), WithStrict(cfg.Strict)}, opts...)
	return New(all...), nil
}

// ID returns the container's unique id.
func (c *Container) ID() string { return c.id }

// Registry returns the binding registry.
func (c *Container) Registry() *Registry { return c.registry }

// Closed reports whether Close has been called.
func (c *Container) Closed() bool { return c.closed.Load() }

func (c *Container) loggerName() string { return "di." + c.id }

// Register binds desc with scope. DefaultScope uses the container default.
func (c *Container) Register(desc ClassDescriptor, scope Scope) error {
	if c.closed.Load() {
		return ErrContainerClosed
	}
	if scope == DefaultScope {
		scope = c.defaultScope
	}
	if err := c.registry.Register(desc, scope); err != nil {
		return err
	}
	c.log.Debug("binding registered", logger.Fields(
		logger.FieldTypeKey, desc.Key().String(),
		logger.FieldScope, scope.String(),
	))
	return nil
}

// MustRegister is Register that panics on error, for setup code.
func (c *Container) MustRegister(desc ClassDescriptor, scope Scope) {
	if err := c.Register(desc, scope); err != nil {
		panic(err)
	}
}

// RegisterInstance binds a pre-built value as a singleton under a
// non-generic key. The container does not initialize or stop it.
func (c *Container) RegisterInstance(key TypeKey, value any, implements ...TypeKey) error {
	if c.closed.Load() {
		return ErrContainerClosed
	}
	if key.IsVar() || key.Arity() > 0 {
		return errors.InvalidDescriptor(key.String(), "instances bind non-generic keys only")
	}
	if err := c.registry.add(&Binding{
		Descriptor: instanceDescriptor(key.Base(), value, implements),
		Scope:      Singleton,
		External:   true,
	}); err != nil {
		return err
	}
	c.log.Debug("instance registered", logger.Fields(logger.FieldTypeKey, key.String()))
	return nil
}

func instanceDescriptor(base string, value any, implements []TypeKey) ClassDescriptor {
	return ClassDescriptor{
		Base:       base,
		Implements: implements,
		Construct:  func([]any) (any, error) { return value, nil },
	}
}

// Build seals the registry. In strict mode it also plans every non-generic
// binding, so missing bindings, cycles and constraint violations surface now
// rather than at first use. All plan failures are joined.
func (c *Container) Build(ctx context.Context) (err error) {
	if c.closed.Load() {
		return ErrContainerClosed
	}
	_, op := observability.StartOperation(ctx, c.tracer, observability.SpanBuild,
		attribute.String(observability.AttrContainerID, c.id))
	defer func() { op.End(err, string(errors.CodeOf(err))) }()

	c.seal()

	if c.strict {
		var errs []error
		for _, b := range c.registry.Bindings() {
			if b.Descriptor.IsGeneric() {
				continue
			}
			if _, perr := c.Plan(Key(b.Descriptor.Base)); perr != nil {
				errs = append(errs, perr)
			}
		}
		err = stderrors.Join(errs...)
	}

	fields := logger.Fields(
		logger.FieldBindings, c.registry.Len(),
		"strict", c.strict,
		logger.FieldDuration, op.Duration().Milliseconds(),
	)
	if err != nil {
		c.log.Error("container build failed", logger.MergeWithError(fields, err))
		return err
	}
	c.log.Info("container built", fields)
	return nil
}

func (c *Container) seal() {
	if c.registry.Seal() {
		c.log.Debug("registry sealed", logger.Fields(logger.FieldBindings, c.registry.Len()))
	}
}

// Health reports every managed singleton that implements
// component.HealthChecker, in construction order.
func (c *Container) Health(ctx context.Context) []component.Health {
	return c.managed.HealthAll(ctx)
}

// Close stops managed singletons in reverse construction order, joins their
// errors and discards the cached instances. Constructions still in flight
// are not awaited: their instances are released as they finish and their
// resolutions fail. Later calls are no-ops; every other operation on a
// closed container fails with ErrContainerClosed.
func (c *Container) Close(ctx context.Context) (err error) {
	c.lifecycle.Lock()
	swapped := c.closed.CompareAndSwap(false, true)
	c.lifecycle.Unlock()
	if !swapped {
		return nil
	}
	_, op := observability.StartOperation(ctx, c.tracer, observability.SpanClose,
		attribute.String(observability.AttrContainerID, c.id))
	defer func() { op.End(err, string(errors.CodeOf(err))) }()

	stopped := c.managed.Len()
	err = c.managed.StopAll(ctx)
	c.cache.clear()

	fields := logger.Fields("stopped", stopped, logger.FieldDuration, op.Duration().Milliseconds())
	if err != nil {
		c.log.Error("container closed with errors", logger.MergeWithError(fields, err))
	} else {
		c.log.Info("container closed", fields)
	}
	logger.Unregister(c.loggerName())
	if err != nil {
		return fmt.Errorf("di: close: %w", err)
	}
	return nil
}
