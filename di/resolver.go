package di

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/managed/component"
	"github.com/kbukum/managed/errors"
	"github.com/kbukum/managed/logger"
	"github.com/kbukum/managed/observability"
)

// Resolve returns the instance bound to key, building its dependency graph
// as needed.
func (c *Container) Resolve(key TypeKey) (any, error) {
	return c.ResolveContext(context.Background(), key)
}

// ResolveType is Resolve for Key(base, args...).
func (c *Container) ResolveType(base string, args ...TypeKey) (any, error) {
	return c.ResolveContext(context.Background(), Key(base, args...))
}

// ResolveAll returns every non-generic binding that satisfies key, in
// registration order. It is the direct form of resolving SliceOf(key).
func (c *Container) ResolveAll(key TypeKey) ([]any, error) {
	v, err := c.ResolveContext(context.Background(), SliceOf(key))
	if err != nil {
		return nil, err
	}
	return v.([]any), nil
}

// ResolveContext resolves key. ctx carries the trace parent and is handed to
// Initialize; a cancelled ctx stops the resolution before the next
// construction. The first failure aborts the whole call; nothing partially
// built is cached.
func (c *Container) ResolveContext(ctx context.Context, key TypeKey) (value any, err error) {
	if c.closed.Load() {
		return nil, ErrContainerClosed
	}
	if key.IsZero() {
		return nil, errors.InvalidInput("key", "must not be empty")
	}
	if !key.IsConcrete() {
		return nil, &UnboundTypeVariableError{Key: key, Variable: key.Variables()[0]}
	}
	c.seal()

	ctx, op := observability.StartOperation(ctx, c.tracer, observability.SpanResolve,
		attribute.String(observability.AttrContainerID, c.id),
		attribute.String(observability.AttrTypeKey, key.String()),
	)
	c.metrics.RecordResolveStart(ctx)

	hit := false
	if v, ok := c.cache.lookup(key.id()); ok {
		value, hit = v, true
	} else {
		value, err = c.resolve(&resolution{ctx: ctx}, nil, key)
	}
	if err == nil && c.closed.Load() {
		value, err = nil, ErrContainerClosed
	}

	code := string(errors.CodeOf(err))
	op.SetAttributes(attribute.Bool(observability.AttrCacheHit, hit))
	op.End(err, code)
	c.metrics.RecordResolveEnd(ctx, hit, code, op.Duration())

	log := c.log.WithContext(ctx)
	switch {
	case err != nil:
		log.Warn("resolution failed", logger.MergeWithError(logger.Fields(
			logger.FieldTypeKey, key.String(),
			logger.FieldCode, code,
		), err))
		return nil, err
	case hit:
		log.Debug("cache hit", logger.Fields(logger.FieldTypeKey, key.String()))
	}
	return value, nil
}

// resolve runs one step of the depth-first walk. parent is the chain of the
// keys that requested key; it is never mutated, so returning pops the frame
// on every path.
func (c *Container) resolve(r *resolution, parent *frame, key TypeKey) (any, error) {
	id := key.mustBeConcrete("resolve")

	if v, ok := c.cache.lookup(id); ok {
		return v, nil
	}
	if parent.contains(id) {
		return nil, &CyclicDependencyError{Key: key, Chain: append(parent.chain(), key)}
	}
	f := parent.push(key, id)

	if key.Arity() == 1 {
		switch key.Base() {
		case SliceBase:
			return c.resolveSlice(r, f, key)
		case OptionalBase:
			return c.resolveOptional(r, f, key)
		}
	}

	b, ok := c.registry.Lookup(key.Base())
	if !ok {
		return nil, &UnresolvedDependencyError{Key: key, Chain: parent.chain()}
	}

	if b.Scope == Transient {
		return c.build(r, f, b, key)
	}
	return c.cache.getOrCreate(r, key,
		func() error { return &CyclicDependencyError{Key: key, Chain: f.chain()} },
		func() (any, error) { return c.build(r, f, b, key) },
	)
}

// resolveSlice collects every non-generic binding that satisfies the
// element key. Each element goes through the normal path, so its scope is
// honored; the slice itself is never cached.
func (c *Container) resolveSlice(r *resolution, f *frame, key TypeKey) (any, error) {
	keys := c.satisfying(key.args[0])
	if len(keys) == 0 {
		return nil, &UnresolvedDependencyError{Key: key, Chain: f.parent.chain()}
	}
	out := make([]any, len(keys))
	for i, k := range keys {
		v, err := c.resolve(r, f, k)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// resolveOptional yields nil when the element itself is unbound. Any other
// failure, including an unbound dependency of the element, propagates.
func (c *Container) resolveOptional(r *resolution, f *frame, key TypeKey) (any, error) {
	elem := key.args[0]
	v, err := c.resolve(r, f, elem)
	var unresolved *UnresolvedDependencyError
	if stderrors.As(err, &unresolved) && unresolved.Key.Equal(elem) {
		return nil, nil
	}
	return v, err
}

// build specializes b for key, resolves the dependencies left to right and
// constructs the instance.
func (c *Container) build(r *resolution, f *frame, b *Binding, key TypeKey) (any, error) {
	if err := r.ctx.Err(); err != nil {
		return nil, err
	}

	sp, err := c.specializer.Specialize(b.Descriptor, key)
	if err != nil {
		if ce, ok := err.(chained); ok {
			ce.setChain(f.chain())
		}
		return nil, err
	}

	deps := make([]any, len(sp.Dependencies))
	for i, dep := range sp.Dependencies {
		v, err := c.resolve(r, f, dep)
		if err != nil {
			return nil, err
		}
		deps[i] = v
	}
	return c.construct(r, f, b, key, deps)
}

// construct calls the construct function, then Initialize, and hands
// managed singletons to the lifecycle registry.
func (c *Container) construct(r *resolution, f *frame, b *Binding, key TypeKey, deps []any) (value any, err error) {
	_, op := observability.StartOperation(r.ctx, c.tracer, observability.SpanConstruct,
		attribute.String(observability.AttrTypeKey, key.String()),
		attribute.String(observability.AttrBase, key.Base()),
		attribute.String(observability.AttrScope, b.Scope.String()),
	)
	defer func() { op.End(err, string(errors.CodeOf(err))) }()

	value, err = invoke(b.Descriptor.Construct, deps)
	if err == nil && !b.External {
		if init, ok := value.(component.Initializer); ok {
			if ierr := init.Initialize(r.ctx); ierr != nil {
				c.release(r.ctx, key, value)
				value, err = nil, fmt.Errorf("initialize: %w", ierr)
			}
		}
	}
	if err != nil {
		return nil, &ConstructionError{Key: key, Chain: f.chain(), Cause: err}
	}
	if !b.External {
		if err = c.adopt(r.ctx, b, key, value); err != nil {
			return nil, err
		}
	}

	c.metrics.RecordConstruction(r.ctx, key.Base(), b.Scope.String(), op.Duration())
	c.log.Debug("constructed", logger.Fields(
		logger.FieldTypeKey, key.String(),
		logger.FieldScope, b.Scope.String(),
		logger.FieldDuration, op.Duration().Milliseconds(),
	))
	return value, nil
}

// adopt hands a fresh instance over to the container: singletons are
// tracked for Close. Close flips the closed flag under the write lock, so
// an instance is either tracked before StopAll runs or released here.
func (c *Container) adopt(ctx context.Context, b *Binding, key TypeKey, value any) error {
	c.lifecycle.RLock()
	defer c.lifecycle.RUnlock()

	if c.closed.Load() {
		c.release(ctx, key, value)
		return ErrContainerClosed
	}
	if b.Scope == Singleton {
		if _, err := c.managed.Track(key.String(), value); err != nil {
			c.log.Warn("instance not tracked", logger.ErrorFields("track", err))
		}
	}
	return nil
}

// release stops an instance the container will not hand out. Failures are
// logged only.
func (c *Container) release(ctx context.Context, key TypeKey, value any) {
	if err := component.Release(ctx, value); err != nil {
		c.log.Warn("instance release failed", logger.MergeWithError(
			logger.Fields(logger.FieldTypeKey, key.String()), err))
	}
}

// invoke calls fn, turning a panic into an error wrapping ErrConstructPanic.
// Invariant violations keep panicking.
func invoke(fn ConstructFunc, deps []any) (value any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if ie, ok := rec.(*InvariantError); ok {
				panic(ie)
			}
			value, err = nil, fmt.Errorf("%w: %v", ErrConstructPanic, rec)
		}
	}()
	return fn(deps)
}
