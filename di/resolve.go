package di

import (
	"context"
	"fmt"
	"reflect"

	"github.com/kbukum/managed/errors"
)

// Resolve resolves key and asserts the instance to T. A nil instance (an
// unbound optional) yields the zero T.
//
//	svc, err := di.Resolve[*UserService](c, di.Key("UserService"))
func Resolve[T any](c *Container, key TypeKey) (T, error) {
	return ResolveContext[T](context.Background(), c, key)
}

// ResolveContext is Resolve with a context.
func ResolveContext[T any](ctx context.Context, c *Container, key TypeKey) (T, error) {
	var zero T
	v, err := c.ResolveContext(ctx, key)
	if err != nil || v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.Internal(fmt.Errorf("di: %s resolved to %T, not %s", key, v, reflect.TypeOf((*T)(nil)).Elem())).
			WithDetail("key", key.String())
	}
	return t, nil
}

// MustResolve is Resolve that panics on error, for wiring code that cannot
// continue without the instance.
func MustResolve[T any](c *Container, key TypeKey) T {
	t, err := Resolve[T](c, key)
	if err != nil {
		panic(err)
	}
	return t
}

// TryResolve is Resolve that reports failure as false.
func TryResolve[T any](c *Container, key TypeKey) (T, bool) {
	t, err := Resolve[T](c, key)
	return t, err == nil
}

// Get resolves the key KeyOf derives from T.
//
//	repo, err := di.Get[*PgRepo](c)
func Get[T any](c *Container) (T, error) {
	return Resolve[T](c, KeyOf[T]())
}
