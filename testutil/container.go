package testutil

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/kbukum/managed/di"
	"github.com/kbukum/managed/logger"
)

// NewContainer creates a container with a no-op logger and closes it when
// the test ends. Options given are applied after the logger.
func NewContainer(tb testing.TB, opts ...di.Option) *di.Container {
	tb.Helper()
	c := di.New(append([]di.Option{di.WithLogger(logger.Nop())}, opts...)...)
	tb.Cleanup(func() {
		if err := c.Close(context.Background()); err != nil {
			tb.Errorf("failed to close container: %v", err)
		}
	})
	return c
}

// Value returns a construct function that always yields v.
func Value(v any) di.ConstructFunc {
	return func([]any) (any, error) { return v, nil }
}

// Fail returns a construct function that always fails with err.
func Fail(err error) di.ConstructFunc {
	return func([]any) (any, error) { return nil, err }
}

// Counter counts calls to the construct functions it wraps.
type Counter struct {
	n atomic.Int64
}

// Wrap returns fn counting every call.
func (c *Counter) Wrap(fn di.ConstructFunc) di.ConstructFunc {
	return func(deps []any) (any, error) {
		c.n.Add(1)
		return fn(deps)
	}
}

// Calls returns the number of calls so far.
func (c *Counter) Calls() int {
	return int(c.n.Load())
}
