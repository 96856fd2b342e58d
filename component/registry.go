package component

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/kbukum/managed/logger"
)

// StopTimeout bounds each Stop call made by StopAll.
const StopTimeout = 10 * time.Second

// entry holds a tracked instance and its stopped state.
type entry struct {
	name     string
	instance any
	stopped  bool
}

// Registry tracks managed instances in the order they were constructed.
// Instances are stopped in reverse order, so dependents go before their
// dependencies.
type Registry struct {
	entries []*entry
	lookup  map[string]*entry
	mu      sync.RWMutex
}

// NewRegistry creates a new instance registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make([]*entry, 0),
		lookup:  make(map[string]*entry),
	}
}

// Manageable reports whether the registry has anything to do with v: stop it,
// close it or check its health.
func Manageable(v any) bool {
	switch v.(type) {
	case Stopper, io.Closer, HealthChecker:
		return true
	}
	return false
}

func stoppable(v any) bool {
	switch v.(type) {
	case Stopper, io.Closer:
		return true
	}
	return false
}

// Release stops one instance outside any registry: a Stopper gets Stop with
// a context bounded by StopTimeout, an io.Closer gets Close. Anything else
// is left alone.
func Release(ctx context.Context, instance any) error {
	switch v := instance.(type) {
	case Stopper:
		stopCtx, cancel := context.WithTimeout(ctx, StopTimeout)
		defer cancel()
		return v.Stop(stopCtx)
	case io.Closer:
		return v.Close()
	}
	return nil
}

// Track adds an instance under name. Instances that are not Manageable are
// ignored and Track returns false.
func (r *Registry) Track(name string, instance any) (bool, error) {
	if !Manageable(instance) {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.lookup[name]; exists {
		return false, fmt.Errorf("instance %s already tracked", name)
	}

	e := &entry{name: name, instance: instance}
	r.entries = append(r.entries, e)
	r.lookup[name] = e

	logger.Debug("Instance tracked", logger.Fields(logger.FieldComponent, name))
	return true, nil
}

// StopAll stops every tracked instance in reverse tracking order. A Stopper
// gets Stop with a bounded context, an io.Closer gets Close. All errors are
// collected and joined.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.stopped {
			continue
		}
		e.stopped = true

		if !stoppable(e.instance) {
			continue
		}
		err := Release(ctx, e.instance)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", e.name, err))
			logger.Error("Instance stop failed", logger.Fields(
				logger.FieldComponent, e.name,
				logger.FieldError, err.Error(),
			))
			continue
		}
		logger.Debug("Instance stopped", logger.Fields(logger.FieldComponent, e.name))
	}

	return errors.Join(errs...)
}

// HealthAll returns health for every tracked HealthChecker, in tracking order.
// An instance that reports no name is named after its tracking key.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]Health, 0, len(r.entries))
	for _, e := range r.entries {
		hc, ok := e.instance.(HealthChecker)
		if !ok {
			continue
		}
		h := hc.Health(ctx)
		if h.Name == "" {
			h.Name = e.name
		}
		results = append(results, h)
	}
	return results
}

// Get returns a tracked instance by name, or nil if not found.
func (r *Registry) Get(name string) any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, exists := r.lookup[name]; exists {
		return e.instance
	}
	return nil
}

// Names returns the tracked names in tracking order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		result = append(result, e.name)
	}
	return result
}

// Len returns the number of tracked instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Overall folds a set of health reports into one status: any unhealthy
// report wins, then any degraded one.
func Overall(reports []Health) HealthStatus {
	status := StatusHealthy
	for _, h := range reports {
		switch h.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}
