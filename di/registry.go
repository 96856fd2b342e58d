package di

import (
	"sync"
	"sync/atomic"

	"github.com/kbukum/managed/errors"
)

// Binding pairs a descriptor with its scope. Bindings are immutable once
// registered; callers must not modify them.
type Binding struct {
	Descriptor ClassDescriptor
	Scope      Scope
	// External marks a pre-built instance: the container neither
	// initializes nor stops it.
	External bool
}

// Key returns the binding's own key with its variables unbound.
func (b *Binding) Key() TypeKey { return b.Descriptor.Key() }

// Registry holds at most one binding per base identifier. It accepts
// registrations until sealed; after that it is read without locking.
type Registry struct {
	mu       sync.Mutex
	sealed   atomic.Bool
	bindings map[string]*Binding
	order    []*Binding
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[string]*Binding)}
}

// Register validates desc and binds it under desc.Base. scope must be
// Singleton or Transient.
func (r *Registry) Register(desc ClassDescriptor, scope Scope) error {
	return r.add(&Binding{Descriptor: desc, Scope: scope})
}

func (r *Registry) add(b *Binding) error {
	if v := b.Descriptor.validate(); v.HasErrors() {
		return errors.InvalidDescriptor(b.Descriptor.Base, v.Message()).WithDetail("fields", v.Errors())
	}
	if b.Scope != Singleton && b.Scope != Transient {
		return errors.InvalidDescriptor(b.Descriptor.Base, "scope must be singleton or transient")
	}
	b.Descriptor = b.Descriptor.clone()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return ErrRegistrationClosed
	}
	if _, exists := r.bindings[b.Descriptor.Base]; exists {
		return &DuplicateBindingError{Base: b.Descriptor.Base}
	}
	r.bindings[b.Descriptor.Base] = b
	r.order = append(r.order, b)
	return nil
}

// Lookup returns the binding for base. It has no side effects.
func (r *Registry) Lookup(base string) (*Binding, bool) {
	if r.sealed.Load() {
		b, ok := r.bindings[base]
		return b, ok
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[base]
	return b, ok
}

// Bindings returns the bindings in registration order.
func (r *Registry) Bindings() []*Binding {
	if r.sealed.Load() {
		return append([]*Binding(nil), r.order...)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Binding(nil), r.order...)
}

// Len returns the number of bindings.
func (r *Registry) Len() int {
	if r.sealed.Load() {
		return len(r.order)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Seal closes the registry to further registrations. It reports whether
// this call did the sealing.
func (r *Registry) Seal() bool {
	if r.sealed.Load() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sealed.CompareAndSwap(false, true)
}

// Sealed reports whether the registry is sealed.
func (r *Registry) Sealed() bool { return r.sealed.Load() }
