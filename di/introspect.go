package di

import (
	"fmt"

	"github.com/kbukum/managed/component"
)

// BindingInfo describes a binding in text form.
type BindingInfo struct {
	Base         string   `json:"base"`
	Key          string   `json:"key"`
	TypeParams   []string `json:"type_params,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Implements   []string `json:"implements,omitempty"`
	Scope        string   `json:"scope"`
	External     bool     `json:"external,omitempty"`
}

// InstanceInfo describes a cached singleton.
type InstanceInfo struct {
	Key         string                 `json:"key"`
	Type        string                 `json:"type"`
	Managed     bool                   `json:"managed"`
	Description *component.Description `json:"description,omitempty"`
}

// Bindings describes every binding in registration order. A closed
// container has none.
func (c *Container) Bindings() []BindingInfo {
	if c.closed.Load() {
		return nil
	}
	bindings := c.registry.Bindings()
	out := make([]BindingInfo, len(bindings))
	for i, b := range bindings {
		d := b.Descriptor
		info := BindingInfo{
			Base:         d.Base,
			Key:          d.Key().String(),
			Dependencies: keyStrings(d.Dependencies),
			Implements:   keyStrings(d.Implements),
			Scope:        b.Scope.String(),
			External:     b.External,
		}
		for _, tv := range d.TypeParams {
			if tv.Constraint != nil {
				info.TypeParams = append(info.TypeParams, tv.Name+": "+tv.Constraint.String())
			} else {
				info.TypeParams = append(info.TypeParams, tv.Name)
			}
		}
		out[i] = info
	}
	return out
}

// Instances describes the cached singletons in construction order.
// Pre-built instances appear once they have been resolved.
func (c *Container) Instances() []InstanceInfo {
	entries := c.cache.snapshot()
	out := make([]InstanceInfo, len(entries))
	for i, e := range entries {
		info := InstanceInfo{
			Key:     e.key.String(),
			Type:    fmt.Sprintf("%T", e.value),
			Managed: c.managed.Get(e.key.String()) != nil,
		}
		if d, ok := e.value.(component.Describable); ok {
			desc := d.Describe()
			info.Description = &desc
		}
		out[i] = info
	}
	return out
}

func keyStrings(keys []TypeKey) []string {
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}
