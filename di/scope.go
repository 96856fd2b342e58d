package di

import (
	"fmt"
	"strings"

	"github.com/kbukum/managed/errors"
)

// Scope is the lifecycle policy of a binding.
type Scope int

const (
	// DefaultScope defers to the container's configured default.
	DefaultScope Scope = iota
	// Singleton bindings are constructed once per container and shared.
	Singleton
	// Transient bindings are constructed on every resolution and never cached.
	Transient
)

func (s Scope) String() string {
	switch s {
	case Singleton:
		return "singleton"
	case Transient:
		return "transient"
	default:
		return "default"
	}
}

// ParseScope parses "singleton", "transient" or its alias "factory".
// The empty string yields DefaultScope.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultScope, nil
	case "singleton":
		return Singleton, nil
	case "transient", "factory":
		return Transient, nil
	default:
		return DefaultScope, errors.InvalidInput("scope", fmt.Sprintf("unknown scope %q", s))
	}
}
