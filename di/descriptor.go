package di

import (
	"slices"

	"github.com/kbukum/managed/validation"
)

// ConstructFunc builds an instance from its resolved dependencies, given in
// declaration order.
type ConstructFunc func(deps []any) (any, error)

// TypeVar is a type parameter declared by a generic class. Constraint, when
// set, is the capability a bound argument must satisfy; it may reference
// variables declared before it.
type TypeVar struct {
	Name       string
	Constraint *TypeKey
}

// ClassDescriptor describes how to build one managed class. Dependencies and
// Implements may reference the declared type variables with Var.
//
//	di.ClassDescriptor{
//	    Base:         "Service",
//	    TypeParams:   []di.TypeVar{{Name: "R", Constraint: &repoKey}},
//	    Dependencies: []di.TypeKey{di.Var("R")},
//	    Construct:    func(deps []any) (any, error) { return &Service{Repo: deps[0].(Repo)}, nil },
//	}
type ClassDescriptor struct {
	Base         string
	TypeParams   []TypeVar
	Dependencies []TypeKey
	// Implements lists the capabilities instances of this class satisfy.
	Implements []TypeKey
	Construct  ConstructFunc
}

// Arity returns the number of declared type variables.
func (d ClassDescriptor) Arity() int { return len(d.TypeParams) }

// IsGeneric reports whether the class declares type variables.
func (d ClassDescriptor) IsGeneric() bool { return len(d.TypeParams) > 0 }

// Key returns the descriptor's own key with its variables unbound,
// e.g. Service['R].
func (d ClassDescriptor) Key() TypeKey {
	args := make([]TypeKey, len(d.TypeParams))
	for i, tv := range d.TypeParams {
		args[i] = Var(tv.Name)
	}
	return Key(d.Base, args...)
}

// clone copies the slices so later edits by the caller cannot reach a
// registered binding.
func (d ClassDescriptor) clone() ClassDescriptor {
	out := d
	out.TypeParams = slices.Clone(d.TypeParams)
	for i, tv := range out.TypeParams {
		if tv.Constraint != nil {
			c := *tv.Constraint
			out.TypeParams[i].Constraint = &c
		}
	}
	out.Dependencies = slices.Clone(d.Dependencies)
	out.Implements = slices.Clone(d.Implements)
	return out
}

// validate checks the descriptor shape. It does not check which variables
// dependencies reference; that surfaces at specialization.
func (d ClassDescriptor) validate() *validation.Validator {
	v := validation.New().
		Identifier("base", d.Base).
		Custom(d.Construct != nil, "construct", "must not be nil")

	names := make([]string, len(d.TypeParams))
	for i, tv := range d.TypeParams {
		v.Identifier("type_params", tv.Name)
		names[i] = tv.Name
	}
	v.Unique("type_params", names)

	for _, dep := range d.Dependencies {
		v.Custom(!dep.IsZero(), "dependencies", "must not contain the zero key")
	}
	for _, impl := range d.Implements {
		v.Custom(!impl.IsZero() && !impl.IsVar(), "implements", "must name a type, not a variable")
	}
	return v
}
