// Package di provides a dependency injection container that understands
// generic type parameters.
//
// Types are identified by a TypeKey, a base identifier plus ordered type
// arguments. A ClassDescriptor tells the container how to build one class:
// its type variables, the keys it depends on, the capabilities it
// implements and a construct function. Resolving Service[PgRepo] finds the
// Service binding, binds its variable R to PgRepo, checks R's constraint,
// resolves the substituted dependencies depth first and constructs.
//
// # Registration
//
//	c := di.New()
//	repo := di.Key("Repo")
//	c.MustRegister(di.ClassDescriptor{
//	    Base:       "PgRepo",
//	    Implements: []di.TypeKey{repo},
//	    Construct:  func([]any) (any, error) { return &PgRepo{}, nil },
//	}, di.Singleton)
//	c.MustRegister(di.ClassDescriptor{
//	    Base:         "Service",
//	    TypeParams:   []di.TypeVar{{Name: "R", Constraint: &repo}},
//	    Dependencies: []di.TypeKey{di.Var("R")},
//	    Construct:    func(deps []any) (any, error) { return &Service{Repo: deps[0].(Repo)}, nil },
//	}, di.Transient)
//
// # Resolution
//
//	svc, err := di.Resolve[*Service](c, di.MustParseKey("Service[PgRepo]"))
//
// Singletons are constructed at most once per concrete key, also under
// concurrent resolution; transients are constructed on every request.
// SliceOf(k) resolves every non-generic binding satisfying k and
// OptionalOf(k) resolves to nil when k is unbound.
//
// # Lifecycle
//
// Registration closes when Build is called or the first resolution runs.
// Singletons implementing component.Initializer are initialized after
// construction; those implementing component.Stopper or io.Closer are
// stopped by Close in reverse construction order.
//
// Construct functions must not resolve from the container themselves;
// declare the dependency instead.
package di
