package di

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/managed/config"
	"github.com/kbukum/managed/errors"
	"github.com/kbukum/managed/logger"
)

func TestSingletonIdentity(t *testing.T) {
	c := newTestContainer(t)
	var pg counter
	registerRepos(t, c, &pg, &counter{}, Singleton)

	first, err := c.Resolve(pgKey)
	require.NoError(t, err)
	second, err := c.Resolve(pgKey)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.EqualValues(t, 1, pg.calls())
}

func TestTransientDistinct(t *testing.T) {
	c := newTestContainer(t)
	var pg counter
	registerRepos(t, c, &pg, &counter{}, Transient)

	first, err := c.Resolve(pgKey)
	require.NoError(t, err)
	second, err := c.Resolve(pgKey)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.EqualValues(t, 2, pg.calls())
	assert.Empty(t, c.Instances(), "transients are never cached")
}

func TestCycleRejectedWithoutConstruction(t *testing.T) {
	for _, scope := range []Scope{Singleton, Transient} {
		t.Run(scope.String(), func(t *testing.T) {
			c := newTestContainer(t)
			var a, b counter
			require.NoError(t, c.Register(plain("A", &a, Key("B")), scope))
			require.NoError(t, c.Register(plain("B", &b, Key("A")), scope))

			_, err := c.Resolve(Key("A"))
			var cycle *CyclicDependencyError
			require.True(t, stderrors.As(err, &cycle), "got %v", err)
			assert.Equal(t, "A -> B -> A", FormatChain(cycle.Chain))
			assert.Equal(t, "A", cycle.Key.String())
			assert.Zero(t, a.calls())
			assert.Zero(t, b.calls())
			assert.Empty(t, c.Instances())
		})
	}
}

func TestSelfCycle(t *testing.T) {
	c := newTestContainer(t)
	require.NoError(t, c.Register(plain("A", &counter{}, Key("A")), Singleton))

	_, err := c.Resolve(Key("A"))
	var cycle *CyclicDependencyError
	require.True(t, stderrors.As(err, &cycle))
	assert.Equal(t, "A -> A", FormatChain(cycle.Chain))
}

func TestUnresolvedLeavesCacheUntouched(t *testing.T) {
	c := newTestContainer(t)
	registerRepos(t, c, &counter{}, &counter{}, Singleton)
	_, err := c.Resolve(pgKey)
	require.NoError(t, err)
	before := c.Instances()

	_, err = c.Resolve(Key("Nope"))
	var unresolved *UnresolvedDependencyError
	require.True(t, stderrors.As(err, &unresolved))
	assert.Equal(t, "Nope", unresolved.Key.String())
	assert.Empty(t, unresolved.Chain)
	assert.Equal(t, errors.ErrCodeUnresolvedDependency, errors.CodeOf(err))

	assert.Equal(t, before, c.Instances())
}

func TestBaseSpellingAGenericKeyIsNotAliased(t *testing.T) {
	c := newTestContainer(t)
	registerRepos(t, c, &counter{}, &counter{}, Singleton)
	require.NoError(t, c.Register(serviceDescriptor(&counter{}), Singleton))

	svc, err := c.Resolve(Key("Service", pgKey))
	require.NoError(t, err)

	flat := Key("Service[PgRepo]")
	require.Equal(t, "Service[PgRepo]", flat.String())
	v, err := c.Resolve(flat)
	assert.Nil(t, v)
	var unresolved *UnresolvedDependencyError
	require.True(t, stderrors.As(err, &unresolved), "got %v", err)
	assert.True(t, unresolved.Key.Equal(flat))

	again, err := c.Resolve(Key("Service", pgKey))
	require.NoError(t, err)
	assert.Same(t, svc, again)

	_, err = c.Plan(flat)
	assert.True(t, stderrors.As(err, &unresolved))
}

func TestUnresolvedReportsRequestingChain(t *testing.T) {
	c := newTestContainer(t)
	var a counter
	require.NoError(t, c.Register(plain("A", &a, Key("B")), Singleton))
	require.NoError(t, c.Register(plain("B", &counter{}, Key("Missing")), Singleton))

	_, err := c.Resolve(Key("A"))
	var unresolved *UnresolvedDependencyError
	require.True(t, stderrors.As(err, &unresolved))
	assert.Equal(t, "Missing", unresolved.Key.String())
	assert.Equal(t, "A -> B", FormatChain(unresolved.Chain))
	assert.Zero(t, a.calls())
	assert.Empty(t, c.Instances())
}

func TestGenericSpecializationUsesArgumentBinding(t *testing.T) {
	c := newTestContainer(t)
	var pg, mem, svc counter
	registerRepos(t, c, &pg, &mem, Singleton)
	require.NoError(t, c.Register(serviceDescriptor(&svc), Singleton))
	require.NoError(t, c.Register(ClassDescriptor{
		Base:         "App",
		Dependencies: []TypeKey{Key("Service", pgKey)},
		Construct: func(deps []any) (any, error) {
			return &App{Svc: deps[0].(*Service)}, nil
		},
	}, Singleton))

	v, err := c.Resolve(Key("App"))
	require.NoError(t, err)
	app := v.(*App)
	require.IsType(t, &PgRepo{}, app.Svc.Repo)
	assert.Equal(t, "pg", app.Svc.Repo.Name())
	assert.EqualValues(t, 1, pg.calls())
	assert.Zero(t, mem.calls())

	other, err := c.ResolveType("Service", memKey)
	require.NoError(t, err)
	assert.IsType(t, &MemRepo{}, other.(*Service).Repo)
	assert.NotSame(t, app.Svc, other, "each specialization is its own singleton")
	assert.EqualValues(t, 2, svc.calls())
}

func TestConstraintViolationBeforeConstruction(t *testing.T) {
	c := newTestContainer(t)
	var plainCalls, svc counter
	require.NoError(t, c.Register(plain("Plain", &plainCalls), Singleton))
	require.NoError(t, c.Register(serviceDescriptor(&svc), Singleton))
	require.NoError(t, c.Register(plain("Consumer", &counter{}, Key("Service", Key("Plain"))), Singleton))

	_, err := c.Resolve(Key("Consumer"))
	var cv *ConstraintViolationError
	require.True(t, stderrors.As(err, &cv), "got %v", err)
	assert.Equal(t, "Service[Plain]", cv.Key.String())
	assert.Equal(t, "Consumer -> Service[Plain]", FormatChain(cv.Chain))
	assert.Zero(t, plainCalls.calls())
	assert.Zero(t, svc.calls())
}

func TestResolveRejectsNonConcreteKey(t *testing.T) {
	c := newTestContainer(t)
	require.NoError(t, c.Register(serviceDescriptor(&counter{}), Singleton))

	_, err := c.Resolve(Key("Service", Var("R")))
	var unbound *UnboundTypeVariableError
	require.True(t, stderrors.As(err, &unbound))
	assert.Equal(t, "R", unbound.Variable)

	_, err = c.Resolve(TypeKey{})
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
}

func TestResolveGenericWithWrongArity(t *testing.T) {
	c := newTestContainer(t)
	registerRepos(t, c, &counter{}, &counter{}, Singleton)
	require.NoError(t, c.Register(serviceDescriptor(&counter{}), Singleton))

	_, err := c.Resolve(Key("Service"))
	var unbound *UnboundTypeVariableError
	require.True(t, stderrors.As(err, &unbound))
	assert.Equal(t, "R", unbound.Variable)
	assert.Equal(t, "Service", FormatChain(unbound.Chain))
}

func TestConcurrentSingletonConstructedOnce(t *testing.T) {
	c := newTestContainer(t)
	var calls counter
	require.NoError(t, c.Register(ClassDescriptor{
		Base: "Slow",
		Construct: calls.wrap(func([]any) (any, error) {
			time.Sleep(20 * time.Millisecond)
			return &PgRepo{}, nil
		}),
	}, Singleton))

	const n = 64
	start := make(chan struct{})
	results := make([]any, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = c.Resolve(Key("Slow"))
		}(i)
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, calls.calls())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
}

// Two resolutions each own one singleton of a cycle and then need the
// other's. Whichever waits second must see the cycle instead of blocking.
func TestCrossResolutionCycleDoesNotDeadlock(t *testing.T) {
	c := newTestContainer(t)
	entered := make(chan string, 2)
	release := make(chan struct{})
	gate := func(name string) ClassDescriptor {
		return ClassDescriptor{
			Base: name,
			Construct: func([]any) (any, error) {
				entered <- name
				<-release
				return name, nil
			},
		}
	}
	require.NoError(t, c.Register(gate("GateA"), Transient))
	require.NoError(t, c.Register(gate("GateB"), Transient))
	require.NoError(t, c.Register(plain("A", &counter{}, Key("GateA"), Key("B")), Singleton))
	require.NoError(t, c.Register(plain("B", &counter{}, Key("GateB"), Key("A")), Singleton))

	errs := make(chan error, 2)
	go func() { _, err := c.Resolve(Key("A")); errs <- err }()
	go func() { _, err := c.Resolve(Key("B")); errs <- err }()

	<-entered
	<-entered
	close(release)

	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			var cycle *CyclicDependencyError
			assert.True(t, stderrors.As(err, &cycle), "got %v", err)
		case <-time.After(5 * time.Second):
			t.Fatal("resolutions deadlocked")
		}
	}
	assert.Empty(t, c.Instances())
}

func TestConstructErrorNotCached(t *testing.T) {
	c := newTestContainer(t)
	boom := stderrors.New("boom")
	var calls counter
	require.NoError(t, c.Register(ClassDescriptor{
		Base: "Flaky",
		Construct: calls.wrap(func([]any) (any, error) {
			if calls.calls() == 1 {
				return nil, boom
			}
			return &PgRepo{}, nil
		}),
	}, Singleton))

	_, err := c.Resolve(Key("Flaky"))
	var ce *ConstructionError
	require.True(t, stderrors.As(err, &ce))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "Flaky", FormatChain(ce.Chain))

	v, err := c.Resolve(Key("Flaky"))
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.EqualValues(t, 2, calls.calls())
}

func TestConstructPanicRecovered(t *testing.T) {
	c := newTestContainer(t)
	require.NoError(t, c.Register(ClassDescriptor{
		Base:      "Panicky",
		Construct: func([]any) (any, error) { panic("kaboom") },
	}, Singleton))

	_, err := c.Resolve(Key("Panicky"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConstructPanic)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Equal(t, errors.ErrCodeConstructionFailed, errors.CodeOf(err))
	assert.Empty(t, c.Instances())
}

func TestDependenciesResolvedInDeclaredOrder(t *testing.T) {
	c := newTestContainer(t)
	var order []string
	var mu sync.Mutex
	record := func(name string) ConstructFunc {
		return func([]any) (any, error) {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return name, nil
		}
	}
	require.NoError(t, c.Register(ClassDescriptor{Base: "X", Construct: record("X")}, Singleton))
	require.NoError(t, c.Register(ClassDescriptor{Base: "Y", Construct: record("Y")}, Singleton))
	require.NoError(t, c.Register(ClassDescriptor{
		Base:         "Root",
		Dependencies: []TypeKey{Key("Y"), Key("X")},
		Construct: func(deps []any) (any, error) {
			return deps[0].(string) + " " + deps[1].(string), nil
		},
	}, Singleton))

	v, err := c.Resolve(Key("Root"))
	require.NoError(t, err)
	assert.Equal(t, "Y X", v)
	assert.Equal(t, []string{"Y", "X"}, order)
}

func TestTransientInsideSingletonResolvedPerConstruction(t *testing.T) {
	c := newTestContainer(t)
	var pg counter
	registerRepos(t, c, &pg, &counter{}, Transient)
	require.NoError(t, c.Register(serviceDescriptor(&counter{}), Singleton))

	for i := 0; i < 3; i++ {
		_, err := c.ResolveType("Service", pgKey)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, pg.calls())

	_, err := c.Resolve(pgKey)
	require.NoError(t, err)
	assert.EqualValues(t, 2, pg.calls())
}

func TestRegisterAfterResolveFails(t *testing.T) {
	c := newTestContainer(t)
	registerRepos(t, c, &counter{}, &counter{}, Singleton)
	_, err := c.Resolve(pgKey)
	require.NoError(t, err)

	err = c.Register(plain("Late", &counter{}), Singleton)
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestRegisterUsesDefaultScope(t *testing.T) {
	c := newTestContainer(t, WithDefaultScope(Transient))
	require.NoError(t, c.Register(plain("A", &counter{}), DefaultScope))
	require.NoError(t, c.Register(plain("B", &counter{}), Singleton))

	scopes := map[string]string{}
	for _, b := range c.Bindings() {
		scopes[b.Base] = b.Scope
	}
	assert.Equal(t, "transient", scopes["A"])
	assert.Equal(t, "singleton", scopes["B"])
}

func TestMustRegisterPanics(t *testing.T) {
	c := newTestContainer(t)
	c.MustRegister(plain("A", &counter{}), Singleton)
	assert.Panics(t, func() { c.MustRegister(plain("A", &counter{}), Singleton) })
}

func TestContainerResolvesItself(t *testing.T) {
	c := newTestContainer(t)
	v, err := c.Resolve(ContainerKey)
	require.NoError(t, err)
	assert.Same(t, c, v)

	got, err := Get[*Container](c)
	require.NoError(t, err)
	assert.Same(t, c, got)
}

func TestRegisterInstance(t *testing.T) {
	c := newTestContainer(t)
	repo := &PgRepo{id: 42}
	require.NoError(t, c.RegisterInstance(pgKey, repo, repoKey))
	require.NoError(t, c.Register(serviceDescriptor(&counter{}), Singleton))

	err := c.RegisterInstance(Key("Box", Key("A")), 1)
	assert.Equal(t, errors.ErrCodeInvalidDescriptor, errors.CodeOf(err))
	err = c.RegisterInstance(pgKey, repo)
	var dup *DuplicateBindingError
	assert.True(t, stderrors.As(err, &dup))

	v, err := c.ResolveType("Service", pgKey)
	require.NoError(t, err)
	assert.Same(t, repo, v.(*Service).Repo)
}

func TestSliceDependency(t *testing.T) {
	c := newTestContainer(t)
	registerRepos(t, c, &counter{}, &counter{}, Singleton)
	require.NoError(t, c.Register(serviceDescriptor(&counter{}), Singleton))
	require.NoError(t, c.Register(ClassDescriptor{
		Base:         "Registry",
		Dependencies: []TypeKey{SliceOf(repoKey)},
		Construct:    func(deps []any) (any, error) { return deps[0], nil },
	}, Singleton))

	v, err := c.Resolve(Key("Registry"))
	require.NoError(t, err)
	repos := v.([]any)
	require.Len(t, repos, 2)
	assert.Equal(t, "pg", repos[0].(Repo).Name())
	assert.Equal(t, "mem", repos[1].(Repo).Name())

	pg, err := c.Resolve(pgKey)
	require.NoError(t, err)
	assert.Same(t, pg, repos[0], "elements honor their scope")

	all, err := c.ResolveAll(repoKey)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = c.ResolveAll(Key("Nothing"))
	var unresolved *UnresolvedDependencyError
	require.True(t, stderrors.As(err, &unresolved))
	assert.Equal(t, "[]Nothing", unresolved.Key.String())
}

func TestOptionalDependency(t *testing.T) {
	c := newTestContainer(t)
	registerRepos(t, c, &counter{}, &counter{}, Singleton)
	var seen []any
	require.NoError(t, c.Register(ClassDescriptor{
		Base:         "Reporter",
		Dependencies: []TypeKey{OptionalOf(Key("Cache")), OptionalOf(pgKey)},
		Construct: func(deps []any) (any, error) {
			seen = deps
			return "reporter", nil
		},
	}, Singleton))
	require.NoError(t, c.Register(plain("Broken", &counter{}, Key("Missing")), Singleton))
	require.NoError(t, c.Register(ClassDescriptor{
		Base:         "UsesBroken",
		Dependencies: []TypeKey{OptionalOf(Key("Broken"))},
		Construct:    value("x"),
	}, Singleton))

	_, err := c.Resolve(Key("Reporter"))
	require.NoError(t, err)
	require.Len(t, seen, 2)
	assert.Nil(t, seen[0])
	assert.NotNil(t, seen[1])

	_, err = c.Resolve(Key("UsesBroken"))
	var unresolved *UnresolvedDependencyError
	require.True(t, stderrors.As(err, &unresolved), "a bound optional with a missing dependency still fails")
	assert.Equal(t, "Missing", unresolved.Key.String())

	v, err := c.Resolve(OptionalOf(Key("Cache")))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestNewFromConfig(t *testing.T) {
	c, err := NewFromConfig(config.ContainerConfig{DefaultScope: "factory"}, WithLogger(logger.Nop()))
	require.NoError(t, err)
	defer c.Close(context.Background())
	require.NoError(t, c.Register(plain("A", &counter{}), DefaultScope))
	assert.Equal(t, "transient", c.Bindings()[1].Scope)

	_, err = NewFromConfig(config.ContainerConfig{DefaultScope: "request"})
	assert.Error(t, err)
}

func TestBuildSealsRegistry(t *testing.T) {
	c := newTestContainer(t)
	require.NoError(t, c.Register(plain("A", &counter{}, Key("Missing")), Singleton))
	require.NoError(t, c.Build(context.Background()), "non-strict build does not plan")
	assert.True(t, c.Registry().Sealed())
	assert.ErrorIs(t, c.Register(plain("B", &counter{}), Singleton), ErrRegistrationClosed)
}

func TestStrictBuildReportsEveryProblem(t *testing.T) {
	c := newTestContainer(t, WithStrict(true))
	var a counter
	registerRepos(t, c, &counter{}, &counter{}, Singleton)
	require.NoError(t, c.Register(serviceDescriptor(&counter{}), Singleton))
	require.NoError(t, c.Register(plain("A", &a, Key("Missing")), Singleton))
	require.NoError(t, c.Register(plain("B", &counter{}, Key("C")), Singleton))
	require.NoError(t, c.Register(plain("C", &counter{}, Key("B")), Singleton))

	err := c.Build(context.Background())
	require.Error(t, err)
	var unresolved *UnresolvedDependencyError
	var cycle *CyclicDependencyError
	assert.True(t, stderrors.As(err, &unresolved))
	assert.True(t, stderrors.As(err, &cycle))
	assert.Zero(t, a.calls())
}

func TestErrorsConvertToAppError(t *testing.T) {
	c := newTestContainer(t)
	require.NoError(t, c.Register(plain("A", &counter{}, Key("A")), Singleton))
	_, err := c.Resolve(Key("A"))

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeCyclicDependency, appErr.Code)
	assert.Equal(t, []string{"A", "A"}, appErr.Details["chain"])
	assert.Equal(t, "A", appErr.Details["key"])
	assert.False(t, appErr.Retryable)
}
