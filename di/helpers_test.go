package di

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kbukum/managed/logger"
)

type Repo interface{ Name() string }

type PgRepo struct{ id int64 }

func (*PgRepo) Name() string { return "pg" }

type MemRepo struct{ id int64 }

func (*MemRepo) Name() string { return "mem" }

type Service struct {
	Repo Repo
	id   int64
}

type App struct{ Svc *Service }

var (
	repoKey = Key("Repo")
	pgKey   = Key("PgRepo")
	memKey  = Key("MemRepo")
)

func newTestContainer(t *testing.T, opts ...Option) *Container {
	t.Helper()
	c := New(append([]Option{WithLogger(logger.Nop())}, opts...)...)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

// counter counts construct calls.
type counter struct{ n atomic.Int64 }

func (c *counter) wrap(fn ConstructFunc) ConstructFunc {
	return func(deps []any) (any, error) {
		c.n.Add(1)
		return fn(deps)
	}
}

func (c *counter) calls() int64 { return c.n.Load() }

func value(v any) ConstructFunc {
	return func([]any) (any, error) { return v, nil }
}

// registerRepos binds PgRepo and MemRepo, both implementing Repo.
func registerRepos(t *testing.T, c *Container, pg, mem *counter, scope Scope) {
	t.Helper()
	var ids atomic.Int64
	require.NoError(t, c.Register(ClassDescriptor{
		Base:       "PgRepo",
		Implements: []TypeKey{repoKey},
		Construct: pg.wrap(func([]any) (any, error) {
			return &PgRepo{id: ids.Add(1)}, nil
		}),
	}, scope))
	require.NoError(t, c.Register(ClassDescriptor{
		Base:       "MemRepo",
		Implements: []TypeKey{repoKey},
		Construct: mem.wrap(func([]any) (any, error) {
			return &MemRepo{id: ids.Add(1)}, nil
		}),
	}, scope))
}

// serviceDescriptor is Service[R: Repo] depending on R.
func serviceDescriptor(calls *counter) ClassDescriptor {
	var ids atomic.Int64
	return ClassDescriptor{
		Base:         "Service",
		TypeParams:   []TypeVar{{Name: "R", Constraint: &repoKey}},
		Dependencies: []TypeKey{Var("R")},
		Construct: calls.wrap(func(deps []any) (any, error) {
			return &Service{Repo: deps[0].(Repo), id: ids.Add(1)}, nil
		}),
	}
}

// plain binds base with no dependencies.
func plain(base string, calls *counter, deps ...TypeKey) ClassDescriptor {
	var ids atomic.Int64
	return ClassDescriptor{
		Base:         base,
		Dependencies: deps,
		Construct: calls.wrap(func([]any) (any, error) {
			return &PgRepo{id: ids.Add(1)}, nil
		}),
	}
}
