package di

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/managed/errors"
)

func newSpecializerWith(t *testing.T, descs ...ClassDescriptor) (*Specializer, *Registry) {
	t.Helper()
	r := NewRegistry()
	for _, d := range descs {
		require.NoError(t, r.Register(d, Singleton))
	}
	return NewSpecializer(DeclaredSatisfier{Registry: r}), r
}

func implementing(base string, impls ...TypeKey) ClassDescriptor {
	return ClassDescriptor{Base: base, Implements: impls, Construct: value(base)}
}

func TestSpecializeSubstitutesDependencies(t *testing.T) {
	s, _ := newSpecializerWith(t, implementing("PgRepo", repoKey))
	desc := ClassDescriptor{
		Base:         "Service",
		TypeParams:   []TypeVar{{Name: "R", Constraint: &repoKey}},
		Dependencies: []TypeKey{Var("R"), Key("Box", Var("R")), Key("Logger")},
		Construct:    value(nil),
	}

	sp, err := s.Specialize(desc, Key("Service", pgKey))
	require.NoError(t, err)
	assert.Equal(t, "Service[PgRepo]", sp.Key.String())
	assert.Equal(t, "PgRepo", sp.Bindings["R"].String())
	require.Len(t, sp.Dependencies, 3)
	assert.Equal(t, "PgRepo", sp.Dependencies[0].String())
	assert.Equal(t, "Box[PgRepo]", sp.Dependencies[1].String())
	assert.Equal(t, "Logger", sp.Dependencies[2].String())
}

func TestSpecializeTooManyArguments(t *testing.T) {
	s, _ := newSpecializerWith(t)
	desc := ClassDescriptor{Base: "Box", TypeParams: []TypeVar{{Name: "T"}}, Construct: value(nil)}

	_, err := s.Specialize(desc, Key("Box", Key("A"), Key("B")))
	var unbound *UnboundTypeVariableError
	require.True(t, stderrors.As(err, &unbound))
	assert.Empty(t, unbound.Variable)
	assert.Equal(t, 1, unbound.Declared)
	assert.Equal(t, 2, unbound.Supplied)
}

func TestSpecializeMissingArgument(t *testing.T) {
	s, _ := newSpecializerWith(t)
	desc := ClassDescriptor{Base: "Pair", TypeParams: []TypeVar{{Name: "K"}, {Name: "V"}}, Construct: value(nil)}

	_, err := s.Specialize(desc, Key("Pair", Key("A")))
	var unbound *UnboundTypeVariableError
	require.True(t, stderrors.As(err, &unbound))
	assert.Equal(t, "V", unbound.Variable)
	assert.Equal(t, errors.ErrCodeUnboundTypeVariable, errors.CodeOf(err))
}

func TestSpecializeUnknownVariable(t *testing.T) {
	s, _ := newSpecializerWith(t)
	desc := ClassDescriptor{
		Base:         "Box",
		TypeParams:   []TypeVar{{Name: "T"}},
		Dependencies: []TypeKey{Key("List", Var("X"))},
		Construct:    value(nil),
	}

	_, err := s.Specialize(desc, Key("Box", Key("A")))
	var unbound *UnboundTypeVariableError
	require.True(t, stderrors.As(err, &unbound))
	assert.Equal(t, "X", unbound.Variable)
}

func TestSpecializeConstraintViolation(t *testing.T) {
	s, _ := newSpecializerWith(t, implementing("PgRepo", repoKey), implementing("Plain"))

	_, err := s.Specialize(serviceDescriptor(&counter{}), Key("Service", Key("Plain")))
	var cv *ConstraintViolationError
	require.True(t, stderrors.As(err, &cv))
	assert.Equal(t, "R", cv.Variable)
	assert.Equal(t, "Plain", cv.Argument.String())
	assert.Equal(t, "Repo", cv.Constraint.String())
}

func TestSpecializeConstraintReferencingEarlierVariable(t *testing.T) {
	consumer := Key("Consumer", Var("R"))
	s, _ := newSpecializerWith(t,
		implementing("PgRepo", repoKey),
		implementing("MemRepo", repoKey),
		implementing("Reader", Key("Consumer", pgKey)),
	)
	desc := ClassDescriptor{
		Base: "Pipeline",
		TypeParams: []TypeVar{
			{Name: "R", Constraint: &repoKey},
			{Name: "C", Constraint: &consumer},
		},
		Construct: value(nil),
	}

	_, err := s.Specialize(desc, Key("Pipeline", pgKey, Key("Reader")))
	require.NoError(t, err)

	_, err = s.Specialize(desc, Key("Pipeline", memKey, Key("Reader")))
	var cv *ConstraintViolationError
	require.True(t, stderrors.As(err, &cv))
	assert.Equal(t, "Consumer[MemRepo]", cv.Constraint.String())
}

func TestDeclaredSatisfier(t *testing.T) {
	_, r := newSpecializerWith(t,
		implementing("PgRepo", Key("SQLRepo")),
		implementing("SQLRepo", repoKey),
		ClassDescriptor{
			Base:       "Box",
			TypeParams: []TypeVar{{Name: "T"}},
			Implements: []TypeKey{Key("Wrapper", Var("T"))},
			Construct:  value(nil),
		},
	)
	s := DeclaredSatisfier{Registry: r}

	assert.True(t, s.Satisfies(pgKey, pgKey), "a type satisfies itself")
	assert.True(t, s.Satisfies(pgKey, Key("SQLRepo")))
	assert.True(t, s.Satisfies(pgKey, repoKey), "implements is transitive")
	assert.False(t, s.Satisfies(Key("SQLRepo"), pgKey))
	assert.False(t, s.Satisfies(Key("Unbound"), repoKey))

	assert.True(t, s.Satisfies(Key("Box", pgKey), Key("Wrapper", pgKey)))
	assert.False(t, s.Satisfies(Key("Box", pgKey), Key("Wrapper", memKey)))
}

func TestSatisfierFunc(t *testing.T) {
	always := SatisfierFunc(func(TypeKey, TypeKey) bool { return true })
	s := NewSpecializer(always)
	_, err := s.Specialize(serviceDescriptor(&counter{}), Key("Service", Key("Anything")))
	assert.NoError(t, err)
}
