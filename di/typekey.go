package di

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Reserved bases of the built-in collection and optional keys.
const (
	SliceBase    = "[]"
	OptionalBase = "?"
)

// TypeKey is the identity of a possibly generic type: a base identifier and
// an ordered list of type arguments. Keys are immutable values; two keys are
// equal when their bases match and their arguments are recursively equal.
//
// A key may reference type variables (see Var) while a descriptor is being
// specialized. Only concrete keys reach the registry lookup or the cache.
type TypeKey struct {
	base     string
	args     []TypeKey
	variable bool
}

// Key builds a TypeKey. The argument slice is copied.
func Key(base string, args ...TypeKey) TypeKey {
	k := TypeKey{base: base}
	if len(args) > 0 {
		k.args = make([]TypeKey, len(args))
		copy(k.args, args)
	}
	return k
}

// Var builds a reference to the type variable name.
func Var(name string) TypeKey {
	return TypeKey{base: name, variable: true}
}

// SliceOf is the key of every registered non-generic type satisfying elem.
func SliceOf(elem TypeKey) TypeKey {
	return Key(SliceBase, elem)
}

// OptionalOf is the key of elem, or of nil when elem has no binding.
func OptionalOf(elem TypeKey) TypeKey {
	return Key(OptionalBase, elem)
}

// Base returns the base identifier, or the variable name for a variable.
func (k TypeKey) Base() string { return k.base }

// Args returns a copy of the type arguments.
func (k TypeKey) Args() []TypeKey {
	if len(k.args) == 0 {
		return nil
	}
	out := make([]TypeKey, len(k.args))
	copy(out, k.args)
	return out
}

// Arity returns the number of type arguments.
func (k TypeKey) Arity() int { return len(k.args) }

// IsVar reports whether k is a type variable reference.
func (k TypeKey) IsVar() bool { return k.variable }

// IsZero reports whether k is the zero key.
func (k TypeKey) IsZero() bool { return k.base == "" && !k.variable && len(k.args) == 0 }

// IsConcrete reports whether k references no type variable at any depth.
func (k TypeKey) IsConcrete() bool {
	if k.variable {
		return false
	}
	for _, a := range k.args {
		if !a.IsConcrete() {
			return false
		}
	}
	return true
}

// Variables returns the names of the variables k references, in order of
// first appearance.
func (k TypeKey) Variables() []string {
	var names []string
	seen := map[string]bool{}
	var walk func(TypeKey)
	walk = func(t TypeKey) {
		if t.variable {
			if !seen[t.base] {
				seen[t.base] = true
				names = append(names, t.base)
			}
			return
		}
		for _, a := range t.args {
			walk(a)
		}
	}
	walk(k)
	return names
}

// Equal reports structural equality.
func (k TypeKey) Equal(o TypeKey) bool {
	if k.base != o.base || k.variable != o.variable || len(k.args) != len(o.args) {
		return false
	}
	for i := range k.args {
		if !k.args[i].Equal(o.args[i]) {
			return false
		}
	}
	return true
}

// String returns the canonical text form: Base[Arg1,Arg2], 'R for a
// variable, []Elem and ?Elem for the built-ins. ParseKey reverses it.
func (k TypeKey) String() string {
	var b strings.Builder
	k.write(&b)
	return b.String()
}

func (k TypeKey) write(b *strings.Builder) {
	if k.variable {
		b.WriteByte('\'')
		b.WriteString(k.base)
		return
	}
	if (k.base == SliceBase || k.base == OptionalBase) && len(k.args) == 1 {
		b.WriteString(k.base)
		k.args[0].write(b)
		return
	}
	b.WriteString(k.base)
	if len(k.args) == 0 {
		return
	}
	b.WriteByte('[')
	for i, a := range k.args {
		if i > 0 {
			b.WriteByte(',')
		}
		a.write(b)
	}
	b.WriteByte(']')
}

// Hash returns a deterministic 64-bit hash of the key's identity. Equal
// keys hash alike.
func (k TypeKey) Hash() uint64 {
	return xxhash.Sum64String(k.id())
}

// id is an encoding of k that is unique per structurally distinct key,
// unlike String, whose separators may also appear inside a base. Each node
// is written as [']len:base<arity>; followed by its arguments.
func (k TypeKey) id() string {
	var b strings.Builder
	k.writeID(&b)
	return b.String()
}

func (k TypeKey) writeID(b *strings.Builder) {
	if k.variable {
		b.WriteByte('\'')
	}
	b.WriteString(strconv.Itoa(len(k.base)))
	b.WriteByte(':')
	b.WriteString(k.base)
	b.WriteString(strconv.Itoa(len(k.args)))
	b.WriteByte(';')
	for _, a := range k.args {
		a.writeID(b)
	}
}

// mustBeConcrete panics with an InvariantError when k references a variable.
// It returns the key's identity.
func (k TypeKey) mustBeConcrete(where string) string {
	if !k.IsConcrete() {
		panic(&InvariantError{Key: k, Message: "non-concrete key reached the " + where})
	}
	return k.id()
}
