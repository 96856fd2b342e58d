package di

// Satisfier decides whether a concrete type argument satisfies a
// variable's constraint.
type Satisfier interface {
	Satisfies(concrete, constraint TypeKey) bool
}

// SatisfierFunc adapts a function to Satisfier.
type SatisfierFunc func(concrete, constraint TypeKey) bool

// Satisfies calls f.
func (f SatisfierFunc) Satisfies(concrete, constraint TypeKey) bool {
	return f(concrete, constraint)
}

// DeclaredSatisfier answers from the registry: a type satisfies a constraint
// when it equals it, or when its binding declares (directly or through the
// bindings of what it implements) an Implements entry equal to it.
// Implements entries of generic bindings are specialized with the concrete
// type's arguments first, so PgUserService implementing Service[PgRepo]
// satisfies Service[PgRepo] and nothing else of base Service.
type DeclaredSatisfier struct {
	Registry *Registry
}

// Satisfies walks the Implements relation breadth first.
func (s DeclaredSatisfier) Satisfies(concrete, constraint TypeKey) bool {
	if concrete.Equal(constraint) {
		return true
	}
	seen := map[string]bool{concrete.id(): true}
	queue := []TypeKey{concrete}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		b, ok := s.Registry.Lookup(cur.Base())
		if !ok {
			continue
		}
		subst, ok := bindArgs(b.Descriptor, cur)
		if !ok {
			continue
		}
		for _, impl := range b.Descriptor.Implements {
			k, missing := substitute(impl, subst)
			if missing != "" {
				continue
			}
			if k.Equal(constraint) {
				return true
			}
			if id := k.id(); !seen[id] {
				seen[id] = true
				queue = append(queue, k)
			}
		}
	}
	return false
}

// bindArgs maps desc's variables to key's arguments. It reports false on an
// arity mismatch.
func bindArgs(desc ClassDescriptor, key TypeKey) (map[string]TypeKey, bool) {
	if len(key.args) != len(desc.TypeParams) {
		return nil, false
	}
	subst := make(map[string]TypeKey, len(desc.TypeParams))
	for i, tv := range desc.TypeParams {
		subst[tv.Name] = key.args[i]
	}
	return subst, true
}
