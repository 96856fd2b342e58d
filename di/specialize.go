package di

// Specialization is a descriptor bound to one concrete key.
type Specialization struct {
	Key TypeKey
	// Bindings maps each declared variable to its argument.
	Bindings map[string]TypeKey
	// Dependencies are the descriptor's dependencies with every variable
	// substituted, in declaration order.
	Dependencies []TypeKey
}

// Specializer binds a descriptor's type variables to the arguments of a
// requested key and checks their constraints.
type Specializer struct {
	satisfier Satisfier
}

// NewSpecializer creates a specializer that checks constraints with s.
func NewSpecializer(s Satisfier) *Specializer {
	return &Specializer{satisfier: s}
}

// Specialize matches key's arguments positionally to desc's variables,
// checks each constraint (itself substituted first), then substitutes every
// dependency. Nothing is constructed, so a violation is reported before any
// construction happens.
func (s *Specializer) Specialize(desc ClassDescriptor, key TypeKey) (Specialization, error) {
	declared, supplied := len(desc.TypeParams), len(key.args)
	if supplied > declared {
		return Specialization{}, &UnboundTypeVariableError{Key: key, Declared: declared, Supplied: supplied}
	}
	if supplied < declared {
		return Specialization{}, &UnboundTypeVariableError{
			Key: key, Variable: desc.TypeParams[supplied].Name, Declared: declared, Supplied: supplied,
		}
	}

	subst, _ := bindArgs(desc, key)

	for i, tv := range desc.TypeParams {
		if tv.Constraint == nil {
			continue
		}
		constraint, missing := substitute(*tv.Constraint, subst)
		if missing != "" {
			return Specialization{}, &UnboundTypeVariableError{
				Key: key, Variable: missing, Declared: declared, Supplied: supplied,
			}
		}
		if !s.satisfier.Satisfies(key.args[i], constraint) {
			return Specialization{}, &ConstraintViolationError{
				Key: key, Variable: tv.Name, Argument: key.args[i], Constraint: constraint,
			}
		}
	}

	deps := make([]TypeKey, len(desc.Dependencies))
	for i, dep := range desc.Dependencies {
		k, missing := substitute(dep, subst)
		if missing != "" {
			return Specialization{}, &UnboundTypeVariableError{
				Key: key, Variable: missing, Declared: declared, Supplied: supplied,
			}
		}
		deps[i] = k
	}

	return Specialization{Key: key, Bindings: subst, Dependencies: deps}, nil
}

// substitute replaces variables in k using subst, recursing into arguments.
// It returns the name of the first variable subst does not bind.
func substitute(k TypeKey, subst map[string]TypeKey) (TypeKey, string) {
	if k.variable {
		v, ok := subst[k.base]
		if !ok {
			return TypeKey{}, k.base
		}
		return v, ""
	}
	if len(k.args) == 0 {
		return k, ""
	}
	args := make([]TypeKey, len(k.args))
	for i, a := range k.args {
		sa, missing := substitute(a, subst)
		if missing != "" {
			return TypeKey{}, missing
		}
		args[i] = sa
	}
	return TypeKey{base: k.base, args: args}, ""
}
