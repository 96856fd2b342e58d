package di

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/kbukum/managed/errors"
)

// ErrConstructPanic marks a construct function that panicked.
var ErrConstructPanic = stderrors.New("construct panicked")

// Lifecycle errors.
var (
	ErrRegistrationClosed = &stateError{code: errors.ErrCodeRegistrationClosed, msg: "registration is closed: the container has been built or used"}
	ErrContainerClosed    = &stateError{code: errors.ErrCodeContainerClosed, msg: "container is closed"}
)

type stateError struct {
	code errors.ErrorCode
	msg  string
}

func (e *stateError) Error() string          { return "di: " + e.msg }
func (e *stateError) Code() errors.ErrorCode { return e.code }
func (e *stateError) AppError() *errors.AppError {
	return errors.New(e.code, e.msg, errors.StatusFor(e.code))
}

// FormatChain renders a resolution chain as "A -> B -> C".
func FormatChain(chain []TypeKey) string {
	return strings.Join(keyStrings(chain), " -> ")
}

func appError(code errors.ErrorCode, msg string, key TypeKey, chain []TypeKey) *errors.AppError {
	ae := errors.New(code, msg, errors.StatusFor(code)).WithDetail("key", key.String())
	if len(chain) > 0 {
		ae.WithDetail("chain", keyStrings(chain))
	}
	return ae
}

// chained is implemented by errors that carry the resolution chain in which
// they occurred. The resolver fills it in.
type chained interface {
	setChain(chain []TypeKey)
}

// UnresolvedDependencyError reports a key whose base has no binding.
// Chain holds the keys that requested it, root first.
type UnresolvedDependencyError struct {
	Key   TypeKey
	Chain []TypeKey
}

func (e *UnresolvedDependencyError) Error() string {
	if len(e.Chain) == 0 {
		return fmt.Sprintf("di: no binding for %s", e.Key)
	}
	return fmt.Sprintf("di: no binding for %s (required by %s)", e.Key, FormatChain(e.Chain))
}

func (e *UnresolvedDependencyError) Code() errors.ErrorCode {
	return errors.ErrCodeUnresolvedDependency
}

func (e *UnresolvedDependencyError) AppError() *errors.AppError {
	return appError(e.Code(), fmt.Sprintf("No binding for %s.", e.Key), e.Key, e.Chain)
}

// CyclicDependencyError reports a key that reappeared in its own resolution
// chain. Chain runs from the root to the repeated key, inclusive.
type CyclicDependencyError struct {
	Key   TypeKey
	Chain []TypeKey
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("di: dependency cycle: %s", FormatChain(e.Chain))
}

func (e *CyclicDependencyError) Code() errors.ErrorCode {
	return errors.ErrCodeCyclicDependency
}

func (e *CyclicDependencyError) AppError() *errors.AppError {
	return appError(e.Code(), fmt.Sprintf("Dependency cycle through %s.", e.Key), e.Key, e.Chain)
}

// DuplicateBindingError reports a second registration for the same base.
type DuplicateBindingError struct {
	Base string
}

func (e *DuplicateBindingError) Error() string {
	return fmt.Sprintf("di: %s is already bound", e.Base)
}

func (e *DuplicateBindingError) Code() errors.ErrorCode {
	return errors.ErrCodeDuplicateBinding
}

func (e *DuplicateBindingError) AppError() *errors.AppError {
	return errors.New(e.Code(), fmt.Sprintf("%s is already bound.", e.Base), errors.StatusFor(e.Code())).
		WithDetail("base", e.Base)
}

// ConstraintViolationError reports a type argument that does not satisfy the
// constraint of the variable it is bound to.
type ConstraintViolationError struct {
	Key        TypeKey
	Variable   string
	Argument   TypeKey
	Constraint TypeKey
	Chain      []TypeKey
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("di: %s: %s does not satisfy %s (bound to %s)", e.Key, e.Argument, e.Constraint, e.Variable)
}

func (e *ConstraintViolationError) Code() errors.ErrorCode {
	return errors.ErrCodeConstraintViolation
}

func (e *ConstraintViolationError) AppError() *errors.AppError {
	return appError(e.Code(), fmt.Sprintf("%s does not satisfy %s.", e.Argument, e.Constraint), e.Key, e.Chain).
		WithDetails(map[string]any{
			"variable":   e.Variable,
			"argument":   e.Argument.String(),
			"constraint": e.Constraint.String(),
		})
}

func (e *ConstraintViolationError) setChain(chain []TypeKey) { e.Chain = chain }

// UnboundTypeVariableError reports a variable with no bound argument: a
// reference to an undeclared variable, a declared variable left without an
// argument, or more arguments than declared variables (Variable is empty).
type UnboundTypeVariableError struct {
	Key      TypeKey
	Variable string
	Declared int
	Supplied int
	Chain    []TypeKey
}

func (e *UnboundTypeVariableError) Error() string {
	if e.Variable == "" {
		return fmt.Sprintf("di: %s: %d type arguments supplied, %d declared", e.Key, e.Supplied, e.Declared)
	}
	return fmt.Sprintf("di: %s: type variable %s is unbound (%d declared, %d supplied)", e.Key, e.Variable, e.Declared, e.Supplied)
}

func (e *UnboundTypeVariableError) Code() errors.ErrorCode {
	return errors.ErrCodeUnboundTypeVariable
}

func (e *UnboundTypeVariableError) AppError() *errors.AppError {
	return appError(e.Code(), fmt.Sprintf("Unbound type variable in %s.", e.Key), e.Key, e.Chain).
		WithDetails(map[string]any{
			"variable": e.Variable,
			"declared": e.Declared,
			"supplied": e.Supplied,
		})
}

func (e *UnboundTypeVariableError) setChain(chain []TypeKey) { e.Chain = chain }

// ConstructionError wraps a failed construct call, a recovered construct
// panic (wrapping ErrConstructPanic) or a failed Initialize.
type ConstructionError struct {
	Key   TypeKey
	Chain []TypeKey
	Cause error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("di: constructing %s: %v", e.Key, e.Cause)
}

func (e *ConstructionError) Unwrap() error { return e.Cause }

func (e *ConstructionError) Code() errors.ErrorCode {
	return errors.ErrCodeConstructionFailed
}

func (e *ConstructionError) AppError() *errors.AppError {
	return appError(e.Code(), fmt.Sprintf("Constructing %s failed.", e.Key), e.Key, e.Chain).WithCause(e.Cause)
}

// InvariantError is a programming error inside the container, such as a
// non-concrete key reaching the cache. It is raised with panic, never
// returned.
type InvariantError struct {
	Key     TypeKey
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("di: invariant violated: %s (key %s)", e.Message, e.Key)
}

func (e *InvariantError) Code() errors.ErrorCode {
	return errors.ErrCodeInvariantViolation
}

func (e *InvariantError) AppError() *errors.AppError {
	return appError(e.Code(), e.Message, e.Key, nil)
}
