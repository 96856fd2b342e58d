package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Resolution errors
const (
	// ErrCodeUnresolvedDependency indicates no binding exists for a required base type.
	ErrCodeUnresolvedDependency ErrorCode = "UNRESOLVED_DEPENDENCY"
	// ErrCodeCyclicDependency indicates a type reappeared in its own resolution chain.
	ErrCodeCyclicDependency ErrorCode = "CYCLIC_DEPENDENCY"
	// ErrCodeConstructionFailed indicates a construct function returned an error or panicked.
	ErrCodeConstructionFailed ErrorCode = "CONSTRUCTION_FAILED"
)

// Generic specialization errors
const (
	// ErrCodeConstraintViolation indicates a type argument does not satisfy its variable's constraint.
	ErrCodeConstraintViolation ErrorCode = "CONSTRAINT_VIOLATION"
	// ErrCodeUnboundTypeVariable indicates a type variable without a bound argument.
	ErrCodeUnboundTypeVariable ErrorCode = "UNBOUND_TYPE_VARIABLE"
)

// Registration errors
const (
	// ErrCodeDuplicateBinding indicates two descriptors claim the same base type.
	ErrCodeDuplicateBinding ErrorCode = "DUPLICATE_BINDING"
	// ErrCodeInvalidDescriptor indicates a malformed class descriptor.
	ErrCodeInvalidDescriptor ErrorCode = "INVALID_DESCRIPTOR"
	// ErrCodeRegistrationClosed indicates registration after the build phase.
	ErrCodeRegistrationClosed ErrorCode = "REGISTRATION_CLOSED"
	// ErrCodeContainerClosed indicates use of a container after teardown.
	ErrCodeContainerClosed ErrorCode = "CONTAINER_CLOSED"
)

// Input errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Internal errors
const (
	// ErrCodeInvariantViolation indicates an internal invariant failure (a programming error).
	ErrCodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Resolution is deterministic given fixed bindings, so nothing here is worth retrying.
var retryableCodes = map[ErrorCode]bool{}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
