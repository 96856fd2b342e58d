package component

import "context"

// HealthStatus represents the health state of a managed instance.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a managed instance.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Initializer is implemented by instances that need setup after construction.
// The container calls Initialize once, before the instance is cached or
// handed to any dependent.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Stopper is implemented by instances that hold resources until teardown.
type Stopper interface {
	Stop(ctx context.Context) error
}

// HealthChecker is implemented by instances that can report their health.
type HealthChecker interface {
	Health(ctx context.Context) Health
}

// Description holds summary information for the startup display and the
// inspection endpoints.
type Description struct {
	// Name is the human-readable display name (e.g., "PostgreSQL repository").
	Name string `json:"name"`
	// Type categorizes the instance: "repository", "service", "client", etc.
	Type string `json:"type,omitempty"`
	// Details is a one-liner such as "localhost:5432 pool=25/5".
	Details string `json:"details,omitempty"`
}

// Describable is optionally implemented by managed instances to self-report
// what they are.
type Describable interface {
	Describe() Description
}
