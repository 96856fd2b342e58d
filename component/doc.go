// Package component defines the lifecycle hooks a container-managed instance
// may implement, and the Registry that drives them.
//
//   - Initializer: called once right after construction
//   - Stopper (or io.Closer): called at container teardown, newest first
//   - HealthChecker: reported by Container.Health and the inspect endpoints
//   - Describable: self-description for the startup summary
package component
