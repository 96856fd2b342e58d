// Package inspect exposes a container over HTTP for debugging and health checks.
//
//	r := gin.New()
//	inspect.Register(r.Group("/debug/di"), container)
//
// Routes:
//
//	GET /bindings                 registered bindings in registration order
//	GET /instances                cached singletons in construction order
//	GET /plan?key=Service[PgRepo] dependency plan of one key, with levels
//	GET /health                   health of managed instances
//	GET /version                  build information
//
// Errors are rendered with the errors package envelope and HTTP status.
package inspect
