// Package errors provides unified error handling for the container and its
// surfaces. It implements a structured error type with machine-readable codes,
// HTTP status mapping for the inspection handlers, and an RFC 7807 style
// response envelope.
package errors
