// Package logger provides structured logging using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields. The container logs under
// the "di" component.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("di")
//	log.Info("binding registered", logger.Fields("type_key", "PgRepo"))
package logger
