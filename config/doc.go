// Package config loads the configuration of a process that owns a container.
//
// Load reads managed.yml (or config.yml) and an optional .env file through
// Viper, overlays environment variables and unmarshals into any struct that
// embeds Config:
//
//	var cfg config.Config
//	if err := config.Load("orders", &cfg); err != nil { ... }
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil { ... }
//
// Environment variables map onto nested keys by splitting on underscores,
// so CONTAINER_DEFAULT_SCOPE sets container.default_scope.
package config
