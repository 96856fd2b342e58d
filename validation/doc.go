// Package validation checks configuration structs and class descriptors.
//
// Struct tag validation runs go-playground/validator with field names taken
// from mapstructure tags, so errors name the same keys a config file uses:
//
//	type ContainerConfig struct {
//	    DefaultScope string `mapstructure:"default_scope" validate:"omitempty,oneof=singleton transient factory"`
//	}
//	err := validation.Validate(cfg)
//
// The fluent Validator collects field errors for values that have no tags,
// such as a descriptor handed over at registration time:
//
//	v := validation.New().Identifier("base", desc.Base).Unique("type_params", names)
//	if v.HasErrors() { ... v.Message() ... }
package validation
