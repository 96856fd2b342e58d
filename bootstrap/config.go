package bootstrap

import (
	"github.com/kbukum/managed/config"
)

// Config is the interface constraint for application configuration types.
// Any struct that embeds config.Config (value embedding) automatically
// satisfies this interface via promoted methods.
//
// Example:
//
//	type MyConfig struct {
//	    config.Config `yaml:",inline" mapstructure:",squash"`
//	    Orders OrdersConfig `yaml:"orders" mapstructure:"orders"`
//	}
//
//	app, err := bootstrap.NewApp[*MyConfig](&cfg)
type Config interface {
	GetConfig() *config.Config
	ApplyDefaults()
	Validate() error
}
