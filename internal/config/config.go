// Package config loads the extension builder settings from the environment
// and command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Environment variable prefix for settings without a historical name.
const envPrefix = "GEM2DEB"

// GemspecEnv is the variable debhelper uses to point at the gemspec to use.
const GemspecEnv = "DH_RUBY_GEMSPEC"

// Config holds the resolved settings.
type Config struct {
	// Gemspec overrides descriptor discovery (DH_RUBY_GEMSPEC).
	Gemspec string `mapstructure:"gemspec"`

	// Ruby is the interpreter for extconf.rb, rake and gemspec evaluation.
	Ruby string `mapstructure:"ruby"`

	// Make is the make program (MAKE).
	Make string `mapstructure:"make"`

	// VendorArchDir overrides RbConfig::CONFIG["vendorarchdir"].
	VendorArchDir string `mapstructure:"vendor_arch_dir"`

	Verbose    bool `mapstructure:"verbose"`
	CheckTools bool `mapstructure:"check_tools"`
}

// Loader resolves Config from environment variables and bound flags.
// Flags that were set explicitly win over the environment.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with defaults and environment bindings.
func NewLoader() *Loader {
	v := viper.New()

	v.SetDefault("gemspec", "")
	v.SetDefault("ruby", "ruby")
	v.SetDefault("make", "")
	v.SetDefault("vendor_arch_dir", "")
	v.SetDefault("verbose", false)
	v.SetDefault("check_tools", true)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Variables with names fixed by the Debian tooling
	_ = v.BindEnv("gemspec", GemspecEnv)
	_ = v.BindEnv("make", "MAKE")

	return &Loader{v: v}
}

// BindFlag lets a command-line flag override key.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("binding %s: no such flag", key)
	}
	if err := l.v.BindPFlag(key, flag); err != nil {
		return fmt.Errorf("binding %s: %w", key, err)
	}
	return nil
}

// Load returns the resolved configuration.
func (l *Loader) Load() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}
