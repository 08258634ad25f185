package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds environment overrides.
type Env struct {
	// ConfigPath locates the global config file.
	ConfigPath string `env:"INNERMOST_CONFIG" envDefault:"innermost.toml"`
	LogLevel   string `env:"INNERMOST_LOG_LEVEL" envDefault:"info"`
	// Locale overrides the global file's locale when set.
	Locale string `env:"INNERMOST_LOCALE"`
}

// ParseEnv loads overrides from the process environment.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}
