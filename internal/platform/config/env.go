// Package config loads service configuration from the process environment.
// Settings carry `env:` tags with the RITUAL_WAR_ prefix; commands overlay
// flags on the parsed values, so the environment supplies defaults and the
// command line wins.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv populates target's env-tagged fields. Target must be a pointer to
// a config struct; tag and value problems surface as one wrapped error.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}
