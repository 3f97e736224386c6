package config

import (
	"fmt"
)

// JWTConfig holds configuration for API token generation and validation.
// An empty Secret disables authentication.
type JWTConfig struct {
	Secret          string `mapstructure:"secret"`
	ExpirationHours int    `mapstructure:"expiration_hours"`
}

// Enabled reports whether API tokens are required.
func (c JWTConfig) Enabled() bool {
	return c.Secret != ""
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.ExpirationHours == 0 {
		c.ExpirationHours = 24
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("jwt expiration_hours must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	if c.Enabled() && len(c.Secret) < 16 {
		return fmt.Errorf("jwt secret must be at least 16 characters")
	}
	return nil
}
