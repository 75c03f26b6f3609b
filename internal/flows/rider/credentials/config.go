package credentials

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled           bool          `mapstructure:"enabled"`
	Timeout           time.Duration `mapstructure:"timeout"`
	UpstreamPath      string        `mapstructure:"upstream_path"`
	MinPasswordLength int           `mapstructure:"min_password_length"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:           true,
		Timeout:           15 * time.Second,
		UpstreamPath:      "/api/riders/register/credentials",
		MinPasswordLength: 8,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UpstreamPath == "" {
		return fmt.Errorf("upstream_path is required")
	}
	if c.MinPasswordLength < 8 {
		return fmt.Errorf("min_password_length must be at least 8")
	}
	return nil
}
