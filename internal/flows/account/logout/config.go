package logout

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled         bool          `mapstructure:"enabled"`
	Timeout         time.Duration `mapstructure:"timeout"`
	UpstreamPath    string        `mapstructure:"upstream_path"`
	SuccessRedirect string        `mapstructure:"success_redirect"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Timeout:         10 * time.Second,
		UpstreamPath:    "/api/auth/logout",
		SuccessRedirect: "/login",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UpstreamPath == "" {
		return fmt.Errorf("upstream_path is required")
	}
	return nil
}
