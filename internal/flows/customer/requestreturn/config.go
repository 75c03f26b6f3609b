package requestreturn

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled      bool          `mapstructure:"enabled"`
	Timeout      time.Duration `mapstructure:"timeout"`
	UpstreamPath string        `mapstructure:"upstream_path"`
	// ReturnsPath prefixes the order id in the success redirect.
	ReturnsPath string `mapstructure:"returns_path"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		Timeout:      30 * time.Second,
		UpstreamPath: "/api/refunds",
		ReturnsPath:  "/customer/returns",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UpstreamPath == "" {
		return fmt.Errorf("upstream_path is required")
	}
	if c.ReturnsPath == "" {
		return fmt.Errorf("returns_path is required")
	}
	return nil
}
