package login

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled      bool          `mapstructure:"enabled"`
	Timeout      time.Duration `mapstructure:"timeout"`
	UpstreamPath string        `mapstructure:"upstream_path"`
	// Landing pages per role once any registration wizard is finished.
	Landing map[string]string `mapstructure:"landing"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		Timeout:      15 * time.Second,
		UpstreamPath: "/api/auth/login",
		Landing: map[string]string{
			"customer":  "/",
			"seller":    "/seller/seller-product-list",
			"rider":     "/rider/dashboard",
			"moderator": "/moderator/dashboard",
		},
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
