package createshop

import (
	"fmt"
	"strings"
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
		Timeout:         30 * time.Second,
		UpstreamPath:    "/api/shops",
		SuccessRedirect: "/seller/seller-product-list",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if !strings.HasPrefix(c.UpstreamPath, "/") {
		return fmt.Errorf("upstream_path must start with /")
	}
	return nil
}
