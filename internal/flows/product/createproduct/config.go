package createproduct

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
	MaxMediaFiles   int           `mapstructure:"max_media_files"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Timeout:         60 * time.Second,
		UpstreamPath:    "/api/products",
		SuccessRedirect: "/seller/seller-product-list",
		MaxMediaFiles:   10,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if !strings.HasPrefix(c.UpstreamPath, "/") {
		return fmt.Errorf("upstream_path must start with /")
	}
	if c.MaxMediaFiles <= 0 {
		return fmt.Errorf("max_media_files must be positive")
	}
	return nil
}
