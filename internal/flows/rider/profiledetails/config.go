package profiledetails

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled      bool          `mapstructure:"enabled"`
	Timeout      time.Duration `mapstructure:"timeout"`
	UpstreamPath string        `mapstructure:"upstream_path"`
	// NotifyTimeout bounds the moderator and applicant notifications.
	NotifyTimeout time.Duration `mapstructure:"notify_timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		Timeout:       30 * time.Second,
		UpstreamPath:  "/api/riders/register/profile",
		NotifyTimeout: 10 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UpstreamPath == "" {
		return fmt.Errorf("upstream_path is required")
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("notify_timeout must be positive")
	}
	return nil
}
