// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// Enable ENV override like UPSTREAM_BASE_URL
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	// base config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// environment overlay, optional
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = env
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env", // tests in test/e2e
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.Upstream.BaseURL == "" {
		if val := os.Getenv("MARKETPLACE_API_URL"); val != "" {
			cfg.Upstream.BaseURL = val
		}
	}
	if cfg.Database.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Database.Redis.Address = val
		}
	}
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Notifications.SNS.ModeratorTopicARN == "" {
		if val := os.Getenv("MODERATOR_TOPIC_ARN"); val != "" {
			cfg.Notifications.SNS.ModeratorTopicARN = val
		}
	}
}

// writeTimeoutMargin leaves room for reading the upload and writing the
// response around the upstream call (milliseconds).
const writeTimeoutMargin = 15000

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "marketplace-gateway"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 30000
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60000
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 120000
	}
	if cfg.HTTP.MaxUploadBytes == 0 {
		// product media may carry several 50 MB videos
		cfg.HTTP.MaxUploadBytes = 256 << 20
	}

	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = 15000
	}

	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "marketplace_session"
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 7 * 24 * 60 * 60 * 1000
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Forms.DraftTTL == 0 {
		cfg.Forms.DraftTTL = 24 * 60 * 60 * 1000
	}
	if cfg.Forms.ResetDelay == 0 {
		cfg.Forms.ResetDelay = 300
	}
	if cfg.Forms.InstanceIdle == 0 {
		cfg.Forms.InstanceIdle = 30 * 60 * 1000
	}
	if cfg.Forms.Gate == "" {
		cfg.Forms.Gate = "local"
	}
	for key, flow := range cfg.Forms.Flows {
		if flow.Timeout == 0 {
			flow.Timeout = cfg.Upstream.Timeout
		}
		cfg.Forms.Flows[key] = flow
	}

	// a submit answers only after its upstream call, so the write deadline
	// has to outlast the slowest flow
	longest := cfg.Upstream.Timeout
	for _, flow := range cfg.Forms.Flows {
		if flow.Timeout > longest {
			longest = flow.Timeout
		}
	}
	if floor := longest + writeTimeoutMargin; cfg.HTTP.WriteTimeout < floor {
		cfg.HTTP.WriteTimeout = floor
	}

	if cfg.Routes.SafeDefault == "" {
		cfg.Routes.SafeDefault = "/login"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}

	if cfg.Forms.Gate == "redis" && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when forms.gate is redis")
	}

	if cfg.Database.Postgres.Enabled {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	}

	if cfg.Forms.Gate != "local" && cfg.Forms.Gate != "redis" {
		return fmt.Errorf("forms.gate must be local or redis")
	}

	if cfg.Notifications.SNS.Enabled && cfg.Notifications.SNS.ModeratorTopicARN == "" {
		return fmt.Errorf("notifications.sns.moderator_topic_arn is required when sns is enabled")
	}
	if cfg.Notifications.SES.Enabled && cfg.Notifications.SES.FromEmail == "" {
		return fmt.Errorf("notifications.ses.from_email is required when ses is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetFlowConfig retrieves flow-specific configuration with fallback to defaults
func GetFlowConfig(cfg *Config, flowName string) FlowConfig {
	if flow, exists := cfg.Forms.Flows[flowName]; exists {
		return flow
	}

	return FlowConfig{
		Enabled: true,
		Timeout: cfg.Upstream.Timeout,
	}
}

// IsFlowEnabled checks if a specific form flow is enabled
func IsFlowEnabled(cfg *Config, flowName string) bool {
	if flow, exists := cfg.Forms.Flows[flowName]; exists {
		return flow.Enabled
	}
	return true
}
