// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	HTTP          HTTPConfig          `mapstructure:"http"`
	Upstream      UpstreamConfig      `mapstructure:"upstream"`
	Session       SessionConfig       `mapstructure:"session"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Forms         FormsConfig         `mapstructure:"forms"`
	Routes        RoutesConfig        `mapstructure:"routes"`
	Notifications NotificationConfig  `mapstructure:"notifications"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// IsDevelopment reports whether error details may be exposed to clients.
func (a AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

type HTTPConfig struct {
	Host             string   `mapstructure:"host"`
	Port             int      `mapstructure:"port"`
	ReadTimeout      int      `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout     int      `mapstructure:"write_timeout"` // milliseconds
	IdleTimeout      int      `mapstructure:"idle_timeout"`  // milliseconds
	MaxUploadBytes   int64    `mapstructure:"max_upload_bytes"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// Addr returns the listen address.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// UpstreamConfig points at the marketplace REST API.
type UpstreamConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type SessionConfig struct {
	CookieName string `mapstructure:"cookie_name"`
	TTL        int    `mapstructure:"ttl"` // milliseconds
	Secure     bool   `mapstructure:"secure"`
	Domain     string `mapstructure:"domain"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// FlowConfig holds the settings applicable to every form flow.
type FlowConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Timeout int  `mapstructure:"timeout"` // milliseconds
}

// FormsConfig holds settings shared by the submission machinery.
type FormsConfig struct {
	DraftTTL     int                   `mapstructure:"draft_ttl"`     // milliseconds
	ResetDelay   int                   `mapstructure:"reset_delay"`   // milliseconds
	InstanceIdle int                   `mapstructure:"instance_idle"` // milliseconds
	Gate         string                `mapstructure:"gate"`          // "local" or "redis"
	Flows        map[string]FlowConfig `mapstructure:"flows"`
}

// RoutesConfig locates an optional screen registry override.
type RoutesConfig struct {
	RegistryPath string `mapstructure:"registry_path"`
	SafeDefault  string `mapstructure:"safe_default"`
}

// NotificationConfig holds settings for registration notifications.
type NotificationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	SNS struct {
		Enabled           bool   `mapstructure:"enabled"`
		ModeratorTopicARN string `mapstructure:"moderator_topic_arn"`
	} `mapstructure:"sns"`
	SES struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"ses"`
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
