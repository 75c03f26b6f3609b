package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
upstream:
  base_url: http://api.local
database:
  redis:
    address: localhost:6379
forms:
  flows:
    create-product:
      enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "marketplace-gateway", cfg.App.Name)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 15000, cfg.Upstream.Timeout)
	assert.Equal(t, "marketplace_session", cfg.Session.CookieName)
	assert.Equal(t, "local", cfg.Forms.Gate)
	assert.Equal(t, 300, cfg.Forms.ResetDelay)
	assert.Equal(t, "/login", cfg.Routes.SafeDefault)
	assert.Equal(t, 15000, cfg.Forms.Flows["create-product"].Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_WriteTimeoutOutlastsFlows(t *testing.T) {
	path := writeConfig(t, `
http:
  write_timeout: 60000
upstream:
  base_url: http://api.local
database:
  redis:
    address: localhost:6379
forms:
  flows:
    create-product:
      enabled: true
      timeout: 120000
    create-shop:
      enabled: true
      timeout: 30000
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 120000+writeTimeoutMargin, cfg.HTTP.WriteTimeout)

	path = writeConfig(t, `
http:
  write_timeout: 300000
upstream:
  base_url: http://api.local
database:
  redis:
    address: localhost:6379
`)
	cfg, err = LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 300000, cfg.HTTP.WriteTimeout)
}

func TestLoadFromFile_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_GATEWAY_API", "http://expanded.local")
	path := writeConfig(t, `
upstream:
  base_url: ${TEST_GATEWAY_API}
database:
  redis:
    address: localhost:6379
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://expanded.local", cfg.Upstream.BaseURL)
}

func TestLoadFromFile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		errMsg string
	}{
		{
			name: "missing upstream",
			body: `
database:
  redis:
    address: localhost:6379
`,
			errMsg: "upstream.base_url is required",
		},
		{
			name: "redis gate without redis",
			body: `
upstream:
  base_url: http://api.local
forms:
  gate: redis
`,
			errMsg: "database.redis.address is required when forms.gate is redis",
		},
		{
			name: "postgres enabled without host",
			body: `
upstream:
  base_url: http://api.local
database:
  redis:
    address: localhost:6379
  postgres:
    enabled: true
`,
			errMsg: "database.postgres.host is required",
		},
		{
			name: "unknown gate",
			body: `
upstream:
  base_url: http://api.local
database:
  redis:
    address: localhost:6379
forms:
  gate: etcd
`,
			errMsg: "forms.gate must be local or redis",
		},
		{
			name: "sns without topic",
			body: `
upstream:
  base_url: http://api.local
database:
  redis:
    address: localhost:6379
notifications:
  sns:
    enabled: true
`,
			errMsg: "moderator_topic_arn is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MARKETPLACE_API_URL", "")
			t.Setenv("REDIS_ADDRESS", "")
			t.Setenv("MODERATOR_TOPIC_ARN", "")
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestGetFlowConfig(t *testing.T) {
	cfg := &Config{
		Upstream: UpstreamConfig{Timeout: 5000},
		Forms: FormsConfig{Flows: map[string]FlowConfig{
			"create-shop": {Enabled: false, Timeout: 1000},
		}},
	}

	assert.Equal(t, FlowConfig{Enabled: false, Timeout: 1000}, GetFlowConfig(cfg, "create-shop"))
	assert.Equal(t, FlowConfig{Enabled: true, Timeout: 5000}, GetFlowConfig(cfg, "login"))
	assert.False(t, IsFlowEnabled(cfg, "create-shop"))
	assert.True(t, IsFlowEnabled(cfg, "login"))
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
