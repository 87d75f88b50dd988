package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validYAML = `
server:
  port: 8080
mongo:
  uri: mongodb+srv://cluster.example.net
  db_name: collectionsync
  max_pool_size: 20
  min_pool_size: 5
redis:
  addr: localhost:6379
provider:
  base_url: https://api.provider.example
  webhook_secret: topsecret
batch:
  worker_count: 4
  max_discount_percent: 50
`

func TestLoadFromConfigFilePath(t *testing.T) {
	path := writeTempConfig(t, validYAML)

	cfg, err := LoadFromConfigFilePath(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "collectionsync", cfg.Mongo.DBName)
	assert.Equal(t, "topsecret", cfg.Provider.WebhookSecret)

	// defaults applied
	assert.Equal(t, 5, cfg.Provider.MaxRequestsPerSecond)
	assert.Equal(t, 3, cfg.Provider.MaxRetries)
	assert.Equal(t, 1000, cfg.Provider.BaseDelayMs)
	assert.Equal(t, 30000, cfg.Provider.MaxDelayMs)
	assert.Equal(t, 30*time.Second, cfg.Provider.RequestTimeout)
	assert.Equal(t, 72*time.Hour, cfg.Redis.DedupTTL)
	assert.Equal(t, "info", cfg.Logging.LogLevel)
	assert.Equal(t, "collection-sync", cfg.Otel.ServiceName)
}

func TestLoadFromConfigFilePathMissingFile(t *testing.T) {
	_, err := LoadFromConfigFilePath("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestValidateConfigRejectsMissingWebhookSecret(t *testing.T) {
	path := writeTempConfig(t, `
provider:
  base_url: https://api.provider.example
`)
	_, err := LoadFromConfigFilePath(path)
	assert.ErrorContains(t, err, "webhook_secret")
}

func TestValidateConfigRejectsBadRateLimit(t *testing.T) {
	cfg := assignDefaultConfigValues(&AppConfig{})
	cfg.Provider.WebhookSecret = "s"
	cfg.Provider.MaxRequestsPerSecond = 0
	assert.ErrorContains(t, validateConfig(cfg), "max_requests_per_second")
}

func TestValidateConfigRejectsBadDiscountPercent(t *testing.T) {
	cfg := assignDefaultConfigValues(&AppConfig{})
	cfg.Provider.WebhookSecret = "s"
	cfg.Batch.MaxDiscountPercent = 120
	assert.ErrorContains(t, validateConfig(cfg), "max_discount_percent")
}

func TestGetEnvOrDefaultAsInt(t *testing.T) {
	t.Setenv("SOME_INT", "42")
	assert.Equal(t, 42, GetEnvOrDefaultAsInt("SOME_INT", 7))
	assert.Equal(t, 7, GetEnvOrDefaultAsInt("SOME_MISSING_INT", 7))

	t.Setenv("SOME_BAD_INT", "nope")
	assert.Equal(t, 7, GetEnvOrDefaultAsInt("SOME_BAD_INT", 7))
}

func TestGetEnvOrDefaultAsString(t *testing.T) {
	t.Setenv("SOME_STR", "value")
	assert.Equal(t, "value", GetEnvOrDefaultAsString("SOME_STR", "fallback"))
	assert.Equal(t, "fallback", GetEnvOrDefaultAsString("SOME_MISSING_STR", "fallback"))

	t.Setenv("SOME_BLANK_STR", "   ")
	assert.Equal(t, "fallback", GetEnvOrDefaultAsString("SOME_BLANK_STR", "fallback"))
}
