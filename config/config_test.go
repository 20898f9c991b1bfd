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

func TestDefaults(t *testing.T) {
	cfg, err := Load("", false)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.True(t, cfg.Artifacts.StrictSchema)
	assert.False(t, cfg.Artifacts.Watch)
	assert.Equal(t, CacheLRU, cfg.Cache.Backend)
	assert.Equal(t, "churn_model.json", cfg.ArtifactPaths().Model)
}

func TestLoadOverridesOnlyGivenKeys(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9090
  timeout: 5s
artifacts:
  dir: /srv/models
  model_type: decision_tree
  watch: true
cache:
  backend: redis
  redis_addr: cache:6379
audit:
  enabled: true
`)
	cfg, err := Load(path, false)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, int64(1<<20), cfg.HTTP.MaxBodyBytes)
	assert.Equal(t, "/srv/models", cfg.ArtifactPaths().Dir)
	assert.Equal(t, "decision_tree", cfg.ArtifactPaths().ModelType)
	assert.True(t, cfg.Artifacts.Watch)
	assert.True(t, cfg.Artifacts.StrictSchema)
	assert.Equal(t, "cache:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, "churnguard.db", cfg.Audit.Path)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHURN_HTTP_PORT", "7000")
	t.Setenv("CHURN_STRICT_SCHEMA", "false")
	t.Setenv("CHURN_CACHE_BACKEND", "none")
	t.Setenv("CHURN_CACHE_SIZE", "not-a-number")

	cfg, err := Load("", false)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.HTTP.Port)
	assert.False(t, cfg.Artifacts.StrictSchema)
	assert.Equal(t, CacheNone, cfg.Cache.Backend)
	assert.Equal(t, 1024, cfg.Cache.Size)
}

func TestMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	_, err := Load(missing, false)
	assert.Error(t, err)

	cfg, err := Load(missing, true)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTP.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.HTTP.Port = 70000 }},
		{"body limit", func(c *Config) { c.HTTP.MaxBodyBytes = 0 }},
		{"model type", func(c *Config) { c.Artifacts.ModelType = "svm" }},
		{"cache backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"lru size", func(c *Config) { c.Cache.Size = 0 }},
		{"redis addr", func(c *Config) { c.Cache.Backend = CacheRedis; c.Cache.RedisAddr = "" }},
		{"audit path", func(c *Config) { c.Audit.Enabled = true; c.Audit.Path = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "http: [not a map")
	_, err := Load(path, false)
	assert.Error(t, err)
}
