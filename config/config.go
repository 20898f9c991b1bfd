// Package config loads churnguard settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	"churnguard/logging"
	"churnguard/ml"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Log       logging.Config  `yaml:"log"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Cache     CacheConfig     `yaml:"cache"`
	Audit     AuditConfig     `yaml:"audit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type ArtifactsConfig struct {
	Dir       string `yaml:"dir"`
	Model     string `yaml:"model"`
	Scaler    string `yaml:"scaler"`
	Columns   string `yaml:"columns"`
	ModelType string `yaml:"model_type"`
	// Watch reloads the bundle when any artifact file changes.
	Watch bool `yaml:"watch"`
	// StrictSchema refuses to start when the column list does not match
	// the form's categories.
	StrictSchema bool `yaml:"strict_schema"`
}

type CacheConfig struct {
	Backend   string        `yaml:"backend"`
	Size      int           `yaml:"size"`
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
}

type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Cache backends.
const (
	CacheNone  = "none"
	CacheLRU   = "lru"
	CacheRedis = "redis"
)

func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:           8080,
			Timeout:        30 * time.Second,
			MaxBodyBytes:   1 << 20,
			AllowedOrigins: []string{"*"},
		},
		Log: logging.DefaultConfig(),
		Artifacts: ArtifactsConfig{
			Dir:          ".",
			Model:        ml.DefaultModelFile,
			Scaler:       ml.DefaultScalerFile,
			Columns:      ml.DefaultColumnsFile,
			StrictSchema: true,
		},
		Cache: CacheConfig{
			Backend:   CacheLRU,
			Size:      1024,
			RedisAddr: "localhost:6379",
			TTL:       time.Hour,
		},
		Audit: AuditConfig{
			Enabled: false,
			Path:    "churnguard.db",
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load reads path over the defaults, then applies CHURN_* environment
// variables. A missing file is an error unless optional is set.
func Load(path string, optional bool) (*Config, error) {
	config := Default()

	if path != "" {
		file, err := os.Open(path)
		switch {
		case err == nil:
			defer file.Close()
			if err := yaml.NewDecoder(file).Decode(config); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case optional && errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
	}

	config.applyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	c.HTTP.Port = getEnvInt("CHURN_HTTP_PORT", c.HTTP.Port)
	c.Log.Level = getEnv("CHURN_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("CHURN_LOG_FORMAT", c.Log.Format)
	c.Log.File = getEnv("CHURN_LOG_FILE", c.Log.File)
	c.Artifacts.Dir = getEnv("CHURN_ARTIFACT_DIR", c.Artifacts.Dir)
	c.Artifacts.ModelType = getEnv("CHURN_MODEL_TYPE", c.Artifacts.ModelType)
	c.Artifacts.Watch = getEnvBool("CHURN_ARTIFACT_WATCH", c.Artifacts.Watch)
	c.Artifacts.StrictSchema = getEnvBool("CHURN_STRICT_SCHEMA", c.Artifacts.StrictSchema)
	c.Cache.Backend = getEnv("CHURN_CACHE_BACKEND", c.Cache.Backend)
	c.Cache.Size = getEnvInt("CHURN_CACHE_SIZE", c.Cache.Size)
	c.Cache.RedisAddr = getEnv("CHURN_REDIS_ADDR", c.Cache.RedisAddr)
	c.Audit.Enabled = getEnvBool("CHURN_AUDIT_ENABLED", c.Audit.Enabled)
	c.Audit.Path = getEnv("CHURN_AUDIT_PATH", c.Audit.Path)
	c.Metrics.Enabled = getEnvBool("CHURN_METRICS_ENABLED", c.Metrics.Enabled)
}

func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return errors.New("http.max_body_bytes must be positive")
	}
	switch c.Artifacts.ModelType {
	case "", ml.TypeLogisticRegression, ml.TypeDecisionTree:
	default:
		return fmt.Errorf("artifacts.model_type %q is not supported", c.Artifacts.ModelType)
	}
	switch c.Cache.Backend {
	case CacheNone:
	case CacheLRU:
		if c.Cache.Size <= 0 {
			return errors.New("cache.size must be positive for the lru backend")
		}
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend %q is not one of none, lru, redis", c.Cache.Backend)
	}
	if c.Audit.Enabled && c.Audit.Path == "" {
		return errors.New("audit.path is required when audit is enabled")
	}
	return nil
}

// ArtifactPaths resolves the artifact files for ml.LoadArtifacts.
func (c *Config) ArtifactPaths() ml.Paths {
	return ml.Paths{
		Dir:       c.Artifacts.Dir,
		Model:     c.Artifacts.Model,
		Scaler:    c.Artifacts.Scaler,
		Columns:   c.Artifacts.Columns,
		ModelType: c.Artifacts.ModelType,
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
