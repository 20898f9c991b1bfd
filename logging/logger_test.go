package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "churnguard.log")
	cfg := DefaultConfig()
	cfg.File = path

	logger, err := New(cfg)
	require.NoError(t, err)
	logger.Info("artifacts loaded", zap.String("version", "abc"))
	logger.Debug("not at info level")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"artifacts loaded"`)
	assert.Contains(t, string(data), `"version":"abc"`)
	assert.NotContains(t, string(data), "not at info level")
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown level", Config{Level: "loud"}},
		{"unknown format", Config{Level: "info", Format: "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestConsoleFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = "console"
	cfg.Level = "debug"
	logger, err := New(cfg)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}
