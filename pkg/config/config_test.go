package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shieldgate/shieldgate/pkg/types"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Security.LazyLoading)
	assert.Equal(t, int64(5000), cfg.Security.ScanTimeoutMs)
	assert.Equal(t, "memory", cfg.Security.CacheBackend)
	assert.Equal(t, 300, cfg.Security.CacheTTLSeconds)
	assert.InDelta(t, 0.6, cfg.Security.SeverityWeights["high"], 0.0001)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	configYAML := `
server:
  port: 9999
security:
  lazy_loading: false
  cache_backend: redis
  scanners:
    toxicity:
      enabled: true
      threshold: 0.9
    bias:
      enabled: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configYAML), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.False(t, cfg.Security.LazyLoading)
	assert.Equal(t, "redis", cfg.Security.CacheBackend)

	toxicity := cfg.Security.Scanner(types.ScannerToxicity)
	assert.True(t, toxicity.Enabled)
	assert.InDelta(t, 0.9, toxicity.Threshold, 0.0001)

	bias := cfg.Security.Scanner(types.ScannerBias)
	assert.False(t, bias.Enabled)
}

func TestSecurityConfig_ScannerFallback(t *testing.T) {
	cfg := DefaultSecurityConfig()

	settings := cfg.Scanner(types.ScannerPromptInjection)
	assert.True(t, settings.Enabled)
	assert.InDelta(t, 0.5, settings.Threshold, 0.0001)
	assert.Equal(t, "jailbreak-classifier-v1", settings.ModelID)

	settings = cfg.Scanner(types.ScannerToxicity)
	assert.InDelta(t, 0.7, settings.Threshold, 0.0001)
}
