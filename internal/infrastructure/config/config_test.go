package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data", cfg.Catalog.Dir)
	assert.Equal(t, 0.1, cfg.Matching.OptionalGapPenalty)
	assert.Equal(t, 0.7, cfg.Matching.MatchWeight)
	assert.Equal(t, 0.3, cfg.Matching.PrefWeight)
	assert.Equal(t, 1e-6, cfg.Matching.TieEpsilon)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 50, cfg.Database.HistoryLimit)
	assert.False(t, cfg.Detection.Enabled)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("APP_MATCHING_SOFT_EXCLUSIONS", "true")
	t.Setenv("APP_MATCHING_OPTIONAL_GAP_PENALTY", "0.25")
	t.Setenv("CATALOG_DIR", "/srv/catalog")
	t.Setenv("APP_RATE_LIMIT_WINDOW", "30s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Matching.SoftExclusions)
	assert.Equal(t, 0.25, cfg.Matching.OptionalGapPenalty)
	assert.Equal(t, "/srv/catalog", cfg.Catalog.Dir)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "gap penalty out of range", env: map[string]string{"APP_MATCHING_OPTIONAL_GAP_PENALTY": "1.5"}},
		{name: "unknown cache backend", env: map[string]string{"CACHE_BACKEND": "memcached"}},
		{name: "detection without key", env: map[string]string{"DETECTION_ENABLED": "true", "OPENROUTER_API_KEY": ""}},
		{name: "zero workers", env: map[string]string{"APP_QUEUE_WORKERS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", MaskAPIKey("short"))
	assert.Equal(t, "sk-o...wxyz", MaskAPIKey("sk-or-abcdefwxyz"))
}
