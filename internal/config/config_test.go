package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateClampsLimits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BrowserPoolSize = 0
	cfg.MaxConcurrentProbes = -1
	cfg.MaxGeoPoints = 0
	cfg.MaxRedirects = -3

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.BrowserPoolSize)
	assert.Equal(t, 1, cfg.MaxConcurrentProbes)
	assert.Equal(t, 1, cfg.MaxGeoPoints)
	assert.Equal(t, 0, cfg.MaxRedirects)
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RankGreenThreshold = 5
	cfg.RankYellowThreshold = 3

	assert.Error(t, cfg.Validate())
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SITELENS_BROWSER_POOL_SIZE", "7")
	t.Setenv("SITELENS_BING_MAPS_API_KEY", "key-from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.BrowserPoolSize)
	assert.Equal(t, "key-from-env", cfg.BingMapsAPIKey)
}

func TestCloneIsIndependent(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.DeniedNetworks[0] = "203.0.113.0/24"

	assert.NotEqual(t, cfg.DeniedNetworks[0], clone.DeniedNetworks[0])
}
