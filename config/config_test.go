package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("RADAR_ALGOLIA_APP_ID", "APP")
	t.Setenv("RADAR_ALGOLIA_API_KEY", "KEY")
	t.Setenv("RADAR_DEBOUNCE", "150ms")
	t.Setenv("RADAR_GATE_THRESHOLD", "5")
	t.Setenv("RADAR_QUARTZ_ALLOWED", "false")
	t.Setenv("RADAR_HITS_PER_PAGE", "not-a-number")
	t.Setenv("RADAR_CORS_ORIGINS", "https://a.example, ,https://b.example")

	c := DefaultConfig()
	c.LoadFromEnv()

	assert.Equal(t, "APP", c.AlgoliaAppID)
	assert.Equal(t, 150*time.Millisecond, c.Debounce)
	assert.Equal(t, 5, c.GateThreshold)
	assert.Equal(t, 10, c.HitsPerPage)
	assert.False(t, c.SourceAllowed["quartz"])
	assert.True(t, c.SourceAllowed["robu"])
	assert.NotContains(t, c.AllowedSources(), "quartz")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins)
	require.NoError(t, c.Validate())
}

func TestValidateRequiresCredentials(t *testing.T) {
	c := DefaultConfig()
	assert.ErrorIs(t, c.Validate(), ErrMissingAlgolia)

	c.AlgoliaHost = "http://127.0.0.1:9999"
	assert.ErrorIs(t, c.Validate(), ErrMissingAlgolia)

	c.AlgoliaAPIKey = "k"
	assert.NoError(t, c.Validate())
}

func TestAllowedSourcesKeepsDisplayOrder(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, SourceIDs, c.AllowedSources())
}

func TestSourceAllowFlags(t *testing.T) {
	t.Setenv("RADAR_ROBU_ALLOWED", "yes")
	t.Setenv("RADAR_SUNROM_ALLOWED", "true")

	c := DefaultConfig()
	c.LoadFromEnv()

	assert.False(t, c.SourceAllowed["robu"], "only \"true\" allows")
	assert.True(t, c.SourceAllowed["sunrom"])
	assert.True(t, c.SourceAllowed["evelta"], "unset means allowed")
}
