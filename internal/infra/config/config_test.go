package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5, cfg.MaxConcurrency)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 8*time.Second, cfg.RankingTimeout)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.True(t, cfg.SourceEnabled("fixtures"))
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MAX_CONCURRENCY", "3")
	t.Setenv("RANKING_TIMEOUT", "2s")
	t.Setenv("SOURCES", " Fixtures , rapidapi ")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("FLUENT_ENABLED", "yes")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxConcurrency)
	assert.Equal(t, 2*time.Second, cfg.RankingTimeout)
	assert.Equal(t, []string{"fixtures", "rapidapi"}, cfg.Sources)
	assert.False(t, cfg.SourceEnabled("mongo"))
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.FluentEnabled)
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("# local overrides\nOPENROUTER_MODEL=test/model\n"), 0o600))
	t.Setenv("OPENROUTER_MODEL", "restored-after-test")
	require.NoError(t, os.Unsetenv("OPENROUTER_MODEL"))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "test/model", cfg.OpenRouterModel)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"MAX_CONCURRENCY":       "0",
		"UPSTREAM_CALL_TIMEOUT": "soon",
		"FLUENT_ENABLED":        "maybe",
		"EVENTS_RETRY_BACKOFF":  "1s,later",
		"MAX_RETRIES":           "two",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.ErrorContains(t, err, key)
		})
	}
}
