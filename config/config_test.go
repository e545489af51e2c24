package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personabench/lmeval/utils"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 0.0, cfg.Temperature)
	assert.Equal(t, 64, cfg.MaxTokens)
	assert.Nil(t, cfg.Seed)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 3*time.Second, cfg.BaseDelay)
	assert.Equal(t, 5*time.Second, cfg.MaxDelay)
	assert.Equal(t, 0.75, cfg.WorkerFraction)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("LMEVAL_MAX_RETRIES", "5")
	t.Setenv("LMEVAL_BASE_DELAY", "500ms")
	t.Setenv("LMEVAL_SEED", "42")
	t.Setenv("LMEVAL_RPM", "120")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.BaseDelay)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, 42, *cfg.Seed)
	assert.Equal(t, 120, cfg.RequestsPerMinute)
}

func TestLoadConfigDiscoversAPIKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-openai")
	t.Setenv("openrouter_api_key", "sk-test-router")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	key, ok := cfg.APIKey("openai")
	require.True(t, ok)
	assert.Equal(t, "sk-test-openai", key)

	key, ok = cfg.APIKey("OpenRouter")
	require.True(t, ok)
	assert.Equal(t, "sk-test-router", key)

	_, ok = cfg.APIKey("anthropic-definitely-unset")
	assert.False(t, ok)
}

func TestConfigOptions(t *testing.T) {
	cfg := NewConfig()
	ApplyOptions(cfg,
		SetTemperature(0.7),
		SetMaxTokens(256),
		SetSeed(7),
		SetTimeout(30*time.Second),
		SetMaxRetries(4),
		SetRetryDelays(time.Second, 10*time.Second),
		SetRequestsPerMinute(60),
		SetWorkerFraction(0.5),
		SetAPIKey("Gemini", "key"),
		SetLogLevel(utils.LogLevelDebug),
	)

	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 256, cfg.MaxTokens)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, 7, *cfg.Seed)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 4, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.BaseDelay)
	assert.Equal(t, 10*time.Second, cfg.MaxDelay)
	assert.Equal(t, 60, cfg.RequestsPerMinute)
	assert.Equal(t, 0.5, cfg.WorkerFraction)
	assert.Equal(t, utils.LogLevelDebug, cfg.LogLevel)

	key, ok := cfg.APIKey("gemini")
	require.True(t, ok)
	assert.Equal(t, "key", key)
}

func TestSetMaxTokensFloor(t *testing.T) {
	cfg := NewConfig()
	ApplyOptions(cfg, SetMaxTokens(0))
	assert.Equal(t, 1, cfg.MaxTokens)
}
