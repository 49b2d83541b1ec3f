package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "8288")
	t.Setenv("DB_HOST", "localhost")
}

func TestNew_AppliesDefaults(t *testing.T) {
	setRequiredEnv(t)

	config, err := New()
	require.NoError(t, err)

	assert.Equal(t, 8288, config.ServerPort)
	assert.Equal(t, "localhost", config.DatabaseHost)
	assert.True(t, config.SchedulerEnabled)
	assert.Equal(t, 15*time.Minute, config.DigestCheckInterval())
	assert.Equal(t, 4, config.DigestWorkerConcurrency)
	assert.Equal(t, NewsProviderNewsAPI, config.NewsProvider)
	assert.Equal(t, LLMProviderOpenAI, config.LLMProvider)
	assert.Equal(t, 2000, config.LLMMaxTokens)
	assert.Equal(t, 60*time.Second, config.LLMTimeout())
	assert.Equal(t, config, GetConfig())
}

func TestNew_EnvironmentOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("DIGEST_CHECK_INTERVAL_MINUTES", "5")
	t.Setenv("LLM_PROVIDER", "anthropic")

	config, err := New()
	require.NoError(t, err)

	assert.False(t, config.SchedulerEnabled)
	assert.Equal(t, 5*time.Minute, config.DigestCheckInterval())
	assert.Equal(t, LLMProviderAnthropic, config.LLMProvider)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown news provider", key: "NEWS_PROVIDER", val: "carrier-pigeon"},
		{name: "unknown llm provider", key: "LLM_PROVIDER", val: "oracle"},
		{name: "zero interval", key: "DIGEST_CHECK_INTERVAL_MINUTES", val: "0"},
		{name: "zero concurrency", key: "DIGEST_WORKER_CONCURRENCY", val: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := New()
			assert.Error(t, err)
		})
	}
}

func TestConfig_RSSFeedMap(t *testing.T) {
	config := Config{
		RSSFeeds: "technology=https://example.com/tech.xml, science = https://example.com/sci.xml,broken,=nope",
	}

	feeds := config.RSSFeedMap()

	assert.Equal(t, map[string]string{
		"technology": "https://example.com/tech.xml",
		"science":    "https://example.com/sci.xml",
	}, feeds)
}
