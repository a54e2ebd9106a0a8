package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AGENT_MODEL", "gpt-4.1-mini")
	t.Setenv("GUARD_MODEL", "gpt-4.1-nano")
	t.Setenv("CHAT_TIMEOUT", "30s")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000")
	t.Setenv("CORS_ALLOW_ALL", "false")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4.1-mini", cfg.GetAgentModel())
	assert.Equal(t, "gpt-4.1-nano", cfg.GetGuardModel())
	assert.Equal(t, 30*time.Second, cfg.GetChatTimeout())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.GetCORSOrigins())
	assert.NotEmpty(t, cfg.GetShopifyMCPURL())
}

func TestLoadRejectsWildcardWithCredentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsUnparsableValues(t *testing.T) {
	cases := map[string]string{
		"CHAT_RATE_LIMIT_PER_MINUTE": "3O",
		"CHAT_MAX_MESSAGE_LENGTH":    "two thousand",
		"TOOL_HTTP_TIMEOUT":          "15",
		"CHAT_TIMEOUT":               "soon",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("OPENAI_API_KEY", "sk-test")
			t.Setenv(key, value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadRejectsNegativeRateLimit(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CHAT_RATE_LIMIT_PER_MINUTE", "-1")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadAllowsDisabledRateLimit(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CHAT_RATE_LIMIT_PER_MINUTE", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.GetChatRateLimitPerMinute())
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitCSV(" a, ,b ,"))
	assert.Empty(t, splitCSV(""))
}
