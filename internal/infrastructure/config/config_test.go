package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, 8000, cfg.LLM.MaxTokens)
	assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)

	assert.Equal(t, 5, cfg.Vector.TopK)
	assert.Equal(t, []string{"src/components/ui/**"}, cfg.Generation.InternalPatterns)
	assert.Equal(t, "@/", cfg.Generation.AliasPrefix)
	assert.Equal(t, 10, cfg.Ingest.BatchSize)

	require.NoError(t, cfg.Validate())
}

func TestLoadOrDefault(t *testing.T) {
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "package.json", cfg.Generation.ManifestName)
	assert.Equal(t, "src/", cfg.Generation.SourcePrefix)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":              "9000",
		"LOG_LEVEL":         "debug",
		"LOG_DEV":           "true",
		"LLM_PROVIDER":      "deepseek",
		"LLM_BASE_URL":      "https://api.deepseek.com",
		"LLM_MODEL":         "deepseek-chat",
		"LLM_TIMEOUT":       "30s",
		"VECTOR_TOP_K":      "8",
		"INTERNAL_PATTERNS": "src/components/ui/**,src/lib/ui/**",
		"STORE_DSN":         "/tmp/test.db",
	}

	for key, value := range envVars {
		require.NoError(t, os.Setenv(key, value))
		defer os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, "deepseek", cfg.LLM.Provider)
	assert.Equal(t, "https://api.deepseek.com", cfg.LLM.BaseURL)
	assert.Equal(t, "deepseek-chat", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 8, cfg.Vector.TopK)
	assert.Equal(t, []string{"src/components/ui/**", "src/lib/ui/**"}, cfg.Generation.InternalPatterns)
	assert.Equal(t, "/tmp/test.db", cfg.Store.DSN)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown provider", "LLM_PROVIDER", "carrier-pigeon"},
		{"malformed duration", "LLM_TIMEOUT", "soon"},
		{"zero top k", "VECTOR_TOP_K", "0"},
		{"zero session cache", "SESSION_CACHE_SIZE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, os.Setenv(tt.key, tt.value))
			defer os.Unsetenv(tt.key)

			_, err := Load()
			assert.Error(t, err)

			assert.Equal(t, Default(), LoadOrDefault())
		})
	}
}
