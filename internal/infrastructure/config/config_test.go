package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, 0.01, cfg.Estimator.NegligibleThreshold)
	assert.Equal(t, 5, cfg.Estimator.TopK)
	assert.Equal(t, 2, cfg.Estimator.TranslationAttempts)
	assert.Equal(t, 1, cfg.Estimator.ParseRetries)
	assert.Equal(t, []string{"mymemory", "libretranslate", "llm"}, cfg.Translate.Providers)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 30*time.Second, cfg.Estimator.SearchTimeout)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test-key-123456")
	t.Setenv("NEGLIGIBLE_THRESHOLD", "0.05")
	t.Setenv("EMISSIONS_DB_PATH", "/tmp/emissions.db")
	t.Setenv("APP_ESTIMATOR_TOP_K", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sk-or-test-key-123456", cfg.OpenRouter.APIKey)
	assert.Equal(t, 0.05, cfg.Estimator.NegligibleThreshold)
	assert.Equal(t, "/tmp/emissions.db", cfg.Database.Path)
	assert.Equal(t, 3, cfg.Estimator.TopK)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
	}{
		{"unknown cache backend", "cache.backend", "memcached"},
		{"unknown translate provider", "translate.providers", []string{"babelfish"}},
		{"zero top k", "estimator.top_k", 0},
		{"negative threshold", "estimator.negligible_threshold", -1.0},
		{"bad log level", "log_level", "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			setDefaults(v)
			v.Set(tt.key, tt.val)

			_, err := fromViper(v)
			assert.Error(t, err)
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "sk-o...cdef", maskAPIKey("sk-or-1234567890abcdef"))
}
