package config

import (
	"os"
	"path/filepath"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	configPathEnv, "HTTP_PORT", "DATABASE_URL", "LOG_LEVEL", "LOG_FORMAT", "JWT_SECRET",
	"TIMEZONE", "SENTIMENT_PROVIDER", "GEMINI_API_KEY", "GEMINI_MODEL", "SENTIMENT_URL",
	"SENTIMENT_API_KEY", "JPUSH_APP_KEY", "JPUSH_MASTER_SECRET", "JPUSH_URL",
}

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("GEMINI_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "diary_notes.db", cfg.DatabaseURL)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "gemini", cfg.SentimentProvider)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, "key", cfg.GeminiAPIKey)
	assert.False(t, cfg.PushEnabled())
	assert.NotNil(t, cfg.Location())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "diary.yaml")
	yml := `
httpPort: "9090"
jwtSecret: from-file
timezone: Asia/Shanghai
sentimentProvider: http
sentimentUrl: http://nlp.local/score
jpushAppKey: app
jpushMasterSecret: master
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv(configPathEnv, path)
	t.Setenv("HTTP_PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.HTTPPort)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "http", cfg.SentimentProvider)
	assert.Equal(t, "http://nlp.local/score", cfg.SentimentURL)
	assert.Equal(t, "Asia/Shanghai", cfg.Location().String())
	assert.True(t, cfg.PushEnabled())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing jwt secret", map[string]string{"GEMINI_API_KEY": "key"}},
		{"gemini without key", map[string]string{"JWT_SECRET": "s"}},
		{"http without url", map[string]string{"JWT_SECRET": "s", "SENTIMENT_PROVIDER": "http"}},
		{"unknown provider", map[string]string{"JWT_SECRET": "s", "SENTIMENT_PROVIDER": "tea-leaves"}},
		{"bad port", map[string]string{"JWT_SECRET": "s", "GEMINI_API_KEY": "k", "HTTP_PORT": "eighty"}},
		{"bad timezone", map[string]string{"JWT_SECRET": "s", "GEMINI_API_KEY": "k", "TIMEZONE": "Mars/Olympus"}},
		{"push key without secret", map[string]string{"JWT_SECRET": "s", "GEMINI_API_KEY": "k", "JPUSH_APP_KEY": "app"}},
		{"missing config file", map[string]string{"JWT_SECRET": "s", "GEMINI_API_KEY": "k", configPathEnv: "/nonexistent/diary.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
