package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VantageDataChat/LyricDeck/enrich"
)

func loadIn(t *testing.T, dir, file string) (*Config, error) {
	t.Helper()
	chdir(t, dir)
	return Load(New(), file)
}

func TestDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := loadIn(t, t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, enrich.DefaultGeminiModel, cfg.Gemini.Model)
	assert.Equal(t, enrich.DefaultBatchSize, cfg.Enrich.BatchSize)
	assert.Equal(t, time.Minute, cfg.Enrich.RateWindow)
	assert.Equal(t, 15, cfg.Enrich.RateLimit)
	assert.Equal(t, 3, cfg.Enrich.RetryPolicy().MaxAttempts)
	assert.Empty(t, cfg.Gemini.APIKey)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LYRICDECK_SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("LYRICDECK_ENRICH_BATCH_SIZE", "4")
	t.Setenv("LYRICDECK_ENRICH_RATE_WINDOW", "30s")
	t.Setenv("LYRICDECK_LOG_FORMAT", "json")
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := loadIn(t, t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 4, cfg.Enrich.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.Enrich.RateWindow)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "from-env", cfg.Gemini.APIKey)
	assert.Equal(t, "from-env", cfg.Gemini.Completer().APIKey)
}

func TestConfigFileInWorkingDirectory(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")
	dir := t.TempDir()
	yaml := `
server:
  addr: ":7070"
  cors_origins:
    - https://lyrics.example.org
gemini:
  api_key: file-key
  model: gemini-1.5-flash
enrich:
  remote_url: http://enricher:8080
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lyricdeck.yaml"), []byte(yaml), 0o644))

	cfg, err := loadIn(t, dir, "")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, []string{"https://lyrics.example.org"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "file-key", cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-1.5-flash", cfg.Gemini.Model)
	assert.Equal(t, "http://enricher:8080", cfg.Enrich.RemoteURL)
}

func TestExplicitFileMustExist(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"batch too large", func(c *Config) { c.Enrich.BatchSize = 11 }, "enrich.batch_size"},
		{"batch zero", func(c *Config) { c.Enrich.BatchSize = 0 }, "enrich.batch_size"},
		{"empty addr", func(c *Config) { c.Server.Addr = " " }, "server.addr"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"no attempts", func(c *Config) { c.Enrich.MaxAttempts = 0 }, "max_attempts"},
		{"window", func(c *Config) { c.Enrich.RateWindow = 0 }, "rate_window"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			require.NoError(t, New().Unmarshal(&cfg))
			require.NoError(t, cfg.Validate())

			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) on older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
