package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const validYAML = `
db: /tmp/review.db
log:
  level: debug
  format: json
twitter:
  bearer_token: "token"
  timeout: 5s
translate:
  provider: systran
  target_lang: es
  service:
    api_key: "k"
scheduler:
  sample_size: 10
`

func TestLoad_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "./data/tweetreview.db", cfg.DB)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "https://api.twitter.com", cfg.Twitter.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Twitter.Timeout)
	assert.Equal(t, 5, cfg.Scheduler.SampleSize)
	assert.Equal(t, 30, cfg.Scheduler.MaxFetchFailures)
	assert.False(t, cfg.Translate.Enabled())
}

func TestLoad_File(t *testing.T) {
	path := writeYAML(t, t.TempDir(), validYAML)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/review.db", cfg.DB)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "token", cfg.Twitter.BearerToken)
	assert.Equal(t, 5*time.Second, cfg.Twitter.Timeout)
	assert.Equal(t, "systran", cfg.Translate.Provider)
	assert.Equal(t, "es", cfg.Translate.TargetLang)
	assert.Equal(t, "k", cfg.Translate.Service.APIKey)
	assert.Equal(t, 10, cfg.Scheduler.SampleSize)
	assert.Equal(t, 30, cfg.Scheduler.MaxFetchFailures, "unset keys keep defaults")
	assert.True(t, cfg.Translate.Enabled())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeYAML(t, t.TempDir(), validYAML)
	t.Setenv("TWEETREVIEW_LOG_LEVEL", "warn")
	t.Setenv("TWEETREVIEW_SCHEDULER_SAMPLE_SIZE", "3")
	t.Setenv("TWEETREVIEW_TRANSLATE_SERVICE_API_KEY", "from-env")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 3, cfg.Scheduler.SampleSize)
	assert.Equal(t, "from-env", cfg.Translate.Service.APIKey)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DB:        "x.db",
			Log:       LogConfig{Level: "info", Format: "text"},
			Translate: TranslateConfig{Provider: "google", TargetLang: "pt-br"},
		}
	}

	cfg := valid()
	cfg.Scheduler.SampleSize = 5
	cfg.Scheduler.MaxFetchFailures = 30
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "pt-BR", cfg.Translate.TargetLang, "target language is canonicalized")

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no db", func(c *Config) { c.DB = "" }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad sample size", func(c *Config) { c.Scheduler.SampleSize = 0 }},
		{"bad failure budget", func(c *Config) { c.Scheduler.MaxFetchFailures = -1 }},
		{"unknown provider", func(c *Config) { c.Translate.Provider = "babelfish" }},
		{"bad language", func(c *Config) { c.Translate.TargetLang = "not a language!" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			c.Scheduler.SampleSize = 5
			c.Scheduler.MaxFetchFailures = 30
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
