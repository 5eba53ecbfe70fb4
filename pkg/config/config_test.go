package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "ru", cfg.Store.Language)
	assert.Equal(t, "ru", cfg.Store.Country)
	assert.Equal(t, 500, cfg.Retrieval.TargetCount)
	assert.Equal(t, 2500*time.Millisecond, cfg.Retrieval.BaseDelay)
	assert.Equal(t, MaxPageSize, cfg.Retrieval.PageSize)
	assert.Equal(t, 4, cfg.Retrieval.MaxConsecutiveErrors)
	assert.Equal(t, []string{"ru"}, cfg.Filter.Languages)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PLAYREVIEWS_TARGET_COUNT", "120")
	t.Setenv("PLAYREVIEWS_BASE_DELAY", "3s")
	t.Setenv("PLAYREVIEWS_FILTER_LANGUAGES", "ru, EN ,uk")
	t.Setenv("PLAYREVIEWS_START_DATE", "2024-01-01")
	t.Setenv("PLAYREVIEWS_OUTPUT_FORMAT", "csv")
	t.Setenv("PLAYREVIEWS_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 120, cfg.Retrieval.TargetCount)
	assert.Equal(t, 3*time.Second, cfg.Retrieval.BaseDelay)
	assert.Equal(t, []string{"ru", "en", "uk"}, cfg.Filter.Languages)
	assert.Equal(t, "2024-01-01", cfg.Filter.StartDate)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvRejectsBadNumbers(t *testing.T) {
	t.Setenv("PLAYREVIEWS_TARGET_COUNT", "many")
	t.Setenv("PLAYREVIEWS_BASE_DELAY", "soon")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PLAYREVIEWS_TARGET_COUNT")
	assert.Contains(t, err.Error(), "PLAYREVIEWS_BASE_DELAY")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
store:
  language: en
  country: us
retrieval:
  target_count: 50
  base_delay: 1500ms
filter:
  languages: [en]
  start_date: "2024-03-01"
  end_date: "2024-03-31"
output:
  format: xlsx
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "en", cfg.Store.Language)
	assert.Equal(t, "us", cfg.Store.Country)
	assert.Equal(t, 50, cfg.Retrieval.TargetCount)
	assert.Equal(t, 1500*time.Millisecond, cfg.Retrieval.BaseDelay)
	assert.Equal(t, "2024-03-31", cfg.Filter.EndDate)
	assert.Equal(t, "xlsx", cfg.Output.Format)
	// untouched sections keep defaults
	assert.Equal(t, 4, cfg.Retrieval.MaxConsecutiveErrors)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero target", func(c *Config) { c.Retrieval.TargetCount = 0 }},
		{"zero delay", func(c *Config) { c.Retrieval.BaseDelay = 0 }},
		{"page too large", func(c *Config) { c.Retrieval.PageSize = 500 }},
		{"no languages", func(c *Config) { c.Filter.Languages = nil }},
		{"bad format", func(c *Config) { c.Output.Format = "pdf" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "chatty" }},
		{"bad confidence", func(c *Config) { c.Filter.MinConfidence = 2 }},
		{"missing burst", func(c *Config) { c.RateLimit.BurstSize = 0 }},
		{"undetectable language", func(c *Config) { c.Filter.Languages = []string{"ru", "kk"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestIsSupportedLanguage(t *testing.T) {
	for _, code := range []string{"ru", "EN", " uk ", "rus", "ka"} {
		assert.True(t, IsSupportedLanguage(code), code)
	}
	for _, code := range []string{"kk", "hy", "", "xx-yy"} {
		assert.False(t, IsSupportedLanguage(code), code)
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"count":            200,
		"delay":            4 * time.Second,
		"lang":             []string{"en"},
		"from":             "2024-01-01",
		"include-language": false,
		"output":           "/tmp/out",
	})

	assert.Equal(t, 200, cfg.Retrieval.TargetCount)
	assert.Equal(t, 4*time.Second, cfg.Retrieval.BaseDelay)
	assert.Equal(t, []string{"en"}, cfg.Filter.Languages)
	assert.Equal(t, "2024-01-01", cfg.Filter.StartDate)
	assert.False(t, cfg.Output.IncludeLanguage)
	assert.Equal(t, "/tmp/out", cfg.Output.BaseDirectory)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Retrieval.TargetCount = 42
	cfg.Filter.Languages = []string{"be", "ru"}
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 42, loaded.Retrieval.TargetCount)
	assert.Equal(t, []string{"be", "ru"}, loaded.Filter.Languages)
	assert.Equal(t, cfg.Retrieval.BaseDelay, loaded.Retrieval.BaseDelay)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retrieval:\n  target_count: 10\n"), 0644))
	t.Setenv("PLAYREVIEWS_TARGET_COUNT", "20")

	cfg, err := Load(path, map[string]interface{}{"count": 30})
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Retrieval.TargetCount)

	cfg, err = Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Retrieval.TargetCount)
}
