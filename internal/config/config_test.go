package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"TATAMI_URL", "TATAMI_TOKEN", "TATAMI_CONTEXT", "TATAMI_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 20*time.Second, cfg.PollInterval())
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout())
}

func TestLoadAcceptsComments(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		// where the server lives
		"server": {"url": "https://tatami.example.com", "token": "abc"},
		"feed": {"start_context": "tag:go", "page_size": 50,},
		/* quieter */
		"log_level": "warn"
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://tatami.example.com", cfg.Server.URL)
	assert.Equal(t, "abc", cfg.Server.Token)
	assert.Equal(t, "tag:go", cfg.Feed.StartContext)
	assert.Equal(t, 50, cfg.Feed.PageSize)
	assert.Equal(t, "warn", cfg.LogLevel)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, 20000, cfg.Feed.PollIntervalMs)
	assert.Equal(t, float64(5), cfg.Server.RequestsPerSecond)
}

func TestLoadRejectsBadJSON(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server": [}`), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server": {"url": "http://file"}}`), 0600))

	t.Setenv("TATAMI_URL", "http://env")
	t.Setenv("TATAMI_TOKEN", "tok")
	t.Setenv("TATAMI_CONTEXT", "mentions")
	t.Setenv("TATAMI_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env", cfg.Server.URL)
	assert.Equal(t, "tok", cfg.Server.Token)
	assert.Equal(t, "mentions", cfg.Feed.StartContext)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.Server.URL = "https://tatami.example.com"
	cfg.SetPollInterval(5 * time.Second)

	require.NoError(t, cfg.Save(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"ok", func(c *Config) {}, false},
		{"empty url", func(c *Config) { c.Server.URL = " " }, true},
		{"relative url", func(c *Config) { c.Server.URL = "tatami.local" }, true},
		{"zero poll", func(c *Config) { c.Feed.PollIntervalMs = 0 }, true},
		{"negative timeout", func(c *Config) { c.Feed.RequestTimeoutMs = -1 }, true},
		{"zero page", func(c *Config) { c.Feed.PageSize = 0 }, true},
		{"zero rate", func(c *Config) { c.Server.RequestsPerSecond = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Server.URL = "https://tatami.example.com"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
