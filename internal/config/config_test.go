package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "auto", cfg.Fetcher.Mode)
	require.Equal(t, 3, cfg.Fetcher.MaxRetries)
	require.Equal(t, 2, cfg.Fetcher.RetryDelaySeconds)
	require.Equal(t, 30, cfg.Fetcher.PageTimeoutSeconds)
	require.Equal(t, "memory", cfg.Cache.Backend)
	require.Equal(t, time.Hour, cfg.CacheTTL())
	require.Equal(t, time.Minute, cfg.OverallTimeout())
	require.True(t, cfg.Headless.Enabled)
	require.True(t, cfg.Logging.Development)
}

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
  rate_limit_rps: 2
fetcher:
  mode: static
  user_agent: test-agent
  max_retries: 5
  retry_delay_seconds: 1
  page_timeout_seconds: 10
headless:
  enabled: false
pipeline:
  overall_timeout_seconds: 20
cache:
  backend: redis
  ttl_seconds: 120
redis:
  addr: redis:6379
db:
  dsn: postgres://localhost/threadtwin
affiliate:
  client_id: cid
  client_secret: csecret
  publisher_id: pub
search:
  api_key: serp-key
logging:
  development: false
`
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "static", cfg.Fetcher.Mode)
	require.Equal(t, 5, cfg.Fetcher.MaxRetries)
	require.Equal(t, "redis", cfg.Cache.Backend)
	require.Equal(t, "redis:6379", cfg.Redis.Addr)
	require.Equal(t, 2*time.Minute, cfg.CacheTTL())
	require.Equal(t, 20*time.Second, cfg.OverallTimeout())
	require.Equal(t, "postgres://localhost/threadtwin", cfg.DB.DSN)
	require.Equal(t, "pub", cfg.Affiliate.PublisherID)
	require.Equal(t, "serp-key", cfg.Search.APIKey)
	require.False(t, cfg.Logging.Development)
	require.False(t, cfg.Headless.Enabled)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("THREADTWIN_SERVER_PORT", "7070")
	t.Setenv("THREADTWIN_CACHE_TTL_SECONDS", "60")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, time.Minute, cfg.CacheTTL())
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad mode", func(c *Config) { c.Fetcher.Mode = "psychic" }, "fetcher.mode"},
		{"zero retries", func(c *Config) { c.Fetcher.MaxRetries = 0 }, "max_retries"},
		{"zero page timeout", func(c *Config) { c.Fetcher.PageTimeoutSeconds = 0 }, "page_timeout"},
		{"zero overall timeout", func(c *Config) { c.Pipeline.OverallTimeoutSeconds = 0 }, "overall_timeout"},
		{"headless without parallel", func(c *Config) { c.Headless.MaxParallel = 0 }, "max_parallel"},
		{"bad cache backend", func(c *Config) { c.Cache.Backend = "tape" }, "cache.backend"},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis"; c.Redis.Addr = "" }, "redis.addr"},
		{"zero ttl", func(c *Config) { c.Cache.TTLSeconds = 0 }, "ttl_seconds"},
		{"headless mode disabled", func(c *Config) { c.Fetcher.Mode = "headless"; c.Headless.Enabled = false }, "headless"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.True(t, strings.Contains(err.Error(), tc.wantErr), "error %q should mention %q", err, tc.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
