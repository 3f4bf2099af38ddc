// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Cache     CacheConfig     `mapstructure:"cache"`
	DB        DBConfig        `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Affiliate AffiliateConfig `mapstructure:"affiliate"`
	Search    SearchConfig    `mapstructure:"search"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int     `mapstructure:"port"`
	RequestTimeout int     `mapstructure:"request_timeout_seconds"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
}

// FetcherConfig governs page fetching and retry behavior.
type FetcherConfig struct {
	Mode               string `mapstructure:"mode"`
	UserAgent          string `mapstructure:"user_agent"`
	MaxRetries         int    `mapstructure:"max_retries"`
	RetryDelaySeconds  int    `mapstructure:"retry_delay_seconds"`
	PageTimeoutSeconds int    `mapstructure:"page_timeout_seconds"`
}

// HeadlessConfig configures the headless rendering subsystem.
type HeadlessConfig struct {
	Enabled            bool     `mapstructure:"enabled"`
	MaxParallel        int      `mapstructure:"max_parallel"`
	NavTimeoutSec      int      `mapstructure:"nav_timeout_seconds"`
	MinHTMLBytes       int      `mapstructure:"min_html_bytes"`
	DetectorKeywords   []string `mapstructure:"detector_keywords"`
	BlockResourceTypes []string `mapstructure:"block_resource_types"`
}

// PipelineConfig bounds whole analyze/compare operations.
type PipelineConfig struct {
	OverallTimeoutSeconds int `mapstructure:"overall_timeout_seconds"`
}

// CacheConfig selects and tunes the result cache backend.
type CacheConfig struct {
	Backend    string `mapstructure:"backend"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

// DBConfig controls access to the relational database. An empty DSN keeps
// the service on in-memory stores.
type DBConfig struct {
	DSN              string `mapstructure:"dsn"`
	ProductsTable    string `mapstructure:"products_table"`
	SubmissionsTable string `mapstructure:"submissions_table"`
	MaxConns         int    `mapstructure:"max_conns"`
	MinConns         int    `mapstructure:"min_conns"`
}

// RedisConfig configures the redis cache backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AffiliateConfig holds Skimlinks credentials.
type AffiliateConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	PublisherID  string `mapstructure:"publisher_id"`
}

// SearchConfig holds the SerpApi key for dupe discovery.
type SearchConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("THREADTWIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 90)
	v.SetDefault("server.rate_limit_rps", 5)
	v.SetDefault("fetcher.mode", "auto")
	v.SetDefault("fetcher.user_agent", "threadtwin-bot/0.1")
	v.SetDefault("fetcher.max_retries", 3)
	v.SetDefault("fetcher.retry_delay_seconds", 2)
	v.SetDefault("fetcher.page_timeout_seconds", 30)
	v.SetDefault("headless.enabled", true)
	v.SetDefault("headless.max_parallel", 2)
	v.SetDefault("headless.nav_timeout_seconds", 25)
	v.SetDefault("headless.min_html_bytes", 2048)
	v.SetDefault("headless.detector_keywords", []string{"enable javascript", "loading..."})
	v.SetDefault("headless.block_resource_types", []string{"image", "stylesheet", "font"})
	v.SetDefault("pipeline.overall_timeout_seconds", 60)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl_seconds", 3600)
	v.SetDefault("db.products_table", "products")
	v.SetDefault("db.submissions_table", "dupe_submissions")
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	switch c.Fetcher.Mode {
	case "static", "headless", "auto":
	default:
		return fmt.Errorf("fetcher.mode must be static, headless, or auto")
	}
	if c.Fetcher.MaxRetries <= 0 {
		return fmt.Errorf("fetcher.max_retries must be > 0")
	}
	if c.Fetcher.PageTimeoutSeconds <= 0 {
		return fmt.Errorf("fetcher.page_timeout_seconds must be > 0")
	}
	if c.Pipeline.OverallTimeoutSeconds <= 0 {
		return fmt.Errorf("pipeline.overall_timeout_seconds must be > 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("cache.backend must be memory or redis")
	}
	if c.Cache.Backend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr must be set when cache.backend is redis")
	}
	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache.ttl_seconds must be > 0")
	}
	if c.Fetcher.Mode == "headless" && !c.Headless.Enabled {
		return fmt.Errorf("headless must be enabled when fetcher.mode is headless")
	}
	return nil
}

// CacheTTL converts the configured TTL into a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// OverallTimeout converts the pipeline budget into a duration.
func (c Config) OverallTimeout() time.Duration {
	return time.Duration(c.Pipeline.OverallTimeoutSeconds) * time.Second
}
