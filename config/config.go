package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names accepted for stock and crypto data
const (
	ProviderYahoo   = "yahoo"
	ProviderAlpaca  = "alpaca"
	ProviderFixture = "fixture"
)

// Config holds all application configuration
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Provider  ProviderConfig  `yaml:"provider"`
	Yahoo     YahooConfig     `yaml:"yahoo"`
	Alpaca    AlpacaConfig    `yaml:"alpaca"`
	Market    MarketConfig    `yaml:"market"`
	Chart     ChartConfig     `yaml:"chart"`
	News      NewsConfig      `yaml:"news"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port                  int    `yaml:"port"`
	CORSAllowedOrigins    string `yaml:"cors_allowed_origins"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// ProviderConfig selects the upstream for each asset class
type ProviderConfig struct {
	Stock      string `yaml:"stock"`
	Crypto     string `yaml:"crypto"`
	FixtureDir string `yaml:"fixture_dir"`
}

// YahooConfig holds Yahoo chart API configuration
type YahooConfig struct {
	BaseURL   string `yaml:"base_url"`
	UserAgent string `yaml:"user_agent"`
}

// AlpacaConfig holds Alpaca market data configuration
type AlpacaConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
}

// MarketConfig holds quote and history caching configuration
type MarketConfig struct {
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
	MaxConcurrency  int `yaml:"max_concurrency"`
}

// ChartConfig holds rendering defaults and session limits
type ChartConfig struct {
	Width              int `yaml:"width"`
	Height             int `yaml:"height"`
	MaxWidth           int `yaml:"max_width"`
	MaxHeight          int `yaml:"max_height"`
	SessionIdleMinutes int `yaml:"session_idle_minutes"`
	MaxSessions        int `yaml:"max_sessions"`
}

// NewsConfig holds the location of the per-symbol news files
type NewsConfig struct {
	Dir string `yaml:"dir"`
}

// SchedulerConfig holds cron specs (with seconds) for background jobs
type SchedulerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	CacheSweepSpec   string `yaml:"cache_sweep"`
	SessionSweepSpec string `yaml:"session_sweep"`
	NewsReloadSpec   string `yaml:"news_reload"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Production bool   `yaml:"production"`
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:                  8080,
			CORSAllowedOrigins:    "*",
			RequestTimeoutSeconds: 60,
		},
		Provider: ProviderConfig{
			Stock:      ProviderYahoo,
			Crypto:     ProviderYahoo,
			FixtureDir: "data/fixtures",
		},
		Yahoo: YahooConfig{
			BaseURL:   "https://query1.finance.yahoo.com",
			UserAgent: "Mozilla/5.0 (compatible; finance-dashboard/1.0)",
		},
		Market: MarketConfig{
			CacheTTLSeconds: 300,
			MaxConcurrency:  8,
		},
		Chart: ChartConfig{
			Width:              900,
			Height:             400,
			MaxWidth:           4096,
			MaxHeight:          4096,
			SessionIdleMinutes: 15,
			MaxSessions:        1000,
		},
		News: NewsConfig{
			Dir: "data/news",
		},
		Scheduler: SchedulerConfig{
			Enabled:          true,
			CacheSweepSpec:   "0 * * * * *",
			SessionSweepSpec: "30 * * * * *",
			NewsReloadSpec:   "0 */15 * * * *",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named
// by CONFIG_FILE, then environment variable overrides.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlay(path); err != nil {
			return nil, err
		}
	}

	cfg.HTTP.Port = getEnvInt("PORT", cfg.HTTP.Port)
	cfg.HTTP.CORSAllowedOrigins = getEnvString("CORS_ALLOWED_ORIGINS", cfg.HTTP.CORSAllowedOrigins)
	cfg.HTTP.RequestTimeoutSeconds = getEnvInt("REQUEST_TIMEOUT_SECONDS", cfg.HTTP.RequestTimeoutSeconds)

	cfg.Provider.Stock = strings.ToLower(getEnvString("STOCK_PROVIDER", cfg.Provider.Stock))
	cfg.Provider.Crypto = strings.ToLower(getEnvString("CRYPTO_PROVIDER", cfg.Provider.Crypto))
	cfg.Provider.FixtureDir = getEnvString("FIXTURE_DIR", cfg.Provider.FixtureDir)

	cfg.Yahoo.BaseURL = getEnvString("YAHOO_BASE_URL", cfg.Yahoo.BaseURL)
	cfg.Yahoo.UserAgent = getEnvString("YAHOO_USER_AGENT", cfg.Yahoo.UserAgent)

	cfg.Alpaca.APIKey = getEnvString("ALPACA_API_KEY", cfg.Alpaca.APIKey)
	cfg.Alpaca.APISecret = getEnvString("ALPACA_API_SECRET", cfg.Alpaca.APISecret)
	cfg.Alpaca.BaseURL = getEnvString("ALPACA_DATA_URL", cfg.Alpaca.BaseURL)

	cfg.Market.CacheTTLSeconds = getEnvInt("CACHE_TTL_SECONDS", cfg.Market.CacheTTLSeconds)
	cfg.Market.MaxConcurrency = getEnvInt("FETCH_CONCURRENCY_LIMIT", cfg.Market.MaxConcurrency)

	cfg.Chart.Width = getEnvInt("CHART_WIDTH", cfg.Chart.Width)
	cfg.Chart.Height = getEnvInt("CHART_HEIGHT", cfg.Chart.Height)
	cfg.Chart.MaxWidth = getEnvInt("CHART_MAX_WIDTH", cfg.Chart.MaxWidth)
	cfg.Chart.MaxHeight = getEnvInt("CHART_MAX_HEIGHT", cfg.Chart.MaxHeight)
	cfg.Chart.SessionIdleMinutes = getEnvInt("CHART_SESSION_IDLE_MINUTES", cfg.Chart.SessionIdleMinutes)
	cfg.Chart.MaxSessions = getEnvInt("CHART_MAX_SESSIONS", cfg.Chart.MaxSessions)

	cfg.News.Dir = getEnvString("NEWS_DIR", cfg.News.Dir)

	cfg.Scheduler.Enabled = getEnvBool("SCHEDULER_ENABLED", cfg.Scheduler.Enabled)
	cfg.Scheduler.CacheSweepSpec = getEnvString("CRON_CACHE_SWEEP", cfg.Scheduler.CacheSweepSpec)
	cfg.Scheduler.SessionSweepSpec = getEnvString("CRON_SESSION_SWEEP", cfg.Scheduler.SessionSweepSpec)
	cfg.Scheduler.NewsReloadSpec = getEnvString("CRON_NEWS_RELOAD", cfg.Scheduler.NewsReloadSpec)

	cfg.Logging.Production = getEnvBool("LOG_PRODUCTION", cfg.Logging.Production)
	cfg.Logging.Level = getEnvString("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.File = getEnvString("LOG_FILE", cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// overlay merges a YAML file over the current values. A missing file is not an error.
func (c *Config) overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	for name, p := range map[string]string{"STOCK_PROVIDER": c.Provider.Stock, "CRYPTO_PROVIDER": c.Provider.Crypto} {
		switch p {
		case ProviderYahoo, ProviderFixture:
		case ProviderAlpaca:
			if !c.HasAlpaca() {
				return fmt.Errorf("%s=alpaca requires ALPACA_API_KEY and ALPACA_API_SECRET", name)
			}
		default:
			return fmt.Errorf("%s must be one of yahoo, alpaca, fixture, got %q", name, p)
		}
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive, got %d", c.HTTP.RequestTimeoutSeconds)
	}
	if c.Market.CacheTTLSeconds < 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must not be negative, got %d", c.Market.CacheTTLSeconds)
	}
	if c.Market.MaxConcurrency <= 0 {
		return fmt.Errorf("FETCH_CONCURRENCY_LIMIT must be positive, got %d", c.Market.MaxConcurrency)
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart size must be positive, got %dx%d", c.Chart.Width, c.Chart.Height)
	}
	if c.Chart.MaxWidth < c.Chart.Width || c.Chart.MaxHeight < c.Chart.Height {
		return fmt.Errorf("CHART_MAX_WIDTH/CHART_MAX_HEIGHT %dx%d must not be below the default size %dx%d",
			c.Chart.MaxWidth, c.Chart.MaxHeight, c.Chart.Width, c.Chart.Height)
	}
	if c.Chart.MaxSessions <= 0 {
		return fmt.Errorf("CHART_MAX_SESSIONS must be positive, got %d", c.Chart.MaxSessions)
	}

	return nil
}

// HasAlpaca returns true if Alpaca configuration is available
func (c *Config) HasAlpaca() bool {
	return c.Alpaca.APIKey != "" && c.Alpaca.APISecret != ""
}

// CacheTTL returns the market cache TTL as a duration
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Market.CacheTTLSeconds) * time.Second
}

// SessionIdleTTL returns how long an untouched chart session lives
func (c *Config) SessionIdleTTL() time.Duration {
	return time.Duration(c.Chart.SessionIdleMinutes) * time.Minute
}

// RequestTimeout returns the per-request deadline
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.RequestTimeoutSeconds) * time.Second
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.HTTP.Port)
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	cfg := Defaults()
	cfg.Provider.Stock = ProviderFixture
	cfg.Provider.Crypto = ProviderFixture
	cfg.Scheduler.Enabled = false
	return cfg
}
