package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	// Crawl
	BaseURL         string        `mapstructure:"BASE_URL"`
	SearchPath      string        `mapstructure:"SEARCH_PATH"`
	SearchParam     string        `mapstructure:"SEARCH_PARAM"`
	Keywords        []string      `mapstructure:"KEYWORDS"`
	StartURL        string        `mapstructure:"START_URL"`
	ItemSelector    string        `mapstructure:"ITEM_SELECTOR"`
	NextSelector    string        `mapstructure:"NEXT_SELECTOR"`
	MaxPages        int           `mapstructure:"MAX_PAGES"`
	PageLoadTimeout time.Duration `mapstructure:"PAGE_LOAD_TIMEOUT"`
	MaxScrolls      int           `mapstructure:"MAX_SCROLLS"`
	ScrollPause     time.Duration `mapstructure:"SCROLL_PAUSE"`
	SettleWait      time.Duration `mapstructure:"SETTLE_WAIT"`
	PageDelayMin    time.Duration `mapstructure:"PAGE_DELAY_MIN"`
	PageDelayMax    time.Duration `mapstructure:"PAGE_DELAY_MAX"`
	CrawlWorkers    int           `mapstructure:"CRAWL_WORKERS"`

	// Browser
	Headless       bool     `mapstructure:"HEADLESS"`
	UserAgents     string   `mapstructure:"USER_AGENTS"` // '|' separated; agents contain commas
	Proxies        []string `mapstructure:"PROXIES"`
	AcceptLanguage string   `mapstructure:"ACCEPT_LANGUAGE"`

	// Sinks
	OutputFile     string        `mapstructure:"OUTPUT_FILE"`
	APIURL         string        `mapstructure:"API_URL"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	TableName      string        `mapstructure:"TABLE_NAME"`
	MaxRetries     int           `mapstructure:"MAX_RETRIES"`
	RetryDelay     time.Duration `mapstructure:"RETRY_DELAY"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	Backoff        bool          `mapstructure:"BACKOFF"`

	// Services
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	DeduplicationHours int    `mapstructure:"DEDUPLICATION_HOURS"`
	ServerPort         string `mapstructure:"SERVER_PORT"`
	LogLevel           string `mapstructure:"LOG_LEVEL"`
	LogDevelopment     bool   `mapstructure:"LOG_DEVELOPMENT"`
}

var defaults = map[string]any{
	"BASE_URL":            "https://www.amazon.com",
	"SEARCH_PATH":         "/s",
	"SEARCH_PARAM":        "k",
	"KEYWORDS":            []string{},
	"START_URL":           "",
	"ITEM_SELECTOR":       `div[role="listitem"]`,
	"NEXT_SELECTOR":       "a.s-pagination-next",
	"MAX_PAGES":           5,
	"PAGE_LOAD_TIMEOUT":   15 * time.Second,
	"MAX_SCROLLS":         10,
	"SCROLL_PAUSE":        500 * time.Millisecond,
	"SETTLE_WAIT":         2 * time.Second,
	"PAGE_DELAY_MIN":      2 * time.Second,
	"PAGE_DELAY_MAX":      4 * time.Second,
	"CRAWL_WORKERS":       1,
	"HEADLESS":            true,
	"USER_AGENTS":         "",
	"PROXIES":             []string{},
	"ACCEPT_LANGUAGE":     "en-US,en;q=0.9",
	"OUTPUT_FILE":         "",
	"API_URL":             "",
	"DATABASE_URL":        "",
	"TABLE_NAME":          "products",
	"MAX_RETRIES":         3,
	"RETRY_DELAY":         2 * time.Second,
	"REQUEST_TIMEOUT":     10 * time.Second,
	"BACKOFF":             false,
	"REDIS_ADDR":          "",
	"DEDUPLICATION_HOURS": 24,
	"SERVER_PORT":         "8080",
	"LOG_LEVEL":           "info",
	"LOG_DEVELOPMENT":     false,
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"base-url":     "BASE_URL",
	"start-url":    "START_URL",
	"max-pages":    "MAX_PAGES",
	"max-scrolls":  "MAX_SCROLLS",
	"output":       "OUTPUT_FILE",
	"api-url":      "API_URL",
	"database-url": "DATABASE_URL",
	"table":        "TABLE_NAME",
	"max-retries":  "MAX_RETRIES",
	"retry-delay":  "RETRY_DELAY",
	"backoff":      "BACKOFF",
	"workers":      "CRAWL_WORKERS",
	"headless":     "HEADLESS",
	"port":         "SERVER_PORT",
	"log-level":    "LOG_LEVEL",
}

// Load reads configuration from an optional file, environment variables and
// command-line flags, in increasing order of precedence. configFile may be
// empty, in which case a .env file in the working directory is used if present.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
		// A missing .env is fine; configuration may come purely from the environment.
		_ = v.ReadInConfig()
	}

	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Keywords = splitList(cfg.Keywords)
	cfg.Proxies = splitList(cfg.Proxies)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the crawler cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxPages < 1 {
		errs = append(errs, fmt.Errorf("MAX_PAGES must be at least 1, got %d", c.MaxPages))
	}
	if c.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("MAX_RETRIES must be at least 1, got %d", c.MaxRetries))
	}
	if c.MaxScrolls < 0 {
		errs = append(errs, fmt.Errorf("MAX_SCROLLS must not be negative, got %d", c.MaxScrolls))
	}
	if c.CrawlWorkers < 1 {
		errs = append(errs, fmt.Errorf("CRAWL_WORKERS must be at least 1, got %d", c.CrawlWorkers))
	}
	for key, d := range map[string]time.Duration{
		"PAGE_LOAD_TIMEOUT": c.PageLoadTimeout,
		"SCROLL_PAUSE":      c.ScrollPause,
		"SETTLE_WAIT":       c.SettleWait,
		"PAGE_DELAY_MIN":    c.PageDelayMin,
		"PAGE_DELAY_MAX":    c.PageDelayMax,
		"RETRY_DELAY":       c.RetryDelay,
		"REQUEST_TIMEOUT":   c.RequestTimeout,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", key, d))
		}
	}
	if strings.TrimSpace(c.TableName) == "" {
		errs = append(errs, errors.New("TABLE_NAME must not be empty"))
	}
	return errors.Join(errs...)
}

// DeduplicationWindow is how long a crawled keyword is remembered.
func (c *Config) DeduplicationWindow() time.Duration {
	return time.Duration(c.DeduplicationHours) * time.Hour
}

// UserAgentList returns the configured user agents.
func (c *Config) UserAgentList() []string {
	var out []string
	for _, ua := range strings.Split(c.UserAgents, "|") {
		if ua = strings.TrimSpace(ua); ua != "" {
			out = append(out, ua)
		}
	}
	return out
}

// splitList flattens comma-separated entries and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, part := range strings.Split(entry, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
