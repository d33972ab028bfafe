// Package config loads the bot configuration from a JSON file and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

const (
	DefaultCatalogURL   = "https://api.hh.ru"
	DefaultSessionDrv   = "memory"
	DefaultSQLitePath   = "data/sessions.db"
	DefaultRedisPrefix  = "hhbot:"
	DefaultResultsLimit = 10
	DefaultResultsDelay = 300
	DefaultLogMaxSize   = 1024 * 1024

	// MinResultsDelay is the lowest pause between result messages, in milliseconds.
	MinResultsDelay = 100
	DefaultLocale       = "en"
)

type Config struct {
	BotToken     string   `json:"bot_token"`
	AllowedUsers []string `json:"allowed_users"`
	LogLevel     string   `json:"log_level"`
	LogPath      string   `json:"log_path"`
	LogMaxSize   int64    `json:"log_max_size"`
	BackendURL   string   `json:"backend_url"`
	CatalogURL   string   `json:"catalog_url"`
	ProxyURL     string   `json:"proxy_url"`
	Locale       string   `json:"locale"`

	Session SessionConfig `json:"session"`
	Results ResultsConfig `json:"results"`
	Notify  NotifyConfig  `json:"notify"`
}

// SessionConfig selects the wizard session backend.
type SessionConfig struct {
	Driver        string `json:"driver"`
	SQLitePath    string `json:"sqlite_path"`
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`
	RedisPrefix   string `json:"redis_prefix"`
}

// ResultsConfig controls how search results are delivered.
type ResultsConfig struct {
	Limit   int `json:"limit"`
	DelayMS int `json:"delay_ms"`
}

// NotifyConfig configures the HTTP hook the backend calls after authorization.
// An empty ListenAddr disables it.
type NotifyConfig struct {
	ListenAddr string `json:"listen_addr"`
	Token      string `json:"token"`
}

// Load reads the JSON file at path, then applies environment overrides and defaults.
// An empty path skips the file and uses the environment only.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process environment.
// Variables already set are kept. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

func (c *Config) applyEnv() {
	c.BotToken = getEnv("BOT_TOKEN", c.BotToken)
	if users := getEnv("ALLOWED_USERS", ""); users != "" {
		c.AllowedUsers = splitList(users)
	}
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogPath = getEnv("LOG_PATH", c.LogPath)
	c.LogMaxSize = int64(getEnvInt("LOG_MAX_SIZE", int(c.LogMaxSize)))
	c.BackendURL = getEnv("BACKEND_URL", c.BackendURL)
	c.CatalogURL = getEnv("CATALOG_URL", c.CatalogURL)
	c.ProxyURL = getEnv("PROXY_URL", c.ProxyURL)
	c.Locale = getEnv("LOCALE", c.Locale)

	c.Session.Driver = getEnv("SESSION_DRIVER", c.Session.Driver)
	c.Session.SQLitePath = getEnv("SQLITE_PATH", c.Session.SQLitePath)
	c.Session.RedisAddr = getEnv("REDIS_ADDR", c.Session.RedisAddr)
	c.Session.RedisPassword = getEnv("REDIS_PASSWORD", c.Session.RedisPassword)
	c.Session.RedisDB = getEnvInt("REDIS_DB", c.Session.RedisDB)
	c.Session.RedisPrefix = getEnv("REDIS_PREFIX", c.Session.RedisPrefix)

	c.Results.Limit = getEnvInt("RESULTS_LIMIT", c.Results.Limit)
	c.Results.DelayMS = getEnvInt("RESULTS_DELAY_MS", c.Results.DelayMS)

	c.Notify.ListenAddr = getEnv("NOTIFY_ADDR", c.Notify.ListenAddr)
	c.Notify.Token = getEnv("NOTIFY_TOKEN", c.Notify.Token)
}

func (c *Config) applyDefaults() {
	if c.LogMaxSize == 0 {
		c.LogMaxSize = DefaultLogMaxSize
	}
	c.BackendURL = strings.TrimRight(c.BackendURL, "/")
	if c.CatalogURL == "" {
		c.CatalogURL = DefaultCatalogURL
	}
	c.CatalogURL = strings.TrimRight(c.CatalogURL, "/")
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
	if c.Session.Driver == "" {
		c.Session.Driver = DefaultSessionDrv
	}
	if c.Session.SQLitePath == "" {
		c.Session.SQLitePath = DefaultSQLitePath
	}
	if c.Session.RedisPrefix == "" {
		c.Session.RedisPrefix = DefaultRedisPrefix
	}
	if c.Results.Limit == 0 {
		c.Results.Limit = DefaultResultsLimit
	}
	if c.Results.DelayMS == 0 {
		c.Results.DelayMS = DefaultResultsDelay
	}
}

// Validate checks that required settings are present and well formed.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("bot_token (BOT_TOKEN) cannot be empty")
	}
	if err := validateHTTPURL("backend_url", c.BackendURL); err != nil {
		return err
	}
	if err := validateHTTPURL("catalog_url", c.CatalogURL); err != nil {
		return err
	}
	if c.ProxyURL != "" {
		u, err := url.Parse(c.ProxyURL)
		if err != nil || u.Host == "" {
			return fmt.Errorf("proxy_url %q is not a valid URL", c.ProxyURL)
		}
		switch u.Scheme {
		case "http", "https", "socks5", "socks5h":
		default:
			return fmt.Errorf("proxy_url scheme %q is not supported", u.Scheme)
		}
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("locale %q: %w", c.Locale, err)
	}

	switch c.Session.Driver {
	case "memory":
	case "sqlite":
		if c.Session.SQLitePath == "" {
			return fmt.Errorf("session.sqlite_path cannot be empty")
		}
	case "redis":
		if c.Session.RedisAddr == "" {
			return fmt.Errorf("session.redis_addr (REDIS_ADDR) is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown session.driver %q (want memory, sqlite or redis)", c.Session.Driver)
	}

	if c.Results.Limit < 0 {
		return fmt.Errorf("results.limit cannot be negative")
	}
	return nil
}

// Language returns the parsed locale, falling back to English.
func (c *Config) Language() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

// ResultsDelay returns the pause between result messages, never below MinResultsDelay.
func (c *Config) ResultsDelay() time.Duration {
	ms := c.Results.DelayMS
	if ms < MinResultsDelay {
		ms = MinResultsDelay
	}
	return time.Duration(ms) * time.Millisecond
}

func validateHTTPURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s %q must be an http(s) URL", name, raw)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
