package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigDir  = ".research-terminal"
	DefaultConfigFile = "config.yaml"
	DefaultEnvFile    = ".env.local"

	DefaultBackendURL = "http://localhost:6666"
)

// Config represents the application configuration
type Config struct {
	// BackendURL is the origin every /api request is sent to (and proxied to)
	BackendURL     string        `yaml:"backend_url" env:"BACKEND_URL"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`

	References ReferencesConfig `yaml:"references"`
	TagCloud   TagCloudConfig   `yaml:"tag_cloud"`
	Chat       ChatConfig       `yaml:"chat"`
	Cache      CacheConfig      `yaml:"cache"`
	HTTP       HTTPConfig       `yaml:"http"`
	Proxy      ProxyConfig      `yaml:"proxy"`
	Log        LogConfig        `yaml:"log"`
}

// ReferencesConfig controls the reference list refresh behaviour
type ReferencesConfig struct {
	// PollInterval is how often the list is re-fetched while any reference is unindexed
	PollInterval time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
}

type TagCloudConfig struct {
	MaxTags int `yaml:"max_tags" env:"TAG_CLOUD_MAX_TAGS"`
}

type ChatConfig struct {
	// StreamProtocol is "text" (raw chunks) or "data" (AI data stream lines)
	StreamProtocol string `yaml:"stream_protocol" env:"CHAT_STREAM_PROTOCOL"`
}

// CacheConfig controls the local keyword/contents cache.
// An empty Dir keeps the cache in memory for the lifetime of the process.
type CacheConfig struct {
	Dir        string        `yaml:"dir" env:"CACHE_DIR"`
	KeywordTTL time.Duration `yaml:"keyword_ttl"`
}

type HTTPConfig struct {
	// RateLimit is the maximum number of backend requests per second (0 disables limiting)
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`

	// BreakerFailures consecutive failures open the circuit for BreakerTimeout
	BreakerFailures uint32        `yaml:"breaker_failures"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout"`
}

type ProxyConfig struct {
	Listen string `yaml:"listen" env:"PROXY_LISTEN"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

func DefaultConfig() *Config {
	return &Config{
		BackendURL:     DefaultBackendURL,
		RequestTimeout: 30 * time.Second,
		References: ReferencesConfig{
			PollInterval: 3 * time.Second,
		},
		TagCloud: TagCloudConfig{
			MaxTags: 50,
		},
		Chat: ChatConfig{
			StreamProtocol: "text",
		},
		Cache: CacheConfig{
			KeywordTTL: 10 * time.Minute,
		},
		HTTP: HTTPConfig{
			RateLimit:       10,
			Burst:           5,
			BreakerFailures: 5,
			BreakerTimeout:  15 * time.Second,
		},
		Proxy: ProxyConfig{
			Listen: ":3000",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// GetConfigDir returns the directory holding the config file, logs and cache
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, DefaultConfigDir), nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, DefaultConfigFile), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// Load loads the configuration from file, creating default if not exists,
// then applies environment overrides.
func Load() (*Config, error) {
	cfg, err := loadFile()
	if err != nil {
		return nil, err
	}

	if err := ApplyEnv(cfg, DefaultEnvFile); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func loadFile() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := Save(cfg); err != nil {
			// Unwritable home directories still get a working default
			return cfg, nil
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start from defaults so keys missing from older files keep sane values
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnv loads envFile (if present, without overriding variables already
// set in the process) and copies recognised variables into cfg.
func ApplyEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// Save saves the configuration to file
func Save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend_url must be an absolute URL, got %q", c.BackendURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend_url scheme must be http or https, got %q", u.Scheme)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}

	if c.References.PollInterval < 100*time.Millisecond {
		return fmt.Errorf("references.poll_interval must be at least 100ms, got %s", c.References.PollInterval)
	}

	if c.TagCloud.MaxTags <= 0 {
		return fmt.Errorf("tag_cloud.max_tags must be positive, got %d", c.TagCloud.MaxTags)
	}

	switch c.Chat.StreamProtocol {
	case "text", "data":
	default:
		return fmt.Errorf("chat.stream_protocol must be \"text\" or \"data\", got %q", c.Chat.StreamProtocol)
	}

	if c.Cache.KeywordTTL < 0 {
		return fmt.Errorf("cache.keyword_ttl must not be negative, got %s", c.Cache.KeywordTTL)
	}

	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("http.rate_limit must not be negative, got %f", c.HTTP.RateLimit)
	}
	if c.HTTP.RateLimit > 0 && c.HTTP.Burst <= 0 {
		return fmt.Errorf("http.burst must be positive when rate limiting, got %d", c.HTTP.Burst)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	return nil
}
