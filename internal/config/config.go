package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Token store backends.
const (
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	API      APIConfig      `yaml:"api"`
	Session  SessionConfig  `yaml:"session"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	Client   ClientConfig   `yaml:"client"`
	Debug    bool           `yaml:"debug"`
}

type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst int           `yaml:"rate_burst"`
}

type SessionConfig struct {
	Profile    string `yaml:"profile"`
	Store      string `yaml:"store"` // "file", "redis", "postgres", "memory"
	TokenFile  string `yaml:"token_file"`
	Passphrase string `yaml:"-"` // env only, never read from a file
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type ClientConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval"`
	SearchDebounce time.Duration `yaml:"search_debounce"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func defaults() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "http://localhost:8000",
			Timeout:   15 * time.Second,
			RateLimit: 10,
			RateBurst: 20,
		},
		Session: SessionConfig{
			Profile: "default",
			Store:   StoreFile,
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "fanbase",
			DBName:  "fanbase",
			SSLMode: "disable",
		},
		Client: ClientConfig{
			PollInterval:   30 * time.Second,
			SearchDebounce: 500 * time.Millisecond,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// FANBASE_CONFIG (if any), then environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path, ok := os.LookupEnv("FANBASE_CONFIG"); ok && path != "" {
		if err := loadFile(filepath.Clean(path), cfg); err != nil {
			return nil, err
		}
	}

	cfg.API.BaseURL = getEnv("FANBASE_API_URL", cfg.API.BaseURL)
	cfg.API.Timeout = getEnvDuration("FANBASE_HTTP_TIMEOUT", cfg.API.Timeout)
	cfg.API.RateLimit = getEnvFloat("FANBASE_RATE_LIMIT", cfg.API.RateLimit)
	cfg.API.RateBurst = getEnvInt("FANBASE_RATE_BURST", cfg.API.RateBurst)

	cfg.Session.Profile = getEnv("FANBASE_PROFILE", cfg.Session.Profile)
	cfg.Session.Store = strings.ToLower(getEnv("FANBASE_TOKEN_STORE", cfg.Session.Store))
	cfg.Session.TokenFile = getEnv("FANBASE_TOKEN_FILE", cfg.Session.TokenFile)
	cfg.Session.Passphrase = getEnv("FANBASE_TOKEN_PASSPHRASE", "")

	cfg.Redis.Host = getEnv("REDIS_HOST", cfg.Redis.Host)
	cfg.Redis.Port = getEnvInt("REDIS_PORT", cfg.Redis.Port)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvInt("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnv("DB_NAME", cfg.Database.DBName)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)

	cfg.Client.PollInterval = getEnvDuration("FANBASE_POLL_INTERVAL", cfg.Client.PollInterval)
	cfg.Client.SearchDebounce = getEnvDuration("FANBASE_SEARCH_DEBOUNCE", cfg.Client.SearchDebounce)

	cfg.Debug = getEnvBool("FANBASE_DEBUG", cfg.Debug)

	if cfg.Session.TokenFile == "" && cfg.Session.Store == StoreFile {
		cfg.Session.TokenFile = DefaultTokenFile(cfg.Session.Profile)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later in confusing ways.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api base url %q", c.API.BaseURL)
	}
	switch c.Session.Store {
	case StoreFile, StoreRedis, StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown token store %q", c.Session.Store)
	}
	if strings.TrimSpace(c.Session.Profile) == "" {
		return fmt.Errorf("session profile must not be empty")
	}
	if c.Client.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Client.PollInterval)
	}
	if c.Client.SearchDebounce < 0 {
		return fmt.Errorf("search debounce must not be negative, got %s", c.Client.SearchDebounce)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from the operator
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// DefaultTokenFile is where the file store keeps profile's session.
func DefaultTokenFile(profile string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "fanbase", "session-"+profile+".json")
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
