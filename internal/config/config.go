package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	uberconfig "go.uber.org/config"
)

type Config struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	HTTPAddr string `yaml:"http_addr"`
	Timezone string `yaml:"timezone"`

	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Redis   RedisConfig   `yaml:"redis"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Limits  LimitsConfig  `yaml:"limits"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type StorageConfig struct {
	Backend       string        `yaml:"backend"`
	PostgresDSN   string        `yaml:"postgres_dsn"`
	MongoURI      string        `yaml:"mongo_uri"`
	MongoDatabase string        `yaml:"mongo_database"`
	EntriesFile   string        `yaml:"entries_file"`
	UsersFile     string        `yaml:"users_file"`
	Timeout       time.Duration `yaml:"timeout"`
	AutoMigrate   bool          `yaml:"auto_migrate"`
}

type AuthConfig struct {
	Mode       string `yaml:"mode"`
	JWTSecret  string `yaml:"jwt_secret"`
	ServiceURL string `yaml:"service_url"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	StatsTTL time.Duration `yaml:"stats_ttl"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type LimitsConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type MetricsConfig struct {
	RefreshSpec string `yaml:"refresh_spec"`
}

func defaults() *Config {
	return &Config{
		Env:      "development",
		LogLevel: "info",
		HTTPAddr: ":8088",
		Timezone: "UTC",
		Storage: StorageConfig{
			Backend:       "file",
			MongoDatabase: "mindtrack",
			EntriesFile:   "data/entries.json",
			UsersFile:     "data/users.json",
			Timeout:       5 * time.Second,
		},
		Auth:    AuthConfig{Mode: "token"},
		Redis:   RedisConfig{StatsTTL: time.Minute},
		Kafka:   KafkaConfig{Topic: "tracking-events"},
		Limits:  LimitsConfig{RequestsPerSecond: 10, Burst: 20},
		Metrics: MetricsConfig{RefreshSpec: "@every 5m"},
	}
}

// Load builds the configuration once at startup. Values come from the
// defaults, then the optional YAML file at path, then the environment
// (a .env file in the working directory is loaded first if present).
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env: %w", err)
	}

	cfg := defaults()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		provider, err := uberconfig.NewYAML(uberconfig.File(path), uberconfig.Expand(os.LookupEnv))
		if err != nil {
			return nil, fmt.Errorf("config: failed to create provider: %w", err)
		}
		if err := provider.Get(uberconfig.Root).Populate(cfg); err != nil {
			return nil, fmt.Errorf("config: failed to populate: %w", err)
		}
	}

	if err := cfg.overrideFromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overrideFromEnv() error {
	setString(&c.Env, "APP_ENV")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.HTTPAddr, "HTTP_ADDR")
	setString(&c.Timezone, "TIMEZONE")
	setString(&c.Storage.Backend, "STORAGE_BACKEND")
	setString(&c.Storage.PostgresDSN, "POSTGRES_DSN")
	setString(&c.Storage.MongoURI, "MONGO_URI")
	setString(&c.Storage.MongoDatabase, "MONGO_DATABASE")
	setString(&c.Storage.EntriesFile, "ENTRIES_FILE")
	setString(&c.Storage.UsersFile, "USERS_FILE")
	setString(&c.Auth.Mode, "AUTH_MODE")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Auth.ServiceURL, "AUTH_SERVICE_URL")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Kafka.Topic, "KAFKA_TOPIC")
	setString(&c.Metrics.RefreshSpec, "METRICS_REFRESH_SPEC")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}

	var err error
	if v := os.Getenv("STORE_TIMEOUT"); v != "" {
		if c.Storage.Timeout, err = time.ParseDuration(v); err != nil {
			return fmt.Errorf("config: STORE_TIMEOUT: %w", err)
		}
	}
	if v := os.Getenv("STATS_CACHE_TTL"); v != "" {
		if c.Redis.StatsTTL, err = time.ParseDuration(v); err != nil {
			return fmt.Errorf("config: STATS_CACHE_TTL: %w", err)
		}
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if c.Redis.DB, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("config: REDIS_DB: %w", err)
		}
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if c.Limits.RequestsPerSecond, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("config: RATE_LIMIT_RPS: %w", err)
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if c.Limits.Burst, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("config: RATE_LIMIT_BURST: %w", err)
		}
	}
	if v := os.Getenv("AUTO_MIGRATE"); v != "" {
		if c.Storage.AutoMigrate, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("config: AUTO_MIGRATE: %w", err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "file":
		if c.Storage.EntriesFile == "" || c.Storage.UsersFile == "" {
			return errors.New("file storage requires ENTRIES_FILE and USERS_FILE to be set")
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	case "mongo":
		if c.Storage.MongoURI == "" {
			return errors.New("MONGO_URI is required when STORAGE_BACKEND=mongo")
		}
	default:
		return errors.New("STORAGE_BACKEND must be one of: file, postgres, mongo")
	}
	switch c.Auth.Mode {
	case "token":
	case "jwt":
		if c.Auth.JWTSecret == "" {
			return errors.New("JWT_SECRET is required when AUTH_MODE=jwt")
		}
	case "remote":
		if c.Auth.ServiceURL == "" {
			return errors.New("AUTH_SERVICE_URL is required when AUTH_MODE=remote")
		}
	default:
		return errors.New("AUTH_MODE must be one of: token, jwt, remote")
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	if c.Env == "production" && c.Auth.Mode == "token" {
		return errors.New("AUTH_MODE=token is not allowed in production")
	}
	if c.Storage.Timeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	return nil
}

// Location resolves the timezone used to compute calendar days.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
