// Package config loads service configuration. Defaults are overridden by an
// optional YAML file, which is in turn overridden by environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Cache     CacheConfig     `yaml:"cache"`
	Queue     QueueConfig     `yaml:"queue"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AppConfig identifies the running service.
type AppConfig struct {
	Version     string `yaml:"version" env:"APP_VERSION"`
	Environment string `yaml:"environment" env:"APP_ENV"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	RateLimitPerSec int           `yaml:"rate_limit_per_sec" env:"SERVER_RATE_LIMIT"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" env:"SERVER_RATE_LIMIT_BURST"`
	CORSOrigins     []string      `yaml:"cors_origins" env:"SERVER_CORS_ORIGINS"`
}

// DatabaseConfig controls the statistics store connection.
type DatabaseConfig struct {
	Driver          string `yaml:"driver" env:"DB_DRIVER"`
	DSN             string `yaml:"dsn" env:"DB_DSN"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
}

// RedisConfig controls the cache and queue backend.
type RedisConfig struct {
	Addr         string        `yaml:"addr" env:"REDIS_ADDR"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB           int           `yaml:"db" env:"REDIS_DB"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"REDIS_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"REDIS_WRITE_TIMEOUT"`
}

// CacheConfig controls sequence caching.
type CacheConfig struct {
	TTL       time.Duration `yaml:"ttl" env:"CACHE_TTL"`
	OpTimeout time.Duration `yaml:"op_timeout" env:"CACHE_OP_TIMEOUT"`
}

// QueueConfig controls the tracking message queue.
type QueueConfig struct {
	Key         string        `yaml:"key" env:"QUEUE_KEY"`
	PopTimeout  time.Duration `yaml:"pop_timeout" env:"QUEUE_POP_TIMEOUT"`
	PushTimeout time.Duration `yaml:"push_timeout" env:"QUEUE_PUSH_TIMEOUT"`
}

// ReconcileConfig controls the pending-record sweep.
type ReconcileConfig struct {
	Schedule  string        `yaml:"schedule" env:"RECONCILE_SCHEDULE"`
	Staleness time.Duration `yaml:"staleness" env:"RECONCILE_STALENESS"`
	LockKey   string        `yaml:"lock_key" env:"RECONCILE_LOCK_KEY"`
	LockTTL   time.Duration `yaml:"lock_ttl" env:"RECONCILE_LOCK_TTL"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Format     string `yaml:"format" env:"LOG_FORMAT"`
	Output     string `yaml:"output" env:"LOG_OUTPUT"`
	FilePrefix string `yaml:"file_prefix" env:"LOG_FILE_PREFIX"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Version:     "1.0.0",
			Environment: "dev",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitPerSec: 50,
			RateLimitBurst:  100,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Cache: CacheConfig{
			TTL:       time.Hour,
			OpTimeout: 500 * time.Millisecond,
		},
		Queue: QueueConfig{
			Key:         "fizzbuzz:track",
			PopTimeout:  5 * time.Second,
			PushTimeout: 2 * time.Second,
		},
		Reconcile: ReconcileConfig{
			Schedule:  "@every 1m",
			Staleness: 5 * time.Minute,
			LockKey:   "fizzbuzz:reconcile:lock",
			LockTTL:   30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Load reads configuration from the file named by CONFIG_PATH (default
// config.yaml, missing file ignored), then applies environment overrides.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// Environment wins over file values. With no relevant variables set
	// envdecode reports that nothing was decoded; the defaults stand.
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("server port %d out of range", cfg.Server.Port)
	}

	return cfg, nil
}
