package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

// Config holds all configuration
type Config struct {
	MySQL             MySQLConfig
	Redis             RedisConfig
	JWT               JWTConfig
	Migrate           bool
	HTTPAddr          string
	SecretKey         string // basis for player credential encryption
	RolloutPoller     RolloutPollerConfig
	PlaybackCollector PlaybackCollectorConfig
	StatusWorker      StatusWorkerConfig
}

// MySQLConfig holds MySQL configuration
type MySQLConfig struct {
	DSN string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	ExpireMinutes int
	Issuer        string
}

// RolloutPollerConfig holds deploy task poller configuration
type RolloutPollerConfig struct {
	IntervalSec int
}

// PlaybackCollectorConfig holds playback log collector configuration
type PlaybackCollectorConfig struct {
	Enabled     bool
	IntervalSec int
	LockTTLSec  int
	Concurrency int
}

// StatusWorkerConfig holds player status worker configuration
type StatusWorkerConfig struct {
	Enabled              bool
	IntervalSec          int
	TimeoutSec           int
	Concurrency          int
	OfflineFailThreshold int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getEnv("MYSQL_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASS", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:        os.Getenv("JWT_SECRET"),
			ExpireMinutes: getEnvInt("JWT_EXPIRE_MINUTES", 1440),
			Issuer:        getEnv("JWT_ISSUER", "go_fleet"),
		},
		Migrate:   getEnv("MIGRATE", "0") == "1",
		HTTPAddr:  getEnv("HTTP_ADDR", ":8080"),
		SecretKey: getEnv("SECRET_KEY", ""),
		RolloutPoller: RolloutPollerConfig{
			IntervalSec: getEnvInt("ROLLOUT_POLL_INTERVAL_SEC", 2),
		},
		PlaybackCollector: PlaybackCollectorConfig{
			Enabled:     getEnv("PLAYBACK_COLLECTOR_ENABLED", "1") == "1",
			IntervalSec: getEnvInt("PLAYBACK_COLLECTOR_INTERVAL_SEC", 30),
			LockTTLSec:  getEnvInt("PLAYBACK_COLLECTOR_LOCK_TTL_SEC", 120),
			Concurrency: getEnvInt("PLAYBACK_COLLECTOR_CONCURRENCY", 5),
		},
		StatusWorker: StatusWorkerConfig{
			Enabled:              getEnv("STATUS_WORKER_ENABLED", "1") == "1",
			IntervalSec:          getEnvInt("STATUS_WORKER_INTERVAL_SEC", 15),
			TimeoutSec:           getEnvInt("STATUS_WORKER_TIMEOUT_SEC", 5),
			Concurrency:          getEnvInt("STATUS_WORKER_CONCURRENCY", 10),
			OfflineFailThreshold: getEnvInt("STATUS_WORKER_OFFLINE_THRESHOLD", 2),
		},
	}

	// Validate required fields
	if cfg.MySQL.DSN == "" {
		return nil, fmt.Errorf("MYSQL_DSN is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.SecretKey == "" {
		cfg.SecretKey = cfg.JWT.Secret
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// LoadFromINI loads configuration from INI file with environment variable override
func LoadFromINI(iniPath string) (*Config, error) {
	cfgFile, err := ini.Load(iniPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load INI file: %w", err)
	}

	// Helper function: get value with priority: ENV > INI > default
	getValue := func(envKey, iniSection, iniKey, defaultValue string) string {
		if value := os.Getenv(envKey); value != "" {
			return value
		}
		if value := cfgFile.Section(iniSection).Key(iniKey).String(); value != "" {
			return value
		}
		return defaultValue
	}

	getValueInt := func(envKey, iniSection, iniKey string, defaultValue int) int {
		if value := os.Getenv(envKey); value != "" {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		if cfgFile.Section(iniSection).HasKey(iniKey) {
			if value, err := cfgFile.Section(iniSection).Key(iniKey).Int(); err == nil {
				return value
			}
		}
		return defaultValue
	}

	getValueBool := func(envKey, iniSection, iniKey string, defaultValue bool) bool {
		if value := os.Getenv(envKey); value != "" {
			return value == "1" || value == "true"
		}
		if value, err := cfgFile.Section(iniSection).Key(iniKey).Bool(); err == nil {
			return value
		}
		return defaultValue
	}

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getValue("MYSQL_DSN", "mysql", "dsn", ""),
		},
		Redis: RedisConfig{
			Addr:     getValue("REDIS_ADDR", "redis", "addr", "localhost:6379"),
			Password: getValue("REDIS_PASS", "redis", "pass", ""),
			DB:       getValueInt("REDIS_DB", "redis", "db", 0),
		},
		JWT: JWTConfig{
			Secret:        getValue("JWT_SECRET", "jwt", "secret", ""),
			ExpireMinutes: getValueInt("JWT_EXPIRE_MINUTES", "jwt", "expire_minutes", 1440),
			Issuer:        getValue("JWT_ISSUER", "jwt", "issuer", "go_fleet"),
		},
		Migrate:   getValueBool("MIGRATE", "app", "migrate", false),
		HTTPAddr:  getValue("HTTP_ADDR", "http", "addr", ":8080"),
		SecretKey: getValue("SECRET_KEY", "app", "secret_key", ""),
		RolloutPoller: RolloutPollerConfig{
			IntervalSec: getValueInt("ROLLOUT_POLL_INTERVAL_SEC", "rollout_poller", "interval_sec", 2),
		},
		PlaybackCollector: PlaybackCollectorConfig{
			Enabled:     getValueBool("PLAYBACK_COLLECTOR_ENABLED", "playback_collector", "enabled", true),
			IntervalSec: getValueInt("PLAYBACK_COLLECTOR_INTERVAL_SEC", "playback_collector", "interval_sec", 30),
			LockTTLSec:  getValueInt("PLAYBACK_COLLECTOR_LOCK_TTL_SEC", "playback_collector", "lock_ttl_sec", 120),
			Concurrency: getValueInt("PLAYBACK_COLLECTOR_CONCURRENCY", "playback_collector", "concurrency", 5),
		},
		StatusWorker: StatusWorkerConfig{
			Enabled:              getValueBool("STATUS_WORKER_ENABLED", "status_worker", "enabled", true),
			IntervalSec:          getValueInt("STATUS_WORKER_INTERVAL_SEC", "status_worker", "interval_sec", 15),
			TimeoutSec:           getValueInt("STATUS_WORKER_TIMEOUT_SEC", "status_worker", "timeout_sec", 5),
			Concurrency:          getValueInt("STATUS_WORKER_CONCURRENCY", "status_worker", "concurrency", 10),
			OfflineFailThreshold: getValueInt("STATUS_WORKER_OFFLINE_THRESHOLD", "status_worker", "offline_fail_threshold", 2),
		},
	}

	// Validate required fields
	if cfg.MySQL.DSN == "" {
		return nil, fmt.Errorf("MYSQL_DSN is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.SecretKey == "" {
		cfg.SecretKey = cfg.JWT.Secret
	}

	return cfg, nil
}
