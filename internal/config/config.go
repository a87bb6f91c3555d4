package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config is the full runtime configuration of the retail core.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Confirm   ConfirmConfig
	Scheduler SchedulerConfig
	Log       LogConfig
}

// ServerConfig holds listener addresses for both transports.
type ServerConfig struct {
	HTTPAddr string
	GRPCAddr string
}

// DatabaseConfig selects the store and where demo CSVs live.
type DatabaseConfig struct {
	Driver      string
	DSN         string
	DataDir     string
	LoadOnStart bool
}

// RedisConfig enables the shared SKU set when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ConfirmConfig struct {
	TokenTTL time.Duration
}

// SchedulerConfig holds the reorder report schedule; empty disables it.
type SchedulerConfig struct {
	ReorderCron string
}

type LogConfig struct {
	Level string
}

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Load reads environment variables, optionally from envFile first, and
// validates the result.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine when everything comes from the environment.
		_ = godotenv.Load()
	}

	loadOnStart, err := strconv.ParseBool(getenvWithDefault("RETAILCORE_LOAD_ON_START", "true"))
	if err != nil {
		return nil, fmt.Errorf("RETAILCORE_LOAD_ON_START: %w", err)
	}
	ttl, err := time.ParseDuration(getenvWithDefault("RETAILCORE_CONFIRM_TOKEN_TTL", "900s"))
	if err != nil {
		return nil, fmt.Errorf("RETAILCORE_CONFIRM_TOKEN_TTL: %w", err)
	}
	redisDB, err := strconv.Atoi(getenvWithDefault("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}

	dataDir := getenvWithDefault("RETAILCORE_DATA_DIR", "./data")
	driver := strings.ToLower(getenvWithDefault("RETAILCORE_DB_DRIVER", DriverSQLite))
	dsn := os.Getenv("RETAILCORE_DB_DSN")
	if dsn == "" && driver == DriverSQLite {
		dsn = dataDir + "/retail.db"
	}

	cfg := &Config{
		Server: ServerConfig{
			HTTPAddr: getenvWithDefault("RETAILCORE_HTTP_ADDR", ":8080"),
			GRPCAddr: getenvWithDefault("RETAILCORE_GRPC_ADDR", ":50051"),
		},
		Database: DatabaseConfig{
			Driver:      driver,
			DSN:         dsn,
			DataDir:     dataDir,
			LoadOnStart: loadOnStart,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Confirm: ConfirmConfig{
			TokenTTL: ttl,
		},
		Scheduler: SchedulerConfig{
			ReorderCron: os.Getenv("RETAILCORE_REORDER_CRON"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("RETAILCORE_LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.HTTPAddr == "" {
		return errors.New("RETAILCORE_HTTP_ADDR must not be empty")
	}
	if c.Server.GRPCAddr == "" {
		return errors.New("RETAILCORE_GRPC_ADDR must not be empty")
	}

	switch c.Database.Driver {
	case DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("RETAILCORE_DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverMySQL, c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("RETAILCORE_DB_DSN must be provided for mysql")
	}
	if c.Database.LoadOnStart && c.Database.DataDir == "" {
		return errors.New("RETAILCORE_DATA_DIR must be provided when RETAILCORE_LOAD_ON_START is true")
	}

	if c.Confirm.TokenTTL <= 0 {
		return errors.New("RETAILCORE_CONFIRM_TOKEN_TTL must be positive")
	}

	if c.Scheduler.ReorderCron != "" {
		if _, err := cron.ParseStandard(c.Scheduler.ReorderCron); err != nil {
			return fmt.Errorf("RETAILCORE_REORDER_CRON: %w", err)
		}
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
