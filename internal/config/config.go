package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Archive ArchiveConfig
	Feed    FeedConfig
	Sync    SyncConfig
	CORS    CORSConfig
	Log     LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// ArchiveConfig holds S3 settings for the raw-XML archive.
type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// FeedConfig holds fiscal distribution feed settings.
type FeedConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	APIKey      string `mapstructure:"api_key"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// SyncConfig holds feed sync worker settings.
type SyncConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	PollIntervalSecs int  `mapstructure:"poll_interval_secs"`
	Concurrency      int  `mapstructure:"concurrency"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the NFECUSTO_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NFECUSTO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "nfecusto")
	v.SetDefault("db.password", "nfecusto_secret")
	v.SetDefault("db.name", "nfecusto_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Archive defaults
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.bucket", "nfecusto-xml")
	v.SetDefault("archive.endpoint", "")

	// Feed defaults
	v.SetDefault("feed.base_url", "https://api.nuvemfiscal.com.br")
	v.SetDefault("feed.api_key", "")
	v.SetDefault("feed.timeout_secs", 60)

	// Sync defaults
	v.SetDefault("sync.enabled", false)
	v.SetDefault("sync.poll_interval_secs", 900)
	v.SetDefault("sync.concurrency", 2)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":             "NFECUSTO_SERVER_PORT",
		"server.read_timeout":     "NFECUSTO_SERVER_READ_TIMEOUT",
		"server.write_timeout":    "NFECUSTO_SERVER_WRITE_TIMEOUT",
		"server.environment":      "NFECUSTO_SERVER_ENVIRONMENT",
		"db.host":                 "NFECUSTO_DB_HOST",
		"db.port":                 "NFECUSTO_DB_PORT",
		"db.user":                 "NFECUSTO_DB_USER",
		"db.password":             "NFECUSTO_DB_PASSWORD",
		"db.name":                 "NFECUSTO_DB_NAME",
		"db.sslmode":              "NFECUSTO_DB_SSLMODE",
		"db.max_open":             "NFECUSTO_DB_MAX_OPEN",
		"db.max_idle":             "NFECUSTO_DB_MAX_IDLE",
		"archive.enabled":         "NFECUSTO_ARCHIVE_ENABLED",
		"archive.region":          "NFECUSTO_ARCHIVE_REGION",
		"archive.bucket":          "NFECUSTO_ARCHIVE_BUCKET",
		"archive.endpoint":        "NFECUSTO_ARCHIVE_ENDPOINT",
		"archive.access_key":      "NFECUSTO_ARCHIVE_ACCESS_KEY",
		"archive.secret_key":      "NFECUSTO_ARCHIVE_SECRET_KEY",
		"feed.base_url":           "NFECUSTO_FEED_BASE_URL",
		"feed.api_key":            "NFECUSTO_FEED_API_KEY",
		"feed.timeout_secs":       "NFECUSTO_FEED_TIMEOUT_SECS",
		"sync.enabled":            "NFECUSTO_SYNC_ENABLED",
		"sync.poll_interval_secs": "NFECUSTO_SYNC_POLL_INTERVAL_SECS",
		"sync.concurrency":        "NFECUSTO_SYNC_CONCURRENCY",
		"cors.allowed_origins":    "NFECUSTO_CORS_ALLOWED_ORIGINS",
		"log.level":               "NFECUSTO_LOG_LEVEL",
		"log.format":              "NFECUSTO_LOG_FORMAT",
	}
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Comma-separated origins arrive as a single string from the environment.
	if raw := os.Getenv("NFECUSTO_CORS_ALLOWED_ORIGINS"); raw != "" {
		cfg.CORS.AllowedOrigins = splitAndTrim(raw)
	} else if len(cfg.CORS.AllowedOrigins) == 1 && strings.Contains(cfg.CORS.AllowedOrigins[0], ",") {
		cfg.CORS.AllowedOrigins = splitAndTrim(cfg.CORS.AllowedOrigins[0])
	}

	return &cfg, nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
