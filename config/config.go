// Package config loads process settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Database struct {
	Driver   string
	Path     string
	Host     string
	User     string
	Password string
	Name     string
	Port     int
}

// DSN builds the PostgreSQL connection URL.
func (d Database) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, fmt.Sprint(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

type Config struct {
	Database   Database
	Port       string
	CORSOrigin string
	RedisAddr  string
	CacheTTL   time.Duration
	WebPort    string
	APIURL     string
	LogLevel   string
	LogFormat  string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_PATH", "./tasks.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "task_manager")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("PORT", "3000")
	v.SetDefault("CORS_ORIGIN", "http://localhost:3001")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("CACHE_TTL", 15*time.Second)
	v.SetDefault("WEB_PORT", "3001")
	v.SetDefault("API_URL", "http://localhost:3000/api")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Load reads configuration. Values from the environment win over the .env file.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
			}
		}
	}

	cfg := &Config{
		Database: Database{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			Path:     v.GetString("DB_PATH"),
			Host:     v.GetString("DB_HOST"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			Port:     v.GetInt("DB_PORT"),
		},
		Port:       v.GetString("PORT"),
		CORSOrigin: v.GetString("CORS_ORIGIN"),
		RedisAddr:  v.GetString("REDIS_ADDR"),
		CacheTTL:   v.GetDuration("CACHE_TTL"),
		WebPort:    v.GetString("WEB_PORT"),
		APIURL:     strings.TrimRight(v.GetString("API_URL"), "/"),
		LogLevel:   v.GetString("LOG_LEVEL"),
		LogFormat:  v.GetString("LOG_FORMAT"),
	}

	if cfg.Port == "" {
		return nil, errors.New("PORT is not configured")
	}
	if cfg.Database.Driver == "postgres" && cfg.Database.Port <= 0 {
		return nil, fmt.Errorf("invalid DB_PORT %d", cfg.Database.Port)
	}
	return cfg, nil
}

// NewLogger builds the process logger and installs it as the slog default.
func (c *Config) NewLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(c.LogFormat, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
