// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// devSecret is only accepted outside production.
const devSecret = "dev-insecure-secret-change"

type Config struct {
	Env         string // dev, test, prod
	HTTPAddr    string
	DBDriver    string // postgres or sqlite
	DBDSN       string
	AutoMigrate bool

	JWTSecret    []byte
	CookieSecure bool

	UploadBase    string
	TemplateDir   string // empty means use the embedded templates
	TemplateWatch bool

	LogLevel        string
	LoginRatePerMin int
	AdminPassword   string
}

// Load reads ./.env (without overriding variables already set) and then the environment.
func Load() (Config, error) {
	// a missing .env is normal
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Env:             strings.ToLower(getEnv("APP_ENV", "dev")),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8081"),
		DBDriver:        strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBDSN:           os.Getenv("DB_DSN"),
		AutoMigrate:     getBool("DB_AUTO_MIGRATE", true),
		CookieSecure:    getBool("COOKIE_SECURE", false),
		UploadBase:      getEnv("UPLOAD_BASE", "uploads"),
		TemplateDir:     os.Getenv("TEMPLATE_DIR"),
		TemplateWatch:   getBool("TEMPLATE_WATCH", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LoginRatePerMin: getInt("LOGIN_RATE_PER_MIN", 10),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
	}
	if cfg.DBDSN == "" {
		return cfg, errors.New("DB_DSN is not set")
	}
	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return cfg, errors.New("DB_DRIVER must be postgres or sqlite")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if cfg.IsProd() {
			return cfg, errors.New("JWT_SECRET is required when APP_ENV=prod")
		}
		secret = devSecret
	}
	cfg.JWTSecret = []byte(secret)
	return cfg, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" || c.Env == "production" }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "":
		return fallback
	case "false", "0", "no", "off":
		return false
	case "true", "1", "yes", "on":
		return true
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
