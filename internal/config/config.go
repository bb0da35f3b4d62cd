package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Env           string
	Port          string
	StorageDriver string
	Database      DatabaseConfig

	JWTSecret    string
	JWTExpiresIn time.Duration

	CORSOrigins   []string
	CookieEnabled bool
	CookieName    string
	BcryptCost    int

	// Optional. When set, rate limits and real-time fan-out go through Redis.
	RedisURL string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	expiresIn, err := ParseDuration(getenv("JWT_EXPIRES_IN", "7d"))
	if err != nil {
		return Config{}, fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}

	cfg := Config{
		Env:           getenv("APP_ENV", EnvDevelopment),
		Port:          getenv("PORT", "8080"),
		StorageDriver: getenv("STORAGE_DRIVER", StoragePostgres),
		Database: DatabaseConfig{
			URL:      getenv("DATABASE_URL", ""),
			Host:     getenv("DB_HOST", "localhost"),
			Port:     getenv("DB_PORT", "5432"),
			User:     getenv("DB_USER", "postgres"),
			Password: getenv("DB_PASSWORD", "postgres"),
			Name:     getenv("DB_NAME", "comments"),
			SSLMode:  getenv("DB_SSLMODE", "disable"),
		},
		JWTSecret:     getenv("JWT_SECRET", ""),
		JWTExpiresIn:  expiresIn,
		CORSOrigins:   splitList(getenv("CORS_ORIGIN", "http://localhost:3000,http://localhost:5173")),
		CookieEnabled: getenvBool("AUTH_COOKIE_ENABLED", true),
		CookieName:    getenv("AUTH_COOKIE_NAME", "token"),
		BcryptCost:    getenvInt("BCRYPT_COST", bcrypt.DefaultCost),
		RedisURL:      getenv("REDIS_URL", ""),
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return Config{}, errors.New("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = "comments-dev-secret"
	}
	switch cfg.StorageDriver {
	case StorageMemory, StoragePostgres:
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// DSN returns DATABASE_URL when set, otherwise a keyword/value DSN built from DB_*.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// ParseDuration accepts anything time.ParseDuration does plus a whole-day
// suffix, so "7d" and "168h" are equivalent.
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	return d, nil
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
