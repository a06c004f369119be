package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Mode identifies the deployment environment. Authentication bypass paths
// (mock-user header, anonymous dev identity, ownership-guard skip) are only
// reachable in Development.
type Mode string

const (
	Development Mode = "development"
	Production  Mode = "production"
)

// devJWTSecret is only ever used in Development mode; Load flags its use so
// main can log a loud warning.
const devJWTSecret = "taskdeck-dev-insecure-secret"

// Config holds the application configuration.
type Config struct {
	ServerPort     int
	DatabasePath   string
	JWTSecret      string
	TokenTTL       time.Duration
	Mode           Mode
	AllowedOrigins []string
	// UsingDevSecret is set when no JWT_SECRET was provided and the insecure
	// development default is in effect.
	UsingDevSecret bool
}

// Load loads configuration from environment variables or sets defaults.
// A .env file is honored when present (local development); its absence is
// not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
	}

	mode, err := parseMode(getEnv("APP_ENV", string(Development)))
	if err != nil {
		return nil, err
	}

	ttlStr := getEnv("TOKEN_TTL", "30m")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL %q: %w", ttlStr, err)
	}

	cfg := &Config{
		ServerPort:     port,
		DatabasePath:   getEnv("DATABASE_PATH", "./taskdeck.db"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenTTL:       ttl,
		Mode:           mode,
		AllowedOrigins: splitOrigins(os.Getenv("ALLOWED_ORIGINS")),
	}

	if cfg.JWTSecret == "" {
		if cfg.Mode == Production {
			return nil, errors.New("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = devJWTSecret
		cfg.UsingDevSecret = true
	}

	if len(cfg.AllowedOrigins) == 0 {
		if cfg.Mode == Production {
			return nil, errors.New("ALLOWED_ORIGINS is required in production")
		}
		cfg.AllowedOrigins = defaultDevOrigins()
	}

	return cfg, nil
}

// IsDevelopment reports whether development bypass paths may be taken.
func (c *Config) IsDevelopment() bool {
	return c.Mode == Development
}

func parseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Development), "dev", "":
		return Development, nil
	case string(Production), "prod":
		return Production, nil
	default:
		return "", fmt.Errorf("unknown APP_ENV %q (want %q or %q)", s, Development, Production)
	}
}

func splitOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var origins []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			origins = append(origins, part)
		}
	}
	return origins
}

func defaultDevOrigins() []string {
	return []string{
		"http://localhost:3000",
		"http://localhost:3001",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:3001",
	}
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
