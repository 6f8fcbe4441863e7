// Package config loads the server configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/universitydao/walletauth/core"
)

const (
	DefaultHTTPAddr = ":9000"
	DefaultAppName  = "UniversityDAO"
	DefaultIssuer   = "universitydao"
	DefaultAudience = "universitydao:session"
	DefaultNonceTTL = 5 * time.Minute
)

// Config holds the runtime configuration of the auth server
type Config struct {
	HTTPAddr    string
	AppName     string
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	NonceTTL    time.Duration
	CORSOrigins []string
	DatabaseURL string // empty selects the in-memory repository
	RedisURL    string // empty selects in-memory nonces and events
	LogLevel    string
}

// Load reads .env files (if any) and then the process environment.
// Values already present in the environment win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	c := &Config{
		HTTPAddr:    getenv("UNIDAO_HTTP_ADDR", DefaultHTTPAddr),
		AppName:     getenv("UNIDAO_APP_NAME", DefaultAppName),
		JWTSecret:   os.Getenv("UNIDAO_JWT_SECRET"),
		JWTIssuer:   getenv("UNIDAO_JWT_ISSUER", DefaultIssuer),
		JWTAudience: getenv("UNIDAO_JWT_AUDIENCE", DefaultAudience),
		NonceTTL:    DefaultNonceTTL,
		CORSOrigins: splitList(getenv("UNIDAO_CORS_ORIGINS", "*")),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		LogLevel:    getenv("UNIDAO_LOG_LEVEL", "info"),
	}

	if v := os.Getenv("UNIDAO_NONCE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid UNIDAO_NONCE_TTL %q: %w", v, err)
		}
		c.NonceTTL = ttl
	}

	return c, nil
}

// Validate checks invariants the server cannot run without
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("UNIDAO_JWT_SECRET is not set: %w", core.ErrServerConfiguration)
	}
	if c.NonceTTL <= 0 {
		return fmt.Errorf("nonce ttl must be positive: %w", core.ErrServerConfiguration)
	}
	if c.AppName == "" {
		return fmt.Errorf("app name must not be empty: %w", core.ErrServerConfiguration)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
