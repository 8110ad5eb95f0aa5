// Package config loads the client configuration from the environment.
//
// ORDER OF PRECEDENCE (lowest → highest):
//  1. Built-in defaults
//  2. A .env file in the working directory (via godotenv)
//  3. Real environment variables (godotenv never overrides them)
//  4. Command-line flags, applied by the CLI after Load returns
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL  = "http://localhost:5000/api/v1"
	DefaultTimeout = 15 * time.Second
)

// Config holds everything the client needs to talk to the PensaConnect API.
type Config struct {
	APIURL   string        // base URL, e.g. https://api.pensaconnect.org/api/v1
	Token    string        // JWT issued by the server at login; empty = anonymous
	Timeout  time.Duration // per-request timeout
	LogLevel slog.Level
}

// Load reads .env (if present) and then the PENSA_* variables.
// A malformed value is an error, never silently replaced by the default.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: loading env file: %w", err)
	}

	cfg := &Config{
		APIURL: strings.TrimRight(getEnv("PENSA_API_URL", DefaultAPIURL), "/"),
		Token:  getEnv("PENSA_API_TOKEN", ""),
	}

	if err := ValidateAPIURL(cfg.APIURL); err != nil {
		return nil, err
	}

	timeout, err := getEnvDuration("PENSA_TIMEOUT", DefaultTimeout)
	if err != nil {
		return nil, err
	}
	cfg.Timeout = timeout

	level, err := ParseLogLevel(getEnv("PENSA_LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	return cfg, nil
}

// ValidateAPIURL checks that raw is an absolute http(s) URL.
func ValidateAPIURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("config: invalid PENSA_API_URL %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: invalid PENSA_API_URL %q: must be an absolute http(s) URL", raw)
	}
	return nil
}

// ParseLogLevel maps debug|info|warn|error (case-insensitive) to a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: invalid PENSA_LOG_LEVEL %q", s)
	}
	return level, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: invalid %s %q: must be positive", key, value)
	}
	return d, nil
}
