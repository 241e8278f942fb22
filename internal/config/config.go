// Package config loads and validates application configuration from environment variables.
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

// Config holds all configuration values for the WorldWise server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// CitiesAPIURL is the base URL of the cities REST API.
	// Defaults to "http://localhost:9000".
	CitiesAPIURL string

	// CitiesAPITimeout bounds each request to the cities API.
	// Defaults to 0, meaning no timeout.
	CitiesAPITimeout time.Duration

	// CitiesAPIRateLimit caps outgoing requests per second. 0 disables the limiter.
	CitiesAPIRateLimit float64

	// CurrentCityShortCircuit skips fetching a city that is already current.
	// Defaults to true.
	CurrentCityShortCircuit bool

	// DropStaleCompletions discards results of operations overtaken by a later
	// one instead of letting the last to settle win. Defaults to false.
	DropStaleCompletions bool

	// MaxBodyBytes limits incoming request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory is read first if present; variables
// already set in the environment take precedence over it.
// Returns an error naming every variable that holds an invalid value.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}

	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		CORSOrigins:  splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		CitiesAPIURL: strings.TrimRight(getEnv("CITIES_API_URL", "http://localhost:9000"), "/"),
	}

	var invalid []string
	var err error

	if cfg.CitiesAPITimeout, err = time.ParseDuration(getEnv("CITIES_API_TIMEOUT", "0s")); err != nil || cfg.CitiesAPITimeout < 0 {
		invalid = append(invalid, "CITIES_API_TIMEOUT")
	}
	if cfg.CitiesAPIRateLimit, err = strconv.ParseFloat(getEnv("CITIES_API_RATE_LIMIT", "0"), 64); err != nil || cfg.CitiesAPIRateLimit < 0 {
		invalid = append(invalid, "CITIES_API_RATE_LIMIT")
	}
	if cfg.CurrentCityShortCircuit, err = strconv.ParseBool(getEnv("CURRENT_CITY_SHORT_CIRCUIT", "true")); err != nil {
		invalid = append(invalid, "CURRENT_CITY_SHORT_CIRCUIT")
	}
	if cfg.DropStaleCompletions, err = strconv.ParseBool(getEnv("DROP_STALE_COMPLETIONS", "false")); err != nil {
		invalid = append(invalid, "DROP_STALE_COMPLETIONS")
	}
	if cfg.MaxBodyBytes, err = strconv.ParseInt(getEnv("MAX_BODY_BYTES", "1048576"), 10, 64); err != nil || cfg.MaxBodyBytes <= 0 {
		invalid = append(invalid, "MAX_BODY_BYTES")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
