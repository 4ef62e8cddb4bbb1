// Package config provides readtrack configuration from command-line flags,
// environment variables and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the daemon configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Backend BackendConfig
	Cache   CacheConfig
	Server  ServerConfig
	Session SessionConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// BackendConfig describes the remote reading-tracker backend.
type BackendConfig struct {
	URL     string
	Timeout time.Duration // per-request transport timeout (default: 15s)
	RPS     float64       // outbound requests per second (default: 10)
	Burst   int           // outbound burst (default: 20)
}

// CacheConfig holds catalog cache configuration.
type CacheConfig struct {
	// Path is the badger directory. Empty keeps the persistent tier in memory.
	Path         string
	MaxItems     int64         // memo bound (default: 10000)
	FetchTimeout time.Duration // bound on one shared catalog fetch (default: 20s)
	// SearchFullRecords marks search hits as complete records that may seed the memo.
	SearchFullRecords bool
}

// ServerConfig holds intent API server configuration.
type ServerConfig struct {
	Port         string        // default: 7070
	ReadTimeout  time.Duration // default: 15s
	WriteTimeout time.Duration // default: 30s
	IdleTimeout  time.Duration // default: 60s
	CORSOrigins  []string
	// RequestsPerMinute bounds inbound requests per client IP. Zero disables the limit.
	RequestsPerMinute int
}

// SessionConfig holds token resolution configuration.
type SessionConfig struct {
	TTL time.Duration // how long a resolved token is trusted (default: 5m)
}

// LoadConfig loads configuration from os.Args with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load is LoadConfig with explicit arguments.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("readtrack", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	backendURL := fs.String("backend-url", "", "Base URL of the reading-tracker backend")
	backendTimeout := fs.String("backend-timeout", "", "Backend request timeout (default: 15s)")
	backendRPS := fs.String("backend-rps", "", "Backend requests per second (default: 10)")
	backendBurst := fs.String("backend-burst", "", "Backend request burst (default: 20)")

	cachePath := fs.String("cache-path", "", "Directory for the persistent catalog cache (empty: in-memory)")
	cacheMaxItems := fs.String("cache-max-items", "", "Maximum memoized catalog records (default: 10000)")
	fetchTimeout := fs.String("catalog-fetch-timeout", "", "Catalog fetch timeout (default: 20s)")
	fullRecords := fs.String("search-full-records", "", "Search hits are complete records (default: true)")

	serverPort := fs.String("port", "", "Server port (default: 7070)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins")
	rateLimit := fs.String("rate-limit", "", "Inbound requests per minute per client (default: 0, unlimited)")

	sessionTTL := fs.String("session-ttl", "", "Resolved session lifetime (default: 5m)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Missing .env files are fine.
	if err := loadEnvFile(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", *envFile, err)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Backend: BackendConfig{
			URL: getConfigValue(*backendURL, "BACKEND_URL", "http://localhost:8080"),
		},
		Cache: CacheConfig{
			Path:              getConfigValue(*cachePath, "CACHE_PATH", ""),
			SearchFullRecords: getBoolConfigValue(*fullRecords, "SEARCH_FULL_RECORDS", true),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "7070"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "")),
		},
	}

	var err error
	if cfg.Backend.RPS, err = getFloatConfigValue(*backendRPS, "BACKEND_RPS", 10); err != nil {
		return nil, err
	}
	if cfg.Backend.Burst, err = getIntConfigValue(*backendBurst, "BACKEND_BURST", 20); err != nil {
		return nil, err
	}
	maxItems, err := getIntConfigValue(*cacheMaxItems, "CACHE_MAX_ITEMS", 10000)
	if err != nil {
		return nil, err
	}
	cfg.Cache.MaxItems = int64(maxItems)
	if cfg.Server.RequestsPerMinute, err = getIntConfigValue(*rateLimit, "RATE_LIMIT_PER_MINUTE", 0); err != nil {
		return nil, err
	}

	durations := []struct {
		dst      *time.Duration
		flag     string
		envKey   string
		fallback string
	}{
		{&cfg.Backend.Timeout, *backendTimeout, "BACKEND_TIMEOUT", "15s"},
		{&cfg.Cache.FetchTimeout, *fetchTimeout, "CATALOG_FETCH_TIMEOUT", "20s"},
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "30s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Session.TTL, *sessionTTL, "SESSION_TTL", "5m"},
	}
	for _, d := range durations {
		if *d.dst, err = getDurationConfigValue(d.flag, d.envKey, d.fallback); err != nil {
			return nil, err
		}
	}

	if cfg.Cache.Path != "" {
		if cfg.Cache.Path, err = expandPath(cfg.Cache.Path); err != nil {
			return nil, fmt.Errorf("invalid cache path: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	u, err := url.Parse(c.Backend.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid backend URL: %q (must be an absolute http(s) URL)", c.Backend.URL)
	}
	if c.Backend.RPS <= 0 {
		return fmt.Errorf("backend RPS must be positive, got %v", c.Backend.RPS)
	}
	if c.Backend.Burst < 1 {
		return fmt.Errorf("backend burst must be at least 1, got %d", c.Backend.Burst)
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("backend timeout must be positive")
	}

	if c.Cache.MaxItems < 1 {
		return fmt.Errorf("cache max items must be at least 1, got %d", c.Cache.MaxItems)
	}
	if c.Cache.FetchTimeout <= 0 {
		return errors.New("catalog fetch timeout must be positive")
	}

	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %q", c.Server.Port)
	}
	if c.Server.RequestsPerMinute < 0 {
		return fmt.Errorf("rate limit must not be negative, got %d", c.Server.RequestsPerMinute)
	}

	if c.Session.TTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return filepath.Clean(absPath), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

func getIntConfigValue(flagValue, envKey string, defaultValue int) (int, error) {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return v, nil
}

func getFloatConfigValue(flagValue, envKey string, defaultValue float64) (float64, error) {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return v, nil
}

func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment variables win over the file.
		if _, set := os.LookupEnv(key); !set {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
