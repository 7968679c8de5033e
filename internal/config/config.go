package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Host        string
	Port        string
	CORSOrigins []string

	// Database settings
	DBDriver         string
	DBUser           string
	DBHost           string
	DBName           string
	DBPassword       string
	DBPort           string
	DBSSLMode        string
	DBConnectTimeout time.Duration
	DBMaxOpenConns   int
	DatabasePath     string

	// Sidecar storage root
	StoragePath string

	// Logging settings
	LogLevel  string
	LogFormat string

	// Cache settings
	CacheBackend  string
	CacheSize     int
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// First case number issued when no einstellungen row overrides it
	AktenzeichenStart int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Host:          getEnv("HOST", "0.0.0.0"),
		Port:          getEnv("PORT", "3001"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "*")),
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBName:        getEnv("DB_DATABASE", "kanzlei"),
		DBPassword:    getEnv("DB_PASSWORD", ""),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),
		DatabasePath:  getEnv("DATABASE_PATH", "./data/kanzlei.db"),
		StoragePath:   getEnv("STORAGE_PATH", "./kanzlei-data"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		CacheBackend:  strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
	}

	connectTimeout, err := strconv.Atoi(getEnv("DB_CONNECT_TIMEOUT", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONNECT_TIMEOUT: %w", err)
	}
	cfg.DBConnectTimeout = time.Duration(connectTimeout) * time.Second

	cfg.DBMaxOpenConns, err = strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}

	cfg.CacheSize, err = strconv.Atoi(getEnv("CACHE_SIZE", "1000"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_SIZE: %w", err)
	}

	cacheTTL, err := strconv.Atoi(getEnv("CACHE_TTL", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	cfg.CacheTTL = time.Duration(cacheTTL) * time.Minute

	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg.AktenzeichenStart, err = strconv.Atoi(getEnv("AKTENZEICHEN_START", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid AKTENZEICHEN_START: %w", err)
	}
	if cfg.AktenzeichenStart < 1 {
		return nil, fmt.Errorf("AKTENZEICHEN_START must be at least 1, got %d", cfg.AktenzeichenStart)
	}

	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	switch cfg.CacheBackend {
	case "memory", "redis", "none":
	default:
		return nil, fmt.Errorf("unsupported CACHE_BACKEND %q", cfg.CacheBackend)
	}

	return cfg, nil
}

// PostgresDSN builds the key/value connection string for the pgx driver.
func (c *Config) PostgresDSN() string {
	dsn := fmt.Sprintf("host=%s user=%s dbname=%s port=%s sslmode=%s connect_timeout=%d TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBName, c.DBPort, c.DBSSLMode, int(c.DBConnectTimeout.Seconds()))
	if c.DBPassword != "" {
		dsn += " password=" + quoteDSNValue(c.DBPassword)
	}
	return dsn
}

// quoteDSNValue single-quotes v for a key/value connection string,
// escaping backslashes and quotes.
func quoteDSNValue(v string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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
