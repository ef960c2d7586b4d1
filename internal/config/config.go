package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	CustomerPool  PoolConfig
	StaffPool     PoolConfig
	IDP           IDPConfig
	Session       SessionConfig
	Observability ObservabilityConfig
	RateLimit     RateLimitConfig
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// PoolConfig holds one identity pool's verification parameters.
type PoolConfig struct {
	PoolID   string
	ClientID string
	Region   string
	Issuer   string
	JWKSURL  string
}

// IDPConfig holds the identity provider API location.
type IDPConfig struct {
	BaseURL string
}

// SessionConfig holds session freshness configuration. Staff sessions are
// deliberately shorter than customer sessions.
type SessionConfig struct {
	CustomerTokenTTL   time.Duration
	StaffMaxSessionAge time.Duration
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string
	OTELEnabled    bool
	ServiceName    string
	ServiceVersion string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  parseDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout: parseDuration("SERVER_WRITE_TIMEOUT", "15s"),
			IdleTimeout:  parseDuration("SERVER_IDLE_TIMEOUT", "60s"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "motormarket"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "motormarket_auth"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    parseInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    parseInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: parseDuration("DB_CONN_MAX_LIFETIME", "5m"),
		},
		CustomerPool: loadPool("CUSTOMER"),
		StaffPool:    loadPool("STAFF"),
		IDP: IDPConfig{
			BaseURL: getEnv("IDP_BASE_URL", "http://localhost:9229"),
		},
		Session: SessionConfig{
			CustomerTokenTTL:   parseDuration("SESSION_CUSTOMER_TOKEN_TTL", "24h"),
			StaffMaxSessionAge: parseDuration("SESSION_STAFF_MAX_AGE", "8h"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			OTELEnabled:    parseBool("OTEL_ENABLED", false),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "motormarket-auth"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "0.1.0"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: float64(parseInt("RATELIMIT_RPS", 10)),
			Burst:             parseInt("RATELIMIT_BURST", 20),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadPool reads one pool's settings under the given env prefix.
func loadPool(prefix string) PoolConfig {
	pool := PoolConfig{
		PoolID:   getEnv(prefix+"_POOL_ID", ""),
		ClientID: getEnv(prefix+"_CLIENT_ID", ""),
		Region:   getEnv(prefix+"_POOL_REGION", getEnv("IDP_REGION", "eu-west-1")),
		Issuer:   getEnv(prefix+"_POOL_ISSUER", ""),
		JWKSURL:  getEnv(prefix+"_POOL_JWKS_URL", ""),
	}
	if pool.JWKSURL == "" && pool.Issuer != "" {
		pool.JWKSURL = pool.Issuer + "/.well-known/jwks.json"
	}
	return pool
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.CustomerPool.PoolID == "" {
		return fmt.Errorf("CUSTOMER_POOL_ID is required")
	}
	if c.StaffPool.PoolID == "" {
		return fmt.Errorf("STAFF_POOL_ID is required")
	}
	// An expired-but-fresh-looking staff token is a bigger liability than a
	// customer one: the staff window must stay strictly shorter.
	if c.Session.StaffMaxSessionAge >= c.Session.CustomerTokenTTL {
		return fmt.Errorf("SESSION_STAFF_MAX_AGE must be shorter than SESSION_CUSTOMER_TOKEN_TTL")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func parseBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseDuration(key string, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	d, err := time.ParseDuration(value)
	if err != nil {
		// Fallback to default
		d, _ = time.ParseDuration(defaultValue)
	}
	return d
}
