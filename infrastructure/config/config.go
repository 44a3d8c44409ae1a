package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends
const (
	StoreMemory   = "memory"
	StoreDynamoDB = "dynamodb"
)

// Authentication modes
const (
	AuthJWT           = "jwt"
	AuthTrustedHeader = "trusted-header"
)

// ConcurrencyConfig bounds fan-out work per request
type ConcurrencyConfig struct {
	// MaxInFlight is the number of store calls a single batch or repair keeps in flight
	MaxInFlight int `yaml:"max_in_flight"`
}

// VerificationConfig controls read-after-write checks on workspace creation
type VerificationConfig struct {
	Attempts int           `yaml:"attempts"`
	Interval time.Duration `yaml:"interval"`
}

// CacheConfig configures the read-through document cache
type CacheConfig struct {
	Provider  string        `yaml:"provider"` // "none" or "redis"
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
	KeyPrefix string        `yaml:"key_prefix"`
}

// TracingConfig configures OpenTelemetry export
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sample_rate"`
	Insecure   bool    `yaml:"insecure"`
}

// ResilienceConfig tunes the retry and circuit breaker store decorators
type ResilienceConfig struct {
	MaxRetries       uint64        `yaml:"max_retries"`
	RetryBaseDelay   time.Duration `yaml:"retry_base_delay"`
	BreakerTimeout   time.Duration `yaml:"breaker_timeout"`
	BreakerThreshold float64       `yaml:"breaker_threshold"`
}

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress   string        `yaml:"server_address"`
	Environment     string        `yaml:"environment"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Storage
	StoreBackend   string `yaml:"store_backend"`
	AWSRegion      string `yaml:"aws_region"`
	DynamoDBTable  string `yaml:"dynamodb_table"`
	ConsistentRead bool   `yaml:"consistent_read"`
	EventBusName   string `yaml:"event_bus_name"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Authentication
	AuthMode    string `yaml:"auth_mode"`
	JWTSecret   string `yaml:"-"`
	JWTIssuer   string `yaml:"jwt_issuer"`
	JWTAudience string `yaml:"jwt_audience"`

	// Feature flags
	EnableMetrics bool `yaml:"enable_metrics"`
	EnableCORS    bool `yaml:"enable_cors"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	Concurrency  ConcurrencyConfig  `yaml:"concurrency"`
	Verification VerificationConfig `yaml:"verification"`
	Cache        CacheConfig        `yaml:"cache"`
	Tracing      TracingConfig      `yaml:"tracing"`
	Resilience   ResilienceConfig   `yaml:"resilience"`
}

// LoadConfig loads configuration from an optional YAML file named by
// CONFIG_FILE, then environment variables, which win.
func LoadConfig() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		ServerAddress:      ":8080",
		Environment:        "development",
		ShutdownTimeout:    15 * time.Second,
		StoreBackend:       StoreMemory,
		AWSRegion:          "us-west-2",
		DynamoDBTable:      "workspaces",
		ConsistentRead:     true,
		LogLevel:           "info",
		AuthMode:           AuthJWT,
		JWTIssuer:          "workspace-backend",
		EnableMetrics:      true,
		EnableCORS:         true,
		CORSAllowedOrigins: []string{"*"},
		Concurrency:        ConcurrencyConfig{MaxInFlight: 16},
		Verification:       VerificationConfig{Attempts: 3, Interval: 200 * time.Millisecond},
		Cache: CacheConfig{
			Provider:  "none",
			TTL:       30 * time.Second,
			KeyPrefix: "doc:",
		},
		Tracing: TracingConfig{SampleRate: 0.1},
		Resilience: ResilienceConfig{
			MaxRetries:       3,
			RetryBaseDelay:   50 * time.Millisecond,
			BreakerTimeout:   30 * time.Second,
			BreakerThreshold: 0.5,
		},
	}
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)

	c.StoreBackend = getEnv("STORE_BACKEND", c.StoreBackend)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.DynamoDBTable))
	c.ConsistentRead = getEnvBool("CONSISTENT_READ", c.ConsistentRead)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.AuthMode = getEnv("AUTH_MODE", c.AuthMode)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)
	c.JWTAudience = getEnv("JWT_AUDIENCE", c.JWTAudience)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		c.CORSAllowedOrigins = splitList(origins)
	}

	c.Concurrency.MaxInFlight = getEnvInt("MAX_IN_FLIGHT", c.Concurrency.MaxInFlight)
	c.Verification.Attempts = getEnvInt("VERIFY_ATTEMPTS", c.Verification.Attempts)
	c.Verification.Interval = getEnvDuration("VERIFY_INTERVAL", c.Verification.Interval)

	c.Cache.Provider = getEnv("CACHE_PROVIDER", c.Cache.Provider)
	c.Cache.RedisAddr = getEnv("REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.TTL = getEnvDuration("CACHE_TTL", c.Cache.TTL)

	c.Tracing.Enabled = getEnvBool("ENABLE_TRACING", c.Tracing.Enabled)
	c.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.Endpoint)
	c.Tracing.SampleRate = getEnvFloat("TRACING_SAMPLE_RATE", c.Tracing.SampleRate)
	c.Tracing.Insecure = getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", c.Tracing.Insecure)

	c.Resilience.MaxRetries = uint64(getEnvInt("STORE_MAX_RETRIES", int(c.Resilience.MaxRetries)))
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory:
	case StoreDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.AuthMode {
	case AuthJWT:
		if c.JWTSecret == "" && c.IsProduction() {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
	case AuthTrustedHeader:
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}

	if c.Concurrency.MaxInFlight < 1 {
		return fmt.Errorf("MAX_IN_FLIGHT must be at least 1")
	}
	if c.Verification.Attempts < 1 {
		return fmt.Errorf("VERIFY_ATTEMPTS must be at least 1")
	}
	if c.Cache.Provider == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when CACHE_PROVIDER=redis")
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required when tracing is enabled")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
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
