package config

import (
	"os"
	"strconv"
	"time"

	"github.com/silv3rmat/tainted-journal/pkg/utils"
)

// Config holds all application configuration
type Config struct {
	// Server configuration (dev overwrite store)
	ServerAddress string `validate:"required"`
	Environment   string `validate:"oneof=development production test"`

	// Remote store
	RemoteBaseURL string `validate:"required,url"`

	// Local durable cache
	CachePath string `validate:"required"`

	// Identity token file; empty means anonymous
	TokenPath string

	// Sync timings
	PollInterval   time.Duration `validate:"min=1s"`
	SettleDelay    time.Duration `validate:"min=1ms"`
	EditDefer      time.Duration `validate:"min=1ms"`
	ThrottleWindow time.Duration `validate:"min=1ms"`
	SaveCooldown   time.Duration `validate:"min=1ms"`

	// Logging
	LogLevel string `validate:"oneof=debug info warn error"`

	// Metrics
	EnableMetrics  bool
	MetricsAddress string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		RemoteBaseURL: getEnv("REMOTE_BASE_URL", "http://localhost:8080"),
		CachePath:     getEnv("CACHE_PATH", "journal-cache.db"),
		TokenPath:     getEnv("TOKEN_PATH", ""),

		PollInterval:   getEnvDuration("POLL_INTERVAL", 10*time.Second),
		SettleDelay:    getEnvDuration("SETTLE_DELAY", 200*time.Millisecond),
		EditDefer:      getEnvDuration("EDIT_DEFER", 2*time.Second),
		ThrottleWindow: getEnvDuration("THROTTLE_WINDOW", time.Second),
		SaveCooldown:   getEnvDuration("SAVE_COOLDOWN", time.Second),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		EnableMetrics:  getEnvBool("ENABLE_METRICS", false),
		MetricsAddress: getEnv("METRICS_ADDRESS", ":9090"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	return utils.ValidateStruct(c)
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

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
