package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Provider ProviderConfig
	Webhook  WebhookConfig
	App      AppConfig
	Monitor  MonitorConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	ConnMaxLifetime time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
}

// ProviderConfig holds the outbound payment provider client configuration
type ProviderConfig struct {
	BaseURL        string
	SecretKey      string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
}

// WebhookConfig holds inbound webhook verification configuration
type WebhookConfig struct {
	Secret    string
	Tolerance time.Duration
	// SkipVerification disables signature checks entirely. Only honoured
	// outside production and logged loudly on every accepted delivery.
	SkipVerification bool
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment          string
	IdempotencyBucket    time.Duration
	FulfillmentWorkers   int
	FulfillmentQueueSize int
	ThrottleMaxAttempts  int
	ThrottleWindow       time.Duration
	WebhookRetrySweep    time.Duration
	WebhookRetryBatch    int
}

// MonitorConfig holds transaction health monitor configuration
type MonitorConfig struct {
	Interval             time.Duration
	Lookback             time.Duration
	StuckAfter           time.Duration
	FailureRateThreshold float64
	MinSampleSize        int
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level  string // debug, info, warn, error
	Format string // json (default) or text
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", "15s"),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", "60s"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "payments"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", "5m"),
		},
		Provider: ProviderConfig{
			BaseURL:        getEnv("PROVIDER_BASE_URL", "https://payments.example.com/api"),
			SecretKey:      getEnv("PROVIDER_SECRET_KEY", ""),
			ConnectTimeout: getEnvAsDuration("PROVIDER_CONNECT_TIMEOUT", "5s"),
			RequestTimeout: getEnvAsDuration("PROVIDER_REQUEST_TIMEOUT", "15s"),
		},
		Webhook: WebhookConfig{
			Secret:           getEnv("WEBHOOK_SECRET", ""),
			Tolerance:        getEnvAsDuration("WEBHOOK_TOLERANCE", "180s"),
			SkipVerification: getEnvAsBool("WEBHOOK_SKIP_VERIFICATION", false),
		},
		App: AppConfig{
			Environment:          getEnv("ENVIRONMENT", "development"),
			IdempotencyBucket:    getEnvAsDuration("IDEMPOTENCY_BUCKET", "120s"),
			FulfillmentWorkers:   getEnvAsInt("FULFILLMENT_WORKERS", 4),
			FulfillmentQueueSize: getEnvAsInt("FULFILLMENT_QUEUE_SIZE", 256),
			ThrottleMaxAttempts:  getEnvAsInt("THROTTLE_MAX_ATTEMPTS", 10),
			ThrottleWindow:       getEnvAsDuration("THROTTLE_WINDOW", "1m"),
			WebhookRetrySweep:    getEnvAsDuration("WEBHOOK_RETRY_SWEEP", "30s"),
			WebhookRetryBatch:    getEnvAsInt("WEBHOOK_RETRY_BATCH", 50),
		},
		Monitor: MonitorConfig{
			Interval:             getEnvAsDuration("MONITOR_INTERVAL", "1m"),
			Lookback:             getEnvAsDuration("MONITOR_LOOKBACK", "15m"),
			StuckAfter:           getEnvAsDuration("MONITOR_STUCK_AFTER", "30m"),
			FailureRateThreshold: getEnvAsFloat("MONITOR_FAILURE_RATE_THRESHOLD", 0.25),
			MinSampleSize:        getEnvAsInt("MONITOR_MIN_SAMPLE_SIZE", 10),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host cannot be empty")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name cannot be empty")
	}

	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider base URL cannot be empty")
	}

	if c.Webhook.Tolerance <= 0 {
		return fmt.Errorf("webhook tolerance must be positive, got %s", c.Webhook.Tolerance)
	}
	if c.Webhook.SkipVerification && c.IsProduction() {
		return fmt.Errorf("webhook signature verification cannot be disabled in production")
	}
	if !c.Webhook.SkipVerification && c.Webhook.Secret == "" {
		return fmt.Errorf("webhook secret cannot be empty when verification is enabled")
	}

	if c.App.IdempotencyBucket <= 0 {
		return fmt.Errorf("idempotency bucket must be positive, got %s", c.App.IdempotencyBucket)
	}
	if c.App.FulfillmentWorkers < 1 {
		return fmt.Errorf("fulfillment workers must be at least 1, got %d", c.App.FulfillmentWorkers)
	}
	if c.App.FulfillmentQueueSize < 1 {
		return fmt.Errorf("fulfillment queue size must be at least 1, got %d", c.App.FulfillmentQueueSize)
	}

	if c.Monitor.FailureRateThreshold < 0 || c.Monitor.FailureRateThreshold > 1 {
		return fmt.Errorf("failure rate threshold must be between 0 and 1, got %f", c.Monitor.FailureRateThreshold)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to parsing the default if provided value is invalid
		duration, err = time.ParseDuration(defaultValue)
		if err != nil {
			return 0
		}
	}
	return duration
}
