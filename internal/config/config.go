package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Gateway    GatewayConfig
	Settlement SettlementConfig
	Webhook    WebhookConfig
	Jobs       JobsConfig
	Logger     LoggerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int
	Host        string
	MetricsPort int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// GatewayConfig holds the PayGate processor configuration
type GatewayConfig struct {
	BaseURL    string
	MerchantID string
	APIKey     string // Secret key for HMAC-SHA256 request signing
	Timeout    int    // Request timeout in seconds (default: 30)
}

// SettlementConfig holds the revenue split configuration
type SettlementConfig struct {
	BranchPercent int32
	HQPercent     int32
}

// WebhookConfig holds deposit notification configuration
type WebhookConfig struct {
	SharedSecret string // Secret carried in deposit notifications
	DueHours     int32  // Default virtual-account deposit window
}

// JobsConfig holds the background job schedules in cron syntax
type JobsConfig struct {
	ExpirySchedule     string
	SettlementSchedule string
	BatchLimit         int32
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables. A .env file in
// the working directory is read first when present.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvAsInt("SERVER_PORT", 8080),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort: getEnvAsInt("METRICS_PORT", 9090),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "booking_service"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		},
		Gateway: GatewayConfig{
			BaseURL:    getEnv("PG_BASE_URL", "https://sandbox.paygate.example.com"),
			MerchantID: getEnv("PG_MERCHANT_ID", ""),
			APIKey:     getEnv("PG_API_KEY", ""),
			Timeout:    getEnvAsInt("PG_TIMEOUT", 30),
		},
		Settlement: SettlementConfig{
			BranchPercent: int32(getEnvAsInt("SETTLEMENT_BRANCH_PERCENT", 90)),
			HQPercent:     int32(getEnvAsInt("SETTLEMENT_HQ_PERCENT", 10)),
		},
		Webhook: WebhookConfig{
			SharedSecret: getEnv("WEBHOOK_SHARED_SECRET", ""),
			DueHours:     int32(getEnvAsInt("VA_DUE_HOURS", 72)),
		},
		Jobs: JobsConfig{
			ExpirySchedule:     getEnv("JOB_VA_EXPIRY_SCHEDULE", "*/10 * * * *"),
			SettlementSchedule: getEnv("JOB_SETTLEMENT_SCHEDULE", "0 4 * * *"),
			BatchLimit:         int32(getEnvAsInt("JOB_BATCH_LIMIT", 500)),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	// Validate required fields
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if cfg.Gateway.MerchantID == "" {
		return nil, fmt.Errorf("PG_MERCHANT_ID is required")
	}
	if cfg.Gateway.APIKey == "" {
		return nil, fmt.Errorf("PG_API_KEY is required")
	}
	if cfg.Webhook.SharedSecret == "" {
		return nil, fmt.Errorf("WEBHOOK_SHARED_SECRET is required")
	}
	if cfg.Settlement.BranchPercent+cfg.Settlement.HQPercent != 100 {
		return nil, fmt.Errorf("settlement split must sum to 100, got %d/%d",
			cfg.Settlement.BranchPercent, cfg.Settlement.HQPercent)
	}

	return cfg, nil
}

// ConnectionString returns the PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Helper functions

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
