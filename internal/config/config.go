package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Gateway  GatewayConfig
	Hosted   HostedConfig
	Vault    VaultConfig
	Logger   LoggerConfig
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

// GatewayConfig holds payment gateway configuration
type GatewayConfig struct {
	MerchantID  string   // Gateway merchant ID, e.g. ABCDEF-1234567
	HashMethod  string   // MD5, SHA1, HMACMD5, HMACSHA1 or HMACSHA256
	Endpoints   []string // Override of the gateway entry points, for tests
	MaxAttempts int      // Attempts per endpoint before failing over
	Timeout     int      // Per-attempt timeout in seconds
}

// HostedConfig holds hosted payment form configuration
type HostedConfig struct {
	CallbackURL          string // Browser return URL after payment
	ServerResultURL      string // Server-to-server notification URL
	ResultDeliveryMethod string // POST, GET or SERVER
}

// VaultConfig holds secret store configuration
type VaultConfig struct {
	Enabled    bool
	Address    string
	AuthMethod string // token or approle
	Token      string
	RoleID     string
	SecretID   string
	MountPath  string
	PathPrefix string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
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
			Database: getEnv("DB_NAME", "paymentsense"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		},
		Gateway: GatewayConfig{
			MerchantID:  getEnv("GATEWAY_MERCHANT_ID", ""),
			HashMethod:  getEnv("GATEWAY_HASH_METHOD", "SHA1"),
			Endpoints:   getEnvAsSlice("GATEWAY_ENDPOINTS"),
			MaxAttempts: getEnvAsInt("GATEWAY_MAX_ATTEMPTS", 3),
			Timeout:     getEnvAsInt("GATEWAY_TIMEOUT", 10),
		},
		Hosted: HostedConfig{
			CallbackURL:          getEnv("HOSTED_CALLBACK_URL", ""),
			ServerResultURL:      getEnv("HOSTED_SERVER_RESULT_URL", ""),
			ResultDeliveryMethod: getEnv("HOSTED_RESULT_DELIVERY", "POST"),
		},
		Vault: VaultConfig{
			Enabled:    getEnvAsBool("VAULT_ENABLED", false),
			Address:    getEnv("VAULT_ADDR", "http://localhost:8200"),
			AuthMethod: getEnv("VAULT_AUTH_METHOD", "token"),
			Token:      getEnv("VAULT_TOKEN", ""),
			RoleID:     getEnv("VAULT_ROLE_ID", ""),
			SecretID:   getEnv("VAULT_SECRET_ID", ""),
			MountPath:  getEnv("VAULT_MOUNT_PATH", "secret"),
			PathPrefix: getEnv("VAULT_PATH_PREFIX", "paymentsense"),
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
		return nil, fmt.Errorf("GATEWAY_MERCHANT_ID is required")
	}

	return cfg, nil
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RequestTimeout returns the per-attempt gateway timeout as a duration
func (c *GatewayConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
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

func getEnvAsSlice(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
