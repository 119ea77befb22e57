package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server configuration
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Cashfree gateway configuration
	CashfreeBaseURL       string
	CashfreeAppID         string
	CashfreeSecretKey     string
	CashfreeWebhookSecret string
	CashfreeReturnURL     string
	GatewayTimeout        time.Duration

	// QR / token signing
	QRSecretKey     string
	QRTokenValidity time.Duration

	// Rate limiting for scan endpoints
	ScanRateLimit  int
	ScanRateWindow time.Duration

	// PubNub configuration (optional, realtime notifications)
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Monitoring
	EnableMetrics bool
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis (optional; unset means process-local rate limit counters)
		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Cashfree
		CashfreeBaseURL:       getEnv("CASHFREE_BASE_URL", "https://sandbox.cashfree.com"),
		CashfreeAppID:         getEnv("CASHFREE_APP_ID", ""),
		CashfreeSecretKey:     getEnv("CASHFREE_SECRET_KEY", ""),
		CashfreeWebhookSecret: getEnv("CASHFREE_WEBHOOK_SECRET", ""),
		CashfreeReturnURL:     getEnv("CASHFREE_RETURN_URL", ""),
		GatewayTimeout:        getEnvAsDuration("GATEWAY_TIMEOUT", "10s"),

		// QR / token signing
		QRSecretKey:     getEnv("QR_SECRET_KEY", ""),
		QRTokenValidity: getEnvAsDuration("QR_TOKEN_VALIDITY", "720h"),

		// Rate limiting
		ScanRateLimit:  getEnvAsInt("SCAN_RATE_LIMIT", 30),
		ScanRateWindow: getEnvAsDuration("SCAN_RATE_WINDOW", "1m"),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

// Validate rejects a config missing any of the secrets the pass lifecycle
// depends on. Absence is a startup error, never a soft fallback.
func (c *Config) Validate() error {
	var missing []string

	if c.CashfreeAppID == "" {
		missing = append(missing, "CASHFREE_APP_ID")
	}
	if c.CashfreeSecretKey == "" {
		missing = append(missing, "CASHFREE_SECRET_KEY")
	}
	if c.CashfreeWebhookSecret == "" {
		missing = append(missing, "CASHFREE_WEBHOOK_SECRET")
	}
	if c.QRSecretKey == "" {
		missing = append(missing, "QR_SECRET_KEY")
	}

	if len(missing) > 0 {
		return fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
