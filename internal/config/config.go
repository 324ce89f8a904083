package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	// Audio Constants
	DefaultAudioFormat = "g711_ulaw"

	// Connection Constants
	DefaultWebhookTimeout   = 10 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second

	// Default Settings
	DefaultVoice    = "alloy"
	DefaultGreeting = "Hello, how can I assist you?"
)

// BridgeConfig holds configuration for the call bridge service
type BridgeConfig struct {
	// Server configuration
	Port       string
	EnableCORS bool

	// OpenAI configuration
	OpenAIAPIKey      string
	OpenAIRealtimeURL string
	RealtimeModel     string
	Voice             string

	// Business webhook configuration
	WebhookURL     string
	WebhookTimeout time.Duration

	// AI transport handshake bound
	HandshakeTimeout time.Duration
}

// ValidationError reports a missing required configuration value.
// It is fatal at startup; no call can be served without the field it names.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Field)
}

// LoadConfigFromEnv loads bridge configuration from environment variables
func LoadConfigFromEnv() *BridgeConfig {
	return &BridgeConfig{
		Port:       getEnvOrDefault("PORT", "5050"),
		EnableCORS: getEnvAsBoolOrDefault("BRIDGE_ENABLE_CORS", true),

		OpenAIAPIKey:      getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIRealtimeURL: getEnvOrDefault("OPENAI_REALTIME_URL", "wss://api.openai.com/v1/realtime"),
		RealtimeModel:     getEnvOrDefault("OPENAI_REALTIME_MODEL", "gpt-4o-realtime-preview-2024-10-01"),
		Voice:             getEnvOrDefault("OPENAI_VOICE", DefaultVoice),

		WebhookURL:     getEnvOrDefault("CALL_LOG_URL", ""),
		WebhookTimeout: getEnvAsDurationOrDefault("WEBHOOK_TIMEOUT", DefaultWebhookTimeout),

		HandshakeTimeout: getEnvAsDurationOrDefault("OPENAI_HANDSHAKE_TIMEOUT", DefaultHandshakeTimeout),
	}
}

// Validate checks that all required configuration is present.
func (c *BridgeConfig) Validate() error {
	if c.OpenAIAPIKey == "" {
		return &ValidationError{Field: "OPENAI_API_KEY"}
	}
	if c.WebhookURL == "" {
		return &ValidationError{Field: "CALL_LOG_URL"}
	}
	return nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBoolOrDefault gets environment variable as bool or returns default
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDurationOrDefault gets environment variable as duration or returns default
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
