// Package config provides configuration management for the bamboorules service.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config is the complete service configuration.
type Config struct {
	Server   ServerConfig
	Engine   EngineConfig
	Database DatabaseConfig
}

// ServerConfig holds configuration for the gRPC rule service.
type ServerConfig struct {
	Host           string
	Port           int
	MetricsPort    int // 0 disables the metrics endpoint
	RequestTimeout time.Duration
}

// EngineConfig holds rule engine limits.
type EngineConfig struct {
	MaxDepth        int // 0 means unlimited
	AllowReflection bool
}

// DatabaseConfig holds the rule store location.
type DatabaseConfig struct {
	URL string
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           50061,
			MetricsPort:    9161,
			RequestTimeout: 30 * time.Second,
		},
		Engine: EngineConfig{
			MaxDepth: 256,
		},
	}
}

// HMACSecrets extracts API key secrets from environment variables.
// Supports BR_HMAC_SECRET (single) and BR_HMAC_SECRET_N (rotation).
// Returns map of secret_id -> decoded secret bytes.
func HMACSecrets() (map[string][]byte, error) {
	secrets := make(map[string][]byte)
	add := func(key, val string) error {
		secretID, decoded, err := ParseHMACSecretWithID(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if _, exists := secrets[secretID]; exists {
			return fmt.Errorf("duplicate secret_id '%s' (check BR_HMAC_SECRET and BR_HMAC_SECRET_* for conflicts)", secretID)
		}
		secrets[secretID] = decoded
		return nil
	}

	if val := os.Getenv("BR_HMAC_SECRET"); val != "" {
		if err := add("BR_HMAC_SECRET", val); err != nil {
			return nil, err
		}
	}

	// Numbered secrets keep old keys valid while new ones roll out.
	for i := 1; ; i++ {
		key := fmt.Sprintf("BR_HMAC_SECRET_%d", i)
		val := os.Getenv(key)
		if val == "" {
			break
		}
		if err := add(key, val); err != nil {
			return nil, err
		}
	}

	return secrets, nil
}

// ParseHMACSecretWithID parses secret_id:base64_secret format.
// Secret ID must be 32 lowercase hex chars (UUIDv7 without hyphens).
func ParseHMACSecretWithID(envValue string) (secretID string, secret []byte, err error) {
	parts := strings.SplitN(strings.TrimSpace(envValue), ":", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("format must be <secret_id>:<base64_secret>")
	}

	secretID = parts[0]
	if len(secretID) != 32 {
		return "", nil, fmt.Errorf("secret_id must be 32 hex chars (UUIDv7 without hyphens)")
	}
	for _, c := range secretID {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", nil, fmt.Errorf("secret_id must be hex chars only")
		}
	}

	secret, err = base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(secret) < 32 {
		return "", nil, fmt.Errorf("secret must be at least 32 bytes, got %d", len(secret))
	}

	return secretID, secret, nil
}
