package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	secretA = "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w"
	secretB = "fedcba9876543210fedcba9876543210:YW5vdGhlcnNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w"
)

// clearSecrets blanks the secret variables for the duration of the test.
func clearSecrets(t *testing.T) {
	t.Helper()
	for _, key := range []string{"BR_HMAC_SECRET", "BR_HMAC_SECRET_1", "BR_HMAC_SECRET_2"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestHMACSecrets(t *testing.T) {
	t.Run("single secret", func(t *testing.T) {
		clearSecrets(t)
		t.Setenv("BR_HMAC_SECRET", secretA)

		secrets, err := HMACSecrets()
		require.NoError(t, err)
		assert.Len(t, secrets, 1)
		assert.Contains(t, secrets, "0123456789abcdef0123456789abcdef")
	})

	t.Run("multiple numbered secrets", func(t *testing.T) {
		clearSecrets(t)
		t.Setenv("BR_HMAC_SECRET_1", secretA)
		t.Setenv("BR_HMAC_SECRET_2", secretB)

		secrets, err := HMACSecrets()
		require.NoError(t, err)
		assert.Len(t, secrets, 2)
	})

	t.Run("none configured", func(t *testing.T) {
		clearSecrets(t)
		secrets, err := HMACSecrets()
		require.NoError(t, err)
		assert.Empty(t, secrets)
	})

	t.Run("duplicate secret_id", func(t *testing.T) {
		clearSecrets(t)
		t.Setenv("BR_HMAC_SECRET", secretA)
		t.Setenv("BR_HMAC_SECRET_1", secretA)

		_, err := HMACSecrets()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate secret_id")
	})

	t.Run("error names the variable", func(t *testing.T) {
		clearSecrets(t)
		t.Setenv("BR_HMAC_SECRET", "invalid_format")

		_, err := HMACSecrets()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BR_HMAC_SECRET")
	})
}

func TestParseHMACSecretWithID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr string
	}{
		{"missing separator", "invalid_format", "format must be"},
		{"short secret_id", "short:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w", "32 hex chars"},
		{"non-hex secret_id", "0123456789abcdefGHIJKLMNOPQRSTUV:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w", "hex chars only"},
		{"bad base64", "0123456789abcdef0123456789abcdef:!!!", "invalid base64"},
		{"short secret", "0123456789abcdef0123456789abcdef:c2hvcnQ=", "at least 32 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseHMACSecretWithID(tt.value)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	id, secret, err := ParseHMACSecretWithID("  " + secretA + "\n")
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", id)
	assert.Equal(t, "testsecret1234567890abcdefghijklmnop", string(secret))
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 6000
  request_timeout: 5s
engine:
  max_depth: 32
  allow_reflection: true
database:
  url: sqlite://rules.db
`)

	t.Run("file over defaults", func(t *testing.T) {
		cfg, err := LoadConfig(path, nil)
		require.NoError(t, err)
		assert.Equal(t, 6000, cfg.Server.Port)
		assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
		assert.Equal(t, 32, cfg.Engine.MaxDepth)
		assert.True(t, cfg.Engine.AllowReflection)
		assert.Equal(t, "sqlite://rules.db", cfg.Database.URL)
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	})

	t.Run("environment over file", func(t *testing.T) {
		t.Setenv("BR_SERVER_PORT", "7000")
		t.Setenv("BR_ENGINE_MAX_DEPTH", "8")

		cfg, err := LoadConfig(path, nil)
		require.NoError(t, err)
		assert.Equal(t, 7000, cfg.Server.Port)
		assert.Equal(t, 8, cfg.Engine.MaxDepth)
	})

	t.Run("changed flags over environment", func(t *testing.T) {
		t.Setenv("BR_SERVER_PORT", "7000")

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.Int("port", 0, "")
		flags.String("db-url", "", "")
		require.NoError(t, flags.Parse([]string{"--port", "8000"}))

		cfg, err := LoadConfig(path, flags)
		require.NoError(t, err)
		assert.Equal(t, 8000, cfg.Server.Port)
		assert.Equal(t, "sqlite://rules.db", cfg.Database.URL, "unchanged flag must not override")
	})
}

func TestLoadConfig_RejectsSecretsInFile(t *testing.T) {
	path := writeConfig(t, "hmac_secret: \""+secretA+"\"\n")

	_, err := LoadConfig(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BR_HMAC_SECRET")
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"port out of range", "server:\n  port: 70000\n", "port must be between"},
		{"negative metrics port", "server:\n  metrics_port: -1\n", "metrics_port must be between"},
		{"metrics port clash", "server:\n  port: 9000\n  metrics_port: 9000\n", "must differ"},
		{"zero timeout", "server:\n  request_timeout: 0s\n", "request_timeout must be positive"},
		{"negative depth", "engine:\n  max_depth: -1\n", "max_depth must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("metrics disabled", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, "server:\n  metrics_port: 0\n"), nil)
		require.NoError(t, err)
		assert.Zero(t, cfg.Server.MetricsPort)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), nil)
		require.Error(t, err)
	})
}
