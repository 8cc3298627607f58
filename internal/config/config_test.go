package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/references"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "refcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), false)
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, 2113, cfg.Server.AdminPort)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, references.PolicyStrict, cfg.Policy())
	assert.Equal(t, references.DefaultMaxReferences, cfg.References.MaxReferences)
	assert.Equal(t, SinkMemory, cfg.Audit.Sink)
	assert.Equal(t, "refcheck:audit", cfg.Audit.Stream)
	assert.False(t, cfg.Validator.CircuitBreaker.Enabled)
	assert.Equal(t, uint32(3), cfg.Validator.CircuitBreaker.FailureThreshold)
	assert.Equal(t, 60*time.Second, cfg.Validator.CircuitBreaker.OpenTimeout)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoadMissingRequiredFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), true)
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
references:
  policy: fallback
  max_references: 5
validator:
  per_host_rps: 0.5
  circuit_breaker:
    enabled: true
    open_timeout: 30s
audit:
  sink: redis
  redis_addr: localhost:6380
`)
	cfg, err := LoadFile(path, true)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 2113, cfg.Server.AdminPort)
	assert.Equal(t, references.PolicyFallback, cfg.Policy())
	assert.Equal(t, 5, cfg.References.MaxReferences)
	assert.Equal(t, 0.5, cfg.Validator.PerHostRPS)
	assert.True(t, cfg.Validator.CircuitBreaker.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Validator.CircuitBreaker.OpenTimeout)
	assert.Equal(t, uint32(3), cfg.Validator.CircuitBreaker.FailureThreshold)
	assert.Equal(t, SinkRedis, cfg.Audit.Sink)
	assert.Equal(t, "localhost:6380", cfg.Audit.RedisAddr)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "references:\n  policy: strict\n")
	t.Setenv("REFCHECK_CONFIG", path)
	t.Setenv("REFCHECK_REFERENCES_POLICY", "fallback")
	t.Setenv("REFCHECK_SERVER_PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, references.PolicyFallback, cfg.Policy())
	assert.Equal(t, 7001, cfg.Server.Port)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown policy", "references:\n  policy: lenient\n"},
		{"negative cap", "references:\n  max_references: -1\n"},
		{"unknown sink", "audit:\n  sink: kafka\n"},
		{"postgres without dsn", "audit:\n  sink: postgres\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.body), true)
			assert.Error(t, err)
		})
	}
}
