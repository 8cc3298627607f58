package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/circuitbreaker"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/references"
)

// DefaultPath is read when REFCHECK_CONFIG is unset. A missing file at the
// default path is not an error.
const DefaultPath = "/app/config/refcheck.yaml"

// Audit sink kinds.
const (
	SinkMemory   = "memory"
	SinkRedis    = "redis"
	SinkPostgres = "postgres"
)

type ServerConfig struct {
	Port      int `mapstructure:"port"`
	AdminPort int `mapstructure:"admin_port"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type ReferencesConfig struct {
	Policy        string `mapstructure:"policy"`
	MaxReferences int    `mapstructure:"max_references"`
	DefaultsPath  string `mapstructure:"defaults_path"`
}

type SourcesConfig struct {
	Path string `mapstructure:"path"`
}

type ValidatorConfig struct {
	PerHostRPS     float64                  `mapstructure:"per_host_rps"`
	PerHostBurst   int                      `mapstructure:"per_host_burst"`
	CircuitBreaker circuitbreaker.HostConfig `mapstructure:"circuit_breaker"`
}

type AuditConfig struct {
	Sink           string `mapstructure:"sink"`
	MemoryCapacity int    `mapstructure:"memory_capacity"`
	RedisAddr      string `mapstructure:"redis_addr"`
	Stream         string `mapstructure:"stream"`
	PostgresDSN    string `mapstructure:"postgres_dsn"`
}

type TracingConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// Config is the service configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	References ReferencesConfig `mapstructure:"references"`
	Sources    SourcesConfig    `mapstructure:"sources"`
	Validator  ValidatorConfig  `mapstructure:"validator"`
	Audit      AuditConfig      `mapstructure:"audit"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

func setDefaults(v *viper.Viper) {
	cb := circuitbreaker.DefaultHostConfig()

	v.SetDefault("server.port", 8090)
	v.SetDefault("server.admin_port", 2113)
	v.SetDefault("logging.level", "info")
	v.SetDefault("references.policy", string(references.PolicyStrict))
	v.SetDefault("references.max_references", references.DefaultMaxReferences)
	v.SetDefault("references.defaults_path", "")
	v.SetDefault("sources.path", "")
	v.SetDefault("validator.per_host_rps", 2.0)
	v.SetDefault("validator.per_host_burst", 4)
	v.SetDefault("validator.circuit_breaker.enabled", cb.Enabled)
	v.SetDefault("validator.circuit_breaker.max_requests", cb.MaxRequests)
	v.SetDefault("validator.circuit_breaker.interval", cb.Interval)
	v.SetDefault("validator.circuit_breaker.open_timeout", cb.OpenTimeout)
	v.SetDefault("validator.circuit_breaker.failure_threshold", cb.FailureThreshold)
	v.SetDefault("validator.circuit_breaker.success_threshold", cb.SuccessThreshold)
	v.SetDefault("audit.sink", SinkMemory)
	v.SetDefault("audit.memory_capacity", 256)
	v.SetDefault("audit.redis_addr", "redis:6379")
	v.SetDefault("audit.stream", "refcheck:audit")
	v.SetDefault("audit.postgres_dsn", "")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "refcheck")
	v.SetDefault("tracing.otlp_endpoint", "localhost:4317")
}

// Load reads the file named by REFCHECK_CONFIG (or DefaultPath) and applies
// REFCHECK_* environment overrides, e.g. REFCHECK_REFERENCES_POLICY.
func Load() (*Config, error) {
	path := os.Getenv("REFCHECK_CONFIG")
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	return LoadFile(path, explicit)
}

// LoadFile loads configuration from path. When required is false a missing
// file yields defaults plus environment overrides.
func LoadFile(path string, required bool) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("REFCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist) && !required:
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the service cannot start with.
func (c *Config) Validate() error {
	if _, err := references.ParsePolicy(c.References.Policy); err != nil {
		return fmt.Errorf("references.policy: %w", err)
	}
	if c.References.MaxReferences < 0 {
		return fmt.Errorf("references.max_references must not be negative")
	}
	switch c.Audit.Sink {
	case SinkMemory:
	case SinkRedis:
		if c.Audit.RedisAddr == "" {
			return fmt.Errorf("audit.redis_addr is required for the redis sink")
		}
	case SinkPostgres:
		if c.Audit.PostgresDSN == "" {
			return fmt.Errorf("audit.postgres_dsn is required for the postgres sink")
		}
	default:
		return fmt.Errorf("audit.sink: unknown sink %q", c.Audit.Sink)
	}
	return nil
}

// Policy returns the parsed default acceptance policy.
func (c *Config) Policy() references.Policy {
	p, _ := references.ParsePolicy(c.References.Policy)
	return p
}

