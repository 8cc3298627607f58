package circuitbreaker

import "time"

// HostConfig is the per-publisher-host breaker configuration, loaded from the
// validator.circuit_breaker config block.
type HostConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	SuccessThreshold uint32        `mapstructure:"success_threshold"`
}

// DefaultHostConfig returns defaults tuned for unreachable publisher sites:
// within one validation batch, a host that fails at the transport level three
// times in a row is skipped. Breakers are off unless enabled in config.
func DefaultHostConfig() HostConfig {
	return HostConfig{
		Enabled:          false,
		MaxRequests:      8,
		Interval:         2 * time.Minute,
		OpenTimeout:      60 * time.Second,
		FailureThreshold: 3,
		SuccessThreshold: 1,
	}
}

// ToConfig converts HostConfig to a breaker Config, filling zero fields from
// the defaults.
func (hc HostConfig) ToConfig() Config {
	def := DefaultHostConfig()
	cfg := Config{
		MaxRequests:      hc.MaxRequests,
		Interval:         hc.Interval,
		Timeout:          hc.OpenTimeout,
		FailureThreshold: hc.FailureThreshold,
		SuccessThreshold: hc.SuccessThreshold,
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = def.MaxRequests
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.OpenTimeout
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	return cfg
}
