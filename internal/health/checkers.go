package health

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/sources"
)

// RedisHealthChecker checks Redis connectivity for the audit stream.
type RedisHealthChecker struct {
	client   redis.UniversalClient
	critical bool
	logger   *zap.Logger
	timeout  time.Duration
}

// NewRedisHealthChecker creates a Redis health checker
func NewRedisHealthChecker(client redis.UniversalClient, critical bool, logger *zap.Logger) *RedisHealthChecker {
	return &RedisHealthChecker{client: client, critical: critical, logger: logger, timeout: 5 * time.Second}
}

func (r *RedisHealthChecker) Name() string           { return "redis" }
func (r *RedisHealthChecker) IsCritical() bool       { return r.critical }
func (r *RedisHealthChecker) Timeout() time.Duration { return r.timeout }

func (r *RedisHealthChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	err := r.client.Ping(ctx).Err()
	latency := time.Since(start)

	if err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Error:   err.Error(),
			Message: "Redis ping failed",
			Details: map[string]interface{}{"latency_ms": latency.Milliseconds()},
		}
	}
	result := CheckResult{
		Status:  StatusHealthy,
		Message: "Redis healthy",
		Details: map[string]interface{}{"latency_ms": latency.Milliseconds()},
	}
	if latency > 100*time.Millisecond {
		result.Status = StatusDegraded
		result.Message = "Redis responding but with high latency"
	}
	return result
}

// DatabaseHealthChecker checks PostgreSQL connectivity for the audit table.
type DatabaseHealthChecker struct {
	db       *sqlx.DB
	critical bool
	logger   *zap.Logger
	timeout  time.Duration
}

// NewDatabaseHealthChecker creates a database health checker
func NewDatabaseHealthChecker(db *sqlx.DB, critical bool, logger *zap.Logger) *DatabaseHealthChecker {
	return &DatabaseHealthChecker{db: db, critical: critical, logger: logger, timeout: 5 * time.Second}
}

func (d *DatabaseHealthChecker) Name() string           { return "database" }
func (d *DatabaseHealthChecker) IsCritical() bool       { return d.critical }
func (d *DatabaseHealthChecker) Timeout() time.Duration { return d.timeout }

func (d *DatabaseHealthChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	if err := d.db.PingContext(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Message: "Database ping failed"}
	}

	stats := d.db.Stats()
	details := map[string]interface{}{
		"latency_ms":       time.Since(start).Milliseconds(),
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
	}
	if stats.MaxOpenConnections > 0 && stats.InUse >= stats.MaxOpenConnections {
		return CheckResult{Status: StatusDegraded, Message: "Database connection pool exhausted", Details: details}
	}
	return CheckResult{Status: StatusHealthy, Message: "Database healthy", Details: details}
}

// RegistryHealthChecker reports whether the source registry is loaded.
type RegistryHealthChecker struct {
	registry *sources.Registry
}

// NewRegistryHealthChecker creates a registry health checker
func NewRegistryHealthChecker(registry *sources.Registry) *RegistryHealthChecker {
	return &RegistryHealthChecker{registry: registry}
}

func (c *RegistryHealthChecker) Name() string           { return "source_registry" }
func (c *RegistryHealthChecker) IsCritical() bool       { return true }
func (c *RegistryHealthChecker) Timeout() time.Duration { return time.Second }

func (c *RegistryHealthChecker) Check(context.Context) CheckResult {
	n := c.registry.Len()
	if n == 0 {
		return CheckResult{Status: StatusUnhealthy, Message: "Source registry is empty"}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: "Source registry loaded",
		Details: map[string]interface{}{"sources": n},
	}
}

// CustomHealthChecker adapts a function into a Checker
type CustomHealthChecker struct {
	name     string
	critical bool
	timeout  time.Duration
	checkFn  func(ctx context.Context) CheckResult
}

// NewCustomHealthChecker creates a checker from checkFn
func NewCustomHealthChecker(name string, critical bool, timeout time.Duration, checkFn func(ctx context.Context) CheckResult) *CustomHealthChecker {
	return &CustomHealthChecker{name: name, critical: critical, timeout: timeout, checkFn: checkFn}
}

func (c *CustomHealthChecker) Name() string                          { return c.name }
func (c *CustomHealthChecker) IsCritical() bool                      { return c.critical }
func (c *CustomHealthChecker) Timeout() time.Duration                { return c.timeout }
func (c *CustomHealthChecker) Check(ctx context.Context) CheckResult { return c.checkFn(ctx) }
