package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/audit"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/config"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/health"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/httpapi"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/references"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/sources"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/tracing"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/validator"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Initialize(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
	}, logger)
	if err != nil {
		logger.Warn("Failed to initialize tracing", zap.Error(err))
	}

	registry, err := sources.LoadRegistry(cfg.Sources.Path, logger)
	if err != nil {
		logger.Fatal("Failed to load source registry", zap.Error(err))
	}
	defaults, err := references.LoadSectorDefaults(cfg.References.DefaultsPath)
	if err != nil {
		logger.Fatal("Failed to load sector defaults", zap.Error(err))
	}

	v := validator.New(logger,
		validator.WithHostRateLimit(cfg.Validator.PerHostRPS, cfg.Validator.PerHostBurst),
		validator.WithCircuitBreakers(cfg.Validator.CircuitBreaker),
	)
	assembler, err := references.NewAssembler(registry, v, references.Config{
		Policy:        cfg.Policy(),
		MaxReferences: cfg.References.MaxReferences,
		Defaults:      defaults,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create reference assembler", zap.Error(err))
	}

	hm := health.NewManager(logger)
	if err := hm.RegisterChecker(health.NewRegistryHealthChecker(registry)); err != nil {
		logger.Warn("Failed to register registry health checker", zap.Error(err))
	}

	sink, closeSink, err := openAuditSink(ctx, cfg.Audit, hm, logger)
	if err != nil {
		logger.Fatal("Failed to open audit sink", zap.Error(err))
	}
	defer closeSink()
	recorder := audit.NewRecorder(sink, logger)

	api := httpapi.NewServer(assembler, v, registry, recorder, logger)
	apiServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	adminMux := http.NewServeMux()
	health.NewHTTPHandler(hm, logger).RegisterRoutes(adminMux)
	adminMux.Handle("/metrics", promhttp.Handler())
	adminServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.AdminPort),
		Handler:      adminMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	_ = hm.Start(ctx)
	serve := func(name string, srv *http.Server) {
		logger.Info(name+" listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(name+" failed", zap.Error(err))
			stop()
		}
	}
	go serve("Admin HTTP server", adminServer)
	go serve("Reference API server", apiServer)

	logger.Info("Reference service started",
		zap.String("policy", string(assembler.Policy())),
		zap.Int("sources", registry.Len()),
		zap.String("audit_sink", sink.Name()),
		zap.Bool("circuit_breakers", cfg.Validator.CircuitBreaker.Enabled),
	)

	<-ctx.Done()
	logger.Info("Shutting down reference service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down API server", zap.Error(err))
	}
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down admin server", zap.Error(err))
	}
	_ = hm.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("Failed to flush traces", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging.level: %w", err)
	}
	if lvl == zapcore.DebugLevel {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// openAuditSink builds the configured sink and registers a health checker
// for its backing store. The returned func releases the connection.
func openAuditSink(ctx context.Context, cfg config.AuditConfig, hm *health.Manager, logger *zap.Logger) (audit.Sink, func(), error) {
	switch cfg.Sink {
	case config.SinkRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := hm.RegisterChecker(health.NewRedisHealthChecker(client, false, logger)); err != nil {
			logger.Warn("Failed to register Redis health checker", zap.Error(err))
		}
		return audit.NewRedisStreamSink(client, cfg.Stream, 0), func() { _ = client.Close() }, nil

	case config.SinkPostgres:
		openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		sink, err := audit.OpenPostgres(openCtx, cfg.PostgresDSN)
		if err != nil {
			return nil, func() {}, err
		}
		if err := hm.RegisterChecker(health.NewDatabaseHealthChecker(sink.DB(), false, logger)); err != nil {
			logger.Warn("Failed to register database health checker", zap.Error(err))
		}
		return sink, func() { _ = sink.DB().Close() }, nil

	default:
		return audit.NewMemorySink(cfg.MemoryCapacity), func() {}, nil
	}
}
