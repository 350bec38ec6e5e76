package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/txledger/internal/adapter/http"
	"github.com/iho/txledger/internal/adapter/http/handler"
	"github.com/iho/txledger/internal/adapter/http/middleware"
	"github.com/iho/txledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/txledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/txledger/internal/adapter/repository/redis"
	"github.com/iho/txledger/internal/infrastructure/config"
	"github.com/iho/txledger/internal/infrastructure/logger"
	"github.com/iho/txledger/internal/infrastructure/metrics"
	"github.com/iho/txledger/internal/infrastructure/postgres"
	"github.com/iho/txledger/internal/infrastructure/redis"
	"github.com/iho/txledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log.Logger); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

// run serves the ledger until ctx is cancelled, then drains in-flight
// requests and exports the final snapshots to the configured sinks.
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	runID := postgresRepo.NewULIDGenerator().Generate()
	logger = logger.With().Str("run_id", runID).Logger()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	deps := map[string]handler.Pinger{}
	var sinks []usecase.SnapshotSink

	// Connect to Redis
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		logger.Info().Msg("connected to redis")

		deps["redis"] = handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
		sinks = append(sinks, redisRepo.NewSnapshotStore(redisClient, cfg.RedisPrefix, cfg.RedisTTL, cfg.AmountPrecision))
	}

	// Connect to PostgreSQL
	if cfg.DatabaseURL != "" {
		if err := postgres.RunMigrations(cfg.DatabaseURL, logger); err != nil {
			return err
		}
		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DatabaseMaxConns,
			MinConns:       cfg.DatabaseMinConns,
			ConnectTimeout: cfg.DatabaseTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		defer pool.Close()
		logger.Info().Msg("connected to postgres")

		deps["postgres"] = handler.PingFunc(pool.Ping)
		sinks = append(sinks, postgresRepo.NewSnapshotRepository(pool, postgresRepo.NewRetrier(logger), runID))
	}

	ledger := usecase.NewSyncLedger(usecase.NewLedgerUseCase(
		memory.NewAccountRepository(),
		memory.NewDisputeRepository(),
		usecase.LedgerConfig{Precision: cfg.AmountPrecision, Logger: &logger, Metrics: m},
	))

	var limiter *middleware.RateLimiter
	if cfg.HTTPRateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.HTTPRateLimit, cfg.HTTPRateBurst, m)
		logger.Info().Float64("rate", cfg.HTTPRateLimit).Int("burst", cfg.HTTPRateBurst).Msg("rate limiting enabled")
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		TransactionHandler: handler.NewTransactionHandler(ledger),
		AccountHandler:     handler.NewAccountHandler(ledger),
		LedgerHandler:      handler.NewLedgerHandler(ledger),
		HealthHandler:      handler.NewHealthHandler(deps),
		Logger:             logger,
		Metrics:            m,
		Gatherer:           reg,
		RateLimiter:        limiter,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if limiter != nil {
		g.Go(func() error {
			pruneLimiters(gctx, limiter, logger)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	// The request context is gone by now, so the export gets its own.
	process := usecase.NewProcessUseCase(ledger, logger, m, sinks...)
	snapshots, err := process.Export(context.Background())
	if err != nil {
		return fmt.Errorf("failed to export snapshots: %w", err)
	}

	logger.Info().Int("accounts", len(snapshots)).Msg("final snapshots exported")
	return nil
}

const (
	limiterPruneInterval = time.Minute
	limiterIdleTimeout   = 10 * time.Minute
)

// pruneLimiters forgets clients that have been quiet for limiterIdleTimeout.
func pruneLimiters(ctx context.Context, limiter *middleware.RateLimiter, logger zerolog.Logger) {
	ticker := time.NewTicker(limiterPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := limiter.Prune(limiterIdleTimeout); removed > 0 {
				logger.Debug().Int("removed", removed).Int("tracked", limiter.Len()).Msg("pruned idle rate limiters")
			}
		}
	}
}
