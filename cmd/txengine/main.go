package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/txledger/internal/adapter/csvio"
	"github.com/iho/txledger/internal/adapter/http/dto"
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
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	precision   int32
	logLevel    string
	logFormat   string
	redisURL    string
	databaseURL string
	metricsFile string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "txengine <transactions.csv>",
		Short: "Replay a transaction file and print the resulting accounts",
		Long: `Reads deposits, withdrawals, disputes, resolves and chargebacks from a CSV
file in arrival order and writes one row per client to stdout.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			applyFlags(cmd, cfg, opts)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, args[0], stdout, stderr)
		},
	}

	flags := rootCmd.Flags()
	flags.Int32Var(&opts.precision, "precision", usecase.DefaultAmountPrecision, "Fractional digits amounts are rounded to")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error, off)")
	flags.StringVar(&opts.logFormat, "log-format", "console", "Log format (console, json)")
	flags.StringVar(&opts.redisURL, "redis-url", "", "Also store snapshots in Redis")
	flags.StringVar(&opts.databaseURL, "database-url", "", "Also upsert snapshots into PostgreSQL")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file when done")

	rootCmd.AddCommand(newConsistencyCmd(stdout))
	rootCmd.AddCommand(newMigrateCmd(stderr))

	return rootCmd
}

// applyFlags overrides environment configuration with explicitly set flags.
func applyFlags(cmd *cobra.Command, cfg *config.Config, opts options) {
	flags := cmd.Flags()
	if flags.Changed("precision") {
		cfg.AmountPrecision = opts.precision
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = opts.logFormat
	}
	if flags.Changed("redis-url") {
		cfg.RedisURL = opts.redisURL
	}
	if flags.Changed("database-url") {
		cfg.DatabaseURL = opts.databaseURL
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = opts.metricsFile
	}
}

func run(ctx context.Context, cfg *config.Config, path string, stdout, stderr io.Writer) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("transactions file: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open transactions file: %w", err)
	}
	defer file.Close()

	runID := postgresRepo.NewULIDGenerator().Generate()
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: stderr,
	}).With().Str("run_id", runID).Logger()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	sinks, closeSinks, sinkErr := openSinks(ctx, cfg, runID, log)
	defer closeSinks()

	ledger := usecase.NewLedgerUseCase(memory.NewAccountRepository(), memory.NewDisputeRepository(), usecase.LedgerConfig{
		Precision: cfg.AmountPrecision,
		Logger:    &log,
		Metrics:   m,
	})
	process := usecase.NewProcessUseCase(ledger, log, m, sinks...)

	result, err := process.Run(ctx, csvio.NewReader(file, log))
	if err != nil {
		return err
	}

	if _, err := ledger.CheckConsistency(); err != nil {
		log.Error().Err(err).Msg("ledger consistency check failed")
		return err
	}

	snapshots, exportErr := process.Export(ctx)
	if exportErr != nil {
		log.Error().Err(exportErr).Msg("failed to export snapshots")
	}

	if err := csvio.NewWriter(stdout, ledger.Precision()).Write(ctx, snapshots); err != nil {
		return fmt.Errorf("failed to write snapshots: %w", err)
	}

	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, reg); err != nil {
			return fmt.Errorf("failed to write metrics file: %w", err)
		}
	}

	log.Info().
		Int("records", result.Records).
		Int("skipped", result.Skipped).
		Int("accounts", result.Accounts).
		Msg("run completed")

	return errors.Join(sinkErr, exportErr)
}

// openSinks connects the optional snapshot stores. A store that cannot be
// reached is logged and left out so the run still prints its CSV; the
// connection errors come back joined. The returned func closes whatever
// was opened.
func openSinks(ctx context.Context, cfg *config.Config, runID string, log zerolog.Logger) ([]usecase.SnapshotSink, func(), error) {
	var (
		sinks   []usecase.SnapshotSink
		closers []func()
		errs    []error
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(sink string, err error) {
		log.Error().Err(err).Str("sink", sink).Msg("snapshot sink disabled")
		errs = append(errs, err)
	}

	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			fail("redis", fmt.Errorf("failed to connect to redis: %w", err))
		} else {
			closers = append(closers, func() { _ = client.Close() })
			sinks = append(sinks, redisRepo.NewSnapshotStore(client, cfg.RedisPrefix, cfg.RedisTTL, cfg.AmountPrecision))
			log.Debug().Msg("redis sink enabled")
		}
	}

	if cfg.DatabaseURL != "" {
		if sink, closePool, err := openPostgresSink(ctx, cfg, runID, log); err != nil {
			fail("postgres", err)
		} else {
			closers = append(closers, closePool)
			sinks = append(sinks, sink)
			log.Debug().Msg("postgres sink enabled")
		}
	}

	return sinks, closeAll, errors.Join(errs...)
}

func openPostgresSink(ctx context.Context, cfg *config.Config, runID string, log zerolog.Logger) (usecase.SnapshotSink, func(), error) {
	if err := postgres.RunMigrations(cfg.DatabaseURL, log); err != nil {
		return nil, nil, err
	}
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return postgresRepo.NewSnapshotRepository(pool, postgresRepo.NewRetrier(log), runID), pool.Close, nil
}

func newConsistencyCmd(stdout io.Writer) *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check the consistency of a running txledger server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkConsistency(cmd.Context(), stdout, baseURL, timeout)
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the txledger server")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	return cmd
}

func newMigrateCmd(stderr io.Writer) *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:       "migrate <up|down>",
		Short:     "Apply or roll back the account_snapshots schema",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				databaseURL = os.Getenv("DATABASE_URL")
			}
			if databaseURL == "" {
				return errors.New("--database-url or DATABASE_URL is required")
			}

			log := logger.New(logger.Config{Level: "info", Format: "console", Output: stderr})
			switch args[0] {
			case "up":
				return postgres.RunMigrations(databaseURL, log)
			case "down":
				return postgres.RunMigrationsDown(databaseURL, log)
			default:
				return fmt.Errorf("unknown direction %q", args[0])
			}
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL URL (defaults to DATABASE_URL)")

	return cmd
}

var errInconsistent = errors.New("consistency check failed")

func checkConsistency(ctx context.Context, stdout io.Writer, baseURL string, timeout time.Duration) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/ledger/consistency", nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var result dto.ConsistencyResponse
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("%w: status %d: %s", errInconsistent, resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if !result.Consistent {
		fmt.Fprintf(stdout, "Consistency check FAILED\nStatus: %s\nMessage: %s\n", result.Status, result.Message)
		return errInconsistent
	}

	fmt.Fprintf(stdout, "Consistency check PASSED\nStatus: %s\n", result.Status)
	return nil
}
