// Command scheduler runs the dimension generator followed by the external
// batch job, on SCHEDULE_INTERVAL or on POST /trigger, and serves health,
// readiness, and metrics endpoints.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/star-dimension-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/star-dimension-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/star-dimension-etl/internal/adapter/kafka"
	"github.com/couchcryptid/star-dimension-etl/internal/adapter/postgres"
	"github.com/couchcryptid/star-dimension-etl/internal/config"
	"github.com/couchcryptid/star-dimension-etl/internal/domain"
	"github.com/couchcryptid/star-dimension-etl/internal/observability"
	"github.com/couchcryptid/star-dimension-etl/internal/pipeline"
	"github.com/couchcryptid/star-dimension-etl/internal/scheduler"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Stdout, os.Stderr, observability.NewMetrics())
	stop()
	os.Exit(code)
}

// run serves until ctx is cancelled and returns the process exit status.
// Startup failures return 1 after releasing whatever was already opened.
func run(ctx context.Context, stdout, stderr io.Writer, metrics *observability.Metrics) int {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(stderr, nil)).Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg, stderr)
	readiness := httpadapter.Readiness{}

	var store *postgres.Store
	if cfg.PostgresEnabled || cfg.AirportSource == config.AirportSourcePostgres {
		store, err = postgres.Open(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			return 1
		}
		defer store.Close()
		readiness = append(readiness, store)
	}

	var source pipeline.AirportSource = csvfile.NewAirportReader(cfg.AirportFile)
	if cfg.AirportSource == config.AirportSourcePostgres {
		source = store
	}

	loaders := []pipeline.Loader{csvfile.NewWriter(cfg.OutputDir, cfg.DateFile, cfg.WeatherFile)}
	if cfg.PostgresEnabled {
		if err := store.Migrate(ctx); err != nil {
			logger.Error("failed to migrate warehouse schema", "error", err)
			return 1
		}
		loaders = append(loaders, store)
	}

	if cfg.KafkaEnabled {
		kafkaWriter := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := kafkaWriter.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, kafkaWriter)
	}

	gen := pipeline.New(source, loaders, domain.NewRandomSource(cfg.RandomSeed), logger, metrics)

	jobs := []scheduler.Job{scheduler.NewGenerateJob(gen)}
	if cfg.JobCommand != "" {
		jobs = append(jobs, scheduler.NewCommandJob(cfg.JobCommand, cfg.JobTimeout, stdout, stderr, logger))
	} else {
		logger.Info("no JOB_COMMAND configured, runs generate dimensions only")
	}

	sched := scheduler.New(jobs, scheduler.Options{
		Interval:   cfg.ScheduleInterval,
		Retries:    cfg.JobRetries,
		RetryDelay: cfg.JobRetryDelay,
	}, nil, logger, metrics)
	readiness = append(readiness, sched)

	srv := httpadapter.NewServer(cfg.HTTPAddr, readiness, sched, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start scheduler.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := sched.Run(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("scheduler did not stop before shutdown timeout")
	}

	logger.Info("shutdown complete")
	return 0
}
