// Command dimgen generates the date and weather dimensions for the current
// processing date and writes them to CSV, plus Kafka and Postgres when enabled.
//
// On success it prints a confirmation and a preview of both tables to stdout.
// Logs go to stderr. Exit status is 1 for input and configuration errors and
// 2 for I/O errors.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/star-dimension-etl/internal/adapter/csvfile"
	kafkaadapter "github.com/couchcryptid/star-dimension-etl/internal/adapter/kafka"
	"github.com/couchcryptid/star-dimension-etl/internal/adapter/postgres"
	"github.com/couchcryptid/star-dimension-etl/internal/config"
	"github.com/couchcryptid/star-dimension-etl/internal/domain"
	"github.com/couchcryptid/star-dimension-etl/internal/observability"
	"github.com/couchcryptid/star-dimension-etl/internal/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Stdout, os.Stderr, observability.NewMetrics())
	stop()
	os.Exit(code)
}

func run(ctx context.Context, stdout, stderr io.Writer, metrics *observability.Metrics) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "dimgen: load config: %v\n", err)
		return 1
	}

	logger := observability.NewLogger(cfg, stderr)

	gen, csvWriter, cleanup, err := build(ctx, cfg, logger, metrics)
	defer cleanup()
	if err != nil {
		fmt.Fprintf(stderr, "dimgen: %v\n", err)
		return exitCode(err)
	}

	dims, err := gen.Run(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "dimgen: %v\n", err)
		return exitCode(err)
	}

	fmt.Fprintf(stdout, "Generated %d date rows -> %s\n", len(dims.Calendar), csvWriter.DatePath())
	fmt.Fprintf(stdout, "Generated %d weather rows -> %s\n", len(dims.Weather), csvWriter.WeatherPath())
	if err := pipeline.WritePreview(stdout, dims, cfg.PreviewRows); err != nil {
		fmt.Fprintf(stderr, "dimgen: write preview: %v\n", err)
	}
	return 0
}

// build wires the airport source and loaders selected by cfg. The returned
// cleanup closes any network sinks and is never nil.
func build(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*pipeline.Generator, *csvfile.Writer, func(), error) {
	var closers []io.Closer
	cleanup := func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				logger.Warn("close sink", "error", err)
			}
		}
	}

	var store *postgres.Store
	if cfg.PostgresEnabled || cfg.AirportSource == config.AirportSourcePostgres {
		var err error
		store, err = postgres.Open(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, nil, cleanup, err
		}
		closers = append(closers, store)
	}

	var source pipeline.AirportSource = csvfile.NewAirportReader(cfg.AirportFile)
	if cfg.AirportSource == config.AirportSourcePostgres {
		source = store
	}

	csvWriter := csvfile.NewWriter(cfg.OutputDir, cfg.DateFile, cfg.WeatherFile)
	loaders := []pipeline.Loader{csvWriter}

	if cfg.PostgresEnabled {
		if err := store.Migrate(ctx); err != nil {
			return nil, nil, cleanup, err
		}
		loaders = append(loaders, store)
	}

	if cfg.KafkaEnabled {
		kw := kafkaadapter.NewWriter(cfg, logger)
		closers = append(closers, kw)
		loaders = append(loaders, kw)
	}

	logger.Info("dimension generator configured",
		"airport_source", cfg.AirportSource,
		"output_dir", cfg.OutputDir,
		"postgres", cfg.PostgresEnabled,
		"kafka", cfg.KafkaEnabled,
	)

	gen := pipeline.New(source, loaders, domain.NewRandomSource(cfg.RandomSeed), logger, metrics)
	return gen, csvWriter, cleanup, nil
}

func exitCode(err error) int {
	if errors.Is(err, domain.ErrIO) {
		return 2
	}
	return 1
}
