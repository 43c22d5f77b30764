package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/star-dimension-etl/internal/domain"
	"github.com/couchcryptid/star-dimension-etl/internal/observability"
	"github.com/google/uuid"
)

// AirportSource supplies the airport dimension in its stored order.
type AirportSource interface {
	LoadAirports(ctx context.Context) ([]domain.Airport, error)
}

// Loader persists a complete set of generated dimensions.
type Loader interface {
	Name() string
	Load(ctx context.Context, dims domain.Dimensions) error
}

// Generator runs one extract-generate-load pass: read airports, build the
// calendar and weather dimensions, and hand them to every loader in order.
type Generator struct {
	source  AirportSource
	loaders []Loader
	rng     domain.RandomSource
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Generator. Loaders run in the order given; the first failure
// aborts the run.
func New(source AirportSource, loaders []Loader, rng domain.RandomSource, logger *slog.Logger, metrics *observability.Metrics) *Generator {
	return &Generator{
		source:  source,
		loaders: loaders,
		rng:     rng,
		logger:  logger,
		metrics: metrics,
	}
}

// Run generates dimensions for the current processing date and loads them.
// Nothing is handed to a loader unless generation succeeded.
func (g *Generator) Run(ctx context.Context) (domain.Dimensions, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := g.logger.With("run_id", runID)

	dims, err := g.run(ctx, runID, logger)
	g.metrics.RunsTotal.WithLabelValues(Outcome(err)).Inc()
	if err != nil {
		logger.Error("dimension generation failed", "error", err, "outcome", Outcome(err))
		return domain.Dimensions{}, err
	}

	g.metrics.RunDuration.Observe(time.Since(start).Seconds())
	g.metrics.RowsGenerated.WithLabelValues("date").Add(float64(len(dims.Calendar)))
	g.metrics.RowsGenerated.WithLabelValues("weather").Add(float64(len(dims.Weather)))
	logger.Info("dimensions generated",
		"processing_date", dims.ProcessingDate.Format(time.DateOnly),
		"date_rows", len(dims.Calendar),
		"weather_rows", len(dims.Weather),
		"duration", time.Since(start),
	)
	return dims, nil
}

func (g *Generator) run(ctx context.Context, runID string, logger *slog.Logger) (domain.Dimensions, error) {
	airports, err := g.source.LoadAirports(ctx)
	if err != nil {
		return domain.Dimensions{}, fmt.Errorf("load airports: %w", err)
	}
	logger.Debug("airports loaded", "count", len(airports))

	dims, err := domain.Generate(runID, domain.ProcessingDate(), airports, g.rng)
	if err != nil {
		return domain.Dimensions{}, fmt.Errorf("generate dimensions: %w", err)
	}

	for _, l := range g.loaders {
		if err := ctx.Err(); err != nil {
			return domain.Dimensions{}, err
		}
		if err := l.Load(ctx, dims); err != nil {
			g.metrics.SinkErrors.WithLabelValues(l.Name()).Inc()
			return domain.Dimensions{}, fmt.Errorf("%s sink: %w", l.Name(), err)
		}
		logger.Debug("dimensions loaded", "sink", l.Name())
	}
	return dims, nil
}

// Outcome classifies a run error for metrics and exit codes.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInput):
		return "input_error"
	case errors.Is(err, domain.ErrIO):
		return "io_error"
	default:
		return "error"
	}
}
