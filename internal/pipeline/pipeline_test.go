package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/star-dimension-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/star-dimension-etl/internal/domain"
	"github.com/couchcryptid/star-dimension-etl/internal/observability"
	"github.com/couchcryptid/star-dimension-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSource struct {
	airports []domain.Airport
	err      error
}

func (m *mockSource) LoadAirports(_ context.Context) ([]domain.Airport, error) {
	return m.airports, m.err
}

type mockLoader struct {
	name   string
	err    error
	loaded []domain.Dimensions
}

func (m *mockLoader) Name() string { return m.name }

func (m *mockLoader) Load(_ context.Context, dims domain.Dimensions) error {
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, dims)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func freezeToday(t *testing.T) time.Time {
	t.Helper()
	now := time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { domain.SetClock(nil) })
	return now
}

func airports(ids ...string) []domain.Airport {
	out := make([]domain.Airport, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Airport{ID: id})
	}
	return out
}

// --- tests ---

func TestGenerator_Run_HappyPath(t *testing.T) {
	freezeToday(t)
	src := &mockSource{airports: airports("A1", "A2")}
	first := &mockLoader{name: "first"}
	second := &mockLoader{name: "second"}
	metrics := observability.NewMetricsForTesting()

	g := pipeline.New(src, []pipeline.Loader{first, second}, domain.NewRandomSource(1), discardLogger(), metrics)

	dims, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, dims.RunID)
	assert.Equal(t, "2024-04-26", dims.ProcessingDate.Format(time.DateOnly))
	assert.Len(t, dims.Calendar, 8)
	assert.Len(t, dims.Weather, 16)

	require.Len(t, first.loaded, 1)
	require.Len(t, second.loaded, 1)
	assert.Equal(t, dims, first.loaded[0])
	assert.Equal(t, dims, second.loaded[0])

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(8), testutil.ToFloat64(metrics.RowsGenerated.WithLabelValues("date")))
	assert.Equal(t, float64(16), testutil.ToFloat64(metrics.RowsGenerated.WithLabelValues("weather")))
}

func TestGenerator_Run_EmptyAirportsWritesNothing(t *testing.T) {
	freezeToday(t)
	dir := t.TempDir()
	writer := csvfile.NewWriter(dir, "date.csv", "weather.csv")
	metrics := observability.NewMetricsForTesting()

	g := pipeline.New(&mockSource{}, []pipeline.Loader{writer}, domain.NewRandomSource(1), discardLogger(), metrics)

	_, err := g.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrInput)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("input_error")))
}

func TestGenerator_Run_RepeatedAirportWritesNothing(t *testing.T) {
	freezeToday(t)
	ldr := &mockLoader{name: "csv"}
	src := &mockSource{airports: []domain.Airport{{ID: "A1"}, {ID: "A2"}, {ID: "A1"}}}

	g := pipeline.New(src, []pipeline.Loader{ldr}, domain.NewRandomSource(1), discardLogger(), observability.NewMetricsForTesting())

	_, err := g.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrInput)
	assert.Contains(t, err.Error(), `airport_id "A1" repeats at row 3`)
	assert.Empty(t, ldr.loaded)
}

func TestGenerator_Run_SourceError(t *testing.T) {
	freezeToday(t)
	ldr := &mockLoader{name: "csv"}
	srcErr := fmt.Errorf("%w: open airport.csv: no such file", domain.ErrIO)
	metrics := observability.NewMetricsForTesting()

	g := pipeline.New(&mockSource{err: srcErr}, []pipeline.Loader{ldr}, domain.NewRandomSource(1), discardLogger(), metrics)

	_, err := g.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrIO)
	assert.Contains(t, err.Error(), "load airports")
	assert.Empty(t, ldr.loaded)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("io_error")))
}

func TestGenerator_Run_LoaderErrorStopsLaterLoaders(t *testing.T) {
	freezeToday(t)
	failing := &mockLoader{name: "kafka", err: errors.New("broker unavailable")}
	after := &mockLoader{name: "postgres"}
	metrics := observability.NewMetricsForTesting()

	g := pipeline.New(&mockSource{airports: airports("A1")}, []pipeline.Loader{failing, after}, domain.NewRandomSource(1), discardLogger(), metrics)

	_, err := g.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka sink")
	assert.Empty(t, after.loaded)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SinkErrors.WithLabelValues("kafka")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("error")))
}

func TestGenerator_Run_CancelledContext(t *testing.T) {
	freezeToday(t)
	ldr := &mockLoader{name: "csv"}
	g := pipeline.New(&mockSource{airports: airports("A1")}, []pipeline.Loader{ldr}, domain.NewRandomSource(1), discardLogger(), observability.NewMetricsForTesting())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ldr.loaded)
}

func TestGenerator_Run_SameDayCalendarIsStable(t *testing.T) {
	freezeToday(t)
	g := pipeline.New(&mockSource{airports: airports("A1")}, nil, domain.NewRandomSource(0), discardLogger(), observability.NewMetricsForTesting())

	first, err := g.Run(context.Background())
	require.NoError(t, err)
	second, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Calendar, second.Calendar)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestGenerator_Run_CSVEndToEnd(t *testing.T) {
	freezeToday(t)
	dir := t.TempDir()
	airportPath := filepath.Join(dir, "airport.csv")
	require.NoError(t, os.WriteFile(airportPath, []byte("airport_id,name\nA1,Alpha\nA2,Bravo\n"), 0o600))
	writer := csvfile.NewWriter(filepath.Join(dir, "out"), "date.csv", "weather.csv")

	g := pipeline.New(csvfile.NewAirportReader(airportPath), []pipeline.Loader{writer}, domain.NewRandomSource(3), discardLogger(), observability.NewMetricsForTesting())

	_, err := g.Run(context.Background())
	require.NoError(t, err)

	weather, err := csvfile.ReadWeatherFile(writer.WeatherPath())
	require.NoError(t, err)
	require.Len(t, weather, 16)
	for i, o := range weather[:8] {
		assert.Equal(t, "A1", o.AirportID)
		assert.Equal(t, i+1, o.DateID)
	}
	for i, o := range weather[8:] {
		assert.Equal(t, "A2", o.AirportID)
		assert.Equal(t, i+1, o.DateID)
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, "success"},
		{"input", fmt.Errorf("wrap: %w", domain.ErrInput), "input_error"},
		{"io", fmt.Errorf("wrap: %w", domain.ErrIO), "io_error"},
		{"other", errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pipeline.Outcome(tt.err))
		})
	}
}

func TestWritePreview(t *testing.T) {
	dims, err := domain.Generate("run-1", time.Date(2024, time.April, 26, 0, 0, 0, 0, time.UTC), airports("A1"), domain.NewRandomSource(2))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, pipeline.WritePreview(&buf, dims, 5))
	out := buf.String()

	assert.Contains(t, out, "DIM_DATE (5 of 8 rows):")
	assert.Contains(t, out, "DIM_WEATHER sample (5 of 8 rows):")
	assert.Contains(t, out, "2024-04-19")
	assert.NotContains(t, out, "2024-04-26")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	// title + header + 5 rows, blank line, title + header + 5 rows
	assert.Len(t, lines, 15)
}

func TestWritePreview_ZeroRows(t *testing.T) {
	dims, err := domain.Generate("run-1", time.Date(2024, time.April, 26, 0, 0, 0, 0, time.UTC), airports("A1"), domain.NewRandomSource(2))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, pipeline.WritePreview(&buf, dims, -1))
	assert.Contains(t, buf.String(), "DIM_DATE (0 of 8 rows):")
	assert.Contains(t, buf.String(), "date_id")
}
