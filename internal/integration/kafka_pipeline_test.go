//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/star-dimension-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/star-dimension-etl/internal/adapter/kafka"
	"github.com/couchcryptid/star-dimension-etl/internal/config"
	"github.com/couchcryptid/star-dimension-etl/internal/domain"
	"github.com/couchcryptid/star-dimension-etl/internal/observability"
	"github.com/couchcryptid/star-dimension-etl/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	testDateTopic    = "test-dim-date"
	testWeatherTopic = "test-dim-weather"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("dimgen-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type publishedRow struct {
	Key     string
	Headers map[string]string
	Value   map[string]any
}

func readRows(ctx context.Context, t *testing.T, broker, topic string, n int) []publishedRow {
	t.Helper()
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer reader.Close()

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows := make([]publishedRow, 0, n)
	for range n {
		msg, err := reader.ReadMessage(readCtx)
		require.NoError(t, err, "read from %s", topic)

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		var value map[string]any
		require.NoError(t, json.Unmarshal(msg.Value, &value))
		rows = append(rows, publishedRow{Key: string(msg.Key), Headers: headers, Value: value})
	}
	return rows
}

// TestPipelineEndToEnd generates dimensions from an airport CSV and checks
// that the CSV files and both Kafka topics receive every row.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testDateTopic)
	createTopic(t, broker, testWeatherTopic)

	dir := t.TempDir()
	airportFile := filepath.Join(dir, "airport.csv")
	require.NoError(t, os.WriteFile(airportFile, []byte("airport_id,name\nA1,Alpha\nA2,Bravo\n"), 0o600))

	cfg := &config.Config{
		KafkaBrokers:      []string{broker},
		KafkaDateTopic:    testDateTopic,
		KafkaWeatherTopic: testWeatherTopic,
		BatchSize:         1,
	}
	kw := kafka.NewWriter(cfg, discardLogger())
	defer kw.Close()

	csvw := csvfile.NewWriter(dir, "date.csv", "weather.csv")
	gen := pipeline.New(
		csvfile.NewAirportReader(airportFile),
		[]pipeline.Loader{csvw, kw},
		domain.NewRandomSource(7),
		discardLogger(),
		observability.NewMetricsForTesting(),
	)

	dims, err := gen.Run(ctx)
	require.NoError(t, err)
	require.Len(t, dims.Calendar, domain.WindowDays)
	require.Len(t, dims.Weather, 2*domain.WindowDays)

	calendar, err := csvfile.ReadCalendarFile(csvw.DatePath())
	require.NoError(t, err)
	assert.Len(t, calendar, domain.WindowDays)

	dates := readRows(ctx, t, broker, testDateTopic, domain.WindowDays)
	for i, row := range dates {
		assert.Equal(t, strconv.Itoa(i+1), row.Key)
		assert.Equal(t, dims.RunID, row.Headers["run_id"])
		assert.Equal(t, "date", row.Headers["table"])
		assert.Equal(t, dims.Calendar[i].CalendarDate.Format(time.DateOnly), row.Value["calendar_date"])
	}

	weather := readRows(ctx, t, broker, testWeatherTopic, 2*domain.WindowDays)
	for i, row := range weather {
		assert.Equal(t, strconv.Itoa(i+1), row.Key)
		assert.Equal(t, "weather", row.Headers["table"])
		assert.Equal(t, dims.Weather[i].AirportID, row.Value["airport_id"])
	}
}
