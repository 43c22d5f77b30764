package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/star-dimension-etl/internal/config"
	"github.com/couchcryptid/star-dimension-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes generated dimension rows to Kafka, one message per row.
// It implements pipeline.Loader.
type Writer struct {
	writer       messageWriter
	dateTopic    string
	weatherTopic string
	logger       *slog.Logger
}

// NewWriter creates a Kafka producer for the configured date and weather topics.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
	}
	return &Writer{
		writer:       w,
		dateTopic:    cfg.KafkaDateTopic,
		weatherTopic: cfg.KafkaWeatherTopic,
		logger:       logger,
	}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// Load publishes every calendar row to the date topic and every observation
// to the weather topic in a single WriteMessages call.
func (w *Writer) Load(ctx context.Context, dims domain.Dimensions) error {
	msgs := make([]kafkago.Message, 0, len(dims.Calendar)+len(dims.Weather))
	for _, e := range dims.Calendar {
		msg, err := dateToMessage(w.dateTopic, dims, e)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	for _, o := range dims.Weather {
		msg, err := weatherToMessage(w.weatherTopic, dims, o)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return nil
	}

	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("%w: publish %d rows: %w", domain.ErrIO, len(msgs), err)
	}
	w.logger.Debug("dimensions published", "messages", len(msgs), "date_topic", w.dateTopic, "weather_topic", w.weatherTopic)
	return nil
}

// Close flushes pending messages and closes the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// dateMessage is the JSON value of a date dimension message.
type dateMessage struct {
	DateID       int    `json:"date_id"`
	CalendarDate string `json:"calendar_date"`
	DayOfWeek    string `json:"day_of_week"`
	DayOfMonth   int    `json:"day_of_month"`
	MonthNumber  int    `json:"month_number"`
	MonthName    string `json:"month_name"`
	Quarter      int    `json:"quarter"`
	Year         int    `json:"year"`
	IsWeekend    bool   `json:"is_weekend"`
}

// weatherMessage is the JSON value of a weather dimension message.
type weatherMessage struct {
	WeatherID        int     `json:"weather_id"`
	AirportID        string  `json:"airport_id"`
	DateID           int     `json:"date_id"`
	TemperatureC     float64 `json:"temperature_c"`
	PrecipitationMM  float64 `json:"precipitation_mm"`
	WindSpeedKPH     float64 `json:"wind_speed_kph"`
	WeatherCondition string  `json:"weather_condition"`
}

func dateToMessage(topic string, dims domain.Dimensions, e domain.CalendarEntry) (kafkago.Message, error) {
	data, err := json.Marshal(dateMessage{
		DateID:       e.DateID,
		CalendarDate: e.CalendarDate.Format(time.DateOnly),
		DayOfWeek:    e.DayOfWeek,
		DayOfMonth:   e.DayOfMonth,
		MonthNumber:  e.MonthNumber,
		MonthName:    e.MonthName,
		Quarter:      e.Quarter,
		Year:         e.Year,
		IsWeekend:    e.IsWeekend,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize calendar entry: %w", err)
	}
	return kafkago.Message{
		Topic:   topic,
		Key:     []byte(strconv.Itoa(e.DateID)),
		Value:   data,
		Headers: headers(dims, "date"),
	}, nil
}

func weatherToMessage(topic string, dims domain.Dimensions, o domain.WeatherObservation) (kafkago.Message, error) {
	data, err := json.Marshal(weatherMessage{
		WeatherID:        o.WeatherID,
		AirportID:        o.AirportID,
		DateID:           o.DateID,
		TemperatureC:     o.TemperatureC,
		PrecipitationMM:  o.PrecipitationMM,
		WindSpeedKPH:     o.WindSpeedKPH,
		WeatherCondition: string(o.Condition),
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize weather observation: %w", err)
	}
	return kafkago.Message{
		Topic:   topic,
		Key:     []byte(strconv.Itoa(o.WeatherID)),
		Value:   data,
		Headers: headers(dims, "weather"),
	}, nil
}

func headers(dims domain.Dimensions, table string) []kafkago.Header {
	return []kafkago.Header{
		{Key: "run_id", Value: []byte(dims.RunID)},
		{Key: "table", Value: []byte(table)},
		{Key: "processing_date", Value: []byte(dims.ProcessingDate.Format(time.DateOnly))},
	}
}
