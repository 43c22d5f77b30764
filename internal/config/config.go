package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Airport sources accepted by AIRPORT_SOURCE.
const (
	AirportSourceCSV      = "csv"
	AirportSourcePostgres = "postgres"
)

// Config holds all generator and scheduler settings, populated from environment variables.
type Config struct {
	AirportSource string
	AirportFile   string
	OutputDir     string
	DateFile      string
	WeatherFile   string
	RandomSeed    uint64
	PreviewRows   int
	LogLevel      string
	LogFormat     string

	// Kafka publication of generated rows.
	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaDateTopic    string
	KafkaWeatherTopic string
	BatchSize         int

	// Postgres warehouse load and airport source.
	PostgresEnabled bool
	PostgresDSN     string

	// Scheduler settings.
	HTTPAddr         string
	ShutdownTimeout  time.Duration
	ScheduleInterval time.Duration
	JobCommand       string
	JobRetries       int
	JobRetryDelay    time.Duration
	JobTimeout       time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	seed, err := strconv.ParseUint(sharedcfg.EnvOrDefault("RANDOM_SEED", "0"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid RANDOM_SEED")
	}

	previewRows, err := parseNonNegativeInt("PREVIEW_ROWS", "5")
	if err != nil {
		return nil, err
	}

	scheduleInterval, err := parseDuration("SCHEDULE_INTERVAL", "0s", true)
	if err != nil {
		return nil, err
	}
	retryDelay, err := parseDuration("JOB_RETRY_DELAY", "1m", true)
	if err != nil {
		return nil, err
	}
	jobTimeout, err := parseDuration("JOB_TIMEOUT", "30m", false)
	if err != nil {
		return nil, err
	}
	retries, err := parseNonNegativeInt("JOB_RETRIES", "1")
	if err != nil {
		return nil, err
	}
	kafkaEnabled, err := parseBool("KAFKA_ENABLED")
	if err != nil {
		return nil, err
	}
	postgresEnabled, err := parseBool("POSTGRES_ENABLED")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AirportSource: strings.ToLower(sharedcfg.EnvOrDefault("AIRPORT_SOURCE", AirportSourceCSV)),
		AirportFile:   sharedcfg.EnvOrDefault("AIRPORT_FILE", "airport.csv"),
		OutputDir:     sharedcfg.EnvOrDefault("OUTPUT_DIR", "."),
		DateFile:      sharedcfg.EnvOrDefault("DATE_FILE", "date.csv"),
		WeatherFile:   sharedcfg.EnvOrDefault("WEATHER_FILE", "weather.csv"),
		RandomSeed:    seed,
		PreviewRows:   previewRows,
		LogLevel:      strings.ToLower(sharedcfg.EnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:     strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "json")),

		KafkaEnabled:      kafkaEnabled,
		KafkaBrokers:      sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaDateTopic:    sharedcfg.EnvOrDefault("KAFKA_DATE_TOPIC", "dim-date"),
		KafkaWeatherTopic: sharedcfg.EnvOrDefault("KAFKA_WEATHER_TOPIC", "dim-weather"),
		BatchSize:         batchSize,

		PostgresEnabled: postgresEnabled,
		PostgresDSN:     sharedcfg.EnvOrDefault("POSTGRES_DSN", "postgres://localhost:5432/warehouse?sslmode=disable"),

		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout:  shutdownTimeout,
		ScheduleInterval: scheduleInterval,
		JobCommand:       os.Getenv("JOB_COMMAND"),
		JobRetries:       retries,
		JobRetryDelay:    retryDelay,
		JobTimeout:       jobTimeout,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q: want debug, info, warn or error", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q: want json or text", c.LogFormat)
	}

	switch c.AirportSource {
	case AirportSourceCSV:
		if c.AirportFile == "" {
			return errors.New("AIRPORT_FILE is required")
		}
	case AirportSourcePostgres:
		if c.PostgresDSN == "" {
			return errors.New("AIRPORT_SOURCE is postgres but POSTGRES_DSN is not set")
		}
	default:
		return fmt.Errorf("invalid AIRPORT_SOURCE %q: want csv or postgres", c.AirportSource)
	}
	if c.DateFile == "" || c.WeatherFile == "" {
		return errors.New("DATE_FILE and WEATHER_FILE must not be empty")
	}
	if c.DateFile == c.WeatherFile {
		return errors.New("DATE_FILE and WEATHER_FILE must differ")
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required")
		}
		if c.KafkaDateTopic == "" || c.KafkaWeatherTopic == "" {
			return errors.New("KAFKA_DATE_TOPIC and KAFKA_WEATHER_TOPIC are required")
		}
	}
	if c.PostgresEnabled && c.PostgresDSN == "" {
		return errors.New("POSTGRES_ENABLED is true but POSTGRES_DSN is not set")
	}
	return nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (!allowZero && d == 0) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

// parseBool accepts the strconv.ParseBool spellings; unset means false.
func parseBool(key string) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: want true or false", key, v)
	}
	return b, nil
}

func parseNonNegativeInt(key, def string) (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
