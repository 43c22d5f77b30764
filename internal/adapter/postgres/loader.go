package postgres

import (
	"context"
	"time"

	"github.com/couchcryptid/star-dimension-etl/internal/domain"
	"github.com/jmoiron/sqlx"
)

// insertBatch keeps each multi-row insert under the 65535 bind parameter limit.
const insertBatch = 1000

const (
	insertDate = `INSERT INTO dim_date
	(date_id, calendar_date, day_of_week, day_of_month, month_number, month_name, quarter, year, is_weekend)
	VALUES (:date_id, :calendar_date, :day_of_week, :day_of_month, :month_number, :month_name, :quarter, :year, :is_weekend)`

	insertWeather = `INSERT INTO dim_weather
	(weather_id, airport_id, date_id, temperature_c, precipitation_mm, wind_speed_kph, weather_condition)
	VALUES (:weather_id, :airport_id, :date_id, :temperature_c, :precipitation_mm, :wind_speed_kph, :weather_condition)`
)

type dateRow struct {
	DateID       int    `db:"date_id"`
	CalendarDate string `db:"calendar_date"`
	DayOfWeek    string `db:"day_of_week"`
	DayOfMonth   int    `db:"day_of_month"`
	MonthNumber  int    `db:"month_number"`
	MonthName    string `db:"month_name"`
	Quarter      int    `db:"quarter"`
	Year         int    `db:"year"`
	IsWeekend    bool   `db:"is_weekend"`
}

type weatherRow struct {
	WeatherID        int     `db:"weather_id"`
	AirportID        string  `db:"airport_id"`
	DateID           int     `db:"date_id"`
	TemperatureC     float64 `db:"temperature_c"`
	PrecipitationMM  float64 `db:"precipitation_mm"`
	WindSpeedKPH     float64 `db:"wind_speed_kph"`
	WeatherCondition string  `db:"weather_condition"`
}

// Name identifies the sink in logs and metrics.
func (s *Store) Name() string { return "postgres" }

// Load replaces the contents of dim_date and dim_weather with the generated
// dimensions in a single transaction.
func (s *Store) Load(ctx context.Context, dims domain.Dimensions) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return classify("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	// dim_weather references dim_date, so it is cleared first.
	for _, table := range []string{"dim_weather", "dim_date"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return classify("clear "+table, err)
		}
	}

	if err := insertChunks(ctx, tx, insertDate, dateRows(dims.Calendar)); err != nil {
		return classify("insert dim_date", err)
	}
	if err := insertChunks(ctx, tx, insertWeather, weatherRows(dims.Weather)); err != nil {
		return classify("insert dim_weather", err)
	}

	if err := tx.Commit(); err != nil {
		return classify("commit", err)
	}
	s.logger.Debug("dimensions loaded into postgres", "dates", len(dims.Calendar), "observations", len(dims.Weather))
	return nil
}

func insertChunks[T any](ctx context.Context, tx *sqlx.Tx, query string, rows []T) error {
	for _, chunk := range chunks(rows, insertBatch) {
		if _, err := tx.NamedExecContext(ctx, query, chunk); err != nil {
			return err
		}
	}
	return nil
}

func chunks[T any](rows []T, size int) [][]T {
	var out [][]T
	for len(rows) > 0 {
		n := min(size, len(rows))
		out = append(out, rows[:n])
		rows = rows[n:]
	}
	return out
}

func dateRows(calendar []domain.CalendarEntry) []dateRow {
	rows := make([]dateRow, len(calendar))
	for i, e := range calendar {
		rows[i] = dateRow{
			DateID:       e.DateID,
			CalendarDate: e.CalendarDate.Format(time.DateOnly),
			DayOfWeek:    e.DayOfWeek,
			DayOfMonth:   e.DayOfMonth,
			MonthNumber:  e.MonthNumber,
			MonthName:    e.MonthName,
			Quarter:      e.Quarter,
			Year:         e.Year,
			IsWeekend:    e.IsWeekend,
		}
	}
	return rows
}

func weatherRows(observations []domain.WeatherObservation) []weatherRow {
	rows := make([]weatherRow, len(observations))
	for i, o := range observations {
		rows[i] = weatherRow{
			WeatherID:        o.WeatherID,
			AirportID:        o.AirportID,
			DateID:           o.DateID,
			TemperatureC:     o.TemperatureC,
			PrecipitationMM:  o.PrecipitationMM,
			WindSpeedKPH:     o.WindSpeedKPH,
			WeatherCondition: string(o.Condition),
		}
	}
	return rows
}
