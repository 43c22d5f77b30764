// Package csvfile reads the airport dimension and writes the generated date and
// weather dimensions as CSV files with header rows.
package csvfile

import (
	"strconv"
	"time"

	"github.com/couchcryptid/star-dimension-etl/internal/domain"
)

// AirportIDColumn is the only airport column the generator interprets.
const AirportIDColumn = "airport_id"

// CalendarHeader is the header row of the date dimension file.
var CalendarHeader = []string{
	"date_id", "calendar_date", "day_of_week", "day_of_month",
	"month_number", "month_name", "quarter", "year", "is_weekend",
}

// WeatherHeader is the header row of the weather dimension file.
var WeatherHeader = []string{
	"weather_id", "airport_id", "date_id",
	"temperature_c", "precipitation_mm", "wind_speed_kph", "weather_condition",
}

// CalendarRecord renders a calendar entry in CalendarHeader column order.
func CalendarRecord(e domain.CalendarEntry) []string {
	return []string{
		strconv.Itoa(e.DateID),
		e.CalendarDate.Format(time.DateOnly),
		e.DayOfWeek,
		strconv.Itoa(e.DayOfMonth),
		strconv.Itoa(e.MonthNumber),
		e.MonthName,
		strconv.Itoa(e.Quarter),
		strconv.Itoa(e.Year),
		formatBool(e.IsWeekend),
	}
}

// WeatherRecord renders an observation in WeatherHeader column order.
func WeatherRecord(o domain.WeatherObservation) []string {
	return []string{
		strconv.Itoa(o.WeatherID),
		o.AirportID,
		strconv.Itoa(o.DateID),
		formatReading(o.TemperatureC),
		formatReading(o.PrecipitationMM),
		formatReading(o.WindSpeedKPH),
		string(o.Condition),
	}
}

func formatReading(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// formatBool matches the True/False spelling downstream loaders already parse.
func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
