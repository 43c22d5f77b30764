package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/couchcryptid/star-dimension-etl/internal/domain"
)

// ReadCalendarFile decodes a date dimension file written by Writer.
func ReadCalendarFile(path string) ([]domain.CalendarEntry, error) {
	rows, err := readTable(path, CalendarHeader)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.CalendarEntry, 0, len(rows))
	for i, row := range rows {
		e, err := parseCalendarRecord(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ReadWeatherFile decodes a weather dimension file written by Writer.
func ReadWeatherFile(path string) ([]domain.WeatherObservation, error) {
	rows, err := readTable(path, WeatherHeader)
	if err != nil {
		return nil, err
	}

	obs := make([]domain.WeatherObservation, 0, len(rows))
	for i, row := range rows {
		o, err := parseWeatherRecord(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		obs = append(obs, o)
	}
	return obs, nil
}

func readTable(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInput, path, err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrInput, path)
	}
	if !slices.Equal(all[0], header) {
		return nil, fmt.Errorf("%w: %s header %v, want %v", domain.ErrInput, path, all[0], header)
	}
	return all[1:], nil
}

func parseCalendarRecord(row []string) (domain.CalendarEntry, error) {
	var (
		e    domain.CalendarEntry
		errs []error
	)
	e.DateID = atoi(row[0], &errs)
	date, err := time.Parse(time.DateOnly, row[1])
	if err != nil {
		errs = append(errs, err)
	}
	e.CalendarDate = date
	e.DayOfWeek = row[2]
	e.DayOfMonth = atoi(row[3], &errs)
	e.MonthNumber = atoi(row[4], &errs)
	e.MonthName = row[5]
	e.Quarter = atoi(row[6], &errs)
	e.Year = atoi(row[7], &errs)
	switch row[8] {
	case "True":
		e.IsWeekend = true
	case "False":
	default:
		errs = append(errs, fmt.Errorf("is_weekend %q is not True or False", row[8]))
	}

	if len(errs) > 0 {
		return domain.CalendarEntry{}, fmt.Errorf("%w: %w", domain.ErrInput, errs[0])
	}
	return e, nil
}

func parseWeatherRecord(row []string) (domain.WeatherObservation, error) {
	var errs []error
	o := domain.WeatherObservation{
		WeatherID:       atoi(row[0], &errs),
		AirportID:       row[1],
		DateID:          atoi(row[2], &errs),
		TemperatureC:    atof(row[3], &errs),
		PrecipitationMM: atof(row[4], &errs),
		WindSpeedKPH:    atof(row[5], &errs),
		Condition:       domain.Condition(row[6]),
	}
	if len(errs) > 0 {
		return domain.WeatherObservation{}, fmt.Errorf("%w: %w", domain.ErrInput, errs[0])
	}
	return o, nil
}

func atoi(s string, errs *[]error) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		*errs = append(*errs, err)
	}
	return n
}

func atof(s string, errs *[]error) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*errs = append(*errs, err)
	}
	return v
}

