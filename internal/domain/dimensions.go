package domain

import "time"

// Dimensions is the output of one generation run.
type Dimensions struct {
	RunID          string
	ProcessingDate time.Time
	Calendar       []CalendarEntry
	Weather        []WeatherObservation
}

// Generate builds the calendar ending on today and expands it against the
// airport table. Nothing is written anywhere; callers persist the result only
// after Generate succeeds.
func Generate(runID string, today time.Time, airports []Airport, rng RandomSource) (Dimensions, error) {
	if err := ValidateAirports(airports); err != nil {
		return Dimensions{}, err
	}

	calendar, err := BuildCalendar(today)
	if err != nil {
		return Dimensions{}, err
	}

	weather, err := BuildWeather(airports, calendar, rng)
	if err != nil {
		return Dimensions{}, err
	}

	return Dimensions{
		RunID:          runID,
		ProcessingDate: dateOf(today),
		Calendar:       calendar,
		Weather:        weather,
	}, nil
}
