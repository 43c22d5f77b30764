package domain

import (
	"fmt"
	"math"
)

// Condition is the categorical weather_condition of an observation.
type Condition string

const (
	ConditionClear  Condition = "Clear"
	ConditionClouds Condition = "Clouds"
	ConditionRain   Condition = "Rain"
	ConditionSnow   Condition = "Snow"
	ConditionStorm  Condition = "Storm"
	ConditionFog    Condition = "Fog"
)

// Conditions lists every condition in sampling order.
var Conditions = []Condition{
	ConditionClear,
	ConditionClouds,
	ConditionRain,
	ConditionSnow,
	ConditionStorm,
	ConditionFog,
}

// IsValid reports whether c is one of Conditions.
func (c Condition) IsValid() bool {
	for _, known := range Conditions {
		if c == known {
			return true
		}
	}
	return false
}

// Range is a closed interval of a sampled reading.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies in [r.Min, r.Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

var (
	TemperatureRange   = Range{Min: -10, Max: 40}
	PrecipitationRange = Range{Min: 0, Max: 50}
	WindSpeedRange     = Range{Min: 0, Max: 100}
)

// WeatherObservation is one row of the weather dimension.
type WeatherObservation struct {
	WeatherID       int
	AirportID       string
	DateID          int
	TemperatureC    float64
	PrecipitationMM float64
	WindSpeedKPH    float64
	Condition       Condition
}

// BuildWeather expands airports × calendar into one observation per pair.
//
// The traversal is a contract: airports in the order given, and for each
// airport every calendar entry in the order given (ascending date for
// BuildCalendar output). weather_id counts this traversal from 1. Readings for
// each row are drawn from rng in the order temperature, precipitation, wind,
// condition. Neither input is modified.
func BuildWeather(airports []Airport, calendar []CalendarEntry, rng RandomSource) ([]WeatherObservation, error) {
	if err := ValidateAirports(airports); err != nil {
		return nil, err
	}
	if len(calendar) == 0 {
		return nil, fmt.Errorf("%w: calendar is empty", ErrInput)
	}

	out := make([]WeatherObservation, 0, len(airports)*len(calendar))
	for _, airport := range airports {
		for _, entry := range calendar {
			out = append(out, WeatherObservation{
				WeatherID:       len(out) + 1,
				AirportID:       airport.ID,
				DateID:          entry.DateID,
				TemperatureC:    sample(rng, TemperatureRange),
				PrecipitationMM: sample(rng, PrecipitationRange),
				WindSpeedKPH:    sample(rng, WindSpeedRange),
				Condition:       Conditions[rng.Choice(len(Conditions))],
			})
		}
	}
	return out, nil
}

// sample draws from r and rounds to one decimal, clamping so rounding noise
// cannot leave the interval.
func sample(rng RandomSource, r Range) float64 {
	v := roundTenth(rng.Uniform(r.Min, r.Max))
	return math.Min(math.Max(v, r.Min), r.Max)
}

func roundTenth(v float64) float64 {
	v = math.Round(v*10) / 10
	if v == 0 {
		// Collapse -0 so it never serializes as "-0.0".
		return 0
	}
	return v
}
