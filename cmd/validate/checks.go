package main

import (
	"fmt"
	"slices"
	"time"

	"github.com/couchcryptid/star-dimension-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// validateCalendar checks the window shape and that every derived column
// matches its calendar date. A zero runDate skips the end-date check.
func validateCalendar(calendar []domain.CalendarEntry, runDate time.Time) *phase {
	p := &phase{name: "Phase 1: Calendar window"}

	if len(calendar) != domain.WindowDays {
		p.errorf("expected %d dates, got %d", domain.WindowDays, len(calendar))
	}
	if len(calendar) == 0 {
		return p
	}

	for i, e := range calendar {
		if e.DateID != i+1 {
			p.errorf("row %d: date_id %d, expected %d", i+1, e.DateID, i+1)
		}
		if i > 0 && !e.CalendarDate.Equal(calendar[i-1].CalendarDate.AddDate(0, 0, 1)) {
			p.errorf("row %d: %s does not follow %s", i+1,
				e.CalendarDate.Format(time.DateOnly), calendar[i-1].CalendarDate.Format(time.DateOnly))
		}
	}

	last := calendar[len(calendar)-1].CalendarDate
	if !runDate.IsZero() && !last.Equal(runDate) {
		p.errorf("window ends on %s, expected run date %s", last.Format(time.DateOnly), runDate.Format(time.DateOnly))
	}

	expected, err := domain.BuildCalendar(last)
	if err != nil {
		p.errorf("rebuild calendar: %v", err)
		return p
	}
	// Rebuilt entries are aligned to the end of the window.
	offset := len(expected) - len(calendar)
	for i, e := range calendar {
		j := i + offset
		if j < 0 || j >= len(expected) {
			continue
		}
		want := expected[j]
		want.DateID = e.DateID
		if diff := cmp.Diff(want, e); diff != "" {
			p.errorf("row %d (%s): derived fields mismatch (-want +got):\n%s", i+1, e.CalendarDate.Format(time.DateOnly), diff)
		}
	}
	return p
}

// validateReadings checks surrogate ids, value ranges, and the condition enum.
func validateReadings(weather []domain.WeatherObservation) *phase {
	p := &phase{name: "Phase 2: Weather readings"}

	for i, o := range weather {
		if o.WeatherID != i+1 {
			p.errorf("row %d: weather_id %d, expected %d", i+1, o.WeatherID, i+1)
		}
		checkRange(p, i+1, "temperature_c", o.TemperatureC, domain.TemperatureRange)
		checkRange(p, i+1, "precipitation_mm", o.PrecipitationMM, domain.PrecipitationRange)
		checkRange(p, i+1, "wind_speed_kph", o.WindSpeedKPH, domain.WindSpeedRange)
		if !o.Condition.IsValid() {
			p.errorf("row %d: unknown weather_condition %q", i+1, o.Condition)
		}
	}
	return p
}

func checkRange(p *phase, row int, column string, v float64, r domain.Range) {
	if !r.Contains(v) {
		p.errorf("row %d: %s %.1f outside [%g, %g]", row, column, v, r.Min, r.Max)
	}
}

type pair struct {
	airportID string
	dateID    int
}

// validateReferences checks that weather rows form a complete airport ×
// date cross join in airport-major order. With a nil airports slice the
// airport set is taken from the weather file itself.
func validateReferences(calendar []domain.CalendarEntry, weather []domain.WeatherObservation, airports []domain.Airport) *phase {
	p := &phase{name: "Phase 3: Referential integrity"}

	dateIDs := make(map[int]bool, len(calendar))
	for _, e := range calendar {
		dateIDs[e.DateID] = true
	}

	seen := make(map[pair]bool, len(weather))
	perAirport := make(map[string]int)
	var order []string
	for i, o := range weather {
		if !dateIDs[o.DateID] {
			p.errorf("row %d: date_id %d not in date dimension", i+1, o.DateID)
		}
		k := pair{o.AirportID, o.DateID}
		if seen[k] {
			p.errorf("row %d: duplicate observation for airport %s date_id %d", i+1, o.AirportID, o.DateID)
		}
		seen[k] = true

		if perAirport[o.AirportID] == 0 {
			order = append(order, o.AirportID)
		} else if order[len(order)-1] != o.AirportID {
			p.errorf("row %d: airport %s is not contiguous", i+1, o.AirportID)
		} else if prev := weather[i-1]; prev.AirportID == o.AirportID && o.DateID <= prev.DateID {
			p.errorf("row %d: date_id %d does not ascend for airport %s", i+1, o.DateID, o.AirportID)
		}
		perAirport[o.AirportID]++
	}

	for _, id := range order {
		if perAirport[id] != len(calendar) {
			p.errorf("airport %s has %d observations, expected %d", id, perAirport[id], len(calendar))
		}
	}

	if airports == nil {
		return p
	}
	if want := len(airports) * len(calendar); len(weather) != want {
		p.errorf("expected %d observations (%d airports x %d dates), got %d", want, len(airports), len(calendar), len(weather))
	}
	for i, a := range airports {
		if perAirport[a.ID] == 0 {
			p.errorf("airport %s has no observations", a.ID)
			continue
		}
		if i < len(order) && order[i] != a.ID {
			p.errorf("airport %s appears at position %d, expected %d", a.ID, slices.Index(order, a.ID)+1, i+1)
		}
	}
	known := make(map[string]bool, len(airports))
	for _, a := range airports {
		known[a.ID] = true
	}
	for _, id := range order {
		if !known[id] {
			p.errorf("airport %s is not in the airport table", id)
		}
	}
	return p
}
