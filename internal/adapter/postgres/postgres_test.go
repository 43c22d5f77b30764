package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/star-dimension-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"undefined table", &pq.Error{Code: codeUndefinedTable, Message: `relation "dim_airport" does not exist`}, domain.ErrInput},
		{"undefined column", &pq.Error{Code: codeUndefinedColumn, Message: `column "airport_id" does not exist`}, domain.ErrInput},
		{"unique violation", &pq.Error{Code: codeUniqueViolation, Message: "duplicate key value violates unique constraint"}, domain.ErrInput},
		{"other pq error", &pq.Error{Code: "53300", Message: "too many connections"}, domain.ErrIO},
		{"network error", errors.New("connection refused"), domain.ErrIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("query dim_airport", tt.err)
			require.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "query dim_airport")
		})
	}
}

func TestAirportFromRow(t *testing.T) {
	row := map[string]any{
		"airport_id": "JFK",
		"name":       []byte("John F. Kennedy"),
		"elevation":  int64(13),
		"closed":     nil,
	}

	got := airportFromRow(row)

	want := domain.Airport{
		ID: "JFK",
		Attributes: map[string]string{
			"name":      "John F. Kennedy",
			"elevation": "13",
			"closed":    "",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("airportFromRow mismatch (-want +got):\n%s", diff)
	}
}

func TestAirportFromRow_OnlyID(t *testing.T) {
	got := airportFromRow(map[string]any{"airport_id": []byte("LAX")})
	assert.Equal(t, "LAX", got.ID)
	assert.Nil(t, got.Attributes)
}

func TestColumnString_Time(t *testing.T) {
	ts := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-01T12:00:00Z", columnString(ts))
}

func TestChunks(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5}

	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, chunks(rows, 2))
	assert.Equal(t, [][]int{{1, 2, 3, 4, 5}}, chunks(rows, 10))
	assert.Empty(t, chunks([]int{}, 3))
}

func TestDateRows(t *testing.T) {
	calendar, err := domain.BuildCalendar(time.Date(2024, time.April, 26, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	rows := dateRows(calendar)

	require.Len(t, rows, domain.WindowDays)
	assert.Equal(t, dateRow{
		DateID:       8,
		CalendarDate: "2024-04-26",
		DayOfWeek:    "Friday",
		DayOfMonth:   26,
		MonthNumber:  4,
		MonthName:    "April",
		Quarter:      2,
		Year:         2024,
		IsWeekend:    false,
	}, rows[7])
}

func TestWeatherRows(t *testing.T) {
	rows := weatherRows([]domain.WeatherObservation{{
		WeatherID:       3,
		AirportID:       "SFO",
		DateID:          3,
		TemperatureC:    -4.5,
		PrecipitationMM: 12.1,
		WindSpeedKPH:    80,
		Condition:       domain.ConditionSnow,
	}})

	assert.Equal(t, []weatherRow{{
		WeatherID:        3,
		AirportID:        "SFO",
		DateID:           3,
		TemperatureC:     -4.5,
		PrecipitationMM:  12.1,
		WindSpeedKPH:     80,
		WeatherCondition: "Snow",
	}}, rows)
}

func TestStoreName(t *testing.T) {
	assert.Equal(t, "postgres", (&Store{}).Name())
}
