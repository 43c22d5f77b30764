package postgres

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS dim_date (
	date_id       INTEGER PRIMARY KEY,
	calendar_date DATE NOT NULL,
	day_of_week   TEXT NOT NULL,
	day_of_month  SMALLINT NOT NULL,
	month_number  SMALLINT NOT NULL,
	month_name    TEXT NOT NULL,
	quarter       SMALLINT NOT NULL,
	year          INTEGER NOT NULL,
	is_weekend    BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS dim_weather (
	weather_id        INTEGER PRIMARY KEY,
	airport_id        TEXT NOT NULL,
	date_id           INTEGER NOT NULL REFERENCES dim_date (date_id),
	temperature_c     NUMERIC(4,1) NOT NULL,
	precipitation_mm  NUMERIC(4,1) NOT NULL,
	wind_speed_kph    NUMERIC(4,1) NOT NULL,
	weather_condition TEXT NOT NULL,
	UNIQUE (airport_id, date_id)
);
`

// Migrate creates the dimension tables when they do not exist.
// dim_airport is owned by the warehouse and is never created here.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", classify("create dimension tables", err))
	}
	return nil
}
