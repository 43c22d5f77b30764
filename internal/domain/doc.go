// Package domain builds the synthetic dimensions of the star-schema warehouse.
//
// # Calendar Dimension
//
// The calendar covers a rolling window of [WindowDays] days ending on the
// processing date, oldest first:
//
//	processing date 2024-04-26  →  2024-04-19 … 2024-04-26 (8 rows)
//
// Surrogate keys (date_id) are the 1-based position inside the window. They
// are not derived from the date itself, so the same calendar day gets a
// different date_id on the next day's run. Downstream loads replace the
// dimension wholesale on every run.
//
// Derived fields:
//
//	day_of_week   full English weekday name ("Friday")
//	month_name    full English month name ("April")
//	quarter       (month-1)/3 + 1
//	is_weekend    Saturday or Sunday
//
// # Weather Dimension
//
// Weather observations are the cartesian product of the airport table and the
// calendar. The traversal is airport-major, date-minor: every calendar entry
// for the first airport, then every entry for the second, and so on. weather_id
// counts that traversal from 1, so the key assignment depends on the order of
// the supplied airport table.
//
// Readings are drawn independently per row from an injected [RandomSource]:
//
//	temperature_c     Uniform(-10, 40)   1 decimal
//	precipitation_mm  Uniform(0, 50)     1 decimal
//	wind_speed_kph    Uniform(0, 100)    1 decimal
//	weather_condition one of Clear, Clouds, Rain, Snow, Storm, Fog
//
// # Errors
//
// Input problems wrap [ErrInput]; filesystem and sink problems wrap [ErrIO].
// Both abort the run.
package domain
