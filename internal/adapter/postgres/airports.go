package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/star-dimension-etl/internal/domain"
)

const selectAirports = `SELECT * FROM dim_airport ORDER BY airport_id`

// LoadAirports reads every row of dim_airport. Columns other than
// airport_id are carried as pass-through attributes.
func (s *Store) LoadAirports(ctx context.Context) ([]domain.Airport, error) {
	rows, err := s.db.QueryxContext(ctx, selectAirports)
	if err != nil {
		return nil, classify("query dim_airport", err)
	}
	defer rows.Close()

	var airports []domain.Airport
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, classify("scan dim_airport", err)
		}
		airports = append(airports, airportFromRow(row))
	}
	if err := rows.Err(); err != nil {
		return nil, classify("read dim_airport", err)
	}

	s.logger.Debug("airports loaded from postgres", "count", len(airports))
	return airports, nil
}

func airportFromRow(row map[string]any) domain.Airport {
	a := domain.Airport{ID: columnString(row["airport_id"])}
	for k, v := range row {
		if k == "airport_id" {
			continue
		}
		if a.Attributes == nil {
			a.Attributes = make(map[string]string, len(row)-1)
		}
		a.Attributes[k] = columnString(v)
	}
	return a
}

func columnString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
