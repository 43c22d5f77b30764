package domain

import (
	"fmt"
	"strings"
)

// Airport is one row of the externally supplied airport dimension. Only ID is
// interpreted; every other input column is carried in Attributes untouched.
type Airport struct {
	ID         string
	Attributes map[string]string
}

// ValidateAirports rejects an empty table, rows without an airport_id, and
// repeated airport_ids, which would yield duplicate (airport_id, date_id) pairs.
func ValidateAirports(airports []Airport) error {
	if len(airports) == 0 {
		return fmt.Errorf("%w: airport table is empty", ErrInput)
	}
	seen := make(map[string]int, len(airports))
	for i, a := range airports {
		if strings.TrimSpace(a.ID) == "" {
			return fmt.Errorf("%w: airport row %d has no airport_id", ErrInput, i+1)
		}
		if first, ok := seen[a.ID]; ok {
			return fmt.Errorf("%w: airport_id %q repeats at row %d (first at row %d)", ErrInput, a.ID, i+1, first)
		}
		seen[a.ID] = i + 1
	}
	return nil
}
