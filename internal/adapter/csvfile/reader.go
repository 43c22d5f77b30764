package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/star-dimension-etl/internal/domain"
)

// AirportReader loads the airport dimension from a CSV file.
// It implements pipeline.AirportSource.
type AirportReader struct {
	path string
}

// NewAirportReader creates a reader for the airport CSV at path.
func NewAirportReader(path string) *AirportReader {
	return &AirportReader{path: path}
}

// LoadAirports reads every row in file order. Columns other than airport_id are
// kept verbatim in Airport.Attributes.
func (r *AirportReader) LoadAirports(_ context.Context) ([]domain.Airport, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open airport table: %w", domain.ErrIO, err)
	}
	defer f.Close()

	airports, err := ParseAirports(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.path, err)
	}
	return airports, nil
}

// ParseAirports decodes an airport CSV with a header row.
func ParseAirports(src io.Reader) ([]domain.Airport, error) {
	reader := csv.NewReader(src)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: airport table has no header", domain.ErrInput)
	}
	if err != nil {
		return nil, classifyReadErr(err)
	}

	idCol := -1
	for i, h := range header {
		header[i] = normalizeHeader(h)
		if header[i] == AirportIDColumn {
			idCol = i
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("%w: airport table has no %s column", domain.ErrInput, AirportIDColumn)
	}

	var airports []domain.Airport
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, classifyReadErr(err)
		}

		attrs := make(map[string]string, len(header)-1)
		for i, h := range header {
			if i != idCol {
				attrs[h] = row[i]
			}
		}
		airports = append(airports, domain.Airport{
			ID:         strings.TrimSpace(row[idCol]),
			Attributes: attrs,
		})
	}
	return airports, nil
}

// normalizeHeader trims whitespace and a UTF-8 byte order mark from a header cell.
func normalizeHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
}

// classifyReadErr separates malformed CSV (input) from read failures (io).
func classifyReadErr(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Errorf("%w: malformed airport table: %w", domain.ErrInput, err)
	}
	return fmt.Errorf("%w: read airport table: %w", domain.ErrIO, err)
}
