package pipeline

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/couchcryptid/star-dimension-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/star-dimension-etl/internal/domain"
)

// WritePreview prints the first n rows of each generated table as aligned
// columns. n <= 0 prints headers only.
func WritePreview(w io.Writer, dims domain.Dimensions, n int) error {
	calendar := make([][]string, 0, clamp(n, len(dims.Calendar)))
	for _, e := range dims.Calendar[:clamp(n, len(dims.Calendar))] {
		calendar = append(calendar, csvfile.CalendarRecord(e))
	}
	weather := make([][]string, 0, clamp(n, len(dims.Weather)))
	for _, o := range dims.Weather[:clamp(n, len(dims.Weather))] {
		weather = append(weather, csvfile.WeatherRecord(o))
	}

	if err := writeTable(w, "DIM_DATE", csvfile.CalendarHeader, calendar, len(dims.Calendar)); err != nil {
		return err
	}
	return writeTable(w, "DIM_WEATHER sample", csvfile.WeatherHeader, weather, len(dims.Weather))
}

func writeTable(w io.Writer, title string, header []string, rows [][]string, total int) error {
	if _, err := fmt.Fprintf(w, "\n%s (%d of %d rows):\n", title, len(rows), total); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

func clamp(n, limit int) int {
	return max(0, min(n, limit))
}
