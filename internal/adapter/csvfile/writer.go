package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/couchcryptid/star-dimension-etl/internal/domain"
)

// Writer persists generated dimensions as two CSV files in one directory.
// It implements pipeline.Loader.
type Writer struct {
	dir         string
	dateFile    string
	weatherFile string
}

// NewWriter creates a Writer for dir/dateFile and dir/weatherFile.
func NewWriter(dir, dateFile, weatherFile string) *Writer {
	return &Writer{dir: dir, dateFile: dateFile, weatherFile: weatherFile}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "csv" }

// DatePath returns the full path of the date dimension file.
func (w *Writer) DatePath() string { return filepath.Join(w.dir, w.dateFile) }

// WeatherPath returns the full path of the weather dimension file.
func (w *Writer) WeatherPath() string { return filepath.Join(w.dir, w.weatherFile) }

// Load writes both files. Each is staged in a temp file next to its target
// and renamed into place only after both staged files are complete. The
// previous date file is kept aside until the weather file is in place, so a
// failed write restores the previous pair of files.
func (w *Writer) Load(_ context.Context, dims domain.Dimensions) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create output dir: %w", domain.ErrIO, err)
	}

	calendarRows := make([][]string, 0, len(dims.Calendar)+1)
	calendarRows = append(calendarRows, CalendarHeader)
	for _, e := range dims.Calendar {
		calendarRows = append(calendarRows, CalendarRecord(e))
	}

	weatherRows := make([][]string, 0, len(dims.Weather)+1)
	weatherRows = append(weatherRows, WeatherHeader)
	for _, o := range dims.Weather {
		weatherRows = append(weatherRows, WeatherRecord(o))
	}

	dateTmp, err := w.stage(w.dateFile, calendarRows)
	if err != nil {
		return err
	}
	weatherTmp, err := w.stage(w.weatherFile, weatherRows)
	if err != nil {
		os.Remove(dateTmp)
		return err
	}

	backup, err := w.setAside(w.DatePath())
	if err != nil {
		os.Remove(dateTmp)
		os.Remove(weatherTmp)
		return err
	}

	if err := os.Rename(dateTmp, w.DatePath()); err != nil {
		os.Remove(dateTmp)
		os.Remove(weatherTmp)
		w.restore(backup, w.DatePath())
		return fmt.Errorf("%w: publish %s: %w", domain.ErrIO, w.dateFile, err)
	}
	if err := os.Rename(weatherTmp, w.WeatherPath()); err != nil {
		os.Remove(weatherTmp)
		w.restore(backup, w.DatePath())
		return fmt.Errorf("%w: publish %s: %w", domain.ErrIO, w.weatherFile, err)
	}

	if backup != "" {
		os.Remove(backup)
	}
	return nil
}

// setAside moves an existing file to a backup path in the output dir and
// returns that path, or "" when there was nothing to keep.
func (w *Writer) setAside(path string) (string, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	f, err := os.CreateTemp(w.dir, "."+filepath.Base(path)+".*.bak")
	if err != nil {
		return "", fmt.Errorf("%w: back up %s: %w", domain.ErrIO, filepath.Base(path), err)
	}
	f.Close()
	if err := os.Rename(path, f.Name()); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: back up %s: %w", domain.ErrIO, filepath.Base(path), err)
	}
	return f.Name(), nil
}

// restore puts a backup from setAside back at path. With no backup, the
// file written by the failed run is removed.
func (w *Writer) restore(backup, path string) {
	if backup == "" {
		os.Remove(path)
		return
	}
	os.Rename(backup, path) //nolint:errcheck // best effort, the publish error is returned
}

// stage writes rows to a temp file in the output dir and returns its path.
func (w *Writer) stage(name string, rows [][]string) (string, error) {
	f, err := os.CreateTemp(w.dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %w", domain.ErrIO, name, err)
	}

	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: write %s: %w", domain.ErrIO, name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: close %s: %w", domain.ErrIO, name, err)
	}
	if err := os.Chmod(f.Name(), 0o644); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: chmod %s: %w", domain.ErrIO, name, err)
	}
	return f.Name(), nil
}
