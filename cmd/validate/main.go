// Command validate checks the integrity of the date and weather dimension
// files written by dimgen and prints a phase-by-phase report.
//
// Usage:
//
//	go run ./cmd/validate --dir out --airport-file airport.csv --run-date 2024-04-26
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/star-dimension-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/star-dimension-etl/internal/domain"
	"github.com/spf13/cobra"
)

type options struct {
	dir         string
	dateFile    string
	weatherFile string
	airportFile string
	runDate     string
}

func main() {
	if err := command().Execute(); err != nil {
		os.Exit(1)
	}
}

func command() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "validate",
		Short:         "Validate generated date and weather dimension files",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", ".", "directory containing the dimension files")
	cmd.Flags().StringVar(&opts.dateFile, "date-file", "date.csv", "date dimension file name")
	cmd.Flags().StringVar(&opts.weatherFile, "weather-file", "weather.csv", "weather dimension file name")
	cmd.Flags().StringVar(&opts.airportFile, "airport-file", "", "airport table used for the run (optional)")
	cmd.Flags().StringVar(&opts.runDate, "run-date", "", "expected processing date, YYYY-MM-DD (optional)")

	return cmd
}

var errValidationFailed = errors.New("validation failed")

func run(ctx context.Context, stdout, stderr io.Writer, opts options) error {
	var runDate time.Time
	if opts.runDate != "" {
		d, err := time.Parse(time.DateOnly, opts.runDate)
		if err != nil {
			fmt.Fprintf(stderr, "FATAL: invalid --run-date: %v\n", err)
			return err
		}
		runDate = d
	}

	calendar, err := csvfile.ReadCalendarFile(filepath.Join(opts.dir, opts.dateFile))
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: load date dimension: %v\n", err)
		return err
	}
	weather, err := csvfile.ReadWeatherFile(filepath.Join(opts.dir, opts.weatherFile))
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: load weather dimension: %v\n", err)
		return err
	}

	var airports []domain.Airport
	if opts.airportFile != "" {
		airports, err = csvfile.NewAirportReader(opts.airportFile).LoadAirports(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "FATAL: load airport table: %v\n", err)
			return err
		}
	}

	fmt.Fprintln(stdout, "=== Dimension Integrity Validation ===")

	phases := []*phase{
		validateCalendar(calendar, runDate),
		validateReadings(weather),
		validateReferences(calendar, weather, airports),
	}

	if !report(stdout, phases, len(calendar), len(weather)) {
		return errValidationFailed
	}
	return nil
}

func report(w io.Writer, phases []*phase, dates, observations int) bool {
	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-32s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Records: %d date, %d weather\n", dates, observations)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return true
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return false
}
