package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"TrendCast/internal/domain/models"
	"TrendCast/internal/presenter"
	"TrendCast/internal/repository"
	"TrendCast/internal/services/forecast"
)

type forecastFlags struct {
	csvPath    string
	instrument string
	months     int
	method     string
	seed       uint64
	folds      int
	format     string
}

func newForecastCmd() *cobra.Command {
	f := &forecastFlags{}
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast a price series read from a CSV file",
		Long: `Read a daily price series from a CSV file (date and price columns), forecast
it and print the monthly table with a summary.

Examples:
  trendcast forecast --csv gold.csv --months 3
  trendcast forecast --csv brent.csv --months 6 --method expsmoothing --format json
  trendcast forecast --csv gold.csv --months 12 --seed 42`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runForecast(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.csvPath, "csv", "", "CSV file with date and price columns")
	cmd.Flags().StringVar(&f.instrument, "instrument", "", "Instrument name shown in the output (default: file name)")
	cmd.Flags().IntVar(&f.months, "months", 1, "Forecast horizon in months")
	cmd.Flags().StringVar(&f.method, "method", string(models.MethodLinearTrend), "Method: linregression or expsmoothing")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "Seed for cross-validation folds (0 = random)")
	cmd.Flags().IntVar(&f.folds, "folds", forecast.DefaultFolds, "Cross-validation folds")
	cmd.Flags().StringVar(&f.format, "format", "table", "Output format (table|json)")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func runForecast(cmd *cobra.Command, f *forecastFlags) error {
	if f.format != "table" && f.format != "json" {
		return fmt.Errorf("unsupported format %q", f.format)
	}
	method, err := forecast.ParseMethod(f.method)
	if err != nil {
		return err
	}

	file, err := os.Open(f.csvPath)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()
	series, err := repository.ReadPriceCSV(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", f.csvPath, err)
	}

	opts := []forecast.Option{forecast.WithFolds(f.folds)}
	if f.seed != 0 {
		opts = append(opts, forecast.WithSeed(f.seed))
	}
	res, err := forecast.NewFacade(opts...).Forecast(series, f.months, method)
	if err != nil {
		return err
	}

	name := f.instrument
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(f.csvPath), filepath.Ext(f.csvPath))
	}
	report := presenter.Build(models.Instrument{Code: name, Label: name}, series, res)

	out := cmd.OutOrStdout()
	if f.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	presenter.RenderTable(out, report)
	return nil
}
