package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
	"TrendCast/pkg/util"
)

// CSVSeriesStore reads <dir>/<instrument>.csv files with date and price columns.
type CSVSeriesStore struct {
	dir string
}

func NewCSVSeriesStore(dir string) *CSVSeriesStore {
	return &CSVSeriesStore{dir: dir}
}

func (s *CSVSeriesStore) FetchSeries(_ context.Context, instrument string) (models.PriceSeries, error) {
	if instrument == "" || strings.ContainsAny(instrument, `/\`) || strings.Contains(instrument, "..") {
		return nil, fmt.Errorf("%w: %q", domrepo.ErrInstrumentNotFound, instrument)
	}
	f, err := os.Open(filepath.Join(s.dir, instrument+".csv"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domrepo.ErrInstrumentNotFound, instrument)
		}
		return nil, fmt.Errorf("open series %s: %w", instrument, err)
	}
	defer f.Close()

	series, err := ReadPriceCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read series %s: %w", instrument, err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: %s", domrepo.ErrInstrumentNotFound, instrument)
	}
	return series, nil
}

func (s *CSVSeriesStore) Instruments(_ context.Context) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list csv files: %w", err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSuffix(filepath.Base(m), ".csv"))
	}
	slices.Sort(out)
	return out, nil
}

// ReadPriceCSV parses a two-column price file. The header row, if present, may name
// the columns in any order ("date", "price", "close" are recognised); without a header
// the first column is the date and the second the price. Rows are returned ascending.
func ReadPriceCSV(r io.Reader) (models.PriceSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	dateCol, priceCol := 0, 1
	var out models.PriceSeries
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		line++
		if line == 1 {
			if d, p, ok := headerColumns(rec); ok {
				dateCol, priceCol = d, p
				continue
			}
		}
		if len(rec) <= max(dateCol, priceCol) {
			return nil, fmt.Errorf("csv line %d: expected at least %d columns", line, max(dateCol, priceCol)+1)
		}
		if strings.TrimSpace(rec[priceCol]) == "" {
			continue
		}
		t, ok := util.ParseTime(strings.TrimSpace(rec[dateCol]))
		if !ok {
			return nil, fmt.Errorf("csv line %d: bad date %q", line, rec[dateCol])
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(rec[priceCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: bad price %q: %w", line, rec[priceCol], err)
		}
		out = append(out, models.PricePoint{Date: t, Price: price})
	}

	slices.SortStableFunc(out, func(a, b models.PricePoint) int { return a.Date.Compare(b.Date) })
	return domrepo.NormalizeSeries(out), nil
}

func headerColumns(rec []string) (dateCol, priceCol int, ok bool) {
	dateCol, priceCol = -1, -1
	for i, name := range rec {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date", "day", "timestamp":
			dateCol = i
		case "price", "close", "value":
			priceCol = i
		}
	}
	if dateCol < 0 || priceCol < 0 {
		return 0, 1, false
	}
	return dateCol, priceCol, true
}

var _ domrepo.SeriesRepository = (*CSVSeriesStore)(nil)
