package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domrepo "TrendCast/internal/domain/repository"
)

func TestReadPriceCSVWithHeader(t *testing.T) {
	in := "price,date\n3.5,2024-01-03\n1.5,2024-01-01\n,2024-01-02\n2.5,2024-01-02\n"

	s, err := ReadPriceCSV(strings.NewReader(in))

	require.NoError(t, err)
	require.Len(t, s, 3)
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, s.Prices())
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), s[2].Date)
}

func TestReadPriceCSVWithoutHeader(t *testing.T) {
	s, err := ReadPriceCSV(strings.NewReader("2024-02-01,10\n2024-02-02,11\n"))

	require.NoError(t, err)
	assert.Equal(t, []float64{10, 11}, s.Prices())
}

func TestReadPriceCSVErrors(t *testing.T) {
	_, err := ReadPriceCSV(strings.NewReader("date,price\nyesterday,1\n"))
	assert.ErrorContains(t, err, "bad date")

	_, err = ReadPriceCSV(strings.NewReader("date,price\n2024-01-01,abc\n"))
	assert.ErrorContains(t, err, "bad price")
}

func TestCSVSeriesStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "GOLD.csv"), []byte("date,price\n2024-01-01,1\n2024-01-02,2\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "EMPTY.csv"), []byte("date,price\n"), 0o644))
	store := NewCSVSeriesStore(dir)
	ctx := context.Background()

	s, err := store.FetchSeries(ctx, "GOLD")
	require.NoError(t, err)
	assert.Len(t, s, 2)

	codes, err := store.Instruments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"EMPTY", "GOLD"}, codes)

	for _, code := range []string{"EMPTY", "SILVER", "../GOLD", ""} {
		_, err := store.FetchSeries(ctx, code)
		assert.ErrorIs(t, err, domrepo.ErrInstrumentNotFound, code)
	}
}
