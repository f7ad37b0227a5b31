package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domrepo "TrendCast/internal/domain/repository"
)

func TestCHSeriesStoreFetchSeries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT day, price\s+FROM prices.daily_prices FINAL`).
		WithArgs("GOLD").
		WillReturnRows(sqlmock.NewRows([]string{"day", "price"}).
			AddRow(day0, 1.0).
			AddRow(day0.AddDate(0, 0, 1), 2.0))

	store := &CHSeriesStore{db: db, table: "prices.daily_prices"}
	s, err := store.FetchSeries(context.Background(), "GOLD")

	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, s.Prices())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCHSeriesStoreEmptyIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT day, price`).WithArgs("NONE").
		WillReturnRows(sqlmock.NewRows([]string{"day", "price"}))

	store := &CHSeriesStore{db: db, table: "prices.daily_prices"}
	_, err = store.FetchSeries(context.Background(), "NONE")

	assert.ErrorIs(t, err, domrepo.ErrInstrumentNotFound)
}

func TestPGSeriesStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT day, price FROM "daily_prices" WHERE instrument = \$1`).
		WithArgs("OIL").
		WillReturnRows(sqlmock.NewRows([]string{"day", "price"}).
			AddRow(day0, 80.5).
			AddRow(day0.Add(26*time.Hour), 81.0))
	mock.ExpectQuery(`SELECT DISTINCT instrument FROM "daily_prices"`).
		WillReturnRows(sqlmock.NewRows([]string{"instrument"}).AddRow("GOLD").AddRow("OIL"))

	store := NewPGSeriesStore(sqlx.NewDb(db, "postgres"), "daily_prices", time.Second)
	ctx := context.Background()

	s, err := store.FetchSeries(ctx, "OIL")
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, day0.AddDate(0, 0, 1), s[1].Date)

	codes, err := store.Instruments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"GOLD", "OIL"}, codes)
	assert.NoError(t, mock.ExpectationsWereMet())
}
