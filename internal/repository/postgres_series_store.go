package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
	applogger "TrendCast/pkg/logger"
)

// PGSeriesStore reads daily prices from a PostgreSQL table (day date, instrument text, price double precision).
type PGSeriesStore struct {
	db      *sqlx.DB
	table   string
	timeout time.Duration
	l       *applogger.Logger
}

type priceRow struct {
	Day   time.Time `db:"day"`
	Price float64   `db:"price"`
}

func NewPGSeriesStore(db *sqlx.DB, table string, timeout time.Duration) *PGSeriesStore {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PGSeriesStore{db: db, table: pq.QuoteIdentifier(table), timeout: timeout}
}

// SetLogger injects a structured logger.
func (s *PGSeriesStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *PGSeriesStore) FetchSeries(ctx context.Context, instrument string) (models.PriceSeries, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rows []priceRow
	q := fmt.Sprintf(`SELECT day, price FROM %s WHERE instrument = $1 ORDER BY day ASC`, s.table)
	if err := s.db.SelectContext(ctx, &rows, q, instrument); err != nil {
		if s.l != nil {
			s.l.Error("postgres fetch_series error",
				applogger.String("instrument", instrument),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("fetch series %s: %w", instrument, err)
	}

	out := make(models.PriceSeries, len(rows))
	for i, r := range rows {
		out[i] = models.PricePoint{Date: r.Day, Price: r.Price}
	}
	out = domrepo.NormalizeSeries(out)
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", domrepo.ErrInstrumentNotFound, instrument)
	}
	if s.l != nil {
		s.l.Debug("postgres fetch_series ok",
			applogger.String("instrument", instrument),
			applogger.Int("rows", len(out)),
		)
	}
	return out, nil
}

func (s *PGSeriesStore) Instruments(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var out []string
	q := fmt.Sprintf(`SELECT DISTINCT instrument FROM %s ORDER BY instrument`, s.table)
	if err := s.db.SelectContext(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	return out, nil
}

func (s *PGSeriesStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var _ domrepo.SeriesRepository = (*PGSeriesStore)(nil)
