package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
	pkgch "TrendCast/pkg/clickhouse"
	applogger "TrendCast/pkg/logger"
)

// CHSeriesStore reads daily prices from ClickHouse.
type CHSeriesStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewCHSeriesStore uses <database>.<table> of the given client.
func NewCHSeriesStore(ch *pkgch.Client, table string) *CHSeriesStore {
	return &CHSeriesStore{db: ch.DB(), table: ch.Database() + "." + table}
}

// SetLogger injects a structured logger.
func (s *CHSeriesStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSeriesStore) FetchSeries(ctx context.Context, instrument string) (models.PriceSeries, error) {
	start := time.Now()
	// FINAL collapses ReplacingMergeTree duplicates for the same day.
	q := fmt.Sprintf(`
        SELECT day, price
        FROM %s FINAL
        WHERE instrument = ?
        ORDER BY day ASC
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, instrument)
	if err != nil {
		s.logError("clickhouse fetch_series query error", instrument, err)
		return nil, fmt.Errorf("fetch series %s: %w", instrument, err)
	}
	defer rows.Close()

	out := make(models.PriceSeries, 0, 4096)
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Date, &p.Price); err != nil {
			s.logError("clickhouse fetch_series scan error", instrument, err)
			return nil, fmt.Errorf("scan price: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		s.logError("clickhouse fetch_series rows error", instrument, err)
		return nil, fmt.Errorf("rows: %w", err)
	}

	out = domrepo.NormalizeSeries(out)
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", domrepo.ErrInstrumentNotFound, instrument)
	}
	if s.l != nil {
		s.l.Info("clickhouse fetch_series ok",
			applogger.String("table", s.table),
			applogger.String("instrument", instrument),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHSeriesStore) Instruments(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf("SELECT DISTINCT instrument FROM %s ORDER BY instrument", s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan instrument: %w", err)
		}
		out = append(out, code)
	}
	return out, rows.Err()
}

func (s *CHSeriesStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHSeriesStore) logError(msg, instrument string, err error) {
	if s.l == nil {
		return
	}
	s.l.Error(msg,
		applogger.String("table", s.table),
		applogger.String("instrument", instrument),
		applogger.Error(err),
	)
}

var _ domrepo.SeriesRepository = (*CHSeriesStore)(nil)
