package repository

import (
	"context"
	"errors"

	"TrendCast/internal/domain/models"
	"TrendCast/pkg/util"
)

// ErrInstrumentNotFound is returned when a store has no prices for the requested instrument.
var ErrInstrumentNotFound = errors.New("instrument not found")

// SeriesRepository returns daily closing prices per instrument.
// Implementations return points in ascending date order, one per day, with finite prices only.
type SeriesRepository interface {
	FetchSeries(ctx context.Context, instrument string) (models.PriceSeries, error)
	Instruments(ctx context.Context) ([]string, error)
}

// EventPublisher emits forecast audit events.
type EventPublisher interface {
	PublishForecast(ctx context.Context, ev *models.ForecastEvent) error
	Close() error
}

// Metrics records forecast outcomes.
type Metrics interface {
	RecordForecast(method string, failed bool, windowDays int, r2 float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordSeriesLength(instrument string, n int)
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Health(ctx context.Context) error
}

// NormalizeSeries drops non-finite points and keeps the last price seen for each day.
// Days are UTC calendar days. Input must already be ascending by timestamp.
func NormalizeSeries(in models.PriceSeries) models.PriceSeries {
	out := make(models.PriceSeries, 0, len(in))
	for _, p := range in {
		if !p.IsFinite() {
			continue
		}
		p.Date = util.TruncateDay(p.Date)
		if n := len(out); n > 0 && out[n-1].Date.Equal(p.Date) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

