package repository

import (
	"context"
	"sync"
	"time"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func dailySeries(n int) models.PriceSeries {
	out := make(models.PriceSeries, n)
	for i := range out {
		out[i] = models.PricePoint{Date: day0.AddDate(0, 0, i), Price: 100 + float64(i)}
	}
	return out
}

type fakeStore struct {
	mu     sync.Mutex
	series map[string]models.PriceSeries
	calls  int
	delay  time.Duration
}

func (f *fakeStore) FetchSeries(ctx context.Context, instrument string) (models.PriceSeries, error) {
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	s, ok := f.series[instrument]
	if !ok {
		return nil, domrepo.ErrInstrumentNotFound
	}
	return s, nil
}

func (f *fakeStore) Instruments(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := make([]string, 0, len(f.series))
	for k := range f.series {
		out = append(out, k)
	}
	return out, nil
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
