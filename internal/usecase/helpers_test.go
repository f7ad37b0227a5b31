package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
)

var day0 = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

func linearSeries(n int, start, slope float64) models.PriceSeries {
	out := make(models.PriceSeries, n)
	for i := range out {
		out[i] = models.PricePoint{Date: day0.AddDate(0, 0, i), Price: start + slope*float64(i)}
	}
	return out
}

type stubRepo struct {
	series map[string]models.PriceSeries
	err    error
}

func (r *stubRepo) FetchSeries(_ context.Context, code string) (models.PriceSeries, error) {
	if r.err != nil {
		return nil, r.err
	}
	s, ok := r.series[code]
	if !ok {
		return nil, domrepo.ErrInstrumentNotFound
	}
	return s, nil
}

func (r *stubRepo) Instruments(context.Context) ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []string{"BRENT", "GOLD"}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.ForecastEvent
	err    error
}

func (p *recordingPublisher) PublishForecast(_ context.Context, ev *models.ForecastEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type recordingMetrics struct {
	mu        sync.Mutex
	forecasts []string
	errors    []string
	lengths   map[string]int
}

func (m *recordingMetrics) RecordForecast(method string, _ bool, _ int, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forecasts = append(m.forecasts, method)
}

func (m *recordingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, kind)
}

func (m *recordingMetrics) RecordLatency(string, float64) {}

func (m *recordingMetrics) RecordSeriesLength(code string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lengths == nil {
		m.lengths = map[string]int{}
	}
	m.lengths[code] = n
}

type stubRefresher struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []string
}

func (r *stubRefresher) Refresh(_ context.Context, code string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, code)
	if r.fail[code] {
		return 0, errors.New("backend down")
	}
	return 42, nil
}

type stubLock struct {
	held     bool
	unlocked bool
}

func (l *stubLock) TryLock(context.Context, string, time.Duration) (bool, error) {
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *stubLock) Unlock(context.Context, string) error {
	l.held = false
	l.unlocked = true
	return nil
}
