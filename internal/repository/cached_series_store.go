package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
	"TrendCast/pkg/cache"
	applogger "TrendCast/pkg/logger"
)

const (
	seriesKeyPrefix = "series"
	instrumentsKey  = "instruments"

	// sharedLoadTimeout bounds a backend read that serves every waiter of a miss.
	sharedLoadTimeout = 30 * time.Second
)

// CachedSeriesStore serves series from a cache and falls back to the wrapped store.
// Concurrent misses for the same instrument share one backend read.
type CachedSeriesStore struct {
	next  domrepo.SeriesRepository
	cache cache.Service
	ttl   time.Duration
	group singleflight.Group
	l     *applogger.Logger
}

func NewCachedSeriesStore(next domrepo.SeriesRepository, c cache.Service, ttl time.Duration, l *applogger.Logger) *CachedSeriesStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CachedSeriesStore{next: next, cache: c, ttl: ttl, l: l}
}

func (s *CachedSeriesStore) FetchSeries(ctx context.Context, instrument string) (models.PriceSeries, error) {
	key := cache.GenerateKey(seriesKeyPrefix, instrument)

	var cached models.PriceSeries
	err := s.cache.Get(ctx, key, &cached)
	switch {
	case err == nil && len(cached) > 0:
		return cached, nil
	case err != nil && !errors.Is(err, cache.ErrCacheMiss):
		s.l.Warn("series cache read failed", applogger.String("instrument", instrument), applogger.Error(err))
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		// The load is shared, so one caller going away must not fail the others.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()
		return s.load(loadCtx, instrument)
	})
	if err != nil {
		return nil, err
	}
	return v.(models.PriceSeries), nil
}

// Refresh reloads one instrument from the backend and overwrites the cached copy.
func (s *CachedSeriesStore) Refresh(ctx context.Context, instrument string) (int, error) {
	series, err := s.load(ctx, instrument)
	if err != nil {
		return 0, err
	}
	return len(series), nil
}

func (s *CachedSeriesStore) load(ctx context.Context, instrument string) (models.PriceSeries, error) {
	series, err := s.next.FetchSeries(ctx, instrument)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, cache.GenerateKey(seriesKeyPrefix, instrument), series, s.ttl); err != nil {
		s.l.Warn("series cache write failed", applogger.String("instrument", instrument), applogger.Error(err))
	}
	return series, nil
}

func (s *CachedSeriesStore) Instruments(ctx context.Context) ([]string, error) {
	var codes []string
	if err := s.cache.Get(ctx, instrumentsKey, &codes); err == nil && len(codes) > 0 {
		return codes, nil
	}
	codes, err := s.next.Instruments(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, instrumentsKey, codes, s.ttl); err != nil {
		s.l.Warn("instruments cache write failed", applogger.Error(err))
	}
	return codes, nil
}

// Invalidate drops every cached series and the instrument list.
func (s *CachedSeriesStore) Invalidate(ctx context.Context) error {
	if err := s.cache.DeleteByPattern(ctx, cache.BuildPattern(seriesKeyPrefix+":")); err != nil {
		return fmt.Errorf("invalidate series cache: %w", err)
	}
	return s.cache.Delete(ctx, instrumentsKey)
}

// Health delegates to the backend when it supports it.
func (s *CachedSeriesStore) Health(ctx context.Context) error {
	if p, ok := s.next.(domrepo.Pinger); ok {
		return p.Health(ctx)
	}
	return nil
}

var _ domrepo.SeriesRepository = (*CachedSeriesStore)(nil)
