package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
	"TrendCast/pkg/cache"
)

func TestCachedSeriesStoreServesFromCache(t *testing.T) {
	backend := &fakeStore{series: map[string]models.PriceSeries{"GOLD": dailySeries(40)}}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	store := NewCachedSeriesStore(backend, mc, time.Hour, nil)
	ctx := context.Background()

	first, err := store.FetchSeries(ctx, "GOLD")
	require.NoError(t, err)
	second, err := store.FetchSeries(ctx, "GOLD")
	require.NoError(t, err)

	assert.Equal(t, 1, backend.callCount())
	assert.Equal(t, first, second)
	assert.True(t, second[0].Date.Equal(day0))
}

func TestCachedSeriesStoreCollapsesConcurrentMisses(t *testing.T) {
	backend := &fakeStore{series: map[string]models.PriceSeries{"OIL": dailySeries(10)}, delay: 20 * time.Millisecond}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	store := NewCachedSeriesStore(backend, mc, time.Hour, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := store.FetchSeries(context.Background(), "OIL")
			assert.NoError(t, err)
			assert.Len(t, s, 10)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, backend.callCount())
}

func TestCachedSeriesStoreSharedLoadOutlivesFirstCaller(t *testing.T) {
	backend := &fakeStore{series: map[string]models.PriceSeries{"OIL": dailySeries(10)}, delay: 60 * time.Millisecond}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	store := NewCachedSeriesStore(backend, mc, time.Hour, nil)

	firstCtx, cancel := context.WithCancel(context.Background())
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, _ = store.FetchSeries(firstCtx, "OIL")
	}()

	time.Sleep(10 * time.Millisecond)
	secondDone := make(chan struct{})
	var (
		got models.PriceSeries
		err error
	)
	go func() {
		defer close(secondDone)
		got, err = store.FetchSeries(context.Background(), "OIL")
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	<-firstDone
	<-secondDone

	require.NoError(t, err)
	assert.Len(t, got, 10)
	assert.Equal(t, 1, backend.callCount())

	var cached models.PriceSeries
	require.NoError(t, mc.Get(context.Background(), cache.GenerateKey(seriesKeyPrefix, "OIL"), &cached))
	assert.Len(t, cached, 10)
}

func TestCachedSeriesStorePropagatesNotFound(t *testing.T) {
	backend := &fakeStore{series: map[string]models.PriceSeries{}}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	store := NewCachedSeriesStore(backend, mc, time.Hour, nil)

	_, err := store.FetchSeries(context.Background(), "NONE")
	assert.ErrorIs(t, err, domrepo.ErrInstrumentNotFound)
}

func TestCachedSeriesStoreRefreshAndInvalidate(t *testing.T) {
	backend := &fakeStore{series: map[string]models.PriceSeries{"GOLD": dailySeries(5)}}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	store := NewCachedSeriesStore(backend, mc, time.Hour, nil)
	ctx := context.Background()

	n, err := store.Refresh(ctx, "GOLD")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = store.FetchSeries(ctx, "GOLD")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.callCount())

	_, err = store.Instruments(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Invalidate(ctx))
	assert.Zero(t, mc.Len())

	_, err = store.FetchSeries(ctx, "GOLD")
	require.NoError(t, err)
	assert.Equal(t, 3, backend.callCount())
}
