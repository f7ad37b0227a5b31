package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	domrepo "TrendCast/internal/domain/repository"
	applogger "TrendCast/pkg/logger"
)

const warmupLockKey = "lock:warmup"

// SeriesRefresher reloads one instrument into the series cache.
type SeriesRefresher interface {
	Refresh(ctx context.Context, instrument string) (int, error)
}

// Locker guards the warmup against concurrent runs across replicas.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// WarmupResult summarises one warmup pass.
type WarmupResult struct {
	Refreshed map[string]int
	Failed    map[string]error
	Skipped   bool
}

// WarmupJob reloads configured instruments on a cron schedule so the first
// forecast of the day does not pay the backend round trip.
type WarmupJob struct {
	cron        *cron.Cron
	refresher   SeriesRefresher
	lock        Locker
	instruments func(ctx context.Context) ([]string, error)
	timeout     time.Duration
	metrics     domrepo.Metrics
	logger      *applogger.Logger

	mu      sync.Mutex
	started bool
}

// NewWarmupJob creates a job. lock and metrics may be nil.
func NewWarmupJob(r SeriesRefresher, instruments func(ctx context.Context) ([]string, error), lock Locker, m domrepo.Metrics, timeout time.Duration, l *applogger.Logger) *WarmupJob {
	if l == nil {
		l = applogger.Nop()
	}
	if m == nil {
		m = noopMetrics{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &WarmupJob{
		cron:        cron.New(),
		refresher:   r,
		lock:        lock,
		instruments: instruments,
		timeout:     timeout,
		metrics:     m,
		logger:      l,
	}
}

// Schedule registers the job under a standard five-field cron spec.
func (j *WarmupJob) Schedule(spec string) error {
	if _, err := j.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		if _, err := j.RunOnce(ctx); err != nil {
			j.logger.Error("warmup run failed", applogger.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("register warmup %q: %w", spec, err)
	}
	return nil
}

func (j *WarmupJob) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.started {
		return
	}
	j.started = true
	j.cron.Start()
	j.logger.Info("warmup scheduler started", applogger.Int("entries", len(j.cron.Entries())))
}

// Stop waits for a running pass to finish or ctx to expire.
func (j *WarmupJob) Stop(ctx context.Context) {
	j.mu.Lock()
	started := j.started
	j.started = false
	j.mu.Unlock()
	if !started {
		return
	}
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
		j.logger.Warn("warmup scheduler stop timed out")
	}
}

// RunOnce refreshes every instrument. Per-instrument failures are collected, not fatal.
func (j *WarmupJob) RunOnce(ctx context.Context) (*WarmupResult, error) {
	res := &WarmupResult{Refreshed: map[string]int{}, Failed: map[string]error{}}

	if j.lock != nil {
		ok, err := j.lock.TryLock(ctx, warmupLockKey, j.timeout)
		if err != nil {
			return nil, fmt.Errorf("acquire warmup lock: %w", err)
		}
		if !ok {
			j.logger.Info("warmup already running elsewhere")
			res.Skipped = true
			return res, nil
		}
		defer func() {
			if err := j.lock.Unlock(context.WithoutCancel(ctx), warmupLockKey); err != nil {
				j.logger.Warn("release warmup lock", applogger.Error(err))
			}
		}()
	}

	codes, err := j.instruments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}

	start := time.Now()
	for _, code := range codes {
		if ctx.Err() != nil {
			res.Failed[code] = ctx.Err()
			continue
		}
		n, err := j.refresher.Refresh(ctx, code)
		if err != nil {
			res.Failed[code] = err
			j.metrics.RecordError("warmup")
			j.logger.Warn("warmup refresh failed", applogger.String("instrument", code), applogger.Error(err))
			continue
		}
		res.Refreshed[code] = n
		j.metrics.RecordSeriesLength(code, n)
	}
	j.metrics.RecordLatency("warmup", time.Since(start).Seconds())

	j.logger.Info("warmup complete",
		applogger.Int("refreshed", len(res.Refreshed)),
		applogger.Int("failed", len(res.Failed)),
		applogger.Any("refreshed_rows", res.Refreshed),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return res, nil
}
