package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
	domsvc "TrendCast/internal/domain/service"
	"TrendCast/internal/handler/api"
	internalrepo "TrendCast/internal/repository"
	svcmetrics "TrendCast/internal/service/metrics"
	"TrendCast/internal/service/ratelimit"
	"TrendCast/internal/services/forecast"
	"TrendCast/internal/usecase"
	"TrendCast/pkg/cache"
	pkgch "TrendCast/pkg/clickhouse"
	"TrendCast/pkg/config"
	xhttp "TrendCast/pkg/http"
	"TrendCast/pkg/http/middleware"
	pkgkafka "TrendCast/pkg/kafka"
	applogger "TrendCast/pkg/logger"
	"TrendCast/pkg/metrics"
	"TrendCast/pkg/postgres"
	"TrendCast/pkg/server"
)

// BackendRepository is the uncached price store selected by backend.type.
type BackendRepository interface {
	domrepo.SeriesRepository
}

func noop() {}

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the registry the service exposes on the metrics path.
func ProvideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// ProvideMetrics creates the Prometheus recorder and the API collectors.
func ProvideMetrics(reg *prometheus.Registry) domrepo.Metrics {
	svcmetrics.Register(reg)
	return metrics.New(reg)
}

// ProvideBackend opens the configured price store.
func ProvideBackend(cfg *config.Config, l *applogger.Logger) (BackendRepository, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch cfg.Backend.Type {
	case "clickhouse":
		client, err := pkgch.NewClient(ctx,
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		if cfg.ClickHouse.InitSchema {
			if err := client.InitSchema(ctx, pkgch.PriceSchema(cfg.ClickHouse.Database, cfg.ClickHouse.Table)); err != nil {
				_ = client.Close()
				return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
			}
		}
		store := internalrepo.NewCHSeriesStore(client, cfg.ClickHouse.Table)
		store.SetLogger(l)
		l.Info("price backend ready", applogger.String("backend", "clickhouse"), applogger.String("database", client.Database()))
		return store, func() {
			if err := client.Close(); err != nil {
				l.Warn("clickhouse close error", applogger.Error(err))
			}
		}, nil

	case "postgres":
		db, err := postgres.Open(ctx, postgres.Config{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Postgres.ConnMaxIdleTime,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		store := internalrepo.NewPGSeriesStore(db, cfg.Postgres.Table, cfg.Postgres.QueryTimeout)
		store.SetLogger(l)
		l.Info("price backend ready", applogger.String("backend", "postgres"))
		return store, func() {
			if err := db.Close(); err != nil {
				l.Warn("postgres close error", applogger.Error(err))
			}
		}, nil

	case "http":
		client := xhttp.NewClient(
			xhttp.WithTimeout(cfg.PricesHTTP.Timeout),
			xhttp.WithRetry(cfg.PricesHTTP.Retries, 200*time.Millisecond),
		)
		l.Info("price backend ready", applogger.String("backend", "http"), applogger.String("base_url", cfg.PricesHTTP.BaseURL))
		return internalrepo.NewHTTPSeriesStore(cfg.PricesHTTP.BaseURL, client), noop, nil

	default:
		l.Info("price backend ready", applogger.String("backend", "csv"), applogger.String("dir", cfg.CSV.Dir))
		return internalrepo.NewCSVSeriesStore(cfg.CSV.Dir), noop, nil
	}
}

// ProvideCache returns the in-process cache, layered over Redis when Redis is enabled.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		c := cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize))
		return c, func() { _ = c.Close() }, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	redisCache, err := cache.NewRedisCache(ctx,
		cache.WithRedisHost(cfg.Cache.Redis.Host),
		cache.WithRedisPort(cfg.Cache.Redis.Port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	c := cache.NewLayeredCache(redisCache,
		cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
		cache.WithLayeredL1TTL(time.Minute),
	)
	l.Info("redis cache ready", applogger.String("host", cfg.Cache.Redis.Host))
	return c, func() {
		if err := c.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}, nil
}

// ProvideSeriesRepository wraps the backend with the series cache when caching is enabled.
func ProvideSeriesRepository(backend BackendRepository, c cache.Service, cfg *config.Config, l *applogger.Logger) domrepo.SeriesRepository {
	if !cfg.Cache.Enabled {
		return backend
	}
	return internalrepo.NewCachedSeriesStore(backend, c, cfg.Cache.TTL, l)
}

// ProvideEventPublisher publishes forecast events to Kafka, or drops them without brokers.
func ProvideEventPublisher(cfg *config.Config, l *applogger.Logger) (domrepo.EventPublisher, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return internalrepo.NoopEventPublisher{}, noop, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaEventPublisher(producer)
	l.Info("forecast events enabled", applogger.Strings("brokers", cfg.Kafka.Brokers), applogger.String("topic", producer.Topic()))
	return pub, func() {
		if err := pub.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}, nil
}

// ProvideForecaster builds the forecasting facade.
func ProvideForecaster(cfg *config.Config) domsvc.Forecaster {
	opts := []forecast.Option{
		forecast.WithFolds(cfg.Forecast.Folds),
		forecast.WithMaxEvaluations(cfg.Forecast.MaxEvaluations),
	}
	if cfg.Forecast.Seed != nil {
		opts = append(opts, forecast.WithSeed(*cfg.Forecast.Seed))
	}
	return forecast.NewFacade(opts...)
}

// ProvideForecastUseCase wires the forecast use case.
func ProvideForecastUseCase(
	repo domrepo.SeriesRepository,
	f domsvc.Forecaster,
	pub domrepo.EventPublisher,
	m domrepo.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.ForecastUseCase {
	return usecase.NewForecastUseCase(repo, f, l,
		usecase.WithEventPublisher(pub),
		usecase.WithMetrics(m),
		usecase.WithMaxHorizonMonths(cfg.Forecast.MaxHorizonMonths),
		usecase.WithDefaultMethod(models.ForecastMethod(cfg.Forecast.DefaultMethod)),
		usecase.WithLabels(cfg.InstrumentLabel),
	)
}

// ProvideRateLimiter creates the per-client limiter.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

// ProvideForecastHandler creates the API handler behind the rate limit.
func ProvideForecastHandler(l *applogger.Logger, uc *usecase.ForecastUseCase, lim *ratelimit.Limiter, cfg *config.Config) *api.ForecastEchoHandler {
	return api.NewForecastEchoHandler(l, uc, cfg.Forecast.Timeout, middleware.RateLimit(lim))
}

// ProvideWarmupJob schedules the cache warmup. It returns nil when the scheduler is
// disabled or the repository is not cached.
func ProvideWarmupJob(repo domrepo.SeriesRepository, c cache.Service, m domrepo.Metrics, cfg *config.Config, l *applogger.Logger) (*usecase.WarmupJob, error) {
	if !cfg.Scheduler.Enabled {
		return nil, nil
	}
	refresher, ok := repo.(usecase.SeriesRefresher)
	if !ok {
		l.Warn("warmup disabled: series cache is off")
		return nil, nil
	}
	instruments := repo.Instruments
	if codes := cfg.InstrumentCodes(); len(codes) > 0 {
		instruments = func(context.Context) ([]string, error) { return codes, nil }
	}
	job := usecase.NewWarmupJob(refresher, instruments, c, m, cfg.Scheduler.Timeout, l)
	if err := job.Schedule(cfg.Scheduler.WarmupCron); err != nil {
		return nil, err
	}
	return job, nil
}

// ProvideHTTPServer assembles the echo server with health checks and metrics.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.ForecastEchoHandler, reg *prometheus.Registry, repo domrepo.SeriesRepository) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(reg, cfg.Metrics.Path))
	}
	if p, ok := repo.(domrepo.Pinger); ok {
		opts = append(opts, xhttp.WithHealthCheck("prices", p.Health))
	}
	return xhttp.NewServer(l, []xhttp.Handler{h}, opts...)
}

// ProvideApp creates the application.
func ProvideApp(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, lim *ratelimit.Limiter, job *usecase.WarmupJob) *server.App {
	var jobs []server.BackgroundJob
	if job != nil {
		jobs = append(jobs, job)
	}
	return server.New(l, srv, cfg.Server.ShutdownTimeout, lim, jobs...)
}
