package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
	domsvc "TrendCast/internal/domain/service"
	"TrendCast/internal/presenter"
	"TrendCast/internal/services/forecast"
	applogger "TrendCast/pkg/logger"
)

// ErrHorizonTooLong is returned when the requested horizon exceeds the configured maximum.
var ErrHorizonTooLong = errors.New("horizon exceeds the configured maximum")

// ForecastParams is one forecast request. An empty Method selects the default method.
type ForecastParams struct {
	Instrument string
	Months     int
	Method     string
}

// ForecastReport is what the API and CLI render.
type ForecastReport = presenter.Report

// LabelFunc maps an instrument code to its display label.
type LabelFunc func(code string) string

// ForecastOption configures ForecastUseCase.
type ForecastOption func(*ForecastUseCase)

// ForecastUseCase fetches a series, forecasts it and shapes the result for presentation.
type ForecastUseCase struct {
	repo          domrepo.SeriesRepository
	forecaster    domsvc.Forecaster
	events        domrepo.EventPublisher
	metrics       domrepo.Metrics
	logger        *applogger.Logger
	label         LabelFunc
	maxMonths     int
	defaultMethod models.ForecastMethod
	now           func() time.Time
}

func WithMaxHorizonMonths(n int) ForecastOption {
	return func(u *ForecastUseCase) {
		if n > 0 {
			u.maxMonths = n
		}
	}
}

func WithDefaultMethod(m models.ForecastMethod) ForecastOption {
	return func(u *ForecastUseCase) {
		if m.IsValid() {
			u.defaultMethod = m
		}
	}
}

func WithLabels(f LabelFunc) ForecastOption {
	return func(u *ForecastUseCase) {
		if f != nil {
			u.label = f
		}
	}
}

func WithEventPublisher(p domrepo.EventPublisher) ForecastOption {
	return func(u *ForecastUseCase) {
		if p != nil {
			u.events = p
		}
	}
}

func WithMetrics(m domrepo.Metrics) ForecastOption {
	return func(u *ForecastUseCase) {
		if m != nil {
			u.metrics = m
		}
	}
}

func NewForecastUseCase(repo domrepo.SeriesRepository, f domsvc.Forecaster, l *applogger.Logger, opts ...ForecastOption) *ForecastUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	u := &ForecastUseCase{
		repo:          repo,
		forecaster:    f,
		events:        noopEvents{},
		metrics:       noopMetrics{},
		logger:        l,
		label:         func(code string) string { return code },
		maxMonths:     24,
		defaultMethod: models.MethodLinearTrend,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Run executes one forecast request end to end.
func (u *ForecastUseCase) Run(ctx context.Context, p ForecastParams) (*ForecastReport, error) {
	start := u.now()
	code := strings.TrimSpace(p.Instrument)

	method := u.defaultMethod
	if strings.TrimSpace(p.Method) != "" {
		m, err := forecast.ParseMethod(p.Method)
		if err != nil {
			u.metrics.RecordError(ErrorKind(err))
			return nil, err
		}
		method = m
	}
	if p.Months > u.maxMonths {
		u.metrics.RecordError(ErrorKind(ErrHorizonTooLong))
		return nil, fmt.Errorf("%w: %d months requested, at most %d allowed", ErrHorizonTooLong, p.Months, u.maxMonths)
	}

	fetchStart := u.now()
	series, err := u.repo.FetchSeries(ctx, code)
	u.metrics.RecordLatency("fetch_series", u.now().Sub(fetchStart).Seconds())
	if err != nil {
		u.metrics.RecordError(ErrorKind(err))
		u.logger.Warn("fetch series failed", applogger.String("instrument", code), applogger.Error(err))
		return nil, fmt.Errorf("fetch series %s: %w", code, err)
	}
	u.metrics.RecordSeriesLength(code, len(series))

	fcStart := u.now()
	res, err := u.forecaster.Forecast(series, p.Months, method)
	u.metrics.RecordLatency("forecast_"+string(method), u.now().Sub(fcStart).Seconds())
	if err != nil {
		u.metrics.RecordError(ErrorKind(err))
		u.logger.Info("forecast rejected",
			applogger.String("instrument", code),
			applogger.String("method", string(method)),
			applogger.Int("months", p.Months),
			applogger.Int("series_len", len(series)),
			applogger.Error(err),
		)
		return nil, err
	}

	report := presenter.Build(models.Instrument{Code: code, Label: u.label(code)}, series, res)
	u.metrics.RecordForecast(string(method), report.Failed, res.WindowDays, res.R2)

	duration := u.now().Sub(start)
	u.publish(ctx, &models.ForecastEvent{
		ID:            uuid.NewString(),
		Instrument:    code,
		Method:        method,
		HorizonMonths: res.HorizonMonths,
		WindowDays:    res.WindowDays,
		R2:            report.R2,
		Failed:        report.Failed,
		DurationMS:    duration.Milliseconds(),
		Timestamp:     start.UTC(),
	})

	u.logger.Info("forecast computed",
		applogger.String("instrument", code),
		applogger.String("method", string(method)),
		applogger.Int("months", p.Months),
		applogger.Int("window_days", res.WindowDays),
		applogger.Float64("r2", res.R2),
		applogger.Bool("failed", report.Failed),
		applogger.Duration("duration_ms", duration),
	)
	return report, nil
}

// Instruments lists available instruments with display labels.
func (u *ForecastUseCase) Instruments(ctx context.Context) ([]models.Instrument, error) {
	codes, err := u.repo.Instruments(ctx)
	if err != nil {
		u.metrics.RecordError(ErrorKind(err))
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	out := make([]models.Instrument, 0, len(codes))
	for _, c := range codes {
		out = append(out, models.Instrument{Code: c, Label: u.label(c)})
	}
	return out, nil
}

// publish is best-effort; a broker outage must not fail the request.
func (u *ForecastUseCase) publish(ctx context.Context, ev *models.ForecastEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := u.events.PublishForecast(ctx, ev); err != nil {
		u.metrics.RecordError("publish_event")
		u.logger.Warn("publish forecast event failed",
			applogger.String("event_id", ev.ID),
			applogger.String("instrument", ev.Instrument),
			applogger.Error(err),
		)
	}
}

// ErrorKind returns a low-cardinality label for err.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, forecast.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, forecast.ErrUnknownMethod):
		return "unknown_method"
	case errors.Is(err, forecast.ErrInvalidHorizon), errors.Is(err, ErrHorizonTooLong):
		return "invalid_horizon"
	case errors.Is(err, forecast.ErrUnsortedSeries), errors.Is(err, forecast.ErrInvalidPrice):
		return "invalid_series"
	case errors.Is(err, domrepo.ErrInstrumentNotFound):
		return "instrument_not_found"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "internal"
	}
}

type noopEvents struct{}

func (noopEvents) PublishForecast(context.Context, *models.ForecastEvent) error { return nil }
func (noopEvents) Close() error                                             { return nil }

type noopMetrics struct{}

func (noopMetrics) RecordForecast(string, bool, int, float64) {}
func (noopMetrics) RecordError(string)                       {}
func (noopMetrics) RecordLatency(string, float64)            {}
func (noopMetrics) RecordSeriesLength(string, int)           {}
