package forecast

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"TrendCast/internal/domain/models"
	domsvc "TrendCast/internal/domain/service"
)

// Option configures a Facade.
type Option func(*Facade)

// Facade is the single forecasting entry point. It holds configuration only; every call
// gets its own random source, so one Facade can serve concurrent requests.
type Facade struct {
	folds          int
	maxEvaluations int
	seeded         bool
	seed           uint64
}

// WithFolds sets the number of cross-validation folds.
func WithFolds(k int) Option {
	return func(f *Facade) {
		if k >= 2 {
			f.folds = k
		}
	}
}

// WithSeed makes window selection reproducible: each call reuses the same shuffle stream.
func WithSeed(seed uint64) Option {
	return func(f *Facade) {
		f.seeded = true
		f.seed = seed
	}
}

// WithMaxEvaluations bounds the smoothing optimizer.
func WithMaxEvaluations(n int) Option {
	return func(f *Facade) {
		if n > 0 {
			f.maxEvaluations = n
		}
	}
}

// NewFacade creates a Facade.
func NewFacade(opts ...Option) *Facade {
	f := &Facade{
		folds:          DefaultFolds,
		maxEvaluations: DefaultMaxEvaluations,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ParseMethod maps a selector string onto a ForecastMethod.
func ParseMethod(s string) (models.ForecastMethod, error) {
	m := models.ForecastMethod(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", &UnknownMethodError{Method: s}
	}
	return m, nil
}

// Forecast dispatches on method and returns a result of the same shape for both methods.
func (f *Facade) Forecast(series models.PriceSeries, months int, method models.ForecastMethod) (*models.ForecastResult, error) {
	if !method.IsValid() {
		return nil, &UnknownMethodError{Method: string(method)}
	}
	if months < 1 {
		return nil, ErrInvalidHorizon
	}
	if err := ValidateSeries(series); err != nil {
		return nil, err
	}
	if need, ok := minHistoryDays(method, months); !ok || need > len(series) {
		if !ok {
			need = math.MaxInt
		}
		return nil, &InsufficientDataError{Method: method, Required: need, Available: len(series)}
	}
	horizonDays := models.HorizonDays(months)

	var (
		res *models.ForecastResult
		err error
	)
	switch method {
	case models.MethodLinearTrend:
		sel, serr := NewWindowSelector(f.newRand(), f.folds).Select(series, months)
		if serr != nil {
			return nil, serr
		}
		res, err = TrendForecaster{}.Forecast(series, sel.WindowDays, horizonDays)
		if err == nil {
			res.R2 = sel.R2
		}
	case models.MethodExponentialSmoothing:
		res, err = NewSmoothingForecaster(f.maxEvaluations).Forecast(series, horizonDays)
	}
	if err != nil {
		return nil, err
	}
	res.HorizonMonths = months
	return res, nil
}

// ForecastByName parses the method selector and forecasts.
func (f *Facade) ForecastByName(series models.PriceSeries, months int, method string) (*models.ForecastResult, error) {
	m, err := ParseMethod(method)
	if err != nil {
		return nil, err
	}
	return f.Forecast(series, months, m)
}

// minHistoryDays is the shortest series a method can use for the horizon: the smallest
// trend candidate, or the smoothing window. ok is false when the count overflows int.
func minHistoryDays(method models.ForecastMethod, months int) (int, bool) {
	if method == models.MethodExponentialSmoothing {
		return windowDays(months, 2)
	}
	return windowDays(months/2+months%2, 1)
}

func (f *Facade) newRand() *rand.Rand {
	if f.seeded {
		return rand.New(rand.NewPCG(f.seed, f.seed))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// ValidateSeries checks the shape guarantees a SeriesRepository promises.
func ValidateSeries(series models.PriceSeries) error {
	if len(series) == 0 {
		return fmt.Errorf("%w: empty series", ErrInsufficientData)
	}
	for i, p := range series {
		if !p.IsFinite() {
			return fmt.Errorf("%w at %s", ErrInvalidPrice, p.Date.Format("2006-01-02"))
		}
		if i > 0 && !p.Date.After(series[i-1].Date) {
			return fmt.Errorf("%w: %s follows %s", ErrUnsortedSeries,
				p.Date.Format("2006-01-02"), series[i-1].Date.Format("2006-01-02"))
		}
	}
	return nil
}

var _ domsvc.Forecaster = (*Facade)(nil)
