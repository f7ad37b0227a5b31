package forecast

import (
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"TrendCast/internal/domain/models"
	"TrendCast/pkg/util"
)

// DefaultMaxEvaluations bounds the objective evaluations spent fitting one model.
const DefaultMaxEvaluations = 20000

// SmoothingForecaster fits Holt's additive-trend exponential smoothing over a window of
// twice the horizon and extrapolates the final level and trend.
type SmoothingForecaster struct {
	maxEvaluations int
}

// NewSmoothingForecaster creates a forecaster with an evaluation budget for the optimizer.
func NewSmoothingForecaster(maxEvaluations int) *SmoothingForecaster {
	if maxEvaluations <= 0 {
		maxEvaluations = DefaultMaxEvaluations
	}
	return &SmoothingForecaster{maxEvaluations: maxEvaluations}
}

// WindowDays is the fixed lookback used for a horizon.
func (SmoothingForecaster) WindowDays(horizonDays int) int { return 2 * horizonDays }

// Forecast returns in-sample fitted values followed by horizonDays forecasts. When the
// fit does not converge every price is NaN; this is not reported as an error.
func (f *SmoothingForecaster) Forecast(series models.PriceSeries, horizonDays int) (*models.ForecastResult, error) {
	windowDays := f.WindowDays(horizonDays)
	if windowDays < 2 || windowDays > len(series) {
		return nil, &InsufficientDataError{
			Method:    models.MethodExponentialSmoothing,
			Required:  max(windowDays, 2),
			Available: len(series),
		}
	}
	window := series.Tail(windowDays)
	last, _ := window.Last()
	future := util.NextDays(last.Date, horizonDays)

	fitted, forecast, ok := f.fit(window.Prices(), horizonDays)
	if !ok {
		fitted = nanSlice(windowDays)
		forecast = nanSlice(horizonDays)
	}

	points := make(models.PriceSeries, 0, windowDays+horizonDays)
	for i, p := range window {
		points = append(points, models.PricePoint{Date: p.Date, Price: fitted[i]})
	}
	for i, d := range future {
		points = append(points, models.PricePoint{Date: d, Price: forecast[i]})
	}

	return &models.ForecastResult{
		Method:        models.MethodExponentialSmoothing,
		HorizonDays:   horizonDays,
		WindowDays:    windowDays,
		Retrospective: windowDays,
		Points:        points,
	}, nil
}

// holtParams are alpha and beta in [0,1] plus the state before the first observation.
type holtParams struct {
	alpha, beta  float64
	level, trend float64
}

// holtFilter runs the recursions and returns one-step fitted values, the final state and
// the sum of squared one-step errors.
func holtFilter(y []float64, p holtParams) (fitted []float64, level, trend, sse float64) {
	fitted = make([]float64, len(y))
	level, trend = p.level, p.trend
	for t, obs := range y {
		fitted[t] = level + trend
		e := obs - fitted[t]
		sse += e * e
		prev := level
		level = p.alpha*obs + (1-p.alpha)*(level+trend)
		trend = p.beta*(level-prev) + (1-p.beta)*trend
	}
	return fitted, level, trend, sse
}

// fit estimates the parameters on a rescaled copy of y, so the optimizer works with unit
// sized numbers whatever the price scale. Holt is affine-equivariant, the optimum is the same.
func (f *SmoothingForecaster) fit(y []float64, horizon int) (fitted, forecast []float64, ok bool) {
	origin := y[0]
	scale := stat.StdDev(y, nil)
	if scale == 0 || !isFinite(scale) {
		scale = 1
	}
	z := make([]float64, len(y))
	for i, v := range y {
		z[i] = (v - origin) / scale
	}

	decode := func(x []float64) holtParams {
		return holtParams{alpha: sigmoid(x[0]), beta: sigmoid(x[1]), level: x[2], trend: x[3]}
	}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			_, _, _, sse := holtFilter(z, decode(x))
			if !isFinite(sse) {
				return math.Inf(1)
			}
			return sse
		},
	}
	slope := z[1] - z[0]
	x0 := []float64{logit(0.5), logit(0.1), z[0] - slope, slope}
	settings := &optimize.Settings{
		FuncEvaluations: f.maxEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 200,
		},
	}

	res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil || res == nil || !converged(res.Status) || !isFinite(res.F) || !allFinite(res.X) {
		return nil, nil, false
	}

	zFitted, level, trend, _ := holtFilter(z, decode(res.X))
	fitted = make([]float64, len(y))
	for i, v := range zFitted {
		fitted[i] = origin + scale*v
	}
	forecast = make([]float64, horizon)
	for k := range forecast {
		forecast[k] = origin + scale*(level+float64(k+1)*trend)
	}
	if !allFinite(fitted) || !allFinite(forecast) {
		return nil, nil, false
	}
	return fitted, forecast, true
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Failure, optimize.IterationLimit, optimize.RuntimeLimit, optimize.FunctionEvaluationLimit:
		return false
	default:
		return true
	}
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func logit(p float64) float64 { return math.Log(p / (1 - p)) }

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func allFinite(xs []float64) bool {
	for _, v := range xs {
		if !isFinite(v) {
			return false
		}
	}
	return true
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
