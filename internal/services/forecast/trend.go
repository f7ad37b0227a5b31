package forecast

import (
	"TrendCast/internal/domain/models"
	"TrendCast/pkg/util"
)

// TrendForecaster extrapolates an ordinary least squares line fitted over a window.
type TrendForecaster struct{}

// Forecast fits the windowDays most recent prices against the day index and evaluates
// the line over the window and horizonDays further days. The output has exactly
// windowDays+horizonDays points and is deterministic for fixed inputs.
func (TrendForecaster) Forecast(series models.PriceSeries, windowDays, horizonDays int) (*models.ForecastResult, error) {
	if windowDays < 2 || windowDays > len(series) {
		return nil, &InsufficientDataError{
			Method:    models.MethodLinearTrend,
			Required:  max(windowDays, 2),
			Available: len(series),
		}
	}
	window := series.Tail(windowDays)
	fit := fitLine(dayIndex(windowDays), window.Prices())

	points := make(models.PriceSeries, 0, windowDays+horizonDays)
	for i, p := range window {
		points = append(points, models.PricePoint{Date: p.Date, Price: fit.at(float64(i))})
	}
	last, _ := window.Last()
	for i, d := range util.NextDays(last.Date, horizonDays) {
		points = append(points, models.PricePoint{Date: d, Price: fit.at(float64(windowDays + i))})
	}

	return &models.ForecastResult{
		Method:        models.MethodLinearTrend,
		HorizonDays:   horizonDays,
		WindowDays:    windowDays,
		Retrospective: windowDays,
		Points:        points,
	}, nil
}
