package service

import "TrendCast/internal/domain/models"

// Forecaster produces a forecast for a series, a month horizon and a method.
// Implementations are pure: no I/O and no state shared between calls.
type Forecaster interface {
	Forecast(series models.PriceSeries, months int, method models.ForecastMethod) (*models.ForecastResult, error)
}
