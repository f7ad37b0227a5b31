package models

import "time"

// DaysPerMonth is the fixed synthetic month length used to turn horizons into days.
const DaysPerMonth = 30

// ForecastMethod selects the forecasting strategy.
type ForecastMethod string

const (
	MethodLinearTrend          ForecastMethod = "linregression"
	MethodExponentialSmoothing ForecastMethod = "expsmoothing"
)

// Methods lists the recognised methods in display order.
func Methods() []ForecastMethod {
	return []ForecastMethod{MethodLinearTrend, MethodExponentialSmoothing}
}

// IsValid reports whether m is one of the recognised methods.
func (m ForecastMethod) IsValid() bool {
	switch m {
	case MethodLinearTrend, MethodExponentialSmoothing:
		return true
	default:
		return false
	}
}

// HorizonDays converts a month horizon to days.
func HorizonDays(months int) int { return months * DaysPerMonth }

// ForecastResult holds the retrospective window followed by the prospective forecast.
// Points[:Retrospective] carry dates from the input series, the rest are consecutive days.
type ForecastResult struct {
	Method        ForecastMethod `json:"method"`
	HorizonMonths int            `json:"horizon_months"`
	HorizonDays   int            `json:"horizon_days"`
	WindowDays    int            `json:"window_days"`
	R2            float64        `json:"r2"` // cross-validated score; 0 for smoothing
	Retrospective int            `json:"retrospective"`
	Points        PriceSeries    `json:"points"`
}

// Failed is true if any price is not a finite number. A failed result must not be
// read row by row.
func (r *ForecastResult) Failed() bool {
	if r == nil {
		return true
	}
	for _, p := range r.Points {
		if !p.IsFinite() {
			return true
		}
	}
	return false
}

// RetrospectivePoints returns the fitted-history segment.
func (r *ForecastResult) RetrospectivePoints() PriceSeries {
	return r.Points[:r.Retrospective]
}

// ProspectivePoints returns the future segment.
func (r *ForecastResult) ProspectivePoints() PriceSeries {
	return r.Points[r.Retrospective:]
}

// ForecastEvent is published after every forecast request. It carries diagnostics only,
// never the forecast values.
type ForecastEvent struct {
	ID            string         `json:"id"`
	Instrument    string         `json:"instrument"`
	Method        ForecastMethod `json:"method"`
	HorizonMonths int            `json:"horizon_months"`
	WindowDays    int            `json:"window_days"`
	R2            float64        `json:"r2"`
	Failed        bool           `json:"failed"`
	DurationMS    int64          `json:"duration_ms"`
	Timestamp     time.Time      `json:"timestamp"`
}

// Instrument pairs a storage code with its display label.
type Instrument struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}
