package presenter

import (
	"math"
	"time"

	"TrendCast/internal/domain/models"
	"TrendCast/pkg/util"
)

// FailureMessage replaces every chart, table and summary when a forecast failed.
const FailureMessage = "The forecast could not be computed for this series. Try another method or a shorter horizon."

// Row is one line of the monthly table.
type Row struct {
	Date     time.Time `json:"date"`
	Price    float64   `json:"price"`
	Forecast bool      `json:"forecast"`
}

// Chart carries the lines of the combined chart. Forecast starts at the boundary row so
// it connects to History; Actual holds the observed prices over the same window.
type Chart struct {
	Actual   models.PriceSeries `json:"actual"`
	History  models.PriceSeries `json:"history"`
	Forecast models.PriceSeries `json:"forecast"`
}

// Summary compares the end of the horizon with the last retrospective sample.
type Summary struct {
	BaseDate  time.Time `json:"base_date"`
	BasePrice float64   `json:"base_price"`
	EndDate   time.Time `json:"end_date"`
	EndPrice  float64   `json:"end_price"`
	Days      int       `json:"days"`
	ChangePct float64   `json:"change_pct"`
}

// Report is everything a page or a terminal needs to show one forecast.
type Report struct {
	Instrument    models.Instrument     `json:"instrument"`
	Method        models.ForecastMethod `json:"method"`
	HorizonMonths int                   `json:"horizon_months"`
	WindowDays    int                   `json:"window_days"`
	R2            float64               `json:"r2"`
	Failed        bool                  `json:"failed"`
	Message       string                `json:"message,omitempty"`
	Chart         *Chart                `json:"chart,omitempty"`
	Table         []Row                 `json:"table,omitempty"`
	Summary       *Summary              `json:"summary,omitempty"`
}

// Build turns a forecast into a Report. A failed forecast yields only the message.
func Build(inst models.Instrument, history models.PriceSeries, res *models.ForecastResult) *Report {
	r := &Report{Instrument: inst}
	if res == nil || res.Failed() || len(res.Points) == 0 || res.Retrospective < 1 {
		r.Failed = true
		r.Message = FailureMessage
		if res != nil {
			r.Method = res.Method
			r.HorizonMonths = res.HorizonMonths
			r.WindowDays = res.WindowDays
		}
		return r
	}

	r.Method = res.Method
	r.HorizonMonths = res.HorizonMonths
	r.WindowDays = res.WindowDays
	if !math.IsNaN(res.R2) && !math.IsInf(res.R2, 0) {
		r.R2 = res.R2
	}
	r.Chart = &Chart{
		Actual:   actualSince(history, res.Points[0].Date),
		History:  res.RetrospectivePoints(),
		Forecast: res.Points[res.Retrospective-1:],
	}
	r.Table = MonthlyTable(res)
	r.Summary = summarize(res)
	return r
}

// MonthlyTable samples every 30th row counted from the boundary row (the last
// retrospective row) in both directions, so the boundary row is always present.
func MonthlyTable(res *models.ForecastResult) []Row {
	boundary := res.Retrospective - 1
	rows := make([]Row, 0, len(res.Points)/models.DaysPerMonth+2)
	for i, p := range res.Points {
		if mod(i-boundary, models.DaysPerMonth) != 0 {
			continue
		}
		rows = append(rows, Row{Date: p.Date, Price: p.Price, Forecast: i > boundary})
	}
	return rows
}

func summarize(res *models.ForecastResult) *Summary {
	base := res.Points[res.Retrospective-1]
	end := res.Points[len(res.Points)-1]
	s := &Summary{BaseDate: base.Date, BasePrice: base.Price, EndDate: end.Date, EndPrice: end.Price,
		Days: util.DaysBetween(base.Date, end.Date)}
	if base.Price != 0 {
		s.ChangePct = (end.Price - base.Price) / base.Price * 100
	}
	return s
}

func actualSince(history models.PriceSeries, from time.Time) models.PriceSeries {
	for i, p := range history {
		if !p.Date.Before(from) {
			return history[i:]
		}
	}
	return models.PriceSeries{}
}

func mod(a, n int) int { return ((a % n) + n) % n }
