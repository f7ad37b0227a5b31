package models

import (
	"math"
	"time"
)

// PricePoint is a single daily observation of an instrument price.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// PriceSeries is ordered by date ascending. Forecasting code treats it as read-only.
type PriceSeries []PricePoint

// Prices returns the price column.
func (s PriceSeries) Prices() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Price
	}
	return out
}

// Tail returns the n most recent points (or the whole series if shorter).
func (s PriceSeries) Tail(n int) PriceSeries {
	if n >= len(s) {
		return s
	}
	if n <= 0 {
		return PriceSeries{}
	}
	return s[len(s)-n:]
}

// Last returns the most recent point; ok is false for an empty series.
func (s PriceSeries) Last() (PricePoint, bool) {
	if len(s) == 0 {
		return PricePoint{}, false
	}
	return s[len(s)-1], true
}

// IsFinite reports whether the price is a usable number.
func (p PricePoint) IsFinite() bool {
	return !math.IsNaN(p.Price) && !math.IsInf(p.Price, 0)
}
