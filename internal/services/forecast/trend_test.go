package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrendForecastShapeAndDates(t *testing.T) {
	series := noisySeries(200, 1)
	const window, horizon = 90, 60

	res, err := TrendForecaster{}.Forecast(series, window, horizon)
	require.NoError(t, err)

	require.Len(t, res.Points, window+horizon)
	assert.Equal(t, window, res.Retrospective)
	assert.Equal(t, window, res.WindowDays)
	assert.False(t, res.Failed())

	input := series.Tail(window)
	for i := 0; i < window; i++ {
		assert.Equal(t, input[i].Date, res.Points[i].Date)
	}
	last, _ := series.Last()
	assert.Equal(t, last.Date.AddDate(0, 0, 1), res.Points[window].Date)
	requireDailyDates(t, res)
}

func TestTrendForecastExtendsLinearSeries(t *testing.T) {
	// price = 100 + 0.5*day for days 0..399
	series := linearSeries(400, 100, 0.5)
	const horizon = 60

	for _, window := range CandidateWindows(2) {
		res, err := TrendForecaster{}.Forecast(series, window, horizon)
		require.NoError(t, err)

		windowStart := series[len(series)-window].Price
		final := res.Points[len(res.Points)-1].Price
		assert.InDelta(t, windowStart+0.5*float64(window+horizon-1), final, 1e-6, "window=%d", window)
		assert.InDelta(t, 100+0.5*float64(400+horizon-1), final, 1e-6, "window=%d", window)
	}
}

func TestTrendForecastIdempotent(t *testing.T) {
	series := noisySeries(300, 8)

	a, err := TrendForecaster{}.Forecast(series, 120, 30)
	require.NoError(t, err)
	b, err := TrendForecaster{}.Forecast(series, 120, 30)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestTrendForecastWindowTooLong(t *testing.T) {
	_, err := TrendForecaster{}.Forecast(linearSeries(20, 1, 1), 30, 30)
	assert.ErrorIs(t, err, ErrInsufficientData)
}
