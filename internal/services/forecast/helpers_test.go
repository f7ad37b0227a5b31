package forecast

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"TrendCast/internal/domain/models"
)

var day0 = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

// linearSeries builds n contiguous daily points with price = intercept + slope*day.
func linearSeries(n int, intercept, slope float64) models.PriceSeries {
	s := make(models.PriceSeries, n)
	for i := range s {
		s[i] = models.PricePoint{Date: day0.AddDate(0, 0, i), Price: intercept + slope*float64(i)}
	}
	return s
}

// noisySeries builds a trending, seasonal series with reproducible noise.
func noisySeries(n int, seed uint64) models.PriceSeries {
	rng := rand.New(rand.NewPCG(seed, seed))
	s := make(models.PriceSeries, n)
	for i := range s {
		t := float64(i)
		s[i] = models.PricePoint{
			Date:  day0.AddDate(0, 0, i),
			Price: 100 + 0.3*t + 5*math.Sin(t/7) + rng.NormFloat64()*2,
		}
	}
	return s
}

// requireDailyDates asserts the result dates advance by exactly one day per row.
func requireDailyDates(t *testing.T, res *models.ForecastResult) {
	t.Helper()
	for i := 1; i < len(res.Points); i++ {
		prev, cur := res.Points[i-1].Date, res.Points[i].Date
		require.Equal(t, prev.AddDate(0, 0, 1), cur, "row %d does not follow row %d by one day", i, i-1)
	}
}
