package metrics

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordForecast("linregression", false, 60, 0.9)
	r.RecordForecast("linregression", false, 30, math.NaN())
	r.RecordForecast("expsmoothing", true, 120, 0)
	r.RecordError("insufficient_data")
	r.RecordSeriesLength("GOLD", 400)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.forecasts.WithLabelValues("linregression", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.forecasts.WithLabelValues("expsmoothing", "failed")))
	assert.Equal(t, 0.9, testutil.ToFloat64(r.lastR2.WithLabelValues("linregression")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("insufficient_data")))
	assert.Equal(t, 400.0, testutil.ToFloat64(r.seriesLength.WithLabelValues("GOLD")))
}
