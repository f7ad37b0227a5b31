package di

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendCast/pkg/config"
	xhttp "TrendCast/pkg/http"
)

func writeCSV(t *testing.T, dir, code string, days int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("date,price\n")
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		fmt.Fprintf(&b, "%s,%.2f\n", start.AddDate(0, 0, i).Format("2006-01-02"), 1800+0.4*float64(i))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, code+".csv"), []byte(b.String()), 0o644))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadWithEnv("")
	require.NoError(t, err)
	cfg.Log.Level = "error"
	cfg.CSV.Dir = t.TempDir()
	cfg.RateLimit.RPS = 1000
	cfg.RateLimit.Burst = 1000
	seed := uint64(11)
	cfg.Forecast.Seed = &seed
	cfg.Instruments = []config.Instrument{{Code: "GOLD", Label: "Gold"}}
	return cfg
}

func TestInitializeAppServesForecasts(t *testing.T) {
	cfg := testConfig(t)
	writeCSV(t, cfg.CSV.Dir, "GOLD", 500)

	app, cleanup, err := InitializeApp(cfg)
	require.NoError(t, err)
	defer cleanup()

	e := app.HTTP().Echo()
	call := func(target string) (*httptest.ResponseRecorder, xhttp.APIResponse) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		var body xhttp.APIResponse
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		return rec, body
	}

	rec, body := call("/api/forecast?instrument=GOLD&months=3")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := body.Data.(map[string]interface{})
	assert.Equal(t, "Gold", data["instrument"].(map[string]interface{})["label"])

	rec, _ = call("/api/forecast?instrument=SILVER")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = call("/api/forecast?instrument=GOLD&months=60")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = call("/api/instruments")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body.Data, 1)

	rec, _ = call("/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = call("/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "trendcast_forecasts_total")
}

func TestInitializeAppWarmup(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scheduler.Enabled = true
	writeCSV(t, cfg.CSV.Dir, "GOLD", 100)

	app, cleanup, err := InitializeApp(cfg)
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, app)

	cfg.Scheduler.WarmupCron = "bogus"
	_, _, err = InitializeApp(cfg)
	assert.Error(t, err)
}
