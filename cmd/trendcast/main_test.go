package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSeries(t *testing.T, days int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Date,Close\n")
	start := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		fmt.Fprintf(&b, "%s,%.3f\n", start.AddDate(0, 0, i).Format("2006-01-02"), 70+0.05*float64(i))
	}
	path := filepath.Join(t.TempDir(), "brent.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func execute(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestForecastTable(t *testing.T) {
	path := writeSeries(t, 400)

	out, err := execute("forecast", "--csv", path, "--months", "2", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "brent")
	assert.Contains(t, out, "linregression")
}

func TestForecastJSON(t *testing.T) {
	path := writeSeries(t, 400)

	out, err := execute("forecast", "--csv", path, "--months", "1", "--method", "expsmoothing", "--format", "json", "--instrument", "BRENT")
	require.NoError(t, err)

	var rep map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "expsmoothing", rep["method"])
	assert.Equal(t, "BRENT", rep["instrument"].(map[string]interface{})["code"])
}

func TestForecastErrors(t *testing.T) {
	path := writeSeries(t, 30)

	_, err := execute("forecast", "--csv", path, "--months", "6")
	assert.ErrorContains(t, err, "insufficient data")

	_, err = execute("forecast", "--csv", path, "--method", "arima")
	assert.ErrorContains(t, err, "unknown forecast method")

	_, err = execute("forecast", "--csv", path, "--format", "xml")
	assert.Error(t, err)

	_, err = execute("forecast")
	assert.Error(t, err)
}
