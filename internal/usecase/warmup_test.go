package usecase

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applogger "TrendCast/pkg/logger"
)

func staticCodes(codes ...string) func(context.Context) ([]string, error) {
	return func(context.Context) ([]string, error) { return codes, nil }
}

func TestWarmupRunOnce(t *testing.T) {
	r := &stubRefresher{fail: map[string]bool{"WHEAT": true}}
	lock := &stubLock{}
	m := &recordingMetrics{}
	job := NewWarmupJob(r, staticCodes("GOLD", "WHEAT", "BRENT"), lock, m, 0, nil)

	res, err := job.RunOnce(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Skipped)
	assert.Equal(t, map[string]int{"GOLD": 42, "BRENT": 42}, res.Refreshed)
	require.Contains(t, res.Failed, "WHEAT")
	assert.Equal(t, []string{"GOLD", "WHEAT", "BRENT"}, r.calls)
	assert.Equal(t, []string{"warmup"}, m.errors)
	assert.True(t, lock.unlocked)
	assert.False(t, lock.held)
}

func TestWarmupLogsRowsPerInstrument(t *testing.T) {
	var buf bytes.Buffer
	l, err := applogger.NewWithWriter(&buf, &applogger.Config{Level: "info", Format: "json"})
	require.NoError(t, err)
	job := NewWarmupJob(&stubRefresher{}, staticCodes("GOLD", "BRENT"), nil, nil, 0, l)

	_, err = job.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"message":"warmup complete"`)
	assert.Contains(t, buf.String(), `"refreshed_rows":{"BRENT":42,"GOLD":42}`)
}

func TestWarmupSkipsWhenLocked(t *testing.T) {
	r := &stubRefresher{}
	job := NewWarmupJob(r, staticCodes("GOLD"), &stubLock{held: true}, nil, 0, nil)

	res, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, r.calls)
}

func TestWarmupInstrumentListError(t *testing.T) {
	job := NewWarmupJob(&stubRefresher{}, func(context.Context) ([]string, error) {
		return nil, errors.New("db down")
	}, nil, nil, 0, nil)

	_, err := job.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestWarmupSchedule(t *testing.T) {
	job := NewWarmupJob(&stubRefresher{}, staticCodes(), nil, nil, 0, nil)

	require.NoError(t, job.Schedule("0 6 * * *"))
	assert.Error(t, job.Schedule("not a cron spec"))

	job.Start()
	job.Start()
	job.Stop(context.Background())
}
