package server

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xhttp "TrendCast/pkg/http"
	applogger "TrendCast/pkg/logger"
)

type countingJob struct {
	started, stopped atomic.Int32
}

func (j *countingJob) Start()               { j.started.Add(1) }
func (j *countingJob) Stop(context.Context) { j.stopped.Add(1) }

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestAppRunStopsOnContextCancel(t *testing.T) {
	srv := xhttp.NewServer(applogger.Nop(), nil,
		xhttp.WithHost("127.0.0.1"),
		xhttp.WithPort(freePort(t)),
	)
	job := &countingJob{}
	app := New(nil, srv, time.Second, nil, job)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool { return job.started.Load() == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.Equal(t, int32(1), job.stopped.Load())
}
