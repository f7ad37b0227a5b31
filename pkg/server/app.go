package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	xhttp "TrendCast/pkg/http"
	applogger "TrendCast/pkg/logger"
)

// BackgroundJob runs alongside the HTTP server.
type BackgroundJob interface {
	Start()
	Stop(ctx context.Context)
}

// Sweeper drops idle per-client state.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// App owns the process lifecycle: HTTP server, background jobs and shutdown.
// Infrastructure clients are closed by the cleanup function returned from DI.
type App struct {
	logger          *applogger.Logger
	httpServer      *xhttp.Server
	jobs            []BackgroundJob
	sweeper         Sweeper
	sweepEvery      time.Duration
	shutdownTimeout time.Duration
}

// New creates an App. jobs may be empty and sweeper may be nil.
func New(l *applogger.Logger, srv *xhttp.Server, shutdownTimeout time.Duration, sweeper Sweeper, jobs ...BackgroundJob) *App {
	if l == nil {
		l = applogger.Nop()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = 15 * time.Second
	}
	return &App{
		logger:          l,
		httpServer:      srv,
		jobs:            jobs,
		sweeper:         sweeper,
		sweepEvery:      time.Minute,
		shutdownTimeout: shutdownTimeout,
	}
}

// HTTP returns the HTTP server.
func (a *App) HTTP() *xhttp.Server { return a.httpServer }

// Run starts everything and blocks until ctx is done, SIGINT/SIGTERM arrives or the
// HTTP server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := a.httpServer.Start()
	for _, j := range a.jobs {
		j.Start()
	}
	if a.sweeper != nil {
		go a.sweepLoop(ctx)
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok && err != nil {
			a.logger.Error("http server failed", applogger.Error(err))
			runErr = err
		}
	}
	return errors.Join(runErr, a.shutdown())
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	a.logger.Info("shutting down")
	for _, j := range a.jobs {
		j.Stop(ctx)
	}
	var err error
	if stopErr := a.httpServer.Stop(ctx); stopErr != nil {
		a.logger.Error("http shutdown error", applogger.Error(stopErr))
		err = stopErr
	}
	a.logger.Info("shutdown complete")
	return err
}

func (a *App) sweepLoop(ctx context.Context) {
	t := time.NewTicker(a.sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.sweeper.Sweep(10 * a.sweepEvery); n > 0 {
				a.logger.Debug("rate limiter swept", applogger.Int("clients", n))
			}
		}
	}
}
