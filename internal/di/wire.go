//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"TrendCast/pkg/config"
	"TrendCast/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application together with
// a cleanup that closes every infrastructure client.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Storage and messaging
		ProvideBackend,
		ProvideCache,
		ProvideSeriesRepository,
		ProvideEventPublisher,

		// Use cases
		ProvideForecaster,
		ProvideForecastUseCase,
		ProvideWarmupJob,

		// HTTP
		ProvideRateLimiter,
		ProvideForecastHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return nil, nil, nil
}
